package main

import (
	"errors"

	"github.com/codahale/cbr/pkg/cbr"
	"github.com/sirupsen/logrus"
)

var errNoTokens = errors.New("at least one token must be requested")

type requestCmd struct {
	Count   int    `arg:"" help:"The number of tokens to generate."`
	Tokens  string `arg:"" type:"path" help:"The output path for the secret tokens."`
	Blinded string `arg:"" type:"path" help:"The output path for the blinded tokens."`
}

func (cmd *requestCmd) Run(log *logrus.Logger) error {
	if cmd.Count < 1 {
		return errNoTokens
	}

	tokens := make([]*cbr.Token, cmd.Count)
	blinded := make([]*cbr.BlindedToken, cmd.Count)

	// Generate and blind each token.
	for i := range tokens {
		t, err := cbr.RandomToken(nil)
		if err != nil {
			return err
		}

		p, err := t.Blind(nil)
		if err != nil {
			return err
		}

		tokens[i], blinded[i] = t, p
	}

	defer func() {
		for _, t := range tokens {
			t.Destroy()
		}
	}()

	tokensText, err := cbr.EncodeBatch(tokens)
	if err != nil {
		return err
	}

	blindedText, err := cbr.EncodeBatch(blinded)
	if err != nil {
		return err
	}

	// The tokens contain their blinding factors, so keep them private.
	if err := writeText(cmd.Tokens, tokensText, 0o600); err != nil {
		return err
	}

	if err := writeText(cmd.Blinded, blindedText, 0o644); err != nil {
		return err
	}

	log.WithField("batch_size", cmd.Count).Info("requested tokens")

	return nil
}
