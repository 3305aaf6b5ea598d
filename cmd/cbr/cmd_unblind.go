package main

import (
	"github.com/codahale/cbr/pkg/cbr"
	"github.com/sirupsen/logrus"
)

type unblindCmd struct {
	PublicKey string `arg:"" help:"The public key, or the path to it."`
	Tokens    string `arg:"" type:"existingfile" help:"The path to the secret tokens."`
	Blinded   string `arg:"" type:"existingfile" help:"The path to the blinded tokens."`
	Signed    string `arg:"" help:"The path to the signed tokens."`
	Proof     string `arg:"" help:"The batch proof, or the path to it."`
	Output    string `arg:"" type:"path" help:"The output path for the unblinded tokens."`
}

func (cmd *unblindCmd) Run(log *logrus.Logger) error {
	// Decode the public key and the proof.
	pk, err := decodeValue[cbr.PublicKey](cmd.PublicKey)
	if err != nil {
		return err
	}

	proof, err := decodeValue[cbr.BatchDLEQProof](cmd.Proof)
	if err != nil {
		return err
	}

	// Read the three batches.
	tokens, err := readBatch[cbr.Token](cmd.Tokens)
	if err != nil {
		return err
	}

	defer func() {
		for _, t := range tokens {
			t.Destroy()
		}
	}()

	blinded, err := readBatch[cbr.BlindedToken](cmd.Blinded)
	if err != nil {
		return err
	}

	signed, err := readBatch[cbr.SignedToken](cmd.Signed)
	if err != nil {
		return err
	}

	entry := log.WithFields(logrus.Fields{"key_id": pk.ID(), "batch_size": len(tokens)})
	entry.Debug("verifying batch proof")

	// Verify the proof and unblind the tokens.
	unblinded, err := proof.VerifyAndUnblind(tokens, blinded, signed, pk)
	if err != nil {
		return err
	}

	text, err := cbr.EncodeBatch(unblinded)
	if err != nil {
		return err
	}

	if err := writeText(cmd.Output, text, 0o600); err != nil {
		return err
	}

	entry.Info("unblinded tokens")

	return nil
}
