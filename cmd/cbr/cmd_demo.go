package main

import (
	"fmt"
	"io"
	"os"

	"github.com/codahale/cbr/pkg/cbr"
	"github.com/sirupsen/logrus"
)

type demoCmd struct {
	Count   int    `default:"2" help:"The number of tokens to issue."`
	Message string `default:"test message" help:"The message to redeem the first token with."`
}

func (cmd *demoCmd) Run(log *logrus.Logger) error {
	return cmd.run(os.Stdout, log)
}

func (cmd *demoCmd) run(w io.Writer, log *logrus.Logger) error {
	if cmd.Count < 1 {
		return errNoTokens
	}

	// Server: create a signing key.
	sk, err := cbr.RandomSigningKey(nil)
	if err != nil {
		return err
	}

	defer sk.Destroy()

	entry := log.WithFields(logrus.Fields{"key_id": sk.String(), "batch_size": cmd.Count})

	// Client: create and blind tokens.
	tokens := make([]*cbr.Token, cmd.Count)
	blinded := make([]*cbr.BlindedToken, cmd.Count)

	for i := range tokens {
		if tokens[i], err = cbr.RandomToken(nil); err != nil {
			return err
		}

		if blinded[i], err = tokens[i].Blind(nil); err != nil {
			return err
		}
	}

	entry.Debug("blinded tokens")

	// Server: sign the blinded tokens and prove it.
	signed := make([]*cbr.SignedToken, cmd.Count)
	for i, p := range blinded {
		if signed[i], err = sk.Sign(p); err != nil {
			return err
		}
	}

	proof, err := cbr.NewBatchDLEQProof(nil, blinded, signed, sk)
	if err != nil {
		return err
	}

	entry.Debug("signed tokens")

	// Client: verify the proof and unblind.
	unblinded, err := proof.VerifyAndUnblind(tokens, blinded, signed, sk.PublicKey())
	if err != nil {
		return err
	}

	entry.Debug("unblinded tokens")

	// Client: redeem the first token.
	message := []byte(cmd.Message)
	sig := unblinded[0].DeriveVerificationKey().Sign(message)

	// Server: verify the redemption, and reject it for a different message.
	vk := sk.RederiveUnblindedToken(unblinded[0].Preimage()).DeriveVerificationKey()

	valid := vk.Verify(sig, message)
	forged := vk.Verify(sig, append(message, '!'))

	entry.WithFields(logrus.Fields{"valid": valid, "forged": forged}).Info("redeemed token")

	_, err = fmt.Fprintf(w, "public key: %s\nproof:      %s\nredemption: %t\nforgery:    %t\n",
		sk.PublicKey(), proof, valid, forged)

	return err
}
