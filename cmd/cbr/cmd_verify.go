package main

import (
	"errors"

	"github.com/codahale/cbr/pkg/cbr"
	"github.com/sirupsen/logrus"
)

var errInvalidRedemption = errors.New("invalid redemption")

type verifyCmd struct {
	SigningKey string `arg:"" type:"existingfile" help:"The path to the signing key."`
	Preimage   string `arg:"" help:"The token preimage, or the path to it."`
	Signature  string `arg:"" help:"The redemption signature, or the path to it."`
	Message    string `arg:"" type:"path" help:"The path to the message."`
}

func (cmd *verifyCmd) Run(log *logrus.Logger) error {
	// Read the signing key.
	sk, err := decodeValue[cbr.SigningKey](cmd.SigningKey)
	if err != nil {
		return err
	}

	defer sk.Destroy()

	// Decode the redemption.
	preimage, err := decodeValue[cbr.TokenPreimage](cmd.Preimage)
	if err != nil {
		return err
	}

	sig, err := decodeValue[cbr.VerificationSignature](cmd.Signature)
	if err != nil {
		return err
	}

	message, err := readMessage(cmd.Message)
	if err != nil {
		return err
	}

	// Re-derive the token's verification key and check the signature.
	vk := sk.RederiveUnblindedToken(preimage).DeriveVerificationKey()

	defer vk.Destroy()

	entry := log.WithField("key_id", sk.String())

	if !vk.Verify(sig, message) {
		entry.Warn("invalid redemption")

		return errInvalidRedemption
	}

	entry.Info("valid redemption")

	return nil
}
