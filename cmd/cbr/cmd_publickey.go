package main

import (
	"github.com/codahale/cbr/pkg/cbr"
	"github.com/sirupsen/logrus"
)

type publicKeyCmd struct {
	SigningKey string `arg:"" type:"existingfile" help:"The path to the signing key."`
	Output     string `arg:"" type:"path" default:"-" help:"The output path for the public key."`
}

func (cmd *publicKeyCmd) Run(log *logrus.Logger) error {
	// Read the signing key.
	sk, err := decodeValue[cbr.SigningKey](cmd.SigningKey)
	if err != nil {
		return err
	}

	defer sk.Destroy()

	log.WithField("key_id", sk.String()).Debug("read signing key")

	// Encode the public key and write it to the output.
	return writeText(cmd.Output, sk.PublicKey().EncodeBase64(), 0o644)
}
