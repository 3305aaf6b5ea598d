package main

import (
	"github.com/codahale/cbr/pkg/cbr"
	"github.com/sirupsen/logrus"
)

type signingKeyCmd struct {
	Output string `arg:"" type:"path" help:"The output path for the signing key."`
}

func (cmd *signingKeyCmd) Run(log *logrus.Logger) error {
	// Generate a new signing key.
	sk, err := cbr.RandomSigningKey(nil)
	if err != nil {
		return err
	}

	defer sk.Destroy()

	// Write out the signing key.
	if err := writeText(cmd.Output, sk.EncodeBase64(), 0o600); err != nil {
		return err
	}

	log.WithField("key_id", sk.String()).Info("created signing key")

	return nil
}
