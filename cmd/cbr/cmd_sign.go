package main

import (
	"github.com/codahale/cbr/pkg/cbr"
	"github.com/sirupsen/logrus"
)

type signCmd struct {
	SigningKey string `arg:"" type:"existingfile" help:"The path to the signing key."`
	Blinded    string `arg:"" help:"The path to the blinded tokens."`
	Signed     string `arg:"" type:"path" help:"The output path for the signed tokens."`
	Proof      string `arg:"" type:"path" help:"The output path for the batch proof."`
}

func (cmd *signCmd) Run(log *logrus.Logger) error {
	// Read the signing key.
	sk, err := decodeValue[cbr.SigningKey](cmd.SigningKey)
	if err != nil {
		return err
	}

	defer sk.Destroy()

	// Read the blinded tokens.
	blinded, err := readBatch[cbr.BlindedToken](cmd.Blinded)
	if err != nil {
		return err
	}

	entry := log.WithFields(logrus.Fields{"key_id": sk.String(), "batch_size": len(blinded)})
	entry.Debug("signing tokens")

	// Sign each blinded token.
	signed := make([]*cbr.SignedToken, len(blinded))
	for i, p := range blinded {
		if signed[i], err = sk.Sign(p); err != nil {
			return err
		}
	}

	// Prove the whole batch was signed with the key.
	proof, err := cbr.NewBatchDLEQProof(nil, blinded, signed, sk)
	if err != nil {
		return err
	}

	signedText, err := cbr.EncodeBatch(signed)
	if err != nil {
		return err
	}

	if err := writeText(cmd.Signed, signedText, 0o644); err != nil {
		return err
	}

	if err := writeText(cmd.Proof, proof.EncodeBase64(), 0o644); err != nil {
		return err
	}

	entry.Info("signed tokens")

	return nil
}
