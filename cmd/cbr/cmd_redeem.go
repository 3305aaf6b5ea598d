package main

import (
	"fmt"
	"io"

	"github.com/codahale/cbr/pkg/cbr"
	"github.com/sirupsen/logrus"
)

type redeemCmd struct {
	Unblinded string `arg:"" type:"existingfile" help:"The path to the unblinded tokens."`
	Index     int    `arg:"" help:"The position of the token to redeem."`
	Message   string `arg:"" type:"path" help:"The path to the message."`
	Output    string `arg:"" type:"path" default:"-" help:"The output path for the redemption."`
}

func (cmd *redeemCmd) Run(log *logrus.Logger) error {
	// Read the unblinded tokens and pick the one to redeem.
	unblinded, err := readBatch[cbr.UnblindedToken](cmd.Unblinded)
	if err != nil {
		return err
	}

	if cmd.Index < 0 || cmd.Index >= len(unblinded) {
		return fmt.Errorf("no token at position %d of %d", cmd.Index, len(unblinded))
	}

	message, err := readMessage(cmd.Message)
	if err != nil {
		return err
	}

	// Sign the message with the token's verification key.
	u := unblinded[cmd.Index]
	vk := u.DeriveVerificationKey()

	defer vk.Destroy()

	sig := vk.Sign(message)

	log.WithField("message_size", len(message)).Debug("redeemed token")

	// Write out the preimage and signature, which are all the server needs.
	return writeText(cmd.Output, u.Preimage().EncodeBase64()+cbr.BatchSeparator+sig.EncodeBase64(), 0o644)
}

func readMessage(path string) ([]byte, error) {
	src, err := openInput(path)
	if err != nil {
		return nil, err
	}

	defer func() { _ = src.Close() }()

	return io.ReadAll(src)
}
