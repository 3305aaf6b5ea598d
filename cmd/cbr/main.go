package main

import (
	"encoding"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/codahale/cbr/pkg/cbr"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

type cli struct {
	Verbose bool `short:"v" env:"CBR_VERBOSE" help:"Log debug messages."`

	SigningKey signingKeyCmd `cmd:"" help:"Generate a new signing key."`
	PublicKey  publicKeyCmd  `cmd:"" help:"Derive the public key of a signing key."`
	Request    requestCmd    `cmd:"" help:"Generate and blind a batch of tokens."`
	Sign       signCmd       `cmd:"" help:"Sign a batch of blinded tokens and prove it."`
	Unblind    unblindCmd    `cmd:"" help:"Verify a batch proof and unblind the signed tokens."`
	Redeem     redeemCmd     `cmd:"" help:"Sign a message with an unblinded token."`
	Verify     verifyCmd     `cmd:"" help:"Verify a redeemed token's signature of a message."`
	Demo       demoCmd       `cmd:"" help:"Issue and redeem tokens in-process."`
}

func main() {
	var cli cli

	ctx := kong.Parse(&cli,
		kong.Name("cbr"),
		kong.Description("Issue and redeem blind tokens over ristretto255."),
	)
	err := ctx.Run(newLogger(os.Stderr, cli.Verbose))
	ctx.FatalIfErrorf(err)
}

func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.InfoLevel)

	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	return log
}

// decodeValue decodes a value given either directly as base64 text or as the path to a file
// containing it.
func decodeValue[T any, P interface {
	*T
	encoding.TextUnmarshaler
}](pathOrText string) (*T, error) {
	// Try decoding the value directly.
	v := P(new(T))
	if err := v.UnmarshalText([]byte(pathOrText)); err == nil {
		return (*T)(v), nil
	}

	// Otherwise, try reading the contents of it as a file.
	text, err := readText(pathOrText)
	if err != nil {
		return nil, err
	}

	if err := v.UnmarshalText([]byte(text)); err != nil {
		return nil, err
	}

	return (*T)(v), nil
}

// readBatch decodes a comma-separated batch of values from the file at path.
func readBatch[T any, P interface {
	*T
	encoding.TextUnmarshaler
}](path string) ([]*T, error) {
	text, err := readText(path)
	if err != nil {
		return nil, err
	}

	return cbr.DecodeBatch[T, P](text)
}

// readText returns the contents of the file at path with surrounding whitespace removed.
func readText(path string) (string, error) {
	src, err := openInput(path)
	if err != nil {
		return "", err
	}

	defer func() { _ = src.Close() }()

	b, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}

// writeText writes text to the file at path, creating it with the given permissions.
func writeText(path, text string, perm os.FileMode) error {
	dst, err := openOutput(path, perm)
	if err != nil {
		return err
	}

	if path == "-" && term.IsTerminal(int(os.Stdout.Fd())) {
		text += "\n"
	}

	if _, err := io.WriteString(dst, text); err != nil {
		_ = dst.Close()

		return err
	}

	return dst.Close()
}

func openOutput(path string, perm os.FileMode) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}

	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	return os.Open(path)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

var _ io.WriteCloser = nopWriteCloser{}
