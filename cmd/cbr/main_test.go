package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/codahale/cbr/pkg/cbr"
	"github.com/codahale/gubbins/assert"
	"github.com/sirupsen/logrus"
)

func TestIssueAndRedeem(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := func(name string) string { return filepath.Join(dir, name) }
	log := newLogger(io.Discard, true)

	if err := os.WriteFile(path("message"), []byte("test message"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path("other"), []byte("asdf"), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, cmd := range []interface{ Run(*logrus.Logger) error }{
		&signingKeyCmd{Output: path("sk")},
		&publicKeyCmd{SigningKey: path("sk"), Output: path("pk")},
		&requestCmd{Count: 3, Tokens: path("tokens"), Blinded: path("blinded")},
		&signCmd{SigningKey: path("sk"), Blinded: path("blinded"), Signed: path("signed"), Proof: path("proof")},
		&unblindCmd{
			PublicKey: path("pk"),
			Tokens:    path("tokens"),
			Blinded:   path("blinded"),
			Signed:    path("signed"),
			Proof:     path("proof"),
			Output:    path("unblinded"),
		},
		&redeemCmd{Unblinded: path("unblinded"), Index: 1, Message: path("message"), Output: path("redemption")},
	} {
		if err := cmd.Run(log); err != nil {
			t.Fatalf("%T: %v", cmd, err)
		}
	}

	info, err := os.Stat(path("sk"))
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "signing key mode", os.FileMode(0o600), info.Mode().Perm())

	redemption, err := readText(path("redemption"))
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Split(redemption, cbr.BatchSeparator)
	assert.Equal(t, "redemption parts", 2, len(parts))

	verify := &verifyCmd{SigningKey: path("sk"), Preimage: parts[0], Signature: parts[1], Message: path("message")}
	if err := verify.Run(log); err != nil {
		t.Fatal(err)
	}

	verify.Message = path("other")
	if err := verify.Run(log); !errors.Is(err, errInvalidRedemption) {
		t.Errorf("expected errInvalidRedemption but was %v", err)
	}
}

func TestUnblind_WrongKey(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := func(name string) string { return filepath.Join(dir, name) }
	log := newLogger(io.Discard, false)

	for _, cmd := range []interface{ Run(*logrus.Logger) error }{
		&signingKeyCmd{Output: path("sk")},
		&signingKeyCmd{Output: path("other")},
		&publicKeyCmd{SigningKey: path("other"), Output: path("pk")},
		&requestCmd{Count: 2, Tokens: path("tokens"), Blinded: path("blinded")},
		&signCmd{SigningKey: path("sk"), Blinded: path("blinded"), Signed: path("signed"), Proof: path("proof")},
	} {
		if err := cmd.Run(log); err != nil {
			t.Fatalf("%T: %v", cmd, err)
		}
	}

	cmd := &unblindCmd{
		PublicKey: path("pk"),
		Tokens:    path("tokens"),
		Blinded:   path("blinded"),
		Signed:    path("signed"),
		Proof:     path("proof"),
		Output:    path("unblinded"),
	}
	if err := cmd.Run(log); !errors.Is(err, cbr.ErrVerify) {
		t.Errorf("expected ErrVerify but was %v", err)
	}

	if _, err := os.Stat(path("unblinded")); !os.IsNotExist(err) {
		t.Errorf("unblinded tokens were written: %v", err)
	}
}

func TestRequest_NoTokens(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cmd := &requestCmd{Count: 0, Tokens: filepath.Join(dir, "tokens"), Blinded: filepath.Join(dir, "blinded")}

	if err := cmd.Run(newLogger(io.Discard, false)); !errors.Is(err, errNoTokens) {
		t.Errorf("expected errNoTokens but was %v", err)
	}
}

func TestDemo(t *testing.T) {
	t.Parallel()

	out := bytes.NewBuffer(nil)
	logs := bytes.NewBuffer(nil)
	cmd := &demoCmd{Count: 5, Message: "test message"}

	if err := cmd.run(out, newLogger(logs, false)); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "redemption", true, strings.Contains(out.String(), "redemption: true\n"))
	assert.Equal(t, "forgery", true, strings.Contains(out.String(), "forgery:    false\n"))
	assert.Equal(t, "log", true, strings.Contains(logs.String(), "batch_size=5"))
}

func TestDecodeValue(t *testing.T) {
	t.Parallel()

	sk, err := cbr.RandomSigningKey(nil)
	if err != nil {
		t.Fatal(err)
	}

	text := sk.PublicKey().EncodeBase64()
	file := filepath.Join(t.TempDir(), "pk")

	if err := os.WriteFile(file, []byte(text+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	direct, err := decodeValue[cbr.PublicKey](text)
	if err != nil {
		t.Fatal(err)
	}

	fromFile, err := decodeValue[cbr.PublicKey](file)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "public keys", direct.EncodeBase64(), fromFile.EncodeBase64())
}

func TestParse(t *testing.T) {
	t.Parallel()

	var cli cli

	parser, err := kong.New(&cli)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := parser.Parse([]string{"--verbose", "request", "3", "tokens.txt", "blinded.txt"}); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "verbose", true, cli.Verbose)
	assert.Equal(t, "count", 3, cli.Request.Count)
	assert.Equal(t, "blinded", "blinded.txt", filepath.Base(cli.Request.Blinded))
}
