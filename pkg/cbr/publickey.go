package cbr

import (
	"encoding"
	"fmt"

	"github.com/codahale/cbr/pkg/cbr/internal/keyid"
	"github.com/codahale/cbr/pkg/cbr/internal/r255"
	"github.com/gtank/ristretto255"
	"github.com/mr-tron/base58"
)

const (
	// PublicKeySize is the length of an encoded public key in bytes.
	PublicKeySize = 32

	keyIDSize = 8
)

// PublicKey is a server's public key, Y = kG, used by clients to verify DLEQ proofs.
//
// It can be marshalled and unmarshalled as base64 text.
type PublicKey struct {
	y *ristretto255.Element
}

// DecodePublicKeyBase64 decodes a public key from base64 text.
func DecodePublicKeyBase64(s string) (*PublicKey, error) {
	var pk PublicKey
	if err := pk.UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}

	return &pk, nil
}

// ID returns a short base58 identifier for the public key, suitable for logs and display.
func (pk *PublicKey) ID() string {
	return base58.Encode(keyid.ID(pk.y.Encode(nil), keyIDSize))
}

// Equal returns true if both public keys are the same.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return pk.y.Equal(other.y) == 1
}

// String returns the public key as base64 text.
func (pk *PublicKey) String() string {
	return pk.EncodeBase64()
}

// EncodeBase64 returns the public key as base64 text.
func (pk *PublicKey) EncodeBase64() string {
	return string(encodeText(pk.y.Encode(nil)))
}

// MarshalBinary encodes the public key into a 32-byte slice.
func (pk *PublicKey) MarshalBinary() (data []byte, err error) {
	return pk.y.Encode(nil), nil
}

// UnmarshalBinary decodes the public key from a 32-byte slice.
func (pk *PublicKey) UnmarshalBinary(data []byte) error {
	y, err := r255.DecodeElement(data)
	if err != nil {
		return decodeError("public key", err)
	}

	pk.y = y

	return nil
}

// MarshalText encodes the public key into base64 text and returns the result.
func (pk *PublicKey) MarshalText() (text []byte, err error) {
	return encodeText(pk.y.Encode(nil)), nil
}

// UnmarshalText decodes the results of MarshalText and updates the receiver to contain the decoded
// public key.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	data, err := decodeText(text)
	if err != nil {
		return decodeError("public key", err)
	}

	return pk.UnmarshalBinary(data)
}

var (
	_ encoding.BinaryMarshaler   = &PublicKey{}
	_ encoding.BinaryUnmarshaler = &PublicKey{}
	_ encoding.TextMarshaler     = &PublicKey{}
	_ encoding.TextUnmarshaler   = &PublicKey{}
	_ fmt.Stringer               = &PublicKey{}
)
