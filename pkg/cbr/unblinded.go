package cbr

import (
	"crypto/subtle"
	"encoding"

	"github.com/codahale/cbr/pkg/cbr/internal"
	"github.com/codahale/cbr/pkg/cbr/internal/r255"
	"github.com/gtank/ristretto255"
)

// UnblindedTokenSize is the length of an encoded unblinded token in bytes: the preimage followed by
// the unblinded element.
const UnblindedTokenSize = TokenPreimageSize + internal.ElementSize

// UnblindedToken is a signed token with the blinding removed, W = kH(t), paired with its preimage.
//
// The client obtains it from VerifyAndUnblind; the server re-derives it from the preimage with
// RederiveUnblindedToken. Both derive the same VerificationKey from it.
type UnblindedToken struct {
	t TokenPreimage
	w *ristretto255.Element
}

// DecodeUnblindedTokenBase64 decodes an unblinded token from base64 text.
func DecodeUnblindedTokenBase64(s string) (*UnblindedToken, error) {
	var u UnblindedToken
	if err := u.UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}

	return &u, nil
}

// Preimage returns the preimage of the unblinded token, which the client reveals on redemption.
func (u *UnblindedToken) Preimage() *TokenPreimage {
	p := u.t

	return &p
}

// Equal returns true if both unblinded tokens have the same preimage and element.
func (u *UnblindedToken) Equal(other *UnblindedToken) bool {
	return subtle.ConstantTimeCompare(u.t.b[:], other.t.b[:])&u.w.Equal(other.w) == 1
}

// EncodeBase64 returns the unblinded token as base64 text.
func (u *UnblindedToken) EncodeBase64() string {
	return string(encodeText(u.encode()))
}

// MarshalBinary encodes the unblinded token into a 96-byte slice.
func (u *UnblindedToken) MarshalBinary() (data []byte, err error) {
	return u.encode(), nil
}

// UnmarshalBinary decodes the unblinded token from a 96-byte slice.
func (u *UnblindedToken) UnmarshalBinary(data []byte) error {
	if len(data) != UnblindedTokenSize {
		return decodeError("unblinded token", errBadLength)
	}

	w, err := r255.DecodeElement(data[TokenPreimageSize:])
	if err != nil {
		return decodeError("unblinded token", err)
	}

	copy(u.t.b[:], data[:TokenPreimageSize])
	u.w = w

	return nil
}

// MarshalText encodes the unblinded token into base64 text and returns the result.
func (u *UnblindedToken) MarshalText() (text []byte, err error) {
	return encodeText(u.encode()), nil
}

// UnmarshalText decodes the results of MarshalText and updates the receiver to contain the decoded
// unblinded token.
func (u *UnblindedToken) UnmarshalText(text []byte) error {
	data, err := decodeText(text)
	if err != nil {
		return decodeError("unblinded token", err)
	}

	return u.UnmarshalBinary(data)
}

func (u *UnblindedToken) encode() []byte {
	b := make([]byte, 0, UnblindedTokenSize)
	b = append(b, u.t.b[:]...)

	return u.w.Encode(b)
}

var (
	_ encoding.BinaryMarshaler   = &UnblindedToken{}
	_ encoding.BinaryUnmarshaler = &UnblindedToken{}
	_ encoding.TextMarshaler     = &UnblindedToken{}
	_ encoding.TextUnmarshaler   = &UnblindedToken{}
)
