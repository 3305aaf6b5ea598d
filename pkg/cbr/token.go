package cbr

import (
	"encoding"
	"fmt"
	"io"

	"github.com/codahale/cbr/pkg/cbr/internal"
	"github.com/codahale/cbr/pkg/cbr/internal/r255"
	"github.com/codahale/cbr/pkg/cbr/internal/rng"
	"github.com/gtank/ristretto255"
)

const (
	// TokenPreimageSize is the length of a token preimage in bytes.
	TokenPreimageSize = internal.UniformBytestringSize

	// TokenSize is the length of an encoded token in bytes: the preimage followed by the blinding
	// factor.
	TokenSize = TokenPreimageSize + internal.ScalarSize
)

// TokenPreimage is the random value t at the heart of a token. The client reveals it to the server
// when redeeming the token.
type TokenPreimage struct {
	b [TokenPreimageSize]byte
}

// DecodeTokenPreimageBase64 decodes a token preimage from base64 text.
func DecodeTokenPreimageBase64(s string) (*TokenPreimage, error) {
	var t TokenPreimage
	if err := t.UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}

	return &t, nil
}

// element returns T = H(t).
func (t *TokenPreimage) element() *ristretto255.Element {
	return r255.HashToElement(t.b[:])
}

// String returns the token preimage as base64 text.
func (t *TokenPreimage) String() string {
	return t.EncodeBase64()
}

// EncodeBase64 returns the token preimage as base64 text.
func (t *TokenPreimage) EncodeBase64() string {
	return string(encodeText(t.b[:]))
}

// MarshalBinary encodes the token preimage into a 64-byte slice.
func (t *TokenPreimage) MarshalBinary() (data []byte, err error) {
	return internal.Copy(t.b[:]), nil
}

// UnmarshalBinary decodes the token preimage from a 64-byte slice.
func (t *TokenPreimage) UnmarshalBinary(data []byte) error {
	if len(data) != TokenPreimageSize {
		return decodeError("token preimage", errBadLength)
	}

	copy(t.b[:], data)

	return nil
}

// MarshalText encodes the token preimage into base64 text and returns the result.
func (t *TokenPreimage) MarshalText() (text []byte, err error) {
	return encodeText(t.b[:]), nil
}

// UnmarshalText decodes the results of MarshalText and updates the receiver to contain the decoded
// token preimage.
func (t *TokenPreimage) UnmarshalText(text []byte) error {
	data, err := decodeText(text)
	if err != nil {
		return decodeError("token preimage", err)
	}

	return t.UnmarshalBinary(data)
}

// Token is a client's secret token: a random preimage t and, once blinded, the blinding factor r.
//
// Tokens never leave the client. The blinding factor is needed to unblind the signed token, so a
// blinded token must be kept (or marshalled) until VerifyAndUnblind has been called.
type Token struct {
	t TokenPreimage
	r *ristretto255.Scalar
}

// RandomToken returns a new token with a random preimage read from rand. If rand is nil, a shared
// hedged CSPRNG is used. The token has no blinding factor until Blind is called.
func RandomToken(rand io.Reader) (*Token, error) {
	var t Token

	if _, err := io.ReadFull(rng.Or(rand), t.t.b[:]); err != nil {
		return nil, err
	}

	return &t, nil
}

// DecodeTokenBase64 decodes a token from base64 text.
func DecodeTokenBase64(s string) (*Token, error) {
	var t Token
	if err := t.UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}

	return &t, nil
}

// Blind samples a fresh blinding factor r from rand, stores it in the token, and returns the
// blinded token P = r⁻¹T, where T = H(t). If rand is nil, a shared hedged CSPRNG is used.
//
// Blinding a token again replaces its blinding factor, so only the most recent blinded token can be
// unblinded.
func (t *Token) Blind(rand io.Reader) (*BlindedToken, error) {
	r, err := r255.RandomNonZeroScalar(rng.Or(rand))
	if err != nil {
		return nil, err
	}

	t.r = r

	rInv := ristretto255.NewScalar().Invert(r)

	return &BlindedToken{p: ristretto255.NewElement().ScalarMult(rInv, t.t.element())}, nil
}

// Preimage returns the token's preimage.
func (t *Token) Preimage() *TokenPreimage {
	p := t.t

	return &p
}

// matches returns 1 if p is the blinding of the token under its current blinding factor, i.e. if
// rP == H(t), and 0 otherwise.
func (t *Token) matches(p *BlindedToken) int {
	return ristretto255.NewElement().ScalarMult(t.r, p.p).Equal(t.t.element())
}

// unblind returns the unblinded token W = rS for the signed token S.
func (t *Token) unblind(s *SignedToken) *UnblindedToken {
	return &UnblindedToken{t: t.t, w: ristretto255.NewElement().ScalarMult(t.r, s.q)}
}

// Destroy overwrites the token's preimage and blinding factor with zeros. The token must not be
// used afterwards.
func (t *Token) Destroy() {
	internal.Wipe(t.t.b[:])

	if t.r != nil {
		t.r.Add(ristretto255.NewScalar(), ristretto255.NewScalar())
	}
}

// EncodeBase64 returns the token as base64 text.
func (t *Token) EncodeBase64() string {
	return string(encodeText(t.encode()))
}

// MarshalBinary encodes the token into a 96-byte slice. A token which has not been blinded is
// encoded with a zero blinding factor.
func (t *Token) MarshalBinary() (data []byte, err error) {
	return t.encode(), nil
}

// UnmarshalBinary decodes the token from a 96-byte slice.
func (t *Token) UnmarshalBinary(data []byte) error {
	if len(data) != TokenSize {
		return decodeError("token", errBadLength)
	}

	r, err := r255.DecodeScalar(data[TokenPreimageSize:])
	if err != nil {
		return decodeError("token", err)
	}

	copy(t.t.b[:], data[:TokenPreimageSize])

	t.r = nil
	if !r255.IsZero(r) {
		t.r = r
	}

	return nil
}

// MarshalText encodes the token into base64 text and returns the result.
func (t *Token) MarshalText() (text []byte, err error) {
	return encodeText(t.encode()), nil
}

// UnmarshalText decodes the results of MarshalText and updates the receiver to contain the decoded
// token.
func (t *Token) UnmarshalText(text []byte) error {
	data, err := decodeText(text)
	if err != nil {
		return decodeError("token", err)
	}

	return t.UnmarshalBinary(data)
}

func (t *Token) encode() []byte {
	b := make([]byte, 0, TokenSize)
	b = append(b, t.t.b[:]...)

	if t.r == nil {
		return append(b, make([]byte, internal.ScalarSize)...)
	}

	return t.r.Encode(b)
}

var (
	_ encoding.BinaryMarshaler   = &TokenPreimage{}
	_ encoding.BinaryUnmarshaler = &TokenPreimage{}
	_ encoding.TextMarshaler     = &TokenPreimage{}
	_ encoding.TextUnmarshaler   = &TokenPreimage{}
	_ fmt.Stringer               = &TokenPreimage{}

	_ encoding.BinaryMarshaler   = &Token{}
	_ encoding.BinaryUnmarshaler = &Token{}
	_ encoding.TextMarshaler     = &Token{}
	_ encoding.TextUnmarshaler   = &Token{}
)
