package cbr

import (
	"encoding"
	"fmt"

	"github.com/codahale/cbr/pkg/cbr/internal/r255"
	"github.com/gtank/ristretto255"
)

// ElementSize is the length of an encoded blinded or signed token in bytes.
const ElementSize = 32

// BlindedToken is a token blinded by the client, P = r⁻¹H(t), and sent to the server for signing.
// It reveals nothing about the token preimage.
type BlindedToken struct {
	p *ristretto255.Element
}

// DecodeBlindedTokenBase64 decodes a blinded token from base64 text.
func DecodeBlindedTokenBase64(s string) (*BlindedToken, error) {
	var p BlindedToken
	if err := p.UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}

	return &p, nil
}

// String returns the blinded token as base64 text.
func (p *BlindedToken) String() string {
	return p.EncodeBase64()
}

// EncodeBase64 returns the blinded token as base64 text.
func (p *BlindedToken) EncodeBase64() string {
	return string(encodeText(p.p.Encode(nil)))
}

// MarshalBinary encodes the blinded token into a 32-byte slice.
func (p *BlindedToken) MarshalBinary() (data []byte, err error) {
	return p.p.Encode(nil), nil
}

// UnmarshalBinary decodes the blinded token from a 32-byte slice.
func (p *BlindedToken) UnmarshalBinary(data []byte) error {
	e, err := r255.DecodeElement(data)
	if err != nil {
		return decodeError("blinded token", err)
	}

	p.p = e

	return nil
}

// MarshalText encodes the blinded token into base64 text and returns the result.
func (p *BlindedToken) MarshalText() (text []byte, err error) {
	return encodeText(p.p.Encode(nil)), nil
}

// UnmarshalText decodes the results of MarshalText and updates the receiver to contain the decoded
// blinded token.
func (p *BlindedToken) UnmarshalText(text []byte) error {
	data, err := decodeText(text)
	if err != nil {
		return decodeError("blinded token", err)
	}

	return p.UnmarshalBinary(data)
}

// SignedToken is a blinded token signed by the server, Q = kP.
type SignedToken struct {
	q *ristretto255.Element
}

// DecodeSignedTokenBase64 decodes a signed token from base64 text.
func DecodeSignedTokenBase64(s string) (*SignedToken, error) {
	var q SignedToken
	if err := q.UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}

	return &q, nil
}

// String returns the signed token as base64 text.
func (q *SignedToken) String() string {
	return q.EncodeBase64()
}

// EncodeBase64 returns the signed token as base64 text.
func (q *SignedToken) EncodeBase64() string {
	return string(encodeText(q.q.Encode(nil)))
}

// MarshalBinary encodes the signed token into a 32-byte slice.
func (q *SignedToken) MarshalBinary() (data []byte, err error) {
	return q.q.Encode(nil), nil
}

// UnmarshalBinary decodes the signed token from a 32-byte slice.
func (q *SignedToken) UnmarshalBinary(data []byte) error {
	e, err := r255.DecodeElement(data)
	if err != nil {
		return decodeError("signed token", err)
	}

	q.q = e

	return nil
}

// MarshalText encodes the signed token into base64 text and returns the result.
func (q *SignedToken) MarshalText() (text []byte, err error) {
	return encodeText(q.q.Encode(nil)), nil
}

// UnmarshalText decodes the results of MarshalText and updates the receiver to contain the decoded
// signed token.
func (q *SignedToken) UnmarshalText(text []byte) error {
	data, err := decodeText(text)
	if err != nil {
		return decodeError("signed token", err)
	}

	return q.UnmarshalBinary(data)
}

func blindedElements(tokens []*BlindedToken) []*ristretto255.Element {
	elements := make([]*ristretto255.Element, len(tokens))
	for i, t := range tokens {
		elements[i] = t.p
	}

	return elements
}

func signedElements(tokens []*SignedToken) []*ristretto255.Element {
	elements := make([]*ristretto255.Element, len(tokens))
	for i, t := range tokens {
		elements[i] = t.q
	}

	return elements
}

var (
	_ encoding.BinaryMarshaler   = &BlindedToken{}
	_ encoding.BinaryUnmarshaler = &BlindedToken{}
	_ encoding.TextMarshaler     = &BlindedToken{}
	_ encoding.TextUnmarshaler   = &BlindedToken{}
	_ fmt.Stringer               = &BlindedToken{}

	_ encoding.BinaryMarshaler   = &SignedToken{}
	_ encoding.BinaryUnmarshaler = &SignedToken{}
	_ encoding.TextMarshaler     = &SignedToken{}
	_ encoding.TextUnmarshaler   = &SignedToken{}
	_ fmt.Stringer               = &SignedToken{}
)
