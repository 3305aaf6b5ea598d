package cbr

import (
	"encoding"
	"errors"
	"fmt"
	"io"

	"github.com/codahale/cbr/pkg/cbr/internal/r255"
	"github.com/codahale/cbr/pkg/cbr/internal/rng"
	"github.com/gtank/ristretto255"
)

// SigningKeySize is the length of an encoded signing key in bytes.
const SigningKeySize = 32

var errZeroKey = errors.New("zero signing key")

// SigningKey is a server's secret key, used to sign blinded tokens and to re-derive unblinded
// tokens at redemption time.
//
// It should never leave the server. Call Destroy when it is no longer needed.
type SigningKey struct {
	k  *ristretto255.Scalar
	pk *PublicKey
}

// RandomSigningKey returns a new signing key with a uniformly random non-zero scalar read from
// rand. If rand is nil, a shared hedged CSPRNG is used.
func RandomSigningKey(rand io.Reader) (*SigningKey, error) {
	k, err := r255.RandomNonZeroScalar(rng.Or(rand))
	if err != nil {
		return nil, err
	}

	return newSigningKey(k), nil
}

// DecodeSigningKeyBase64 decodes a signing key from base64 text.
func DecodeSigningKeyBase64(s string) (*SigningKey, error) {
	var sk SigningKey
	if err := sk.UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}

	return &sk, nil
}

func newSigningKey(k *ristretto255.Scalar) *SigningKey {
	return &SigningKey{
		k:  k,
		pk: &PublicKey{y: ristretto255.NewElement().ScalarBaseMult(k)},
	}
}

// PublicKey returns the public key corresponding to the signing key.
func (sk *SigningKey) PublicKey() *PublicKey {
	return sk.pk
}

// Sign returns the signed token S = kP for the blinded token P.
func (sk *SigningKey) Sign(p *BlindedToken) (*SignedToken, error) {
	if p == nil || p.p == nil {
		return nil, decodeError("blinded token", errEmptyValue)
	}

	return &SignedToken{q: ristretto255.NewElement().ScalarMult(sk.k, p.p)}, nil
}

// RederiveUnblindedToken returns the unblinded token W = kT for the given token preimage, where
// T = H(t). For a token issued with this signing key, it is identical to the unblinded token the
// client obtained from VerifyAndUnblind.
func (sk *SigningKey) RederiveUnblindedToken(t *TokenPreimage) *UnblindedToken {
	return &UnblindedToken{
		t: *t,
		w: ristretto255.NewElement().ScalarMult(sk.k, t.element()),
	}
}

// Destroy overwrites the signing key's scalar with zero. The key must not be used afterwards.
func (sk *SigningKey) Destroy() {
	sk.k.Add(ristretto255.NewScalar(), ristretto255.NewScalar())
}

// String returns a safe identifier for the key.
func (sk *SigningKey) String() string {
	return sk.pk.ID()
}

// EncodeBase64 returns the signing key as base64 text.
func (sk *SigningKey) EncodeBase64() string {
	return string(encodeText(sk.k.Encode(nil)))
}

// MarshalBinary encodes the signing key into a 32-byte slice.
func (sk *SigningKey) MarshalBinary() (data []byte, err error) {
	return sk.k.Encode(nil), nil
}

// UnmarshalBinary decodes the signing key from a 32-byte slice.
func (sk *SigningKey) UnmarshalBinary(data []byte) error {
	k, err := r255.DecodeScalar(data)
	if err != nil {
		return decodeError("signing key", err)
	}

	if r255.IsZero(k) {
		return decodeError("signing key", errZeroKey)
	}

	*sk = *newSigningKey(k)

	return nil
}

// MarshalText encodes the signing key into base64 text and returns the result.
func (sk *SigningKey) MarshalText() (text []byte, err error) {
	return encodeText(sk.k.Encode(nil)), nil
}

// UnmarshalText decodes the results of MarshalText and updates the receiver to contain the decoded
// signing key.
func (sk *SigningKey) UnmarshalText(text []byte) error {
	data, err := decodeText(text)
	if err != nil {
		return decodeError("signing key", err)
	}

	return sk.UnmarshalBinary(data)
}

var (
	_ encoding.BinaryMarshaler   = &SigningKey{}
	_ encoding.BinaryUnmarshaler = &SigningKey{}
	_ encoding.TextMarshaler     = &SigningKey{}
	_ encoding.TextUnmarshaler   = &SigningKey{}
	_ fmt.Stringer               = &SigningKey{}
)
