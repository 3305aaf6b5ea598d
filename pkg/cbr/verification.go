package cbr

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding"
	"fmt"

	"github.com/codahale/cbr/pkg/cbr/internal"
)

const (
	// VerificationKeySize is the length of a verification key in bytes.
	VerificationKeySize = sha512.Size

	// VerificationSignatureSize is the length of a verification signature in bytes.
	VerificationSignatureSize = sha512.Size

	verificationKeyLabel = "hash_derive_key"
)

// DeriveVerificationKey derives the symmetric verification key for the unblinded token:
//
//     SHA-512("hash_derive_key" || t || W)
//
// where t is the preimage and W the encoded unblinded element. This is the derivation used by
// challenge-bypass-ristretto, so keys and signatures interoperate with it.
func (u *UnblindedToken) DeriveVerificationKey() *VerificationKey {
	var vk VerificationKey

	data := u.encode()
	defer internal.Wipe(data)

	h := sha512.New()
	_, _ = h.Write([]byte(verificationKeyLabel))
	_, _ = h.Write(data)
	h.Sum(vk.k[:0])

	return &vk
}

// VerificationKey is a symmetric key derived from an unblinded token, used to sign and verify
// redemption messages.
type VerificationKey struct {
	k [VerificationKeySize]byte
}

// Sign returns the HMAC-SHA-512 signature of the message.
func (vk *VerificationKey) Sign(message []byte) *VerificationSignature {
	var sig VerificationSignature

	h := hmac.New(sha512.New, vk.k[:])
	_, _ = h.Write(message)
	h.Sum(sig.b[:0])

	return &sig
}

// Verify returns true if sig is the signature of message under the key. The comparison runs in
// constant time.
func (vk *VerificationKey) Verify(sig *VerificationSignature, message []byte) bool {
	return hmac.Equal(vk.Sign(message).b[:], sig.b[:])
}

// Destroy overwrites the verification key with zeros. The key must not be used afterwards.
func (vk *VerificationKey) Destroy() {
	internal.Wipe(vk.k[:])
}

// MarshalBinary encodes the verification key into a 64-byte slice.
func (vk *VerificationKey) MarshalBinary() (data []byte, err error) {
	return internal.Copy(vk.k[:]), nil
}

// UnmarshalBinary decodes the verification key from a 64-byte slice.
func (vk *VerificationKey) UnmarshalBinary(data []byte) error {
	if len(data) != VerificationKeySize {
		return decodeError("verification key", errBadLength)
	}

	copy(vk.k[:], data)

	return nil
}

// MarshalText encodes the verification key into base64 text and returns the result.
func (vk *VerificationKey) MarshalText() (text []byte, err error) {
	return encodeText(vk.k[:]), nil
}

// UnmarshalText decodes the results of MarshalText and updates the receiver to contain the decoded
// verification key.
func (vk *VerificationKey) UnmarshalText(text []byte) error {
	data, err := decodeText(text)
	if err != nil {
		return decodeError("verification key", err)
	}

	return vk.UnmarshalBinary(data)
}

// VerificationSignature is a redemption signature of a message, created with a VerificationKey.
type VerificationSignature struct {
	b [VerificationSignatureSize]byte
}

// DecodeVerificationSignatureBase64 decodes a verification signature from base64 text.
func DecodeVerificationSignatureBase64(s string) (*VerificationSignature, error) {
	var sig VerificationSignature
	if err := sig.UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}

	return &sig, nil
}

// String returns the signature as base64 text.
func (s *VerificationSignature) String() string {
	return s.EncodeBase64()
}

// EncodeBase64 returns the signature as base64 text.
func (s *VerificationSignature) EncodeBase64() string {
	return string(encodeText(s.b[:]))
}

// MarshalBinary encodes the signature into a 64-byte slice.
func (s *VerificationSignature) MarshalBinary() (data []byte, err error) {
	return internal.Copy(s.b[:]), nil
}

// UnmarshalBinary decodes the signature from a 64-byte slice.
func (s *VerificationSignature) UnmarshalBinary(data []byte) error {
	if len(data) != VerificationSignatureSize {
		return decodeError("verification signature", errBadLength)
	}

	copy(s.b[:], data)

	return nil
}

// MarshalText encodes the signature into base64 text and returns the result.
func (s *VerificationSignature) MarshalText() (text []byte, err error) {
	return encodeText(s.b[:]), nil
}

// UnmarshalText decodes the results of MarshalText and updates the receiver to contain the decoded
// signature.
func (s *VerificationSignature) UnmarshalText(text []byte) error {
	data, err := decodeText(text)
	if err != nil {
		return decodeError("verification signature", err)
	}

	return s.UnmarshalBinary(data)
}

var (
	_ encoding.BinaryMarshaler   = &VerificationKey{}
	_ encoding.BinaryUnmarshaler = &VerificationKey{}
	_ encoding.TextMarshaler     = &VerificationKey{}
	_ encoding.TextUnmarshaler   = &VerificationKey{}

	_ encoding.BinaryMarshaler   = &VerificationSignature{}
	_ encoding.BinaryUnmarshaler = &VerificationSignature{}
	_ encoding.TextMarshaler     = &VerificationSignature{}
	_ encoding.TextUnmarshaler   = &VerificationSignature{}
	_ fmt.Stringer               = &VerificationSignature{}
)
