package cbr

import (
	"encoding"
	"fmt"
	"io"

	"github.com/codahale/cbr/pkg/cbr/internal/dleq"
	"github.com/codahale/cbr/pkg/cbr/internal/rng"
)

// ProofSize is the length of an encoded DLEQ proof or batch DLEQ proof in bytes.
const ProofSize = dleq.ProofSize

// DLEQProof is a proof that a single signed token was created with the signing key corresponding to
// a public key, i.e. that log_G(Y) == log_P(Q).
type DLEQProof struct {
	p *dleq.Proof
}

// NewDLEQProof returns a proof that q was signed from p with the given signing key. If rand is nil,
// a shared hedged CSPRNG is used.
func NewDLEQProof(rand io.Reader, p *BlindedToken, q *SignedToken, sk *SigningKey) (*DLEQProof, error) {
	if err := checkBatch([]*BlindedToken{p}, []*SignedToken{q}); err != nil {
		return nil, err
	}

	proof, err := dleq.Prove(rng.Or(rand), sk.k, sk.pk.y, p.p, q.q)
	if err != nil {
		return nil, err
	}

	return &DLEQProof{p: proof}, nil
}

// DecodeDLEQProofBase64 decodes a DLEQ proof from base64 text.
func DecodeDLEQProofBase64(s string) (*DLEQProof, error) {
	var pr DLEQProof
	if err := pr.UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}

	return &pr, nil
}

// Verify returns nil if the proof shows that q was signed from p with the signing key corresponding
// to pk, otherwise ErrVerify.
func (pr *DLEQProof) Verify(p *BlindedToken, q *SignedToken, pk *PublicKey) error {
	if pr.p == nil {
		return decodeError("DLEQ proof", errEmptyValue)
	}

	if err := checkBatch([]*BlindedToken{p}, []*SignedToken{q}); err != nil {
		return err
	}

	if err := checkPublicKey(pk); err != nil {
		return err
	}

	if !pr.p.Verify(pk.y, p.p, q.q) {
		return ErrVerify
	}

	return nil
}

// String returns the proof as base64 text.
func (pr *DLEQProof) String() string {
	return pr.EncodeBase64()
}

// EncodeBase64 returns the proof as base64 text.
func (pr *DLEQProof) EncodeBase64() string {
	return string(encodeText(pr.p.Encode(nil)))
}

// MarshalBinary encodes the proof into a 64-byte slice.
func (pr *DLEQProof) MarshalBinary() (data []byte, err error) {
	return pr.p.Encode(nil), nil
}

// UnmarshalBinary decodes the proof from a 64-byte slice.
func (pr *DLEQProof) UnmarshalBinary(data []byte) error {
	p, err := dleq.Decode(data)
	if err != nil {
		return decodeError("DLEQ proof", err)
	}

	pr.p = p

	return nil
}

// MarshalText encodes the proof into base64 text and returns the result.
func (pr *DLEQProof) MarshalText() (text []byte, err error) {
	return encodeText(pr.p.Encode(nil)), nil
}

// UnmarshalText decodes the results of MarshalText and updates the receiver to contain the decoded
// proof.
func (pr *DLEQProof) UnmarshalText(text []byte) error {
	data, err := decodeText(text)
	if err != nil {
		return decodeError("DLEQ proof", err)
	}

	return pr.UnmarshalBinary(data)
}

// BatchDLEQProof is a single proof that every signed token in an ordered batch was created with
// the signing key corresponding to a public key.
type BatchDLEQProof struct {
	p *dleq.Proof
}

// NewBatchDLEQProof returns a proof that each signed[i] was signed from blinded[i] with the given
// signing key. The proof is bound to the order of the batch. If rand is nil, a shared hedged
// CSPRNG is used.
func NewBatchDLEQProof(
	rand io.Reader, blinded []*BlindedToken, signed []*SignedToken, sk *SigningKey,
) (*BatchDLEQProof, error) {
	if err := checkBatch(blinded, signed); err != nil {
		return nil, err
	}

	proof, err := dleq.ProveBatch(rng.Or(rand), sk.k, sk.pk.y, blindedElements(blinded), signedElements(signed))
	if err != nil {
		return nil, err
	}

	return &BatchDLEQProof{p: proof}, nil
}

// DecodeBatchDLEQProofBase64 decodes a batch DLEQ proof from base64 text.
func DecodeBatchDLEQProofBase64(s string) (*BatchDLEQProof, error) {
	var pr BatchDLEQProof
	if err := pr.UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}

	return &pr, nil
}

// Verify returns nil if the proof shows that every signed[i] was signed from blinded[i] with the
// signing key corresponding to pk. It returns ErrLengthMismatch if the batches are empty or have
// different lengths, and ErrVerify if the proof is invalid.
func (pr *BatchDLEQProof) Verify(blinded []*BlindedToken, signed []*SignedToken, pk *PublicKey) error {
	if pr.p == nil {
		return decodeError("batch DLEQ proof", errEmptyValue)
	}

	if err := checkBatch(blinded, signed); err != nil {
		return err
	}

	if err := checkPublicKey(pk); err != nil {
		return err
	}

	if !pr.p.VerifyBatch(pk.y, blindedElements(blinded), signedElements(signed)) {
		return ErrVerify
	}

	return nil
}

// VerifyAndUnblind verifies the proof and, if it is valid, unblinds each signed token with the
// blinding factor of the corresponding token. The unblinded tokens are returned in batch order.
//
// The lists must be in the same order they were blinded and signed in. Malformed input is reported
// as ErrLengthMismatch, ErrNotBlinded, or ErrInvalidEncoding before any proof verification. If a
// token is not the one its blinded token was created from, ErrTokenMismatch is returned.
func (pr *BatchDLEQProof) VerifyAndUnblind(
	tokens []*Token, blinded []*BlindedToken, signed []*SignedToken, pk *PublicKey,
) ([]*UnblindedToken, error) {
	if len(tokens) != len(blinded) {
		return nil, ErrLengthMismatch
	}

	if err := checkBatch(blinded, signed); err != nil {
		return nil, err
	}

	for _, t := range tokens {
		if t == nil {
			return nil, decodeError("token", errEmptyValue)
		}

		if t.r == nil {
			return nil, ErrNotBlinded
		}
	}

	if err := pr.Verify(blinded, signed, pk); err != nil {
		return nil, err
	}

	// Check every pairing before reporting, so a mismatch does not reveal its position.
	matched := 1
	for i, t := range tokens {
		matched &= t.matches(blinded[i])
	}

	if matched != 1 {
		return nil, ErrTokenMismatch
	}

	unblinded := make([]*UnblindedToken, len(tokens))
	for i, t := range tokens {
		unblinded[i] = t.unblind(signed[i])
	}

	return unblinded, nil
}

// String returns the proof as base64 text.
func (pr *BatchDLEQProof) String() string {
	return pr.EncodeBase64()
}

// EncodeBase64 returns the proof as base64 text.
func (pr *BatchDLEQProof) EncodeBase64() string {
	return string(encodeText(pr.p.Encode(nil)))
}

// MarshalBinary encodes the proof into a 64-byte slice.
func (pr *BatchDLEQProof) MarshalBinary() (data []byte, err error) {
	return pr.p.Encode(nil), nil
}

// UnmarshalBinary decodes the proof from a 64-byte slice.
func (pr *BatchDLEQProof) UnmarshalBinary(data []byte) error {
	p, err := dleq.Decode(data)
	if err != nil {
		return decodeError("batch DLEQ proof", err)
	}

	pr.p = p

	return nil
}

// MarshalText encodes the proof into base64 text and returns the result.
func (pr *BatchDLEQProof) MarshalText() (text []byte, err error) {
	return encodeText(pr.p.Encode(nil)), nil
}

// UnmarshalText decodes the results of MarshalText and updates the receiver to contain the decoded
// proof.
func (pr *BatchDLEQProof) UnmarshalText(text []byte) error {
	data, err := decodeText(text)
	if err != nil {
		return decodeError("batch DLEQ proof", err)
	}

	return pr.UnmarshalBinary(data)
}

// checkBatch returns an error if the batch is empty, has mismatched lengths, or contains values
// which were never decoded.
func checkBatch(blinded []*BlindedToken, signed []*SignedToken) error {
	if len(blinded) == 0 || len(blinded) != len(signed) {
		return ErrLengthMismatch
	}

	for i := range blinded {
		if blinded[i] == nil || blinded[i].p == nil {
			return decodeError("blinded token", errEmptyValue)
		}

		if signed[i] == nil || signed[i].q == nil {
			return decodeError("signed token", errEmptyValue)
		}
	}

	return nil
}

func checkPublicKey(pk *PublicKey) error {
	if pk == nil || pk.y == nil {
		return decodeError("public key", errEmptyValue)
	}

	return nil
}

var (
	_ encoding.BinaryMarshaler   = &DLEQProof{}
	_ encoding.BinaryUnmarshaler = &DLEQProof{}
	_ encoding.TextMarshaler     = &DLEQProof{}
	_ encoding.TextUnmarshaler   = &DLEQProof{}
	_ fmt.Stringer               = &DLEQProof{}

	_ encoding.BinaryMarshaler   = &BatchDLEQProof{}
	_ encoding.BinaryUnmarshaler = &BatchDLEQProof{}
	_ encoding.TextMarshaler     = &BatchDLEQProof{}
	_ encoding.TextUnmarshaler   = &BatchDLEQProof{}
	_ fmt.Stringer               = &BatchDLEQProof{}
)
