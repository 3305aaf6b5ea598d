// Package dleq implements non-interactive Chaum-Pedersen proofs of discrete logarithm equality over
// ristretto255, and the randomized linear combination which batches many of them into one.
//
// A proof that log_G(Y) == log_P(Q) for a secret k, where Y = kG and Q = kP, is created as follows:
//
//     t ← random non-zero scalar
//     A = tG
//     B = tP
//     c = H(G, Y, P, Q, A, B)
//     s = t - ck
//
// H is SHA-512 over the concatenated canonical encodings, mapped to a scalar by wide reduction. The
// proof is the pair (c, s). To verify, A' = sG + cY and B' = sP + cQ are calculated, and the proof
// is valid iff H(G, Y, P, Q, A', B') == c.
//
// A batch of pairs (P_i, Q_i) is reduced to a single pair (M, Z) by deriving a seed from the whole
// ordered batch:
//
//     seed = SHA-512(G || Y || P_1 || Q_1 || ... || P_n || Q_n)[:32]
//
// The seed keys ChaCha20 with an all-zero nonce, and each coefficient c_i is the wide reduction of
// the next 64 bytes of keystream. M = Σ c_i P_i and Z = Σ c_i Q_i, and the batch proof is a single
// proof that log_G(Y) == log_M(Z). Because the coefficients depend on every element of the batch,
// the prover cannot choose them, and any reordering produces different composites.
package dleq

import (
	"crypto/sha512"
	"errors"
	"io"

	"github.com/codahale/cbr/pkg/cbr/internal"
	"github.com/codahale/cbr/pkg/cbr/internal/r255"
	"github.com/gtank/ristretto255"
	"golang.org/x/crypto/chacha20"
)

// ProofSize is the length of an encoded proof in bytes.
const ProofSize = 2 * internal.ScalarSize

var (
	// ErrInvalidProof is returned when a proof encoding cannot be parsed.
	ErrInvalidProof = errors.New("invalid proof")

	// ErrEmptyBatch is returned when a batch proof has no pairs to combine.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrMismatchedBatch is returned when a batch has a different number of P and Q elements.
	ErrMismatchedBatch = errors.New("mismatched batch")
)

// Proof is a Chaum-Pedersen proof of discrete logarithm equality.
type Proof struct {
	c, s *ristretto255.Scalar
}

// Prove returns a proof that log_G(y) == log_p(q), where k is the discrete logarithm.
func Prove(rand io.Reader, k *ristretto255.Scalar, y, p, q *ristretto255.Element) (*Proof, error) {
	t, err := r255.RandomNonZeroScalar(rand)
	if err != nil {
		return nil, err
	}

	// Calculate the commitments.
	a := ristretto255.NewElement().ScalarBaseMult(t)
	b := ristretto255.NewElement().ScalarMult(t, p)

	// Derive the challenge from the transcript.
	c := challenge(y, p, q, a, b)

	// Calculate the response s = t - ck.
	ck := ristretto255.NewScalar().Multiply(c, k)
	s := ristretto255.NewScalar().Add(t, ristretto255.NewScalar().Negate(ck))

	return &Proof{c: c, s: s}, nil
}

// Verify returns true if the proof shows that log_G(y) == log_p(q).
func (pr *Proof) Verify(y, p, q *ristretto255.Element) bool {
	// A' = sG + cY
	a := ristretto255.NewElement().Add(
		ristretto255.NewElement().ScalarBaseMult(pr.s),
		ristretto255.NewElement().ScalarMult(pr.c, y),
	)

	// B' = sP + cQ
	b := ristretto255.NewElement().Add(
		ristretto255.NewElement().ScalarMult(pr.s, p),
		ristretto255.NewElement().ScalarMult(pr.c, q),
	)

	return challenge(y, p, q, a, b).Equal(pr.c) == 1
}

// ProveBatch returns a proof that log_G(y) == log_ps[i](qs[i]) for every i, with k as the discrete
// logarithm.
func ProveBatch(
	rand io.Reader, k *ristretto255.Scalar, y *ristretto255.Element, ps, qs []*ristretto255.Element,
) (*Proof, error) {
	m, z, err := Composites(y, ps, qs)
	if err != nil {
		return nil, err
	}

	return Prove(rand, k, y, m, z)
}

// VerifyBatch returns true if the proof shows that log_G(y) == log_ps[i](qs[i]) for every i.
func (pr *Proof) VerifyBatch(y *ristretto255.Element, ps, qs []*ristretto255.Element) bool {
	m, z, err := Composites(y, ps, qs)
	if err != nil {
		return false
	}

	return pr.Verify(y, m, z)
}

// Composites returns the composite elements M = Σ c_i ps[i] and Z = Σ c_i qs[i].
func Composites(y *ristretto255.Element, ps, qs []*ristretto255.Element) (m, z *ristretto255.Element, err error) {
	c, err := Coefficients(y, ps, qs)
	if err != nil {
		return nil, nil, err
	}

	return r255.Sum(c, ps), r255.Sum(c, qs), nil
}

// Coefficients returns the batching coefficients for the given public key and ordered batch.
func Coefficients(y *ristretto255.Element, ps, qs []*ristretto255.Element) ([]*ristretto255.Scalar, error) {
	if len(ps) != len(qs) {
		return nil, ErrMismatchedBatch
	}

	if len(ps) == 0 {
		return nil, ErrEmptyBatch
	}

	buf := make([]byte, 0, internal.ElementSize)
	h := sha512.New()
	_, _ = h.Write(r255.GeneratorBytes())
	_, _ = h.Write(y.Encode(buf[:0]))

	for i := range ps {
		_, _ = h.Write(ps[i].Encode(buf[:0]))
		_, _ = h.Write(qs[i].Encode(buf[:0]))
	}

	seed := h.Sum(nil)[:chacha20.KeySize]

	var nonce [chacha20.NonceSize]byte

	stream, err := chacha20.NewUnauthenticatedCipher(seed, nonce[:])
	if err != nil {
		panic(err)
	}

	c := make([]*ristretto255.Scalar, len(ps))
	block := make([]byte, internal.UniformBytestringSize)

	for i := range c {
		internal.Wipe(block)
		stream.XORKeyStream(block, block)

		c[i] = ristretto255.NewScalar().FromUniformBytes(block)
	}

	return c, nil
}

// Encode appends the 64-byte encoding of the proof (c || s) to b and returns the result.
func (pr *Proof) Encode(b []byte) []byte {
	b = pr.c.Encode(b)

	return pr.s.Encode(b)
}

// Decode parses a 64-byte proof encoding. Both scalars must be canonical.
func Decode(b []byte) (*Proof, error) {
	if len(b) != ProofSize {
		return nil, ErrInvalidProof
	}

	c, err := r255.DecodeScalar(b[:internal.ScalarSize])
	if err != nil {
		return nil, ErrInvalidProof
	}

	s, err := r255.DecodeScalar(b[internal.ScalarSize:])
	if err != nil {
		return nil, ErrInvalidProof
	}

	return &Proof{c: c, s: s}, nil
}

func challenge(y, p, q, a, b *ristretto255.Element) *ristretto255.Scalar {
	buf := make([]byte, 0, internal.ElementSize)
	h := sha512.New()

	_, _ = h.Write(r255.GeneratorBytes())

	for _, e := range []*ristretto255.Element{y, p, q, a, b} {
		_, _ = h.Write(e.Encode(buf[:0]))
	}

	return ristretto255.NewScalar().FromUniformBytes(h.Sum(nil))
}
