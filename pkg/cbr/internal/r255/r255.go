// Package r255 provides the ristretto255 group arithmetic cbr is built on.
//
// All field and group operations come from github.com/gtank/ristretto255, which runs in constant
// time with respect to secret scalars. This package adds canonical decoding, hashing into the
// group, and a parallel linear combination for batch proofs.
package r255

import (
	"crypto/sha512"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/codahale/cbr/pkg/cbr/internal"
	"github.com/gtank/ristretto255"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInvalidLength is returned when an encoded scalar or element has the wrong length.
	ErrInvalidLength = errors.New("invalid length")

	// ErrInvalidScalar is returned when a scalar encoding is not canonical.
	ErrInvalidScalar = errors.New("non-canonical scalar")

	// ErrInvalidElement is returned when an element encoding is not canonical or is the identity.
	ErrInvalidElement = errors.New("invalid element")
)

//nolint:gochecknoglobals // constants
var (
	one        = mustDecodeScalar([]byte{1})
	generator  = ristretto255.NewElement().ScalarBaseMult(one)
	encodedGen = generator.Encode(nil)
)

// One returns a new scalar set to 1.
func One() *ristretto255.Scalar {
	return ristretto255.NewScalar().Add(ristretto255.NewScalar(), one)
}

// Generator returns a new element set to the ristretto255 generator.
func Generator() *ristretto255.Element {
	return ristretto255.NewElement().Add(ristretto255.NewElement(), generator)
}

// GeneratorBytes returns the canonical encoding of the ristretto255 generator.
func GeneratorBytes() []byte {
	return internal.Copy(encodedGen)
}

// IsZero returns true if the given scalar is zero.
func IsZero(s *ristretto255.Scalar) bool {
	return s.Equal(ristretto255.NewScalar()) == 1
}

// RandomScalar returns a uniformly distributed scalar using 64 bytes from the given reader.
func RandomScalar(rand io.Reader) (*ristretto255.Scalar, error) {
	var buf [internal.UniformBytestringSize]byte
	defer internal.Wipe(buf[:])

	if _, err := io.ReadFull(rand, buf[:]); err != nil {
		return nil, err
	}

	return ristretto255.NewScalar().FromUniformBytes(buf[:]), nil
}

// RandomNonZeroScalar returns a uniformly distributed non-zero scalar.
func RandomNonZeroScalar(rand io.Reader) (*ristretto255.Scalar, error) {
	for {
		s, err := RandomScalar(rand)
		if err != nil {
			return nil, err
		}

		if !IsZero(s) {
			return s, nil
		}
	}
}

// ScalarFromUniformBytes maps a 64-byte uniform bytestring to a scalar.
func ScalarFromUniformBytes(b []byte) (*ristretto255.Scalar, error) {
	if len(b) != internal.UniformBytestringSize {
		return nil, ErrInvalidLength
	}

	return ristretto255.NewScalar().FromUniformBytes(b), nil
}

// DecodeScalar decodes a canonical 32-byte scalar encoding.
func DecodeScalar(b []byte) (*ristretto255.Scalar, error) {
	if len(b) != internal.ScalarSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidLength, len(b))
	}

	s := ristretto255.NewScalar()
	if err := s.Decode(b); err != nil {
		return nil, ErrInvalidScalar
	}

	return s, nil
}

// DecodeElement decodes a canonical 32-byte element encoding. The identity element is rejected.
func DecodeElement(b []byte) (*ristretto255.Element, error) {
	if len(b) != internal.ElementSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidLength, len(b))
	}

	e := ristretto255.NewElement()
	if err := e.Decode(b); err != nil {
		return nil, ErrInvalidElement
	}

	if e.Equal(ristretto255.NewElement()) == 1 {
		return nil, ErrInvalidElement
	}

	return e, nil
}

// HashToElement deterministically maps arbitrary data to an element by hashing it with SHA-512 and
// applying the ristretto255 Elligator map to the digest.
func HashToElement(data []byte) *ristretto255.Element {
	h := sha512.Sum512(data)

	return ristretto255.NewElement().FromUniformBytes(h[:])
}

// parallelThreshold is the number of terms below which Sum runs on the calling goroutine.
const parallelThreshold = 64

// Sum returns the linear combination Σ scalars[i]·elements[i]. Large combinations are split into
// contiguous chunks which are multiplied concurrently; the partial sums are added in chunk order.
func Sum(scalars []*ristretto255.Scalar, elements []*ristretto255.Element) *ristretto255.Element {
	if len(scalars) != len(elements) {
		panic("r255: mismatched scalar and element counts")
	}

	workers := runtime.GOMAXPROCS(0)
	if len(scalars) < parallelThreshold || workers < 2 {
		return sum(scalars, elements)
	}

	size := (len(scalars) + workers - 1) / workers
	partials := make([]*ristretto255.Element, (len(scalars)+size-1)/size)

	var eg errgroup.Group

	for i := range partials {
		i := i
		start := i * size
		end := start + size

		if end > len(scalars) {
			end = len(scalars)
		}

		eg.Go(func() error {
			partials[i] = sum(scalars[start:end], elements[start:end])

			return nil
		})
	}

	// The workers never fail, so Wait only joins them.
	_ = eg.Wait()

	total := ristretto255.NewElement()
	for _, p := range partials {
		total = ristretto255.NewElement().Add(total, p)
	}

	return total
}

func sum(scalars []*ristretto255.Scalar, elements []*ristretto255.Element) *ristretto255.Element {
	total := ristretto255.NewElement()

	for i, s := range scalars {
		term := ristretto255.NewElement().ScalarMult(s, elements[i])
		total = ristretto255.NewElement().Add(total, term)
	}

	return total
}

func mustDecodeScalar(b []byte) *ristretto255.Scalar {
	var buf [internal.ScalarSize]byte

	copy(buf[:], b)

	s := ristretto255.NewScalar()
	internal.Must(s.Decode(buf[:]))

	return s
}
