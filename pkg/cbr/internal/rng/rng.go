// Package rng provides the STROBE protocol behind cbr's random number generator.
//
// At startup, a STROBE protocol is initialized:
//
//     INIT('cbr.rng', level=256)
//
// When a block of random data is required, a block B of equivalent size is read from the host
// machine's RNG, and the following operations performed:
//
//     AD(LE_U64(LEN(B)), meta=true)
//     KEY(B)
//     PRF(LEN(B)) -> B
//     RATCHET(32)
//
// This insulates cbr somewhat against compromised RNGs, but at the end of the day this is still a
// deterministic process.
//
// Deterministic streams for tests are keyed once with a seed and skip the host RNG:
//
//     INIT('cbr.rng.deterministic', level=256)
//     KEY(SEED)
//
// followed by the AD/PRF/RATCHET sequence above for each block.
package rng

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync"

	"github.com/codahale/cbr/pkg/cbr/internal"
	"github.com/sammyne/strobe"
)

// Read is a helper function that calls Reader.Read using io.ReadFull. On return, n == len(b) if and
// only if err == nil.
func Read(b []byte) (int, error) {
	return io.ReadFull(Reader, b)
}

// Reader is a global, shared instance of a cryptographically secure random number generator.
//
//nolint:gochecknoglobals // need a singleton
var Reader io.Reader = &reader{rng: internal.Strobe("cbr.rng"), entropy: rand.Reader}

// Or returns r if it is not nil, otherwise Reader.
func Or(r io.Reader) io.Reader {
	if r == nil {
		return Reader
	}

	return r
}

// NewDeterministic returns a reader which produces a repeatable stream of pseudorandom bytes
// derived from the given seed. It must only be used in tests.
func NewDeterministic(seed []byte) io.Reader {
	s := internal.Strobe("cbr.rng.deterministic")
	internal.Must(s.KEY(internal.Copy(seed), false))

	return &reader{rng: s}
}

type reader struct {
	m       sync.Mutex
	rng     *strobe.Strobe
	entropy io.Reader
	lenBuf  [8]byte
}

func (r *reader) Read(p []byte) (n int, err error) {
	r.m.Lock()
	defer r.m.Unlock()

	// Include length of PRF request as associated data.
	binary.LittleEndian.PutUint64(r.lenBuf[:], uint64(len(p)))
	internal.Must(r.rng.AD(r.lenBuf[:], &strobe.Options{Meta: true}))

	if r.entropy != nil {
		// Read a new block of data from the underlying RNG.
		if _, err := io.ReadFull(r.entropy, p); err != nil {
			return 0, err
		}

		// Re-key the protocol with the block.
		internal.Must(r.rng.KEY(p, false))
	}

	// Return the results of the PRF.
	internal.Must(r.rng.PRF(p, false))

	// Ratchet the state of the RNG to prevent rollback.
	internal.Must(r.rng.RATCHET(internal.RatchetSize))

	return len(p), nil
}
