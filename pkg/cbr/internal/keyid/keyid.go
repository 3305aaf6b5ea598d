// Package keyid provides the STROBE protocol for deriving public identifiers for keys.
//
// Given an encoded public key Y and an identifier size N:
//
//     INIT('cbr.keyid', level=256)
//     AD(BIG_ENDIAN_U32(N), meta=true)
//     AD(Y)
//     PRF(N) -> ID
//
// The identifier is safe to log and display; it reveals nothing beyond the public key.
package keyid

import (
	"github.com/codahale/cbr/pkg/cbr/internal"
	"github.com/sammyne/strobe"
)

// ID returns an idSize-byte identifier for the given encoded public key.
func ID(pk []byte, idSize int) []byte {
	s := internal.Strobe("cbr.keyid")

	internal.Must(s.AD(internal.BigEndianU32(idSize), &strobe.Options{Meta: true}))
	internal.Must(s.AD(internal.Copy(pk), &strobe.Options{}))

	id := make([]byte, idSize)
	internal.Must(s.PRF(id, false))

	return id
}
