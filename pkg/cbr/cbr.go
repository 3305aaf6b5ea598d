// Package cbr implements blind token issuance and redemption over ristretto255.
//
// A client generates random tokens, blinds them, and sends the blinded tokens to a server. The
// server signs each blinded token with its signing key and returns the signed tokens together
// with a single batch DLEQ proof that every token was signed with the key behind its public key.
// The client verifies the proof, unblinds the signed tokens, and keeps the resulting unblinded
// tokens. The server never sees the unblinded values, so it cannot link issuance to redemption.
//
// To redeem a token, the client derives a verification key from the unblinded token and uses it to
// sign an application message. It sends the token preimage and the signature to the server, which
// re-derives the unblinded token from the preimage with its signing key, derives the same
// verification key, and checks the signature.
//
// Every value type can be marshalled as binary or as base64 text. Batches are encoded as
// comma-separated lists of base64 values in a fixed order, which must be preserved between
// signing and verification.
package cbr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEncoding is returned when a value cannot be decoded, either because it is not valid
	// base64, has the wrong length, or is not a canonical scalar or element encoding.
	ErrInvalidEncoding = errors.New("invalid encoding")

	// ErrLengthMismatch is returned when the token lists passed to a batch operation are empty or
	// have different lengths.
	ErrLengthMismatch = errors.New("mismatched batch lengths")

	// ErrVerify is returned when a DLEQ proof does not verify. It never identifies which token in a
	// batch was invalid.
	ErrVerify = errors.New("proof verification failed")

	// ErrNotBlinded is returned when a token without a blinding factor is passed to an operation
	// which requires one.
	ErrNotBlinded = errors.New("token has not been blinded")

	// ErrTokenMismatch is returned when the tokens passed to VerifyAndUnblind are not the ones the
	// blinded tokens were created from, or are not in the same order. It never identifies which
	// token was mismatched.
	ErrTokenMismatch = errors.New("tokens do not match blinded tokens")
)

func decodeError(name string, err error) error {
	return fmt.Errorf("invalid %s: %w: %w", name, ErrInvalidEncoding, err)
}
