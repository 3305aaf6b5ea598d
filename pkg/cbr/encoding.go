package cbr

import (
	"encoding"
	"encoding/base64"
	"errors"
	"strings"
)

// BatchSeparator separates the encoded values of a batch.
const BatchSeparator = ","

//nolint:gochecknoglobals // constant
var b64 = base64.StdEncoding.Strict()

var (
	errEmptyBatch = errors.New("empty batch")
	errEmptyValue = errors.New("empty value")
	errBadLength  = errors.New("bad length")
)

func encodeText(b []byte) []byte {
	text := make([]byte, b64.EncodedLen(len(b)))

	b64.Encode(text, b)

	return text
}

func decodeText(text []byte) ([]byte, error) {
	b := make([]byte, b64.DecodedLen(len(text)))

	n, err := b64.Decode(b, text)
	if err != nil {
		return nil, err
	}

	return b[:n], nil
}

// EncodeBatch encodes the given values as base64 text and joins them with BatchSeparator, keeping
// their order.
func EncodeBatch[T encoding.TextMarshaler](values []T) (string, error) {
	parts := make([]string, len(values))

	for i, v := range values {
		text, err := v.MarshalText()
		if err != nil {
			return "", err
		}

		parts[i] = string(text)
	}

	return strings.Join(parts, BatchSeparator), nil
}

// DecodeBatch splits s on BatchSeparator and decodes each part, keeping their order. Every part is
// decoded even if an earlier one fails, and the returned error does not identify the invalid part.
func DecodeBatch[T any, P interface {
	*T
	encoding.TextUnmarshaler
}](s string) ([]*T, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, decodeError("batch", errEmptyBatch)
	}

	parts := strings.Split(s, BatchSeparator)
	values := make([]*T, len(parts))

	var first error

	for i, part := range parts {
		v := P(new(T))
		if err := v.UnmarshalText([]byte(strings.TrimSpace(part))); err != nil && first == nil {
			first = err
		}

		values[i] = (*T)(v)
	}

	if first != nil {
		return nil, first
	}

	return values, nil
}
