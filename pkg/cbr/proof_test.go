package cbr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/codahale/gubbins/assert"
	"github.com/google/go-cmp/cmp"
)

type testBatch struct {
	sk      *SigningKey
	tokens  []*Token
	blinded []*BlindedToken
	signed  []*SignedToken
}

func newTestBatch(tb testing.TB, n int) *testBatch {
	tb.Helper()

	b := &testBatch{sk: newTestSigningKey(tb)}

	for i := 0; i < n; i++ {
		tok := newTestToken(tb)

		p, err := tok.Blind(nil)
		if err != nil {
			tb.Fatal(err)
		}

		q, err := b.sk.Sign(p)
		if err != nil {
			tb.Fatal(err)
		}

		b.tokens = append(b.tokens, tok)
		b.blinded = append(b.blinded, p)
		b.signed = append(b.signed, q)
	}

	return b
}

func (b *testBatch) prove(tb testing.TB) *BatchDLEQProof {
	tb.Helper()

	proof, err := NewBatchDLEQProof(nil, b.blinded, b.signed, b.sk)
	if err != nil {
		tb.Fatal(err)
	}

	return proof
}

func TestBatchDLEQProof_VerifyAndUnblind(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 5, 100} {
		n := n

		t.Run(fmt.Sprint(n), func(t *testing.T) {
			t.Parallel()

			b := newTestBatch(t, n)
			proof := b.prove(t)

			unblinded, err := proof.VerifyAndUnblind(b.tokens, b.blinded, b.signed, b.sk.PublicKey())
			if err != nil {
				t.Fatal(err)
			}

			want := make([]string, n)
			got := make([]string, n)

			for i, tok := range b.tokens {
				want[i] = b.sk.RederiveUnblindedToken(tok.Preimage()).EncodeBase64()
				got[i] = unblinded[i].EncodeBase64()
			}

			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("unblinded tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBatchDLEQProof_WrongPublicKey(t *testing.T) {
	t.Parallel()

	b := newTestBatch(t, 3)
	proof := b.prove(t)
	other := newTestSigningKey(t)

	if _, err := proof.VerifyAndUnblind(b.tokens, b.blinded, b.signed, other.PublicKey()); !errors.Is(err, ErrVerify) {
		t.Errorf("expected ErrVerify but was %v", err)
	}
}

func TestBatchDLEQProof_DishonestSigner(t *testing.T) {
	t.Parallel()

	b := newTestBatch(t, 4)
	other := newTestSigningKey(t)

	// The server signs one token with a different key, which would let it tag the client.
	q, err := other.Sign(b.blinded[2])
	if err != nil {
		t.Fatal(err)
	}

	b.signed[2] = q

	proof := b.prove(t)

	if _, err := proof.VerifyAndUnblind(b.tokens, b.blinded, b.signed, b.sk.PublicKey()); !errors.Is(err, ErrVerify) {
		t.Errorf("expected ErrVerify but was %v", err)
	}
}

func TestBatchDLEQProof_Reordered(t *testing.T) {
	t.Parallel()

	b := newTestBatch(t, 3)
	proof := b.prove(t)

	b.tokens[0], b.tokens[1] = b.tokens[1], b.tokens[0]
	b.blinded[0], b.blinded[1] = b.blinded[1], b.blinded[0]
	b.signed[0], b.signed[1] = b.signed[1], b.signed[0]

	if err := proof.Verify(b.blinded, b.signed, b.sk.PublicKey()); !errors.Is(err, ErrVerify) {
		t.Errorf("expected ErrVerify but was %v", err)
	}
}

func TestBatchDLEQProof_BitFlips(t *testing.T) {
	t.Parallel()

	b := newTestBatch(t, 2)
	proof := b.prove(t)
	pk := b.sk.PublicKey()

	// flip returns a copy of the encoded value with the given bit inverted.
	flip := func(data []byte, bit int) []byte {
		c := append([]byte(nil), data...)
		c[bit/8] ^= 1 << (bit % 8)

		return c
	}

	for i := range b.blinded {
		data, _ := b.blinded[i].MarshalBinary()

		for bit := 0; bit < 8*len(data); bit++ {
			var p BlindedToken
			if err := p.UnmarshalBinary(flip(data, bit)); err != nil {
				continue
			}

			blinded := append([]*BlindedToken(nil), b.blinded...)
			blinded[i] = &p

			if err := proof.Verify(blinded, b.signed, pk); !errors.Is(err, ErrVerify) {
				t.Fatalf("blinded token %d bit %d: expected ErrVerify but was %v", i, bit, err)
			}
		}
	}

	for i := range b.signed {
		data, _ := b.signed[i].MarshalBinary()

		for bit := 0; bit < 8*len(data); bit++ {
			var q SignedToken
			if err := q.UnmarshalBinary(flip(data, bit)); err != nil {
				continue
			}

			signed := append([]*SignedToken(nil), b.signed...)
			signed[i] = &q

			if err := proof.Verify(b.blinded, signed, pk); !errors.Is(err, ErrVerify) {
				t.Fatalf("signed token %d bit %d: expected ErrVerify but was %v", i, bit, err)
			}
		}
	}

	data, _ := pk.MarshalBinary()

	for bit := 0; bit < 8*len(data); bit++ {
		var y PublicKey
		if err := y.UnmarshalBinary(flip(data, bit)); err != nil {
			continue
		}

		if err := proof.Verify(b.blinded, b.signed, &y); !errors.Is(err, ErrVerify) {
			t.Fatalf("public key bit %d: expected ErrVerify but was %v", bit, err)
		}
	}

	data, _ = proof.MarshalBinary()

	for bit := 0; bit < 8*len(data); bit++ {
		var pr BatchDLEQProof
		if err := pr.UnmarshalBinary(flip(data, bit)); err != nil {
			continue
		}

		if err := pr.Verify(b.blinded, b.signed, pk); !errors.Is(err, ErrVerify) {
			t.Fatalf("proof bit %d: expected ErrVerify but was %v", bit, err)
		}
	}
}

func TestBatchDLEQProof_LengthMismatch(t *testing.T) {
	t.Parallel()

	b := newTestBatch(t, 3)
	proof := b.prove(t)
	pk := b.sk.PublicKey()

	for name, f := range map[string]func() error{
		"tokens": func() error {
			_, err := proof.VerifyAndUnblind(b.tokens[:2], b.blinded, b.signed, pk)

			return err
		},
		"blinded": func() error {
			_, err := proof.VerifyAndUnblind(b.tokens, b.blinded[:2], b.signed, pk)

			return err
		},
		"signed": func() error {
			_, err := proof.VerifyAndUnblind(b.tokens, b.blinded, b.signed[:2], pk)

			return err
		},
		"empty": func() error {
			_, err := proof.VerifyAndUnblind(nil, nil, nil, pk)

			return err
		},
		"create": func() error {
			_, err := NewBatchDLEQProof(nil, b.blinded, b.signed[:1], b.sk)

			return err
		},
		"create empty": func() error {
			_, err := NewBatchDLEQProof(nil, nil, nil, b.sk)

			return err
		},
	} {
		if err := f(); !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("%s: expected ErrLengthMismatch but was %v", name, err)
		}
	}
}

func TestBatchDLEQProof_NotBlinded(t *testing.T) {
	t.Parallel()

	b := newTestBatch(t, 2)
	proof := b.prove(t)

	// A token decoded without its blinding factor cannot be unblinded.
	b.tokens[1] = &Token{t: b.tokens[1].t}

	if _, err := proof.VerifyAndUnblind(b.tokens, b.blinded, b.signed, b.sk.PublicKey()); !errors.Is(err, ErrNotBlinded) {
		t.Errorf("expected ErrNotBlinded but was %v", err)
	}
}

func TestBatchDLEQProof_EmptyValues(t *testing.T) {
	t.Parallel()

	b := newTestBatch(t, 2)
	proof := b.prove(t)

	b.signed[0] = &SignedToken{}

	if err := proof.Verify(b.blinded, b.signed, b.sk.PublicKey()); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("expected ErrInvalidEncoding but was %v", err)
	}
}

func TestBatchDLEQProof_Encoding(t *testing.T) {
	t.Parallel()

	b := newTestBatch(t, 2)
	proof := b.prove(t)

	decoded, err := DecodeBatchDLEQProofBase64(proof.String())
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "round trip", proof.EncodeBase64(), decoded.EncodeBase64())

	if err := decoded.Verify(b.blinded, b.signed, b.sk.PublicKey()); err != nil {
		t.Fatal(err)
	}

	if _, err := DecodeBatchDLEQProofBase64(b64.EncodeToString(make([]byte, ProofSize-1))); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("expected ErrInvalidEncoding but was %v", err)
	}
}

func TestDLEQProof(t *testing.T) {
	t.Parallel()

	b := newTestBatch(t, 2)

	proof, err := NewDLEQProof(nil, b.blinded[0], b.signed[0], b.sk)
	if err != nil {
		t.Fatal(err)
	}

	if err := proof.Verify(b.blinded[0], b.signed[0], b.sk.PublicKey()); err != nil {
		t.Fatal(err)
	}

	if err := proof.Verify(b.blinded[1], b.signed[1], b.sk.PublicKey()); !errors.Is(err, ErrVerify) {
		t.Errorf("expected ErrVerify but was %v", err)
	}

	decoded, err := DecodeDLEQProofBase64(proof.String())
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "round trip", proof.EncodeBase64(), decoded.EncodeBase64())
}

func BenchmarkBatchDLEQProof_VerifyAndUnblind(b *testing.B) {
	batch := newTestBatch(b, 100)
	proof := batch.prove(b)
	pk := batch.sk.PublicKey()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = proof.VerifyAndUnblind(batch.tokens, batch.blinded, batch.signed, pk)
	}
}

func TestBatchDLEQProof_SwappedTokens(t *testing.T) {
	t.Parallel()

	b := newTestBatch(t, 3)
	proof := b.prove(t)

	// The blinded and signed batches are intact, so the proof verifies, but the tokens are not
	// paired with the blinded tokens they produced.
	b.tokens[0], b.tokens[1] = b.tokens[1], b.tokens[0]

	if err := proof.Verify(b.blinded, b.signed, b.sk.PublicKey()); err != nil {
		t.Fatal(err)
	}

	if _, err := proof.VerifyAndUnblind(b.tokens, b.blinded, b.signed, b.sk.PublicKey()); !errors.Is(err, ErrTokenMismatch) {
		t.Errorf("expected ErrTokenMismatch but was %v", err)
	}
}

func TestBatchDLEQProof_Reblinded(t *testing.T) {
	t.Parallel()

	b := newTestBatch(t, 2)
	proof := b.prove(t)

	// Blinding again replaces the blinding factor the signed token needs.
	if _, err := b.tokens[1].Blind(nil); err != nil {
		t.Fatal(err)
	}

	if _, err := proof.VerifyAndUnblind(b.tokens, b.blinded, b.signed, b.sk.PublicKey()); !errors.Is(err, ErrTokenMismatch) {
		t.Errorf("expected ErrTokenMismatch but was %v", err)
	}
}

func TestBatchDLEQProof_ZeroValues(t *testing.T) {
	t.Parallel()

	b := newTestBatch(t, 2)
	proof := b.prove(t)

	for name, f := range map[string]func() error{
		"public key": func() error {
			return proof.Verify(b.blinded, b.signed, &PublicKey{})
		},
		"nil public key": func() error {
			return proof.Verify(b.blinded, b.signed, nil)
		},
		"batch proof": func() error {
			return (&BatchDLEQProof{}).Verify(b.blinded, b.signed, b.sk.PublicKey())
		},
		"unblind with batch proof": func() error {
			_, err := (&BatchDLEQProof{}).VerifyAndUnblind(b.tokens, b.blinded, b.signed, b.sk.PublicKey())

			return err
		},
		"proof": func() error {
			return (&DLEQProof{}).Verify(b.blinded[0], b.signed[0], b.sk.PublicKey())
		},
		"proof public key": func() error {
			pr, err := NewDLEQProof(nil, b.blinded[0], b.signed[0], b.sk)
			if err != nil {
				return err
			}

			return pr.Verify(b.blinded[0], b.signed[0], &PublicKey{})
		},
	} {
		if err := f(); !errors.Is(err, ErrInvalidEncoding) {
			t.Errorf("%s: expected ErrInvalidEncoding but was %v", name, err)
		}
	}
}
