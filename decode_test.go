package bert

import (
	"bytes"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRoundTrip(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(3), 100)
	terms := []Term{
		Number(0),
		Number(255),
		Number(256),
		Number(-1),
		Number(2147483647),
		Number(-2147483648),
		Number(2147483648),
		Number(int64(-1) << 62),
		Number(uint64(1<<64 - 1)),
		Bignum(big.NewInt(-300)),
		Bignum(huge),
		Bignum(new(big.Int).Neg(huge)),
		Bignum(new(big.Int).Lsh(big.NewInt(1), 8*300)),
		Float(0),
		Float(-1.25),
		Float(1e300),
		Atom("ok"),
		Atom("héllo"),
		Atom(""),
		String("foo"),
		String(""),
		Bin("bar"),
		Bin([]byte{0, 255, 7}),
		Bits([]byte{1, 0xc0}, 2),
		Nil(),
		List(),
		List(Number(1), List(Number(2), Atom("x")), Tuple()),
		Tuple(Atom("coord"), Number(23), Number(42)),
		Tuple(),
		Map(),
		Map(Pair{Atom("a"), Number(1)}, Pair{Bin("b"), List(Float(2.5))}),
		Bool(true),
	}
	for _, term := range terms {
		data, err := Encode(term)
		require.NoError(t, err, term.String())
		got, err := Decode(data)
		require.NoError(t, err, term.String())
		assert.True(t, term.Equal(got), "%s decoded as %s", term, got)
		assert.Equal(t, term.Tag(), got.Tag(), term.String())
	}
}

func TestDecodeBigIntegerSignMagnitude(t *testing.T) {
	data := []byte{131, 110, 2, 1, 44, 1}

	term, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, SmallBignumTag, term.Tag())
	n, ok := term.Int()
	require.True(t, ok)
	assert.Equal(t, int64(-300), n)
	assert.Equal(t, []byte{44, 1}, term.Bytes())

	out, err := Encode(term)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestDecodeBigIntegerPrecision(t *testing.T) {
	want, ok := new(big.Int).SetString("-123456789012345678901234567890", 10)
	require.True(t, ok)

	data, err := Encode(Bignum(want))
	require.NoError(t, err)
	term, err := Decode(data)
	require.NoError(t, err)

	_, fits := term.Int()
	assert.False(t, fits)
	assert.Equal(t, 0, want.Cmp(term.BigInt()))
}

func TestDecodeLargeBignum(t *testing.T) {
	term, err := Decode([]byte{131, 111, 0, 0, 0, 2, 0, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, LargeBignumTag, term.Tag())
	n, ok := term.Int()
	require.True(t, ok)
	assert.Equal(t, int64(256), n)
}

func TestDecodeIntegers(t *testing.T) {
	term, err := Decode([]byte{131, 98, 255, 255, 236, 120})
	require.NoError(t, err)
	n, ok := term.Int()
	require.True(t, ok)
	assert.Equal(t, int64(-5000), n)

	term, err = Decode([]byte{131, 97, 200})
	require.NoError(t, err)
	n, ok = term.Int()
	require.True(t, ok)
	assert.Equal(t, int64(200), n)
}

func TestDecodeLegacyFloat(t *testing.T) {
	term, err := Decode(legacyFloat("5.00000000000000000000e-01"))
	require.NoError(t, err)
	assert.Equal(t, FloatTag, term.Tag())
	f, ok := term.Float()
	require.True(t, ok)
	assert.Equal(t, 0.5, f)

	data, err := Encode(LegacyFloat(-2.5))
	require.NoError(t, err)
	term, err = Decode(data)
	require.NoError(t, err)
	f, _ = term.Float()
	assert.Equal(t, -2.5, f)

	bad := legacyFloat("zzz")
	_, err = Decode(bad)
	assert.ErrorIs(t, err, ErrRange)
}

func TestDecodeAtoms(t *testing.T) {
	term, err := Decode([]byte{131, 100, 0, 3, 'c', 0xe9, '!'})
	require.NoError(t, err)
	assert.True(t, term.IsAtom())
	assert.Equal(t, "cé!", term.Text())

	term, err = Decode([]byte{131, 115, 2, 'o', 'k'})
	require.NoError(t, err)
	assert.True(t, term.IsAtom())
	assert.Equal(t, "ok", term.Text())

	term, err = Decode([]byte{131, 119, 2, 'o', 'k'})
	require.NoError(t, err)
	assert.Equal(t, SmallAtomUTF8Tag, term.Tag())
	assert.Equal(t, "ok", term.Text())
}

func TestDecodeLargeTuple(t *testing.T) {
	term, err := Decode([]byte{131, 105, 0, 0, 0, 2, 97, 7, 106, 97, 9})
	require.NoError(t, err)
	assert.Equal(t, LargeTupleTag, term.Tag())
	require.Equal(t, 2, term.Len())
	n, _ := term.Item(0).Int()
	assert.Equal(t, int64(7), n)
	assert.True(t, term.Item(1).IsNil())
}

func TestDecodeListDropsTail(t *testing.T) {
	// [1 | 2]: the tail is consumed without being checked.
	term, err := Decode([]byte{131, 108, 0, 0, 0, 1, 97, 1, 97, 2})
	require.NoError(t, err)
	assert.True(t, List(Number(1)).Equal(term))

	_, err = Decode([]byte{131, 108, 0, 0, 0, 1, 97, 1})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeMapOrder(t *testing.T) {
	term, err := Decode([]byte{131, 116, 0, 0, 0, 2, 97, 2, 97, 20, 97, 1, 97, 10})
	require.NoError(t, err)
	pairs := term.Pairs()
	require.Len(t, pairs, 2)
	k, _ := pairs[0].Key.Int()
	assert.Equal(t, int64(2), k)

	v, ok := term.Get(Number(1))
	require.True(t, ok)
	n, _ := v.Int()
	assert.Equal(t, int64(10), n)

	_, ok = term.Get(Number(3))
	assert.False(t, ok)
}

func TestDecodeReferences(t *testing.T) {
	term, err := Decode([]byte{131, 114, 0, 1, 118, 0, 4, 'n', 'o', 'd', 'e', 3, 0, 0, 0, 9, 97, 1})
	require.NoError(t, err)
	assert.Equal(t, NewReferenceTag, term.Tag())
	require.Len(t, term.Items(), 1)
	assert.Equal(t, "node", term.Item(0).Text())

	term, err = Decode([]byte{131, 90, 0, 2, 119, 1, 'n', 0, 0, 0, 1, 0, 0, 0, 7, 0, 0, 0, 8})
	require.NoError(t, err)
	assert.Equal(t, NewerReferenceTag, term.Tag())
	out, err := Encode(term)
	require.NoError(t, err)
	assert.Equal(t, []byte{131, 90, 0, 2, 119, 1, 'n', 0, 0, 0, 1, 0, 0, 0, 7, 0, 0, 0, 8}, out)
}

func TestDecodeBitstring(t *testing.T) {
	term, err := Decode([]byte{131, 77, 0, 0, 0, 1, 1, 128})
	require.NoError(t, err)
	bits, ok := term.Bitstring()
	require.True(t, ok)
	assert.Equal(t, Bitstring{Bytes: []byte{128}, Bits: 1}, bits)
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	term, err := Decode([]byte{131, 97, 1, 99, 99, 99})
	require.NoError(t, err)
	n, _ := term.Int()
	assert.Equal(t, int64(1), n)
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		kind error
	}{
		{"empty", nil, ErrEnvelope},
		{"bad version", []byte{130, 97, 1}, ErrEnvelope},
		{"no term", []byte{131}, ErrTruncated},
		{"short integer", []byte{131, 98, 0, 0}, ErrTruncated},
		{"short float", []byte{131, 70, 0, 0, 0}, ErrTruncated},
		{"short atom", []byte{131, 118, 0, 5, 'a'}, ErrTruncated},
		{"short binary", []byte{131, 109, 0, 0, 0, 9, 1}, ErrTruncated},
		{"short tuple", []byte{131, 104, 2, 97, 1}, ErrTruncated},
		{"huge list", []byte{131, 108, 255, 255, 255, 255}, ErrTruncated},
		{"huge map", []byte{131, 116, 0, 0, 0, 2, 97, 1, 97, 1}, ErrTruncated},
		{"short big", []byte{131, 110, 3, 0, 1}, ErrTruncated},
		{"short legacy float", []byte{131, 99, '1'}, ErrTruncated},
		{"short reference", []byte{131, 114, 0, 1, 106, 3}, ErrTruncated},
		{"unknown tag", []byte{131, 200}, ErrUnknownTag},
		{"nested unknown tag", []byte{131, 104, 1, 1}, ErrUnknownTag},
		{"nested compressed", []byte{131, 104, 1, 80, 0, 0, 0, 1}, ErrCompressed},
		{"nesting too deep", nestedTuples(MaxDepth), ErrDepth},
		{"nesting too deep in list", append([]byte{131}, append(bytes.Repeat([]byte{108, 0, 0, 0, 1}, MaxDepth), 106)...), ErrDepth},
		{"huge inflated size", []byte{131, 80, 255, 255, 255, 255, 120, 156, 203, 2, 0, 0, 107, 0, 107}, ErrCompressed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			term, err := Decode(c.data)
			assert.ErrorIs(t, err, c.kind)
			assert.Equal(t, Tag(0), term.Tag())
		})
	}
}

// nestedTuples encodes n one-element tuples wrapped around nil.
func nestedTuples(n int) []byte {
	data := append([]byte{131}, bytes.Repeat([]byte{104, 1}, n)...)
	return append(data, 106)
}

func TestDecodeDepth(t *testing.T) {
	term, err := Decode(nestedTuples(MaxDepth - 1))
	require.NoError(t, err)
	for i := 0; i < MaxDepth-1; i++ {
		require.Equal(t, SmallTupleTag, term.Tag(), "level %d", i)
		term = term.Item(0)
	}
	assert.True(t, term.IsNil())

	_, err = Decode(nestedTuples(MaxDepth))
	require.ErrorIs(t, err, ErrDepth)
	assert.Contains(t, err.Error(), "offset 20001")

	// the limit applies to the unpacked form of a compressed term as well
	deep := Nil()
	for i := 0; i < MaxDepth; i++ {
		deep = Tuple(deep)
	}
	_, err = EncodeCompressed(deep, 6)
	assert.ErrorIs(t, err, ErrDepth)
	packed, err := EncodeCompressed(deep.Item(0), 6)
	require.NoError(t, err)
	_, err = Decode(packed)
	assert.NoError(t, err)
}

func TestDecodeCompressedSizeLimit(t *testing.T) {
	data, err := EncodeCompressed(Bin(make([]byte, 1<<16)), 9)
	require.NoError(t, err)
	_, err = Decode(data)
	require.NoError(t, err)

	// declare a size the short stream cannot inflate to
	lying := append([]byte{}, data...)
	copy(lying[2:6], []byte{0, 0x10, 0, 0})
	_, err = Decode(lying)
	require.ErrorIs(t, err, ErrCompressed)
	assert.Contains(t, err.Error(), "exceeds the limit")

	oversized := append([]byte{131, 80, 0x04, 0, 0, 1}, make([]byte, 1<<17)...)
	_, err = Decode(oversized)
	require.ErrorIs(t, err, ErrCompressed)
	assert.Contains(t, err.Error(), "exceeds the limit")
}

func TestDecodeCompressed(t *testing.T) {
	term := List(Bin("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), Number(1), Atom("ok"))
	data, err := EncodeCompressed(term, 6)
	require.NoError(t, err)
	assert.Equal(t, []byte{131, 80}, data[:2])

	got, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, term.Equal(got))

	plain, err := Encode(term)
	require.NoError(t, err)
	assert.Equal(t, byte(len(plain)-1), data[5])

	corrupt := append([]byte{}, data...)
	corrupt[5]++
	_, err = Decode(corrupt)
	assert.ErrorIs(t, err, ErrCompressed)

	_, err = Decode([]byte{131, 80, 0, 0, 0, 4, 1, 2, 3})
	assert.ErrorIs(t, err, ErrCompressed)

	_, err = Decode([]byte{131, 80, 0, 0})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeConcurrent(t *testing.T) {
	term := Tuple(Atom("ok"), List(Number(1), Number(2), Number(3)), Map(Pair{Bin("k"), Float(2)}))
	data, err := Encode(term)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Term, 16)
	errs := make([]error, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = Decode(data)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.True(t, term.Equal(results[i]))
	}
}
