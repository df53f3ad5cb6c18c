package bert

import (
	"math"
	"math/big"

	"golang.org/x/exp/constraints"
)

// Numeric is the set of native number types accepted by Number.
type Numeric interface {
	constraints.Integer | constraints.Float
}

// Tuple builds a small tuple. Arities above 255 are rejected when the
// term is encoded.
func Tuple(terms ...Term) Term {
	return Term{tag: SmallTupleTag, items: append([]Term(nil), terms...)}
}

// List builds a proper list. An empty list is the nil term.
func List(terms ...Term) Term {
	if len(terms) == 0 {
		return Nil()
	}
	return Term{tag: ListTag, items: append([]Term(nil), terms...)}
}

// Map builds a map keeping the pairs in the given order.
func Map(pairs ...Pair) Term {
	return Term{tag: MapTag, pairs: append([]Pair(nil), pairs...)}
}

// Nil returns the empty list.
func Nil() Term { return Term{tag: NilTag} }

// Atom builds a UTF-8 atom.
func Atom(name string) Term {
	return Term{tag: AtomUTF8Tag, data: []byte(name)}
}

// Bool returns the atom true or false.
func Bool(v bool) Term {
	if v {
		return TrueAtom
	}
	return FalseAtom
}

// String builds a string (charlist) term holding the UTF-8 bytes of s.
func String(s string) Term {
	return Term{tag: StringTag, data: []byte(s)}
}

// Float builds an 8-byte IEEE-754 float term.
func Float(x float64) Term {
	return Term{tag: NewFloatTag, float: x}
}

// LegacyFloat builds a float term using the old 31-byte text layout.
func LegacyFloat(x float64) Term {
	return Term{tag: FloatTag, float: x}
}

// Bin builds a binary from raw bytes or from text.
func Bin[T ~string | ~[]byte](x T) Term {
	return Term{tag: BinTag, data: append([]byte{}, []byte(x)...)}
}

// Bits builds a bitstring whose last byte only uses bits bits.
func Bits(b []byte, bits uint8) Term {
	return Term{tag: BitTag, data: append([]byte{}, b...), sign: bits}
}

// Number builds the smallest integer term holding x: small_integer for
// 0..255, integer for the signed 32-bit range and small_big beyond.
// Floats with a fractional part (or NaN and infinities) yield a term that
// fails to encode with ErrRange.
func Number[T Numeric](x T) Term {
	if T(1)/T(2) != 0 {
		return floatNumber(float64(x))
	}
	if x < 0 {
		return integer(big.NewInt(int64(x)))
	}
	return integer(new(big.Int).SetUint64(uint64(x)))
}

func floatNumber(f float64) Term {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return Term{tag: SmallBignumTag, float: f, bad: true}
	}
	n, _ := big.NewFloat(f).Int(nil)
	return integer(n)
}

// Bignum builds an integer term from an arbitrary-precision value, using
// the same boundaries as Number. The encoding is computed up front with
// big.Int arithmetic. A nil x yields the small integer 0.
func Bignum(x *big.Int) Term {
	if x == nil {
		return Term{tag: SmallIntTag, raw: []byte{byte(SmallIntTag), 0}}
	}
	t := integer(x)
	switch t.tag {
	case SmallIntTag:
		t.raw = []byte{byte(SmallIntTag), byte(x.Uint64())}
	case IntTag:
		mask := big.NewInt(0xff)
		t.raw = []byte{byte(IntTag)}
		for _, shift := range []uint{24, 16, 8, 0} {
			b := new(big.Int).Rsh(x, shift)
			t.raw = append(t.raw, byte(b.And(b, mask).Uint64()))
		}
	default:
		t.raw = appendBig(nil, t)
	}
	return t
}

func integer(n *big.Int) Term {
	if n.Sign() >= 0 && n.Cmp(big.NewInt(256)) < 0 {
		return Term{tag: SmallIntTag, num: n.Int64()}
	}
	if n.IsInt64() && n.Int64() >= math.MinInt32 && n.Int64() <= math.MaxInt32 {
		return Term{tag: IntTag, num: n.Int64()}
	}
	t := Term{tag: SmallBignumTag, data: magnitude(n)}
	if n.Sign() < 0 {
		t.sign = 1
	}
	if len(t.data) > math.MaxUint8 {
		t.tag = LargeBignumTag
	}
	return t
}
