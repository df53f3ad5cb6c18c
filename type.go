package bert

import (
	"math/big"
	"strconv"
)

// Tag identifies the wire type of a term.
type Tag byte

const (
	VersionTag = 131

	NewFloatTag       Tag = 70
	BitTag            Tag = 77
	CompressedTag     Tag = 80
	NewerReferenceTag Tag = 90
	SmallIntTag       Tag = 97
	IntTag            Tag = 98
	FloatTag          Tag = 99
	AtomTag           Tag = 100
	SmallTupleTag     Tag = 104
	LargeTupleTag     Tag = 105
	NilTag            Tag = 106
	StringTag         Tag = 107
	ListTag           Tag = 108
	BinTag            Tag = 109
	SmallBignumTag    Tag = 110
	LargeBignumTag    Tag = 111
	NewReferenceTag   Tag = 114
	SmallAtomTag      Tag = 115
	MapTag            Tag = 116
	AtomUTF8Tag       Tag = 118
	SmallAtomUTF8Tag  Tag = 119
)

var tagNames = map[Tag]string{
	NewFloatTag:       "new_float",
	BitTag:            "bit_binary",
	CompressedTag:     "compressed",
	NewerReferenceTag: "newer_reference",
	SmallIntTag:       "small_integer",
	IntTag:            "integer",
	FloatTag:          "float",
	AtomTag:           "atom",
	SmallTupleTag:     "small_tuple",
	LargeTupleTag:     "large_tuple",
	NilTag:            "nil",
	StringTag:         "string",
	ListTag:           "list",
	BinTag:            "binary",
	SmallBignumTag:    "small_big",
	LargeBignumTag:    "large_big",
	NewReferenceTag:   "new_reference",
	SmallAtomTag:      "small_atom",
	MapTag:            "map",
	AtomUTF8Tag:       "atom_utf8",
	SmallAtomUTF8Tag:  "small_atom_utf8",
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "tag(" + strconv.Itoa(int(t)) + ")"
}

// Term is one BERT term. The tag decides which of the payload fields is
// meaningful. Terms are values and are never modified after construction.
type Term struct {
	tag Tag

	// atom, string and binary bytes (atoms always UTF-8), the bignum
	// magnitude least significant byte first, bitstring bytes, or the
	// trailing opaque bytes of a reference.
	data []byte
	// bignum sign (0 or 1), or the number of used bits in the last
	// bitstring byte.
	sign  byte
	num   int64
	float float64
	// tuple and list elements, or the node of a reference.
	items []Term
	pairs []Pair

	// raw is the pre-encoded form produced by Bignum. The encoder emits
	// it as is.
	raw []byte
	// bad marks a Number built from a non-integral value; encoding it
	// fails with ErrRange.
	bad bool
}

// Pair is one key/value entry of a map term.
type Pair struct {
	Key   Term
	Value Term
}

// Bitstring is a binary whose last byte only uses Bits bits.
type Bitstring struct {
	Bytes []byte
	Bits  uint8
}

// Tag returns the wire tag of the term.
func (t Term) Tag() Tag { return t.tag }

// IsNil reports whether t is the empty list.
func (t Term) IsNil() bool { return t.tag == NilTag }

// IsAtom reports whether t is an atom, whatever its encoding.
func (t Term) IsAtom() bool {
	switch t.tag {
	case AtomTag, SmallAtomTag, AtomUTF8Tag, SmallAtomUTF8Tag:
		return true
	}
	return false
}

// IsInteger reports whether t is a small, 4-byte or big integer.
func (t Term) IsInteger() bool {
	switch t.tag {
	case SmallIntTag, IntTag, SmallBignumTag, LargeBignumTag:
		return !t.bad
	}
	return false
}

// Int returns the integer value of t. ok is false when t is not an
// integer or does not fit an int64.
func (t Term) Int() (n int64, ok bool) {
	switch t.tag {
	case SmallIntTag, IntTag:
		return t.num, !t.bad
	case SmallBignumTag, LargeBignumTag:
		if t.bad {
			return 0, false
		}
		b := t.BigInt()
		if !b.IsInt64() {
			return 0, false
		}
		return b.Int64(), true
	}
	return 0, false
}

// BigInt returns the integer value of t with full precision, or nil when
// t is not an integer.
func (t Term) BigInt() *big.Int {
	switch t.tag {
	case SmallIntTag, IntTag:
		return big.NewInt(t.num)
	case SmallBignumTag, LargeBignumTag:
		n := new(big.Int).SetBytes(reverse(t.data))
		if t.sign != 0 {
			n.Neg(n)
		}
		return n
	}
	return nil
}

// Float returns the value of a new_float or legacy float term.
func (t Term) Float() (float64, bool) {
	switch t.tag {
	case NewFloatTag, FloatTag:
		return t.float, true
	}
	return 0, false
}

// Bytes returns a copy of the payload of an atom, string, binary or
// bitstring term.
func (t Term) Bytes() []byte {
	if t.data == nil {
		return nil
	}
	return append([]byte(nil), t.data...)
}

// Text returns the payload of an atom, string or binary as a string.
func (t Term) Text() string { return string(t.data) }

// Bitstring returns the payload of a bit_binary term.
func (t Term) Bitstring() (Bitstring, bool) {
	if t.tag != BitTag {
		return Bitstring{}, false
	}
	return Bitstring{Bytes: t.Bytes(), Bits: t.sign}, true
}

// Len returns the element count of a tuple, list or map, or the byte
// length of an atom, string or binary.
func (t Term) Len() int {
	switch t.tag {
	case SmallTupleTag, LargeTupleTag, ListTag:
		return len(t.items)
	case MapTag:
		return len(t.pairs)
	}
	return len(t.data)
}

// Items returns the elements of a tuple or list, or the node of a
// reference. The slice is a copy.
func (t Term) Items() []Term {
	if len(t.items) == 0 {
		return nil
	}
	return append([]Term(nil), t.items...)
}

// Item returns the i-th element of a tuple or list. It panics if t is
// not a tuple or list or if i is out of range.
func (t Term) Item(i int) Term { return t.items[i] }

// Pairs returns the entries of a map term in wire order. The slice is a
// copy.
func (t Term) Pairs() []Pair {
	if len(t.pairs) == 0 {
		return nil
	}
	return append([]Pair(nil), t.pairs...)
}

// Get returns the value of the first map entry whose key equals key.
func (t Term) Get(key Term) (Term, bool) {
	for _, p := range t.pairs {
		if p.Key.Equal(key) {
			return p.Value, true
		}
	}
	return Term{}, false
}

// Equal reports whether t and u have the same tag and the same value.
// Integers of different tags are not equal even when their values are,
// so Equal agrees with a comparison of the encoded bytes.
func (t Term) Equal(u Term) bool {
	if t.IsInteger() && u.IsInteger() {
		return t.tag == u.tag && t.BigInt().Cmp(u.BigInt()) == 0
	}
	if t.tag != u.tag || t.bad != u.bad {
		return false
	}
	if t.bad {
		return t.float == u.float
	}
	switch t.tag {
	case NewFloatTag, FloatTag:
		return t.float == u.float
	case SmallTupleTag, LargeTupleTag, ListTag, NewReferenceTag, NewerReferenceTag:
		if len(t.items) != len(u.items) {
			return false
		}
		for i := range t.items {
			if !t.items[i].Equal(u.items[i]) {
				return false
			}
		}
		if t.tag == NewReferenceTag || t.tag == NewerReferenceTag {
			return string(t.data) == string(u.data)
		}
		return true
	case MapTag:
		if len(t.pairs) != len(u.pairs) {
			return false
		}
		for i := range t.pairs {
			if !t.pairs[i].Key.Equal(u.pairs[i].Key) || !t.pairs[i].Value.Equal(u.pairs[i].Value) {
				return false
			}
		}
		return true
	case BitTag:
		return t.sign == u.sign && string(t.data) == string(u.data)
	}
	return string(t.data) == string(u.data)
}

var (
	BertAtom  = Atom("bert")
	NilAtom   = Atom("nil")
	TrueAtom  = Atom("true")
	FalseAtom = Atom("false")
)
