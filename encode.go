package bert

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

const legacyFloatWidth = 31

// Encode serializes t into a version-prefixed buffer. Nothing is returned
// when any part of the tree cannot be encoded.
func Encode(t Term) ([]byte, error) {
	return appendTerm([]byte{VersionTag}, t, 1)
}

// EncodeList encodes terms as a list, the way a bare sequence is treated.
func EncodeList(terms ...Term) ([]byte, error) {
	return Encode(List(terms...))
}

// appendTerm writes t, which sits depth levels into the tree being
// encoded.
func appendTerm(b []byte, t Term, depth int) ([]byte, error) {
	if depth > MaxDepth {
		return nil, errors.Wrapf(ErrDepth, "%s nested deeper than %d", t.tag, MaxDepth)
	}
	if t.raw != nil {
		return append(b, t.raw...), nil
	}
	if t.bad {
		return nil, errors.Wrapf(ErrRange, "%v has no integer representation", t.float)
	}

	var err error
	switch t.tag {
	case NewFloatTag:
		return appendFloat64(append(b, byte(t.tag)), t.float), nil

	case SmallIntTag:
		return appendUint(append(b, byte(t.tag)), uint64(t.num), 1)

	case IntTag:
		return appendInt32(append(b, byte(t.tag)), t.num)

	case FloatTag:
		return appendLegacyFloat(append(b, byte(t.tag)), t.float)

	case AtomUTF8Tag, StringTag:
		return appendBytes(append(b, byte(t.tag)), t.data, 2, t.tag)

	case SmallAtomUTF8Tag:
		return appendBytes(append(b, byte(t.tag)), t.data, 1, t.tag)

	case AtomTag, SmallAtomTag:
		latin, err := charmap.ISO8859_1.NewEncoder().Bytes(t.data)
		if err != nil {
			return nil, errors.Wrapf(ErrRange, "atom %q is not latin-1", t.data)
		}
		width := 2
		if t.tag == SmallAtomTag {
			width = 1
		}
		return appendBytes(append(b, byte(t.tag)), latin, width, t.tag)

	case BinTag:
		return appendBytes(append(b, byte(t.tag)), t.data, 4, t.tag)

	case BitTag:
		if len(t.data) == 0 || t.sign == 0 || t.sign > 8 {
			return nil, errors.Wrapf(ErrRange, "bitstring of %d bytes with %d bits in the last byte", len(t.data), t.sign)
		}
		if b, err = appendLength(append(b, byte(t.tag)), len(t.data), 4, "bitstring length"); err != nil {
			return nil, err
		}
		return append(append(b, t.sign), t.data...), nil

	case NilTag:
		return append(b, byte(NilTag)), nil

	case SmallTupleTag, LargeTupleTag:
		width := 1
		if t.tag == LargeTupleTag {
			width = 4
		}
		if b, err = appendLength(append(b, byte(t.tag)), len(t.items), width, "tuple arity"); err != nil {
			return nil, err
		}
		return appendTerms(b, t.items, depth+1)

	case ListTag:
		if len(t.items) == 0 {
			return append(b, byte(NilTag)), nil
		}
		if b, err = appendLength(append(b, byte(t.tag)), len(t.items), 4, "list length"); err != nil {
			return nil, err
		}
		if b, err = appendTerms(b, t.items, depth+1); err != nil {
			return nil, err
		}
		return append(b, byte(NilTag)), nil

	case MapTag:
		if b, err = appendLength(append(b, byte(t.tag)), len(t.pairs), 4, "map size"); err != nil {
			return nil, err
		}
		for _, p := range t.pairs {
			if b, err = appendTerm(b, p.Key, depth+1); err != nil {
				return nil, err
			}
			if b, err = appendTerm(b, p.Value, depth+1); err != nil {
				return nil, err
			}
		}
		return b, nil

	case SmallBignumTag, LargeBignumTag:
		if t.tag == SmallBignumTag && len(t.data) > math.MaxUint8 {
			return nil, errors.Wrapf(ErrRange, "magnitude of %d bytes needs large_big", len(t.data))
		}
		return appendBig(b, t), nil

	case NewReferenceTag, NewerReferenceTag:
		return appendReference(b, t, depth)
	}
	return nil, errors.Wrapf(ErrUnknownTag, "cannot encode %s", t.tag)
}

func appendTerms(b []byte, terms []Term, depth int) ([]byte, error) {
	var err error
	for _, item := range terms {
		if b, err = appendTerm(b, item, depth); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func appendBytes(b []byte, data []byte, width int, tag Tag) ([]byte, error) {
	b, err := appendLength(b, len(data), width, tag.String()+" length")
	if err != nil {
		return nil, err
	}
	return append(b, data...), nil
}

// appendBig writes tag, magnitude length, sign and the magnitude bytes
// least significant first.
func appendBig(b []byte, t Term) []byte {
	b = append(b, byte(t.tag))
	if t.tag == LargeBignumTag {
		b, _ = appendUint(b, uint64(len(t.data)), 4)
	} else {
		b = append(b, byte(len(t.data)))
	}
	return append(append(b, t.sign), t.data...)
}

// appendLegacyFloat writes x as "d.dddddddddddddddddddde±XX" padded with
// zero bytes to 31 bytes.
func appendLegacyFloat(b []byte, x float64) ([]byte, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil, errors.Wrapf(ErrRange, "%v has no legacy float form", x)
	}
	text := strconv.AppendFloat(nil, x, 'e', 20, 64)
	if len(text) > legacyFloatWidth {
		return nil, errors.Wrapf(ErrRange, "float text %q exceeds %d bytes", text, legacyFloatWidth)
	}
	b = append(b, text...)
	for i := len(text); i < legacyFloatWidth; i++ {
		b = append(b, 0)
	}
	return b, nil
}

// appendReference re-emits an opaque reference: a 2-byte ID word count,
// the node term, then the creation and ID bytes kept by the decoder.
func appendReference(b []byte, t Term, depth int) ([]byte, error) {
	base := referenceBase(t.tag)
	if len(t.items) != 1 || len(t.data) < base || (len(t.data)-base)%4 != 0 {
		return nil, errors.Wrapf(ErrRange, "malformed %s", t.tag)
	}
	b, err := appendLength(append(b, byte(t.tag)), (len(t.data)-base)/4, 2, "reference id length")
	if err != nil {
		return nil, err
	}
	if b, err = appendTerm(b, t.items[0], depth+1); err != nil {
		return nil, err
	}
	return append(b, t.data...), nil
}

func referenceBase(tag Tag) int {
	if tag == NewerReferenceTag {
		return 4
	}
	return 1
}
