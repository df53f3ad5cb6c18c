package bert

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// Decode parses one version-prefixed term from data. Bytes after the
// term are ignored.
func Decode(data []byte) (Term, error) {
	if len(data) == 0 || data[0] != VersionTag {
		return Term{}, errors.WithStack(ErrEnvelope)
	}
	r := &reader{buf: data, pos: 1}
	if len(data) > 1 && Tag(data[1]) == CompressedTag {
		r.pos++
		inner, err := r.inflate()
		if err != nil {
			return Term{}, err
		}
		r = &reader{buf: inner}
	}
	return r.term()
}

// MaxDepth is the deepest nesting of tuples, lists, maps and references
// that Encode and Decode accept. A scalar at the top level has depth 1.
const MaxDepth = 10000

// reader is the cursor of one Decode call.
type reader struct {
	buf   []byte
	pos   int
	depth int
}

type readFunc func(r *reader, tag Tag, width int) (Term, error)

// lookup maps a tag to its read routine and the width of its length or
// count prefix.
func lookup(tag Tag) (readFunc, int, bool) {
	switch tag {
	case NewFloatTag:
		return (*reader).newFloat, 0, true
	case BitTag:
		return (*reader).bits, 4, true
	case NewerReferenceTag:
		return (*reader).reference, 4, true
	case NewReferenceTag:
		return (*reader).reference, 1, true
	case SmallIntTag:
		return (*reader).integer, 1, true
	case IntTag:
		return (*reader).integer, 4, true
	case FloatTag:
		return (*reader).legacyFloat, 0, true
	case AtomTag, AtomUTF8Tag, StringTag:
		return (*reader).text, 2, true
	case SmallAtomTag, SmallAtomUTF8Tag:
		return (*reader).text, 1, true
	case BinTag:
		return (*reader).text, 4, true
	case SmallTupleTag:
		return (*reader).tuple, 1, true
	case LargeTupleTag:
		return (*reader).tuple, 4, true
	case NilTag:
		return (*reader).empty, 0, true
	case ListTag:
		return (*reader).list, 4, true
	case SmallBignumTag:
		return (*reader).bignum, 1, true
	case LargeBignumTag:
		return (*reader).bignum, 4, true
	case MapTag:
		return (*reader).dict, 4, true
	}
	return nil, 0, false
}

func (r *reader) term() (Term, error) {
	head, err := r.take(1)
	if err != nil {
		return Term{}, err
	}
	tag := Tag(head[0])
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > MaxDepth {
		return Term{}, errors.Wrapf(ErrDepth, "nesting deeper than %d at offset %d", MaxDepth, r.pos-1)
	}
	if tag == CompressedTag {
		return Term{}, errors.Wrapf(ErrCompressed, "nested compressed term at offset %d", r.pos-1)
	}
	read, width, ok := lookup(tag)
	if !ok {
		return Term{}, errors.Wrapf(ErrUnknownTag, "tag %d at offset %d", tag, r.pos-1)
	}
	return read(r, tag, width)
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || n > len(r.buf)-r.pos {
		return nil, errors.Wrapf(ErrTruncated, "need %d bytes at offset %d, have %d", n, r.pos, len(r.buf)-r.pos)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) uint(width int) (uint64, error) {
	b, err := r.take(width)
	if err != nil {
		return 0, err
	}
	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	return n, nil
}

// count reads a length prefix and rejects counts that could not possibly
// fit in the remaining input, given at least min bytes per element.
func (r *reader) count(width, min int) (int, error) {
	n, err := r.uint(width)
	if err != nil {
		return 0, err
	}
	if n*uint64(min) > uint64(len(r.buf)-r.pos) {
		return 0, errors.Wrapf(ErrTruncated, "count %d at offset %d exceeds input", n, r.pos-width)
	}
	return int(n), nil
}

func (r *reader) empty(tag Tag, _ int) (Term, error) {
	return Term{tag: tag}, nil
}

func (r *reader) integer(tag Tag, width int) (Term, error) {
	n, err := r.uint(width)
	if err != nil {
		return Term{}, err
	}
	if width == 4 {
		return Term{tag: tag, num: int64(int32(uint32(n)))}, nil
	}
	return Term{tag: tag, num: int64(n)}, nil
}

func (r *reader) bignum(tag Tag, width int) (Term, error) {
	n, err := r.count(width, 1)
	if err != nil {
		return Term{}, err
	}
	head, err := r.take(1)
	if err != nil {
		return Term{}, err
	}
	mag, err := r.take(n)
	if err != nil {
		return Term{}, err
	}
	return Term{tag: tag, sign: head[0], data: append([]byte{}, mag...)}, nil
}

func (r *reader) newFloat(tag Tag, _ int) (Term, error) {
	b, err := r.take(8)
	if err != nil {
		return Term{}, err
	}
	return Term{tag: tag, float: float64At(b)}, nil
}

func (r *reader) legacyFloat(tag Tag, _ int) (Term, error) {
	start := r.pos
	b, err := r.take(legacyFloatWidth)
	if err != nil {
		return Term{}, err
	}
	text := string(bytes.TrimRight(b, "\x00 "))
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Term{}, errors.Wrapf(ErrRange, "float text %q at offset %d", text, start)
	}
	return Term{tag: tag, float: f}, nil
}

func (r *reader) text(tag Tag, width int) (Term, error) {
	n, err := r.count(width, 1)
	if err != nil {
		return Term{}, err
	}
	b, err := r.take(n)
	if err != nil {
		return Term{}, err
	}
	if tag == AtomTag || tag == SmallAtomTag {
		utf, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
		if err != nil {
			return Term{}, errors.Wrapf(ErrRange, "latin-1 atom at offset %d", r.pos-n)
		}
		return Term{tag: tag, data: utf}, nil
	}
	return Term{tag: tag, data: append([]byte{}, b...)}, nil
}

func (r *reader) bits(tag Tag, width int) (Term, error) {
	n, err := r.count(width, 1)
	if err != nil {
		return Term{}, err
	}
	head, err := r.take(1)
	if err != nil {
		return Term{}, err
	}
	b, err := r.take(n)
	if err != nil {
		return Term{}, err
	}
	return Term{tag: tag, sign: head[0], data: append([]byte{}, b...)}, nil
}

func (r *reader) terms(n int) ([]Term, error) {
	items := make([]Term, 0, n)
	for i := 0; i < n; i++ {
		item, err := r.term()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *reader) tuple(tag Tag, width int) (Term, error) {
	n, err := r.count(width, 1)
	if err != nil {
		return Term{}, err
	}
	items, err := r.terms(n)
	if err != nil {
		return Term{}, err
	}
	return Term{tag: tag, items: items}, nil
}

// list reads the elements and then one more term, the tail, which is
// dropped whatever it is.
func (r *reader) list(tag Tag, width int) (Term, error) {
	n, err := r.count(width, 1)
	if err != nil {
		return Term{}, err
	}
	items, err := r.terms(n)
	if err != nil {
		return Term{}, err
	}
	if _, err := r.term(); err != nil {
		return Term{}, err
	}
	if n == 0 {
		return Term{tag: NilTag}, nil
	}
	return Term{tag: tag, items: items}, nil
}

func (r *reader) dict(tag Tag, width int) (Term, error) {
	n, err := r.count(width, 2)
	if err != nil {
		return Term{}, err
	}
	pairs := make([]Pair, 0, n)
	for i := 0; i < n; i++ {
		key, err := r.term()
		if err != nil {
			return Term{}, err
		}
		value, err := r.term()
		if err != nil {
			return Term{}, err
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	return Term{tag: tag, pairs: pairs}, nil
}

// reference reads an opaque reference: a 2-byte ID word count, the node,
// then base bytes of creation and 4 bytes per ID word which are kept
// uninterpreted.
func (r *reader) reference(tag Tag, base int) (Term, error) {
	words, err := r.uint(2)
	if err != nil {
		return Term{}, err
	}
	node, err := r.term()
	if err != nil {
		return Term{}, err
	}
	rest, err := r.take(base + 4*int(words))
	if err != nil {
		return Term{}, err
	}
	return Term{tag: tag, items: []Term{node}, data: append([]byte{}, rest...)}, nil
}
