package bert

import (
	"encoding/binary"
	"io"
	"math/big"
	"sort"

	"github.com/pkg/errors"
)

// ValueOf converts a native Go value into a term. Slices of terms or of
// native values become lists.
func ValueOf(v interface{}) (Term, error) {
	switch v := v.(type) {
	case Term:
		return v, nil
	case nil:
		return Nil(), nil
	case bool:
		return Bool(v), nil
	case int:
		return Number(v), nil
	case int8:
		return Number(v), nil
	case int16:
		return Number(v), nil
	case int32:
		return Number(v), nil
	case int64:
		return Number(v), nil
	case uint:
		return Number(v), nil
	case uint8:
		return Number(v), nil
	case uint16:
		return Number(v), nil
	case uint32:
		return Number(v), nil
	case uint64:
		return Number(v), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case *big.Int:
		return Bignum(v), nil
	case string:
		return String(v), nil
	case []byte:
		return Bin(v), nil
	case Bitstring:
		return Bits(v.Bytes, v.Bits), nil
	case []Term:
		return List(v...), nil
	case []interface{}:
		items := make([]Term, 0, len(v))
		for i, item := range v {
			t, err := ValueOf(item)
			if err != nil {
				return Term{}, errors.Wrapf(err, "list element %d", i)
			}
			items = append(items, t)
		}
		return List(items...), nil
	case map[string]interface{}:
		pairs := make([]Pair, 0, len(v))
		for _, k := range sortedKeys(v) {
			t, err := ValueOf(v[k])
			if err != nil {
				return Term{}, errors.Wrapf(err, "map value %q", k)
			}
			pairs = append(pairs, Pair{Key: Bin(k), Value: t})
		}
		return Map(pairs...), nil
	}
	return Term{}, errors.Errorf("bert: cannot convert %T to a term", v)
}

// EncodeValue converts v with ValueOf and encodes it.
func EncodeValue(v interface{}) ([]byte, error) {
	t, err := ValueOf(v)
	if err != nil {
		return nil, err
	}
	return Encode(t)
}

// Marshal writes the encoding of v to w.
func Marshal(w io.Writer, v interface{}) error {
	data, err := EncodeValue(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// MarshalResponse writes the encoding of v to w prefixed with its length
// as a 4-byte big-endian integer, the BERP packet framing.
func MarshalResponse(w io.Writer, v interface{}) error {
	data, err := EncodeValue(v)
	if err != nil {
		return err
	}
	return WriteFrame(w, data)
}

// WriteFrame writes data prefixed with its length as a 4-byte big-endian
// integer.
func WriteFrame(w io.Writer, data []byte) error {
	head, err := appendLength(nil, len(data), 4, "packet length")
	if err != nil {
		return err
	}
	_, err = w.Write(concat(head, data))
	return err
}

// Unmarshal reads r to the end and decodes one term from it.
func Unmarshal(r io.Reader) (Term, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Term{}, errors.Wrap(err, "reading term")
	}
	return Decode(data)
}

// UnmarshalResponse reads one length-prefixed packet from r and decodes
// its term.
func UnmarshalResponse(r io.Reader) (Term, error) {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Term{}, errors.Wrap(err, "reading packet length")
	}
	size := binary.BigEndian.Uint32(head[:])
	data, err := io.ReadAll(io.LimitReader(r, int64(size)))
	if err != nil {
		return Term{}, errors.Wrap(err, "reading packet")
	}
	if len(data) != int(size) {
		return Term{}, errors.Wrapf(ErrTruncated, "packet of %d bytes ended after %d", size, len(data))
	}
	return Decode(data)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
