package bert

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/pkg/errors"
)

func appendFloat64(b []byte, f float64) []byte {
	return binary.BigEndian.AppendUint64(b, math.Float64bits(f))
}

func float64At(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

// appendUint renders n big-endian in exactly width bytes. It fails when n
// does not fit.
func appendUint(b []byte, n uint64, width int) ([]byte, error) {
	if width < 8 && n>>(8*uint(width)) != 0 {
		return nil, errors.Wrapf(ErrRange, "%d does not fit in %d bytes", n, width)
	}
	for i := width - 1; i >= 0; i-- {
		b = append(b, byte(n>>(8*uint(i))))
	}
	return b, nil
}

// appendLength writes a count or byte length field.
func appendLength(b []byte, n int, width int, what string) ([]byte, error) {
	out, err := appendUint(b, uint64(n), width)
	if err != nil {
		return nil, errors.Wrapf(ErrRange, "%s %d exceeds a %d-byte length field", what, n, width)
	}
	return out, nil
}

func appendInt32(b []byte, n int64) ([]byte, error) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, errors.Wrapf(ErrRange, "%d does not fit a 4-byte signed integer", n)
	}
	return binary.BigEndian.AppendUint32(b, uint32(int32(n))), nil
}

// magnitude returns |n| as bytes, least significant first, by repeated
// division by 256. Zero has an empty magnitude.
func magnitude(n *big.Int) []byte {
	var (
		out  []byte
		q    = new(big.Int).Abs(n)
		r    = new(big.Int)
		base = big.NewInt(256)
	)
	for q.Sign() != 0 {
		q.QuoRem(q, base, r)
		out = append(out, byte(r.Uint64()))
	}
	return out
}

// reverse returns a reversed copy of b.
func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
