package bert

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
)

// MaxInflated is the largest uncompressed size Decode accepts for a
// compressed term.
const MaxInflated = 64 << 20

// deflate cannot expand a stream by more than about 1032 to 1.
const maxDeflateRatio = 1032

// EncodeCompressed encodes t and wraps the term in a zlib compressed
// term: version, tag 80, the uncompressed size in 4 bytes, then the
// deflated term.
func EncodeCompressed(t Term, level int) ([]byte, error) {
	body, err := appendTerm(nil, t, 1)
	if err != nil {
		return nil, err
	}
	header, err := appendLength([]byte{VersionTag, byte(CompressedTag)}, len(body), 4, "uncompressed size")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, errors.Wrap(err, "creating zlib writer")
	}
	if _, err := w.Write(body); err != nil {
		return nil, errors.Wrap(err, "deflating term")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "deflating term")
	}
	return concat(header, buf.Bytes()), nil
}

// inflate reads the size field and zlib stream of a compressed term and
// returns the inflated bytes. It consumes the rest of the reader.
func (r *reader) inflate() ([]byte, error) {
	head, err := r.take(4)
	if err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(head)
	stream := r.buf[r.pos:]
	r.pos = len(r.buf)
	if size > MaxInflated || uint64(size) > uint64(len(stream))*maxDeflateRatio {
		return nil, errors.Wrapf(ErrCompressed, "declared size %d exceeds the limit for a %d byte stream", size, len(stream))
	}

	zr, err := zlib.NewReader(bytes.NewReader(stream))
	if err != nil {
		return nil, errors.Wrapf(ErrCompressed, "zlib header: %v", err)
	}
	defer zr.Close()

	// Read one byte past the declared size to catch oversized payloads
	// without inflating them completely.
	out, err := io.ReadAll(io.LimitReader(zr, int64(size)+1))
	if err != nil {
		return nil, errors.Wrapf(ErrCompressed, "inflating: %v", err)
	}
	if len(out) != int(size) {
		return nil, errors.Wrapf(ErrCompressed, "declared %d bytes, inflated %d", size, len(out))
	}
	return out, nil
}
