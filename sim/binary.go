package sim

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/rotisserie/eris"
)

// binWriter packs primitives little-endian into a growing buffer.
// Strings carry a u64 length prefix; sequences a u64 count.
type binWriter struct {
	buf bytes.Buffer
}

func (w *binWriter) U64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *binWriter) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *binWriter) I32(v int32) {
	w.U32(uint32(v))
}

func (w *binWriter) F32(v float32) {
	w.U32(math.Float32bits(v))
}

func (w *binWriter) F64(v float64) {
	w.U64(math.Float64bits(v))
}

func (w *binWriter) Byte(v byte) {
	w.buf.WriteByte(v)
}

func (w *binWriter) Bool(v bool) {
	if v {
		w.Byte(1)
	} else {
		w.Byte(0)
	}
}

func (w *binWriter) Str(s string) {
	w.U64(uint64(len(s)))
	w.buf.WriteString(s)
}

func (w *binWriter) Bytes() []byte {
	return w.buf.Bytes()
}

// binReader unpacks what binWriter packed. The first failure sticks; every
// later read returns zero values so callers can check Err once.
type binReader struct {
	data []byte
	off  int
	err  error
}

func newBinReader(data []byte) *binReader {
	return &binReader{data: data}
}

func (r *binReader) fail() {
	if r.err == nil {
		r.err = eris.Wrap(ErrInvalidArgument, "binary state truncated")
	}
}

func (r *binReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.data) {
		r.fail()
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *binReader) U64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *binReader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *binReader) I32() int32 {
	return int32(r.U32())
}

func (r *binReader) F32() float32 {
	return math.Float32frombits(r.U32())
}

func (r *binReader) F64() float64 {
	return math.Float64frombits(r.U64())
}

func (r *binReader) Byte() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *binReader) Bool() bool {
	return r.Byte() != 0
}

func (r *binReader) Str() string {
	n := r.U64()
	if r.err != nil {
		return ""
	}
	if n > uint64(len(r.data)-r.off) {
		r.fail()
		return ""
	}
	return string(r.take(int(n)))
}

// Count reads a sequence count and bounds-checks it against the remaining
// input, where every item occupies at least minItemSize bytes.
func (r *binReader) Count(minItemSize int) int {
	n := r.U64()
	if r.err != nil {
		return 0
	}
	if minItemSize > 0 && n > uint64(len(r.data)-r.off)/uint64(minItemSize) {
		r.fail()
		return 0
	}
	return int(n)
}

func (r *binReader) Err() error {
	return r.err
}

// Done reports an error when unread bytes remain.
func (r *binReader) Done() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.data) {
		return eris.Wrap(ErrInvalidArgument, "binary state has trailing bytes")
	}
	return nil
}
