package protocol

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrTruncated возвращается при чтении за пределами тела пакета
var ErrTruncated = errors.New("protocol: truncated payload")

// ErrStringTooLong возвращается при записи строки длиннее 65535 байт
var ErrStringTooLong = errors.New("protocol: string too long")

// Writer собирает тело пакета в сетевом порядке байт
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) PutU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) PutBool(v bool) {
	if v {
		w.PutU8(1)
	} else {
		w.PutU8(0)
	}
}

func (w *Writer) PutU16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *Writer) PutU32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *Writer) PutI32(v int32) {
	w.PutU32(uint32(v))
}

func (w *Writer) PutF32(v float32) {
	w.PutU32(math.Float32bits(v))
}

// PutString пишет строку с u16-префиксом длины
func (w *Writer) PutString(s string) {
	if len(s) > math.MaxUint16 {
		s = s[:math.MaxUint16]
	}
	w.PutU16(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

// Reader разбирает тело пакета; первая ошибка запоминается,
// последующие чтения возвращают нулевые значения.
type Reader struct {
	buf []byte
	off int
	err error
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Err возвращает первую ошибку чтения
func (r *Reader) Err() error { return r.err }

// Remaining возвращает число непрочитанных байт
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.err = ErrTruncated
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) Bool() bool {
	return r.U8() != 0
}

func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *Reader) I32() int32 {
	return int32(r.U32())
}

func (r *Reader) F32() float32 {
	return math.Float32frombits(r.U32())
}

// String читает строку с u16-префиксом длины
func (r *Reader) String() string {
	n := int(r.U16())
	b := r.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}
