package asf

import (
	"io"
)

// writer writes little endian integers. TryError holds the first
// error occurred in a write, later writes are skipped.
type writer struct {
	out      io.Writer
	TryError error
}

func newWriter(out io.Writer) *writer {
	return &writer{out: out}
}

func (w *writer) TryWrite(p []byte) {
	if w.TryError == nil {
		_, w.TryError = w.out.Write(p)
	}
}

func (w *writer) TryWriteByte(b byte) {
	w.TryWrite([]byte{b})
}

func (w *writer) TryWriteUint16(v uint16) {
	w.TryWrite([]byte{
		byte(v),
		byte(v >> 8),
	})
}

func (w *writer) TryWriteUint32(v uint32) {
	w.TryWrite([]byte{
		byte(v),
		byte(v >> 8),
		byte(v >> 16),
		byte(v >> 24),
	})
}

func (w *writer) TryWriteUint64(v uint64) {
	w.TryWrite([]byte{
		byte(v),
		byte(v >> 8),
		byte(v >> 16),
		byte(v >> 24),
		byte(v >> 32),
		byte(v >> 40),
		byte(v >> 48),
		byte(v >> 56),
	})
}

func (w *writer) TryWriteGUID(g GUID) {
	w.TryWrite(g[:])
}
