package asf

import (
	"encoding/binary"
	"fmt"
)

// decoder reads little endian fields from an object or packet buffer.
// The first error sticks, later reads return zero values.
type decoder struct {
	buf    []byte
	pos    int
	err    error
	fields []Field
}

func newDecoder(buf []byte, pos int) *decoder {
	return &decoder{buf: buf, pos: pos}
}

func (d *decoder) need(n int) bool {
	if d.err != nil {
		return false
	}
	if n < 0 || d.pos+n > len(d.buf) {
		d.err = fmt.Errorf("%w: need %d bytes at %d, have %d",
			errShortObject, n, d.pos, len(d.buf))
		return false
	}
	return true
}

// record appends a field to the inspection table, empty names are skipped.
func (d *decoder) record(name string, offset int, v interface{}) {
	if name != "" {
		d.fields = append(d.fields, Field{Name: name, Offset: offset, Value: v})
	}
}

func (d *decoder) u8(name string) uint8 {
	if !d.need(1) {
		return 0
	}
	v := d.buf[d.pos]
	d.record(name, d.pos, v)
	d.pos++
	return v
}

func (d *decoder) u16(name string) uint16 {
	if !d.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(d.buf[d.pos:])
	d.record(name, d.pos, v)
	d.pos += 2
	return v
}

func (d *decoder) u32(name string) uint32 {
	if !d.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(d.buf[d.pos:])
	d.record(name, d.pos, v)
	d.pos += 4
	return v
}

func (d *decoder) u64(name string) uint64 {
	if !d.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(d.buf[d.pos:])
	d.record(name, d.pos, v)
	d.pos += 8
	return v
}

func (d *decoder) guid(name string) GUID {
	if !d.need(16) {
		return GUID{}
	}
	var g GUID
	copy(g[:], d.buf[d.pos:])
	d.record(name, d.pos, g)
	d.pos += 16
	return g
}

func (d *decoder) bytes(name string, n int) []byte {
	if !d.need(n) {
		return nil
	}
	v := make([]byte, n)
	copy(v, d.buf[d.pos:])
	d.record(name, d.pos, v)
	d.pos += n
	return v
}

func (d *decoder) skip(n int) {
	if d.need(n) {
		d.pos += n
	}
}

// utf16 reads n bytes of UTF-16LE text.
func (d *decoder) utf16(name string, n int) string {
	if !d.need(n) {
		return ""
	}
	offset := d.pos
	s, err := decodeUTF16(d.buf[d.pos : d.pos+n])
	if err != nil {
		d.err = err
		return ""
	}
	d.record(name, offset, s)
	d.pos += n
	return s
}

// varuint reads a field whose width is selected by a two bit code.
// Code 0 means the field is absent and its value is zero.
func (d *decoder) varuint(name string, code uint8) uint32 {
	switch code {
	case 1:
		return uint32(d.u8(name))
	case 2:
		return uint32(d.u16(name))
	case 3:
		return d.u32(name)
	}
	return 0
}

// widthOf returns the byte width for a two bit length type code.
func widthOf(code uint8) int {
	switch code {
	case 1:
		return 1
	case 2:
		return 2
	case 3:
		return 4
	}
	return 0
}

// putVaruint writes v at buf[pos:] using the width selected by code.
func putVaruint(buf []byte, pos int, code uint8, v uint32) {
	switch code {
	case 1:
		buf[pos] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(buf[pos:], uint16(v))
	case 3:
		binary.LittleEndian.PutUint32(buf[pos:], v)
	}
}
