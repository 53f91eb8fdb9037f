package asf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Object header, identifier and size.
const objectHeaderSize = 24

// Object container object, header objects and the trailing index objects.
type Object interface {
	GUID() GUID
	Name() string

	// Position file offset of the object header.
	Position() int64

	// Size as read from the file.
	Size() uint64

	// Len number of bytes Marshal will write.
	Len() int

	// Marshal writes the object, editable fields are recomputed.
	Marshal(w io.Writer, cfg *Config) error

	// Fields ordered inspection table.
	Fields() []Field
}

type object interface {
	Object
	consumed(size uint64) uint64
	setBase(b base)
	setFields(f []Field)
	unmarshal(d *decoder, cfg *Config) error
}

// base raw pass-through implementation shared by all objects.
type base struct {
	guid   GUID
	pos    int64
	size   uint64
	raw    []byte
	fields []Field
}

func (b *base) GUID() GUID      { return b.guid }
func (b *base) Name() string    { return Name(b.guid) }
func (b *base) Position() int64 { return b.pos }
func (b *base) Size() uint64    { return b.size }
func (b *base) Len() int        { return len(b.raw) }
func (b *base) Fields() []Field { return b.fields }

// Raw bytes as read from the file.
func (b *base) Raw() []byte { return b.raw }

func (b *base) Marshal(w io.Writer, _ *Config) error {
	_, err := w.Write(b.raw)
	return err
}

func (b *base) consumed(size uint64) uint64 { return size }
func (b *base) setBase(v base)              { *b = v }
func (b *base) setFields(f []Field)         { b.fields = f }

// ReadObject reads the object at the current position of r and leaves
// r at the start of the next object. Header, header extension and data
// objects only consume their fixed part. io.EOF is returned at the end
// of the file or on an object with zero size.
func ReadObject(r io.ReadSeeker, cfg *Config) (Object, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}
	end, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}
	if _, err := r.Seek(pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}

	hdr := make([]byte, objectHeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated object header at %d",
				ErrInvalidContainer, pos)
		}
		return nil, err
	}

	var guid GUID
	copy(guid[:], hdr)
	size := binary.LittleEndian.Uint64(hdr[16:])
	if size == 0 {
		return nil, io.EOF
	}

	o := newObject(guid)
	n := o.consumed(size)
	if size < n || n < objectHeaderSize {
		return nil, fmt.Errorf("%w: %v at %d: size %d too small",
			ErrInvalidContainer, Name(guid), pos, size)
	}
	if n > uint64(end-pos) {
		return nil, fmt.Errorf("%w: %v at %d: size %d exceeds file",
			ErrInvalidContainer, Name(guid), pos, n)
	}

	raw := make([]byte, n)
	copy(raw, hdr)
	if _, err := io.ReadFull(r, raw[objectHeaderSize:]); err != nil {
		return nil, fmt.Errorf("%w: %v at %d: %v",
			ErrInvalidContainer, Name(guid), pos, err)
	}

	o.setBase(base{guid: guid, pos: pos, size: size, raw: raw})

	d := newDecoder(raw, 0)
	d.guid("Object ID")
	d.u64("Object Size")
	err = o.unmarshal(d, cfg)
	if err == nil {
		err = d.err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v at %d: %v", ErrInvalidContainer, Name(guid), pos, err)
	}
	o.setFields(d.fields)

	return o, nil
}

// Unknown object without a dedicated variant, raw bytes only.
type Unknown struct {
	base
}

func (o *Unknown) unmarshal(d *decoder, _ *Config) error {
	d.bytes("Data", len(d.buf)-d.pos)
	return nil
}

// Padding object.
type Padding struct {
	base
}

func (o *Padding) unmarshal(d *decoder, _ *Config) error {
	d.skip(len(d.buf) - d.pos)
	return nil
}

// IndexParametersPlaceholder object, reserved space in the header extension.
type IndexParametersPlaceholder struct {
	base
}

func (o *IndexParametersPlaceholder) unmarshal(d *decoder, _ *Config) error {
	d.skip(len(d.buf) - d.pos)
	return nil
}
