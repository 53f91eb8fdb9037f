package asf

import (
	"encoding/binary"
	"io"
)

// ContentDescription object, the editable text metadata.
type ContentDescription struct {
	base
	Title       string
	Author      string
	Copyright   string
	Description string
	Rating      string

	orig [5]string
}

const contentDescriptionFixed = objectHeaderSize + 10

func (o *ContentDescription) values() [5]string {
	return [5]string{o.Title, o.Author, o.Copyright, o.Description, o.Rating}
}

func (o *ContentDescription) consumed(size uint64) uint64 {
	if size < contentDescriptionFixed {
		return contentDescriptionFixed
	}
	return size
}

func (o *ContentDescription) unmarshal(d *decoder, _ *Config) error {
	var lengths [5]uint16
	lengths[0] = d.u16("Title Length")
	lengths[1] = d.u16("Author Length")
	lengths[2] = d.u16("Copyright Length")
	lengths[3] = d.u16("Description Length")
	lengths[4] = d.u16("Rating Length")

	o.Title = d.utf16("Title", int(lengths[0]))
	o.Author = d.utf16("Author", int(lengths[1]))
	o.Copyright = d.utf16("Copyright", int(lengths[2]))
	o.Description = d.utf16("Description", int(lengths[3]))
	o.Rating = d.utf16("Rating", int(lengths[4]))
	o.orig = o.values()
	return nil
}

func (o *ContentDescription) modified() bool {
	return o.values() != o.orig
}

func (o *ContentDescription) encoded() ([5][]byte, error) {
	var out [5][]byte
	for i, s := range o.values() {
		b, err := encodeUTF16(s)
		if err != nil {
			return out, err
		}
		out[i] = b
	}
	return out, nil
}

// Len returns the raw size when no field was edited.
func (o *ContentDescription) Len() int {
	if !o.modified() {
		return len(o.raw)
	}
	n := contentDescriptionFixed
	for _, s := range o.values() {
		b, _ := encodeUTF16(s)
		n += len(b)
	}
	return n
}

// Marshal writes the raw bytes when no field was edited, otherwise
// the lengths and object size are recomputed.
func (o *ContentDescription) Marshal(out io.Writer, _ *Config) error {
	if !o.modified() {
		_, err := out.Write(o.raw)
		return err
	}
	values, err := o.encoded()
	if err != nil {
		return err
	}

	size := contentDescriptionFixed
	for _, v := range values {
		size += len(v)
	}

	w := newWriter(out)
	w.TryWriteGUID(o.guid)
	w.TryWriteUint64(uint64(size))
	for _, v := range values {
		w.TryWriteUint16(uint16(len(v)))
	}
	for _, v := range values {
		w.TryWrite(v)
	}
	return w.TryError
}

// Descriptor value types.
const (
	TypeString uint16 = 0
	TypeBytes  uint16 = 1
	TypeBool   uint16 = 2
	TypeDWord  uint16 = 3
	TypeQWord  uint16 = 4
	TypeWord   uint16 = 5
	TypeGUID   uint16 = 6
)

// decodeValue converts descriptor data by type. Unknown types and
// short integers stay as bytes.
func decodeValue(typ uint16, b []byte) interface{} {
	le := binary.LittleEndian
	switch {
	case typ == TypeString:
		s, err := decodeUTF16(b)
		if err != nil {
			return b
		}
		return s
	case typ == TypeBool && len(b) >= 2:
		for _, v := range b {
			if v != 0 {
				return true
			}
		}
		return false
	case typ == TypeDWord && len(b) >= 4:
		return le.Uint32(b)
	case typ == TypeQWord && len(b) >= 8:
		return le.Uint64(b)
	case typ == TypeWord && len(b) >= 2:
		return le.Uint16(b)
	case typ == TypeGUID && len(b) >= 16:
		var g GUID
		copy(g[:], b)
		return g
	}
	return b
}

// Descriptor extended content description entry.
type Descriptor struct {
	Name  string
	Type  uint16
	Value interface{}
}

// ExtendedContentDescription object.
type ExtendedContentDescription struct {
	base
	Descriptors []Descriptor
}

func (o *ExtendedContentDescription) unmarshal(d *decoder, _ *Config) error {
	count := d.u16("Content Descriptors Count")
	for i := 0; i < int(count) && d.err == nil; i++ {
		nameLen := d.u16("")
		name := d.utf16("Descriptor Name", int(nameLen))
		typ := d.u16("")
		valueLen := d.u16("")
		start := d.pos
		data := d.bytes("", int(valueLen))
		if d.err != nil {
			break
		}
		value := decodeValue(typ, data)
		d.record(name, start, value)
		o.Descriptors = append(o.Descriptors, Descriptor{
			Name:  name,
			Type:  typ,
			Value: value,
		})
	}
	return nil
}

// Lookup returns the value of the first descriptor with name.
func (o *ExtendedContentDescription) Lookup(name string) (interface{}, bool) {
	for _, d := range o.Descriptors {
		if d.Name == name {
			return d.Value, true
		}
	}
	return nil, false
}

// MetadataRecord metadata object entry.
type MetadataRecord struct {
	StreamNumber uint16
	Name         string
	Type         uint16
	Value        interface{}
}

// Metadata object.
type Metadata struct {
	base
	Records []MetadataRecord
}

func (o *Metadata) unmarshal(d *decoder, _ *Config) error {
	count := d.u16("Description Records Count")
	for i := 0; i < int(count) && d.err == nil; i++ {
		d.u16("")
		stream := d.u16("")
		nameLen := d.u16("")
		typ := d.u16("")
		dataLen := d.u32("")
		name := d.utf16("Name", int(nameLen))
		start := d.pos
		data := d.bytes("", int(dataLen))
		if d.err != nil {
			break
		}
		value := decodeValue(typ, data)
		d.record(name, start, value)
		o.Records = append(o.Records, MetadataRecord{
			StreamNumber: stream,
			Name:         name,
			Type:         typ,
			Value:        value,
		})
	}
	return nil
}

// LanguageList object.
type LanguageList struct {
	base
	Languages []string
}

func (o *LanguageList) unmarshal(d *decoder, _ *Config) error {
	count := d.u16("Language ID Records Count")
	for i := 0; i < int(count) && d.err == nil; i++ {
		n := d.u8("")
		o.Languages = append(o.Languages, d.utf16("Language ID", int(n)))
	}
	return nil
}
