package asf

import (
	"io"
)

// Fixed part sizes.
const (
	headerObjectSize    = 30
	headerExtensionSize = 46
	dataObjectSize      = 50
)

// Header top level header object. The objects it contains are read
// as a flat sequence after it.
type Header struct {
	base
	ObjectCount uint32

	// HeaderSize total size of the header objects, written to the size field.
	HeaderSize uint64
}

func (o *Header) consumed(uint64) uint64 { return headerObjectSize }

func (o *Header) unmarshal(d *decoder, _ *Config) error {
	o.ObjectCount = d.u32("Number of Header Objects")
	d.u8("Reserved1")
	d.u8("Reserved2")
	o.HeaderSize = o.size
	return nil
}

func (o *Header) Len() int { return headerObjectSize }

func (o *Header) Marshal(out io.Writer, _ *Config) error {
	w := newWriter(out)
	w.TryWriteGUID(o.guid)
	w.TryWriteUint64(o.HeaderSize)
	w.TryWrite(o.raw[objectHeaderSize:headerObjectSize])
	return w.TryError
}

// HeaderExtension object. The extension objects are read as a flat
// sequence after it.
type HeaderExtension struct {
	base
	DataSize uint32
}

func (o *HeaderExtension) consumed(uint64) uint64 { return headerExtensionSize }

func (o *HeaderExtension) unmarshal(d *decoder, _ *Config) error {
	d.guid("Reserved Field 1")
	d.u16("Reserved Field 2")
	o.DataSize = d.u32("Header Extension Data Size")
	return nil
}

func (o *HeaderExtension) Len() int { return headerExtensionSize }

func (o *HeaderExtension) Marshal(w io.Writer, _ *Config) error {
	_, err := w.Write(o.raw[:headerExtensionSize])
	return err
}

// Data object. The packets that follow are not objects.
type Data struct {
	base
	FileID       GUID
	TotalPackets uint64
}

func (o *Data) consumed(uint64) uint64 { return dataObjectSize }

func (o *Data) unmarshal(d *decoder, cfg *Config) error {
	o.FileID = d.guid("File ID")
	o.TotalPackets = d.u64("Total Data Packets")
	d.u16("Reserved")
	if d.err != nil {
		return d.err
	}
	cfg.HeaderSize = o.pos + dataObjectSize
	cfg.PacketCount = o.TotalPackets
	return nil
}

func (o *Data) Len() int { return dataObjectSize }

func (o *Data) Marshal(w io.Writer, _ *Config) error {
	_, err := w.Write(o.raw[:dataObjectSize])
	return err
}
