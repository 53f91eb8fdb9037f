package asf

import "time"

// SimpleIndexEntry packet range for one index interval.
type SimpleIndexEntry struct {
	PacketNumber uint32
	PacketCount  uint16

	// Time of the interval start.
	Time time.Duration
}

// SimpleIndex object.
type SimpleIndex struct {
	base
	FileID GUID

	// Interval in 100 nanosecond units.
	Interval       uint64
	MaxPacketCount uint32
	Entries        []SimpleIndexEntry
}

func (o *SimpleIndex) unmarshal(d *decoder, cfg *Config) error {
	o.FileID = d.guid("File ID")
	o.Interval = d.u64("Index Entry Time Interval")
	o.MaxPacketCount = d.u32("Maximum Packet Count")
	count := d.u32("Index Entries Count")
	if d.err != nil {
		return d.err
	}
	if uint64(count)*6 > uint64(len(d.buf)-d.pos) {
		return errShortObject
	}
	o.Entries = make([]SimpleIndexEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		e := SimpleIndexEntry{
			PacketNumber: d.u32(""),
			PacketCount:  d.u16(""),
			Time:         time.Duration(uint64(i)*o.Interval) * 100,
		}
		o.Entries = append(o.Entries, e)
	}
	cfg.IndexSize = o.size
	return nil
}

// IndexSpecifier stream and index type pair.
type IndexSpecifier struct {
	StreamNumber uint16
	IndexType    uint16
}

// IndexBlock block of index entries.
type IndexBlock struct {
	// Positions per specifier.
	Positions []uint64

	// Offsets per entry, one for each specifier.
	Offsets [][]uint32
}

// Index object.
type Index struct {
	base

	// Interval in milliseconds.
	Interval   uint32
	Specifiers []IndexSpecifier
	Blocks     []IndexBlock
}

func (o *Index) unmarshal(d *decoder, _ *Config) error {
	o.Interval = d.u32("Index Entry Time Interval")
	specCount := d.u16("Index Specifiers Count")
	blockCount := d.u32("Index Blocks Count")
	o.Specifiers = readSpecifiers(d, specCount)
	if d.err != nil {
		return d.err
	}

	for i := uint32(0); i < blockCount && d.err == nil; i++ {
		entries := d.u32("Index Entry Count")
		if uint64(entries)*uint64(specCount)*4 > uint64(len(d.buf)-d.pos) {
			return errShortObject
		}
		b := IndexBlock{}
		for j := 0; j < int(specCount); j++ {
			b.Positions = append(b.Positions, d.u64("Block Position"))
		}
		for e := uint32(0); specCount > 0 && e < entries; e++ {
			offsets := make([]uint32, specCount)
			for j := range offsets {
				offsets[j] = d.u32("")
			}
			b.Offsets = append(b.Offsets, offsets)
		}
		o.Blocks = append(o.Blocks, b)
	}
	return nil
}

func readSpecifiers(d *decoder, n uint16) []IndexSpecifier {
	var out []IndexSpecifier
	for i := 0; i < int(n) && d.err == nil; i++ {
		out = append(out, IndexSpecifier{
			StreamNumber: d.u16("Stream Number"),
			IndexType:    d.u16("Index Type"),
		})
	}
	return out
}

// IndexParameters object.
type IndexParameters struct {
	base
	Interval   uint32
	Specifiers []IndexSpecifier
}

func (o *IndexParameters) unmarshal(d *decoder, _ *Config) error {
	o.Interval = d.u32("Index Entry Time Interval")
	count := d.u16("Index Specifiers Count")
	o.Specifiers = readSpecifiers(d, count)
	return nil
}

// TimecodeIndexParameters object.
type TimecodeIndexParameters struct {
	base
	Interval   uint32
	Specifiers []IndexSpecifier
}

func (o *TimecodeIndexParameters) unmarshal(d *decoder, _ *Config) error {
	o.Interval = d.u32("Index Entry Count Interval")
	count := d.u16("Index Specifiers Count")
	o.Specifiers = readSpecifiers(d, count)
	return nil
}
