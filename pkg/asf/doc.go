// Package asf reads and writes the objects and data packets of
// Advanced Systems Format files.
//
// All integers are little endian. Object identifiers are GUIDs stored
// with the first three groups byte swapped.
//
// FILE
//
//	Header Object
//		Object ID         16 bytes
//		Object Size       8 bytes  // Total size of all header objects.
//		Object Count      4 bytes
//		Reserved1         1 byte
//		Reserved2         1 byte
//	Header objects...   // File Properties, Stream Properties, ...
//	Data Object
//		Object ID         16 bytes
//		Object Size       8 bytes
//		File ID           16 bytes
//		Total Packets     8 bytes
//		Reserved          2 bytes
//	Data packets...     // Fixed size, see File Properties.
//	Index objects...
//
// PACKET
//
//	Error Correction Flags    1 byte   // present(1) length type(2) opaque(1) data length(4)
//	Error Correction Data     2 bytes  // Only when present, must be zero.
//	Length Type Flags         1 byte   // ec(1) packet length(2) padding(2) sequence(2) multiple payloads(1)
//	Property Flags            1 byte   // stream(2) media object number(2) offset(2) replicated data(2)
//	Packet Length             0-4 bytes
//	Sequence                  0-4 bytes
//	Padding Length            0-4 bytes
//	Send Time                 4 bytes  // Milliseconds.
//	Duration                  2 bytes
//	Payload Flags             1 byte   // Only with multiple payloads. length type(2) count(6)
//	Payloads...
//
// PAYLOAD
//
//	Stream Number             1 byte   // key frame(1) stream(7)
//	Media Object Number       0-4 bytes
//	Offset Into Media Object  0-4 bytes
//	Replicated Data Length    0-4 bytes
//	Replicated Data           n bytes  // object size(4) presentation time(4) extensions...
//	Payload Length            0-4 bytes // Only with multiple payloads.
//	Payload Data              n bytes
package asf
