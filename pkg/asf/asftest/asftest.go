// Package asftest builds synthetic container files for tests.
package asftest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"asfkit/pkg/asf"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

// Payload test payload.
type Payload struct {
	Stream           uint8
	KeyFrame         bool
	MediaObject      uint8
	Offset           uint32
	PresentationTime uint32

	// Compressed payloads store the presentation time in the offset field.
	Compressed bool

	// Size of the payload data, defaults to 10.
	Size int
}

// Packet test packet.
type Packet struct {
	SendTime uint32
	Duration uint16
	Payloads []Payload
}

// Packet layout written by EncodePacket.
const (
	ECFlags          = 0x82
	PropertyFlags    = 0x5D
	lengthTypeSingle = 0x10 // Padding length word.
	lengthTypeMulti  = 0x11
	payloadFlagsWord = 0x80 // Payload length word.
)

// Packet field offsets written by EncodePacket.
const (
	PaddingOffset      = 5
	SendTimeOffset     = 7
	DurationOffset     = 11
	FirstPayloadSingle = 13
	FirstPayloadMulti  = 14
)

// EncodePacket encodes p into a packet of size bytes with error
// correction present and property flags 0x5D. Multiple payloads
// are used when p has more than one payload. It panics if the
// payloads do not fit.
func EncodePacket(size int, p Packet) []byte {
	b := make([]byte, size)
	le := binary.LittleEndian
	multi := len(p.Payloads) > 1

	b[0] = ECFlags
	if multi {
		b[3] = lengthTypeMulti
	} else {
		b[3] = lengthTypeSingle
	}
	b[4] = PropertyFlags
	le.PutUint32(b[SendTimeOffset:], p.SendTime)
	le.PutUint16(b[DurationOffset:], p.Duration)

	pos := FirstPayloadSingle
	if multi {
		b[pos] = payloadFlagsWord | byte(len(p.Payloads))
		pos++
	}

	for i, pl := range p.Payloads {
		n := pl.Size
		if n == 0 {
			n = 10
		}
		need := pos + 7 + n
		if pl.Compressed {
			need++
		} else {
			need += 8
		}
		if multi {
			need += 2
		}
		if need > size {
			panic(fmt.Sprintf("payload %d does not fit in packet of %d bytes", i, size))
		}

		stream := pl.Stream
		if pl.KeyFrame {
			stream |= 0x80
		}
		b[pos] = stream
		b[pos+1] = pl.MediaObject
		if pl.Compressed {
			le.PutUint32(b[pos+2:], pl.PresentationTime)
			b[pos+6] = 1
			b[pos+7] = 0 // Presentation time delta.
			pos += 8
		} else {
			le.PutUint32(b[pos+2:], pl.Offset)
			b[pos+6] = 8
			le.PutUint32(b[pos+7:], uint32(n))
			le.PutUint32(b[pos+11:], pl.PresentationTime)
			pos += 15
		}
		if multi {
			le.PutUint16(b[pos:], uint16(n))
			pos += 2
		}
		for j := 0; j < n; j++ {
			b[pos+j] = byte(i + 1)
		}
		pos += n
	}

	le.PutUint16(b[PaddingOffset:], uint16(size-pos))
	return b
}

// Audio stream.
type Audio struct {
	Stream        uint8
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// Video stream.
type Video struct {
	Stream uint8
	Width  int32
	Height int32
	FourCC string
}

// Content description strings.
type Content struct {
	Title       string
	Author      string
	Copyright   string
	Description string
	Rating      string
}

// File synthetic container file.
type File struct {
	FileID       asf.GUID
	PacketSize   uint32
	CreationTime time.Time

	// Preroll in milliseconds.
	Preroll      uint64
	PlayDuration time.Duration
	Broadcast    bool

	Audio   *Audio
	Video   *Video
	Content *Content
	Codecs  []asf.Codec
	Packets []Packet

	// SimpleIndex appends a simple index object after the packets.
	SimpleIndex bool
}

type enc struct {
	bytes.Buffer
}

func (e *enc) u8(v uint8) { e.WriteByte(v) }

func (e *enc) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.Write(b[:])
}

func (e *enc) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.Write(b[:])
}

func (e *enc) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.Write(b[:])
}

func (e *enc) guid(g asf.GUID) { e.Write(g[:]) }

// UTF16 returns null terminated little endian text.
func UTF16(s string) []byte {
	out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		panic(err)
	}
	return append(out, 0, 0)
}

// Object returns an object with header.
func Object(g asf.GUID, body []byte) []byte {
	e := &enc{}
	e.guid(g)
	e.u64(uint64(24 + len(body)))
	e.Write(body)
	return e.Bytes()
}

func (f File) fileProperties(headerSize int) []byte {
	e := &enc{}
	e.guid(f.FileID)
	dataSize := 50 + len(f.Packets)*int(f.PacketSize)
	e.u64(uint64(headerSize + dataSize))
	e.u64(asf.ToFiletime(f.CreationTime))
	e.u64(uint64(len(f.Packets)))
	e.u64(uint64(f.PlayDuration / 100))
	e.u64(uint64(f.PlayDuration / 100))
	e.u64(f.Preroll)
	flags := uint32(asf.FlagSeekable)
	if f.Broadcast {
		flags = asf.FlagBroadcast
	}
	e.u32(flags)
	e.u32(f.PacketSize)
	e.u32(f.PacketSize)
	e.u32(128000)
	return Object(asf.FilePropertiesObject, e.Bytes())
}

func audioProperties(a *Audio) []byte {
	e := &enc{}
	e.guid(asf.AudioMedia)
	e.guid(asf.NoErrorCorrection)
	e.u64(0)
	e.u32(18)
	e.u32(0)
	e.u16(uint16(a.Stream))
	e.u32(0)
	e.u16(1) // PCM.
	e.u16(a.Channels)
	e.u32(a.SampleRate)
	e.u32(a.SampleRate * uint32(a.Channels) * uint32(a.BitsPerSample) / 8)
	e.u16(a.Channels * a.BitsPerSample / 8)
	e.u16(a.BitsPerSample)
	e.u16(0)
	return Object(asf.StreamPropertiesObject, e.Bytes())
}

func videoProperties(v *Video) []byte {
	e := &enc{}
	e.guid(asf.VideoMedia)
	e.guid(asf.NoErrorCorrection)
	e.u64(0)
	e.u32(11 + 40)
	e.u32(0)
	e.u16(uint16(v.Stream))
	e.u32(0)
	e.u32(uint32(v.Width))
	e.u32(uint32(v.Height))
	e.u8(2)
	e.u16(40)
	e.u32(40)
	e.u32(uint32(v.Width))
	e.u32(uint32(v.Height))
	e.u16(1)
	e.u16(24)
	var fourCC [4]byte
	copy(fourCC[:], v.FourCC)
	e.Write(fourCC[:])
	e.u32(uint32(v.Width * v.Height * 3))
	e.u32(0)
	e.u32(0)
	e.u32(0)
	e.u32(0)
	return Object(asf.StreamPropertiesObject, e.Bytes())
}

func headerExtension() []byte {
	lang := &enc{}
	lang.u16(1)
	name := UTF16("en-us")
	lang.u8(uint8(len(name)))
	lang.Write(name)

	compat := &enc{}
	compat.u8(2)
	compat.u8(1)

	nested := append(Object(asf.LanguageListObject, lang.Bytes()),
		Object(asf.CompatibilityObject, compat.Bytes())...)

	e := &enc{}
	e.guid(asf.Reserved1)
	e.u16(6)
	e.u32(uint32(len(nested)))
	out := Object(asf.HeaderExtensionObject, e.Bytes())
	// The nested objects follow the fixed part, the size covers both.
	binary.LittleEndian.PutUint64(out[16:], uint64(len(out)+len(nested)))
	return append(out, nested...)
}

func codecList(codecs []asf.Codec) []byte {
	e := &enc{}
	e.guid(asf.Reserved2)
	e.u32(uint32(len(codecs)))
	for _, c := range codecs {
		e.u16(c.Type)
		name := UTF16(c.Name)
		e.u16(uint16(len(name) / 2))
		e.Write(name)
		desc := UTF16(c.Description)
		e.u16(uint16(len(desc) / 2))
		e.Write(desc)
		e.u16(uint16(len(c.Info)))
		e.Write(c.Info)
	}
	return Object(asf.CodecListObject, e.Bytes())
}

func contentDescription(c *Content) []byte {
	values := [][]byte{
		UTF16(c.Title),
		UTF16(c.Author),
		UTF16(c.Copyright),
		UTF16(c.Description),
		UTF16(c.Rating),
	}
	e := &enc{}
	for _, v := range values {
		e.u16(uint16(len(v)))
	}
	for _, v := range values {
		e.Write(v)
	}
	return Object(asf.ContentDescriptionObject, e.Bytes())
}

func extendedContentDescription() []byte {
	e := &enc{}
	e.u16(2)

	name := UTF16("WM/EncodingTime")
	e.u16(uint16(len(name)))
	e.Write(name)
	e.u16(asf.TypeQWord)
	e.u16(8)
	e.u64(132000000000000000)

	name = UTF16("IsVBR")
	e.u16(uint16(len(name)))
	e.Write(name)
	e.u16(asf.TypeBool)
	e.u16(4)
	e.u32(0)

	return Object(asf.ExtendedContentDescriptionObj, e.Bytes())
}

// Header returns the header objects without the data object.
func (f File) Header() []byte {
	var objects [][]byte
	objects = append(objects, nil) // File properties, size depends on the header.
	objects = append(objects, headerExtension())
	if f.Audio != nil {
		objects = append(objects, audioProperties(f.Audio))
	}
	if f.Video != nil {
		objects = append(objects, videoProperties(f.Video))
	}
	if len(f.Codecs) != 0 {
		objects = append(objects, codecList(f.Codecs))
	}
	if f.Content != nil {
		objects = append(objects, contentDescription(f.Content))
	}
	objects = append(objects, extendedContentDescription())

	headerSize := 30 + 104
	for _, o := range objects[1:] {
		headerSize += len(o)
	}
	objects[0] = f.fileProperties(headerSize)

	e := &enc{}
	e.guid(asf.HeaderObject)
	e.u64(uint64(headerSize))
	e.u32(uint32(len(objects)))
	e.u8(1)
	e.u8(2)
	for _, o := range objects {
		e.Write(o)
	}
	return e.Bytes()
}

// Bytes returns the complete file.
func (f File) Bytes() []byte {
	e := &enc{}
	e.Write(f.Header())

	e.guid(asf.DataObject)
	e.u64(uint64(50 + len(f.Packets)*int(f.PacketSize)))
	e.guid(f.FileID)
	e.u64(uint64(len(f.Packets)))
	e.u16(0x0101)
	for _, p := range f.Packets {
		e.Write(EncodePacket(int(f.PacketSize), p))
	}

	if f.SimpleIndex {
		e.Write(f.simpleIndex())
	}
	return e.Bytes()
}

func (f File) simpleIndex() []byte {
	e := &enc{}
	e.guid(f.FileID)
	e.u64(10000000) // One second.
	e.u32(1)
	count := len(f.Packets)/10 + 1
	e.u32(uint32(count))
	for i := 0; i < count; i++ {
		e.u32(uint32(i * 10))
		e.u16(1)
	}
	return Object(asf.SimpleIndexObject, e.Bytes())
}

// WriteFile writes the file to dir and returns the path.
func (f File) WriteFile(t testing.TB, dir string, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, f.Bytes(), 0o600))
	return path
}

// Default stream numbers.
const (
	AudioStream = 1
	VideoStream = 2
)

// PacketInterval send time between two packets in milliseconds.
const PacketInterval = 100

// KeyFrameInterval packets between two video key frames.
const KeyFrameInterval = 10

// DefaultFile returns a file with one audio and one video payload per
// packet. Packet i is sent at i*100 ms and its payloads are presented
// at preroll + i*100 ms. Every tenth video payload is a key frame.
func DefaultFile(packets int) File {
	f := File{
		FileID:       asf.MustParseGUID("B0C6E8D5-1E39-4C1A-9A34-3C5A3E8B1D01"),
		PacketSize:   128,
		CreationTime: time.Date(2011, 5, 1, 12, 0, 0, 0, time.UTC),
		Preroll:      3000,
		PlayDuration: time.Duration(packets*PacketInterval+3000) * time.Millisecond,
		Audio: &Audio{
			Stream:        AudioStream,
			Channels:      2,
			SampleRate:    32000,
			BitsPerSample: 16,
		},
		Video: &Video{
			Stream: VideoStream,
			Width:  320,
			Height: 240,
			FourCC: "WMV3",
		},
		Content: &Content{
			Title:  "title",
			Author: "author",
		},
		Codecs: []asf.Codec{
			{Type: asf.CodecVideo, Name: "Windows Media Video 9", Description: "Main Profile"},
			{Type: asf.CodecAudio, Name: "Windows Media Audio 9", Description: "32 kbps, 32 kHz, stereo"},
		},
		SimpleIndex: true,
	}
	for i := 0; i < packets; i++ {
		pts := uint32(3000 + i*PacketInterval)
		f.Packets = append(f.Packets, Packet{
			SendTime: uint32(i * PacketInterval),
			Duration: PacketInterval,
			Payloads: []Payload{
				{
					Stream:           VideoStream,
					KeyFrame:         i%KeyFrameInterval == 0,
					MediaObject:      uint8(i),
					PresentationTime: pts,
					Size:             20,
				},
				{
					Stream:           AudioStream,
					KeyFrame:         true,
					MediaObject:      uint8(i),
					PresentationTime: pts,
					Size:             20,
				},
			},
		})
	}
	return f
}

// AudioFile returns a file with a single audio payload per packet.
func AudioFile(packets int) File {
	f := DefaultFile(0)
	f.Video = nil
	f.Codecs = f.Codecs[1:]
	for i := 0; i < packets; i++ {
		f.Packets = append(f.Packets, Packet{
			SendTime: uint32(i * PacketInterval),
			Duration: PacketInterval,
			Payloads: []Payload{{
				Stream:           AudioStream,
				KeyFrame:         true,
				MediaObject:      uint8(i),
				PresentationTime: uint32(3000 + i*PacketInterval),
				Size:             40,
			}},
		})
	}
	f.PlayDuration = time.Duration(packets*PacketInterval+3000) * time.Millisecond
	return f
}
