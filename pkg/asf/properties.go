package asf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"time"
)

// FILETIME epoch, 1601-01-01, in unix seconds.
const filetimeEpoch = -11644473600

// FromFiletime converts 100 nanosecond intervals since 1601-01-01 UTC.
func FromFiletime(ticks uint64) time.Time {
	sec := int64(ticks/10000000) + filetimeEpoch
	nsec := int64(ticks%10000000) * 100
	return time.Unix(sec, nsec).UTC()
}

// ToFiletime is the inverse of FromFiletime, times before 1601 are zero.
func ToFiletime(t time.Time) uint64 {
	sec := t.Unix() - filetimeEpoch
	if sec < 0 {
		return 0
	}
	return uint64(sec)*10000000 + uint64(t.Nanosecond()/100)
}

// File properties flags.
const (
	FlagBroadcast = 1 << 0
	FlagSeekable  = 1 << 1
)

// FileProperties object.
type FileProperties struct {
	base
	FileID       GUID
	FileSize     uint64
	CreationTime time.Time
	PacketCount  uint64

	// PlayDuration and SendDuration in 100 nanosecond units.
	PlayDuration uint64
	SendDuration uint64

	// Preroll in milliseconds.
	Preroll       uint64
	Flags         uint32
	MinPacketSize uint32
	MaxPacketSize uint32
	MaxBitrate    uint32
}

// File properties field offsets.
const (
	fpFileID        = 24
	fpFileSize      = 40
	fpCreationTime  = 48
	fpPacketCount   = 56
	fpFlags         = 88
	fpMaxPacketSize = 96
	fpMaxBitrate    = 100
	fpEnd           = 104
)

func (o *FileProperties) unmarshal(d *decoder, cfg *Config) error {
	o.FileID = d.guid("File ID")
	o.FileSize = d.u64("File Size")
	o.CreationTime = FromFiletime(d.u64("Creation Date"))
	o.PacketCount = d.u64("Data Packets Count")
	o.PlayDuration = d.u64("Play Duration")
	o.SendDuration = d.u64("Send Duration")
	o.Preroll = d.u64("Preroll")
	o.Flags = d.u32("Flags")
	o.MinPacketSize = d.u32("Minimum Data Packet Size")
	o.MaxPacketSize = d.u32("Maximum Data Packet Size")
	o.MaxBitrate = d.u32("Maximum Bitrate")
	if d.err != nil {
		return d.err
	}

	cfg.PacketSize = o.MaxPacketSize
	cfg.Preroll = uint32(o.Preroll)
	cfg.PacketCount = o.PacketCount
	cfg.Bitrate = o.MaxBitrate
	cfg.Duration = o.Duration().Seconds()
	return nil
}

// Broadcast reports whether the broadcast flag is set.
func (o *FileProperties) Broadcast() bool { return o.Flags&FlagBroadcast != 0 }

// Seekable reports whether the seekable flag is set.
func (o *FileProperties) Seekable() bool { return o.Flags&FlagSeekable != 0 }

// Duration play duration minus preroll.
func (o *FileProperties) Duration() time.Duration {
	return time.Duration(o.PlayDuration)*100 - time.Duration(o.Preroll)*time.Millisecond
}

// Marshal writes the raw object with the editable fields patched in.
// The maximum packet size is taken from cfg.
func (o *FileProperties) Marshal(w io.Writer, cfg *Config) error {
	out := make([]byte, len(o.raw))
	copy(out, o.raw)
	le := binary.LittleEndian

	copy(out[fpFileID:], o.FileID[:])
	le.PutUint64(out[fpFileSize:], o.FileSize)
	le.PutUint64(out[fpCreationTime:], ToFiletime(o.CreationTime))
	le.PutUint64(out[fpPacketCount:], o.PacketCount)

	flags := le.Uint32(out[fpFlags:])
	flags &^= FlagBroadcast | FlagSeekable
	flags |= o.Flags & (FlagBroadcast | FlagSeekable)
	le.PutUint32(out[fpFlags:], flags)

	if cfg != nil && cfg.PacketSize != 0 {
		le.PutUint32(out[fpMaxPacketSize:], cfg.PacketSize)
	}
	le.PutUint32(out[fpMaxBitrate:], o.MaxBitrate)

	_, err := w.Write(out)
	return err
}

func (o *FileProperties) consumed(size uint64) uint64 {
	if size < fpEnd {
		return fpEnd
	}
	return size
}

// AudioFormat WAVEFORMATEX.
type AudioFormat struct {
	FormatTag         uint16
	Channels          uint16
	SamplesPerSecond  uint32
	AvgBytesPerSecond uint32
	BlockAlign        uint16
	BitsPerSample     uint16
	CodecData         []byte
}

// VideoFormat video type specific data and BITMAPINFOHEADER.
type VideoFormat struct {
	EncodedWidth  uint32
	EncodedHeight uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitsPerPixel  uint16
	Compression   [4]byte
	ImageSize     uint32
	CodecData     []byte
}

// FourCC compression code as text.
func (f *VideoFormat) FourCC() string {
	return string(bytes.TrimRight(f.Compression[:], "\x00"))
}

// Stream properties flags.
const (
	streamNumberMask = 0x7f
	streamEncrypted  = 0x8000
)

// StreamProperties object.
type StreamProperties struct {
	base
	StreamType          GUID
	ErrorCorrectionType GUID
	TimeOffset          uint64
	StreamNumber        uint8
	Encrypted           bool

	// Audio or Video is set depending on the stream type.
	Audio *AudioFormat
	Video *VideoFormat

	ErrorCorrectionData []byte
}

const streamPropertiesFixed = 78

func (o *StreamProperties) consumed(size uint64) uint64 {
	if size < streamPropertiesFixed {
		return streamPropertiesFixed
	}
	return size
}

func (o *StreamProperties) unmarshal(d *decoder, cfg *Config) error {
	o.StreamType = d.guid("Stream Type")
	o.ErrorCorrectionType = d.guid("Error Correction Type")
	o.TimeOffset = d.u64("Time Offset")
	typeLen := d.u32("Type-Specific Data Length")
	ecLen := d.u32("Error Correction Data Length")
	flags := d.u16("Flags")
	d.u32("Reserved")
	if d.err != nil {
		return d.err
	}
	o.StreamNumber = uint8(flags & streamNumberMask)
	o.Encrypted = flags&streamEncrypted != 0

	typeStart := d.pos
	switch o.StreamType {
	case AudioMedia:
		a := &AudioFormat{}
		a.FormatTag = d.u16("Codec ID / Format Tag")
		a.Channels = d.u16("Number of Channels")
		a.SamplesPerSecond = d.u32("Samples Per Second")
		a.AvgBytesPerSecond = d.u32("Average Number of Bytes Per Second")
		a.BlockAlign = d.u16("Block Alignment")
		a.BitsPerSample = d.u16("Bits Per Sample")
		codecLen := d.u16("Codec Specific Data Size")
		a.CodecData = d.bytes("Codec Specific Data", int(codecLen))
		if d.err != nil {
			return d.err
		}
		o.Audio = a

		cfg.AudioStreamID = o.StreamNumber
		cfg.AudioChannels = a.Channels
		cfg.AudioSampleRate = a.SamplesPerSecond
		cfg.AudioBitsPerSample = a.BitsPerSample

	case VideoMedia:
		v := &VideoFormat{}
		v.EncodedWidth = d.u32("Encoded Image Width")
		v.EncodedHeight = d.u32("Encoded Image Height")
		d.u8("Reserved Flags")
		formatLen := d.u16("Format Data Size")
		d.u32("Bitmap Header Size")
		v.Width = int32(d.u32("Image Width"))
		v.Height = int32(d.u32("Image Height"))
		v.Planes = d.u16("Reserved")
		v.BitsPerPixel = d.u16("Bits Per Pixel Count")
		compression := d.bytes("Compression ID", 4)
		v.ImageSize = d.u32("Image Size")
		d.u32("Horizontal Pixels Per Meter")
		d.u32("Vertical Pixels Per Meter")
		d.u32("Colors Used Count")
		d.u32("Important Colors Count")
		if d.err != nil {
			return d.err
		}
		if formatLen < 40 {
			return fmt.Errorf("format data size %d too small", formatLen)
		}
		copy(v.Compression[:], compression)
		v.CodecData = d.bytes("Codec Specific Data", int(formatLen)-40)
		if d.err != nil {
			return d.err
		}
		o.Video = v

		cfg.VideoStreamID = o.StreamNumber
		cfg.ImageWidth = int(abs32(v.Width))
		cfg.ImageHeight = int(abs32(v.Height))
	}

	d.pos = typeStart
	d.skip(int(typeLen))
	o.ErrorCorrectionData = d.bytes("Error Correction Data", int(ecLen))
	return nil
}

func (o *StreamProperties) Name() string {
	return "Stream Properties Object [" + strconv.Itoa(int(o.StreamNumber)) + "]"
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Extended stream properties flags.
const (
	ExtReliable              = 1 << 0
	ExtSeekable              = 1 << 1
	ExtNoCleanpoints         = 1 << 2
	ExtResendLiveCleanpoints = 1 << 3
)

const extendedStreamPropertiesSz = 88

// StreamName localized stream name.
type StreamName struct {
	LanguageIndex uint16
	Name          string
}

// PayloadExtension payload extension system.
type PayloadExtension struct {
	ID       GUID
	DataSize uint16
	Info     []byte
}

// ExtendedStreamProperties object.
type ExtendedStreamProperties struct {
	base

	// StartTime and EndTime in milliseconds.
	StartTime              uint64
	EndTime                uint64
	DataBitrate            uint32
	BufferSize             uint32
	InitialBufferFullness  uint32
	AltDataBitrate         uint32
	AltBufferSize          uint32
	AltInitialBufferFull   uint32
	MaxObjectSize          uint32
	Flags                  uint32
	StreamNumber           uint16
	LanguageIndex          uint16
	AverageTimePerFrame    uint64
	StreamNames            []StreamName
	PayloadExtensionSystem []PayloadExtension
}

func (o *ExtendedStreamProperties) consumed(size uint64) uint64 {
	if size < extendedStreamPropertiesSz {
		return extendedStreamPropertiesSz
	}
	return size
}

func (o *ExtendedStreamProperties) unmarshal(d *decoder, _ *Config) error {
	o.StartTime = d.u64("Start Time")
	o.EndTime = d.u64("End Time")
	o.DataBitrate = d.u32("Data Bitrate")
	o.BufferSize = d.u32("Buffer Size")
	o.InitialBufferFullness = d.u32("Initial Buffer Fullness")
	o.AltDataBitrate = d.u32("Alternate Data Bitrate")
	o.AltBufferSize = d.u32("Alternate Buffer Size")
	o.AltInitialBufferFull = d.u32("Alternate Initial Buffer Fullness")
	o.MaxObjectSize = d.u32("Maximum Object Size")
	o.Flags = d.u32("Flags")
	o.StreamNumber = d.u16("Stream Number")
	o.LanguageIndex = d.u16("Stream Language ID Index")
	o.AverageTimePerFrame = d.u64("Average Time Per Frame")
	nameCount := d.u16("Stream Name Count")
	extCount := d.u16("Payload Extension System Count")

	for i := 0; i < int(nameCount) && d.err == nil; i++ {
		var n StreamName
		n.LanguageIndex = d.u16("Language ID Index")
		size := d.u16("Stream Name Length")
		n.Name = d.utf16("Stream Name", int(size))
		o.StreamNames = append(o.StreamNames, n)
	}
	for i := 0; i < int(extCount) && d.err == nil; i++ {
		var e PayloadExtension
		e.ID = d.guid("Extension System ID")
		e.DataSize = d.u16("Extension Data Size")
		infoLen := d.u32("Extension System Info Length")
		e.Info = d.bytes("Extension System Info", int(infoLen))
		o.PayloadExtensionSystem = append(o.PayloadExtensionSystem, e)
	}
	return nil
}

// StreamBitrate average bitrate of one stream.
type StreamBitrate struct {
	StreamNumber uint8
	Bitrate      uint32
}

// StreamBitrateProperties object.
type StreamBitrateProperties struct {
	base
	Records []StreamBitrate
}

func (o *StreamBitrateProperties) unmarshal(d *decoder, _ *Config) error {
	count := d.u16("Bitrate Records Count")
	for i := 0; i < int(count) && d.err == nil; i++ {
		flags := d.u16("Flags")
		bitrate := d.u32("Average Bitrate")
		o.Records = append(o.Records, StreamBitrate{
			StreamNumber: uint8(flags & streamNumberMask),
			Bitrate:      bitrate,
		})
	}
	return nil
}
