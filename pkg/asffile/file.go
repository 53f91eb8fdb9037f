// Package asffile opens container files, locates time positions and
// rewrites file metadata.
package asffile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"asfkit/pkg/asf"
	"asfkit/pkg/log"
)

// MediaType primary media of a file.
type MediaType int

// Media types.
const (
	MediaAudio MediaType = iota
	MediaVideo
)

func (m MediaType) String() string {
	if m == MediaVideo {
		return "video"
	}
	return "audio"
}

// File parsed container file. The packets are not kept in memory.
type File struct {
	path   string
	cfg    *asf.Config
	logger *log.Logger

	objects []asf.Object
	header  []byte

	// Presentation times minus preroll of the first and last
	// packet of each stream in milliseconds.
	StartTimeVideo int64
	EndTimeVideo   int64
	StartTimeAudio int64
	EndTimeAudio   int64

	// EndOffset end of the data object.
	EndOffset int64
	MediaType MediaType
}

// Option file option.
type Option func(*File)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(f *File) {
		f.logger = logger
	}
}

var (
	errNoHeader     = errors.New("first object is not a header object")
	errNoData       = errors.New("data object missing")
	errNoPacketSize = errors.New("packet size unknown")
)

// Open parses the objects of the file at path.
func Open(path string, opts ...Option) (*File, error) {
	f := &File{
		path: path,
		cfg:  asf.NewConfig(),
	}
	for _, opt := range opts {
		opt(f)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	if err := f.parse(file); err != nil {
		f.logger.Debug().Src("asffile").File(path).Msgf("parse: %v", err)
		return nil, fmt.Errorf("%w: %v", asf.ErrInvalidFile, path)
	}

	if err := f.scan(file); err != nil {
		f.logger.Warn().Src("asffile").File(path).Msgf("scan: %v", err)
	}
	return f, nil
}

func (f *File) parse(r io.ReadSeeker) error {
	var data *asf.Data
	for {
		o, err := asf.ReadObject(r, f.cfg)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if len(f.objects) == 0 && o.GUID() != asf.HeaderObject {
			return fmt.Errorf("%w: %v", errNoHeader, o.Name())
		}
		f.objects = append(f.objects, o)

		if d, ok := o.(*asf.Data); ok {
			data = d
			if _, err := r.Seek(f.cfg.DataEnd(), io.SeekStart); err != nil {
				return fmt.Errorf("seek: %w", err)
			}
		}
	}
	switch {
	case len(f.objects) == 0:
		return errNoHeader
	case data == nil:
		return errNoData
	case f.cfg.PacketSize == 0:
		return errNoPacketSize
	}

	f.EndOffset = data.Position() + int64(data.Size())

	f.header = make([]byte, f.cfg.HeaderSize)
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek: %w", err)
	}
	if _, err := io.ReadFull(r, f.header); err != nil {
		return fmt.Errorf("read streaming header: %w", err)
	}
	return nil
}

var errStreamNotFound = errors.New("no packets")

// scan finds the first and last presentation time of each stream.
func (f *File) scan(r io.ReaderAt) error {
	if f.cfg.PacketCount == 0 {
		return errStreamNotFound
	}
	first := f.cfg.HeaderSize
	last := f.maxOffset()
	size := int64(f.cfg.PacketSize)

	find := func(stream uint8, from int64, step int64) (int64, error) {
		for off := from; off >= first && off <= last; off += step {
			if res := f.probe(r, off, stream); res.found {
				return res.time, nil
			}
		}
		return 0, fmt.Errorf("%w: stream %d", errStreamNotFound, stream)
	}

	var err error
	if f.cfg.HasVideo() {
		if f.StartTimeVideo, err = find(f.cfg.VideoStreamID, first, size); err != nil {
			return err
		}
		if f.EndTimeVideo, err = find(f.cfg.VideoStreamID, last, -size); err != nil {
			return err
		}
	}
	if f.cfg.AudioStreamID != 0 {
		if f.StartTimeAudio, err = find(f.cfg.AudioStreamID, first, size); err != nil {
			return err
		}
		if f.EndTimeAudio, err = find(f.cfg.AudioStreamID, last, -size); err != nil {
			return err
		}
	}

	if f.EndTimeVideo > 0 {
		f.MediaType = MediaVideo
	}
	return nil
}

// offset of the last packet.
func (f *File) maxOffset() int64 {
	if f.cfg.PacketCount == 0 {
		return f.cfg.HeaderSize
	}
	return f.cfg.HeaderSize + int64(f.cfg.PacketCount-1)*int64(f.cfg.PacketSize)
}

type probeResult struct {
	found    bool
	time     int64
	keyframe bool
}

// probe reads the packet at offset and returns the presentation time
// minus preroll of the stream. The first payload that starts a media
// object wins, otherwise the last payload of the stream is used.
// Unreadable packets are reported as not found.
func (f *File) probe(r io.ReaderAt, offset int64, stream uint8) probeResult {
	var res probeResult
	buf := make([]byte, f.cfg.PacketSize)
	if _, err := r.ReadAt(buf, offset); err != nil {
		return res
	}
	p, err := asf.DecodePacket(f.cfg, buf)
	if err != nil {
		return res
	}

	done := false
	for _, pl := range p.Payloads {
		if pl.StreamID != stream {
			continue
		}
		res.keyframe = res.keyframe || pl.KeyframeStart
		if done {
			continue
		}
		res.found = true
		res.time = int64(pl.PresentationTime) - int64(f.cfg.Preroll)
		if pl.OffsetIntoMedia == 0 {
			done = true
		}
	}
	return res
}

// Path file path.
func (f *File) Path() string {
	return f.path
}

// Config parse configuration.
func (f *File) Config() *asf.Config {
	return f.cfg
}

// Objects returns every object in file order.
func (f *File) Objects() []asf.Object {
	return f.objects
}

// ObjectsByGUID returns the objects with identifier g.
func (f *File) ObjectsByGUID(g asf.GUID) []asf.Object {
	var out []asf.Object
	for _, o := range f.objects {
		if o.GUID() == g {
			out = append(out, o)
		}
	}
	return out
}

func objectOf[T asf.Object](f *File) T {
	var zero T
	for _, o := range f.objects {
		if v, ok := o.(T); ok {
			return v
		}
	}
	return zero
}

// Header returns the header object.
func (f *File) Header() *asf.Header {
	return objectOf[*asf.Header](f)
}

// Data returns the data object.
func (f *File) Data() *asf.Data {
	return objectOf[*asf.Data](f)
}

// FileProperties returns the file properties object or nil.
func (f *File) FileProperties() *asf.FileProperties {
	return objectOf[*asf.FileProperties](f)
}

// ContentDescription returns the content description object or nil.
func (f *File) ContentDescription() *asf.ContentDescription {
	return objectOf[*asf.ContentDescription](f)
}

// CodecList returns the codec list object or nil.
func (f *File) CodecList() *asf.CodecList {
	return objectOf[*asf.CodecList](f)
}

// SimpleIndex returns the simple index object or nil.
func (f *File) SimpleIndex() *asf.SimpleIndex {
	return objectOf[*asf.SimpleIndex](f)
}

// StreamProperties returns every stream properties object.
func (f *File) StreamProperties() []*asf.StreamProperties {
	var out []*asf.StreamProperties
	for _, o := range f.objects {
		if s, ok := o.(*asf.StreamProperties); ok {
			out = append(out, s)
		}
	}
	return out
}

// Duration play duration minus preroll.
func (f *File) Duration() time.Duration {
	return time.Duration(f.cfg.Duration * float64(time.Second))
}

// StreamingHeader returns a copy of the bytes before the first packet.
func (f *File) StreamingHeader() []byte {
	out := make([]byte, len(f.header))
	copy(out, f.header)
	return out
}
