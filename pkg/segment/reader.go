package segment

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"asfkit/pkg/asf"
	"asfkit/pkg/asffile"
	"asfkit/pkg/log"
)

const (
	// The internal buffer is compacted when it grows past this size,
	// after which seeking is no longer possible.
	maxBufferSize = 500000

	// Seeking is only allowed inside the first bytes of the stream.
	maxSeekOffset = 10000

	readChunkSize = 8192
)

// Data object field offsets.
const (
	dataObjectSize        = 50
	dataObjectSizeOffset  = 16
	dataObjectCountOffset = 40
)

// ErrSeekNotSupported seek on a stream that cannot seek.
var ErrSeekNotSupported = errors.New("seek not supported")

// Reader reads a renormalized segment. The packets are read from the
// file as needed.
type Reader struct {
	kind   Type
	cfg    *asf.Config
	state  *State
	src    io.ReadCloser
	header []byte
	length int64
	logger *log.Logger
	path   string

	buf    []byte
	pos    int
	packet []byte

	headerStreamed bool
	firstPacket    bool
	allowSeekBack  bool
	eof            bool
}

// Option reader option.
type Option func(*Reader)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// New returns a reader for the segment of f between start and end in
// seconds. An end of 0 reads to the end of the file.
func New(f *asffile.File, kind Type, start, end float64, opts ...Option) (*Reader, error) {
	if kind == Image {
		end = 0
	}
	if start < 0 || end < 0 {
		return nil, fmt.Errorf("%w: negative offset", asf.ErrInvalidArgument)
	}
	if kind != Stream && kind != Image && kind != Audio && end < start {
		return nil, fmt.Errorf("%w: end %v before start %v", asf.ErrInvalidArgument, end, start)
	}
	cfg := f.Config()
	if kind == Image && !cfg.HasVideo() {
		return nil, fmt.Errorf("%w: image stream of audio file", asf.ErrInvalidArgument)
	}

	stream := asffile.StreamVideo
	if kind == Audio {
		stream = asffile.StreamAudio
	}
	startPos, endPos, err := f.SetOffsetRange(start, end, stream)
	if err != nil {
		return nil, fmt.Errorf("locate range: %w", err)
	}
	src, err := f.OpenRange(startPos.Offset, endPos.Offset)
	if err != nil {
		return nil, err
	}

	rangeLen := endPos.Offset - startPos.Offset
	header := f.StreamingHeader()
	patchDataObject(header, rangeLen/int64(cfg.PacketSize), rangeLen)

	r := &Reader{
		kind:   kind,
		cfg:    cfg,
		state:  NewState(cfg, kind, startPos.Time, endPos.Time),
		src:    src,
		header: header,
		path:   f.Path(),
		packet: make([]byte, cfg.PacketSize),

		firstPacket:   true,
		allowSeekBack: true,
	}
	for _, opt := range opts {
		opt(r)
	}

	headerLen := int64(len(header))
	switch kind {
	case Stream:
		r.length = min(math.MaxInt32, rangeLen+headerLen)
	case Unaltered:
		r.length = rangeLen
	default:
		r.length = rangeLen + headerLen
	}

	r.logger.Debug().Src("segment").File(r.path).
		Msgf("%v segment %v-%v, bytes %v-%v",
			kind, startPos.Time, endPos.Time, startPos.Offset, endPos.Offset)
	return r, nil
}

// patchDataObject sets the packet count and size of the data object
// at the end of the streaming header.
func patchDataObject(header []byte, packets int64, size int64) {
	if len(header) < dataObjectSize {
		return
	}
	data := header[len(header)-dataObjectSize:]
	binary.LittleEndian.PutUint64(data[dataObjectSizeOffset:], uint64(dataObjectSize+size))
	binary.LittleEndian.PutUint64(data[dataObjectCountOffset:], uint64(packets))
}

// Len stream length in bytes.
func (r *Reader) Len() int64 {
	return r.length
}

// Type stream type.
func (r *Reader) Type() Type {
	return r.kind
}

// State renormalization state.
func (r *Reader) State() *State {
	return r.state
}

// CanSeek reports whether Seek is possible.
func (r *Reader) CanSeek() bool {
	return (r.kind == Image || r.kind == Audio) && r.allowSeekBack
}

// Read implements io.Reader.
func (r *Reader) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	for len(r.buf)-r.pos < len(b) {
		more, err := r.fill()
		if err != nil {
			return 0, err
		}
		if !more {
			break
		}
	}

	n := copy(b, r.buf[r.pos:])
	r.pos += n

	if len(r.buf) > maxBufferSize {
		r.buf = append([]byte(nil), r.buf[r.pos:]...)
		r.pos = 0
		r.allowSeekBack = false
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// fill appends the header or the next packet to the buffer.
func (r *Reader) fill() (bool, error) {
	if !r.headerStreamed && r.kind != Unaltered {
		r.buf = append(r.buf, r.header...)
		r.headerStreamed = true
		return true, nil
	}
	if r.eof {
		return false, nil
	}

	if _, err := io.ReadFull(r.src, r.packet); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			r.eof = true
			return false, nil
		}
		return false, fmt.Errorf("read packet: %w", err)
	}

	p, err := asf.DecodePacket(r.cfg, r.packet)
	if err != nil {
		r.logger.Warn().Src("segment").File(r.path).Msgf("packet passed through: %v", err)
		r.buf = append(r.buf, r.packet...)
		return true, nil
	}

	if r.firstPacket {
		r.state.ResetMediaObjects()
		r.state.StartSendTime = p.SendTime
		if !r.state.SetStart(p) {
			r.logger.Debug().Src("segment").File(r.path).Msg("first packet has no key frame")
		}
		r.firstPacket = false
	}
	r.state.SetFollowup(p)
	r.buf = append(r.buf, p.Bytes()...)
	return true, nil
}

// Seek sets the read position, only io.SeekStart inside the start of
// image and audio streams is supported.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if !r.CanSeek() || whence != io.SeekStart {
		return 0, fmt.Errorf("%w: %v stream", ErrSeekNotSupported, r.kind)
	}
	if offset < 0 || offset > maxSeekOffset || offset > int64(len(r.buf)) {
		return 0, fmt.Errorf("%w: seek offset %v", asf.ErrInvalidArgument, offset)
	}
	r.pos = int(offset)
	return offset, nil
}

// WriteTo writes the remaining stream to w.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	var total int64
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			written, werr := w.Write(buf[:n])
			total += int64(written)
			if werr != nil {
				return total, werr
			}
		}
		if errors.Is(err, io.EOF) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Close closes the file.
func (r *Reader) Close() error {
	return r.src.Close()
}
