package asffile

import (
	"fmt"
	"io"
	"math"
	"os"

	"asfkit/pkg/asf"
)

// Stream selects the stream used to locate a position.
type Stream int

// Streams.
const (
	StreamVideo Stream = iota
	StreamAudio
)

// Search tolerances in milliseconds.
const (
	videoTolerance = 100
	audioTolerance = 250
)

const maxIterations = 500

// FilePosition a packet offset and its time.
type FilePosition struct {
	Path      string
	MediaType MediaType

	// Offset of the packet in the file.
	Offset int64

	// Time presentation time minus preroll in milliseconds.
	Time int64

	// Delta requested minus found time in milliseconds.
	Delta int64
}

// Locate returns the packet position for seconds after the start of
// the file. A start position is moved back to the closest earlier key
// frame of the stream, an end position is moved forward past the
// audio that belongs to it.
func (f *File) Locate(seconds float64, stream Stream, isStart bool) (FilePosition, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return FilePosition{}, fmt.Errorf("open: %w", err)
	}
	defer file.Close()
	return f.locate(file, seconds, stream, isStart)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int64) int64 {
	if v < 0 {
		return -1
	}
	return 1
}

// averagePacketDuration in milliseconds, at least 1.
func (f *File) averagePacketDuration() int64 {
	d := f.EndTimeAudio - f.StartTimeAudio
	if f.MediaType == MediaVideo {
		d = f.EndTimeVideo - f.StartTimeVideo
	}
	packets := f.EndOffset / int64(f.cfg.PacketSize)
	if packets < 1 {
		packets = 1
	}
	avg := d / packets
	if avg < 1 {
		avg = 1
	}
	return avg
}

func (f *File) locate( //nolint:funlen
	r io.ReaderAt,
	seconds float64,
	stream Stream,
	isStart bool,
) (FilePosition, error) {
	if seconds < 0 {
		return FilePosition{}, fmt.Errorf("%w: negative offset %v", asf.ErrInvalidArgument, seconds)
	}
	if f.cfg.PacketCount == 0 {
		return FilePosition{}, fmt.Errorf("%w: no packets", asf.ErrStreamRangeNotFound)
	}

	size := int64(f.cfg.PacketSize)
	minOffset := f.cfg.HeaderSize
	maxOffset := f.maxOffset()

	streamID, tolerance := f.cfg.VideoStreamID, int64(videoTolerance)
	if stream == StreamAudio {
		streamID, tolerance = f.cfg.AudioStreamID, audioTolerance
	}

	requested := int64(seconds * 1000)
	target := f.StartTimeVideo + requested
	avg := f.averagePacketDuration()

	notFound := func(reason string) (FilePosition, error) {
		return FilePosition{}, fmt.Errorf("%w: %v at %vs: %v",
			asf.ErrStreamRangeNotFound, f.path, seconds, reason)
	}
	// Broadcast files have no duration.
	if d := f.Duration().Milliseconds(); d > 0 && requested > d {
		return notFound("beyond end")
	}

	var (
		offset          = minOffset
		diff            = requested
		prevDiff        int64
		jump, prevJump  int64
		prevProbe       = int64(-1)
		found, clamped  bool
		iterations      int
	)
	for !found {
		iterations++
		if iterations > maxIterations {
			return notFound("no convergence")
		}

		jump = int64(math.RoundToEven(float64(diff) / float64(avg)))
		if jump == 0 && iterations > 1 {
			jump = sign(diff)
		}
		// Shrink the jump when it does not get smaller.
		if abs(prevJump) > 0 && abs(jump) >= abs(prevJump) {
			if abs(prevJump) > 1 {
				jump = sign(jump) * (abs(prevJump) - 1)
			} else {
				jump = sign(jump)
			}
		}

		next := offset + jump*size
		clamped = false
		if next > maxOffset {
			next, clamped = maxOffset, true
		} else if next < minOffset {
			next, clamped = minOffset, true
		}
		jump = (next - offset) / size
		prevJump = jump
		offset = next

		// Step back to a packet that carries the stream.
		var res probeResult
		for {
			res = f.probe(r, offset, streamID)
			if res.found {
				break
			}
			offset -= size
			if offset < minOffset {
				return notFound("stream not present")
			}
		}
		diff = target - res.time

		switch {
		case abs(diff) <= tolerance:
			found = true
		case diff > 0 && prevDiff < 0 && abs(jump) == 1:
			found = true
		case clamped && offset == prevProbe:
			// Target lies past the first or last packet of the stream.
			found = true
		}
		prevDiff = diff
		prevProbe = offset
	}

	f.logger.Debug().Src("asffile").File(f.path).
		Msgf("located %vs at offset %v after %v iterations, delta %vms",
			seconds, offset, iterations, diff)

	pos := FilePosition{
		Path:      f.path,
		MediaType: f.MediaType,
		Offset:    offset,
		Time:      target,
		Delta:     diff,
	}
	if isStart {
		return f.walkToKeyframe(r, pos, streamID, stream), nil
	}
	return f.scanAudioEnd(r, pos), nil
}

// walkToKeyframe moves back to the previous key frame at or before
// the target time. A key frame in the matched packet itself may be
// presented after the target, so video always steps back at least
// once. The match is returned unchanged if there is no earlier key
// frame.
func (f *File) walkToKeyframe(
	r io.ReaderAt,
	match FilePosition,
	streamID uint8,
	stream Stream,
) FilePosition {
	size := int64(f.cfg.PacketSize)
	minOffset := f.cfg.HeaderSize

	isAudio := stream == StreamAudio
	keyframe := isAudio

	pos := match
	for ((!isAudio && !keyframe) || pos.Delta < 0) && pos.Offset > minOffset {
		pos.Offset -= size
		res := f.probe(r, pos.Offset, streamID)
		keyframe = res.keyframe
		if res.found {
			pos.Delta = pos.Time - res.time
		}
	}
	if !isAudio && !keyframe {
		return match
	}
	return pos
}

// scanAudioEnd moves forward until the audio reaches the target time
// and includes the packet that reaches it.
func (f *File) scanAudioEnd(r io.ReaderAt, match FilePosition) FilePosition {
	size := int64(f.cfg.PacketSize)
	maxOffset := f.maxOffset()

	pos := match
	foundAudio := false
	for (!foundAudio || pos.Delta > 0) && pos.Offset <= maxOffset {
		res := f.probe(r, pos.Offset+size, f.cfg.AudioStreamID)
		pos.Offset += size
		foundAudio = res.found
		if foundAudio {
			pos.Delta = match.Time - res.time
			pos.Time = res.time
		}
	}
	if pos.Offset <= maxOffset {
		pos.Offset += size
	}
	return pos
}

// SetOffsetRange locates the start and end position of a range in
// seconds. An end of 0 selects the end of the data.
func (f *File) SetOffsetRange(start, end float64, stream Stream) (FilePosition, FilePosition, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return FilePosition{}, FilePosition{}, fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	startPos, err := f.locate(file, start, stream, true)
	if err != nil {
		return FilePosition{}, FilePosition{}, fmt.Errorf("start: %w", err)
	}
	if end == 0 {
		endPos := FilePosition{
			Path:      f.path,
			MediaType: f.MediaType,
			Offset:    f.EndOffset,
			Time:      math.MaxUint32,
		}
		return startPos, endPos, nil
	}

	endPos, err := f.locate(file, end, stream, false)
	if err != nil {
		return FilePosition{}, FilePosition{}, fmt.Errorf("end: %w", err)
	}
	return startPos, endPos, nil
}

// Range packet bytes between two file offsets.
type Range struct {
	*io.SectionReader
	file *os.File
}

// Close closes the file.
func (r *Range) Close() error {
	return r.file.Close()
}

// OpenRange opens the bytes [start, end) of the file.
func (f *File) OpenRange(start, end int64) (*Range, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: range %v-%v", asf.ErrInvalidArgument, start, end)
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return &Range{
		SectionReader: ReadRange(file, start, end),
		file:          file,
	}, nil
}

// ReadRange returns a reader for the bytes [start, end) of r.
func ReadRange(r io.ReaderAt, start, end int64) *io.SectionReader {
	return io.NewSectionReader(r, start, end-start)
}
