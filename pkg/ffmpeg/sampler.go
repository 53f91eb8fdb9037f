// Copyright 2020-2021 The OS-NVR Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Sample errors.
var (
	ErrInvalidSamplerArgs = errors.New("invalid sampler arguments")
	ErrPartialFrame       = errors.New("partial video frame")
)

const defaultChunkSize = 4096

// SamplerArgs decoder output format.
type SamplerArgs struct {
	// Video selects raw RGBA frames, otherwise s16le PCM is decoded.
	Video bool

	// Output frame size, the frame is scaled to fit.
	Width  int
	Height int

	SampleRate int
	Channels   int

	// PCM bytes per sample, defaults to 4096.
	ChunkSize int
}

func (a SamplerArgs) validate() error {
	if a.Video {
		if a.Width <= 0 || a.Height <= 0 {
			return fmt.Errorf("%w: frame size %vx%v", ErrInvalidSamplerArgs, a.Width, a.Height)
		}
		return nil
	}
	if a.SampleRate <= 0 || a.Channels <= 0 {
		return fmt.Errorf("%w: rate %v channels %v", ErrInvalidSamplerArgs, a.SampleRate, a.Channels)
	}
	return nil
}

func (a SamplerArgs) sampleSize() int {
	if a.Video {
		return a.Width * a.Height * 4
	}
	if a.ChunkSize > 0 {
		return a.ChunkSize
	}
	return defaultChunkSize
}

// ffmpegArgs reads the container from stdin and writes raw samples to stdout.
func (a SamplerArgs) ffmpegArgs() []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-f", "asf", "-i", "pipe:0"}
	if a.Video {
		scale := "scale=" + strconv.Itoa(a.Width) + ":" + strconv.Itoa(a.Height)
		return append(args, "-an", "-vf", scale, "-f", "rawvideo", "-pix_fmt", "rgba", "pipe:1")
	}
	return append(args,
		"-vn", "-acodec", "pcm_s16le", "-f", "s16le",
		"-ar", strconv.Itoa(a.SampleRate),
		"-ac", strconv.Itoa(a.Channels),
		"pipe:1",
	)
}

// Sampler decodes a container stream with ffmpeg.
type Sampler struct {
	args   SamplerArgs
	out    *io.PipeReader
	buf    []byte
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSampler starts ffmpeg and pipes src into it. The sampler must be closed.
func (f *FFMPEG) NewSampler(ctx context.Context, src io.Reader, args SamplerArgs) (*Sampler, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}

	cmd := f.command(args.ffmpegArgs()...)
	cmd.Stdin = src

	pr, pw := io.Pipe()
	cmd.Stdout = pw

	ctx2, cancel := context.WithCancel(ctx)
	process := NewProcess(cmd)
	process.SetPrefix("sampler: ")
	process.SetStderrLogger(f.logger)

	s := &Sampler{
		args:   args,
		out:    pr,
		buf:    make([]byte, args.sampleSize()),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		err := process.Start(ctx2)
		if err != nil {
			pw.CloseWithError(fmt.Errorf("ffmpeg: %w", err))
			return
		}
		pw.Close()
	}()

	return s, nil
}

// ReadSample returns the next frame or PCM chunk. The returned slice is
// only valid until the next call. io.EOF is returned at the end of
// the stream.
func (s *Sampler) ReadSample() ([]byte, error) {
	n, err := io.ReadFull(s.out, s.buf)
	switch {
	case err == nil:
		return s.buf, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		if s.args.Video {
			return nil, fmt.Errorf("%w: %v of %v bytes", ErrPartialFrame, n, len(s.buf))
		}
		return s.buf[:n], nil
	}
	return nil, err
}

// Close stops ffmpeg.
func (s *Sampler) Close() error {
	s.cancel()
	s.out.Close()
	<-s.done
	return nil
}
