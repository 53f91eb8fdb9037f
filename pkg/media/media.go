// Package media decodes stills and audio ranges from container files.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"asfkit/pkg/asf"
	"asfkit/pkg/asffile"
	"asfkit/pkg/ffmpeg"
	"asfkit/pkg/log"
	"asfkit/pkg/segment"

	"golang.org/x/image/bmp"
)

// JPEGQuality used by EncodeImage.
const JPEGQuality = 90

type options struct {
	logger *log.Logger
}

// Option media option.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// frameSize returns the output size for width, height follows the
// aspect ratio of the video stream. Zero width keeps the source size.
func frameSize(cfg *asf.Config, width int) (int, int) {
	if width <= 0 {
		return cfg.ImageWidth, cfg.ImageHeight
	}
	height := cfg.ImageHeight * width / cfg.ImageWidth
	if height < 1 {
		height = 1
	}
	return width, height
}

// ExtractImage decodes the first frame at offset seconds.
func ExtractImage(
	ctx context.Context,
	ff *ffmpeg.FFMPEG,
	path string,
	offset float64,
	width int,
	opts ...Option,
) (*image.RGBA, error) {
	o := newOptions(opts)

	f, err := asffile.Open(path, asffile.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	cfg := f.Config()
	if !cfg.HasVideo() {
		return nil, fmt.Errorf("%w: no video stream", asf.ErrInvalidArgument)
	}

	r, err := segment.New(f, segment.Image, offset, 0, segment.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	w, h := frameSize(cfg, width)
	sampler, err := ff.NewSampler(ctx, r, ffmpeg.SamplerArgs{
		Video:  true,
		Width:  w,
		Height: h,
	})
	if err != nil {
		return nil, err
	}
	defer sampler.Close()

	frame, err := sampler.ReadSample()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no frame at %vs", asf.ErrStreamRangeNotFound, offset)
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	copy(img.Pix, frame)

	o.logger.Info().Src("media").File(path).
		Msgf("extracted %vx%v image at %vs", w, h, offset)
	return img, nil
}

// EncodeImage writes img in the format named by the extension of path.
// Unknown extensions are written as BMP.
func EncodeImage(w io.Writer, img image.Image, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case ".png":
		return png.Encode(w, img)
	default:
		return bmp.Encode(w, img)
	}
}

// ExtractAudio decodes the audio between start and end seconds and
// writes it to w as a WAVE file. An end of 0 reads to the end of the file.
func ExtractAudio(
	ctx context.Context,
	ff *ffmpeg.FFMPEG,
	path string,
	start float64,
	end float64,
	w io.Writer,
	opts ...Option,
) error {
	o := newOptions(opts)

	f, err := asffile.Open(path, asffile.WithLogger(o.logger))
	if err != nil {
		return err
	}
	cfg := f.Config()
	if cfg.AudioStreamID == 0 {
		return fmt.Errorf("%w: no audio stream", asf.ErrInvalidArgument)
	}
	if end != 0 && end <= start {
		return fmt.Errorf("%w: end %v not after start %v", asf.ErrInvalidArgument, end, start)
	}

	r, err := segment.New(f, segment.Audio, start, end, segment.WithLogger(o.logger))
	if err != nil {
		return err
	}
	defer r.Close()

	format := WAVFormat{
		SampleRate: int(cfg.AudioSampleRate),
		Channels:   int(cfg.AudioChannels),
	}
	sampler, err := ff.NewSampler(ctx, r, ffmpeg.SamplerArgs{
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
	})
	if err != nil {
		return err
	}
	defer sampler.Close()

	var pcm bytes.Buffer
	for {
		chunk, err := sampler.ReadSample()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
		pcm.Write(chunk)
	}

	if err := WriteWAV(w, format, pcm.Bytes()); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}

	o.logger.Info().Src("media").File(path).
		Msgf("extracted %v bytes of audio %vs-%vs", pcm.Len(), start, end)
	return nil
}
