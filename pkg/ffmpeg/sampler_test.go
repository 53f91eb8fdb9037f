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

package ffmpeg_test

import (
	"asfkit/pkg/asf/asftest"
	"asfkit/pkg/ffmpeg"
	"asfkit/pkg/ffmpeg/ffmock"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFFmpegHelper(t *testing.T) {
	ffmock.HelperProcess()
}

func newSampler(t *testing.T, src []byte, args ffmpeg.SamplerArgs, env ...string) *ffmpeg.Sampler {
	t.Helper()
	ff := ffmock.New("TestFFmpegHelper", env...)
	s, err := ff.NewSampler(context.Background(), bytes.NewReader(src), args)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSampler(t *testing.T) {
	src := asftest.DefaultFile(3).Bytes()

	t.Run("video", func(t *testing.T) {
		args := ffmpeg.SamplerArgs{Video: true, Width: 4, Height: 3}
		s := newSampler(t, src, args)

		want := bytes.Repeat(ffmock.Pixel[:], 4*3)
		for i := 0; i < ffmock.DefaultFrames; i++ {
			frame, err := s.ReadSample()
			require.NoError(t, err)
			require.Equal(t, want, frame)
		}
		_, err := s.ReadSample()
		require.ErrorIs(t, err, io.EOF)
	})
	t.Run("audio", func(t *testing.T) {
		args := ffmpeg.SamplerArgs{SampleRate: 32000, Channels: 2, ChunkSize: 400}
		s := newSampler(t, src, args, ffmock.PCMBytes(1000))

		var sizes []int
		for {
			chunk, err := s.ReadSample()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			sizes = append(sizes, len(chunk))
		}
		require.Equal(t, []int{400, 400, 200}, sizes)
	})
	t.Run("exitErr", func(t *testing.T) {
		args := ffmpeg.SamplerArgs{Video: true, Width: 1, Height: 1}
		s := newSampler(t, src, args, ffmock.Exit(1))

		_, err := s.ReadSample()
		require.Error(t, err)
		require.NotErrorIs(t, err, io.EOF)
	})
	t.Run("invalidInput", func(t *testing.T) {
		args := ffmpeg.SamplerArgs{Video: true, Width: 1, Height: 1}
		s := newSampler(t, []byte("invalid"), args)

		_, err := s.ReadSample()
		require.Error(t, err)
	})
	t.Run("invalidArgs", func(t *testing.T) {
		ff := ffmock.New("TestFFmpegHelper")
		_, err := ff.NewSampler(context.Background(), bytes.NewReader(src), ffmpeg.SamplerArgs{Video: true})
		require.ErrorIs(t, err, ffmpeg.ErrInvalidSamplerArgs)
	})
	t.Run("closeEarly", func(t *testing.T) {
		args := ffmpeg.SamplerArgs{Video: true, Width: 2, Height: 2}
		ff := ffmock.New("TestFFmpegHelper", ffmock.Frames(1000))
		s, err := ff.NewSampler(context.Background(), bytes.NewReader(src), args)
		require.NoError(t, err)

		_, err = s.ReadSample()
		require.NoError(t, err)
		require.NoError(t, s.Close())
	})
}
