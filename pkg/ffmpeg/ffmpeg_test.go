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
	"asfkit/pkg/log"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFakeProcess(t *testing.T) {
	if os.Getenv("GO_TEST_PROCESS") != "1" {
		return
	}
	if os.Getenv("SLEEP") == "1" {
		time.Sleep(1 * time.Hour)
	}
	if os.Getenv("EXIT") != "" {
		fmt.Fprintf(os.Stderr, "%v", "fail")
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "%v", "out")
	fmt.Fprintf(os.Stderr, "%v", "err")

	os.Exit(0)
}

func fakeExecCommand(env ...string) *exec.Cmd {
	cs := []string{"-test.run=^TestFakeProcess$"}
	cmd := exec.Command(os.Args[0], cs...)
	cmd.Env = []string{"GO_TEST_PROCESS=1"}
	cmd.Env = append(cmd.Env, env...)
	return cmd
}

func TestProcess(t *testing.T) {
	t.Run("running", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		p := NewProcess(fakeExecCommand())
		err := p.Start(ctx)
		require.NoError(t, err)
	})
	t.Run("exitErr", func(t *testing.T) {
		p := NewProcess(fakeExecCommand("EXIT=1"))
		err := p.Start(context.Background())
		require.Error(t, err)
	})
	t.Run("stop", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p := NewProcess(fakeExecCommand("SLEEP=1"))
		p.SetTimeout(10 * time.Millisecond)
		err := p.Start(ctx)
		require.Error(t, err)
	})
	t.Run("stderrLogger", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		wg := &sync.WaitGroup{}
		logger := log.NewLogger(wg)
		logger.Start(ctx)

		feed, cancel2 := logger.Subscribe()
		defer cancel2()

		p := NewProcess(fakeExecCommand())
		p.SetPrefix("test ")
		p.SetStderrLogger(logger)

		done := make(chan error)
		go func() { done <- p.Start(ctx) }()

		entry := <-feed
		require.Equal(t, "ffmpeg", entry.Src)
		require.Equal(t, "test stderr: err", entry.Msg)
		require.NoError(t, <-done)
	})
	t.Run("stderrErr", func(t *testing.T) {
		_, pw, err := os.Pipe()
		require.NoError(t, err)

		cmd := fakeExecCommand()
		cmd.Stderr = pw

		p := NewProcess(cmd)
		p.SetStderrLogger(log.NewMockLogger())

		err = p.Start(context.Background())
		require.Error(t, err)
	})
}

func TestSamplerArgs(t *testing.T) {
	t.Run("video", func(t *testing.T) {
		args := SamplerArgs{Video: true, Width: 160, Height: 120}
		require.NoError(t, args.validate())
		require.Equal(t, 160*120*4, args.sampleSize())
		require.Equal(t, []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "asf", "-i", "pipe:0",
			"-an", "-vf", "scale=160:120",
			"-f", "rawvideo", "-pix_fmt", "rgba", "pipe:1",
		}, args.ffmpegArgs())
	})
	t.Run("audio", func(t *testing.T) {
		args := SamplerArgs{SampleRate: 32000, Channels: 2}
		require.NoError(t, args.validate())
		require.Equal(t, defaultChunkSize, args.sampleSize())
		require.Equal(t, []string{
			"-hide_banner", "-loglevel", "error",
			"-f", "asf", "-i", "pipe:0",
			"-vn", "-acodec", "pcm_s16le", "-f", "s16le",
			"-ar", "32000", "-ac", "2", "pipe:1",
		}, args.ffmpegArgs())
	})
	t.Run("invalid", func(t *testing.T) {
		cases := map[string]SamplerArgs{
			"noWidth":    {Video: true, Height: 1},
			"noHeight":   {Video: true, Width: 1},
			"noRate":     {Channels: 1},
			"noChannels": {SampleRate: 8000},
		}
		for name, args := range cases {
			t.Run(name, func(t *testing.T) {
				require.ErrorIs(t, args.validate(), ErrInvalidSamplerArgs)
			})
		}
	})
}
