// Copyright 2020-2022 The OS-NVR Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; either version 2 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package asfkit

import (
	"asfkit/pkg/asf/asftest"
	"asfkit/pkg/asffile"
	"asfkit/pkg/ffmpeg"
	"asfkit/pkg/ffmpeg/ffmock"
	"asfkit/pkg/log"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFFmpegHelper(t *testing.T) {
	ffmock.HelperProcess()
}

func mockFFmpeg(string, *log.Logger) *ffmpeg.FFMPEG {
	return ffmock.New("TestFFmpegHelper")
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	err := run(args, &stdout, io.Discard, mockFFmpeg)
	return stdout.String(), err
}

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		0:                        "00:00.000",
		1500 * time.Millisecond:  "00:01.500",
		83*time.Second + 7000000: "01:23.007",
		61 * time.Minute:         "61:00.000",
	}
	for d, want := range cases {
		require.Equal(t, want, FormatDuration(d))
	}
}

func TestParseFlags(t *testing.T) {
	cases := map[string]struct {
		args []string
		err  error
	}{
		"noAction":  {[]string{"-i", "a.wmv"}, ErrNoAction},
		"multiple":  {[]string{"-i", "a.wmv", "-l", "-info"}, ErrMultipleActions},
		"noInput":   {[]string{"-l"}, ErrNoInput},
		"noOutputT": {[]string{"-i", "a.wmv", "-t"}, ErrNoOutput},
		"noOutputA": {[]string{"-i", "a.wmv", "-a"}, ErrNoOutput},
		"logs":      {[]string{"-logs"}, nil},
		"update":    {[]string{"-i", "a.wmv", "-u", "-title", ""}, nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f, _, err := parseFlags(tc.args, io.Discard)
			require.ErrorIs(t, err, tc.err)
			if tc.err == nil {
				require.NotNil(t, f)
			}
		})
	}
	t.Run("query", func(t *testing.T) {
		f, _, err := parseFlags([]string{
			"-logs", "-level", "warning", "-src", "asffile, media", "-file", "a.wmv", "-limit", "5",
		}, io.Discard)
		require.NoError(t, err)
		require.Equal(t, log.Query{
			MaxLevel: log.LevelWarning,
			Sources:  []string{"asffile", "media"},
			Files:    []string{"a.wmv"},
			Limit:    5,
		}, f.query)

		_, _, err = parseFlags([]string{"-logs", "-level", "loud"}, io.Discard)
		require.Error(t, err)

		_, _, err = parseFlags([]string{"-logs", "-before", "yesterday"}, io.Discard)
		require.ErrorIs(t, err, ErrInvalidTime)
	})
	t.Run("set", func(t *testing.T) {
		f, _, err := parseFlags([]string{"-i", "a.wmv", "-u", "-title", "", "-rating", "PG"}, io.Discard)
		require.NoError(t, err)
		require.True(t, f.set["title"])
		require.True(t, f.set["rating"])
		require.False(t, f.set["author"])
	})
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	path := asftest.DefaultFile(30).WriteFile(t, dir, "test.wmv")

	t.Run("length", func(t *testing.T) {
		out, err := runCmd(t, "-i", path, "-l")
		require.NoError(t, err)
		require.Equal(t, "00:03.000\n", out)
	})
	t.Run("info", func(t *testing.T) {
		out, err := runCmd(t, "-i", path, "-info")
		require.NoError(t, err)
		require.Contains(t, out, "Header Object")
		require.Contains(t, out, "Data Object")
		require.Contains(t, out, `"title"`)
	})
	t.Run("image", func(t *testing.T) {
		output := filepath.Join(dir, "still.png")
		_, err := runCmd(t, "-i", path, "-t", "-start", "1.5", "-w", "32", "-o", output)
		require.NoError(t, err)

		b, err := os.ReadFile(output)
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(b, []byte("\x89PNG")))
	})
	t.Run("audio", func(t *testing.T) {
		output := filepath.Join(dir, "clip.wav")
		_, err := runCmd(t, "-i", path, "-a", "-start", "0.5", "-o", output)
		require.NoError(t, err)

		b, err := os.ReadFile(output)
		require.NoError(t, err)
		require.Equal(t, "RIFF", string(b[:4]))
	})
	t.Run("audioErr", func(t *testing.T) {
		output := filepath.Join(dir, "bad.wav")
		_, err := runCmd(t, "-i", path, "-a", "-start", "2", "-end", "1", "-o", output)
		require.Error(t, err)

		_, err = os.Stat(output)
		require.ErrorIs(t, err, os.ErrNotExist)
	})
	t.Run("update", func(t *testing.T) {
		target := filepath.Join(dir, "updated.wmv")
		_, err := runCmd(t, "-i", path, "-u", "-title", "new", "-rating", "", "-o", target)
		require.NoError(t, err)

		f, err := asffile.Open(target)
		require.NoError(t, err)
		cd := f.ContentDescription()
		require.Equal(t, "new", cd.Title)
		require.Equal(t, "author", cd.Author)
		require.Equal(t, "", cd.Rating)
	})
	t.Run("invalidFile", func(t *testing.T) {
		invalid := filepath.Join(dir, "invalid.wmv")
		require.NoError(t, os.WriteFile(invalid, []byte("invalid"), 0o600))

		var stderr bytes.Buffer
		err := run([]string{"-i", invalid, "-l"}, io.Discard, &stderr, mockFFmpeg)
		require.Error(t, err)
	})
	t.Run("usage", func(t *testing.T) {
		var stderr bytes.Buffer
		err := run([]string{"-x"}, io.Discard, &stderr, mockFFmpeg)
		require.Error(t, err)
		require.True(t, strings.HasPrefix(stderr.String(), "error: "))
		require.Contains(t, stderr.String(), usage)
	})
	t.Run("help", func(t *testing.T) {
		var stderr bytes.Buffer
		err := run([]string{"-h"}, io.Discard, &stderr, mockFFmpeg)
		require.NoError(t, err)
		require.Contains(t, stderr.String(), usage)
	})
}

func TestRunLogs(t *testing.T) {
	dir := t.TempDir()
	path := asftest.DefaultFile(10).WriteFile(t, dir, "test.wmv")

	envPath := filepath.Join(dir, "env.yaml")
	envYAML := "logDB: " + filepath.Join(dir, "logs.db") + "\nlogLevel: debug\n"
	require.NoError(t, os.WriteFile(envPath, []byte(envYAML), 0o600))

	_, err := runCmd(t, "-env", envPath, "-i", path, "-u", "-author", "me")
	require.NoError(t, err)

	out, err := runCmd(t, "-env", envPath, "-logs")
	require.NoError(t, err)
	require.Contains(t, out, "[INFO] "+path+": Asffile: updated header")

	t.Run("filters", func(t *testing.T) {
		cases := map[string]struct {
			args  []string
			found bool
		}{
			"baseName":  {[]string{"-file", "test.wmv", "-src", "asffile"}, true},
			"fullPath":  {[]string{"-file", "other.wmv," + path}, true},
			"level":     {[]string{"-level", "info"}, true},
			"warning":   {[]string{"-level", "warning"}, false},
			"source":    {[]string{"-src", "media"}, false},
			"otherFile": {[]string{"-file", "other.wmv"}, false},
			"before":    {[]string{"-before", "2000-01-01 00:00:00"}, false},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				args := append([]string{"-env", envPath, "-logs"}, tc.args...)
				out, err := runCmd(t, args...)
				require.NoError(t, err)
				if tc.found {
					require.Contains(t, out, "Asffile: updated header")
				} else {
					require.NotContains(t, out, "Asffile: updated header")
				}
			})
		}
	})

	t.Run("noLogDB", func(t *testing.T) {
		_, err := runCmd(t, "-logs")
		require.ErrorIs(t, err, ErrNoLogDB)
	})
}
