// Package ffmock fakes the ffmpeg binary with the test binary itself.
package ffmock

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"asfkit/pkg/asf"
	"asfkit/pkg/ffmpeg"
)

// Environment variables read by the helper process.
const (
	envProcess = "GO_TEST_PROCESS"
	envExit    = "FFMOCK_EXIT"
	envFrames  = "FFMOCK_FRAMES"
	envPCM     = "FFMOCK_PCM_BYTES"
)

// Pixel written by the fake decoder.
var Pixel = [4]byte{10, 20, 30, 255}

// DefaultFrames video frames written per run.
const DefaultFrames = 2

// DefaultPCMBytes audio bytes written per run.
const DefaultPCMBytes = 1000

// Command returns a command func that runs testName of the current
// test binary as ffmpeg. The test must call HelperProcess.
func Command(testName string, env ...string) ffmpeg.CommandFunc {
	return func(args ...string) *exec.Cmd {
		cs := append([]string{"-test.run=^" + testName + "$", "--"}, args...)
		cmd := exec.Command(os.Args[0], cs...) //nolint:gosec
		cmd.Env = append([]string{envProcess + "=1"}, env...)
		return cmd
	}
}

// New returns FFMPEG backed by the helper process.
func New(testName string, env ...string) *ffmpeg.FFMPEG {
	return ffmpeg.NewWithCommand(Command(testName, env...), nil)
}

// HelperProcess acts as ffmpeg when called from the helper test.
// It validates the container on stdin and writes raw samples
// matching the requested output format.
func HelperProcess() {
	if os.Getenv(envProcess) != "1" {
		return
	}
	os.Exit(run(ffmpegArgs(), os.Stdin, os.Stdout, os.Stderr))
}

func ffmpegArgs() []string {
	for i, arg := range os.Args {
		if arg == "--" {
			return os.Args[i+1:]
		}
	}
	return nil
}

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	input, err := io.ReadAll(stdin)
	if err != nil {
		fmt.Fprintf(stderr, "read input: %v\n", err)
		return 1
	}
	if len(input) < 16 || !bytes.Equal(input[:16], asf.HeaderObject[:]) {
		fmt.Fprintln(stderr, "pipe:0: Invalid data found when processing input")
		return 1
	}
	fmt.Fprintf(stderr, "input %v bytes\n", len(input))

	if code := os.Getenv(envExit); code != "" {
		n, _ := strconv.Atoi(code)
		return n
	}

	if vf := argValue(args, "-vf"); vf != "" {
		return writeFrames(vf, stdout, stderr)
	}
	if argValue(args, "-f") != "" && contains(args, "s16le") {
		return writePCM(stdout)
	}
	fmt.Fprintf(stderr, "unknown output: %v\n", strings.Join(args, " "))
	return 1
}

func writeFrames(vf string, stdout io.Writer, stderr io.Writer) int {
	var w, h int
	if _, err := fmt.Sscanf(vf, "scale=%d:%d", &w, &h); err != nil {
		fmt.Fprintf(stderr, "parse filter: %v\n", err)
		return 1
	}
	frames := intEnv(envFrames, DefaultFrames)
	frame := bytes.Repeat(Pixel[:], w*h)
	for i := 0; i < frames; i++ {
		if _, err := stdout.Write(frame); err != nil {
			return 1
		}
	}
	return 0
}

func writePCM(stdout io.Writer) int {
	n := intEnv(envPCM, DefaultPCMBytes)
	buf := make([]byte, n)
	for i := 0; i+1 < n; i += 2 {
		binary.LittleEndian.PutUint16(buf[i:], uint16(i/2))
	}
	if _, err := stdout.Write(buf); err != nil {
		return 1
	}
	return 0
}

func argValue(args []string, name string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == name {
			return args[i+1]
		}
	}
	return ""
}

func contains(args []string, s string) bool {
	for _, arg := range args {
		if arg == s {
			return true
		}
	}
	return false
}

func intEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

// Frames sets the number of video frames written.
func Frames(n int) string {
	return envFrames + "=" + strconv.Itoa(n)
}

// PCMBytes sets the number of audio bytes written.
func PCMBytes(n int) string {
	return envPCM + "=" + strconv.Itoa(n)
}

// Exit makes the helper exit with code after reading the input.
func Exit(code int) string {
	return envExit + "=" + strconv.Itoa(code)
}
