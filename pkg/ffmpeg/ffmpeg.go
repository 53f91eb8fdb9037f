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
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

var errStderrSet = errors.New("stderr already set")

// Process interface only used for testing.
type Process interface {
	Start(ctx context.Context) error
	SetTimeout(time.Duration)
	SetPrefix(string)
	SetStderrLogger(*log.Logger)
}

// process manages subprocesses.
type process struct {
	timeout time.Duration
	cmd     *exec.Cmd

	prefix       string
	stderrLogger *log.Logger

	done chan struct{}
}

// NewProcess return process.
func NewProcess(cmd *exec.Cmd) Process {
	return &process{
		timeout: 1000 * time.Millisecond,
		cmd:     cmd,
	}
}

// logWriter logs each written line.
type logWriter struct {
	logger *log.Logger
	prefix string
	buf    []byte
}

func (w *logWriter) Write(b []byte) (int, error) {
	w.buf = append(w.buf, b...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			return len(b), nil
		}
		w.log(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}
}

func (w *logWriter) flush() {
	if len(w.buf) != 0 {
		w.log(string(w.buf))
		w.buf = nil
	}
}

func (w *logWriter) log(line string) {
	w.logger.Debug().Src("ffmpeg").Msgf("%v%v", w.prefix, line)
}

// Start starts process with context and waits for it to exit.
func (p *process) Start(ctx context.Context) error {
	var stderr *logWriter
	if p.stderrLogger != nil {
		if p.cmd.Stderr != nil {
			return errStderrSet
		}
		stderr = &logWriter{logger: p.stderrLogger, prefix: p.prefix + "stderr: "}
		p.cmd.Stderr = stderr
	}

	if err := p.cmd.Start(); err != nil {
		return err
	}

	p.done = make(chan struct{})

	go func() {
		select {
		case <-p.done:
		case <-ctx.Done():
			p.stop()
		}
	}()

	err := p.cmd.Wait()
	close(p.done)
	if stderr != nil {
		stderr.flush()
	}

	// FFmpeg seems to return 255 on normal exit.
	if err != nil && err.Error() == "exit status 255" {
		return nil
	}

	return err
}

// Note, can't use CommandContext to stop process as it would
// kill the process before it has a chance to exit on its own.
func (p *process) stop() {
	p.cmd.Process.Signal(os.Interrupt) //nolint:errcheck

	select {
	case <-p.done:
	case <-time.After(p.timeout):
		p.cmd.Process.Signal(os.Kill) //nolint:errcheck
		<-p.done
	}
}

func (p *process) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

func (p *process) SetPrefix(prefix string) {
	p.prefix = prefix
}

func (p *process) SetStderrLogger(l *log.Logger) {
	p.stderrLogger = l
}

// CommandFunc creates the ffmpeg command from arguments.
type CommandFunc func(...string) *exec.Cmd

// FFMPEG stores ffmpeg binary location.
type FFMPEG struct {
	command CommandFunc
	logger  *log.Logger
}

// New returns FFMPEG.
func New(bin string, logger *log.Logger) *FFMPEG {
	command := func(args ...string) *exec.Cmd {
		return exec.Command(bin, args...)
	}
	return &FFMPEG{command: command, logger: logger}
}

// NewWithCommand returns FFMPEG that uses a custom command, used for mocking.
func NewWithCommand(command CommandFunc, logger *log.Logger) *FFMPEG {
	return &FFMPEG{command: command, logger: logger}
}
