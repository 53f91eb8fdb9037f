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
	"asfkit/pkg/asf"
	"asfkit/pkg/asffile"
	"asfkit/pkg/config"
	"asfkit/pkg/ffmpeg"
	"asfkit/pkg/log"
	"asfkit/pkg/media"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const usage = `inspect, cut and edit asf files
examples:
  asfcmd -i video.wmv -l
  asfcmd -i video.wmv -info
  asfcmd -i video.wmv -t -start 12.5 -w 320 -o still.jpg
  asfcmd -i video.wmv -a -start 10 -end 20 -o clip.wav
  asfcmd -i video.wmv -u -title "Title" -author "Author"
  asfcmd -env env.yaml -logs -level warning -file video.wmv`

// Flag errors.
var (
	ErrNoAction        = errors.New("no action")
	ErrMultipleActions = errors.New("only one action may be given")
	ErrNoInput         = errors.New("no input file, use -i")
	ErrNoOutput        = errors.New("no output file, use -o")
	ErrNoLogDB         = errors.New("logDB is not configured")
	ErrInvalidTime     = errors.New("invalid time")
)

// timeLayout of stored log times.
const timeLayout = "2006-01-02 15:04:05"

type flags struct {
	env   string
	input string

	length bool
	info   bool
	thumb  bool
	audio  bool
	update bool
	logs   bool

	start  float64
	end    float64
	width  int
	output string

	limit  int
	query  log.Query

	author      string
	title       string
	copyright   string
	description string
	rating      string

	// Flags given on the command line.
	set map[string]bool
}

func parseFlags(args []string, output io.Writer) (*flags, *flag.FlagSet, error) {
	var f flags
	fs := flag.NewFlagSet("asfcmd", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), usage)
		fs.PrintDefaults()
	}

	fs.StringVar(&f.env, "env", "", "path to env.yaml")
	fs.StringVar(&f.input, "i", "", "input file")

	fs.BoolVar(&f.length, "l", false, "print duration")
	fs.BoolVar(&f.info, "info", false, "print object fields")
	fs.BoolVar(&f.thumb, "t", false, "extract still image")
	fs.BoolVar(&f.audio, "a", false, "extract audio as wav")
	fs.BoolVar(&f.update, "u", false, "update metadata")
	fs.BoolVar(&f.logs, "logs", false, "print stored logs")

	fs.Float64Var(&f.start, "start", 0, "start offset in seconds")
	fs.Float64Var(&f.end, "end", 0, "end offset in seconds, 0 reads to the end")
	fs.IntVar(&f.width, "w", 0, "image width, 0 keeps the source width")
	fs.StringVar(&f.output, "o", "", "output file")
	fs.IntVar(&f.limit, "limit", 50, "maximum number of logs")
	level := fs.String("level", "", "most verbose log level: error, warning, info or debug")
	sources := fs.String("src", "", "comma separated log sources")
	files := fs.String("file", "", "comma separated files, full path or base name")
	before := fs.String("before", "", "only logs before local time "+timeLayout)

	fs.StringVar(&f.author, "author", "", "author")
	fs.StringVar(&f.title, "title", "", "title")
	fs.StringVar(&f.copyright, "copyright", "", "copyright")
	fs.StringVar(&f.description, "description", "", "description")
	fs.StringVar(&f.rating, "rating", "", "rating")

	// Errors are printed by the caller.
	fs.SetOutput(io.Discard)
	err := fs.Parse(args)
	fs.SetOutput(output)
	if err != nil {
		return nil, fs, err
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})

	f.query = log.Query{
		Sources: splitList(*sources),
		Files:   splitList(*files),
		Limit:   f.limit,
	}
	if *level != "" {
		if f.query.MaxLevel, err = log.ParseLevel(*level); err != nil {
			return nil, fs, err
		}
	}
	if *before != "" {
		t, err := time.ParseInLocation(timeLayout, *before, time.Local)
		if err != nil {
			return nil, fs, fmt.Errorf("%w: %q", ErrInvalidTime, *before)
		}
		f.query.Before = log.UnixMicro(t.UnixMicro())
	}

	actions := 0
	for _, a := range []bool{f.length, f.info, f.thumb, f.audio, f.update, f.logs} {
		if a {
			actions++
		}
	}
	switch {
	case actions == 0:
		return nil, fs, ErrNoAction
	case actions > 1:
		return nil, fs, ErrMultipleActions
	case !f.logs && f.input == "":
		return nil, fs, ErrNoInput
	case (f.thumb || f.audio) && f.output == "":
		return nil, fs, ErrNoOutput
	}
	return &f, fs, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// NewFFmpegFunc is used for mocking.
type NewFFmpegFunc func(bin string, logger *log.Logger) *ffmpeg.FFMPEG

// Run parses args and runs the requested action. Any error
// is printed together with the usage text.
func Run(args []string) error {
	return run(args, os.Stdout, os.Stderr, ffmpeg.New)
}

func run(args []string, stdout io.Writer, stderr io.Writer, newFFmpeg NewFFmpegFunc) error {
	f, fs, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		fs.Usage()
		return nil
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n\n", err)
		fs.Usage()
		return err
	}

	env, err := config.Load(f.env)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n\n", err)
		fs.Usage()
		return fmt.Errorf("could not get environment config: %w", err)
	}

	wg := &sync.WaitGroup{}
	ctx, cancel := context.WithCancel(context.Background())

	app := newApp(ctx, env, wg, stdout, stderr, newFFmpeg)
	err = app.run(ctx, f)

	// Let the log subscribers drain the feed.
	time.Sleep(10 * time.Millisecond)
	cancel()
	wg.Wait()

	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n\n", err)
		fs.Usage()
		return err
	}
	return nil
}

// App holds the state of one command.
type App struct {
	Env    config.Env
	Logger *log.Logger
	logDB  *log.DB
	ff     *ffmpeg.FFMPEG
	stdout io.Writer
}

func newApp(
	ctx context.Context,
	env *config.Env,
	wg *sync.WaitGroup,
	stdout io.Writer,
	stderr io.Writer,
	newFFmpeg NewFFmpegFunc,
) *App {
	logger := log.NewLogger(wg)
	logger.Start(ctx)
	go logger.LogToWriter(ctx, stderr, env.Level())

	app := &App{
		Env:    *env,
		Logger: logger,
		ff:     newFFmpeg(env.FFmpegBin, logger),
		stdout: stdout,
	}

	if env.LogDB != "" {
		logDB := log.NewDB(env.LogDB, wg)
		if err := logDB.Init(ctx); err != nil {
			// Continue even if log database is corrupt.
			time.Sleep(10 * time.Millisecond)
			logger.Error().Src("app").Msgf("could not initialize log database: %v", err)
		} else {
			app.logDB = logDB
			go logDB.SaveLogs(ctx, logger)
		}
	}
	time.Sleep(10 * time.Millisecond)

	return app
}

func (app *App) run(ctx context.Context, f *flags) error {
	switch {
	case f.logs:
		return app.printLogs(f.query)
	case f.length:
		return app.printLength(f.input)
	case f.info:
		return app.printInfo(f.input)
	case f.thumb:
		return app.extractImage(ctx, f)
	case f.audio:
		return app.extractAudio(ctx, f)
	case f.update:
		return app.updateFile(f)
	}
	return ErrNoAction
}

func (app *App) open(path string) (*asffile.File, error) {
	return asffile.Open(path, asffile.WithLogger(app.Logger))
}

// FormatDuration formats d as mm:ss.fff.
func FormatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d.%03d", ms/60000, ms/1000%60, ms%1000)
}

func (app *App) printLength(path string) error {
	f, err := app.open(path)
	if err != nil {
		return err
	}
	fmt.Fprintln(app.stdout, FormatDuration(f.Duration()))
	return nil
}

func (app *App) printInfo(path string) error {
	f, err := app.open(path)
	if err != nil {
		return err
	}
	for _, o := range f.Objects() {
		fmt.Fprint(app.stdout, asf.FormatFields(o))
	}
	return nil
}

func (app *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if app.Env.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, app.Env.Timeout)
}

// createOutput creates the output file and removes it again if write fails.
func createOutput(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(file); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	return file.Close()
}

func (app *App) extractImage(ctx context.Context, f *flags) error {
	ctx, cancel := app.withTimeout(ctx)
	defer cancel()

	img, err := media.ExtractImage(ctx, app.ff, f.input, f.start, f.width, media.WithLogger(app.Logger))
	if err != nil {
		return fmt.Errorf("extract image: %w", err)
	}
	return createOutput(f.output, func(w io.Writer) error {
		return media.EncodeImage(w, img, f.output)
	})
}

func (app *App) extractAudio(ctx context.Context, f *flags) error {
	ctx, cancel := app.withTimeout(ctx)
	defer cancel()

	return createOutput(f.output, func(w io.Writer) error {
		err := media.ExtractAudio(ctx, app.ff, f.input, f.start, f.end, w, media.WithLogger(app.Logger))
		if err != nil {
			return fmt.Errorf("extract audio: %w", err)
		}
		return nil
	})
}

func (app *App) updateFile(f *flags) error {
	u := asffile.From(f.input).WithLogger(app.Logger)
	if f.set["author"] {
		u.WithAuthor(f.author)
	}
	if f.set["title"] {
		u.WithTitle(f.title)
	}
	if f.set["copyright"] {
		u.WithCopyright(f.copyright)
	}
	if f.set["description"] {
		u.WithDescription(f.description)
	}
	if f.set["rating"] {
		u.WithRating(f.rating)
	}
	return u.Update(f.output)
}

func (app *App) printLogs(q log.Query) error {
	if app.logDB == nil {
		return ErrNoLogDB
	}
	logs, err := app.logDB.Query(q)
	if err != nil {
		return fmt.Errorf("query logs: %w", err)
	}
	for _, l := range logs {
		t := time.UnixMicro(int64(l.Time)).Format(timeLayout)
		fmt.Fprintf(app.stdout, "%v %v\n", t, log.FormatLog(l))
	}
	return nil
}
