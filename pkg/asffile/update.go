package asffile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"asfkit/pkg/asf"
	"asfkit/pkg/log"
)

// UpdateOptions metadata edits applied by Update. Unset fields are
// left unchanged.
type UpdateOptions struct {
	path   string
	logger *log.Logger

	title        *string
	author       *string
	copyright    *string
	description  *string
	rating       *string
	creationTime *time.Time
}

// From starts an update of the file at path.
func From(path string) *UpdateOptions {
	return &UpdateOptions{path: path}
}

// WithLogger sets the logger.
func (o *UpdateOptions) WithLogger(logger *log.Logger) *UpdateOptions {
	o.logger = logger
	return o
}

// WithTitle sets the title.
func (o *UpdateOptions) WithTitle(s string) *UpdateOptions {
	o.title = &s
	return o
}

// WithAuthor sets the author.
func (o *UpdateOptions) WithAuthor(s string) *UpdateOptions {
	o.author = &s
	return o
}

// WithCopyright sets the copyright.
func (o *UpdateOptions) WithCopyright(s string) *UpdateOptions {
	o.copyright = &s
	return o
}

// WithDescription sets the description.
func (o *UpdateOptions) WithDescription(s string) *UpdateOptions {
	o.description = &s
	return o
}

// WithRating sets the rating.
func (o *UpdateOptions) WithRating(s string) *UpdateOptions {
	o.rating = &s
	return o
}

// WithFileCreationTime sets the creation time.
func (o *UpdateOptions) WithFileCreationTime(t time.Time) *UpdateOptions {
	o.creationTime = &t
	return o
}

func (o *UpdateOptions) hasText() bool {
	return o.title != nil || o.author != nil || o.copyright != nil ||
		o.description != nil || o.rating != nil
}

// Update applies the edits and writes the file to target. An empty
// target or the source path updates the file in place.
func (o *UpdateOptions) Update(target string) error {
	f, err := Open(o.path, WithLogger(o.logger))
	if err != nil {
		return err
	}

	if o.creationTime != nil {
		fp := f.FileProperties()
		if fp == nil {
			return fmt.Errorf("%w: no file properties object", asf.ErrInvalidArgument)
		}
		fp.CreationTime = *o.creationTime
	}

	if o.hasText() {
		cd := f.ContentDescription()
		if cd == nil {
			return fmt.Errorf("%w: no content description object", asf.ErrInvalidArgument)
		}
		set := func(dst *string, v *string) {
			if v != nil {
				*dst = *v
			}
		}
		set(&cd.Title, o.title)
		set(&cd.Author, o.author)
		set(&cd.Copyright, o.copyright)
		set(&cd.Description, o.description)
		set(&cd.Rating, o.rating)
	}

	return f.Update(target)
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// Update writes the objects and packets to target. The header size and
// file size are recomputed from the object lengths. An empty target or
// the source path writes a temporary file that replaces the source.
func (f *File) Update(target string) error { //nolint:funlen
	inPlace := target == "" || samePath(target, f.path)

	headerLen := 0
	for _, o := range f.objects {
		if o.GUID() == asf.DataObject {
			break
		}
		headerLen += o.Len()
	}
	fileSize := int64(0)
	for _, o := range f.objects {
		fileSize += int64(o.Len())
	}
	dataSize := int64(f.cfg.PacketCount) * int64(f.cfg.PacketSize)
	fileSize += dataSize

	if h := f.Header(); h != nil {
		h.HeaderSize = uint64(headerLen)
	}
	if fp := f.FileProperties(); fp != nil && fp.FileSize != 0 {
		fp.FileSize = uint64(fileSize)
	}

	src, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer src.Close()

	stat, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	var out *os.File
	if inPlace {
		out, err = os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".*")
	} else {
		out, err = os.OpenFile(target, os.O_RDWR|os.O_CREATE|os.O_TRUNC, stat.Mode().Perm())
	}
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	success := false
	defer func() {
		if !success {
			out.Close()
			os.Remove(out.Name())
		}
	}()

	w := bufio.NewWriter(out)
	for _, o := range f.objects {
		if err := o.Marshal(w, f.cfg); err != nil {
			return fmt.Errorf("write %v: %w", o.Name(), err)
		}
		if o.GUID() != asf.DataObject {
			continue
		}
		packets := io.NewSectionReader(src, f.cfg.HeaderSize, dataSize)
		if _, err := io.Copy(w, packets); err != nil {
			return fmt.Errorf("copy packets: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	if inPlace {
		if err := out.Chmod(stat.Mode().Perm()); err != nil {
			return fmt.Errorf("chmod: %w", err)
		}
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if inPlace {
		if err := os.Rename(out.Name(), f.path); err != nil {
			return fmt.Errorf("rename: %w", err)
		}
	}
	success = true

	f.logger.Info().Src("asffile").File(f.path).
		Msgf("updated header, %v bytes", headerLen)
	return nil
}
