// Package config loads the environment configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"asfkit/pkg/log"

	"gopkg.in/yaml.v3"
)

// Env stores environment configuration.
type Env struct {
	FFmpegBin string `yaml:"ffmpegBin"`

	// LogDB path of the log database, empty disables it.
	LogDB    string        `yaml:"logDB"`
	LogLevel string        `yaml:"logLevel"`
	Timeout  time.Duration `yaml:"timeout"`

	level log.Level
}

// Defaults.
const (
	DefaultFFmpegBin = "/usr/bin/ffmpeg"
	DefaultTimeout   = 30 * time.Second
)

// ErrPathNotAbsolute path is not absolute.
var ErrPathNotAbsolute = errors.New("path is not absolute")

// NewEnv returns environment configuration parsed from envYAML.
func NewEnv(envYAML []byte) (*Env, error) {
	var env Env
	if err := yaml.Unmarshal(envYAML, &env); err != nil {
		return nil, fmt.Errorf("unmarshal env.yaml: %w", err)
	}

	if env.FFmpegBin == "" {
		env.FFmpegBin = DefaultFFmpegBin
	}
	if env.Timeout == 0 {
		env.Timeout = DefaultTimeout
	}

	level, err := log.ParseLevel(env.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logLevel: %w", err)
	}
	env.level = level
	env.LogLevel = level.String()

	if !filepath.IsAbs(env.FFmpegBin) {
		return nil, fmt.Errorf("ffmpegBin '%v': %w", env.FFmpegBin, ErrPathNotAbsolute)
	}
	if env.LogDB != "" && !filepath.IsAbs(env.LogDB) {
		return nil, fmt.Errorf("logDB '%v': %w", env.LogDB, ErrPathNotAbsolute)
	}
	if env.Timeout < 0 {
		return nil, fmt.Errorf("timeout '%v': %w", env.Timeout, ErrInvalidTimeout)
	}
	return &env, nil
}

// ErrInvalidTimeout negative timeout.
var ErrInvalidTimeout = errors.New("invalid timeout")

// Load reads the env file at path, an empty path returns the defaults.
func Load(path string) (*Env, error) {
	if path == "" {
		return NewEnv(nil)
	}
	envYAML, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read env.yaml: %w", err)
	}
	return NewEnv(envYAML)
}

// Level parsed log level.
func (env Env) Level() log.Level {
	return env.level
}
