// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable consulted by [Load].
const EnvVar = "BSTREAM_CONFIG"

// Config is the configuration for the bstream command line tools.
type Config struct {
	// Files configures the file stream backends.
	Files FilesConfig `yaml:"files"`

	// RecordLog configures record log files.
	RecordLog RecordLogConfig `yaml:"recordlog"`

	// Output configures logging and terminal output.
	Output OutputConfig `yaml:"output"`
}

// FilesConfig configures the file stream backends.
type FilesConfig struct {
	// ReadChunkSize is the size of one read system call.
	// Default: 16384
	ReadChunkSize int `yaml:"read_chunk_size"`

	// WriteBufferSize is the amount buffered before a write system
	// call.
	// Default: 16384
	WriteBufferSize int `yaml:"write_buffer_size"`

	// Permissions is the octal mode for newly created files.
	// Default: "0644"
	Permissions string `yaml:"permissions"`
}

// RecordLogConfig configures record log files.
type RecordLogConfig struct {
	// Dir is where log files named without a directory are created.
	// Default: ${HOME}/.local/state/bstream
	Dir string `yaml:"dir"`

	// Compression is the frame compression: none, lz4 or zstd.
	// Default: lz4
	Compression string `yaml:"compression"`

	// MinCompressSize is the smallest payload worth compressing.
	// Default: 256
	MinCompressSize int `yaml:"min_compress_size"`
}

// OutputConfig configures logging and terminal output.
type OutputConfig struct {
	// LogLevel is the minimum level logged: debug, info, warn or error.
	// Default: info
	LogLevel string `yaml:"log_level"`

	// Color controls styled output: auto, always or never.
	// Default: auto
	Color string `yaml:"color"`
}

// Default returns the default configuration. Loaded files are merged
// over it, so a file only needs the fields it changes.
func Default() *Config {
	return &Config{
		Files: FilesConfig{
			ReadChunkSize:   16 << 10,
			WriteBufferSize: 16 << 10,
			Permissions:     "0644",
		},
		RecordLog: RecordLogConfig{
			Dir:             filepath.Join("${HOME}", ".local", "state", "bstream"),
			Compression:     "lz4",
			MinCompressSize: 256,
		},
		Output: OutputConfig{
			LogLevel: "info",
			Color:    "auto",
		},
	}
}

// Load loads configuration from the file named by BSTREAM_CONFIG.
// It fails if the variable is not set.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of a bstream.yaml config file, or use --config flag", EnvVar)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path and validates
// it.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads the file named by flagPath, then the file named by
// BSTREAM_CONFIG, and otherwise returns the defaults.
func Resolve(flagPath string) (*Config, error) {
	switch {
	case flagPath != "":
		return LoadFile(flagPath)
	case os.Getenv(EnvVar) != "":
		return Load()
	}
	cfg := Default()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":          os.Getenv("HOME"),
		"BSTREAM_STATE": os.Getenv("BSTREAM_STATE"),
	}
	c.RecordLog.Dir = expandVars(c.RecordLog.Dir, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Files.ReadChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("files.read_chunk_size must be positive, got %d", c.Files.ReadChunkSize))
	}
	if c.Files.WriteBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("files.write_buffer_size must be positive, got %d", c.Files.WriteBufferSize))
	}
	if _, err := c.FileMode(); err != nil {
		errs = append(errs, err)
	}

	compressions := []string{"none", "lz4", "zstd"}
	if !slices.Contains(compressions, c.RecordLog.Compression) {
		errs = append(errs, fmt.Errorf("recordlog.compression must be one of: %v", compressions))
	}
	if c.RecordLog.MinCompressSize < 0 {
		errs = append(errs, fmt.Errorf("recordlog.min_compress_size must not be negative"))
	}

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	colors := []string{"auto", "always", "never"}
	if !slices.Contains(colors, c.Output.Color) {
		errs = append(errs, fmt.Errorf("output.color must be one of: %v", colors))
	}

	return errors.Join(errs...)
}

// FileMode parses Files.Permissions.
func (c *Config) FileMode() (uint32, error) {
	mode, err := strconv.ParseUint(c.Files.Permissions, 8, 32)
	if err != nil || mode > 0o7777 {
		return 0, fmt.Errorf("files.permissions must be an octal mode, got %q", c.Files.Permissions)
	}
	return uint32(mode), nil
}

// LogLevel parses Output.LogLevel.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Output.LogLevel)); err != nil {
		return 0, fmt.Errorf("output.log_level: %w", err)
	}
	return level, nil
}

// LogPath resolves a record log name against RecordLog.Dir. Names
// containing a path separator are used as given.
func (c *Config) LogPath(name string) string {
	if filepath.IsAbs(name) || filepath.Base(name) != name {
		return name
	}
	return filepath.Join(c.RecordLog.Dir, name)
}
