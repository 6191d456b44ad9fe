package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding file settings.
const (
	EnvLogLevel   = "GECSCORE_LOG_LEVEL"
	EnvWorkers    = "GECSCORE_WORKERS"
	EnvLimit      = "GECSCORE_LIMIT"
	EnvListenAddr = "GECSCORE_LISTEN_ADDR"
	EnvFormat     = "GECSCORE_FORMAT"
)

// Load builds a [Config] from the YAML file at path, overlays the process
// environment and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("config: open %q: %w", path, err)
		}
		defer f.Close()

		if cfg, err = decode(f); err != nil {
			return nil, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}

	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates it. The environment is not consulted.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg, err := decode(r)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	return cfg, nil
}

// LoadEnv loads KEY=VALUE pairs from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped when optional is true.
func LoadEnv(optional bool, files ...string) error {
	for _, file := range files {
		err := godotenv.Load(file)
		if err == nil {
			continue
		}
		if optional && errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return fmt.Errorf("config: load env file %q: %w", file, err)
	}
	return nil
}

// ApplyEnv overrides cfg fields from variables found by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error

	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = LogLevel(v)
	}
	if v, ok := lookup(EnvFormat); ok && v != "" {
		cfg.Output.Format = Format(v)
	}
	if v, ok := lookup(EnvListenAddr); ok && v != "" {
		cfg.Server.ListenAddr = v
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvWorkers, err))
		} else {
			cfg.Workers = n
		}
	}
	if v, ok := lookup(EnvLimit); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvLimit, err))
		} else {
			cfg.Data.Limit = n
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: environment: %w", errors.Join(errs...))
	}
	return nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d must not be negative", cfg.Workers))
	}
	if cfg.Data.Limit < 0 {
		errs = append(errs, fmt.Errorf("data.limit %d must not be negative", cfg.Data.Limit))
	}
	if cfg.Data.OriginalColumn == "" {
		errs = append(errs, errors.New("data.original_column is required"))
	}
	if cfg.Data.TargetColumn == "" {
		errs = append(errs, errors.New("data.target_column is required"))
	}
	if cfg.Data.OriginalColumn != "" && cfg.Data.OriginalColumn == cfg.Data.TargetColumn {
		errs = append(errs, fmt.Errorf("data.original_column and data.target_column are both %q", cfg.Data.TargetColumn))
	}
	if !cfg.Output.Format.IsValid() {
		errs = append(errs, fmt.Errorf("output.format %q is invalid; valid values: text, json", cfg.Output.Format))
	}
	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}

	return errors.Join(errs...)
}
