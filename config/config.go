// Package config loads gecscore settings from a YAML file, a .env file and
// the process environment, in that order of increasing precedence.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Format selects how evaluation reports are written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// IsValid reports whether f is a recognised report format.
func (f Format) IsValid() bool {
	return f == FormatText || f == FormatJSON
}

// Config is the top-level configuration.
type Config struct {
	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`

	// Workers bounds concurrent row evaluation. Zero uses GOMAXPROCS.
	Workers int `yaml:"workers"`

	Data   DataConfig   `yaml:"data"`
	Server ServerConfig `yaml:"server"`
	Output OutputConfig `yaml:"output"`
}

// DataConfig names the dataset columns and limits how many rows are read.
type DataConfig struct {
	IDColumn       string `yaml:"id_column"`
	OriginalColumn string `yaml:"original_column"`
	TargetColumn   string `yaml:"target_column"`

	// Limit evaluates only the first Limit rows. Zero means all rows.
	Limit int `yaml:"limit"`
}

// ServerConfig configures the HTTP scoring service.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// OutputConfig configures report output of the eval command.
type OutputConfig struct {
	Format Format `yaml:"format"`

	// Path is the report file. Empty writes to stdout.
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: LogInfo,
		Data: DataConfig{
			IDColumn:       "id",
			OriginalColumn: "err_sentence",
			TargetColumn:   "cor_sentence",
		},
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
		Output: OutputConfig{
			Format: FormatText,
		},
	}
}
