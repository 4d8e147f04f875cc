// Package config loads hubctl settings from a file and the environment.
//
// Precedence, lowest first: built-in defaults, the config file, HUBCTL_*
// environment variables, command-line flags. Flags are applied by the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/hubctl/internal/ports"
	"github.com/felixgeelhaar/hubctl/internal/uhubctl"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultTimeout   = 10 * time.Second
	DefaultLogLevel  = "info"
	DefaultLogFormat = LogFormatText
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Environment variables read by ApplyEnv.
const (
	EnvBinary    = "HUBCTL_BINARY"
	EnvTimeout   = "HUBCTL_TIMEOUT"
	EnvNoDesc    = "HUBCTL_NODESC"
	EnvLogLevel  = "HUBCTL_LOG_LEVEL"
	EnvLogFormat = "HUBCTL_LOG_FORMAT"
)

// Config holds hubctl settings.
type Config struct {
	Binary  string
	Timeout time.Duration
	NoDesc  string
	Log     LogConfig
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string
	Format string
}

// fileConfig is the on-disk shape. Empty fields leave the current value.
type fileConfig struct {
	Binary  string `yaml:"binary" toml:"binary"`
	Timeout string `yaml:"timeout" toml:"timeout"`
	NoDesc  string `yaml:"nodesc" toml:"nodesc"`
	Log     struct {
		Level  string `yaml:"level" toml:"level"`
		Format string `yaml:"format" toml:"format"`
	} `yaml:"log" toml:"log"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Binary:  uhubctl.DefaultBinary,
		Timeout: DefaultTimeout,
		NoDesc:  string(uhubctl.NoDescAuto),
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/hubctl/config.yaml, or "" when no
// user config directory is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "hubctl", "config.yaml")
}

// Load returns the defaults overlaid with the file at path and then the
// environment. An empty path means DefaultPath, which may be absent; an
// explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			if explicit || !IsUserError(err, ErrCodeConfigNotFound) {
				return cfg, err
			}
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile overlays the settings in path. The decoder is chosen by
// extension: .yaml/.yml, .toml, or .ini/.conf.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewConfigNotFoundError(path)
		}
		return NewConfigParseError(path, err)
	}

	var raw fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &raw)
	case ".toml":
		err = decodeTOML(data, &raw)
	case ".ini", ".conf":
		err = decodeINI(data, &raw)
	default:
		return NewConfigFormatError(path)
	}
	if err != nil {
		return NewConfigParseError(path, err)
	}

	return c.merge(raw, path)
}

func decodeYAML(data []byte, raw *fileConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(raw); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeTOML(data []byte, raw *fileConfig) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(raw)
}

func decodeINI(data []byte, raw *fileConfig) error {
	f, err := ini.Load(data)
	if err != nil {
		return err
	}
	root := f.Section(ini.DefaultSection)
	raw.Binary = root.Key("binary").String()
	raw.Timeout = root.Key("timeout").String()
	raw.NoDesc = root.Key("nodesc").String()
	if f.HasSection("log") {
		log := f.Section("log")
		raw.Log.Level = log.Key("level").String()
		raw.Log.Format = log.Key("format").String()
	}
	return nil
}

func (c *Config) merge(raw fileConfig, source string) error {
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return &UserError{
				Code:       ErrCodeConfigParse,
				Message:    fmt.Sprintf("invalid timeout %q", raw.Timeout),
				Context:    source,
				Suggestion: "Use a Go duration such as 10s or 1m30s.",
				Underlying: err,
			}
		}
		c.Timeout = d
	}
	setIfNotEmpty(&c.Binary, raw.Binary)
	setIfNotEmpty(&c.NoDesc, raw.NoDesc)
	setIfNotEmpty(&c.Log.Level, raw.Log.Level)
	setIfNotEmpty(&c.Log.Format, raw.Log.Format)
	return nil
}

// ApplyEnv overlays HUBCTL_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var raw fileConfig
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}
	raw.Binary = get(EnvBinary)
	raw.Timeout = get(EnvTimeout)
	raw.NoDesc = get(EnvNoDesc)
	raw.Log.Level = get(EnvLogLevel)
	raw.Log.Format = get(EnvLogFormat)
	return c.merge(raw, "$"+EnvTimeout)
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	errs := NewErrorList()

	if strings.TrimSpace(c.Binary) == "" {
		errs.AddValidation("binary", "must not be empty", "Set it to uhubctl or a full path such as /usr/sbin/uhubctl.")
	}
	if c.Timeout < 0 {
		errs.AddValidation("timeout", "must not be negative", "Use 0 to disable the timeout.")
	}
	if _, err := uhubctl.ParseNoDescMode(c.NoDesc); err != nil {
		errs.AddValidation("nodesc", err.Error(), "Use auto, always or never.")
	}
	if _, err := ports.ParseLevel(c.Log.Level); err != nil {
		errs.AddValidation("log.level", err.Error(), "Use debug, info, warn or error.")
	}
	switch c.Log.Format {
	case LogFormatText, LogFormatJSON:
	default:
		errs.AddValidation("log.format", fmt.Sprintf("unknown format %q", c.Log.Format), "Use text or json.")
	}

	return errs.AsError()
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
