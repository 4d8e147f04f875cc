package config

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/hubctl/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, "uhubctl", cfg.Binary)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "auto", cfg.NoDesc)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile_Formats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "config.yaml",
			content: `binary: sudo uhubctl
timeout: 3s
nodesc: never
log:
  level: debug
  format: json
`,
		},
		{
			name: "toml",
			file: "config.toml",
			content: `binary = "sudo uhubctl"
timeout = "3s"
nodesc = "never"

[log]
level = "debug"
format = "json"
`,
		},
		{
			name: "ini",
			file: "hubctl.ini",
			content: `binary = sudo uhubctl
timeout = 3s
nodesc = never

[log]
level = debug
format = json
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := testutil.WriteTempFile(t, tt.file, tt.content)

			cfg := Default()
			require.NoError(t, cfg.LoadFile(path))

			assert.Equal(t, Config{
				Binary:  "sudo uhubctl",
				Timeout: 3 * time.Second,
				NoDesc:  "never",
				Log:     LogConfig{Level: "debug", Format: "json"},
			}, cfg)
		})
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := testutil.WriteTempFile(t, "config.yml", "timeout: 1m\n")

	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.Equal(t, "uhubctl", cfg.Binary)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadFile_EmptyYAML(t *testing.T) {
	t.Parallel()

	path := testutil.WriteTempFile(t, "config.yaml", "")

	cfg := Default()
	require.NoError(t, cfg.LoadFile(path))
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		file     string
		content  string
		wantCode string
	}{
		{"bad yaml", "config.yaml", "binary: [unterminated\n", ErrCodeConfigParse},
		{"unknown yaml key", "config.yaml", "bianry: uhubctl\n", ErrCodeConfigParse},
		{"unknown toml key", "config.toml", "bianry = \"uhubctl\"\n", ErrCodeConfigParse},
		{"bad timeout", "config.yaml", "timeout: soon\n", ErrCodeConfigParse},
		{"unsupported extension", "config.json", "{}", ErrCodeConfigFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := testutil.WriteTempFile(t, tt.file, tt.content)

			cfg := Default()
			err := cfg.LoadFile(path)
			require.Error(t, err)
			assert.True(t, IsUserError(err, tt.wantCode), "got %v", err)
			assert.Equal(t, path, GetUserError(err).Context)
		})
	}
}

func TestLoad_ExplicitMissing(t *testing.T) {
	_, err := Load(t.TempDir() + "/nope.yaml")
	assert.True(t, IsUserError(err, ErrCodeConfigNotFound))
}

func TestLoad_DefaultPathMissingIsFine(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{EnvBinary, EnvTimeout, EnvNoDesc, EnvLogLevel, EnvLogFormat} {
		t.Setenv(k, "")
	}

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := testutil.WriteTempFile(t, "config.yaml", "binary: /opt/uhubctl\ntimeout: 2s\n")
	t.Setenv(EnvBinary, "")
	t.Setenv(EnvTimeout, "5s")
	t.Setenv(EnvNoDesc, "always")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/uhubctl", cfg.Binary, "empty env var leaves the file value")
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "always", cfg.NoDesc)
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{
		EnvBinary:    " sudo uhubctl ",
		EnvLogLevel:  "warn",
		EnvLogFormat: "json",
	})))
	assert.Equal(t, "sudo uhubctl", cfg.Binary)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	unchanged := Default()
	require.NoError(t, unchanged.ApplyEnv(noEnv))
	assert.Equal(t, Default(), unchanged)

	err := cfg.ApplyEnv(envMap(map[string]string{EnvTimeout: "ten"}))
	assert.True(t, IsUserError(err, ErrCodeConfigParse))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Binary:  " ",
		Timeout: -time.Second,
		NoDesc:  "sometimes",
		Log:     LogConfig{Level: "loud", Format: "xml"},
	}

	err := cfg.Validate()
	require.Error(t, err)

	var list *ErrorList
	require.ErrorAs(t, err, &list)
	assert.Equal(t, 5, list.Len())

	fields := make([]string, 0, list.Len())
	for _, e := range list.Errors() {
		assert.Equal(t, ErrCodeValidationFailed, e.Code)
		fields = append(fields, e.Context)
	}
	assert.Equal(t, []string{"binary", "timeout", "nodesc", "log.level", "log.format"}, fields)
}

func TestValidate_ZeroTimeoutAllowed(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Timeout = 0
	assert.NoError(t, cfg.Validate())
}
