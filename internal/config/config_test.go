package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/hotsnip/internal/errors"
	"github.com/conneroisu/hotsnip/internal/logging"
	"github.com/conneroisu/hotsnip/internal/textutil"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "./AutoTemplates", cfg.Templates.Folder)
	assert.Equal(t, ".snip", cfg.Templates.Extension)
	assert.Equal(t, 150*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoadFromYAML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
templates:
  folder: /home/me/snippets
  extension: .txt
  open_marker: "{"
  close_marker: "}"
  comparison: culture-ignore-case
  language: tr
watch:
  debounce: 1s
log:
  level: debug
  format: json
`)))

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "/home/me/snippets", cfg.Templates.Folder)
	assert.Equal(t, ".txt", cfg.Templates.Extension)
	assert.Equal(t, "{", cfg.Templates.OpenMarker)
	assert.Equal(t, "}", cfg.Templates.CloseMarker)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, "debug", cfg.Log.Level)

	cmp, err := cfg.Templates.TextComparison()
	require.NoError(t, err)
	assert.True(t, cmp.IgnoreCase)
	assert.True(t, cmp.Linguistic)
	assert.Equal(t, "tr", cmp.Language.String())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HOTSNIP_TEMPLATES_FOLDER", "/env/templates")
	t.Setenv("HOTSNIP_WATCH_DEBOUNCE", "0s")
	t.Setenv("HOTSNIP_LOG_LEVEL", "warn")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "/env/templates", cfg.Templates.Folder)
	assert.Equal(t, time.Duration(0), cfg.Watch.Debounce)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadUsesGlobalViper(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.Set(KeyTemplatesFolder, "./elsewhere")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "./elsewhere", cfg.Templates.Folder)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
		field string
	}{
		{name: "empty open marker", key: KeyTemplatesOpenMarker, value: "", field: KeyTemplatesOpenMarker},
		{name: "empty close marker", key: KeyTemplatesClose, value: "", field: KeyTemplatesClose},
		{name: "extension without dot", key: KeyTemplatesExtension, value: "snip", field: KeyTemplatesExtension},
		{name: "unknown comparison", key: KeyTemplatesComparison, value: "fuzzy", field: KeyTemplatesComparison},
		{name: "bad language", key: KeyTemplatesLanguage, value: "not a tag!", field: KeyTemplatesLanguage},
		{name: "negative debounce", key: KeyWatchDebounce, value: "-1s", field: KeyWatchDebounce},
		{name: "bad log level", key: KeyLogLevel, value: "chatty", field: KeyLogLevel},
		{name: "bad log format", key: KeyLogFormat, value: "xml", field: KeyLogFormat},
		{name: "empty folder", key: KeyTemplatesFolder, value: "  ", field: KeyTemplatesFolder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			_, err := LoadFrom(v)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeConfigInvalid, errors.Code(err))

			var he *errors.HotsnipError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tt.field, he.Context["field"])
		})
	}
}

func TestLoadRejectsUndecodableDebounce(t *testing.T) {
	v := viper.New()
	v.Set(KeyWatchDebounce, "soon")

	_, err := LoadFrom(v)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.Code(err))
}

func TestValidateConfigWithDetails(t *testing.T) {
	cfg := Default()
	cfg.Templates.OpenMarker = "|"
	cfg.Templates.CloseMarker = "|"
	cfg.Watch.Debounce = time.Minute

	result := ValidateConfigWithDetails(cfg)
	assert.True(t, result.Valid)
	assert.False(t, result.HasErrors())
	assert.True(t, result.HasWarnings())
	assert.Len(t, result.Warnings, 2)

	cfg.Templates.Extension = "snip"
	cfg.Log.Format = "xml"
	result = ValidateConfigWithDetails(cfg)
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 2)

	out := result.String()
	assert.Contains(t, out, "Validation errors")
	assert.Contains(t, out, KeyTemplatesExtension)
	assert.Contains(t, out, "hint: Use '.snip'")
	assert.Contains(t, out, "Validation warnings")
}

func TestParserOptions(t *testing.T) {
	cfg := Default()

	opts, err := cfg.Templates.ParserOptions()
	require.NoError(t, err)
	assert.Equal(t, "[", opts.OpenMarker)
	assert.Equal(t, "]", opts.CloseMarker)
	assert.Equal(t, textutil.OrdinalIgnoreCase, opts.Comparison)

	cfg.Templates.Comparison = "fuzzy"
	_, err = cfg.Templates.ParserOptions()
	assert.Error(t, err)
}

func TestLoggerConfig(t *testing.T) {
	cfg := LogConfig{Level: "debug", Format: "JSON"}

	lc, err := cfg.LoggerConfig()
	require.NoError(t, err)
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, "json", lc.Format)

	_, err = (&LogConfig{Level: "loud"}).LoggerConfig()
	assert.Error(t, err)
}

func TestWriteFileRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := Default()
	cfg.Templates.Folder = "/snips"
	cfg.Watch.Debounce = 2 * time.Second

	require.NoError(t, WriteFile(fs, "/project/.hotsnip.yml", cfg, false))

	data, err := afero.ReadFile(fs, "/project/.hotsnip.yml")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# hotsnip configuration file"))
	assert.Contains(t, string(data), "debounce: 2s")

	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(string(data))))
	loaded, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestWriteFileRefusesToOverwrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/.hotsnip.yml", []byte("old"), 0o644))

	err := WriteFile(fs, "/.hotsnip.yml", Default(), false)
	require.Error(t, err)

	require.NoError(t, WriteFile(fs, "/.hotsnip.yml", Default(), true))
	data, err := afero.ReadFile(fs, "/.hotsnip.yml")
	require.NoError(t, err)
	assert.NotEqual(t, "old", string(data))
}

func TestWriteFileValidates(t *testing.T) {
	cfg := Default()
	cfg.Templates.OpenMarker = ""

	err := WriteFile(afero.NewMemMapFs(), "/.hotsnip.yml", cfg, false)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.Code(err))
}
