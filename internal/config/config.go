// Package config loads hotsnip settings with Viper from a YAML file,
// HOTSNIP_ environment variables and command-line flags.
//
// Every key has a default, so running without a config file watches
// ./AutoTemplates for .snip files.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/conneroisu/hotsnip/internal/errors"
	"github.com/conneroisu/hotsnip/internal/logging"
	"github.com/conneroisu/hotsnip/internal/snippet"
	"github.com/conneroisu/hotsnip/internal/textutil"
)

// EnvPrefix is the prefix of environment overrides, e.g. HOTSNIP_TEMPLATES_FOLDER.
const EnvPrefix = "HOTSNIP"

// DefaultFileName is the config file looked up in the working and home directories.
const DefaultFileName = ".hotsnip.yml"

// Viper keys.
const (
	KeyTemplatesFolder     = "templates.folder"
	KeyTemplatesExtension  = "templates.extension"
	KeyTemplatesOpenMarker = "templates.open_marker"
	KeyTemplatesClose      = "templates.close_marker"
	KeyTemplatesComparison = "templates.comparison"
	KeyTemplatesLanguage   = "templates.language"
	KeyWatchDebounce       = "watch.debounce"
	KeyLogLevel            = "log.level"
	KeyLogFormat           = "log.format"
)

type Config struct {
	Templates TemplatesConfig `mapstructure:"templates" yaml:"templates"`
	Watch     WatchConfig     `mapstructure:"watch" yaml:"watch"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type TemplatesConfig struct {
	Folder      string `mapstructure:"folder" yaml:"folder"`
	Extension   string `mapstructure:"extension" yaml:"extension"`
	OpenMarker  string `mapstructure:"open_marker" yaml:"open_marker"`
	CloseMarker string `mapstructure:"close_marker" yaml:"close_marker"`
	Comparison  string `mapstructure:"comparison" yaml:"comparison"`
	Language    string `mapstructure:"language" yaml:"language"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Templates: TemplatesConfig{
			Folder:      "./AutoTemplates",
			Extension:   snippet.DefaultExtension,
			OpenMarker:  "[",
			CloseMarker: "]",
			Comparison:  "ordinal-ignore-case",
			Language:    "und",
		},
		Watch: WatchConfig{Debounce: 150 * time.Millisecond},
		Log:   LogConfig{Level: "info", Format: "text"},
	}
}

// SetDefaults registers the defaults and environment binding on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyTemplatesFolder, d.Templates.Folder)
	v.SetDefault(KeyTemplatesExtension, d.Templates.Extension)
	v.SetDefault(KeyTemplatesOpenMarker, d.Templates.OpenMarker)
	v.SetDefault(KeyTemplatesClose, d.Templates.CloseMarker)
	v.SetDefault(KeyTemplatesComparison, d.Templates.Comparison)
	v.SetDefault(KeyTemplatesLanguage, d.Templates.Language)
	v.SetDefault(KeyWatchDebounce, d.Watch.Debounce)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogFormat, d.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "failed to decode configuration")
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// LanguageTag parses the configured BCP 47 language.
func (c *TemplatesConfig) LanguageTag() (language.Tag, error) {
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.Und, errors.WrapConfig(err, errors.ErrCodeConfigInvalid,
			"invalid templates.language "+c.Language)
	}
	return tag, nil
}

// TextComparison resolves the configured comparison mode.
func (c *TemplatesConfig) TextComparison() (textutil.Comparison, error) {
	tag, err := c.LanguageTag()
	if err != nil {
		return textutil.Comparison{}, err
	}
	cmp, err := textutil.ParseComparison(c.Comparison, tag)
	if err != nil {
		return textutil.Comparison{}, errors.WrapConfig(err, errors.ErrCodeConfigInvalid,
			"invalid templates.comparison "+c.Comparison)
	}
	return cmp, nil
}

// ParserOptions returns the snippet parser settings.
func (c *TemplatesConfig) ParserOptions() (snippet.Options, error) {
	cmp, err := c.TextComparison()
	if err != nil {
		return snippet.Options{}, err
	}
	return snippet.Options{
		OpenMarker:  c.OpenMarker,
		CloseMarker: c.CloseMarker,
		Comparison:  cmp,
	}, nil
}

// LoggerConfig returns the logger settings.
func (c *LogConfig) LoggerConfig() (*logging.LoggerConfig, error) {
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "invalid log.level "+c.Level)
	}
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Format = strings.ToLower(c.Format)
	return cfg, nil
}
