package config

import (
	"bytes"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/hotsnip/internal/errors"
)

const fileHeader = "# hotsnip configuration file\n# Every key can be overridden with HOTSNIP_<SECTION>_<KEY>, e.g. HOTSNIP_TEMPLATES_FOLDER.\n\n"

// fileConfig is the on-disk shape; durations are written as strings so the
// file stays editable.
type fileConfig struct {
	Templates TemplatesConfig `yaml:"templates"`
	Watch     struct {
		Debounce string `yaml:"debounce"`
	} `yaml:"watch"`
	Log LogConfig `yaml:"log"`
}

// Marshal renders cfg as the YAML accepted by Load.
func Marshal(cfg *Config) ([]byte, error) {
	out := fileConfig{Templates: cfg.Templates, Log: cfg.Log}
	out.Watch.Debounce = cfg.Watch.Debounce.String()

	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "failed to encode configuration")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeConfigInvalid, "failed to encode configuration")
	}
	return buf.Bytes(), nil
}

// WriteFile validates cfg and writes it to filename. An existing file is
// only replaced when overwrite is set.
func WriteFile(fs afero.Fs, filename string, cfg *Config, overwrite bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	exists, err := afero.Exists(fs, filename)
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeFileUnreadable, "failed to check configuration file").WithFile(filename)
	}
	if exists && !overwrite {
		return errors.NewConfigError(errors.ErrCodeConfigInvalid, "configuration file already exists").WithFile(filename)
	}

	content, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fs, filename, content, 0o644); err != nil {
		return errors.WrapIO(err, errors.ErrCodeFileUnreadable, "failed to write configuration file").WithFile(filename)
	}
	return nil
}
