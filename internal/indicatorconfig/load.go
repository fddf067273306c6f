package indicatorconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"indicatorEngine/internal/ports"
)

// document is the on-disk layout: an optional base preset plus field
// overrides.
type document struct {
	Preset string `yaml:"preset"`
	Config `yaml:",inline"`
}

// Load reads a YAML configuration file. See Parse.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read indicator config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("indicator config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML configuration. When the document names a preset the
// preset is the starting point and the remaining fields override it;
// otherwise the all-inactive default is. Unknown fields and unknown preset
// names are rejected, and the result is validated.
func Parse(data []byte) (Config, error) {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ports.ErrConfigurationError, err)
	}

	base := Default()
	if head.Preset != "" {
		var ok bool
		if base, ok = LookupPreset(head.Preset); !ok {
			return Config{}, fmt.Errorf("%w: unknown preset %q", ports.ErrConfigurationError, head.Preset)
		}
	}

	doc := document{Config: base}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ports.ErrConfigurationError, err)
	}

	cfg := doc.Config.Clone()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal encodes c as YAML.
func Marshal(c Config) ([]byte, error) {
	return yaml.Marshal(c)
}
