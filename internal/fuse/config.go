package fuse

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Config holds the per-field source precedence used by the fuser.
// Order is highest-precedence first. Fields absent from the map fall back
// to the compiled-in defaults.
type Config struct {
	Fields map[string][]model.Source `yaml:"fields"`
}

// DefaultConfig returns the built-in precedence rules:
//   - person and company identity prefers the professional network, then
//     website about/team content, then the bio;
//   - phone and address prefer the secondary-social page, then websites;
//   - email and website have dedicated rules in the fuser and take no
//     source list here.
func DefaultConfig() *Config {
	identity := []model.Source{model.SourceProfessional, model.SourceWebsite, model.SourceBio}
	contact := []model.Source{model.SourceSecondary, model.SourceWebsite}
	return &Config{
		Fields: map[string][]model.Source{
			"first_name": identity,
			"last_name":  identity,
			"role":       identity,
			"company":    identity,
			"phone":      contact,
			"address":    contact,
		},
	}
}

// LoadConfig reads a fusion config from a YAML file, filling unspecified
// fields from the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fuse: read config %s", path)
	}

	var wrapper struct {
		Fusion Config `yaml:"fusion"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "fuse: parse config")
	}

	cfg := DefaultConfig()
	for field, sources := range wrapper.Fusion.Fields {
		if len(sources) > 0 {
			cfg.Fields[field] = sources
		}
	}
	return cfg, nil
}

// order returns the precedence list for a field.
func (c *Config) order(field string) []model.Source {
	if srcs, ok := c.Fields[field]; ok {
		return srcs
	}
	return nil
}
