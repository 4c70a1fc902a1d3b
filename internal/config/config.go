// Package config loads the process configuration from YAML: server
// settings, localization, telemetry, and the collection schemas served
// by the read API.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	field "github.com/quillcms/quill/internal/field"
	locale "github.com/quillcms/quill/internal/locale"
)

// Config is the full process configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Localization LocalizationConfig `yaml:"localization"`
	Otel         OtelConfig         `yaml:"otel"`
	Log          LogConfig          `yaml:"log"`

	// Collections describes the document types served by this process.
	// Hooks and access rules cannot be expressed in YAML; programs that
	// need them register collections in code instead.
	Collections []CollectionConfig `yaml:"collections"`
}

// ServerConfig holds the HTTP read API settings.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	Pretty       bool     `yaml:"pretty"`
	Timeout      Duration `yaml:"timeout"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
	CORSOrigins  []string `yaml:"cors_origins"`
}

// Duration decodes YAML scalars like "10s" via time.ParseDuration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// LocalizationConfig mirrors locale.Config in YAML form.
type LocalizationConfig struct {
	Locales  []string `yaml:"locales"`
	Default  string   `yaml:"default"`
	Fallback string   `yaml:"fallback"`
}

// OtelConfig configures trace export. An empty endpoint disables it.
type OtelConfig struct {
	Endpoint string `yaml:"endpoint"`
	Service  string `yaml:"service"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// CollectionConfig is one collection's YAML description.
type CollectionConfig struct {
	Slug   string        `yaml:"slug"`
	Fields []FieldConfig `yaml:"fields"`
}

// FieldConfig is one field's YAML description. Container entries nest
// further FieldConfig lists; blocks and tabs carry their own shapes.
type FieldConfig struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Localized bool   `yaml:"localized"`
	Hidden    bool   `yaml:"hidden"`

	Default any `yaml:"default"`

	Fields []FieldConfig `yaml:"fields"`
	Blocks []BlockConfig `yaml:"blocks"`
	Tabs   []TabConfig   `yaml:"tabs"`

	RelationTo StringList `yaml:"relation_to"`
	HasMany    bool       `yaml:"has_many"`
}

// BlockConfig is one named sub-schema of a blocks field.
type BlockConfig struct {
	Slug   string        `yaml:"slug"`
	Fields []FieldConfig `yaml:"fields"`
}

// TabConfig is one tab of a tabs field.
type TabConfig struct {
	Name   string        `yaml:"name"`
	Fields []FieldConfig `yaml:"fields"`
}

// StringList accepts either a single YAML scalar or a sequence.
type StringList []string

func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var one string
		if err := value.Decode(&one); err != nil {
			return err
		}
		*s = []string{one}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*s = many
		return nil
	}
	return fmt.Errorf("relation_to must be a string or a list of strings")
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates YAML config bytes.
func Parse(raw []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = Duration(10 * time.Second)
	}
	if c.Otel.Service == "" {
		c.Otel.Service = "quill"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	loc := c.Localization
	if len(loc.Locales) > 0 {
		if loc.Default == "" {
			return fmt.Errorf("localization: default locale required when locales are configured")
		}
		if !contains(loc.Locales, loc.Default) {
			return fmt.Errorf("localization: default locale %q is not in locales", loc.Default)
		}
		if loc.Fallback != "" && !contains(loc.Locales, loc.Fallback) {
			return fmt.Errorf("localization: fallback locale %q is not in locales", loc.Fallback)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Locale returns the locale.Config described by the file, or nil when
// localization is not configured.
func (c *Config) Locale() *locale.Config {
	if len(c.Localization.Locales) == 0 {
		return nil
	}
	return &locale.Config{
		Locales:  c.Localization.Locales,
		Default:  c.Localization.Default,
		Fallback: c.Localization.Fallback,
	}
}

// BuildFields converts the YAML field descriptions into the runtime
// schema. The result still goes through field.Validate when the
// collection registry is built.
func BuildFields(configs []FieldConfig) []*field.Field {
	out := make([]*field.Field, 0, len(configs))
	for _, fc := range configs {
		f := &field.Field{
			Name:         fc.Name,
			Type:         field.Type(fc.Type),
			Localized:    fc.Localized,
			Hidden:       fc.Hidden,
			DefaultValue: fc.Default,
			RelationTo:   fc.RelationTo,
			HasMany:      fc.HasMany,
		}
		if len(fc.Fields) > 0 {
			f.Fields = BuildFields(fc.Fields)
		}
		for _, bc := range fc.Blocks {
			f.Blocks = append(f.Blocks, &field.Block{Slug: bc.Slug, Fields: BuildFields(bc.Fields)})
		}
		for _, tc := range fc.Tabs {
			f.Tabs = append(f.Tabs, &field.Tab{Name: tc.Name, Fields: BuildFields(tc.Fields)})
		}
		out = append(out, f)
	}
	return out
}
