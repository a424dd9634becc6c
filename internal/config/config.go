// Package config loads the itemweaver configuration file.
//
// The file is optional. Values are read only from the file and from explicit
// flags; environment variables are never consulted.
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatText = "text"
)

// DefaultTemplate prints one identity per line, or the scalar output.
const DefaultTemplate = `{{- range .Items }}{{ .Identity }}
{{ end -}}
{{- if .HasCount }}{{ .Count }}
{{ end -}}
{{- if .OutString }}{{ .OutString }}
{{ end -}}
{{- if .CurrentDirectory }}{{ .CurrentDirectory }}
{{ end -}}`

// Config holds all itemweaver configuration.
type Config struct {
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// OutputConfig controls how results are rendered.
type OutputConfig struct {
	Format   string `yaml:"format"`   // yaml, json, text
	Template string `yaml:"template"` // text/template source, used with format text
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level    string `yaml:"level"`    // debug, info, warn, error
	Encoding string `yaml:"encoding"` // json, console
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Output: OutputConfig{
			Format:   FormatYAML,
			Template: DefaultTemplate,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Load reads the configuration at path on top of Default. An empty path
// returns Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Encoding = strings.ToLower(strings.TrimSpace(c.Logging.Encoding))
	if c.Output.Template == "" {
		c.Output.Template = DefaultTemplate
	}
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	switch c.Output.Format {
	case FormatYAML, FormatJSON, FormatText:
	default:
		return errors.Errorf("output.format %q (expected yaml|json|text)", c.Output.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("logging.level %q (expected debug|info|warn|error)", c.Logging.Level)
	}
	switch c.Logging.Encoding {
	case "json", "console":
	default:
		return errors.Errorf("logging.encoding %q (expected json|console)", c.Logging.Encoding)
	}
	return nil
}
