package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/iancoleman/strcase"
	"github.com/mcncl/gotoon/internal/decoder"
	"github.com/mcncl/gotoon/internal/encoder"
	"github.com/mcncl/gotoon/internal/errors"
	"github.com/mcncl/gotoon/internal/models"
	"github.com/mcncl/gotoon/internal/syntax"
	"gopkg.in/yaml.v3"
)

// Key case names accepted by naming.key_case.
const (
	KeyCasePreserve   = "preserve"
	KeyCaseSnake      = "snake"
	KeyCaseCamel      = "camel"
	KeyCaseLowerCamel = "lower_camel"
	KeyCaseKebab      = "kebab"
)

// Config represents the complete configuration for gotoon
type Config struct {
	Encode EncodeConfig `yaml:"encode"`
	Decode DecodeConfig `yaml:"decode"`
	Naming NamingConfig `yaml:"naming"`
	Output OutputConfig `yaml:"output"`
	Dev    DevConfig    `yaml:"dev"`
}

// EncodeConfig controls JSON to TOON conversion
type EncodeConfig struct {
	Indent       int    `yaml:"indent"`
	Delimiter    string `yaml:"delimiter"`
	LengthMarker bool   `yaml:"length_marker"`
	MaxDepth     int    `yaml:"max_depth"`
}

// DecodeConfig controls TOON to JSON conversion
type DecodeConfig struct {
	Indent   int  `yaml:"indent"`
	Strict   bool `yaml:"strict"`
	MaxDepth int  `yaml:"max_depth"`
}

// NamingConfig rewrites object keys of JSON input before encoding
type NamingConfig struct {
	KeyCase     string            `yaml:"key_case"`
	KeyMappings map[string]string `yaml:"key_mappings"`
	// SkipKeys are regular expressions; matching keys are dropped.
	SkipKeys []string `yaml:"skip_keys"`

	// compiled SkipKeys (not serialized)
	skip []*regexp.Regexp
}

// OutputConfig controls output generation options
type OutputConfig struct {
	// JSONIndent is the indent width of decoded JSON; 0 writes compact JSON.
	JSONIndent int `yaml:"json_indent"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug   bool `yaml:"debug"`
	Verbose bool `yaml:"verbose"`
}

// LogLevel returns the lowest level the stderr logger records: debug,
// then info when verbose, else warnings only.
func (d DevConfig) LogLevel() slog.Level {
	switch {
	case d.Debug:
		return slog.LevelDebug
	case d.Verbose:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Encode: EncodeConfig{
			Indent:       encoder.DefaultIndent,
			Delimiter:    syntax.DefaultDelimiter.Name(),
			LengthMarker: false,
			MaxDepth:     encoder.DefaultMaxDepth,
		},
		Decode: DecodeConfig{
			Indent:   decoder.DefaultIndent,
			Strict:   true,
			MaxDepth: decoder.DefaultMaxDepth,
		},
		Naming: NamingConfig{
			KeyCase:     KeyCasePreserve,
			KeyMappings: make(map[string]string),
			SkipKeys:    []string{},
		},
		Output: OutputConfig{
			JSONIndent: 2,
		},
		Dev: DevConfig{
			Debug:   false,
			Verbose: false,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("failed to read config file", err)
	}

	// Start with defaults
	cfg := NewConfig()

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError("failed to parse config file", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".gotoon.yml", ".gotoon.yaml", "gotoon.yml", "gotoon.yaml"}

	// Start from current directory
	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Search up the directory tree
	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		// Move up one directory
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Validate checks option values and compiles key patterns.
func (c *Config) Validate() error {
	if _, err := syntax.ParseDelimiter(c.Encode.Delimiter); err != nil {
		return errors.NewConfigError("invalid encode.delimiter", err)
	}
	if c.Encode.Indent <= 0 {
		return errors.NewConfigError("invalid encode.indent", errors.Wrapf(errors.ErrInvalidOption, "must be positive, got %d", c.Encode.Indent))
	}
	if c.Decode.Indent <= 0 {
		return errors.NewConfigError("invalid decode.indent", errors.Wrapf(errors.ErrInvalidOption, "must be positive, got %d", c.Decode.Indent))
	}
	if c.Output.JSONIndent < 0 {
		return errors.NewConfigError("invalid output.json_indent", errors.Wrapf(errors.ErrInvalidOption, "must not be negative, got %d", c.Output.JSONIndent))
	}
	switch c.Naming.KeyCase {
	case "", KeyCasePreserve, KeyCaseSnake, KeyCaseCamel, KeyCaseLowerCamel, KeyCaseKebab:
	default:
		return errors.NewConfigError("invalid naming.key_case", errors.Wrapf(errors.ErrInvalidOption, "unknown key case %q", c.Naming.KeyCase))
	}
	return c.compilePatterns()
}

// compilePatterns compiles all regex patterns in the config
func (c *Config) compilePatterns() error {
	c.Naming.skip = c.Naming.skip[:0]
	for _, pattern := range c.Naming.SkipKeys {
		regex, err := regexp.Compile(pattern)
		if err != nil {
			return errors.NewConfigError(fmt.Sprintf("invalid skip key pattern '%s'", pattern), err)
		}
		c.Naming.skip = append(c.Naming.skip, regex)
	}
	return nil
}

// ShouldSkipKey reports whether an input key matches a skip pattern.
func (c *Config) ShouldSkipKey(key string) bool {
	for _, regex := range c.Naming.skip {
		if regex.MatchString(key) {
			return true
		}
	}
	return false
}

// RenameKey returns the output key for an input key, applying naming rules
func (c *Config) RenameKey(key string) string {
	// Check custom mappings first
	if mapped, exists := c.Naming.KeyMappings[key]; exists {
		return mapped
	}

	switch c.Naming.KeyCase {
	case KeyCaseSnake:
		return strcase.ToSnake(key)
	case KeyCaseCamel:
		return strcase.ToCamel(key)
	case KeyCaseLowerCamel:
		return strcase.ToLowerCamel(key)
	case KeyCaseKebab:
		return strcase.ToKebab(key)
	default:
		return key
	}
}

// ApplyNaming drops skipped keys and renames the rest throughout v. It fails
// when two keys of one object end up with the same name.
func (c *Config) ApplyNaming(v models.Value) (models.Value, error) {
	if len(c.Naming.skip) > 0 {
		v = c.dropSkipped(v)
	}
	if len(c.Naming.KeyMappings) == 0 && (c.Naming.KeyCase == "" || c.Naming.KeyCase == KeyCasePreserve) {
		return v, nil
	}
	renamed, err := models.MapKeys(v, c.RenameKey)
	if err != nil {
		return models.Value{}, errors.NewConfigError("key naming rules produce a duplicate key", err)
	}
	return renamed, nil
}

func (c *Config) dropSkipped(v models.Value) models.Value {
	switch v.Kind() {
	case models.KindArray:
		items := make([]models.Value, len(v.Items()))
		for i, item := range v.Items() {
			items[i] = c.dropSkipped(item)
		}
		return models.NewArray(items...)
	case models.KindObject:
		fields := make([]models.Field, 0, v.Len())
		for _, f := range v.Fields() {
			if c.ShouldSkipKey(f.Key) {
				continue
			}
			fields = append(fields, models.F(f.Key, c.dropSkipped(f.Value)))
		}
		return models.NewObject(fields...)
	default:
		return v
	}
}

// EncodeOptions converts the encode section to encoder options.
func (c *Config) EncodeOptions() (encoder.Options, error) {
	delim, err := syntax.ParseDelimiter(c.Encode.Delimiter)
	if err != nil {
		return encoder.Options{}, errors.NewConfigError("invalid delimiter", err)
	}
	return encoder.Options{
		Indent:       c.Encode.Indent,
		Delimiter:    delim,
		LengthMarker: c.Encode.LengthMarker,
		MaxDepth:     c.Encode.MaxDepth,
	}, nil
}

// DecodeOptions converts the decode section to decoder options.
func (c *Config) DecodeOptions() decoder.Options {
	return decoder.Options{
		Indent:   c.Decode.Indent,
		Strict:   c.Decode.Strict,
		MaxDepth: c.Decode.MaxDepth,
	}
}

// Overrides holds command-line values. Zero values mean the flag was not
// given; boolean flags can only switch a feature on.
type Overrides struct {
	Indent       int
	Delimiter    string
	LengthMarker bool
	Lenient      bool
	KeyCase      string
	Debug        bool
	Verbose      bool
}

// LoadConfigWithCLI loads config with CLI argument precedence
func LoadConfigWithCLI(configPath string, o Overrides) (*Config, error) {
	// Start with defaults
	cfg := NewConfig()

	// Load config file if provided
	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	if o.Indent != 0 {
		cfg.Encode.Indent = o.Indent
		cfg.Decode.Indent = o.Indent
	}
	if o.Delimiter != "" {
		cfg.Encode.Delimiter = o.Delimiter
	}
	if o.LengthMarker {
		cfg.Encode.LengthMarker = true
	}
	if o.Lenient {
		cfg.Decode.Strict = false
	}
	if o.KeyCase != "" {
		cfg.Naming.KeyCase = o.KeyCase
	}
	if o.Debug {
		cfg.Dev.Debug = true
	}
	if o.Verbose {
		cfg.Dev.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
