// Package config loads the modelschema.yml project configuration.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	invjsonschema "github.com/invopop/jsonschema"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/modelschema/internal/compiler/annotation"
	"github.com/conduit-lang/modelschema/internal/compiler/jsonschema"
	"github.com/conduit-lang/modelschema/internal/compiler/rules"
)

// FileName is the default configuration file name
const FileName = "modelschema.yml"

// Config represents the modelschema configuration
type Config struct {
	Target        jsonschema.Params           `mapstructure:"target" yaml:"target" json:"target"`
	Schemas       []string                    `mapstructure:"schemas" yaml:"schemas,omitempty" json:"schemas,omitempty"`
	EncodingRules []rules.EncodingRule        `mapstructure:"encodingRules" yaml:"encodingRules,omitempty" json:"encodingRules,omitempty"`
	MapEntries    []rules.MapEntry            `mapstructure:"mapEntries" yaml:"mapEntries,omitempty" json:"mapEntries,omitempty"`
	MapEntryFiles []string                    `mapstructure:"mapEntryFiles" yaml:"mapEntryFiles,omitempty" json:"mapEntryFiles,omitempty"`
	BaseSchemas   []jsonschema.BaseSchema     `mapstructure:"baseSchemas" yaml:"baseSchemas,omitempty" json:"baseSchemas,omitempty"`
	Annotations   []annotation.Rule           `mapstructure:"annotations" yaml:"annotations,omitempty" json:"annotations,omitempty"`
	Collections   []jsonschema.CollectionSpec `mapstructure:"collections" yaml:"collections,omitempty" json:"collections,omitempty"`
	Input         InputConfig                 `mapstructure:"input" yaml:"input" json:"input"`
	Output        OutputConfig                `mapstructure:"output" yaml:"output" json:"output"`

	// File is the configuration file that was read, empty when defaults are used
	File string `mapstructure:"-" yaml:"-" json:"-"`
}

// InputConfig names the model to compile
type InputConfig struct {
	Model string `mapstructure:"model" yaml:"model" json:"model"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`
	// Check compiles every written document with a JSON Schema validator
	Check bool `mapstructure:"check" yaml:"check" json:"check"`
	// MapEntries is the file name of the cross-reference table; empty disables it
	MapEntries string `mapstructure:"mapEntries" yaml:"mapEntries,omitempty" json:"mapEntries,omitempty"`
}

// Default returns the configuration used without a configuration file
func Default() *Config {
	return &Config{
		Target: jsonschema.DefaultParams(),
		Input:  InputConfig{Model: "model.yml"},
		Output: OutputConfig{Dir: "schemas", Check: true},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	p := d.Target
	v.SetDefault("target.schemaVersion", string(p.SchemaVersion))
	v.SetDefault("target.entityTypeMemberName", p.EntityTypeMemberName)
	v.SetDefault("target.objectIdentifierName", p.ObjectIdentifierName)
	v.SetDefault("target.objectIdentifierType", p.ObjectIdentifierType)
	v.SetDefault("target.inlineOrByReferenceDefault", p.InlineOrByReferenceDefault)
	profiles := make([]string, 0, len(p.FeatureRefProfiles))
	for _, rp := range p.FeatureRefProfiles {
		profiles = append(profiles, string(rp))
	}
	v.SetDefault("target.featureRefProfiles", profiles)
	v.SetDefault("target.featureCollectionIdTemplate", p.FeatureCollectionIDTemplate)
	v.SetDefault("target.genericGeometryUri", p.GenericGeometryURI)
	v.SetDefault("target.defaultEncodingRule", p.DefaultEncodingRule)
	v.SetDefault("target.primaryGeometryMemberName", p.PrimaryGeometryMemberName)
	v.SetDefault("target.primaryPlaceMemberName", p.PrimaryPlaceMemberName)
	v.SetDefault("target.primaryTimeMemberName", p.PrimaryTimeMemberName)
	v.SetDefault("target.nestedPropertiesMemberName", p.NestedPropertiesMemberName)
	v.SetDefault("input.model", d.Input.Model)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.check", d.Output.Check)
	v.SetDefault("output.mapEntries", "")
}

// Load loads the configuration from path, or from modelschema.yml or modelschema.yaml in
// the working directory when path is empty. A missing default file is not an error.
// Environment variables prefixed MODELSCHEMA_ override scalar settings, e.g.
// MODELSCHEMA_OUTPUT_DIR.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("modelschema")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("MODELSCHEMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if used := v.ConfigFileUsed(); used != "" {
		if abs, err := filepath.Abs(used); err == nil {
			used = abs
		}
		cfg.File = used
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if err := cfg.Target.Validate(); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if cfg.Input.Model == "" {
		return fmt.Errorf("input.model must not be empty")
	}
	if cfg.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	seen := make(map[string]bool)
	for i, c := range cfg.Collections {
		if c.Name == "" {
			return fmt.Errorf("collections[%d]: name must not be empty", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("collections[%d]: duplicate collection %q", i, c.Name)
		}
		seen[c.Name] = true
	}
	for i, bs := range cfg.BaseSchemas {
		if bs.URI == "" {
			return fmt.Errorf("baseSchemas[%d]: uri must not be empty", i)
		}
	}
	return nil
}

// BaseDir is the directory relative paths are resolved against
func (c *Config) BaseDir() string {
	if c.File == "" {
		return "."
	}
	return filepath.Dir(c.File)
}

// Path resolves p relative to the configuration file
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir(), p)
}

// ModelPath is the resolved path of the model file
func (c *Config) ModelPath() string {
	return c.Path(c.Input.Model)
}

// OutputDir is the resolved output directory
func (c *Config) OutputDir() string {
	return c.Path(c.Output.Dir)
}

// Options converts the configuration into compiler options. extra map entries, e.g. read
// from mapEntryFiles, follow the configured ones.
func (c *Config) Options(extra ...rules.MapEntry) jsonschema.Options {
	entries := make([]rules.MapEntry, 0, len(c.MapEntries)+len(extra))
	entries = append(entries, c.MapEntries...)
	entries = append(entries, extra...)
	return jsonschema.Options{
		Params:        c.Target,
		Schemas:       c.Schemas,
		EncodingRules: c.EncodingRules,
		MapEntries:    entries,
		BaseSchemas:   c.BaseSchemas,
		Annotations:   c.Annotations,
		Collections:   c.Collections,
	}
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the configuration to path
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Schema returns the JSON Schema of the configuration file
func Schema() ([]byte, error) {
	r := &invjsonschema.Reflector{
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
	}
	s := r.Reflect(&Config{})
	s.Title = "modelschema configuration"
	s.Description = "Schema for modelschema.yml"
	return json.MarshalIndent(s, "", "  ")
}

// FindConfigFile looks for modelschema.yml or modelschema.yaml in dir and its parents
func FindConfigFile(dir string) (string, error) {
	start := dir
	for {
		for _, name := range []string{FileName, "modelschema.yaml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %s or any parent directory", FileName, start)
		}
		dir = parent
	}
}
