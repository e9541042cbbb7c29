package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration for typedjson
type Config struct {
	Codec  CodecConfig  `yaml:"codec"`
	Output OutputConfig `yaml:"output"`
	Input  InputConfig  `yaml:"input"`
	Dev    DevConfig    `yaml:"dev"`
}

// CodecConfig controls decoding and encoding
type CodecConfig struct {
	OmitClass         bool `yaml:"omit_class"`
	IgnoreUnknownKeys bool `yaml:"ignore_unknown_keys"`
	KeepClass         bool `yaml:"keep_class"`
}

// OutputConfig controls how the result is written
type OutputConfig struct {
	Pretty bool   `yaml:"pretty"`
	Indent string `yaml:"indent"`
}

// InputConfig controls how input is read
type InputConfig struct {
	AllowComments bool `yaml:"allow_comments"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug   bool `yaml:"debug"`
	Verbose bool `yaml:"verbose"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Codec: CodecConfig{
			OmitClass:         false,
			IgnoreUnknownKeys: false,
			KeepClass:         true,
		},
		Output: OutputConfig{
			Pretty: false,
			Indent: "  ",
		},
		Input: InputConfig{
			AllowComments: false,
		},
		Dev: DevConfig{
			Debug:   false,
			Verbose: false,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks option values that YAML cannot constrain
func (c *Config) Validate() error {
	if strings.Trim(c.Output.Indent, " \t") != "" {
		return fmt.Errorf("invalid indent %q: only spaces and tabs are allowed", c.Output.Indent)
	}
	return nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".typedjson.yml", ".typedjson.yaml", "typedjson.yml", "typedjson.yaml"}

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

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// MergeConfigs merges CLI overrides into a base config.
// Boolean switches can only be turned on by an override; a non-empty
// indent replaces the base one.
func MergeConfigs(base, override *Config) *Config {
	merged := *base

	if override.Output.Indent != "" {
		merged.Output.Indent = override.Output.Indent
	}
	merged.Output.Pretty = base.Output.Pretty || override.Output.Pretty
	merged.Codec.OmitClass = base.Codec.OmitClass || override.Codec.OmitClass
	merged.Codec.IgnoreUnknownKeys = base.Codec.IgnoreUnknownKeys || override.Codec.IgnoreUnknownKeys
	merged.Input.AllowComments = base.Input.AllowComments || override.Input.AllowComments
	merged.Dev.Debug = base.Dev.Debug || override.Dev.Debug
	merged.Dev.Verbose = base.Dev.Verbose || override.Dev.Verbose

	return &merged
}

// LoadConfigWithCLI loads the config file, if any, and applies CLI flags on top
func LoadConfigWithCLI(configPath string, flags *Config) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	if flags == nil {
		return cfg, nil
	}
	merged := MergeConfigs(cfg, flags)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}
