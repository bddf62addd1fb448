// Package config loads parser settings from pyfront.toml or pyfront.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dhamidi/pyfront/python/parser"
	"github.com/tliron/commonlog"
	"gopkg.in/yaml.v3"
)

var log = commonlog.GetLogger("pyfront.config")

// FileNames lists the config files Discover looks for, in order.
var FileNames = []string{"pyfront.toml", "pyfront.yaml", "pyfront.yml"}

// Config holds the parser settings of a project.
type Config struct {
	Version             string `toml:"version" yaml:"version"`
	Verbatim            bool   `toml:"verbatim" yaml:"verbatim"`
	StubFile            bool   `toml:"stub_file" yaml:"stub_file"`
	BindReferences      bool   `toml:"bind_references" yaml:"bind_references"`
	PrivatePrefix       string `toml:"private_prefix" yaml:"private_prefix"`
	IndentationSeverity string `toml:"indentation_severity" yaml:"indentation_severity"`
	LogLevel            string `toml:"log_level" yaml:"log_level"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-" yaml:"-"`
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a config file. The extension selects the decoder.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (expected .toml, .yaml or .yml)", ext)
	}

	cfg.Path = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	log.Debugf("loaded config from %s", path)
	return &cfg, nil
}

// Discover walks from dir up to the filesystem root and returns the path of
// the first config file found. It returns "" when there is none.
func Discover(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// LoadFrom discovers a config file starting at dir and loads it, falling
// back to Default when none exists.
func LoadFrom(dir string) (*Config, error) {
	path, err := Discover(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		log.Debugf("no config file above %s, using defaults", dir)
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) applyDefaults() {
	if c.Version == "" {
		c.Version = parser.LatestVersion.String()
	}
	if c.IndentationSeverity == "" {
		c.IndentationSeverity = parser.SeverityIgnore.String()
	}
	if c.LogLevel == "" {
		c.LogLevel = "warning"
	}
}

// Validate checks the values that the parser would otherwise reject.
func (c *Config) Validate() error {
	if _, err := parser.ParseVersion(c.Version); err != nil {
		return err
	}
	if _, ok := parser.ParseSeverity(c.IndentationSeverity); !ok {
		return fmt.Errorf("unknown indentation severity %q", c.IndentationSeverity)
	}
	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// logLevels maps level names to commonlog verbosities.
var logLevels = map[string]int{
	"none":     -4,
	"critical": -3,
	"error":    -2,
	"warning":  -1,
	"notice":   0,
	"info":     1,
	"debug":    2,
}

// Verbosity maps LogLevel to a commonlog verbosity.
func (c *Config) Verbosity() int {
	if v, ok := logLevels[c.LogLevel]; ok {
		return v
	}
	return -1
}

// ToOptions converts the config into parser options.
func (c *Config) ToOptions() ([]parser.Option, error) {
	version, err := parser.ParseVersion(c.Version)
	if err != nil {
		return nil, err
	}
	severity, ok := parser.ParseSeverity(c.IndentationSeverity)
	if !ok {
		return nil, fmt.Errorf("unknown indentation severity %q", c.IndentationSeverity)
	}

	opts := []parser.Option{
		parser.WithVersion(version),
		parser.WithIndentationSeverity(severity),
	}
	if c.Verbatim {
		opts = append(opts, parser.WithVerbatim())
	}
	if c.StubFile {
		opts = append(opts, parser.WithStubFile())
	}
	if c.BindReferences {
		opts = append(opts, parser.WithBindReferences())
	}
	if c.PrivatePrefix != "" {
		opts = append(opts, parser.WithPrivatePrefix(c.PrivatePrefix))
	}
	return opts, nil
}
