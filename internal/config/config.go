package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/chmdznr/syncstat/pkg/models"
)

// Config lists the database and the status-labelled tables to inspect.
type Config struct {
	Database string         `yaml:"database"`
	Tables   []models.Table `yaml:"tables"`
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to use as a table or column
// name in generated SQL.
func ValidIdentifier(name string) bool {
	return identPattern.MatchString(name)
}

// Load reads a YAML config file, applies column defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config content.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	for i := range cfg.Tables {
		cfg.Tables[i] = cfg.Tables[i].WithDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks table definitions. An empty database path is allowed
// because it may be supplied on the command line.
func (c *Config) Validate() error {
	if len(c.Tables) == 0 {
		return errors.New("config: no tables defined")
	}
	seen := make(map[string]bool, len(c.Tables))
	for i, t := range c.Tables {
		for _, ident := range []string{t.Name, t.IDColumn, t.StatusColumn} {
			if !ValidIdentifier(ident) {
				return fmt.Errorf("config: table %d: invalid identifier %q", i, ident)
			}
		}
		if seen[t.Name] {
			return fmt.Errorf("config: table %q defined twice", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// Table returns the definition with the given name.
func (c *Config) Table(name string) (models.Table, bool) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return models.Table{}, false
}
