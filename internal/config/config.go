// Package config provides configuration management for skillcheck.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"

	checkerrors "github.com/randalmurphal/skillcheck/internal/errors"
)

// File and environment conventions.
const (
	ConfigFileName = ".skillcheck"
	EnvPrefix      = "SKILLCHECK"
)

// Supported history drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the full skillcheck configuration.
type Config struct {
	BaseDir        string        `mapstructure:"base_dir" yaml:"base_dir" json:"base_dir"`
	CategoriesFile string        `mapstructure:"categories_file" yaml:"categories_file" json:"categories_file"`
	SkillsDir      string        `mapstructure:"skills_dir" yaml:"skills_dir" json:"skills_dir"`
	RootSkill      string        `mapstructure:"root_skill" yaml:"root_skill" json:"root_skill"`
	Exclude        []string      `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
	SchemaFile     string        `mapstructure:"schema_file" yaml:"schema_file" json:"schema_file"`
	CheckCategory  bool          `mapstructure:"check_category" yaml:"check_category" json:"check_category"`
	CheckCycles    bool          `mapstructure:"check_cycles" yaml:"check_cycles" json:"check_cycles"`
	ExemptRoots    bool          `mapstructure:"exempt_roots" yaml:"exempt_roots" json:"exempt_roots"`
	History        HistoryConfig `mapstructure:"history" yaml:"history" json:"history"`
}

// HistoryConfig controls the run history store.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Driver  string `mapstructure:"driver" yaml:"driver" json:"driver"`
	DSN     string `mapstructure:"dsn" yaml:"dsn" json:"dsn"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseDir:        ".",
		CategoriesFile: "skill_categories.json",
		SkillsDir:      "skills",
		RootSkill:      "base_skill",
		Exclude:        []string{},
		History: HistoryConfig{
			Driver: DriverSQLite,
			DSN:    filepath.Join(".skillcheck", "history.db"),
		},
	}
}

// RegisterDefaults registers every key with its default so that viper's
// AutomaticEnv can resolve SKILLCHECK_* overrides for nested keys too.
func RegisterDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("base_dir", d.BaseDir)
	v.SetDefault("categories_file", d.CategoriesFile)
	v.SetDefault("skills_dir", d.SkillsDir)
	v.SetDefault("root_skill", d.RootSkill)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("schema_file", d.SchemaFile)
	v.SetDefault("check_category", d.CheckCategory)
	v.SetDefault("check_cycles", d.CheckCycles)
	v.SetDefault("exempt_roots", d.ExemptRoots)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.driver", d.History.Driver)
	v.SetDefault("history.dsn", d.History.DSN)
}

// NewViper returns a viper instance wired for skillcheck: defaults,
// SKILLCHECK_ environment prefix and dotted-key env mapping.
func NewViper() *viper.Viper {
	v := viper.New()
	RegisterDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load unmarshals the merged configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.CategoriesFile) == "" {
		return checkerrors.ErrConfigInvalid("categories_file", "must not be empty")
	}
	if strings.TrimSpace(c.SkillsDir) == "" {
		return checkerrors.ErrConfigInvalid("skills_dir", "must not be empty")
	}
	if strings.TrimSpace(c.RootSkill) == "" {
		return checkerrors.ErrConfigInvalid("root_skill", "must not be empty")
	}
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return checkerrors.ErrConfigInvalid("exclude", fmt.Sprintf("malformed pattern %q", pattern))
		}
	}
	switch c.History.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return checkerrors.ErrConfigInvalid("history.driver",
			fmt.Sprintf("unknown driver %q (must be %s or %s)", c.History.Driver, DriverSQLite, DriverPostgres))
	}
	if c.History.Enabled && c.History.DSN == "" {
		return checkerrors.ErrConfigInvalid("history.dsn", "required when history is enabled")
	}
	return nil
}

// CategoriesPath returns the categories document path resolved against BaseDir.
func (c *Config) CategoriesPath() string {
	return c.resolve(c.CategoriesFile)
}

// SkillsPath returns the skills root resolved against BaseDir.
func (c *Config) SkillsPath() string {
	return c.resolve(c.SkillsDir)
}

// SchemaPath returns the schema path resolved against BaseDir, or "" when unset.
func (c *Config) SchemaPath() string {
	if c.SchemaFile == "" {
		return ""
	}
	return c.resolve(c.SchemaFile)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}
