// Package config provides Viper-based configuration loading for the job
// switch host and the versioned per-player command settings.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Gearset sources.
const (
	GearsetSourceYAML     = "yaml"
	GearsetSourcePostgres = "postgres"
)

// Cleaning strategies for matching command text against gearset names.
const (
	CleanerMarker = "marker"
	CleanerAffix  = "affix"
	CleanerLua    = "lua"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host" validate:"required"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	User            string        `mapstructure:"user" validate:"required"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name" validate:"required"`
	SSLMode         string        `mapstructure:"sslmode" validate:"oneof=disable require verify-ca verify-full"`
	MaxConns        int32         `mapstructure:"max_conns" validate:"min=1"`
	MinConns        int32         `mapstructure:"min_conns" validate:"min=0,ltefield=MaxConns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime" validate:"min=0"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// TelnetConfig holds the chat console listener settings.
type TelnetConfig struct {
	// Host is the bind address for the console listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port; 0 picks a free port.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout for console connections.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for console connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// HostConfig describes where the simulated host finds its reference data,
// gearsets, and player settings.
type HostConfig struct {
	// SettingsPath is the JSON file holding the player's command settings.
	SettingsPath string `mapstructure:"settings_path"`
	// ClassJobsFile is the class/job catalog YAML.
	ClassJobsFile string `mapstructure:"classjobs_file"`
	// PhantomJobsFile is the phantom job catalog YAML.
	PhantomJobsFile string `mapstructure:"phantomjobs_file"`
	// GearsetsFile is the gearset table YAML, used when GearsetSource is yaml.
	GearsetsFile string `mapstructure:"gearsets_file"`
	// GearsetSource is "yaml" or "postgres".
	GearsetSource string `mapstructure:"gearset_source"`
	// Character selects the stored gearset table when GearsetSource is postgres.
	Character string `mapstructure:"character"`
	// TerritoryUseID is the intended-use id of the starting territory.
	TerritoryUseID uint16 `mapstructure:"territory_use_id"`
	// MetricsAddr is the Prometheus listen address; empty disables metrics.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// MatchingConfig selects how command text is cleaned before scoring.
type MatchingConfig struct {
	// Cleaner is "marker", "affix", or "lua".
	Cleaner string `mapstructure:"cleaner"`
	// Prefix is stripped after the marker by the affix cleaner.
	Prefix string `mapstructure:"prefix"`
	// Suffix is stripped from the end by the affix cleaner.
	Suffix string `mapstructure:"suffix"`
	// Script is the Lua file defining clean(command) for the lua cleaner.
	Script string `mapstructure:"script"`
	// InstructionLimit caps Lua opcodes per clean call; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Telnet   TelnetConfig   `mapstructure:"telnet"`
	Database DatabaseConfig `mapstructure:"database"`
	Host     HostConfig     `mapstructure:"host"`
	Matching MatchingConfig `mapstructure:"matching"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateTelnet(c.Telnet); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateHost(c.Host); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateMatching(c.Matching); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Host.GearsetSource == GearsetSourcePostgres {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// validateDatabase reports every failed DatabaseConfig tag as
// "database.<key> <rule>".
func validateDatabase(d DatabaseConfig) error {
	err := validate.Struct(d)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		msgs = append(msgs, fmt.Sprintf("database.%s must satisfy %s, got %v", databaseKey(fe.StructField()), rule, fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func databaseKey(field string) string {
	if f, ok := reflect.TypeOf(DatabaseConfig{}).FieldByName(field); ok {
		if key := f.Tag.Get("mapstructure"); key != "" {
			return key
		}
	}
	return strings.ToLower(field)
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if t.Port < 0 || t.Port > 65535 {
		errs = append(errs, fmt.Sprintf("telnet.port must be 0-65535, got %d", t.Port))
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "telnet.read_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "telnet.write_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateHost(h HostConfig) error {
	var errs []string
	if filepath.Ext(h.SettingsPath) != ".json" {
		errs = append(errs, fmt.Sprintf("host.settings_path must name a .json file, got %q", h.SettingsPath))
	}
	switch h.GearsetSource {
	case GearsetSourceYAML:
		if h.GearsetsFile == "" {
			errs = append(errs, "host.gearsets_file must not be empty when host.gearset_source is yaml")
		}
	case GearsetSourcePostgres:
		if h.Character == "" {
			errs = append(errs, "host.character must not be empty when host.gearset_source is postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("host.gearset_source must be one of [yaml, postgres], got %q", h.GearsetSource))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateMatching(m MatchingConfig) error {
	switch m.Cleaner {
	case CleanerMarker, CleanerAffix:
	case CleanerLua:
		if m.Script == "" {
			return errors.New("matching.script must not be empty when matching.cleaner is lua")
		}
	default:
		return fmt.Errorf("matching.cleaner must be one of [marker, affix, lua], got %q", m.Cleaner)
	}
	if m.InstructionLimit < 0 {
		return fmt.Errorf("matching.instruction_limit must be >= 0, got %d", m.InstructionLimit)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with JOBSWITCH_ prefix
	v.SetEnvPrefix("JOBSWITCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("telnet.host", "127.0.0.1")
	v.SetDefault("telnet.port", 4100)
	v.SetDefault("telnet.read_timeout", "30m")
	v.SetDefault("telnet.write_timeout", "30s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "jobswitch")
	v.SetDefault("database.password", "jobswitch")
	v.SetDefault("database.name", "jobswitch")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 4)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("host.settings_path", "data/settings.json")
	v.SetDefault("host.classjobs_file", "content/classjobs.yaml")
	v.SetDefault("host.phantomjobs_file", "content/phantomjobs.yaml")
	v.SetDefault("host.gearsets_file", "content/gearsets.yaml")
	v.SetDefault("host.gearset_source", GearsetSourceYAML)
	v.SetDefault("host.territory_use_id", 0)

	v.SetDefault("matching.cleaner", CleanerMarker)
}
