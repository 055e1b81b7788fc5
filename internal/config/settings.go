package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// SettingsVersion is the current settings schema version.
const SettingsVersion = 1

// ErrSettingsVersion is returned when a settings file has a missing or
// unsupported version. Callers fall back to DefaultSettings.
var ErrSettingsVersion = errors.New("unsupported settings version")

var validate = validator.New()

// LegacySettings is the version 0 schema, which built every command as
// "/" + Prefix + acronym + Suffix in lower and/or upper case.
type LegacySettings struct {
	Version                   int    `mapstructure:"version"`
	IsVisible                 bool   `mapstructure:"isvisible"`
	Prefix                    string `mapstructure:"prefix"`
	Suffix                    string `mapstructure:"suffix"`
	RegisterLowercaseCommands bool   `mapstructure:"registerlowercasecommands"`
	RegisterUppercaseCommands bool   `mapstructure:"registeruppercasecommands"`
}

// Settings is the version 1 schema controlling which job commands are
// registered.
type Settings struct {
	Version                 int      `mapstructure:"version"`
	IsVisible               bool     `mapstructure:"isvisible"`
	RegisterClassJobs       bool     `mapstructure:"registerclassjobs"`
	RegisterPhantomJobs     bool     `mapstructure:"registerphantomjobs"`
	RegisterCommandSuffixes bool     `mapstructure:"registercommandsuffixes"`
	CommandSuffixes         []string `mapstructure:"commandsuffixes" validate:"max=64,unique,dive,omitempty,alphanum,max=16"`
}

// DefaultCommandSuffixes returns the built-in suffix list: the base command,
// the ultimates, and the field operations.
func DefaultCommandSuffixes() []string {
	return []string{
		"",
		"ucob", "uwu", "tea", "dsr", "top", "fru",
		"eu", "bo", "oc",
	}
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		Version:                 SettingsVersion,
		IsVisible:               true,
		RegisterClassJobs:       true,
		RegisterPhantomJobs:     true,
		RegisterCommandSuffixes: true,
		CommandSuffixes:         DefaultCommandSuffixes(),
	}
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	s.CommandSuffixes = append([]string(nil), s.CommandSuffixes...)
	return s
}

// Suffixes returns the configured suffix list, or the defaults when it is
// unset or empty.
func (s Settings) Suffixes() []string {
	if len(s.CommandSuffixes) == 0 {
		return DefaultCommandSuffixes()
	}
	return append([]string(nil), s.CommandSuffixes...)
}

// ActiveSuffixes returns the suffixes commands are generated for: just the
// empty suffix when suffix variants are disabled.
func (s Settings) ActiveSuffixes() []string {
	if !s.RegisterCommandSuffixes {
		return []string{""}
	}
	return s.Suffixes()
}

// Validate checks suffix entries: at most 64, unique, each empty or at most
// 16 ASCII letters and digits.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// MigrateLegacy converts version 0 settings. Any registered case variant
// enables class/job commands; the prefix and suffix are discarded.
//
// Postcondition: Returns version 1 settings; nil old yields DefaultSettings.
func MigrateLegacy(old *LegacySettings) Settings {
	s := DefaultSettings()
	if old == nil {
		return s
	}
	s.IsVisible = old.IsVisible
	s.RegisterClassJobs = old.RegisterLowercaseCommands || old.RegisterUppercaseCommands
	return s
}

// LoadSettings reads a settings JSON file, migrating version 0 files.
//
// Postcondition: A missing file yields DefaultSettings and no error. A file
// with a missing or unknown version yields DefaultSettings and an error
// wrapping ErrSettingsVersion. Keys absent from the file take their defaults.
func LoadSettings(path string) (Settings, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultSettings(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return Settings{}, fmt.Errorf("reading settings file: %w", err)
	}

	if !v.IsSet("version") {
		return DefaultSettings(), fmt.Errorf("%s: %w: missing", path, ErrSettingsVersion)
	}

	switch version := v.GetInt("version"); version {
	case 0:
		v.SetDefault("isvisible", true)
		v.SetDefault("registerlowercasecommands", true)
		v.SetDefault("registeruppercasecommands", true)
		var old LegacySettings
		if err := v.Unmarshal(&old); err != nil {
			return Settings{}, fmt.Errorf("unmarshalling version 0 settings: %w", err)
		}
		return MigrateLegacy(&old), nil
	case SettingsVersion:
		def := DefaultSettings()
		v.SetDefault("isvisible", def.IsVisible)
		v.SetDefault("registerclassjobs", def.RegisterClassJobs)
		v.SetDefault("registerphantomjobs", def.RegisterPhantomJobs)
		v.SetDefault("registercommandsuffixes", def.RegisterCommandSuffixes)
		var s Settings
		if err := v.Unmarshal(&s); err != nil {
			return Settings{}, fmt.Errorf("unmarshalling settings: %w", err)
		}
		if err := s.Validate(); err != nil {
			return Settings{}, err
		}
		return s, nil
	default:
		return DefaultSettings(), fmt.Errorf("%s: %w: %d", path, ErrSettingsVersion, version)
	}
}

// SaveSettings writes s as JSON, creating the parent directory if needed.
//
// Precondition: path must end in .json; s must pass Validate.
// Postcondition: LoadSettings(path) returns settings equal to s.
func SaveSettings(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set("version", SettingsVersion)
	v.Set("isvisible", s.IsVisible)
	v.Set("registerclassjobs", s.RegisterClassJobs)
	v.Set("registerphantomjobs", s.RegisterPhantomJobs)
	v.Set("registercommandsuffixes", s.RegisterCommandSuffixes)
	v.Set("commandsuffixes", append([]string{}, s.CommandSuffixes...))

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	return nil
}
