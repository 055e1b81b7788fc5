package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"
)

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadSettings_MissingFileGivesDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoadSettings_MigratesVersion0(t *testing.T) {
	path := writeSettings(t, `{
  "Version": 0,
  "IsVisible": false,
  "Prefix": "j",
  "Suffix": "x",
  "RegisterLowercaseCommands": true,
  "RegisterUppercaseCommands": false
}`)
	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, SettingsVersion, s.Version)
	assert.True(t, s.RegisterClassJobs)
	assert.False(t, s.IsVisible)
	assert.True(t, s.RegisterPhantomJobs)
	assert.Equal(t, DefaultCommandSuffixes(), s.CommandSuffixes)
}

func TestLoadSettings_Version0BothCasesOff(t *testing.T) {
	path := writeSettings(t, `{"Version": 0, "RegisterLowercaseCommands": false, "RegisterUppercaseCommands": false}`)
	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.False(t, s.RegisterClassJobs)
	assert.True(t, s.IsVisible, "absent keys keep their defaults")
}

func TestLoadSettings_Version1(t *testing.T) {
	path := writeSettings(t, `{
  "Version": 1,
  "RegisterClassJobs": true,
  "RegisterPhantomJobs": false,
  "RegisterCommandSuffixes": true,
  "CommandSuffixes": ["", "ucob"]
}`)
	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.False(t, s.RegisterPhantomJobs)
	assert.True(t, s.IsVisible)
	assert.Equal(t, []string{"", "ucob"}, s.CommandSuffixes)
}

func TestLoadSettings_UnknownVersion(t *testing.T) {
	path := writeSettings(t, `{"Version": 7}`)
	s, err := LoadSettings(path)
	assert.True(t, errors.Is(err, ErrSettingsVersion))
	assert.Equal(t, DefaultSettings(), s)

	path = writeSettings(t, `{"IsVisible": true}`)
	_, err = LoadSettings(path)
	assert.True(t, errors.Is(err, ErrSettingsVersion))
}

func TestLoadSettings_Malformed(t *testing.T) {
	path := writeSettings(t, `{"Version": `)
	_, err := LoadSettings(path)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrSettingsVersion))
}

func TestMigrateLegacy(t *testing.T) {
	s := MigrateLegacy(&LegacySettings{RegisterLowercaseCommands: true})
	assert.True(t, s.RegisterClassJobs)
	assert.Equal(t, SettingsVersion, s.Version)
	assert.Equal(t, DefaultSettings(), MigrateLegacy(nil))
}

func TestSettings_Suffixes(t *testing.T) {
	s := DefaultSettings()
	s.CommandSuffixes = nil
	assert.Equal(t, DefaultCommandSuffixes(), s.Suffixes(), "empty list falls back to defaults")

	s.CommandSuffixes = []string{"", "fru"}
	assert.Equal(t, []string{"", "fru"}, s.ActiveSuffixes())

	s.RegisterCommandSuffixes = false
	assert.Equal(t, []string{""}, s.ActiveSuffixes())
}

func TestSettings_Validate(t *testing.T) {
	s := DefaultSettings()
	assert.NoError(t, s.Validate())

	s.CommandSuffixes = []string{"", "ucob", "ucob"}
	assert.Error(t, s.Validate(), "duplicates")

	s.CommandSuffixes = []string{"u co"}
	assert.Error(t, s.Validate(), "whitespace")

	s.CommandSuffixes = []string{"abcdefghijklmnopq"}
	assert.Error(t, s.Validate(), "too long")
}

func TestSaveSettings_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	want := DefaultSettings()
	want.RegisterPhantomJobs = false
	want.CommandSuffixes = []string{"", "top"}
	require.NoError(t, SaveSettings(path, want))

	got, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveSettings_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := DefaultSettings()
	s.CommandSuffixes = []string{"bad suffix"}
	assert.Error(t, SaveSettings(path, s))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestProperty_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rapid.Check(t, func(rt *rapid.T) {
		want := Settings{
			Version:                 SettingsVersion,
			IsVisible:               rapid.Bool().Draw(rt, "visible"),
			RegisterClassJobs:       rapid.Bool().Draw(rt, "classjobs"),
			RegisterPhantomJobs:     rapid.Bool().Draw(rt, "phantom"),
			RegisterCommandSuffixes: rapid.Bool().Draw(rt, "suffixes"),
			CommandSuffixes: rapid.SliceOfNDistinct(
				rapid.StringMatching(`[a-z0-9]{1,8}`), 1, 8, rapid.ID[string],
			).Draw(rt, "list"),
		}
		path := filepath.Join(dir, "settings.json")
		require.NoError(rt, SaveSettings(path, want))
		got, err := LoadSettings(path)
		require.NoError(rt, err)
		assert.Equal(rt, want, got)
	})
}

func TestStore_UpdatePersistsAndNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := NewStore(path, DefaultSettings(), zaptest.NewLogger(t))

	var got []Settings
	store.Subscribe(func(s Settings) { got = append(got, s) })

	require.NoError(t, store.Update(func(s *Settings) { s.RegisterPhantomJobs = false }))
	require.Len(t, got, 1)
	assert.False(t, got[0].RegisterPhantomJobs)
	assert.False(t, store.Settings().RegisterPhantomJobs)

	onDisk, err := LoadSettings(path)
	require.NoError(t, err)
	assert.False(t, onDisk.RegisterPhantomJobs)
}

func TestStore_InvalidUpdateIsDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := NewStore(path, DefaultSettings(), zaptest.NewLogger(t))
	called := false
	store.Subscribe(func(Settings) { called = true })

	err := store.Update(func(s *Settings) { s.CommandSuffixes = append(s.CommandSuffixes, "ucob") })
	assert.Error(t, err)
	assert.False(t, called)
	assert.Equal(t, DefaultCommandSuffixes(), store.Settings().CommandSuffixes)
}

func TestStore_SettingsReturnsCopy(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "s.json"), DefaultSettings(), zaptest.NewLogger(t))
	s := store.Settings()
	s.CommandSuffixes[1] = "mutated"
	assert.Equal(t, "ucob", store.Settings().CommandSuffixes[1])
}

func TestStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := NewStore(path, DefaultSettings(), zaptest.NewLogger(t))
	notified := 0
	store.Subscribe(func(Settings) { notified++ })

	external := DefaultSettings()
	external.RegisterClassJobs = false
	require.NoError(t, SaveSettings(path, external))

	require.NoError(t, store.Reload())
	assert.False(t, store.Settings().RegisterClassJobs)
	assert.Equal(t, 1, notified)
}

func TestOpenStore_UnknownVersionWarns(t *testing.T) {
	path := writeSettings(t, `{"Version": 9}`)
	core, logs := observer.New(zap.WarnLevel)
	store, err := OpenStore(path, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), store.Settings())
	assert.Equal(t, 1, logs.Len())
}

func TestOpenStore_MalformedFails(t *testing.T) {
	path := writeSettings(t, `not json`)
	_, err := OpenStore(path, zaptest.NewLogger(t))
	assert.Error(t, err)
}
