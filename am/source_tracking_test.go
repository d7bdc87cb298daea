package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into dir for the rest of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func settingsByKey(t *testing.T) map[string]SettingInfo {
	t.Helper()
	intro, err := GetConfigIntrospection()
	require.NoError(t, err)
	settings := make(map[string]SettingInfo, len(intro.Settings))
	for _, s := range intro.Settings {
		settings[s.Key] = s
	}
	return settings
}

// TestSourceTrackingIntegration tests that configuration loading correctly tracks
// where each setting came from through the entire load -> introspection flow
func TestSourceTrackingIntegration(t *testing.T) {
	t.Run("Project config overrides user config", func(t *testing.T) {
		home := useHome(t)
		writeFile(t, filepath.Join(home, UserDirName, UserConfigName), `
[backend]
url = "http://user-host:5000"

[display]
log_theme = "gruvbox"
`)
		project := t.TempDir()
		writeFile(t, filepath.Join(project, ProjectConfigName), `
[backend]
url = "http://project-host:5000"
`)
		chdir(t, project)
		Reset()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "http://project-host:5000", cfg.Backend.URL, "project config should override user config")
		assert.Equal(t, "gruvbox", cfg.Display.LogTheme)

		settings := settingsByKey(t)
		assert.Equal(t, SourceProject, settings["backend.url"].Source)
		assert.Contains(t, settings["backend.url"].SourcePath, ProjectConfigName)
		assert.Equal(t, SourceUser, settings["display.log_theme"].Source)
		assert.Contains(t, settings["display.log_theme"].SourcePath, UserConfigName)
		assert.Equal(t, SourceDefault, settings["stream.path"].Source)
		assert.Equal(t, "", settings["stream.path"].SourcePath, "default values should have empty source path")
	})

	t.Run("Project config is found from a subdirectory", func(t *testing.T) {
		useHome(t)
		project := t.TempDir()
		writeFile(t, filepath.Join(project, ProjectConfigName), "[stream]\npath = \"/socket.io\"\n")
		nested := filepath.Join(project, "replays", "2026")
		require.NoError(t, os.MkdirAll(nested, DefaultDirPermissions))
		chdir(t, nested)
		Reset()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "/socket.io", cfg.Stream.Path)
		assert.Contains(t, ExistingConfigFiles(), filepath.Join(project, ProjectConfigName))
	})

	t.Run("Environment variables override files", func(t *testing.T) {
		home := useHome(t)
		writeFile(t, filepath.Join(home, UserDirName, UserConfigName), "[backend]\nurl = \"http://file-host:5000\"\n")
		chdir(t, t.TempDir())
		t.Setenv("REPLAYDASH_BACKEND_URL", "http://env-host:5000")
		Reset()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "http://env-host:5000", cfg.Backend.URL, "environment variable should override file")

		settings := settingsByKey(t)
		assert.Equal(t, SourceEnvironment, settings["backend.url"].Source)
		assert.Equal(t, "REPLAYDASH_BACKEND_URL", settings["backend.url"].SourcePath)
		assert.Equal(t, "http://env-host:5000", settings["backend.url"].Value)
	})

	t.Run("System config loads when present", func(t *testing.T) {
		// Writing /etc/replaydash needs root; the cascade order itself is
		// covered by TestNewViper_Cascade.
		if _, err := os.Stat(SystemConfigPath); err != nil {
			t.Skip("no system config installed")
		}
		useHome(t)
		Reset()
		_, err := Load()
		require.NoError(t, err)
		assert.Contains(t, ExistingConfigFiles(), SystemConfigPath)
	})
}

// TestSourceTrackingDefaults verifies that default values are properly tracked
func TestSourceTrackingDefaults(t *testing.T) {
	useHome(t)
	chdir(t, t.TempDir())
	Reset()

	settings := settingsByKey(t)
	theme, ok := settings["display.log_theme"]
	require.True(t, ok, "default display.log_theme should be present")
	if _, err := os.Stat(SystemConfigPath); err == nil {
		t.Skip("system config may override defaults")
	}
	assert.Equal(t, SourceDefault, theme.Source)
	assert.Equal(t, DefaultLogTheme, theme.Value)
}
