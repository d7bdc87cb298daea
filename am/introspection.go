package am

import (
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/replaydash/errors"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/replaydash/config.toml
	SourceUser        ConfigSource = "user"        // ~/.replaydash/am.toml
	SourceProject     ConfigSource = "project"     // replaydash.toml found upwards from cwd
	SourceEnvironment ConfigSource = "environment" // REPLAYDASH_* env vars
)

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"` // File path or env var name
}

// ConfigIntrospection provides metadata about the active configuration
type ConfigIntrospection struct {
	ConfigFiles []string      `json:"config_files"` // Files that contributed, lowest precedence first
	Settings    []SettingInfo `json:"settings"`
}

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string // File path or environment variable name
}

// GetConfigIntrospection returns every effective setting with its source
func GetConfigIntrospection() (*ConfigIntrospection, error) {
	if _, err := Load(); err != nil {
		return nil, errors.Wrap(err, "failed to load config for introspection")
	}
	v := GetViper()
	loadMu.Lock()
	sources := ConfigSources
	loadMu.Unlock()
	return Introspect(v, sources), nil
}

// Introspect flattens v's settings and attributes each to its source
func Introspect(v *viper.Viper, sources map[string]SourceInfo) *ConfigIntrospection {
	introspection := &ConfigIntrospection{Settings: make([]SettingInfo, 0)}

	seen := map[string]bool{}
	for _, si := range sources {
		if !seen[si.Path] {
			seen[si.Path] = true
			introspection.ConfigFiles = append(introspection.ConfigFiles, si.Path)
		}
	}
	sort.Strings(introspection.ConfigFiles)

	flattenSettingsWithSources(v.AllSettings(), "", introspection, sources)
	return introspection
}

// flattenSettingsWithSources flattens settings and assigns sources from sourceMap
func flattenSettingsWithSources(settings map[string]interface{}, prefix string, introspection *ConfigIntrospection, sourceMap map[string]SourceInfo) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := settings[key]
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nestedMap, ok := value.(map[string]interface{}); ok {
			flattenSettingsWithSources(nestedMap, fullKey, introspection, sourceMap)
			continue
		}

		sourceInfo := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := sourceMap[fullKey]; ok {
			sourceInfo = si
		}

		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(fullKey, ".", "_"))
		if envValue := os.Getenv(envKey); envValue != "" {
			sourceInfo = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}

		introspection.Settings = append(introspection.Settings, SettingInfo{
			Key:        fullKey,
			Value:      value,
			Source:     sourceInfo.Source,
			SourcePath: sourceInfo.Path,
		})
	}
}

// Summary counts settings by source
func (ci *ConfigIntrospection) Summary() map[ConfigSource]int {
	counts := map[ConfigSource]int{}
	for _, s := range ci.Settings {
		counts[s.Source]++
	}
	return counts
}
