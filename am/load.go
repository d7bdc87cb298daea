package am

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/replaydash/errors"
)

var (
	loadMu        sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper

	// ConfigSources records which file supplied each key during the last load
	ConfigSources = map[string]SourceInfo{}
)

// homeDir is replaced in tests
var homeDir = os.UserHomeDir

// ConfigFile is one layer of the configuration cascade
type ConfigFile struct {
	Path   string
	Source ConfigSource
}

// Load reads the replaydash configuration using Viper
func Load() (*Config, error) {
	loadMu.Lock()
	defer loadMu.Unlock()
	if globalConfig != nil {
		return globalConfig, nil
	}

	config, err := LoadWithViper(initViper())
	if err != nil {
		return nil, err
	}
	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	loadMu.Lock()
	defer loadMu.Unlock()
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path on top of the
// defaults, without environment variables
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}
	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config from %s", configPath)
	}
	return config, nil
}

// Reset clears the cached configuration (used by reload and tests)
func Reset() {
	loadMu.Lock()
	defer loadMu.Unlock()
	globalConfig = nil
	viperInstance = nil
}

// initViper initializes Viper with configuration sources and defaults.
// Callers hold loadMu.
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}
	v, sources := NewViper(ConfigFiles())
	ConfigSources = sources
	viperInstance = v
	return v
}

// NewViper builds a Viper instance from defaults, the given files (lowest
// precedence first) and REPLAYDASH_* environment variables. It returns the
// file that supplied each key.
func NewViper(files []ConfigFile) (*viper.Viper, map[string]SourceInfo) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	SetDefaults(v)

	sources := mergeConfigFiles(v, files)
	return v, sources
}

// ConfigFiles returns the cascade in precedence order (lowest first):
// system < user < project
func ConfigFiles() []ConfigFile {
	files := []ConfigFile{{Path: SystemConfigPath, Source: SourceSystem}}
	if user := UserConfigPath(); user != "" {
		files = append(files, ConfigFile{Path: user, Source: SourceUser})
	}
	if project := findProjectConfig(); project != "" {
		files = append(files, ConfigFile{Path: project, Source: SourceProject})
	}
	return files
}

// UserConfigPath returns ~/.replaydash/am.toml
func UserConfigPath() string {
	home, err := homeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, UserDirName, UserConfigName)
}

// findProjectConfig searches for replaydash.toml by walking up the directory
// tree. Returns the first path found, or empty string if none.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ProjectConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// mergeConfigFiles merges each existing file into v's config layer, so
// later files override earlier ones and environment variables override all.
func mergeConfigFiles(v *viper.Viper, files []ConfigFile) map[string]SourceInfo {
	sources := map[string]SourceInfo{}
	for _, file := range files {
		if _, err := os.Stat(file.Path); err != nil {
			continue
		}
		fileViper := viper.New()
		fileViper.SetConfigFile(file.Path)
		fileViper.SetConfigType("toml")
		if err := fileViper.ReadInConfig(); err != nil {
			continue
		}
		if err := v.MergeConfigMap(fileViper.AllSettings()); err != nil {
			continue
		}
		for _, key := range fileViper.AllKeys() {
			sources[key] = SourceInfo{Source: file.Source, Path: file.Path}
		}
	}
	return sources
}

// ExistingConfigFiles returns the cascade paths that exist on disk
func ExistingConfigFiles() []string {
	var paths []string
	for _, file := range ConfigFiles() {
		if _, err := os.Stat(file.Path); err == nil {
			paths = append(paths, file.Path)
		}
	}
	return paths
}

// Keys returns every known configuration key, sorted
func Keys() []string {
	v := viper.New()
	SetDefaults(v)
	keys := v.AllKeys()
	sort.Strings(keys)
	return keys
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return GetViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return GetViper().GetString(key)
}

// GetBool returns a configuration value as bool using dot notation
func GetBool(key string) bool {
	return GetViper().GetBool(key)
}

// GetInt returns a configuration value as int using dot notation
func GetInt(key string) int {
	return GetViper().GetInt(key)
}
