package am

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/teranos/replaydash/errors"
	"github.com/teranos/replaydash/logger"
)

// backupCount is how many rotating backups are kept next to a config file
const backupCount = 3

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	oldest := backupPath(configPath, backupCount)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		logger.Warnw("Failed to delete old config backup", logger.FieldPath, oldest, logger.FieldError, err)
	}

	// .back2 -> .back3, .back1 -> .back2
	for i := backupCount - 1; i >= 1; i-- {
		from := backupPath(configPath, i)
		if _, err := os.Stat(from); err == nil {
			if err := os.Rename(from, backupPath(configPath, i+1)); err != nil {
				return errors.Wrapf(err, "failed to rotate %s", filepath.Base(from))
			}
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(backupPath(configPath, 1), content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}

func backupPath(configPath string, n int) string {
	return configPath + ".back" + strconv.Itoa(n)
}

// loadOrInitializeConfigFile reads a TOML file as a generic map, or returns an
// empty map if it doesn't exist
func loadOrInitializeConfigFile(configPath string) (map[string]interface{}, error) {
	if err := os.MkdirAll(filepath.Dir(configPath), DefaultDirPermissions); err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", filepath.Dir(configPath))
	}

	config := make(map[string]interface{})
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", configPath)
	}
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", configPath)
	}
	return config, nil
}

// saveConfigFile writes config to configPath with a backup of the previous version
func saveConfigFile(config map[string]interface{}, configPath string) error {
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	// Mark this as our own write to prevent reload loops
	if w := GetGlobalWatcher(); w != nil {
		w.MarkOwnWrite()
	}

	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", configPath)
	}
	return nil
}

// parseValue turns a command-line string into the most specific TOML scalar
func parseValue(raw string) interface{} {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// Set writes key = value into the user config file (~/.replaydash/am.toml).
// The key must be known and the resulting configuration must validate.
func Set(key, raw string) (string, error) {
	path := UserConfigPath()
	if path == "" {
		return "", errors.New("could not determine home directory")
	}
	if err := SetInFile(path, key, raw); err != nil {
		return "", err
	}
	Reset()
	return path, nil
}

// SetInFile writes key = value into the TOML file at path.
func SetInFile(path, key, raw string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if !isKnownKey(key) {
		return errors.WithHintf(
			errors.NewInvalidRequestError("unknown config key %q", key),
			"known keys: %s", strings.Join(Keys(), ", "),
		)
	}

	config, err := loadOrInitializeConfigFile(path)
	if err != nil {
		return err
	}

	section, field, _ := strings.Cut(key, ".")
	table, ok := config[section].(map[string]interface{})
	if !ok {
		table = make(map[string]interface{})
	}
	table[field] = parseValue(raw)
	config[section] = table

	if err := validateMap(config); err != nil {
		return errors.Wrapf(err, "refusing to write %s", key)
	}
	return saveConfigFile(config, path)
}

func isKnownKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// validateMap checks that defaults plus config form a valid configuration
func validateMap(config map[string]interface{}) error {
	v := viper.New()
	SetDefaults(v)
	if err := v.MergeConfigMap(config); err != nil {
		return errors.Wrap(err, "failed to merge config")
	}
	cfg, err := LoadWithViper(v)
	if err != nil {
		return err
	}
	return cfg.Validate()
}
