// Copyright (c) 2026 ChatLocked Team
// ChatLocked - encrypted local vault client
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads ChatLocked settings from config files, environment
// variables and command flags through Viper, and writes them back as YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/toeirei/chatlocked/internal/security"
)

// AppName names the config file, the data directory and the env prefix.
const AppName = "chatlocked"

// VaultConfig selects where and how the vault is stored.
type VaultConfig struct {
	// Backend is one of hold, sqlite, postgres, mysql or memory.
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Dir overrides the application data directory.
	Dir string `mapstructure:"dir" yaml:"dir,omitempty"`
	// DSN is the connection string of SQL backends. It may carry
	// credentials and prints redacted.
	DSN    security.Secret `mapstructure:"dsn" yaml:"dsn,omitempty"`
	KDF    string          `mapstructure:"kdf" yaml:"kdf"`
	Cipher string          `mapstructure:"cipher" yaml:"cipher"`
}

type KeygenConfig struct {
	PBKDF2Iterations int `mapstructure:"pbkdf2_iterations" yaml:"pbkdf2_iterations"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Config is the full application configuration.
type Config struct {
	Vault    VaultConfig  `mapstructure:"vault" yaml:"vault"`
	Keygen   KeygenConfig `mapstructure:"keygen" yaml:"keygen"`
	Language string       `mapstructure:"language" yaml:"language"`
	Log      LogConfig    `mapstructure:"log" yaml:"log"`
}

// Defaults returns the default value of every known key.
func Defaults() map[string]any {
	return map[string]any{
		"vault.backend":            "hold",
		"vault.dir":                "",
		"vault.dsn":                "",
		"vault.kdf":                "argon2id",
		"vault.cipher":             "xchacha20poly1305",
		"keygen.pbkdf2_iterations": 600000,
		"language":                 "en",
		"log.level":                "info",
	}
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "ChatLocked")
		default:
			configDir = "/etc/" + AppName
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, AppName)
	}

	return filepath.Join(configDir, AppName+".yaml"), nil
}

// AppDataDir returns the directory holding the vault file. On Linux this
// follows XDG_DATA_HOME, elsewhere the user config directory is used.
func AppDataDir() (string, error) {
	var base string
	if runtime.GOOS == "linux" {
		base = os.Getenv("XDG_DATA_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("could not get home directory: %w", err)
			}
			base = filepath.Join(home, ".local", "share")
		}
	} else {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		base = dir
	}
	return filepath.Join(base, AppName), nil
}

// DataDirFunc returns a resolver for the vault directory honouring
// vault.dir. The directory is created on first use.
func (c Config) DataDirFunc() func() (string, error) {
	return func() (string, error) {
		dir := c.Vault.Dir
		if dir == "" {
			var err error
			if dir, err = AppDataDir(); err != nil {
				return "", err
			}
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return "", fmt.Errorf("could not create data directory %s: %w", dir, err)
		}
		return dir, nil
	}
}

// LoadConfig reads the configuration into T. Precedence from low to high is
// defaults, config file, environment (CHATLOCKED_*), flags. A missing config
// file is reported as viper.ConfigFileNotFoundError together with the
// decoded defaults.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, configFile *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName(AppName)
	v.SetConfigType("yaml")
	if configFile != nil {
		v.SetConfigFile(*configFile)
	}
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	var notFound error
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return c, err
		}
		notFound = err
	}

	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	hook := mapstructure.ComposeDecodeHookFunc(
		stringToSecretHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&c, viper.DecodeHook(hook)); err != nil {
		return c, err
	}
	return c, notFound
}

var secretType = reflect.TypeOf(security.Secret(nil))

// stringToSecretHook decodes strings into security.Secret. Viper's default
// hooks would split the string into a slice instead.
func stringToSecretHook() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != secretType || f.Kind() != reflect.String {
			return data, nil
		}
		return security.FromString(data.(string)), nil
	}
}

// WriteConfigFile writes c as YAML to the user or system config path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}

	// Secrets are written in clear, the file is private.
	data, err := yaml.MarshalWithOptions(c, yaml.CustomMarshaler[security.Secret](func(s security.Secret) ([]byte, error) {
		return yaml.Marshal(s.Reveal())
	}))
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	// 0600: the file may carry a database DSN with credentials.
	return os.WriteFile(path, data, 0o600)
}
