// Package config loads hush settings from hush-config.yaml and HUSH_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-hushfs/internal/crypto"
	"github.com/deploymenttheory/go-hushfs/internal/helpers"
)

// EnvPrefix is the prefix of environment overrides, e.g. HUSH_KDF_MEMORY_KIB
const EnvPrefix = "HUSH"

// KDFConfig holds the Argon2id cost parameters
type KDFConfig struct {
	Iterations   uint32 `mapstructure:"iterations"`
	MemoryKiB    uint32 `mapstructure:"memory_kib"`
	Parallelism  uint8  `mapstructure:"parallelism"`
	MaxMemoryKiB uint32 `mapstructure:"max_memory_kib"`
}

// PasswordConfig controls password prompts
type PasswordConfig struct {
	Mask     bool `mapstructure:"mask"`
	MinScore int  `mapstructure:"min_score"`
}

// FormatConfig controls volume formatting
type FormatConfig struct {
	RootInode bool `mapstructure:"root_inode"`
}

// Config holds every hush setting
type Config struct {
	KeyPath  string         `mapstructure:"key_path"`
	LogLevel string         `mapstructure:"log_level"`
	KDF      KDFConfig      `mapstructure:"kdf"`
	Password PasswordConfig `mapstructure:"password"`
	Format   FormatConfig   `mapstructure:"format"`

	// File is the config file that was read, empty when only defaults applied
	File string `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	kdf := crypto.InteractiveKDFParams()

	v.SetDefault("key_path", "~/.hush/hush.key")
	v.SetDefault("log_level", "info")
	v.SetDefault("kdf.iterations", kdf.Iterations)
	v.SetDefault("kdf.memory_kib", kdf.MemoryKiB)
	v.SetDefault("kdf.parallelism", kdf.Parallelism)
	v.SetDefault("kdf.max_memory_kib", kdf.MaxMemoryKiB)
	v.SetDefault("password.mask", true)
	v.SetDefault("password.min_score", 2)
	v.SetDefault("format.root_inode", true)
}

// Load reads configuration. An explicit file must exist; otherwise
// hush-config.yaml is looked up in ., $HOME/.hush and /etc/hush and its
// absence is not an error.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("hush-config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.hush")
		v.AddConfigPath("/etc/hush")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in settings without reading a file or the
// environment
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config defaults do not decode: %v", err))
	}
	return &cfg
}

// Validate checks values that would otherwise fail deep inside a command
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if err := c.KDFParams().Validate(); err != nil {
		return fmt.Errorf("invalid kdf settings: %w", err)
	}
	if c.Password.MinScore < 0 || c.Password.MinScore > 4 {
		return fmt.Errorf("invalid password.min_score %d: must be between 0 and 4", c.Password.MinScore)
	}
	return nil
}

// KDFParams converts the kdf section into derivation parameters
func (c *Config) KDFParams() crypto.KDFParams {
	return crypto.KDFParams{
		Iterations:   c.KDF.Iterations,
		MemoryKiB:    c.KDF.MemoryKiB,
		Parallelism:  c.KDF.Parallelism,
		MaxMemoryKiB: c.KDF.MaxMemoryKiB,
	}
}

// Level returns the configured log level
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// ResolvedKeyPath returns KeyPath with ~ expanded
func (c *Config) ResolvedKeyPath() (string, error) {
	return helpers.ExpandHome(c.KeyPath)
}
