// Copyright (c) 2013-2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cashvm/authvm/consensus"
	"github.com/cashvm/authvm/logging"
	"github.com/pkg/errors"
)

const (
	DefaultConfigFilename  = "authvm-config.json"
	DefaultUtxoDbDir       = "utxo"
	DefaultLoggingFilename = "authvm"
	DefaultLogDir          = "logs"

	defaultRuleSet        = "bch_2023"
	defaultLogLevel       = logging.InfoLevel
	defaultLogAge         = 7
	defaultSigCacheSize   = 100000
	defaultSigCacheExpiry = "10m"
)

// AuthVMHomeDir is the default directory for data and logs.
var AuthVMHomeDir = AppDataDir("authvm")

// LogConfig configures the logging package.
type LogConfig struct {
	LogDir   string `json:"log_dir" mapstructure:"log_dir"`
	LogLevel string `json:"log_level" mapstructure:"log_level"`
	LogAge   uint32 `json:"log_age" mapstructure:"log_age"`
}

// Config is the configuration of the command line client.
type Config struct {
	RuleSet        string     `json:"rule_set" mapstructure:"rule_set"`
	Standard       bool       `json:"standard" mapstructure:"standard"`
	UtxoDbDir      string     `json:"utxo_db_dir" mapstructure:"utxo_db_dir"`
	SigCacheSize   int        `json:"sig_cache_size" mapstructure:"sig_cache_size"`
	SigCacheExpiry string     `json:"sig_cache_expiry" mapstructure:"sig_cache_expiry"`
	Log            *LogConfig `json:"log" mapstructure:"log"`
}

// NewDefaultConfig returns a configuration with every field set.
func NewDefaultConfig() *Config {
	return &Config{
		RuleSet:        defaultRuleSet,
		Standard:       true,
		UtxoDbDir:      filepath.Join(AuthVMHomeDir, DefaultUtxoDbDir),
		SigCacheSize:   defaultSigCacheSize,
		SigCacheExpiry: defaultSigCacheExpiry,
		Log: &LogConfig{
			LogDir:   filepath.Join(AuthVMHomeDir, DefaultLogDir),
			LogLevel: defaultLogLevel,
			LogAge:   defaultLogAge,
		},
	}
}

// LoadConfig reads a JSON configuration file on top of the defaults.
// Fields absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// CheckConfig validates cfg, fills in missing sections and expands paths.
func CheckConfig(cfg *Config) (*Config, error) {
	if _, err := consensus.ParseRuleSet(cfg.RuleSet); err != nil {
		return nil, errors.Wrap(err, "invalid rule_set")
	}
	cfg.RuleSet = strings.ToLower(strings.TrimSpace(cfg.RuleSet))

	if cfg.SigCacheSize < 0 {
		return nil, errors.Errorf("sig_cache_size must not be negative, got %d", cfg.SigCacheSize)
	}
	if _, err := cfg.SigCacheTTL(); err != nil {
		return nil, err
	}
	cfg.UtxoDbDir = cleanAndExpandPath(cfg.UtxoDbDir)

	if cfg.Log == nil {
		cfg.Log = NewDefaultConfig().Log
	}
	if cfg.Log.LogLevel == "" {
		cfg.Log.LogLevel = defaultLogLevel
	}
	if !logging.IsValidLevel(cfg.Log.LogLevel) {
		return nil, errors.Errorf("invalid log_level %s", cfg.Log.LogLevel)
	}
	cfg.Log.LogDir = cleanAndExpandPath(cfg.Log.LogDir)
	return cfg, nil
}

// ParsedRuleSet returns the rule set named by the configuration.
func (cfg *Config) ParsedRuleSet() (consensus.RuleSet, error) {
	return consensus.ParseRuleSet(cfg.RuleSet)
}

// SigCacheTTL returns the signature cache expiry as a duration.
func (cfg *Config) SigCacheTTL() (time.Duration, error) {
	d, err := time.ParseDuration(cfg.SigCacheExpiry)
	if err != nil {
		return 0, errors.Wrap(err, "invalid sig_cache_expiry")
	}
	if d <= 0 {
		return 0, errors.Errorf("sig_cache_expiry must be positive, got %s", cfg.SigCacheExpiry)
	}
	return d, nil
}

// AppDataDir returns the per-user data directory of the application.
func AppDataDir(appName string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "." + appName
	}
	return filepath.Join(home, "."+strings.ToLower(appName))
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.Replace(path, "~", home, 1)
		}
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
