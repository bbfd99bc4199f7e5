// Package config handles custody service configuration.
//
// Values are layered in this order, later layers winning:
//   - built-in defaults
//   - the custody.conf key = value file
//   - CUSTODY_* environment variables
//   - command-line flags
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config holds the custody service configuration.
type Config struct {
	DataDir string `conf:"datadir"`

	Storage  StorageConfig
	Custody  CustodyConfig
	Mnemonic MnemonicConfig
	MFA      MFAConfig
	Metrics  MetricsConfig
	Log      LogConfig
}

// StorageConfig selects the vault database.
type StorageConfig struct {
	Engine string `conf:"storage.engine"` // memory, badger or leveldb
	Path   string `conf:"storage.path"`   // default: <datadir>/vault
}

// CustodyConfig selects the custodian and how keys are produced and sealed.
type CustodyConfig struct {
	Mode          string `conf:"custody.mode"` // simulated or cold
	Deterministic bool   `conf:"custody.deterministic"`
	Account       uint32 `conf:"custody.account"`

	// Argon2id parameters for sealing keys and MFA secrets at rest.
	KDFMemory      uint32 `conf:"custody.kdf.memory"` // KiB
	KDFIterations  uint32 `conf:"custody.kdf.iterations"`
	KDFParallelism uint8  `conf:"custody.kdf.parallelism"`
}

// MnemonicConfig holds mnemonic generation settings.
type MnemonicConfig struct {
	Strength int `conf:"mnemonic.strength"`
}

// MFAConfig holds TOTP parameters.
type MFAConfig struct {
	Issuer string `conf:"mfa.issuer"`
	Digits int    `conf:"mfa.digits"`
	Period uint   `conf:"mfa.period"`
	Skew   uint   `conf:"mfa.skew"`
}

// MetricsConfig holds the prometheus textfile output.
type MetricsConfig struct {
	Textfile string `conf:"metrics.textfile"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingnet-custody
//	macOS:   ~/Library/Application Support/KlingnetCustody
//	Windows: %APPDATA%\KlingnetCustody
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-custody"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "KlingnetCustody")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "KlingnetCustody")
		}
		return filepath.Join(home, "AppData", "Roaming", "KlingnetCustody")
	default:
		return filepath.Join(home, ".klingnet-custody")
	}
}

// VaultDir returns the storage directory.
func (c *Config) VaultDir() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return filepath.Join(c.DataDir, "vault")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "custody.conf")
}

// Load builds the configuration from defaults, the config file, the
// environment and f, in that order, and validates the result.
func Load(f *Flags) (*Config, error) {
	if f == nil {
		f = &Flags{}
	}
	cfg := Default()

	env, err := LoadEnv()
	if err != nil {
		return nil, err
	}
	// The data directory decides where the config file lives, so it is
	// resolved before the file is read.
	if env.DataDir != nil {
		cfg.DataDir = *env.DataDir
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	configPath := f.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}
	values, err := LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, values); err != nil {
		return nil, fmt.Errorf("applying config file: %w", err)
	}

	ApplyEnv(cfg, env)
	ApplyFlags(cfg, f)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
