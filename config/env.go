package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by LoadEnv.
const EnvPrefix = "CUSTODY"

// Env holds configuration read from CUSTODY_* variables. Nil fields were
// not set.
type Env struct {
	DataDir *string `envconfig:"DATADIR"`

	StorageEngine *string `envconfig:"STORAGE_ENGINE"`
	StoragePath   *string `envconfig:"STORAGE_PATH"`

	Mode          *string `envconfig:"MODE"`
	Deterministic *bool   `envconfig:"DETERMINISTIC"`
	Account       *uint32 `envconfig:"ACCOUNT"`

	Strength *int `envconfig:"MNEMONIC_STRENGTH"`

	MFAIssuer *string `envconfig:"MFA_ISSUER"`
	MFADigits *int    `envconfig:"MFA_DIGITS"`
	MFAPeriod *uint   `envconfig:"MFA_PERIOD"`
	MFASkew   *uint   `envconfig:"MFA_SKEW"`

	MetricsTextfile *string `envconfig:"METRICS_TEXTFILE"`

	LogLevel *string `envconfig:"LOG_LEVEL"`
	LogFile  *string `envconfig:"LOG_FILE"`
	LogJSON  *bool   `envconfig:"LOG_JSON"`

	// Password unlocks the vault. It never enters Config.
	Password string `envconfig:"PASSWORD"`
}

// LoadEnv reads CUSTODY_* environment variables.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &env, nil
}

// ApplyEnv overlays the set environment values onto cfg.
func ApplyEnv(cfg *Config, env *Env) {
	if env == nil {
		return
	}
	setString(&cfg.DataDir, env.DataDir)
	setString(&cfg.Storage.Engine, env.StorageEngine)
	setString(&cfg.Storage.Path, env.StoragePath)
	setString(&cfg.Custody.Mode, env.Mode)
	if env.Deterministic != nil {
		cfg.Custody.Deterministic = *env.Deterministic
	}
	if env.Account != nil {
		cfg.Custody.Account = *env.Account
	}
	if env.Strength != nil {
		cfg.Mnemonic.Strength = *env.Strength
	}
	setString(&cfg.MFA.Issuer, env.MFAIssuer)
	if env.MFADigits != nil {
		cfg.MFA.Digits = *env.MFADigits
	}
	if env.MFAPeriod != nil {
		cfg.MFA.Period = *env.MFAPeriod
	}
	if env.MFASkew != nil {
		cfg.MFA.Skew = *env.MFASkew
	}
	setString(&cfg.Metrics.Textfile, env.MetricsTextfile)
	setString(&cfg.Log.Level, env.LogLevel)
	setString(&cfg.Log.File, env.LogFile)
	if env.LogJSON != nil {
		cfg.Log.JSON = *env.LogJSON
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
