package config

import (
	"fmt"
	"strings"

	"github.com/Klingon-tech/klingnet-custody/internal/wallet"
)

// Validate checks the configuration for operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	switch cfg.Storage.Engine {
	case "memory", "badger", "leveldb":
	default:
		return fmt.Errorf("storage.engine must be memory, badger or leveldb")
	}
	if cfg.Storage.Engine != "memory" && cfg.DataDir == "" && cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path or datadir is required for %s", cfg.Storage.Engine)
	}

	switch cfg.Custody.Mode {
	case "simulated", "cold":
	default:
		return fmt.Errorf("custody.mode must be simulated or cold")
	}
	if cfg.Custody.Account >= 1<<31 {
		return fmt.Errorf("custody.account must be below 2^31")
	}
	kdf := wallet.EncryptionParams{
		Memory:      cfg.Custody.KDFMemory,
		Iterations:  cfg.Custody.KDFIterations,
		Parallelism: cfg.Custody.KDFParallelism,
	}
	if err := kdf.Validate(); err != nil {
		return fmt.Errorf("custody.kdf: %w", err)
	}

	switch cfg.Mnemonic.Strength {
	case 128, 160, 192, 224, 256:
	default:
		return fmt.Errorf("mnemonic.strength must be one of 128, 160, 192, 224, 256")
	}

	if strings.TrimSpace(cfg.MFA.Issuer) == "" || strings.Contains(cfg.MFA.Issuer, ":") {
		return fmt.Errorf("mfa.issuer must be non-empty and must not contain ':'")
	}
	if cfg.MFA.Digits != 6 && cfg.MFA.Digits != 8 {
		return fmt.Errorf("mfa.digits must be 6 or 8")
	}
	if cfg.MFA.Period < 15 || cfg.MFA.Period > 300 {
		return fmt.Errorf("mfa.period must be in range [15, 300] seconds")
	}
	if cfg.MFA.Skew > 2 {
		return fmt.Errorf("mfa.skew must be at most 2 steps")
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error", "disabled", "off":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, error or disabled")
	}
	return nil
}
