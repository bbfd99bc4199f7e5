package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments). A missing file
// yields no values.
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		values[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}
	return values, scanner.Err()
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// ApplyFileConfig applies file values to cfg. Unknown keys are rejected so
// typos in security settings do not pass silently.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "datadir":
		cfg.DataDir = value

	// Storage
	case "storage.engine":
		cfg.Storage.Engine = strings.ToLower(value)
	case "storage.path":
		cfg.Storage.Path = value

	// Custody
	case "custody.mode":
		cfg.Custody.Mode = strings.ToLower(value)
	case "custody.deterministic":
		cfg.Custody.Deterministic = parseBool(value)
	case "custody.account":
		n, err := strconv.ParseUint(value, 10, 31)
		if err != nil {
			return err
		}
		cfg.Custody.Account = uint32(n)
	case "custody.kdf.memory":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.Custody.KDFMemory = uint32(n)
	case "custody.kdf.iterations":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.Custody.KDFIterations = uint32(n)
	case "custody.kdf.parallelism":
		n, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return err
		}
		cfg.Custody.KDFParallelism = uint8(n)

	// Mnemonic
	case "mnemonic.strength":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Mnemonic.Strength = n

	// MFA
	case "mfa.issuer":
		cfg.MFA.Issuer = value
	case "mfa.digits":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.MFA.Digits = n
	case "mfa.period":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.MFA.Period = uint(n)
	case "mfa.skew":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.MFA.Skew = uint(n)

	// Metrics
	case "metrics.textfile":
		cfg.Metrics.Textfile = value

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		return fmt.Errorf("unknown key")
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a commented default configuration file.
func WriteDefaultConfig(path string) error {
	content := `# Klingnet Custody Configuration
#
# Environment variables (CUSTODY_*) and command-line flags override
# the values in this file.

# Data directory (default: ~/.klingnet-custody)
# datadir = ~/.klingnet-custody

# ============================================================================
# Storage
# ============================================================================

# Engine: memory, badger or leveldb
storage.engine = badger
# storage.path = ~/.klingnet-custody/vault

# ============================================================================
# Custody
# ============================================================================

# Custodian: simulated or cold (cold allows key export)
custody.mode = simulated

# Derive the signing key from the mnemonic (BIP-44 m/44'/60'/account'/0/0).
# When false the key is random and the mnemonic cannot restore the wallet.
custody.deterministic = true
custody.account = 0

# Argon2id parameters for sealing keys at rest
custody.kdf.memory = 65536
custody.kdf.iterations = 3
custody.kdf.parallelism = 4

# ============================================================================
# Mnemonic and MFA
# ============================================================================

# Entropy bits: 128, 160, 192, 224 or 256
mnemonic.strength = 256

mfa.issuer = CryptoWallet
mfa.digits = 6
mfa.period = 30
mfa.skew = 1

# ============================================================================
# Metrics and logging
# ============================================================================

# metrics.textfile = /var/lib/node_exporter/custody.prom

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0600)
}
