package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.MFA.Issuer != "CryptoWallet" || cfg.MFA.Digits != 6 || cfg.MFA.Period != 30 || cfg.MFA.Skew != 1 {
		t.Errorf("unexpected MFA defaults: %+v", cfg.MFA)
	}
	if cfg.Mnemonic.Strength != 256 {
		t.Errorf("strength = %d, want 256", cfg.Mnemonic.Strength)
	}
	if !cfg.Custody.Deterministic {
		t.Error("deterministic should default to true")
	}
}

func TestVaultDir(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/data"
	if got := cfg.VaultDir(); got != filepath.Join("/data", "vault") {
		t.Errorf("VaultDir = %q", got)
	}
	cfg.Storage.Path = "/elsewhere"
	if got := cfg.VaultDir(); got != "/elsewhere" {
		t.Errorf("VaultDir = %q, want /elsewhere", got)
	}
	if got := cfg.ConfigFile(); got != filepath.Join("/data", "custody.conf") {
		t.Errorf("ConfigFile = %q", got)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custody.conf")
	content := `# comment
storage.engine = leveldb
custody.mode = "cold"

mfa.digits = 8
log.json = yes
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(values) != 4 {
		t.Fatalf("got %d values, want 4", len(values))
	}
	if values["custody.mode"] != "cold" {
		t.Errorf("quotes not stripped: %q", values["custody.mode"])
	}

	cfg := Default()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}
	if cfg.Storage.Engine != "leveldb" || cfg.Custody.Mode != "cold" || cfg.MFA.Digits != 8 || !cfg.Log.JSON {
		t.Errorf("file values not applied: %+v", cfg)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "nope.conf"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("got %d values from missing file", len(values))
	}
}

func TestLoadFile_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custody.conf")
	os.WriteFile(path, []byte("storage.engine badger\n"), 0600)
	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("expected line error, got %v", err)
	}
}

func TestApplyFileConfig_Errors(t *testing.T) {
	tests := map[string]string{
		"no.such.key":       "1",
		"mfa.digits":        "six",
		"custody.account":   "-1",
		"mnemonic.strength": "x",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			cfg := Default()
			if err := ApplyFileConfig(cfg, map[string]string{key: value}); err == nil {
				t.Errorf("%s = %s accepted", key, value)
			}
		})
	}
}

func TestWriteDefaultConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custody.conf")
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}
	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	cfg := Default()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("default file has bad keys: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("default file invalid: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CUSTODY_STORAGE_ENGINE", "memory")
	t.Setenv("CUSTODY_MODE", "cold")
	t.Setenv("CUSTODY_DETERMINISTIC", "false")
	t.Setenv("CUSTODY_MFA_SKEW", "0")
	t.Setenv("CUSTODY_PASSWORD", "hunter2")

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if env.Password != "hunter2" {
		t.Errorf("password = %q", env.Password)
	}
	if env.Strength != nil {
		t.Error("unset variable should stay nil")
	}

	cfg := Default()
	ApplyEnv(cfg, env)
	if cfg.Storage.Engine != "memory" || cfg.Custody.Mode != "cold" || cfg.Custody.Deterministic || cfg.MFA.Skew != 0 {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.MFA.Digits != 6 {
		t.Error("unset env should keep default digits")
	}
}

func TestLoadEnv_BadValue(t *testing.T) {
	t.Setenv("CUSTODY_MFA_DIGITS", "many")
	if _, err := LoadEnv(); err == nil {
		t.Error("expected error for non-numeric digits")
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	conf := "storage.engine = leveldb\ncustody.mode = cold\nlog.level = debug\n"
	if err := os.WriteFile(filepath.Join(dir, "custody.conf"), []byte(conf), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CUSTODY_MODE", "simulated")

	cfg, err := Load(&Flags{DataDir: dir, LogLevel: "warn", SetLogJSON: true, LogJSON: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != dir {
		t.Errorf("datadir = %q", cfg.DataDir)
	}
	if cfg.Storage.Engine != "leveldb" {
		t.Errorf("file value lost: engine = %q", cfg.Storage.Engine)
	}
	if cfg.Custody.Mode != "simulated" {
		t.Errorf("env should override file: mode = %q", cfg.Custody.Mode)
	}
	if cfg.Log.Level != "warn" || !cfg.Log.JSON {
		t.Errorf("flags should override file: %+v", cfg.Log)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(&Flags{DataDir: dir, Storage: "sqlite"}); err == nil {
		t.Error("expected invalid engine error")
	}
}

func TestApplyFlags_BoolOverride(t *testing.T) {
	cfg := Default()
	ApplyFlags(cfg, &Flags{Deterministic: false})
	if !cfg.Custody.Deterministic {
		t.Error("unset flag should not override")
	}
	ApplyFlags(cfg, &Flags{SetDeterministic: true, Deterministic: false})
	if cfg.Custody.Deterministic {
		t.Error("explicit flag should override")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"engine", func(c *Config) { c.Storage.Engine = "bolt" }},
		{"mode", func(c *Config) { c.Custody.Mode = "hsm" }},
		{"account", func(c *Config) { c.Custody.Account = 1 << 31 }},
		{"kdf iterations", func(c *Config) { c.Custody.KDFIterations = 0 }},
		{"kdf parallelism", func(c *Config) { c.Custody.KDFParallelism = 0 }},
		{"kdf memory", func(c *Config) { c.Custody.KDFMemory = 1 << 30 }},
		{"strength", func(c *Config) { c.Mnemonic.Strength = 100 }},
		{"issuer empty", func(c *Config) { c.MFA.Issuer = " " }},
		{"issuer colon", func(c *Config) { c.MFA.Issuer = "a:b" }},
		{"digits", func(c *Config) { c.MFA.Digits = 7 }},
		{"period", func(c *Config) { c.MFA.Period = 0 }},
		{"skew", func(c *Config) { c.MFA.Skew = 5 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if err := Validate(nil); err == nil {
		t.Error("nil config accepted")
	}
}
