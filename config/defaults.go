package config

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		Storage: StorageConfig{
			Engine: "badger",
		},
		Custody: CustodyConfig{
			Mode:           "simulated",
			Deterministic:  true,
			KDFMemory:      64 * 1024,
			KDFIterations:  3,
			KDFParallelism: 4,
		},
		Mnemonic: MnemonicConfig{
			Strength: 256,
		},
		MFA: MFAConfig{
			Issuer: "CryptoWallet",
			Digits: 6,
			Period: 30,
			Skew:   1,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
