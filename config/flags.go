package config

// Flags holds command-line overrides. Zero values mean "not given"; the
// Set* fields record explicitly given booleans so false can override true.
type Flags struct {
	DataDir string
	Config  string

	Storage       string
	Custody       string
	Deterministic bool
	Strength      int

	LogLevel string
	LogFile  string
	LogJSON  bool

	SetDeterministic bool
	SetLogJSON       bool
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if f.Storage != "" {
		cfg.Storage.Engine = f.Storage
	}
	if f.Custody != "" {
		cfg.Custody.Mode = f.Custody
	}
	if f.SetDeterministic {
		cfg.Custody.Deterministic = f.Deterministic
	}
	if f.Strength != 0 {
		cfg.Mnemonic.Strength = f.Strength
	}
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}
