package custody

// Simulated is an in-process stand-in for an HSM. Keys are generated and
// used in memory; with a DB configured they are persisted sealed.
type Simulated struct {
	*keyring
}

// NewSimulated creates a simulated custodian and loads any persisted keys.
func NewSimulated(opts Options) (*Simulated, error) {
	kr, err := newKeyring(opts, ModeSimulated)
	if err != nil {
		return nil, err
	}
	kr.logger.Debug().Int("keys", len(kr.keys)).Msg("Simulated custodian ready")
	return &Simulated{keyring: kr}, nil
}

var (
	_ KeyCustodian = (*Simulated)(nil)
	_ SeedDeriver  = (*Simulated)(nil)
)
