package custody

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-custody/pkg/crypto"
)

// Cold is a custodian for offline keys. It behaves like Simulated and also
// allows exporting and importing keys as PKCS#8 PEM.
type Cold struct {
	*keyring
}

// NewCold creates a cold custodian and loads any persisted keys.
func NewCold(opts Options) (*Cold, error) {
	kr, err := newKeyring(opts, ModeCold)
	if err != nil {
		return nil, err
	}
	kr.logger.Debug().Int("keys", len(kr.keys)).Msg("Cold custodian ready")
	return &Cold{keyring: kr}, nil
}

// Export returns the private key as unencrypted PKCS#8 PEM.
func (c *Cold) Export(h KeyHandle) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.keys[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, h)
	}
	out, err := crypto.MarshalPrivateKeyPEM(e.priv)
	if err != nil {
		return nil, fmt.Errorf("export key: %w", err)
	}
	c.logger.Warn().Str("handle", string(h)).Msg("Private key exported")
	return out, nil
}

// Import stores a PKCS#8 PEM private key under identifier.
func (c *Cold) Import(identifier string, pemData []byte) (KeyHandle, error) {
	priv, err := crypto.ParsePrivateKeyPEM(pemData)
	if err != nil {
		return "", fmt.Errorf("import key: %w", err)
	}
	return c.add(identifier, priv)
}

var (
	_ KeyCustodian = (*Cold)(nil)
	_ SeedDeriver  = (*Cold)(nil)
	_ Exporter     = (*Cold)(nil)
)
