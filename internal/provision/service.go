// Package provision creates wallets and gates signing behind the second
// factor. It ties together the custodian, the MFA gate, the binding table
// and the wallet repository.
package provision

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/Klingon-tech/klingnet-custody/internal/custody"
	klog "github.com/Klingon-tech/klingnet-custody/internal/log"
	"github.com/Klingon-tech/klingnet-custody/internal/metrics"
	"github.com/Klingon-tech/klingnet-custody/internal/mfa"
	"github.com/Klingon-tech/klingnet-custody/internal/repo"
	"github.com/Klingon-tech/klingnet-custody/internal/wallet"
	"github.com/Klingon-tech/klingnet-custody/pkg/crypto"
	"github.com/Klingon-tech/klingnet-custody/pkg/types"
)

// Origins recorded in the wallets-created metric.
const (
	originGenerated = "generated"
	originRestored  = "restored"
)

// Config controls wallet creation.
type Config struct {
	// Strength is the mnemonic entropy in bits.
	Strength int
	// Deterministic derives the signing key from the mnemonic seed when the
	// custodian supports it. When false the key is random and the mnemonic
	// cannot restore the wallet.
	Deterministic bool
	// Account is the BIP-44 account used for derivation.
	Account uint32
}

// DefaultConfig returns the defaults used by the CLI.
func DefaultConfig() Config {
	return Config{Strength: wallet.DefaultStrength, Deterministic: true}
}

// Deps are the collaborators of a Service.
type Deps struct {
	Custodian custody.KeyCustodian
	Bindings  *Bindings
	Gate      *mfa.Gate
	Repo      repo.Repository
	Metrics   *metrics.Metrics // optional
}

// Service is the wallet provisioning orchestrator.
type Service struct {
	cfg       Config
	custodian custody.KeyCustodian
	bindings  *Bindings
	gate      *mfa.Gate
	repo      repo.Repository
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewService creates a Service.
func NewService(cfg Config, deps Deps) *Service {
	m := deps.Metrics
	if m == nil {
		m = metrics.NewMetrics()
	}
	return &Service{
		cfg:       cfg,
		custodian: deps.Custodian,
		bindings:  deps.Bindings,
		gate:      deps.Gate,
		repo:      deps.Repo,
		metrics:   m,
		logger:    klog.Provision,
	}
}

// Created is returned once by CreateWallet and RestoreWallet. The mnemonic
// and MFA secret are not retained anywhere else in readable form.
type Created struct {
	Mnemonic        string
	Address         types.Address
	MFASecret       string
	ProvisioningURI string
	PublicKeyPEM    string
}

// Signed is the result of SignTransaction.
type Signed struct {
	Address   types.Address
	Signature []byte // DER
	PublicKey []byte // 65-byte uncompressed
}

// SignatureHex returns the DER signature as lowercase hex.
func (s *Signed) SignatureHex() string {
	return hex.EncodeToString(s.Signature)
}

// PublicKeyPEM returns the public key as a PEM SubjectPublicKeyInfo block.
func (s *Signed) PublicKeyPEM() (string, error) {
	out, err := crypto.MarshalPublicKeyPEM(s.PublicKey)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// CreateWallet generates a mnemonic, provisions a key and binds a fresh MFA
// secret to the resulting address.
func (s *Service) CreateWallet(ctx context.Context, passphrase string) (*Created, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mnemonic, err := wallet.GenerateMnemonic(s.cfg.Strength)
	if err != nil {
		return nil, err
	}
	seed := wallet.DeriveSeed(mnemonic, passphrase)
	defer zero(seed)

	var h custody.KeyHandle
	id := uuid.NewString()
	if d, ok := s.custodian.(custody.SeedDeriver); ok && s.cfg.Deterministic {
		h, err = d.DeriveKey(id, seed, s.cfg.Account, 0)
	} else {
		h, err = s.custodian.GenerateKey(id)
	}
	if err != nil {
		return nil, fmt.Errorf("provision key: %w", err)
	}

	created, err := s.provision(ctx, h, originGenerated)
	if err != nil {
		return nil, err
	}
	created.Mnemonic = mnemonic
	return created, nil
}

// RestoreWallet re-derives the key for mnemonic and binds a new MFA secret.
// The address must not already be bound.
func (s *Service) RestoreWallet(ctx context.Context, mnemonic, passphrase string) (*Created, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, ok := s.custodian.(custody.SeedDeriver)
	if !ok {
		return nil, fmt.Errorf("%w: custodian cannot derive keys from a seed", ErrInvalidParameter)
	}
	seed, err := wallet.SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer zero(seed)

	h, err := d.DeriveKey(uuid.NewString(), seed, s.cfg.Account, 0)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return s.provision(ctx, h, originRestored)
}

// provision binds a freshly stored key. On any failure the key is revoked
// so no orphan handle survives.
func (s *Service) provision(ctx context.Context, h custody.KeyHandle, origin string) (*Created, error) {
	created, err := s.bind(ctx, h)
	if err != nil {
		if rerr := s.custodian.Revoke(h); rerr != nil {
			s.logger.Error().Err(rerr).Str("handle", string(h)).Msg("Failed to revoke orphaned key")
		}
		return nil, err
	}
	s.metrics.WalletsCreated.WithLabelValues(origin).Inc()
	s.logger.Info().
		Str("address", created.Address.Hex()).
		Str("origin", origin).
		Msg("Wallet provisioned")
	return created, nil
}

func (s *Service) bind(ctx context.Context, h custody.KeyHandle) (*Created, error) {
	pub, err := s.custodian.PublicKey(h)
	if err != nil {
		return nil, err
	}
	addr, err := crypto.AddressFromPubKey(pub)
	if err != nil {
		return nil, err
	}
	pubPEM, err := crypto.MarshalPublicKeyPEM(pub)
	if err != nil {
		return nil, err
	}
	enroll, err := s.gate.Issue(addr)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.bindings.Bind(addr, Binding{Handle: h, Secret: enroll.Secret}); err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, addr, new(uint256.Int)); err != nil {
		// Keep table and repository consistent.
		if _, uerr := s.bindings.Unbind(addr); uerr != nil {
			s.logger.Error().Err(uerr).Str("address", addr.Hex()).Msg("Failed to roll back binding")
		}
		return nil, err
	}
	return &Created{
		Address:         addr,
		MFASecret:       enroll.Secret,
		ProvisioningURI: enroll.URI,
		PublicKeyPEM:    string(pubPEM),
	}, nil
}

// authorize resolves the binding for addr and checks code against that
// binding's secret. The custodian is never touched when it fails.
func (s *Service) authorize(addr types.Address, code, operation string) (Binding, error) {
	// One lookup supplies both the secret and the handle. bind.Secret is
	// empty for an unknown address and the gate still does the HMAC work.
	bind, ok := s.bindings.Lookup(addr)
	valid := s.gate.VerifySecret(bind.Secret, code)
	if !ok {
		s.metrics.MFAFailures.WithLabelValues(operation).Inc()
		return Binding{}, fmt.Errorf("%w: %s", ErrUnknownAddress, addr.Hex())
	}
	if !valid {
		s.metrics.MFAFailures.WithLabelValues(operation).Inc()
		s.logger.Warn().Str("address", addr.Hex()).Str("operation", operation).Msg("MFA verification failed")
		return Binding{}, ErrInvalidMFACode
	}
	return bind, nil
}

// SignTransaction signs payload with the key bound to addr after checking
// the MFA code.
func (s *Service) SignTransaction(ctx context.Context, addr types.Address, payload []byte, code string) (*Signed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bind, err := s.authorize(addr, code, "sign")
	if err != nil {
		if errors.Is(err, ErrUnknownAddress) {
			s.metrics.SignRequests.WithLabelValues(metrics.ResultUnknownAddress).Inc()
		} else {
			s.metrics.SignRequests.WithLabelValues(metrics.ResultBadCode).Inc()
		}
		return nil, err
	}

	start := time.Now()
	sig, err := s.custodian.Sign(bind.Handle, payload)
	s.metrics.ObserveSigning(start)
	if err != nil {
		s.metrics.SignRequests.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("sign: %w", err)
	}
	pub, err := s.custodian.PublicKey(bind.Handle)
	if err != nil {
		s.metrics.SignRequests.WithLabelValues(metrics.ResultError).Inc()
		return nil, err
	}
	s.metrics.SignRequests.WithLabelValues(metrics.ResultOK).Inc()
	s.logger.Info().Str("address", addr.Hex()).Int("payload_len", len(payload)).Msg("Transaction signed")
	return &Signed{Address: addr, Signature: sig, PublicKey: pub}, nil
}

// DeleteWallet revokes the key of addr, drops its binding and deletes the
// repository record. It requires a valid MFA code.
func (s *Service) DeleteWallet(ctx context.Context, addr types.Address, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.authorize(addr, code, "delete"); err != nil {
		return err
	}
	bind, err := s.bindings.Unbind(addr)
	if err != nil {
		return err
	}
	if err := s.custodian.Revoke(bind.Handle); err != nil {
		return fmt.Errorf("revoke key: %w", err)
	}
	if err := s.repo.Delete(ctx, addr); err != nil {
		return err
	}
	s.metrics.WalletsDeleted.Inc()
	s.logger.Info().Str("address", addr.Hex()).Msg("Wallet deleted")
	return nil
}

// ExportKey returns the PKCS#8 PEM private key of addr. It requires a
// custodian that supports export and a valid MFA code.
func (s *Service) ExportKey(ctx context.Context, addr types.Address, code string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	exp, ok := s.custodian.(custody.Exporter)
	if !ok {
		return nil, ErrExportUnsupported
	}
	bind, err := s.authorize(addr, code, "export")
	if err != nil {
		return nil, err
	}
	out, err := exp.Export(bind.Handle)
	if err != nil {
		return nil, err
	}
	s.metrics.KeyExports.Inc()
	return out, nil
}

// Wallet returns the repository record for addr.
func (s *Service) Wallet(ctx context.Context, addr types.Address) (*repo.Wallet, error) {
	return s.repo.Get(ctx, addr)
}

// Wallets lists all repository records.
func (s *Service) Wallets(ctx context.Context) ([]*repo.Wallet, error) {
	return s.repo.List(ctx)
}

// Enrollment returns the provisioning URI for a bound address, for
// re-displaying the QR code.
func (s *Service) Enrollment(addr types.Address, code string) (string, error) {
	bind, err := s.authorize(addr, code, "enrollment")
	if err != nil {
		return "", err
	}
	return s.gate.URI(addr, bind.Secret)
}

// Metrics returns the service collectors.
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// VerifySignature checks a hex DER signature over payload against a PEM
// public key.
func VerifySignature(pubPEM string, payload []byte, sigHex string) (bool, error) {
	pub, err := crypto.ParsePublicKeyPEM([]byte(pubPEM))
	if err != nil {
		return false, fmt.Errorf("%w: public key: %v", ErrInvalidParameter, err)
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return false, fmt.Errorf("%w: signature hex: %v", ErrInvalidParameter, err)
	}
	return crypto.VerifyMessage(payload, sig, pub), nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
