// Package mfa issues and verifies the TOTP second factor that gates
// signing.
package mfa

import (
	"encoding/base32"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	klog "github.com/Klingon-tech/klingnet-custody/internal/log"
	"github.com/Klingon-tech/klingnet-custody/pkg/types"
)

// SecretSize is the MFA secret length in bytes (160 bits).
const SecretSize = 20

// Config holds TOTP parameters.
type Config struct {
	Issuer string
	Digits int
	Period uint // seconds
	Skew   uint // steps accepted either side of the current one
}

// DefaultConfig returns the parameters used by authenticator apps out of
// the box: 6 digits, 30 second steps, SHA-1.
func DefaultConfig() Config {
	return Config{
		Issuer: "CryptoWallet",
		Digits: 6,
		Period: 30,
		Skew:   1,
	}
}

// SecretSource looks up the MFA secret bound to an address.
type SecretSource interface {
	MFASecret(addr types.Address) (string, bool)
}

// Enrollment is what a user needs to register the second factor.
type Enrollment struct {
	Secret string // base32, no padding
	URI    string // otpauth:// provisioning URI
}

// Gate verifies codes against secrets from a SecretSource.
type Gate struct {
	cfg    Config
	src    SecretSource
	now    func() time.Time
	logger zerolog.Logger
}

// NewGate creates a gate reading secrets from src.
func NewGate(cfg Config, src SecretSource) *Gate {
	return &Gate{
		cfg:    cfg,
		src:    src,
		now:    time.Now,
		logger: klog.MFA,
	}
}

// SetClock replaces the time source.
func (g *Gate) SetClock(now func() time.Time) {
	g.now = now
}

// Config returns the gate's parameters.
func (g *Gate) Config() Config {
	return g.cfg
}

func (g *Gate) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    g.cfg.Period,
		Skew:      g.cfg.Skew,
		Digits:    otp.Digits(g.cfg.Digits),
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Issue creates a new secret and provisioning URI for addr. Nothing is
// stored; the caller binds the secret.
func (g *Gate) Issue(addr types.Address) (Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      g.cfg.Issuer,
		AccountName: addr.Hex(),
		Period:      g.cfg.Period,
		SecretSize:  SecretSize,
		Digits:      otp.Digits(g.cfg.Digits),
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return Enrollment{}, fmt.Errorf("generate mfa secret: %w", err)
	}
	return Enrollment{Secret: key.Secret(), URI: key.URL()}, nil
}

// URI rebuilds the provisioning URI for an existing secret.
func (g *Gate) URI(addr types.Address, secret string) (string, error) {
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	if err != nil {
		return "", fmt.Errorf("decode mfa secret: %w", err)
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      g.cfg.Issuer,
		AccountName: addr.Hex(),
		Period:      g.cfg.Period,
		Secret:      raw,
		Digits:      otp.Digits(g.cfg.Digits),
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("build provisioning uri: %w", err)
	}
	return key.URL(), nil
}

// Verify reports whether code is valid now for the secret bound to addr.
// An unknown address and a wrong code both return false.
func (g *Gate) Verify(addr types.Address, code string) bool {
	secret, ok := g.src.MFASecret(addr)
	if !ok {
		g.logger.Debug().Str("address", addr.Hex()).Msg("No MFA secret bound")
	}
	return g.VerifySecret(secret, code)
}

// decoySecret is checked when no secret is bound so a miss costs the same
// HMAC work as a wrong code.
var decoySecret = base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(make([]byte, SecretSize))

// VerifySecret reports whether code is valid now for secret. An empty
// secret is always rejected, after validating against a decoy.
func (g *Gate) VerifySecret(secret, code string) bool {
	if secret == "" {
		totp.ValidateCustom(code, decoySecret, g.now(), g.opts())
		return false
	}
	valid, err := totp.ValidateCustom(code, secret, g.now(), g.opts())
	if err != nil {
		g.logger.Debug().Err(err).Msg("MFA code rejected")
		return false
	}
	return valid
}

// Code computes the code for secret at t.
func (g *Gate) Code(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t, g.opts())
}

// QRCode renders uri as a PNG of size x size pixels.
func QRCode(uri string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	qr, err := qrcode.New(uri, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return qr.PNG(size)
}
