package crypto

import (
	"encoding/asn1"
	"encoding/pem"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// PEM block types.
const (
	PEMPublicKey  = "PUBLIC KEY"
	PEMPrivateKey = "PRIVATE KEY"
)

var (
	oidPublicKeyECDSA      = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidNamedCurveSecp256k1 = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

// ecPrivKeyVersion is the ECPrivateKey structure version (RFC 5915).
const ecPrivKeyVersion = 1

type algorithmIdentifier struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}

// subjectPublicKeyInfo is the X.509 SPKI structure (RFC 5280 4.1).
type subjectPublicKeyInfo struct {
	Algorithm algorithmIdentifier
	PublicKey asn1.BitString
}

// pkcs8 is PrivateKeyInfo (RFC 5208 5).
type pkcs8 struct {
	Version    int
	Algorithm  algorithmIdentifier
	PrivateKey []byte
}

// ecPrivateKey is the SEC 1 ECPrivateKey structure (RFC 5915 3).
type ecPrivateKey struct {
	Version       int
	PrivateKey    []byte
	NamedCurveOID asn1.ObjectIdentifier `asn1:"optional,explicit,tag:0"`
	PublicKey     asn1.BitString        `asn1:"optional,explicit,tag:1"`
}

func secp256k1Algorithm() algorithmIdentifier {
	return algorithmIdentifier{Algorithm: oidPublicKeyECDSA, Parameters: oidNamedCurveSecp256k1}
}

func (a algorithmIdentifier) isSecp256k1() bool {
	return a.Algorithm.Equal(oidPublicKeyECDSA) && a.Parameters.Equal(oidNamedCurveSecp256k1)
}

// MarshalPublicKeyPEM encodes a public key as a PEM SubjectPublicKeyInfo
// block with the uncompressed point.
func MarshalPublicKeyPEM(publicKey []byte) ([]byte, error) {
	key, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	point := key.SerializeUncompressed()
	der, err := asn1.Marshal(subjectPublicKeyInfo{
		Algorithm: secp256k1Algorithm(),
		PublicKey: asn1.BitString{Bytes: point, BitLength: len(point) * 8},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: PEMPublicKey, Bytes: der}), nil
}

// ParsePublicKeyPEM decodes a PEM SubjectPublicKeyInfo block and returns the
// uncompressed 65-byte public key.
func ParsePublicKeyPEM(data []byte) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != PEMPublicKey {
		return nil, fmt.Errorf("no %q PEM block", PEMPublicKey)
	}
	var spki subjectPublicKeyInfo
	rest, err := asn1.Unmarshal(block.Bytes, &spki)
	if err != nil {
		return nil, fmt.Errorf("parse public key info: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("trailing data after public key info")
	}
	if !spki.Algorithm.isSecp256k1() {
		return nil, fmt.Errorf("public key is not ecdsa/secp256k1")
	}
	key, err := secp256k1.ParsePubKey(spki.PublicKey.RightAlign())
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return key.SerializeUncompressed(), nil
}

// MarshalPrivateKeyPEM encodes a private key as an unencrypted PKCS#8 PEM
// block. The output is plaintext key material.
func MarshalPrivateKeyPEM(pk *PrivateKey) ([]byte, error) {
	secret := pk.Serialize()
	defer clear(secret)

	point := pk.PublicKey()
	inner, err := asn1.Marshal(ecPrivateKey{
		Version:    ecPrivKeyVersion,
		PrivateKey: secret,
		PublicKey:  asn1.BitString{Bytes: point, BitLength: len(point) * 8},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal ec private key: %w", err)
	}
	defer clear(inner)

	der, err := asn1.Marshal(pkcs8{
		Version:    0,
		Algorithm:  secp256k1Algorithm(),
		PrivateKey: inner,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal pkcs8: %w", err)
	}
	defer clear(der)

	return pem.EncodeToMemory(&pem.Block{Type: PEMPrivateKey, Bytes: der}), nil
}

// ParsePrivateKeyPEM decodes an unencrypted PKCS#8 PEM block holding a
// secp256k1 key.
func ParsePrivateKeyPEM(data []byte) (*PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != PEMPrivateKey {
		return nil, fmt.Errorf("no %q PEM block", PEMPrivateKey)
	}
	defer clear(block.Bytes)

	var info pkcs8
	if _, err := asn1.Unmarshal(block.Bytes, &info); err != nil {
		return nil, fmt.Errorf("parse pkcs8: %w", err)
	}
	if !info.Algorithm.isSecp256k1() {
		return nil, fmt.Errorf("private key is not ecdsa/secp256k1")
	}

	var inner ecPrivateKey
	if _, err := asn1.Unmarshal(info.PrivateKey, &inner); err != nil {
		return nil, fmt.Errorf("parse ec private key: %w", err)
	}
	if inner.Version != ecPrivKeyVersion {
		return nil, fmt.Errorf("unsupported ec private key version %d", inner.Version)
	}
	if inner.NamedCurveOID != nil && !inner.NamedCurveOID.Equal(oidNamedCurveSecp256k1) {
		return nil, fmt.Errorf("private key curve is not secp256k1")
	}

	key, err := PrivateKeyFromBytes(inner.PrivateKey)
	clear(inner.PrivateKey)
	if err != nil {
		return nil, err
	}
	return key, nil
}
