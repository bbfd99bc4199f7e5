package wallet

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"testing"

	"golang.org/x/crypto/pbkdf2"
)

const testMnemonic12 = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestDeriveSeed_KnownVectors(t *testing.T) {
	tests := []struct {
		passphrase string
		want       string
	}{
		{"TREZOR", "c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04"},
		{"", "5eb00bbddcf069084889a8ab9155568165f5c453ccb85e70811aaed6f6da5fc19a5ac40b389cd370d086206dec8aa6c43daea6690f20ad3d8d48b2d2ce9e38e4"},
	}
	for _, tt := range tests {
		got := DeriveSeed(testMnemonic12, tt.passphrase)
		if hex.EncodeToString(got) != tt.want {
			t.Errorf("DeriveSeed(%q) = %x, want %s", tt.passphrase, got, tt.want)
		}
	}
}

func TestDeriveSeed_MatchesPBKDF2(t *testing.T) {
	m, err := GenerateMnemonic(DefaultStrength)
	if err != nil {
		t.Fatal(err)
	}
	want := pbkdf2.Key([]byte(m), []byte("mnemonic"+"pass phrase"), 2048, SeedSize, sha512.New)
	if got := DeriveSeed(m, "pass phrase"); !bytes.Equal(got, want) {
		t.Errorf("DeriveSeed() = %x, want %x", got, want)
	}
}

func TestDeriveSeed_Properties(t *testing.T) {
	a := DeriveSeed(testMnemonic12, "x")
	b := DeriveSeed(testMnemonic12, "x")
	c := DeriveSeed(testMnemonic12, "y")
	if len(a) != SeedSize {
		t.Fatalf("seed length = %d, want %d", len(a), SeedSize)
	}
	if !bytes.Equal(a, b) {
		t.Error("same mnemonic + passphrase should produce same seed")
	}
	if bytes.Equal(a, c) {
		t.Error("different passphrases should produce different seeds")
	}

	// No validation: any string is accepted.
	if len(DeriveSeed("not a mnemonic", "")) != SeedSize {
		t.Error("DeriveSeed should accept arbitrary input")
	}
}

func TestSeedFromMnemonic(t *testing.T) {
	seed, err := SeedFromMnemonic(testMnemonic12, "TREZOR")
	if err != nil {
		t.Fatalf("SeedFromMnemonic() error: %v", err)
	}
	if !bytes.Equal(seed, DeriveSeed(testMnemonic12, "TREZOR")) {
		t.Error("SeedFromMnemonic and DeriveSeed disagree")
	}

	for _, bad := range []string{"", "not valid words here"} {
		if _, err := SeedFromMnemonic(bad, ""); !errors.Is(err, ErrInvalidMnemonic) {
			t.Errorf("SeedFromMnemonic(%q) err = %v, want ErrInvalidMnemonic", bad, err)
		}
	}
}
