// derive_key.go prints the public key PEM and address for an exported key.
// The key file may be PKCS#8 PEM (custody-cli export) or a hex private key.
// Usage: go run scripts/derive_key.go <keyfile>
package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/Klingon-tech/klingnet-custody/pkg/crypto"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: derive_key <keyfile>")
		os.Exit(1)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		die(err)
	}

	var key *crypto.PrivateKey
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("-----BEGIN")) {
		key, err = crypto.ParsePrivateKeyPEM(data)
	} else {
		var keyBytes []byte
		keyBytes, err = hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(string(data)), "0x"))
		if err == nil {
			key, err = crypto.PrivateKeyFromBytes(keyBytes)
		}
	}
	if err != nil {
		die(err)
	}
	defer key.Zero()

	pub := key.PublicKey()
	addr, err := crypto.AddressFromPubKey(pub)
	if err != nil {
		die(err)
	}
	pubPEM, err := crypto.MarshalPublicKeyPEM(pub)
	if err != nil {
		die(err)
	}
	fmt.Printf("address=%s\n", addr.Hex())
	fmt.Printf("pubkey=%s\n", hex.EncodeToString(pub))
	fmt.Print(string(pubPEM))
}

func die(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
