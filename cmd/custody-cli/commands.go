package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Klingon-tech/klingnet-custody/config"
	"github.com/Klingon-tech/klingnet-custody/internal/mfa"
	"github.com/Klingon-tech/klingnet-custody/internal/provision"
	"github.com/Klingon-tech/klingnet-custody/pkg/types"
)

var (
	initCommand = &cli.Command{
		Name:   "init",
		Usage:  "write a default custody.conf into the data directory",
		Action: cmdInit,
	}
	createCommand = &cli.Command{
		Name:  "create",
		Usage: "create a wallet and enroll its authenticator",
		Flags: []cli.Flag{
			passphraseFlag,
			&cli.StringFlag{Name: "qr", Usage: "write the enrollment QR code PNG to `FILE`"},
		},
		Action: cmdCreate,
	}
	restoreCommand = &cli.Command{
		Name:  "restore",
		Usage: "restore a wallet from its mnemonic and enroll a new authenticator",
		Flags: []cli.Flag{
			passphraseFlag,
			&cli.StringFlag{Name: "mnemonic-file", Usage: "read the mnemonic from `FILE` instead of prompting"},
			&cli.StringFlag{Name: "qr", Usage: "write the enrollment QR code PNG to `FILE`"},
		},
		Action: cmdRestore,
	}
	signCommand = &cli.Command{
		Name:   "sign",
		Usage:  "sign a payload with a wallet key",
		Flags:  append([]cli.Flag{addressFlag, codeFlag}, payloadFlags()...),
		Action: cmdSign,
	}
	verifyCommand = &cli.Command{
		Name:  "verify",
		Usage: "verify a signature against a PEM public key",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "pubkey", Usage: "PEM public key `FILE`", Required: true},
			&cli.StringFlag{Name: "signature", Usage: "DER signature as hex", Required: true},
		}, payloadFlags()...),
		Action: cmdVerify,
	}
	exportCommand = &cli.Command{
		Name:  "export",
		Usage: "export a wallet private key as PKCS#8 PEM (cold custody only)",
		Flags: []cli.Flag{
			addressFlag,
			codeFlag,
			&cli.StringFlag{Name: "out", Usage: "write the key to `FILE` instead of stdout"},
		},
		Action: cmdExport,
	}
	deleteCommand = &cli.Command{
		Name:   "delete",
		Usage:  "revoke a wallet key and remove the wallet",
		Flags:  []cli.Flag{addressFlag, codeFlag},
		Action: cmdDelete,
	}
	listCommand = &cli.Command{
		Name:   "list",
		Usage:  "list wallets",
		Action: cmdList,
	}
	showCommand = &cli.Command{
		Name:   "show",
		Usage:  "show a wallet record",
		Flags:  []cli.Flag{addressFlag},
		Action: cmdShow,
	}
	qrCommand = &cli.Command{
		Name:  "qr",
		Usage: "re-display the authenticator enrollment for a wallet",
		Flags: []cli.Flag{
			addressFlag,
			codeFlag,
			&cli.StringFlag{Name: "out", Usage: "write the QR code PNG to `FILE`"},
			&cli.IntFlag{Name: "size", Usage: "QR code size in pixels", Value: 256},
		},
		Action: cmdQR,
	}
)

func payloadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "payload", Usage: "payload as a UTF-8 string"},
		&cli.StringFlag{Name: "payload-hex", Usage: "payload as hex"},
		&cli.StringFlag{Name: "payload-file", Usage: "read the payload from `FILE`"},
	}
}

// readPayload returns the payload given by exactly one of the payload flags.
func readPayload(c *cli.Context) ([]byte, error) {
	set := 0
	for _, name := range []string{"payload", "payload-hex", "payload-file"} {
		if c.IsSet(name) {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("exactly one of --payload, --payload-hex or --payload-file is required")
	}
	switch {
	case c.IsSet("payload-hex"):
		b, err := hex.DecodeString(strings.TrimPrefix(c.String("payload-hex"), "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid payload hex: %w", err)
		}
		return b, nil
	case c.IsSet("payload-file"):
		return os.ReadFile(c.String("payload-file"))
	default:
		return []byte(c.String("payload")), nil
	}
}

func parseAddress(c *cli.Context) (types.Address, error) {
	addr, err := types.ParseAddress(c.String(addressFlag.Name))
	if err != nil {
		return types.Address{}, fmt.Errorf("%w: %v", provision.ErrInvalidParameter, err)
	}
	return addr, nil
}

func readCode(c *cli.Context) (string, error) {
	if code := c.String(codeFlag.Name); code != "" {
		return code, nil
	}
	code, err := config.PromptSecret("Authenticator code: ")
	return strings.TrimSpace(code), err
}

func readPassphrase(c *cli.Context) (string, error) {
	if !c.Bool(passphraseFlag.Name) {
		return "", nil
	}
	return config.PromptSecret("Mnemonic passphrase: ")
}

func cmdInit(c *cli.Context) error {
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}
	path := cfg.ConfigFile()
	if c.IsSet(configFlag.Name) {
		path = c.String(configFlag.Name)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	if err := config.WriteDefaultConfig(path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func cmdCreate(c *cli.Context) error {
	e, err := openEnv(c, true)
	if err != nil {
		return err
	}
	defer e.Close()

	passphrase, err := readPassphrase(c)
	if err != nil {
		return err
	}
	created, err := e.svc.CreateWallet(c.Context, passphrase)
	if err != nil {
		return err
	}
	fmt.Println("Write down the mnemonic. It is shown only once.")
	fmt.Println()
	fmt.Printf("  %s\n\n", created.Mnemonic)
	if !e.cfg.Custody.Deterministic {
		fmt.Println("Note: keys are random in this configuration; the mnemonic cannot restore this wallet.")
		fmt.Println()
	}
	return printCreated(c, created)
}

func cmdRestore(c *cli.Context) error {
	e, err := openEnv(c, false)
	if err != nil {
		return err
	}
	defer e.Close()

	var mnemonic string
	if path := c.String("mnemonic-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		mnemonic = string(data)
	} else {
		mnemonic, err = config.PromptSecret("Mnemonic: ")
		if err != nil {
			return err
		}
	}
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")

	passphrase, err := readPassphrase(c)
	if err != nil {
		return err
	}
	created, err := e.svc.RestoreWallet(c.Context, mnemonic, passphrase)
	if err != nil {
		return err
	}
	return printCreated(c, created)
}

func printCreated(c *cli.Context, created *provision.Created) error {
	fmt.Printf("Address:    %s\n", created.Address.Hex())
	fmt.Printf("MFA secret: %s\n", created.MFASecret)
	fmt.Printf("MFA URI:    %s\n", created.ProvisioningURI)
	fmt.Printf("\n%s", created.PublicKeyPEM)
	if path := c.String("qr"); path != "" {
		if err := writeQR(path, created.ProvisioningURI, 0); err != nil {
			return err
		}
		fmt.Printf("\nQR code written to %s\n", path)
	}
	return nil
}

func writeQR(path, uri string, size int) error {
	png, err := mfa.QRCode(uri, size)
	if err != nil {
		return err
	}
	return os.WriteFile(path, png, 0600)
}

func cmdSign(c *cli.Context) error {
	addr, err := parseAddress(c)
	if err != nil {
		return err
	}
	payload, err := readPayload(c)
	if err != nil {
		return err
	}
	e, err := openEnv(c, false)
	if err != nil {
		return err
	}
	defer e.Close()

	code, err := readCode(c)
	if err != nil {
		return err
	}
	signed, err := e.svc.SignTransaction(c.Context, addr, payload, code)
	if err != nil {
		return err
	}
	pubPEM, err := signed.PublicKeyPEM()
	if err != nil {
		return err
	}
	fmt.Printf("Signature: %s\n\n%s", signed.SignatureHex(), pubPEM)
	return nil
}

func cmdVerify(c *cli.Context) error {
	payload, err := readPayload(c)
	if err != nil {
		return err
	}
	pubPEM, err := os.ReadFile(c.String("pubkey"))
	if err != nil {
		return err
	}
	ok, err := provision.VerifySignature(string(pubPEM), payload, c.String("signature"))
	if err != nil {
		return err
	}
	if !ok {
		return cli.Exit("Signature INVALID", 1)
	}
	fmt.Println("Signature valid")
	return nil
}

func cmdExport(c *cli.Context) error {
	addr, err := parseAddress(c)
	if err != nil {
		return err
	}
	e, err := openEnv(c, false)
	if err != nil {
		return err
	}
	defer e.Close()

	code, err := readCode(c)
	if err != nil {
		return err
	}
	keyPEM, err := e.svc.ExportKey(c.Context, addr, code)
	if err != nil {
		return err
	}
	if out := c.String("out"); out != "" {
		if err := os.WriteFile(out, keyPEM, 0600); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Private key written to %s\n", out)
		return nil
	}
	_, err = os.Stdout.Write(keyPEM)
	return err
}

func cmdDelete(c *cli.Context) error {
	addr, err := parseAddress(c)
	if err != nil {
		return err
	}
	e, err := openEnv(c, false)
	if err != nil {
		return err
	}
	defer e.Close()

	code, err := readCode(c)
	if err != nil {
		return err
	}
	if err := e.svc.DeleteWallet(c.Context, addr, code); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", addr.Hex())
	return nil
}

func cmdList(c *cli.Context) error {
	e, err := openEnv(c, false)
	if err != nil {
		return err
	}
	defer e.Close()

	wallets, err := e.svc.Wallets(c.Context)
	if err != nil {
		return err
	}
	if len(wallets) == 0 {
		fmt.Println("No wallets.")
		return nil
	}
	for _, w := range wallets {
		fmt.Printf("%s  %s  balance=%s\n", w.Address.Hex(), w.CreatedAt.UTC().Format("2006-01-02 15:04:05"), w.Balance.Dec())
	}
	return nil
}

func cmdShow(c *cli.Context) error {
	addr, err := parseAddress(c)
	if err != nil {
		return err
	}
	e, err := openEnv(c, false)
	if err != nil {
		return err
	}
	defer e.Close()

	w, err := e.svc.Wallet(c.Context, addr)
	if err != nil {
		return err
	}
	fmt.Printf("Address:  %s\n", w.Address.Hex())
	fmt.Printf("Balance:  %s\n", w.Balance.Dec())
	fmt.Printf("Created:  %s\n", w.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	return nil
}

func cmdQR(c *cli.Context) error {
	addr, err := parseAddress(c)
	if err != nil {
		return err
	}
	e, err := openEnv(c, false)
	if err != nil {
		return err
	}
	defer e.Close()

	code, err := readCode(c)
	if err != nil {
		return err
	}
	uri, err := e.svc.Enrollment(addr, code)
	if err != nil {
		return err
	}
	if out := c.String("out"); out != "" {
		if err := writeQR(out, uri, c.Int("size")); err != nil {
			return err
		}
		fmt.Printf("QR code written to %s\n", out)
		return nil
	}
	fmt.Println(uri)
	return nil
}
