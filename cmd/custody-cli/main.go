// custody-cli is the operator front end of the custody service: it creates
// and restores wallets, and signs payloads behind a TOTP code.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Klingon-tech/klingnet-custody/config"
	"github.com/Klingon-tech/klingnet-custody/internal/custody"
	klog "github.com/Klingon-tech/klingnet-custody/internal/log"
	"github.com/Klingon-tech/klingnet-custody/internal/metrics"
	"github.com/Klingon-tech/klingnet-custody/internal/mfa"
	"github.com/Klingon-tech/klingnet-custody/internal/provision"
	"github.com/Klingon-tech/klingnet-custody/internal/repo"
	"github.com/Klingon-tech/klingnet-custody/internal/storage"
	"github.com/Klingon-tech/klingnet-custody/internal/wallet"
)

// Storage namespaces inside the vault database.
var (
	keysPrefix    = []byte("keys/")
	bindPrefix    = []byte("bind/")
	walletsPrefix = []byte("wallets/")
)

var (
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "data directory",
		Value: config.DefaultDataDir(),
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "config file (default: <datadir>/custody.conf)",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "log level: debug, info, warn, error",
	}
	logJSONFlag = &cli.BoolFlag{
		Name:  "log-json",
		Usage: "emit JSON logs",
	}
	storageFlag = &cli.StringFlag{
		Name:  "storage",
		Usage: "storage engine: memory, badger, leveldb",
	}
	custodyFlag = &cli.StringFlag{
		Name:  "custody",
		Usage: "custodian: simulated or cold",
	}
	deterministicFlag = &cli.BoolFlag{
		Name:  "deterministic",
		Usage: "derive new wallet keys from the mnemonic (--deterministic=false for random keys)",
	}
	strengthFlag = &cli.IntFlag{
		Name:  "strength",
		Usage: "mnemonic entropy bits: 128, 160, 192, 224 or 256",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log-file",
		Usage: "also write JSON logs to `FILE`",
	}

	addressFlag = &cli.StringFlag{
		Name:     "address",
		Aliases:  []string{"a"},
		Usage:    "wallet address (0x...)",
		Required: true,
	}
	codeFlag = &cli.StringFlag{
		Name:    "code",
		Aliases: []string{"c"},
		Usage:   "current authenticator code (prompted when omitted)",
	}
	passphraseFlag = &cli.BoolFlag{
		Name:  "passphrase",
		Usage: "prompt for an optional mnemonic passphrase",
	}
)

func main() {
	app := &cli.App{
		Name:  "custody-cli",
		Usage: "wallet key custody with TOTP-gated signing",
		Flags: []cli.Flag{
			dataDirFlag,
			configFlag,
			logLevelFlag,
			logJSONFlag,
			storageFlag,
			custodyFlag,
			deterministicFlag,
			strengthFlag,
			logFileFlag,
		},
		Commands: []*cli.Command{
			initCommand,
			createCommand,
			restoreCommand,
			signCommand,
			verifyCommand,
			exportCommand,
			deleteCommand,
			listCommand,
			showCommand,
			qrCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fatal("%s", errorMessage(err))
	}
}

// errorMessage hides authentication details behind the generic message
// and shows everything else in full, since the operator owns the machine.
func errorMessage(err error) string {
	if errors.Is(err, provision.ErrUnknownAddress) || errors.Is(err, provision.ErrInvalidMFACode) {
		return provision.PublicError(err)
	}
	return err.Error()
}

// env is the opened custody stack for one command.
type env struct {
	cfg     *config.Config
	db      storage.DB
	svc     *provision.Service
	metrics *metrics.Metrics
}

func loadConfig(c *cli.Context) (*config.Config, *config.Env, error) {
	f := &config.Flags{
		DataDir:          c.String(dataDirFlag.Name),
		Config:           c.String(configFlag.Name),
		Storage:          c.String(storageFlag.Name),
		Custody:          c.String(custodyFlag.Name),
		Deterministic:    c.Bool(deterministicFlag.Name),
		Strength:         c.Int(strengthFlag.Name),
		LogLevel:         c.String(logLevelFlag.Name),
		LogFile:          c.String(logFileFlag.Name),
		LogJSON:          c.Bool(logJSONFlag.Name),
		SetDeterministic: c.IsSet(deterministicFlag.Name),
		SetLogJSON:       c.IsSet(logJSONFlag.Name),
	}
	cfg, err := config.Load(f)
	if err != nil {
		return nil, nil, err
	}
	vars, err := config.LoadEnv()
	if err != nil {
		return nil, nil, err
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		return nil, nil, fmt.Errorf("init logging: %w", err)
	}
	return cfg, vars, nil
}

// openEnv wires storage, vault, custodian, bindings, gate and repository
// into a provisioning service. confirm asks for the password twice.
func openEnv(c *cli.Context, confirm bool) (*env, error) {
	cfg, vars, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	password, err := config.Password(vars, confirm)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(cfg.Storage.Engine, cfg.VaultDir())
	if err != nil {
		return nil, err
	}
	vault := wallet.NewVault([]byte(password), wallet.EncryptionParams{
		Memory:      cfg.Custody.KDFMemory,
		Iterations:  cfg.Custody.KDFIterations,
		Parallelism: cfg.Custody.KDFParallelism,
	})

	custodian, err := custody.New(cfg.Custody.Mode, custody.Options{
		DB:    storage.NewPrefixDB(db, keysPrefix),
		Vault: vault,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	bindings, err := provision.OpenBindings(storage.NewPrefixDB(db, bindPrefix), vault)
	if err != nil {
		db.Close()
		return nil, err
	}
	gate := mfa.NewGate(mfa.Config{
		Issuer: cfg.MFA.Issuer,
		Digits: cfg.MFA.Digits,
		Period: cfg.MFA.Period,
		Skew:   cfg.MFA.Skew,
	}, bindings)

	m := metrics.NewMetrics()
	svc := provision.NewService(provision.Config{
		Strength:      cfg.Mnemonic.Strength,
		Deterministic: cfg.Custody.Deterministic,
		Account:       cfg.Custody.Account,
	}, provision.Deps{
		Custodian: custodian,
		Bindings:  bindings,
		Gate:      gate,
		Repo:      repo.NewStore(storage.NewPrefixDB(db, walletsPrefix)),
		Metrics:   m,
	})
	return &env{cfg: cfg, db: db, svc: svc, metrics: m}, nil
}

func (e *env) Close() {
	logger := klog.WithComponent("cli")
	if err := e.metrics.WriteTextfile(e.cfg.Metrics.Textfile); err != nil {
		logger.Warn().Err(err).Msg("Failed to write metrics textfile")
	}
	if err := e.db.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close vault database")
	}
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
