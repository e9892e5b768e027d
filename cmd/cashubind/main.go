// Command cashubind is a smoke-test client for a wallet-engine daemon: it
// builds a store and a wallet from a config file, asks the mint for a quote,
// and reports the wallet's state.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/cashubind/cashubind"
	"github.com/cashubind/cashubind/engine/grpcengine"
	"github.com/cashubind/cashubind/internal/logging"
)

type engineConfig struct {
	Address           string  `yaml:"address"`
	Token             string  `yaml:"token,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
	Burst             int     `yaml:"burst,omitempty"`
}

type loggingConfig struct {
	Level string `yaml:"level,omitempty"`
}

type config struct {
	MintURL     string        `yaml:"mint_url"`
	Unit        string        `yaml:"unit"`
	DBPath      string        `yaml:"db_path,omitempty"`
	Mnemonic    string        `yaml:"mnemonic,omitempty"`
	QuoteAmount uint64        `yaml:"quote_amount,omitempty"`
	Engine      engineConfig  `yaml:"engine"`
	Logging     loggingConfig `yaml:"logging,omitempty"`
}

func loadConfig(path string) (*config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &config{
		Unit:        "sat",
		QuoteAmount: 1000,
		Engine:      engineConfig{Burst: 10},
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.MintURL == "" {
		return nil, fmt.Errorf("%s: mint_url is required", path)
	}
	if cfg.Engine.Address == "" {
		return nil, fmt.Errorf("%s: engine.address is required", path)
	}
	return cfg, nil
}

func main() {
	configPath := "config.yml"
	if len(os.Args) > 1 && os.Args[1] != "" {
		configPath = os.Args[1]
	}
	if err := run(configPath); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logging.Init(cfg.Logging.Level)

	unit, err := cashubind.ParseCurrencyUnit(cfg.Unit)
	if err != nil {
		return err
	}

	mnemonic := cfg.Mnemonic
	if mnemonic == "" {
		mnemonic, err = cashubind.GenerateMnemonic()
		if err != nil {
			return err
		}
		slog.Info("generated a fresh mnemonic; keep it to restore this wallet", "mnemonic", mnemonic)
	}

	var engineOpts []grpcengine.Option
	if cfg.Engine.Token != "" {
		engineOpts = append(engineOpts, grpcengine.WithToken(cfg.Engine.Token))
	}
	if cfg.Engine.RequestsPerSecond > 0 {
		engineOpts = append(engineOpts, grpcengine.WithRateLimit(cfg.Engine.RequestsPerSecond, cfg.Engine.Burst))
	}
	client, err := grpcengine.Dial(cfg.Engine.Address, engineOpts...)
	if err != nil {
		return err
	}
	defer client.Close()

	var store *cashubind.LocalStore
	if cfg.DBPath != "" {
		store, err = cashubind.NewLocalStoreAtPath(cfg.DBPath)
	} else {
		store, err = cashubind.NewLocalStore()
	}
	if err != nil {
		return err
	}
	defer store.Close()

	wallet, err := cashubind.NewWalletFromMnemonic(cfg.MintURL, unit, store, mnemonic, client.Factory())
	if err != nil {
		return err
	}
	defer wallet.Close()
	slog.Info("wallet ready", "mint", wallet.MintURL(), "unit", wallet.Unit())

	info, err := wallet.GetMintInfo()
	if err != nil {
		return err
	}
	slog.Info("mint info", "outcome", info.Outcome, "name", info.Name, "keysets", info.Keysets, "reason", info.Reason)

	quote, err := wallet.MintQuote(cashubind.Amount{Value: cfg.QuoteAmount}, nil)
	if err != nil {
		return err
	}
	slog.Info("mint quote created", "id", quote.ID, "amount", quote.Amount.Value, "state", quote.State)
	fmt.Printf("pay this request to fund the wallet:\n%s\n", quote.Request)

	status, err := wallet.MintQuoteState(quote.ID)
	if err != nil {
		return err
	}
	slog.Info("quote state", "id", status.Quote, "state", status.State)

	balance, err := wallet.Balance()
	if err != nil {
		return err
	}
	slog.Info("balance", "amount", balance.Value, "unit", wallet.Unit())
	return nil
}
