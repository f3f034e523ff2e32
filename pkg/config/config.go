// Package config loads the trader configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/betbot/godex/pkg/logger"
)

// Duration parses YAML strings like "30s" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "parse duration %q", s)
	}
	*d = Duration(v)
	return nil
}

// ContractsConfig holds the protocol addresses, hex-encoded. Empty fields
// fall back to the chain's pinned deployment.
type ContractsConfig struct {
	Exchange    string `yaml:"exchange"`
	OrderRouter string `yaml:"order_router"`
	Reader      string `yaml:"reader"`
	Multicall   string `yaml:"multicall"`
}

// WalletConfig selects exactly one key source.
type WalletConfig struct {
	PrivateKey      string `yaml:"private_key"`
	Mnemonic        string `yaml:"mnemonic"`
	DerivationPath  string `yaml:"derivation_path"`
	SecretStorePath string `yaml:"secret_store_path"`
}

// Config is the full trader configuration.
type Config struct {
	ChainID        int64           `yaml:"chain_id"`
	RPCURL         string          `yaml:"rpc_url"`
	RealtimeRPCURL string          `yaml:"realtime_rpc_url"`
	IndexerURL     string          `yaml:"indexer_url"`
	Contracts      ContractsConfig `yaml:"contracts"`
	Wallet         WalletConfig    `yaml:"wallet"`
	JournalPath    string          `yaml:"journal_path"`
	SubmitTimeout  Duration        `yaml:"submit_timeout"`
	Log            logger.Config   `yaml:"log"`
}

// Load reads path (optional; empty skips the file), then applies env
// overrides and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config file")
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setStr(&c.RPCURL, "GODEX_RPC_URL")
	setStr(&c.RealtimeRPCURL, "GODEX_REALTIME_RPC_URL")
	setStr(&c.IndexerURL, "GODEX_INDEXER_URL")
	setStr(&c.Wallet.PrivateKey, "GODEX_PRIVATE_KEY")
	setStr(&c.Wallet.Mnemonic, "GODEX_MNEMONIC")
	setStr(&c.Wallet.SecretStorePath, "GODEX_SECRET_STORE")
	setStr(&c.JournalPath, "GODEX_JOURNAL")
	setStr(&c.Log.Level, "GODEX_LOG_LEVEL")

	if v := os.Getenv("GODEX_CHAIN_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.ChainID = id
		}
	}
}

func (c *Config) validate() error {
	if c.ChainID == 0 {
		return errors.New("config: chain_id is required")
	}
	if c.RPCURL == "" {
		return errors.New("config: rpc_url is required")
	}
	if c.RealtimeRPCURL == "" {
		return errors.New("config: realtime_rpc_url is required")
	}
	return nil
}
