package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"rackledger/crypto"
)

// Config carries the daemon configuration. Addresses are bech32 strings with
// the "rack" prefix.
type Config struct {
	DataDir          string `toml:"DataDir"`
	TreasuryAddress  string `toml:"TreasuryAddress"`
	AuthorityAddress string `toml:"AuthorityAddress"`
	PoolAddress      string `toml:"PoolAddress"`
	FeeBps           uint32 `toml:"FeeBps"`
	MetricsListen    string `toml:"MetricsListen"`
}

// Load loads the configuration from the given path and applies defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file %s does not exist", path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./rackledger-data"
	}
	if strings.TrimSpace(cfg.MetricsListen) == "" {
		cfg.MetricsListen = "127.0.0.1:9464"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fee rate bound and that every configured address
// decodes. A fee rate above 10000 bps would let the platform fee exceed the
// sale total, so it is rejected up front.
func (c *Config) Validate() error {
	if c.FeeBps > 10_000 {
		return fmt.Errorf("config: FeeBps %d exceeds 10000", c.FeeBps)
	}
	for name, value := range map[string]string{
		"TreasuryAddress":  c.TreasuryAddress,
		"AuthorityAddress": c.AuthorityAddress,
		"PoolAddress":      c.PoolAddress,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("config: %s is required", name)
		}
		if _, err := crypto.DecodeAddress(value); err != nil {
			return fmt.Errorf("config: invalid %s: %w", name, err)
		}
	}
	return nil
}

func decode20(value string) ([20]byte, error) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return out, err
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

// Treasury returns the decoded treasury address.
func (c *Config) Treasury() ([20]byte, error) { return decode20(c.TreasuryAddress) }

// Authority returns the decoded withdrawal-authority address.
func (c *Config) Authority() ([20]byte, error) { return decode20(c.AuthorityAddress) }

// Pool returns the decoded allocation-pool address.
func (c *Config) Pool() ([20]byte, error) { return decode20(c.PoolAddress) }
