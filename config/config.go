package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the daemon settings loaded from the TOML configuration file.
type Config struct {
	RPCAddress    string   `toml:"RPCAddress"`
	DataDir       string   `toml:"DataDir"`
	NetworkName   string   `toml:"NetworkName"`
	AdminAddress  string   `toml:"AdminAddress"`
	GenesisTokens []string `toml:"GenesisTokens"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "travelledger-local"
	}
	if cfg.GenesisTokens == nil {
		cfg.GenesisTokens = []string{}
	}
}

// Validate checks the configuration for values the daemon cannot start with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if _, err := DecodeAddress(cfg.AdminAddress); err != nil {
		return fmt.Errorf("config: AdminAddress: %w", err)
	}
	for _, symbol := range cfg.GenesisTokens {
		if strings.TrimSpace(symbol) == "" {
			return fmt.Errorf("config: GenesisTokens must not contain empty symbols")
		}
	}
	return nil
}

// DecodeAddress parses a 0x-prefixed 20-byte hex address.
func DecodeAddress(addr string) ([20]byte, error) {
	var out [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(addr), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, fmt.Errorf("invalid hex address %q: %w", addr, err)
	}
	if len(raw) != 20 {
		return out, fmt.Errorf("address %q must be 20 bytes", addr)
	}
	copy(out[:], raw)
	return out, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("config: wrote default configuration to %s; set AdminAddress and restart", path)
}
