package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"avm_wallet/internal/model"
)

type NetworkConfig struct {
	GenesisID   string   `toml:"genesis_id"`
	GenesisHash string   `toml:"genesis_hash"`
	Methods     []string `toml:"methods"`
}

type Config struct {
	ListenAddr        string          `toml:"listen_addr"`
	ProviderID        string          `toml:"provider_id"`
	ProviderName      string          `toml:"provider_name"`
	ProviderHost      string          `toml:"provider_host"`
	MongoURI          string          `toml:"mongo_uri"`
	MongoDB           string          `toml:"mongo_db"`
	RedisAddr         string          `toml:"redis_addr"`
	SessionTTLMinutes int             `toml:"session_ttl_minutes"`
	Networks          []NetworkConfig `toml:"networks"`
}

func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "localhost:9090"
	}
	if cfg.ProviderID == "" {
		cfg.ProviderID = "avm-wallet"
	}
	if cfg.ProviderName == "" {
		cfg.ProviderName = "AVM Wallet"
	}
	if cfg.MongoURI == "" {
		cfg.MongoURI = "mongodb://localhost:27017"
	}
	if cfg.MongoDB == "" {
		cfg.MongoDB = "avm_wallet"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return fmt.Errorf("config missing listen_addr")
	}
	if cfg.SessionTTLMinutes < 0 {
		return fmt.Errorf("session_ttl_minutes cannot be negative")
	}
	if len(cfg.Networks) == 0 {
		return fmt.Errorf("config declares no networks")
	}
	for i, network := range cfg.Networks {
		if strings.TrimSpace(network.GenesisID) == "" {
			return fmt.Errorf("network[%d] missing genesis_id", i)
		}
		if strings.TrimSpace(network.GenesisHash) == "" {
			return fmt.Errorf("network[%d] missing genesis_hash", i)
		}
	}
	return nil
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c Config) NetworkInfos() []model.NetworkInfo {
	out := make([]model.NetworkInfo, 0, len(c.Networks))
	for _, network := range c.Networks {
		out = append(out, model.NetworkInfo{
			GenesisID:   network.GenesisID,
			GenesisHash: network.GenesisHash,
			Methods:     network.Methods,
		})
	}
	return out
}
