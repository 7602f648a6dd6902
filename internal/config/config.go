package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `yaml:"app"`
	Broker   BrokerConfig   `yaml:"broker"`
	Exchange ExchangeConfig `yaml:"exchange"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
}

// AppConfig names the process family; the name scopes the IPC tree.
type AppConfig struct {
	Name string `yaml:"name"`
}

// BrokerConfig selects the pub/sub transport between processes.
type BrokerConfig struct {
	Driver  string `yaml:"driver"`  // "ipc" or "nats"
	Root    string `yaml:"root"`    // ipc: filesystem root for endpoints
	NatsURL string `yaml:"natsUrl"` // nats: server URL
}

// ExchangeConfig represents the per-exchange adapter configuration
type ExchangeConfig struct {
	Binance BinanceConfig `yaml:"binance"`
	Kucoin  KucoinConfig  `yaml:"kucoin"`
	Okx     OkxConfig     `yaml:"okx"`

	PriceReconnectWait   time.Duration `yaml:"priceReconnectWait"`
	AccountReconnectWait time.Duration `yaml:"accountReconnectWait"`
	RESTTimeout          time.Duration `yaml:"restTimeout"`
}

// BinanceConfig represents Binance endpoint configuration
type BinanceConfig struct {
	Enabled      bool   `yaml:"enabled"`
	SpotRESTHost string `yaml:"spotRestHost"`
	FutRESTHost  string `yaml:"futuresRestHost"`
	SpotWSHost   string `yaml:"spotWsHost"`
	FutWSHost    string `yaml:"futuresWsHost"`
}

// KucoinConfig represents KuCoin endpoint configuration
type KucoinConfig struct {
	Enabled      bool   `yaml:"enabled"`
	SpotRESTHost string `yaml:"spotRestHost"`
	FutRESTHost  string `yaml:"futuresRestHost"`
}

// OkxConfig represents OKX endpoint configuration
type OkxConfig struct {
	Enabled bool   `yaml:"enabled"`
	WSHost  string `yaml:"wsHost"`
}

// APIConfig represents the edge server configuration
type APIConfig struct {
	Port        string        `yaml:"port"`
	CORSOrigins []string      `yaml:"corsOrigins"`
	ResultWait  time.Duration `yaml:"resultWait"`
}

// StorageConfig represents the optional task journal; empty path disables it.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults applies default values to missing config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "crypto-telemetry"
	}

	// Broker defaults
	if cfg.Broker.Driver == "" {
		cfg.Broker.Driver = "ipc"
	}
	if cfg.Broker.Root == "" {
		cfg.Broker.Root = filepath.Join(os.TempDir(), cfg.App.Name, "stream")
	}
	if cfg.Broker.NatsURL == "" {
		cfg.Broker.NatsURL = "nats://127.0.0.1:4222"
	}

	// Exchange defaults
	if cfg.Exchange.PriceReconnectWait == 0 {
		cfg.Exchange.PriceReconnectWait = 5 * time.Second
	}
	if cfg.Exchange.AccountReconnectWait == 0 {
		cfg.Exchange.AccountReconnectWait = 10 * time.Second
	}
	if cfg.Exchange.RESTTimeout == 0 {
		cfg.Exchange.RESTTimeout = 30 * time.Second
	}

	if cfg.Exchange.Binance.SpotRESTHost == "" {
		cfg.Exchange.Binance = BinanceConfig{
			Enabled:      true,
			SpotRESTHost: "api.binance.com",
			FutRESTHost:  "fapi.binance.com",
			SpotWSHost:   "stream.binance.com:9443",
			FutWSHost:    "fstream.binance.com:443",
		}
	}
	if cfg.Exchange.Kucoin.SpotRESTHost == "" {
		cfg.Exchange.Kucoin = KucoinConfig{
			Enabled:      true,
			SpotRESTHost: "api.kucoin.com",
			FutRESTHost:  "api-futures.kucoin.com",
		}
	}
	if cfg.Exchange.Okx.WSHost == "" {
		cfg.Exchange.Okx = OkxConfig{
			Enabled: true,
			WSHost:  "ws.okx.com:8443",
		}
	}

	// API defaults
	if cfg.API.Port == "" {
		cfg.API.Port = ":8080"
	}
	if len(cfg.API.CORSOrigins) == 0 {
		cfg.API.CORSOrigins = []string{"*"}
	}
	if cfg.API.ResultWait == 0 {
		cfg.API.ResultWait = 20 * time.Second
	}
}

// Save saves configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
