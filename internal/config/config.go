// Package config provides YAML configuration loading and validation for the
// bot. Every field has a built-in default, so the binary runs against Sui
// testnet with no configuration file at all.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file when --config is not given.
const DefaultPath = "config/sealbot.yaml"

// RPCURLEnv overrides rpc_url when set.
const RPCURLEnv = "SUI_RPC_URL"

// Config is the root configuration structure loaded from YAML.
type Config struct {
	RPCURL          string        `yaml:"rpc_url"`           // Sui fullnode JSON-RPC endpoint
	RPCTimeout      time.Duration `yaml:"rpc_timeout"`       // per-call JSON-RPC timeout (default 60s)
	PackageID       string        `yaml:"package_id"`        // Move package holding allowlist/subscription
	GasBudget       uint64        `yaml:"gas_budget"`        // per-transaction gas budget in MIST
	DefaultImageURL string        `yaml:"default_image_url"` // offered when the operator picks a URL source
	Publishers      []Publisher   `yaml:"publishers"`
	Upload          Upload        `yaml:"upload"`
	Service         Service       `yaml:"service"`
	Files           Files         `yaml:"files"`
}

// Publisher is one blob publisher endpoint.
type Publisher struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"` // full blobs URL, e.g. https://host/v1/blobs
}

// Upload tunes the blob retry loop.
type Upload struct {
	MaxAttempts int           `yaml:"max_attempts"` // attempt ceiling (default 15)
	Delay       time.Duration `yaml:"delay"`        // fixed wait between attempts (default 5s)
	Timeout     time.Duration `yaml:"timeout"`      // per-request HTTP timeout (default 60s)
	Epochs      int           `yaml:"epochs"`       // storage epochs requested per blob (default 1)
}

// Service holds the subscription entry parameters.
type Service struct {
	Price uint64 `yaml:"price"` // fee in MIST (default 10)
	TTL   uint64 `yaml:"ttl"`   // duration in ms (default 60000000)
}

// Files names the operator's input files.
type Files struct {
	Wallets string `yaml:"wallets"` // one key per line, multi-wallet mode
	PK      string `yaml:"pk"`      // single key fallback
	Proxies string `yaml:"proxies"`
	Image   string `yaml:"image"` // local image used by the file source
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		RPCURL:          "https://fullnode.testnet.sui.io:443",
		RPCTimeout:      60 * time.Second,
		PackageID:       "0x4cb081457b1e098d566a277f605ba48410e26e66eaab5b3be4f6c560e9501800",
		GasBudget:       10_000_000,
		DefaultImageURL: "https://picsum.photos/800/600",
		Upload: Upload{
			MaxAttempts: 15,
			Delay:       5 * time.Second,
			Timeout:     60 * time.Second,
			Epochs:      1,
		},
		Service: Service{Price: 10, TTL: 60_000_000},
		Files: Files{
			Wallets: "wallets.txt",
			PK:      "pk.txt",
			Proxies: "proxies.txt",
			Image:   "image.jpg",
		},
	}
	for i := 1; i <= 6; i++ {
		cfg.Publishers = append(cfg.Publishers, Publisher{
			Name: fmt.Sprintf("publisher%d", i),
			URL:  fmt.Sprintf("https://seal-example.vercel.app/publisher%d/v1/blobs", i),
		})
	}
	return cfg
}

// Validate rejects unusable values and fills zero values from Default.
// Suspicious but usable values only produce a warning on stderr.
func (c *Config) Validate() error {
	def := Default()

	if c.RPCURL == "" {
		c.RPCURL = def.RPCURL
	}
	if err := checkURL(c.RPCURL); err != nil {
		return fmt.Errorf("rpc_url: %w", err)
	}
	if c.RPCTimeout < 0 {
		return fmt.Errorf("rpc_timeout must be >= 0")
	}
	if c.RPCTimeout == 0 {
		c.RPCTimeout = def.RPCTimeout
	}

	if c.PackageID == "" {
		c.PackageID = def.PackageID
	}
	if err := checkObjectID(c.PackageID); err != nil {
		return fmt.Errorf("package_id: %w", err)
	}
	if c.GasBudget == 0 {
		c.GasBudget = def.GasBudget
	}
	if c.DefaultImageURL == "" {
		c.DefaultImageURL = def.DefaultImageURL
	}
	if err := checkURL(c.DefaultImageURL); err != nil {
		return fmt.Errorf("default_image_url: %w", err)
	}

	if len(c.Publishers) == 0 {
		c.Publishers = def.Publishers
	}
	for i := range c.Publishers {
		if c.Publishers[i].Name == "" {
			c.Publishers[i].Name = fmt.Sprintf("publisher%d", i+1)
		}
		if err := checkURL(c.Publishers[i].URL); err != nil {
			return fmt.Errorf("publisher %s: %w", c.Publishers[i].Name, err)
		}
	}

	if c.Upload.MaxAttempts < 0 {
		return fmt.Errorf("upload.max_attempts must be >= 0")
	}
	if c.Upload.MaxAttempts == 0 {
		c.Upload.MaxAttempts = def.Upload.MaxAttempts
	}
	if c.Upload.Delay < 0 {
		return fmt.Errorf("upload.delay must be >= 0")
	}
	if c.Upload.Delay == 0 {
		c.Upload.Delay = def.Upload.Delay
	}
	if c.Upload.Timeout < 0 {
		return fmt.Errorf("upload.timeout must be >= 0")
	}
	if c.Upload.Timeout == 0 {
		c.Upload.Timeout = def.Upload.Timeout
	}
	if c.Upload.Epochs < 0 {
		return fmt.Errorf("upload.epochs must be >= 1")
	}
	if c.Upload.Epochs == 0 {
		c.Upload.Epochs = def.Upload.Epochs
	}
	if c.Upload.Timeout < time.Second {
		fmt.Fprintf(os.Stderr, "Warning: upload timeout is very low (%s); blob uploads will likely fail\n", c.Upload.Timeout)
	}

	if c.Service.Price == 0 {
		c.Service.Price = def.Service.Price
	}
	if c.Service.TTL == 0 {
		c.Service.TTL = def.Service.TTL
	}

	if c.Files.Wallets == "" {
		c.Files.Wallets = def.Files.Wallets
	}
	if c.Files.PK == "" {
		c.Files.PK = def.Files.PK
	}
	if c.Files.Proxies == "" {
		c.Files.Proxies = def.Files.Proxies
	}
	if c.Files.Image == "" {
		c.Files.Image = def.Files.Image
	}

	return nil
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid url %q (missing scheme or host)", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url scheme %q (expected http or https)", u.Scheme)
	}
	return nil
}

func checkObjectID(id string) error {
	h, ok := strings.CutPrefix(id, "0x")
	if !ok {
		return fmt.Errorf("%q must start with 0x", id)
	}
	if len(h) == 0 || len(h) > 64 {
		return fmt.Errorf("%q must be 1 to 32 bytes of hex", id)
	}
	if len(h)%2 == 1 {
		h = "0" + h
	}
	if _, err := hex.DecodeString(h); err != nil {
		return fmt.Errorf("%q is not hex", id)
	}
	return nil
}

// Load reads a YAML configuration file on top of the built-in defaults,
// expanding ${VAR} references from the environment, and validates it.
//
// SUI_RPC_URL, when set, overrides rpc_url.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	cfg.Publishers = nil
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return finish(cfg)
}

// LoadOrDefault behaves like Load but falls back to Default when path does
// not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return finish(Default())
	}
	return cfg, err
}

func finish(cfg *Config) (*Config, error) {
	if v := os.Getenv(RPCURLEnv); v != "" {
		cfg.RPCURL = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads KEY=VALUE pairs from .env files in the working directory.
// Values from the file override the process environment. A missing file is
// not an error.
func LoadEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	var present []string
	for _, f := range filenames {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Overload(present...); err != nil {
		return fmt.Errorf("failed to load env: %w", err)
	}
	return nil
}
