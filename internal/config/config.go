// Package config holds the daemon configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the ~/.shopchat/config.toml shape.
type Config struct {
	ListenAddr  string `toml:"listen_addr"`
	ShopName    string `toml:"shop_name"`
	DataDir     string `toml:"data_dir"`
	RulesPath   string `toml:"rules_path"`
	BlobBaseURL string `toml:"blob_base_url"`
}

// Default returns the configuration used when no file is present. An empty
// RulesPath means the built-in rule tables.
func Default() *Config {
	return &Config{
		ListenAddr:  "127.0.0.1:8642",
		ShopName:    "momoCall",
		DataDir:     BaseDir(),
		BlobBaseURL: "/uploads",
	}
}

// Load reads config from the given path, filling unset fields with
// defaults. A missing file is an error; callers that accept one fall back
// to Default themselves.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
