// Package config loads the YAML file that names readers, PINs and key
// ids, generalized from a PKCS#11 token registry to a PC/SC reader
// registry.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bit4id/siaep7/carderr"
)

// ReaderConfig describes one physical slot's card and how to authenticate to it.
type ReaderConfig struct {
	Name  string // PC/SC reader name; informational, the reader is chosen by Slot
	Slot  int    // slot index into the process-wide slot table
	Pin   string // PIN to use; if empty the caller must supply one
	KeyID byte   `yaml:"keyID"` // on-card private key id used for MSE SET / PSO SIGN
	From  string // default S/MIME From address for this reader
}

// Config is the top-level YAML document.
type Config struct {
	LogLevel string `yaml:"logLevel"`
	LogFile  string `yaml:"logFile"`
	Readers  map[string]*ReaderConfig
}

func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := new(Config)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Reader looks up a named reader section by name.
func (c *Config) Reader(name string) (*ReaderConfig, error) {
	if c.Readers == nil {
		return nil, carderr.New("config.Reader", carderr.GenericError)
	}
	rc, ok := c.Readers[name]
	if !ok {
		return nil, carderr.Wrap("config.Reader", carderr.GenericError,
			fmt.Errorf("reader %q not found in configuration", name))
	}
	return rc, nil
}
