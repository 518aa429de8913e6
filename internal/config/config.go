// Package config loads the explicit cryostore configuration. There is
// no ambient global config object; the loaded value is passed into
// constructors by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"cryostore/internal/cloud"
	"cryostore/internal/freezer"

	"gopkg.in/yaml.v3"
)

// Config is the top-level cryostore configuration.
type Config struct {
	// BaseDir is the root directory for all namespaces.
	BaseDir string `yaml:"basedir"`
	// Cloud holds remote object-store credentials and endpoint.
	Cloud Cloud `yaml:"cloud"`
}

// Cloud configures the remote sync backend.
type Cloud struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	PathStyle bool   `yaml:"path_style"`
}

// DefaultPath returns the conventional config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".cryostore.yaml"), nil
}

// Load reads a YAML config file. A missing file yields the zero config
// so a fresh install works without any setup.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Freezer maps the config onto freezer construction parameters.
func (c Config) Freezer() freezer.Config {
	return freezer.Config{BaseDir: c.BaseDir}
}

// S3 maps the config onto S3 construction parameters.
func (c Config) S3() cloud.S3Config {
	return cloud.S3Config{
		Region:          c.Cloud.Region,
		Bucket:          c.Cloud.Bucket,
		Endpoint:        c.Cloud.Endpoint,
		AccessKeyID:     c.Cloud.AccessKey,
		SecretAccessKey: c.Cloud.SecretKey,
		PathStyle:       c.Cloud.PathStyle,
	}
}
