// Package config merges the server's configuration from, in increasing
// precedence, TOML file < environment variables < command-line flags,
// matching the precedence order usage() documents in the original
// implementation's launcher (spec.md §6 "Configuration surface").
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Config is the fully-resolved server configuration.
type Config struct {
	Address     string `toml:"address"`
	UploadDir   string `toml:"upload_dir"`
	APIKey      string `toml:"api_key"`
	TLSCertFile string `toml:"tls_cert"`
	TLSKeyFile  string `toml:"tls_key"`
	OpenBrowser bool   `toml:"open_browser"`
	StaticDir   string `toml:"static_dir"`
}

// Default returns the zero-config starting point, overridden by file, env,
// then CLI flags.
func Default() Config {
	return Config{
		Address:     "127.0.0.1:8080",
		UploadDir:   "./uploads",
		OpenBrowser: false,
	}
}

// CLIOverrides carries values explicitly set on the command line; a zero
// value means "not set, fall through to the next layer" (the same
// optional-override shape onedrive-go's config.CLIOverrides uses).
type CLIOverrides struct {
	Address     string
	UploadDir   string
	APIKey      string
	TLSCertFile string
	TLSKeyFile  string
	OpenBrowser *bool
}

// Load builds a Config by decoding path (if present) with BurntSushi/toml,
// then applying the TAPIR_* environment layer via viper, then any
// explicitly-set CLI overrides.
func Load(path string, cli CLIOverrides, log *slog.Logger) (Config, error) {
	if log == nil {
		log = slog.Default()
	}
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
			log.Debug("config.file_loaded", "path", path)
		} else {
			log.Debug("config.file_absent", "path", path)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("TAPIR")
	v.AutomaticEnv()
	for _, key := range []string{"address", "upload_dir", "api_key", "tls_cert", "tls_key", "static_dir"} {
		if val := v.GetString(key); val != "" {
			applyEnv(&cfg, key, val)
		}
	}

	applyCLI(&cfg, cli)

	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("config: api key is required (set %s, TAPIR_API_KEY, or --apikey)", path)
	}

	return cfg, nil
}

func applyEnv(cfg *Config, key, val string) {
	switch key {
	case "address":
		cfg.Address = val
	case "upload_dir":
		cfg.UploadDir = val
	case "api_key":
		cfg.APIKey = val
	case "tls_cert":
		cfg.TLSCertFile = val
	case "tls_key":
		cfg.TLSKeyFile = val
	case "static_dir":
		cfg.StaticDir = val
	}
}

func applyCLI(cfg *Config, cli CLIOverrides) {
	if cli.Address != "" {
		cfg.Address = cli.Address
	}
	if cli.UploadDir != "" {
		cfg.UploadDir = cli.UploadDir
	}
	if cli.APIKey != "" {
		cfg.APIKey = cli.APIKey
	}
	if cli.TLSCertFile != "" {
		cfg.TLSCertFile = cli.TLSCertFile
	}
	if cli.TLSKeyFile != "" {
		cfg.TLSKeyFile = cli.TLSKeyFile
	}
	if cli.OpenBrowser != nil {
		cfg.OpenBrowser = *cli.OpenBrowser
	}
}
