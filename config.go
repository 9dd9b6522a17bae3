package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// FileConfig is the TOML configuration file. Unset keys stay nil so flags
// and defaults can tell them apart from explicit zero values.
type FileConfig struct {
	Log      LogConfig      `toml:"log"`
	Library  LibraryConfig  `toml:"library"`
	Download DownloadConfig `toml:"download"`
	Index    IndexConfig    `toml:"index"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
}

type LibraryConfig struct {
	Path *string `toml:"path"`
}

type DownloadConfig struct {
	Dir         *string `toml:"dir"`
	BaseURL     *string `toml:"base-url"`
	Session     *string `toml:"session"`
	RateLimit   *int    `toml:"rate-limit"`
	Concurrency *int    `toml:"concurrency"`
}

type IndexConfig struct {
	Workers *int  `toml:"workers"`
	Strict  *bool `toml:"strict"`
}

type MetricsConfig struct {
	File *string `toml:"file"`
}

// LoadConfig reads a TOML config from path. A missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

func xdgDir(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

func DefaultConfigPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "osumap", "config.toml")
}

func DefaultLibraryPath() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "osumap", "library.db")
}

func DefaultDownloadDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "osumap", "songs")
}

// apply*Config copies a config value into target unless the flag was set
// on the command line.

func applyStringConfig(cmd *cobra.Command, flag string, target *string, value *string) {
	if value != nil && !flagChanged(cmd, flag) {
		*target = *value
	}
}

func applyIntConfig(cmd *cobra.Command, flag string, target *int, value *int) {
	if value != nil && !flagChanged(cmd, flag) {
		*target = *value
	}
}

func applyBoolConfig(cmd *cobra.Command, flag string, target *bool, value *bool) {
	if value != nil && !flagChanged(cmd, flag) {
		*target = *value
	}
}

func flagChanged(cmd *cobra.Command, flag string) bool {
	if f := cmd.Flags().Lookup(flag); f != nil {
		return f.Changed
	}
	return false
}
