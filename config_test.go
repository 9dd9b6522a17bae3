package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Log.Level != nil || cfg.Index.Workers != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[log]
level = "debug"

[library]
path = "/tmp/lib.db"

[download]
rate-limit = 10
session = "abc"

[index]
workers = 3
strict = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Errorf("log.level = %v", cfg.Log.Level)
	}
	if cfg.Log.Format != nil {
		t.Errorf("log.format should be unset")
	}
	if cfg.Library.Path == nil || *cfg.Library.Path != "/tmp/lib.db" {
		t.Errorf("library.path = %v", cfg.Library.Path)
	}
	if cfg.Download.RateLimit == nil || *cfg.Download.RateLimit != 10 {
		t.Errorf("download.rate-limit = %v", cfg.Download.RateLimit)
	}
	if cfg.Index.Workers == nil || *cfg.Index.Workers != 3 {
		t.Errorf("index.workers = %v", cfg.Index.Workers)
	}
	if cfg.Index.Strict == nil || !*cfg.Index.Strict {
		t.Errorf("index.strict = %v", cfg.Index.Strict)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[index\nworkers = "), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestApplyConfigRespectsFlags(t *testing.T) {
	var (
		workers int
		strict  bool
		lib     string
	)
	cmd := &cobra.Command{}
	cmd.Flags().IntVar(&workers, "workers", 4, "")
	cmd.Flags().BoolVar(&strict, "strict", false, "")
	cmd.Flags().StringVar(&lib, "library", "default.db", "")

	three, yes, path := 3, true, "config.db"
	applyIntConfig(cmd, "workers", &workers, &three)
	applyBoolConfig(cmd, "strict", &strict, &yes)
	applyStringConfig(cmd, "library", &lib, nil)
	if workers != 3 || !strict || lib != "default.db" {
		t.Fatalf("got workers=%d strict=%v lib=%q", workers, strict, lib)
	}

	if err := cmd.Flags().Set("workers", "8"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("library", "flag.db"); err != nil {
		t.Fatal(err)
	}
	applyIntConfig(cmd, "workers", &workers, &three)
	applyStringConfig(cmd, "library", &lib, &path)
	if workers != 8 || lib != "flag.db" {
		t.Fatalf("flags should win, got workers=%d lib=%q", workers, lib)
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	if got, want := DefaultConfigPath(), filepath.Join(dir, "config", "osumap", "config.toml"); got != want {
		t.Errorf("DefaultConfigPath = %s, want %s", got, want)
	}
	if got, want := DefaultLibraryPath(), filepath.Join(dir, "data", "osumap", "library.db"); got != want {
		t.Errorf("DefaultLibraryPath = %s, want %s", got, want)
	}
	if got, want := DefaultDownloadDir(), filepath.Join(dir, "data", "osumap", "songs"); got != want {
		t.Errorf("DefaultDownloadDir = %s, want %s", got, want)
	}
}
