package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsWithNoFileOrFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, "", nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	want := Default()
	if cfg != want {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	body := "bind_addr: \"0.0.0.0:1234\"\ntps: 10\nview_distance: 6\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, path, nil)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BindAddr != "0.0.0.0:1234" {
		t.Errorf("BindAddr = %q, want 0.0.0.0:1234", cfg.BindAddr)
	}
	if cfg.TPS != 10 {
		t.Errorf("TPS = %d, want 10", cfg.TPS)
	}
	if cfg.ViewDistance != 6 {
		t.Errorf("ViewDistance = %d, want 6", cfg.ViewDistance)
	}
	if cfg.MaxPlayers != Default().MaxPlayers {
		t.Errorf("MaxPlayers = %d, want default %d unchanged", cfg.MaxPlayers, Default().MaxPlayers)
	}
}

func TestLoadFlagsOverrideYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	if err := os.WriteFile(path, []byte("tps: 10\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, path, []string{"-tps", "30"})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.TPS != 30 {
		t.Errorf("TPS = %d, want 30 (flag should win over file)", cfg.TPS)
	}
}

func TestLoadClampsViewDistance(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := Load(fs, "", []string{"-view-distance", "99"})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.ViewDistance != MaxViewDistance {
		t.Errorf("ViewDistance = %d, want clamped to %d", cfg.ViewDistance, MaxViewDistance)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if _, err := Load(fs, "/nonexistent/server.yaml", nil); err != nil {
		t.Errorf("missing config file should not error, got %v", err)
	}
}
