package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.World.Width != 20 || cfg.World.Height != 20 {
		t.Errorf("default world %dx%d, want 20x20", cfg.World.Width, cfg.World.Height)
	}
	if cfg.Evolution.WinnerCount != 6 || cfg.Evolution.NewEntityCount != 3 {
		t.Errorf("default evolution config %+v", cfg.Evolution)
	}
	if cfg.Run.Ticks <= 0 {
		t.Errorf("default run ticks %d", cfg.Run.Ticks)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default log level %q", cfg.Logging.Level)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	override := []byte("world:\n  width: 40\nrun:\n  ticks: 5\n")
	if err := os.WriteFile(path, override, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.World.Width != 40 {
		t.Errorf("override lost: width %d", cfg.World.Width)
	}
	if cfg.World.Height != 20 {
		t.Errorf("default lost: height %d", cfg.World.Height)
	}
	if cfg.Run.Ticks != 5 {
		t.Errorf("override lost: ticks %d", cfg.Run.Ticks)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("world: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed yaml should fail")
	}
}
