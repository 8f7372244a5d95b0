package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCarriesTunables(t *testing.T) {
	cfg := Default()

	if cfg.Agent.Style != "attack" {
		t.Errorf("default style = %q, want attack", cfg.Agent.Style)
	}
	if cfg.Engine.PlacementWeight != 0.35 {
		t.Errorf("placement weight = %v, want 0.35", cfg.Engine.PlacementWeight)
	}
	if cfg.Engine.UmaTop != 15 || cfg.Engine.UmaLast != -15 {
		t.Errorf("uma spread = %v/%v, want 15/-15", cfg.Engine.UmaTop, cfg.Engine.UmaLast)
	}
	if cfg.Engine.InitLiveTiles4P != 70 || cfg.Engine.InitLiveTiles3P != 83 {
		t.Errorf("initial live tiles = %d/%d, want 70/83",
			cfg.Engine.InitLiveTiles4P, cfg.Engine.InitLiveTiles3P)
	}
	if !cfg.LastAvoid.Enabled {
		t.Error("last-place avoidance should default on")
	}
	if cfg.Solver.Path != "" {
		t.Errorf("solver path = %q, want empty", cfg.Solver.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "janshi.yaml")
	body := []byte("agent:\n  style: defense\nengine:\n  scale_kan: 1.0\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Agent.Style != "defense" {
		t.Errorf("style = %q, want defense", cfg.Agent.Style)
	}
	if cfg.Engine.ScaleKan != 1.0 {
		t.Errorf("scale_kan = %v, want 1.0", cfg.Engine.ScaleKan)
	}
	// Untouched keys keep their defaults.
	if cfg.Engine.ScaleReach != 1.0 {
		t.Errorf("scale_reach = %v, want 1.0", cfg.Engine.ScaleReach)
	}
	if cfg.Danger.HonorBaseBonus != 0.08 {
		t.Errorf("honor base bonus = %v, want 0.08", cfg.Danger.HonorBaseBonus)
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("JANSHI_AGENT_STYLE", "balance")
	t.Setenv("JANSHI_BRIDGE_URL", "nats://10.0.0.5:4222")

	cfg := Default()
	if cfg.Agent.Style != "balance" {
		t.Errorf("style = %q, want balance", cfg.Agent.Style)
	}
	if cfg.Bridge.URL != "nats://10.0.0.5:4222" {
		t.Errorf("bridge url = %q", cfg.Bridge.URL)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
