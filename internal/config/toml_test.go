package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Race.User != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigParsesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[race]
user = "amy"
no-ghost = true

[network]
listen-port = 4001
bootstrap = ["/ip4/10.0.0.1/tcp/4001/p2p/QmPeer"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Race.User == nil || *cfg.Race.User != "amy" {
		t.Fatalf("unexpected user %v", cfg.Race.User)
	}
	if cfg.Race.NoGhost == nil || !*cfg.Race.NoGhost {
		t.Fatalf("no-ghost not parsed")
	}
	if cfg.Network.ListenPort == nil || *cfg.Network.ListenPort != 4001 {
		t.Fatalf("listen-port not parsed")
	}
	if len(cfg.Network.Bootstrap) != 1 {
		t.Fatalf("bootstrap not parsed: %v", cfg.Network.Bootstrap)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
