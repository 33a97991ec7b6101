package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultHonoursEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvSaveDir, dir)
	t.Setenv(EnvSocket, filepath.Join(dir, "ctl.sock"))

	cfg := Default()
	if cfg.SaveDir != dir {
		t.Errorf("SaveDir = %q, want %q", cfg.SaveDir, dir)
	}
	if cfg.SocketPath != filepath.Join(dir, "ctl.sock") {
		t.Errorf("SocketPath = %q", cfg.SocketPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestDefaultSaveDirUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv(EnvSaveDir, "")

	cfg := Default()
	if cfg.SaveDir != filepath.Join(home, appDirName) {
		t.Errorf("SaveDir = %q, want under %q", cfg.SaveDir, home)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty save dir", func(c *Config) { c.SaveDir = "" }},
		{"empty socket", func(c *Config) { c.SocketPath = "" }},
		{"zero tcp port", func(c *Config) { c.TCPPort = 0 }},
		{"zero discovery port", func(c *Config) { c.DiscoveryPort = 0 }},
		{"bad group", func(c *Config) { c.MulticastGroup = "not-an-ip" }},
		{"ipv6 group", func(c *Config) { c.MulticastGroup = "ff02::fb" }},
		{"negative interval", func(c *Config) { c.MetricsInterval = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.SaveDir = "x"
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted an invalid config")
			}
		})
	}
}

func TestEnsureSaveDir(t *testing.T) {
	cfg := Default()
	cfg.SaveDir = filepath.Join(t.TempDir(), "a", "b")

	if err := cfg.EnsureSaveDir(); err != nil {
		t.Fatalf("EnsureSaveDir: %v", err)
	}
	if info, err := os.Stat(cfg.SaveDir); err != nil || !info.IsDir() {
		t.Errorf("save dir missing: %v", err)
	}
}
