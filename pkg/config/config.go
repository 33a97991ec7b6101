package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"time"

	"tarun-kavipurapu/lanshare/pkg/protocol"
)

const (
	appDirName        = "lanshare"
	DefaultSocketPath = "/tmp/rapi.sock"

	EnvSaveDir = "LANSHARE_SAVE_DIR"
	EnvSocket  = "LANSHARE_SOCKET"
)

// Config is everything the daemon needs that is resolved outside the core.
type Config struct {
	// SaveDir is where received files are written.
	SaveDir string
	// SocketPath is the unix socket of the control API.
	SocketPath string

	TCPPort        uint16
	MulticastGroup string
	DiscoveryPort  uint16

	EnableMDNS      bool
	MetricsInterval time.Duration
	LogDir          string
}

// Default resolves paths from the home directory and the environment.
func Default() Config {
	cfg := Config{
		SaveDir:        defaultSaveDir(),
		SocketPath:     DefaultSocketPath,
		TCPPort:        protocol.TCPPort,
		MulticastGroup: protocol.MulticastGroup,
		DiscoveryPort:  protocol.DiscoveryPort,
	}

	if v := os.Getenv(EnvSaveDir); v != "" {
		cfg.SaveDir = v
	}
	if v := os.Getenv(EnvSocket); v != "" {
		cfg.SocketPath = v
	}
	return cfg
}

func defaultSaveDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return appDirName
	}
	return filepath.Join(home, appDirName)
}

func (c Config) Validate() error {
	if c.SaveDir == "" {
		return errors.New("save directory must not be empty")
	}
	if c.SocketPath == "" {
		return errors.New("socket path must not be empty")
	}
	if c.TCPPort == 0 {
		return errors.New("tcp port must not be 0")
	}
	if c.DiscoveryPort == 0 {
		return errors.New("discovery port must not be 0")
	}
	if _, err := c.Group(); err != nil {
		return err
	}
	if c.MetricsInterval < 0 {
		return fmt.Errorf("metrics interval must not be negative: %v", c.MetricsInterval)
	}
	return nil
}

// Group parses MulticastGroup.
func (c Config) Group() (netip.Addr, error) {
	addr, err := netip.ParseAddr(c.MulticastGroup)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid multicast group %q: %w", c.MulticastGroup, err)
	}
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("multicast group %s is not IPv4", addr)
	}
	return addr, nil
}

// EnsureSaveDir creates SaveDir if it does not exist.
func (c Config) EnsureSaveDir() error {
	if err := os.MkdirAll(c.SaveDir, 0755); err != nil {
		return fmt.Errorf("failed to create save directory %s: %w", c.SaveDir, err)
	}
	return nil
}
