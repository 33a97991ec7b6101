package discovery

import (
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/ipv4"

	"tarun-kavipurapu/lanshare/pkg/logger"
	"tarun-kavipurapu/lanshare/pkg/protocol"
)

// Config names the group and port discovery traffic uses. A non-multicast
// group (e.g. 127.0.0.1) turns discovery into plain unicast, which tests rely on.
type Config struct {
	Group netip.Addr
	Port  uint16
}

func DefaultConfig() Config {
	return Config{
		Group: netip.MustParseAddr(protocol.MulticastGroup),
		Port:  protocol.DiscoveryPort,
	}
}

func (c Config) groupAddr() *net.UDPAddr {
	return net.UDPAddrFromAddrPort(netip.AddrPortFrom(c.Group, c.Port))
}

// Announcer sends one-shot presence announcements.
type Announcer struct {
	cfg Config
}

func NewAnnouncer(cfg Config) *Announcer {
	return &Announcer{cfg: cfg}
}

// Announce sends a single datagram advertising id at addr. Multicast
// loopback is disabled so the sender never discovers itself.
func (a *Announcer) Announce(id protocol.PeerID, addr protocol.PeerAddress) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	if err != nil {
		return fmt.Errorf("failed to open announcement socket: %w", err)
	}
	defer conn.Close()

	if err := ipv4.NewPacketConn(conn).SetMulticastLoopback(false); err != nil {
		return fmt.Errorf("failed to disable multicast loopback: %w", err)
	}

	pkt := protocol.Announcement{ID: id, Addr: addr}.Bytes()
	if _, err := conn.WriteToUDP(pkt, a.cfg.groupAddr()); err != nil {
		return fmt.Errorf("failed to send announcement to %s: %w", a.cfg.groupAddr(), err)
	}

	logger.Sugar.Infof("[Discovery] announced id=%s addr=%s to %s", id, addr, a.cfg.groupAddr())
	return nil
}

// Announce uses the default multicast group and port.
func Announce(id protocol.PeerID, addr protocol.PeerAddress) error {
	return NewAnnouncer(DefaultConfig()).Announce(id, addr)
}
