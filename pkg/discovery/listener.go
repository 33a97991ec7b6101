package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/ipv4"

	"tarun-kavipurapu/lanshare/pkg/logger"
	"tarun-kavipurapu/lanshare/pkg/protocol"
	"tarun-kavipurapu/lanshare/pkg/registry"
)

const maxDatagramSize = 4096

// Listener receives announcements and records them in a registry.
type Listener struct {
	cfg      Config
	registry *registry.Registry
	conn     *net.UDPConn

	self    protocol.PeerID
	hasSelf bool
}

func NewListener(cfg Config, reg *registry.Registry) *Listener {
	return &Listener{
		cfg:      cfg,
		registry: reg,
	}
}

// SkipID makes the listener ignore announcements carrying id. Unicast
// groups deliver a peer's own announcement back to it.
func (l *Listener) SkipID(id protocol.PeerID) {
	l.self = id
	l.hasSelf = true
}

// Spawn binds the listener and runs its receive loop in the background.
// Bind or join failures are returned and nothing is left running.
func Spawn(cfg Config, reg *registry.Registry) (*Listener, error) {
	l := NewListener(cfg, reg)
	if err := l.Listen(); err != nil {
		return nil, err
	}

	go func() {
		if err := l.Serve(); err != nil {
			logger.Sugar.Errorf("[Discovery] listener stopped: %v", err)
		}
	}()
	return l, nil
}

// Listen binds the discovery port on the wildcard address and joins the
// group when it is a multicast address.
func (l *Listener) Listen() error {
	lc := net.ListenConfig{Control: setSocketReuseAddr}
	pconn, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", l.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to bind discovery port %d: %w", l.cfg.Port, err)
	}
	conn := pconn.(*net.UDPConn)

	if l.cfg.Group.IsMulticast() {
		if err := ipv4.NewPacketConn(conn).JoinGroup(nil, l.cfg.groupAddr()); err != nil {
			conn.Close()
			return fmt.Errorf("failed to join multicast group %s: %w", l.cfg.Group, err)
		}
	}

	l.conn = conn
	logger.Sugar.Infof("[Discovery] listening for announcements on %s", conn.LocalAddr())
	return nil
}

// Serve receives datagrams until the socket is closed. Malformed datagrams
// are logged and skipped.
func (l *Listener) Serve() error {
	if l.conn == nil {
		return errors.New("listener is not bound")
	}

	buf := make([]byte, maxDatagramSize)
	for {
		n, src, err := l.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Sugar.Warnf("[Discovery] receive error: %v", err)
			continue
		}
		l.handle(buf[:n], src)
	}
}

func (l *Listener) handle(datagram []byte, src netip.AddrPort) {
	defer func() {
		if r := recover(); r != nil {
			logger.Sugar.Errorf("[Discovery] recovered while handling datagram from %s: %v", src, r)
		}
	}()

	a, err := protocol.DecodeAnnouncement(datagram)
	if err != nil {
		logger.Sugar.Warnf("[Discovery] received a badly formatted packet from %s: %v", src, err)
		return
	}

	if l.hasSelf && a.ID == l.self {
		return
	}

	// A peer that does not know its own IP announces 0.0.0.0.
	if a.Addr.Addr().IsUnspecified() {
		a.Addr = netip.AddrPortFrom(src.Addr().Unmap(), a.Addr.Port())
	}

	if !l.registry.TryPut(a.ID, a.Addr) {
		logger.Sugar.Warnf("[Discovery] registry busy, skipped announcement id=%s addr=%s", a.ID, a.Addr)
		return
	}
	logger.Sugar.Infof("[Discovery] discovered id=%s addr=%s", a.ID, a.Addr)
}

// LocalAddr returns the bound socket address, or nil before Listen.
func (l *Listener) LocalAddr() net.Addr {
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

func (l *Listener) Close() error {
	if l.conn == nil {
		return nil
	}
	return l.conn.Close()
}
