package peer

import (
	"context"
	"fmt"
	"net/netip"
	"sync"

	"tarun-kavipurapu/lanshare/pkg/discovery"
	"tarun-kavipurapu/lanshare/pkg/logger"
	"tarun-kavipurapu/lanshare/pkg/protocol"
	"tarun-kavipurapu/lanshare/pkg/registry"
	"tarun-kavipurapu/lanshare/pkg/transport"
	"tarun-kavipurapu/lanshare/pkg/transport/tcp"
)

// Options are resolved by the caller before the server is built.
type Options struct {
	ID        protocol.PeerID
	Addr      protocol.PeerAddress
	SaveDir   string
	Discovery discovery.Config
	// EnableMDNS additionally advertises and browses over mDNS.
	EnableMDNS bool
}

// PeerServer owns this instance's identity, its registry of discovered
// peers, and the background discovery and receive loops.
type PeerServer struct {
	id       protocol.PeerID
	addrLock sync.RWMutex
	addr     protocol.PeerAddress
	saveDir  string

	registry  *registry.Registry
	sender    transport.Sender
	receiver  transport.Receiver
	listener  *discovery.Listener
	announcer *discovery.Announcer

	enableMDNS bool
	advertiser *discovery.Advertiser
	stopMDNS   context.CancelFunc
}

func NewPeerServer(opts Options) *PeerServer {
	p := &PeerServer{
		id:         opts.ID,
		addr:       opts.Addr,
		saveDir:    opts.SaveDir,
		registry:   registry.New(),
		sender:     tcp.NewSender(),
		receiver:   tcp.NewReceiver(opts.SaveDir),
		announcer:  discovery.NewAnnouncer(opts.Discovery),
		enableMDNS: opts.EnableMDNS,
		advertiser: discovery.NewAdvertiser(),
	}
	p.listener = discovery.NewListener(opts.Discovery, p.registry)
	p.listener.SkipID(opts.ID)

	logger.Sugar.Infof("[PeerServer] Initialized id=%s addr=%s", p.id, p.addr)
	return p
}

// Start binds the file receiver and the discovery listener, runs both in
// the background, and announces this peer once. Bind failures are returned
// and leave nothing running.
func (p *PeerServer) Start() error {
	if err := p.receiver.Listen(p.GetMyAddress()); err != nil {
		return err
	}

	// Port 0 picks an ephemeral port; advertise the one actually bound.
	if bound := p.receiver.Addr(); bound.Port() != p.addr.Port() {
		p.addrLock.Lock()
		p.addr = netip.AddrPortFrom(p.addr.Addr(), bound.Port())
		p.addrLock.Unlock()
	}

	go func() {
		if err := p.receiver.Serve(); err != nil {
			logger.Sugar.Errorf("[PeerServer] receiver stopped: %v", err)
		}
	}()

	if err := p.listener.Listen(); err != nil {
		p.receiver.Close()
		return err
	}
	go func() {
		if err := p.listener.Serve(); err != nil {
			logger.Sugar.Errorf("[PeerServer] discovery listener stopped: %v", err)
		}
	}()

	if p.enableMDNS {
		p.startMDNS()
	}

	return p.Announce()
}

func (p *PeerServer) startMDNS() {
	addr := p.GetMyAddress()
	if err := p.advertiser.Start(p.id, addr.Port()); err != nil {
		logger.Sugar.Warnf("[PeerServer] mDNS advertisement unavailable: %v", err)
	}

	resolver, err := discovery.NewResolver()
	if err != nil {
		logger.Sugar.Warnf("[PeerServer] mDNS browsing unavailable: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.stopMDNS = cancel
	go func() {
		if err := resolver.Watch(ctx, p.id, p.registry); err != nil {
			logger.Sugar.Warnf("[PeerServer] mDNS browsing stopped: %v", err)
		}
	}()
}

// Announce multicasts this peer's id and address.
func (p *PeerServer) Announce() error {
	return p.announcer.Announce(p.id, p.GetMyAddress())
}

func (p *PeerServer) GetMyID() protocol.PeerID {
	return p.id
}

func (p *PeerServer) GetMyAddress() protocol.PeerAddress {
	p.addrLock.RLock()
	defer p.addrLock.RUnlock()
	return p.addr
}

// ListPeers returns the ids of discovered peers, or false if none are known.
func (p *PeerServer) ListPeers() ([]protocol.PeerID, bool) {
	return p.registry.PeerIDs()
}

// Registry exposes the registry for read-only queries.
func (p *PeerServer) Registry() *registry.Registry {
	return p.registry
}

// Stop closes the listening sockets. Transfers already accepted run to
// completion on their own goroutines.
func (p *PeerServer) Stop() {
	if p.stopMDNS != nil {
		p.stopMDNS()
	}
	p.advertiser.Stop()

	if err := p.listener.Close(); err != nil {
		logger.Sugar.Warnf("[PeerServer] closing discovery listener: %v", err)
	}
	if err := p.receiver.Close(); err != nil {
		logger.Sugar.Warnf("[PeerServer] closing receiver: %v", err)
	}
	logger.Sugar.Infof("[PeerServer] Stopped id=%s", p.id)
}

func (p *PeerServer) String() string {
	return fmt.Sprintf("%s@%s", p.id, p.GetMyAddress())
}
