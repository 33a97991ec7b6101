package peer

import (
	"errors"
	"fmt"

	"tarun-kavipurapu/lanshare/pkg/logger"
	"tarun-kavipurapu/lanshare/pkg/protocol"
)

var (
	ErrNoPeers     = errors.New("no peers discovered")
	ErrUnknownPeer = errors.New("unknown peer")
)

// SendFile sends the file at path to every discovered peer. Every peer is
// attempted; per-peer failures are aggregated into the returned error.
func (p *PeerServer) SendFile(path string) error {
	addrs, ok := p.registry.PeerAddresses()
	if !ok {
		return ErrNoPeers
	}

	logger.Sugar.Infof("[PeerServer] Sending %s to %d peers", path, len(addrs))
	if err := p.sender.SendToAll(addrs, path); err != nil {
		return fmt.Errorf("send %s: %w", path, err)
	}
	return nil
}

// SendFileTo sends the file at path to the peer registered under id.
func (p *PeerServer) SendFileTo(id protocol.PeerID, path string) error {
	addr, ok := p.registry.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, id)
	}

	logger.Sugar.Infof("[PeerServer] Sending %s to %s at %s", path, id, addr)
	if err := p.sender.SendTo(addr, path); err != nil {
		return fmt.Errorf("send %s to %s: %w", path, id, err)
	}
	return nil
}
