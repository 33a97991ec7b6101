package transport

import "tarun-kavipurapu/lanshare/pkg/protocol"

// Sender pushes whole files to peers
type Sender interface {
	SendToAll(addrs []protocol.PeerAddress, path string) error
	SendTo(addr protocol.PeerAddress, path string) error
}

// Receiver accepts files from peers and persists them
type Receiver interface {
	Listen(addr protocol.PeerAddress) error
	Serve() error
	Addr() protocol.PeerAddress
	Close() error
}
