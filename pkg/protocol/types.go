package protocol

import (
	"fmt"
	"hash/maphash"
	"net"
	"net/netip"
	"strconv"
	"time"
)

// Network parameters shared by every instance on the LAN.
const (
	// MulticastGroup is below 224.0.0.250 on purpose; the rest of that
	// range is used by routing protocols.
	MulticastGroup = "224.0.0.251"
	DiscoveryPort  = 20581
	TCPPort        = 25802
)

// PeerID identifies a running instance for the lifetime of its process.
type PeerID uint64

func (id PeerID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParsePeerID parses a base-10 peer id.
func ParsePeerID(s string) (PeerID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid peer id %q: %w", s, err)
	}
	return PeerID(v), nil
}

// NewPeerID derives an id from the current monotonic clock reading, hashed
// with a per-process random seed.
func NewPeerID() PeerID {
	var h maphash.Hash
	h.WriteString(time.Now().String())
	return PeerID(h.Sum64())
}

// PeerAddress is where a peer accepts file transfers.
type PeerAddress = netip.AddrPort

// ParsePeerAddress parses "ip:port".
func ParsePeerAddress(s string) (PeerAddress, error) {
	addr, err := netip.ParseAddrPort(s)
	if err != nil {
		return PeerAddress{}, fmt.Errorf("invalid peer address %q: %w", s, err)
	}
	return addr, nil
}

// LocalAddress returns the first private IPv4 address of an up, non-loopback
// interface paired with port. When none is found the unspecified address is
// used and listeners substitute the datagram source IP.
func LocalAddress(port uint16) PeerAddress {
	ip := netip.IPv4Unspecified()

	ifaces, err := net.Interfaces()
	if err != nil {
		return netip.AddrPortFrom(ip, port)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			candidate, ok := netip.AddrFromSlice(ipNet.IP)
			if !ok {
				continue
			}
			candidate = candidate.Unmap()
			if candidate.Is4() && candidate.IsPrivate() {
				return netip.AddrPortFrom(candidate, port)
			}
		}
	}

	return netip.AddrPortFrom(ip, port)
}
