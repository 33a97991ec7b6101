package protocol

import (
	"errors"
	"fmt"
)

const (
	HeaderID   = "id"
	HeaderAddr = "addr"
)

var (
	ErrMissingPeerID   = errors.New("missing peer id")
	ErrMissingPeerAddr = errors.New("missing peer address")
)

// Announcement broadcasts where a peer accepts file transfers.
type Announcement struct {
	ID   PeerID
	Addr PeerAddress
}

func (a Announcement) Bytes() []byte {
	p := NewPacket()
	p.SetHeader(HeaderID, a.ID.String())
	p.SetHeader(HeaderAddr, a.Addr.String())
	return p.Bytes()
}

// DecodeAnnouncement parses a discovery datagram.
func DecodeAnnouncement(b []byte) (Announcement, error) {
	p, err := Decode(b)
	if err != nil {
		return Announcement{}, fmt.Errorf("invalid announcement: %w", err)
	}

	rawID, ok := p.Header(HeaderID)
	if !ok {
		return Announcement{}, ErrMissingPeerID
	}
	id, err := ParsePeerID(rawID)
	if err != nil {
		return Announcement{}, fmt.Errorf("%w: %v", ErrMissingPeerID, err)
	}

	rawAddr, ok := p.Header(HeaderAddr)
	if !ok {
		return Announcement{}, ErrMissingPeerAddr
	}
	addr, err := ParsePeerAddress(rawAddr)
	if err != nil {
		return Announcement{}, fmt.Errorf("%w: %v", ErrMissingPeerAddr, err)
	}

	return Announcement{ID: id, Addr: addr}, nil
}
