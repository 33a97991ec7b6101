package registry

import (
	"sort"
	"sync"

	"tarun-kavipurapu/lanshare/pkg/protocol"
)

// Registry maps discovered peer ids to their transfer addresses.
//
// The discovery listener is the only writer and uses TryPut so it never
// waits on readers. Entries never expire.
type Registry struct {
	mu    sync.RWMutex
	peers map[protocol.PeerID]protocol.PeerAddress
}

func New() *Registry {
	return &Registry{
		peers: make(map[protocol.PeerID]protocol.PeerAddress),
	}
}

// TryPut upserts id -> addr if the lock is free right now. It reports
// whether the update was applied.
func (r *Registry) TryPut(id protocol.PeerID, addr protocol.PeerAddress) bool {
	if !r.mu.TryLock() {
		return false
	}
	defer r.mu.Unlock()

	r.peers[id] = addr
	return true
}

// Put upserts id -> addr, waiting for the lock.
func (r *Registry) Put(id protocol.PeerID, addr protocol.PeerAddress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.peers[id] = addr
}

// PeerIDs returns a sorted snapshot of known ids, or false if none are known.
func (r *Registry) PeerIDs() ([]protocol.PeerID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.peers) == 0 {
		return nil, false
	}

	ids := make([]protocol.PeerID, 0, len(r.peers))
	for id := range r.peers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, true
}

// PeerAddresses returns a snapshot of known addresses, or false if none are known.
func (r *Registry) PeerAddresses() ([]protocol.PeerAddress, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.peers) == 0 {
		return nil, false
	}

	addrs := make([]protocol.PeerAddress, 0, len(r.peers))
	for _, addr := range r.peers {
		addrs = append(addrs, addr)
	}
	return addrs, true
}

func (r *Registry) Find(id protocol.PeerID) (protocol.PeerAddress, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	addr, ok := r.peers[id]
	return addr, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}
