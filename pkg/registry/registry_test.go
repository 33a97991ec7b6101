package registry

import (
	"net/netip"
	"sync"
	"testing"

	"tarun-kavipurapu/lanshare/pkg/protocol"
)

func TestEmptyRegistry(t *testing.T) {
	r := New()

	if ids, ok := r.PeerIDs(); ok || ids != nil {
		t.Errorf("PeerIDs() = %v, %v; want nil, false", ids, ok)
	}
	if addrs, ok := r.PeerAddresses(); ok || addrs != nil {
		t.Errorf("PeerAddresses() = %v, %v; want nil, false", addrs, ok)
	}
	if _, ok := r.Find(1); ok {
		t.Error("Find(1) on empty registry reported a peer")
	}
}

func TestLastWriteWins(t *testing.T) {
	r := New()
	a := netip.MustParseAddrPort("10.0.0.1:25802")
	b := netip.MustParseAddrPort("10.0.0.2:25802")

	if !r.TryPut(7, a) {
		t.Fatal("TryPut on an idle registry failed")
	}
	if !r.TryPut(7, b) {
		t.Fatal("TryPut on an idle registry failed")
	}

	got, ok := r.Find(7)
	if !ok || got != b {
		t.Errorf("Find(7) = %v, %v; want %v, true", got, ok, b)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestSnapshots(t *testing.T) {
	r := New()
	r.Put(3, netip.MustParseAddrPort("10.0.0.3:1"))
	r.Put(1, netip.MustParseAddrPort("10.0.0.1:1"))

	ids, ok := r.PeerIDs()
	if !ok || len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Errorf("PeerIDs() = %v, %v", ids, ok)
	}

	ids[0] = 99
	if _, ok := r.Find(99); ok {
		t.Error("mutating a snapshot changed the registry")
	}

	addrs, ok := r.PeerAddresses()
	if !ok || len(addrs) != 2 {
		t.Errorf("PeerAddresses() = %v, %v", addrs, ok)
	}
}

func TestTryPutSkipsWhileReaderHoldsLock(t *testing.T) {
	r := New()

	r.mu.RLock()
	applied := r.TryPut(1, netip.MustParseAddrPort("10.0.0.1:1"))
	r.mu.RUnlock()

	if applied {
		t.Fatal("TryPut applied while the lock was held")
	}
	if _, ok := r.Find(1); ok {
		t.Error("skipped update is visible")
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			r.Put(protocol.PeerID(i%10), netip.AddrPortFrom(netip.IPv4Unspecified(), uint16(i)))
		}
	}()

	for n := 0; n < 4; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				r.PeerIDs()
				r.PeerAddresses()
				r.Find(protocol.PeerID(i % 10))
			}
		}()
	}

	wg.Wait()
	if r.Len() != 10 {
		t.Errorf("Len() = %d, want 10", r.Len())
	}
}
