package discovery

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"tarun-kavipurapu/lanshare/pkg/protocol"
	"tarun-kavipurapu/lanshare/pkg/registry"
)

func TestMDNSDiscovery(t *testing.T) {
	// Skip in CI/docker environments where multicast might not work
	if testing.Short() {
		t.Skip("Skipping mDNS test in short mode")
	}

	advertiser := NewAdvertiser()
	var id protocol.PeerID = 4242
	port := uint16(12345)

	if err := advertiser.Start(id, port); err != nil {
		t.Skipf("mDNS unavailable: %v", err)
	}
	defer advertiser.Stop()

	time.Sleep(500 * time.Millisecond)

	resolver, err := NewResolver()
	if err != nil {
		t.Skipf("mDNS unavailable: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reg := registry.New()
	if err := resolver.Watch(ctx, 1, reg); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	addr, ok := reg.Find(id)
	if !ok {
		t.Skip("advertised service was not seen; multicast is probably filtered here")
	}
	if addr.Port() != port {
		t.Errorf("port = %d, want %d", addr.Port(), port)
	}
}

func TestServiceInfoAnnouncement(t *testing.T) {
	info := &ServiceInfo{
		Port: 25802,
		IPs:  []netip.Addr{netip.MustParseAddr("192.168.1.9")},
		Meta: map[string]string{"id": "77"},
	}

	a, ok := info.Announcement()
	if !ok {
		t.Fatal("expected a usable announcement")
	}
	if a.ID != 77 || a.Addr != netip.MustParseAddrPort("192.168.1.9:25802") {
		t.Errorf("got %+v", a)
	}

	info.Meta = map[string]string{}
	if _, ok := info.Announcement(); ok {
		t.Error("service without id produced an announcement")
	}
}
