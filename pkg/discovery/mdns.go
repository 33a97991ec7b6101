package discovery

import (
	"context"
	"fmt"
	"net/netip"
	"strings"

	"github.com/grandcat/zeroconf"

	"tarun-kavipurapu/lanshare/pkg/logger"
	"tarun-kavipurapu/lanshare/pkg/protocol"
	"tarun-kavipurapu/lanshare/pkg/registry"
)

const (
	// ServiceType defines the mDNS service type for lanshare
	ServiceType = "_lanshare._tcp"
	// Domain is the local domain for mDNS
	Domain = "local."
)

// ServiceInfo contains information about a discovered service
type ServiceInfo struct {
	InstanceName string
	HostName     string
	Port         int
	IPs          []netip.Addr
	Meta         map[string]string
}

// Announcement converts the service into an announcement if it carries a
// parsable id and at least one IPv4 address.
func (s *ServiceInfo) Announcement() (protocol.Announcement, bool) {
	id, err := protocol.ParsePeerID(s.Meta[protocol.HeaderID])
	if err != nil || len(s.IPs) == 0 || s.Port <= 0 || s.Port > 0xffff {
		return protocol.Announcement{}, false
	}
	return protocol.Announcement{
		ID:   id,
		Addr: netip.AddrPortFrom(s.IPs[0], uint16(s.Port)),
	}, true
}

// Advertiser publishes this peer over mDNS as a fallback for networks that
// drop plain multicast announcements.
type Advertiser struct {
	server *zeroconf.Server
}

// Resolver browses for other advertisers
type Resolver struct {
	resolver *zeroconf.Resolver
}

func NewAdvertiser() *Advertiser {
	return &Advertiser{}
}

// Start registers the service with the peer id in a TXT record.
func (a *Advertiser) Start(id protocol.PeerID, port uint16) error {
	txtRecords := []string{fmt.Sprintf("%s=%s", protocol.HeaderID, id)}

	server, err := zeroconf.Register(
		fmt.Sprintf("lanshare-%s", id),
		ServiceType,
		Domain,
		int(port),
		txtRecords,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}

	a.server = server
	return nil
}

// Stop stops broadcasting the service
func (a *Advertiser) Stop() {
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

func NewResolver() (*Resolver, error) {
	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	return &Resolver{resolver: resolver}, nil
}

// Browse scans for services until the context is canceled
// It returns a channel that will receive discovered services
func (r *Resolver) Browse(ctx context.Context) (<-chan *ServiceInfo, error) {
	entries := make(chan *zeroconf.ServiceEntry)
	results := make(chan *ServiceInfo, 10)

	if err := r.resolver.Browse(ctx, ServiceType, Domain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse services: %w", err)
	}

	go func() {
		defer close(results)

		for {
			select {
			case <-ctx.Done():
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}

				info := &ServiceInfo{
					InstanceName: entry.Instance,
					HostName:     entry.HostName,
					Port:         entry.Port,
					Meta:         make(map[string]string),
				}

				for _, ip := range entry.AddrIPv4 {
					if addr, ok := netip.AddrFromSlice(ip); ok {
						info.IPs = append(info.IPs, addr.Unmap())
					}
				}

				for _, record := range entry.Text {
					if k, v, ok := strings.Cut(record, "="); ok {
						info.Meta[k] = v
					}
				}

				if len(info.IPs) > 0 {
					logger.Sugar.Debugf("[Discovery] mDNS service: instance=%s ips=%v port=%d", info.InstanceName, info.IPs, info.Port)
					results <- info
				}
			}
		}
	}()

	return results, nil
}

// Watch browses until ctx is canceled and records every advertised peer
// other than self in reg, with the same skip-on-contention rule as the
// multicast listener.
func (r *Resolver) Watch(ctx context.Context, self protocol.PeerID, reg *registry.Registry) error {
	ch, err := r.Browse(ctx)
	if err != nil {
		return err
	}

	for info := range ch {
		a, ok := info.Announcement()
		if !ok || a.ID == self {
			continue
		}
		if !reg.TryPut(a.ID, a.Addr) {
			logger.Sugar.Warnf("[Discovery] registry busy, skipped mDNS peer id=%s addr=%s", a.ID, a.Addr)
			continue
		}
		logger.Sugar.Infof("[Discovery] discovered via mDNS id=%s addr=%s", a.ID, a.Addr)
	}
	return nil
}
