package tcp

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tarun-kavipurapu/lanshare/pkg/logger"
	"tarun-kavipurapu/lanshare/pkg/monitor"
	"tarun-kavipurapu/lanshare/pkg/protocol"
)

// Receiver implements transport.Receiver. Every accepted connection carries
// exactly one file packet and is handled on its own goroutine.
type Receiver struct {
	saveDir  string
	listener net.Listener

	mu     sync.Mutex
	closed bool
}

func NewReceiver(saveDir string) *Receiver {
	return &Receiver{saveDir: saveDir}
}

// ListenAndServe binds addr and serves until the listener fails.
func ListenAndServe(addr protocol.PeerAddress, saveDir string) error {
	r := NewReceiver(saveDir)
	if err := r.Listen(addr); err != nil {
		return err
	}
	return r.Serve()
}

func (r *Receiver) Listen(addr protocol.PeerAddress) error {
	ln, err := net.Listen("tcp", addr.String())
	if err != nil {
		return fmt.Errorf("failed to bind receiver on %s: %w", addr, err)
	}
	r.listener = ln

	logger.Sugar.Infof("[Receiver] receiving files on %s into %s", ln.Addr(), r.saveDir)
	return nil
}

// Serve runs the accept loop. It returns nil after Close and an error only
// when the listener is unusable.
func (r *Receiver) Serve() error {
	if r.listener == nil {
		return errors.New("receiver is not bound")
	}

	var delay time.Duration
	for {
		conn, err := r.listener.Accept()
		if err != nil {
			if r.isClosed() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}

			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay *= 2
			}
			if delay > time.Second {
				delay = time.Second
			}
			logger.Sugar.Errorf("[Receiver] accept error: listen=%s err=%v; retrying in %v", r.listener.Addr(), err, delay)
			time.Sleep(delay)
			continue
		}
		delay = 0

		go r.handleConn(conn)
	}
}

func (r *Receiver) handleConn(conn net.Conn) {
	defer conn.Close()

	started := time.Now()
	remote := conn.RemoteAddr()

	// No length prefix: the sender closing its side ends the file.
	data, err := io.ReadAll(conn)
	if err != nil {
		logger.Sugar.Errorf("[Receiver] read error: remote=%s err=%v", remote, err)
		monitor.RecordDroppedConn()
		return
	}
	logger.Sugar.Debugf("[Receiver] received %d bytes from %s", len(data), remote)

	f, err := protocol.DecodeFilePacket(data)
	if err != nil {
		logger.Sugar.Errorf("[Receiver] dropping connection: remote=%s err=%v", remote, err)
		monitor.RecordDroppedConn()
		return
	}

	path, err := r.save(f)
	if err != nil {
		logger.Sugar.Errorf("[Receiver] failed to write %s from %s: %v", f.Name, remote, err)
		monitor.RecordDroppedConn()
		return
	}

	monitor.RecordReceived(int64(len(f.Contents)), started)
	logger.Sugar.Infof("[Receiver] saved %s (%d bytes) from %s", path, len(f.Contents), remote)
}

// save overwrites saveDir/<name>, creating saveDir if needed.
func (r *Receiver) save(f protocol.FilePacket) (string, error) {
	if err := os.MkdirAll(r.saveDir, 0755); err != nil {
		return "", err
	}

	path := filepath.Join(r.saveDir, f.Name)
	if err := os.WriteFile(path, f.Contents, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Addr reports the bound address, which differs from the requested one when
// port 0 was used.
func (r *Receiver) Addr() protocol.PeerAddress {
	if r.listener == nil {
		return protocol.PeerAddress{}
	}
	if tcpAddr, ok := r.listener.Addr().(*net.TCPAddr); ok {
		addr := tcpAddr.AddrPort()
		return netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port())
	}
	return protocol.PeerAddress{}
}

func (r *Receiver) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	if r.listener == nil {
		return nil
	}
	return r.listener.Close()
}

func (r *Receiver) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
