package tcp

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"go.uber.org/multierr"

	"tarun-kavipurapu/lanshare/pkg/logger"
	"tarun-kavipurapu/lanshare/pkg/monitor"
	"tarun-kavipurapu/lanshare/pkg/protocol"
)

var ErrNotAFile = errors.New("not a regular file")

// SendError reports a failed delivery to one address.
type SendError struct {
	Addr protocol.PeerAddress
	Err  error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send to %s: %v", e.Addr, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Sender implements transport.Sender. Each delivery uses its own
// connection; the end of the stream marks the end of the file.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) SendTo(addr protocol.PeerAddress, path string) error {
	return s.SendToAll([]protocol.PeerAddress{addr}, path)
}

// SendToAll delivers the file at path to every address. A failure for one
// address does not stop the others; all failures are combined with multierr
// as *SendError values.
func (s *Sender) SendToAll(addrs []protocol.PeerAddress, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotAFile, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	f, err := protocol.ReadFilePacket(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	data := f.Bytes()
	logger.Sugar.Infof("[Sender] sending %s (%d bytes encoded) to %d peer(s)", f.Name, len(data), len(addrs))

	var errs error
	for _, addr := range addrs {
		started := time.Now()
		if err := send(addr, data); err != nil {
			logger.Sugar.Errorf("[Sender] failed to send %s to %s: %v", f.Name, addr, err)
			monitor.RecordFailedSend()
			errs = multierr.Append(errs, &SendError{Addr: addr, Err: err})
			continue
		}
		monitor.RecordSent(int64(len(f.Contents)), started)
		logger.Sugar.Infof("[Sender] sent %s to %s", f.Name, addr)
	}
	return errs
}

func send(addr protocol.PeerAddress, data []byte) error {
	conn, err := net.DialTCP("tcp", nil, net.TCPAddrFromAddrPort(addr))
	if err != nil {
		return err
	}

	if _, err := conn.Write(data); err != nil {
		conn.Close()
		return err
	}
	return conn.Close()
}
