//go:build !windows

package discovery

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setSocketReuseAddr lets several instances on one host share the
// discovery port.
func setSocketReuseAddr(network, address string, c syscall.RawConn) error {
	var setSockOptErr error
	err := c.Control(func(fd uintptr) {
		setSockOptErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
		if setSockOptErr != nil {
			return
		}
		setSockOptErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return err
	}
	return setSockOptErr
}
