//go:build linux

package probe

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// vrfControl binds outbound probe sockets to the named VRF device via
// SO_BINDTODEVICE. An empty device name leaves the socket in the default
// routing context.
func vrfControl(device string) func(network, address string, c syscall.RawConn) error {
	if device == "" {
		return nil
	}
	return func(network, address string, c syscall.RawConn) error {
		var sockErr error
		if err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptString(int(fd), unix.SOL_SOCKET, unix.SO_BINDTODEVICE, device)
		}); err != nil {
			return err
		}
		return sockErr
	}
}
