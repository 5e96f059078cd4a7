//go:build !linux

package probe

import "syscall"

// vrfControl is a no-op off Linux; VRF scoping needs SO_BINDTODEVICE.
func vrfControl(device string) func(network, address string, c syscall.RawConn) error {
	return nil
}
