//go:build unix

package socket

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func reuseAddrControl(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return newError(KindCreate, err)
	}
	if sockErr != nil {
		return newError(KindReuseAddr, sockErr)
	}
	return nil
}
