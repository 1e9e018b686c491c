//go:build !unix

package socket

import "syscall"

// The net package already sets the platform's address reuse option.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	return nil
}
