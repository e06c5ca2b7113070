package transport

import (
	"fmt"
	"log"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// rcvBufSize and sndBufSize mirror the teacher's 256KB buffers, sized to
// absorb burst traffic from a GETBULK-heavy poller without packet loss.
const (
	rcvBufSize = 256 * 1024
	sndBufSize = 256 * 1024
)

// tuneSocket applies the same raw-socket tuning as
// engine/simulator.go's setSocketOptions: larger receive/send buffers,
// and SO_REUSEPORT where the kernel supports it (Linux 3.9+), logged as
// a warning rather than a failure since it's a performance knob, not a
// correctness requirement.
func tuneSocket(conn *net.UDPConn) error {
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("get raw conn: %w", err)
	}

	var setsockoptErr error
	err = rawConn.Control(func(fd uintptr) {
		ifd := int(fd)

		if err := syscall.SetsockoptInt(ifd, syscall.SOL_SOCKET, syscall.SO_RCVBUF, rcvBufSize); err != nil {
			setsockoptErr = fmt.Errorf("set SO_RCVBUF: %w", err)
			return
		}
		if err := syscall.SetsockoptInt(ifd, syscall.SOL_SOCKET, syscall.SO_SNDBUF, sndBufSize); err != nil {
			setsockoptErr = fmt.Errorf("set SO_SNDBUF: %w", err)
			return
		}
		if err := syscall.SetsockoptInt(ifd, syscall.SOL_SOCKET, int(unix.SO_REUSEPORT), 1); err != nil {
			log.Printf("transport: SO_REUSEPORT not available (may reduce performance): %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("rawConn.Control failed: %w", err)
	}
	return setsockoptErr
}
