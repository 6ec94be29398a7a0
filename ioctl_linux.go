//go:build linux

package btrfstree

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

type ioctlTransport struct{}

// ControlCall issues ioctl(2). EINTR is returned to the caller like any other
// failure.
func (ioctlTransport) ControlCall(fd uintptr, request uint, buf []byte) error {
	if len(buf) == 0 {
		return unix.EINVAL
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(request), uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return errno
	}
	return nil
}
