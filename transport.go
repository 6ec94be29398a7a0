package btrfstree

// Transport performs a control call on an open file handle. The buffer is
// read as the request and, on success, overwritten with the response.
//
// Implementations must return failures as they get them: callers rely on
// errors.Is(err, unix.EPERM) and friends, and retrying is up to them.
type Transport interface {
	ControlCall(fd uintptr, request uint, buf []byte) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(fd uintptr, request uint, buf []byte) error

func (f TransportFunc) ControlCall(fd uintptr, request uint, buf []byte) error {
	return f(fd, request, buf)
}

// Ioctl is the operating system's control call. It is the default transport.
var Ioctl Transport = ioctlTransport{}
