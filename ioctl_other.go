//go:build !linux

package btrfstree

import "errors"

type ioctlTransport struct{}

func (ioctlTransport) ControlCall(fd uintptr, request uint, buf []byte) error {
	return errors.ErrUnsupported
}
