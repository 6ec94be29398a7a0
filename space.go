package btrfstree

import (
	"encoding/binary"
	"fmt"
)

const (
	spaceArgsSize = 16
	spaceInfoSize = 24

	maxSpaceSlots = 4096
)

// SpaceInfo is one entry returned by the SPACE_INFO control call: the space
// allocated to and used by block groups of one type and profile.
type SpaceInfo struct {
	Flags      uint64
	TotalBytes uint64
	UsedBytes  uint64
}

func (si SpaceInfo) String() string {
	return fmt.Sprintf("%s, %s: total=%d, used=%d", UsageType(si.Flags), ReplicationType(si.Flags), si.TotalBytes, si.UsedBytes)
}

// SpaceInfo asks the filesystem how its space is allocated. It asks for the
// number of entries first and then for the entries.
func (s *Searcher) SpaceInfo() ([]SpaceInfo, error) {
	var args [spaceArgsSize]byte
	err := s.transport.ControlCall(s.fd, IocSpaceInfo, args[:])
	if err != nil {
		return nil, err
	}
	total := binary.NativeEndian.Uint64(args[8:])
	if total == 0 {
		return nil, nil
	}
	if total > maxSpaceSlots {
		return nil, dataErrf(args[:], 8, nil, "implausible space info count %d", total)
	}

	buf := make([]byte, spaceArgsSize+int(total)*spaceInfoSize)
	binary.NativeEndian.PutUint64(buf[0:], total)
	err = s.transport.ControlCall(s.fd, IocSpaceInfo, buf)
	if err != nil {
		return nil, err
	}
	n := binary.NativeEndian.Uint64(buf[8:])
	if n > total {
		return nil, dataErrf(buf[:spaceArgsSize], 8, nil, "space info count %d exceeds %d slots", n, total)
	}

	result := make([]SpaceInfo, n)
	_, err = binary.Decode(buf[spaceArgsSize:], binary.NativeEndian, result)
	if err != nil {
		return nil, dataErrf(buf, spaceArgsSize, err, "cannot decode space info")
	}
	return result, nil
}

// AppendSpaceInfo packs a SPACE_INFO response into buf the way the kernel does:
// as many entries as the request has slots for, or only the count when it has
// none. It is meant for emulators of the control call.
func AppendSpaceInfo(buf []byte, infos []SpaceInfo) error {
	if len(buf) < spaceArgsSize {
		return ErrBufferTooSmall
	}
	slots := binary.NativeEndian.Uint64(buf[0:])
	if slots == 0 {
		binary.NativeEndian.PutUint64(buf[8:], uint64(len(infos)))
		return nil
	}
	if fit := uint64(len(buf)-spaceArgsSize) / spaceInfoSize; slots > fit {
		return ErrBufferTooSmall
	}
	n := min(slots, uint64(len(infos)))
	_, err := binary.Encode(buf[spaceArgsSize:], binary.NativeEndian, infos[:n])
	if err != nil {
		return err
	}
	binary.NativeEndian.PutUint64(buf[8:], n)
	return nil
}
