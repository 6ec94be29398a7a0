package snapshot

import (
	"log/slog"
	"syscall"

	"github.com/andreyvit/btrfstree"
)

// ControlCall serves TREE_SEARCH and SPACE_INFO requests from the recording
// the way the kernel would. Other requests fail with ENOTTY. fd is ignored.
func (s *Snapshot) ControlCall(fd uintptr, request uint, buf []byte) error {
	switch request {
	case btrfstree.IocTreeSearch:
		return s.serveSearch(buf)
	case btrfstree.IocSpaceInfo:
		return s.serveSpaceInfo(buf)
	default:
		return syscall.ENOTTY
	}
}

func (s *Snapshot) serveSearch(buf []byte) error {
	if len(buf) < btrfstree.BufferSize {
		return syscall.EFAULT
	}
	buf = buf[:btrfstree.BufferSize]
	q, err := btrfstree.DecodeQuery(buf)
	if err != nil {
		return syscall.EINVAL
	}
	s.searches.Add(1)

	resp := btrfstree.NewResponse(buf)
	err = s.read(func(tx storageTx) error {
		b := tx.Bucket(treeBucket(q.Tree))
		if b == nil {
			return syscall.ENOENT
		}
		c := b.Cursor()
		for k, v := c.Seek(appendItemKey(nil, q.ObjectID.Min, q.Type.Min, q.Offset.Min)); k != nil; k, v = c.Next() {
			if resp.Count() >= q.MaxItems {
				break
			}
			obj, typ, off, err := decodeItemKey(k)
			if err != nil {
				return err
			}
			if !q.InRange(obj, typ, off) {
				break
			}
			it, err := decodeItem(v)
			if err != nil {
				s.logger.Error("snapshot: bad item", "tree", q.Tree, "objectid", obj, "type", typ, "offset", off, "err", err)
				return syscall.EIO
			}
			if !q.TransID.Contains(it.TransID) {
				continue
			}
			h := btrfstree.Header{TransID: it.TransID, ObjectID: obj, Offset: off, Type: typ}
			if !resp.Add(h, it.Data) {
				if resp.Count() == 0 {
					return syscall.EOVERFLOW
				}
				break
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	resp.Finish()
	s.served.Add(uint64(resp.Count()))
	s.logDebug("snapshot: served search", slog.String("query", q.String()), slog.Int("items", int(resp.Count())))
	return nil
}

// serveSpaceInfo sums the block group items of the extent tree per block
// group type and profile.
func (s *Snapshot) serveSpaceInfo(buf []byte) error {
	var infos []btrfstree.SpaceInfo
	err := s.read(func(tx storageTx) error {
		b := tx.Bucket(treeBucket(btrfstree.ExtentTreeObjectID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			_, typ, length, err := decodeItemKey(k)
			if err != nil {
				return err
			}
			if typ != btrfstree.BlockGroupItemKey {
				continue
			}
			it, err := decodeItem(v)
			if err != nil {
				return syscall.EIO
			}
			bg, err := btrfstree.DecodeStruct[btrfstree.BlockGroupItem](it.Data, 0)
			if err != nil {
				return syscall.EIO
			}
			infos = addSpace(infos, bg.Flags, length, bg.Used)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := btrfstree.AppendSpaceInfo(buf, infos); err != nil {
		return syscall.EFAULT
	}
	return nil
}

func addSpace(infos []btrfstree.SpaceInfo, flags, total, used uint64) []btrfstree.SpaceInfo {
	for i := range infos {
		if infos[i].Flags == flags {
			infos[i].TotalBytes += total
			infos[i].UsedBytes += used
			return infos
		}
	}
	return append(infos, btrfstree.SpaceInfo{Flags: flags, TotalBytes: total, UsedBytes: used})
}
