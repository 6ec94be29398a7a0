package btrfstree

import "strings"

// ReplicationType names the RAID profile of block group flags.
func ReplicationType(flags uint64) string {
	switch {
	case flags&BlockGroupRaid0 != 0:
		return "RAID0"
	case flags&BlockGroupRaid1 != 0:
		return "RAID1"
	case flags&BlockGroupRaid10 != 0:
		return "RAID10"
	case flags&BlockGroupRaid5 != 0:
		return "RAID5"
	case flags&BlockGroupRaid6 != 0:
		return "RAID6"
	case flags&BlockGroupDup != 0:
		return "DUP"
	default:
		return "Single"
	}
}

// UsageType names what block groups with the given flags hold.
func UsageType(flags uint64) string {
	data, meta := flags&BlockGroupData != 0, flags&BlockGroupMetadata != 0
	switch {
	case data && meta:
		return "mixed"
	case data:
		return "data"
	case meta:
		return "meta"
	case flags&BlockGroupSystem != 0:
		return "sys"
	default:
		return ""
	}
}

// ExtentFlags formats extent item flags, e.g. "DATA" or "TREE_BLOCK|FULL_BACKREF".
func ExtentFlags(flags uint64) string {
	var parts []string
	if flags&ExtentFlagData != 0 {
		parts = append(parts, "DATA")
	}
	if flags&ExtentFlagTreeBlock != 0 {
		parts = append(parts, "TREE_BLOCK")
	}
	if flags&BlockFlagFullBackref != 0 {
		parts = append(parts, "FULL_BACKREF")
	}
	return strings.Join(parts, "|")
}
