package btrfstree

// ItemType is the type component of a tree key. On disk it is a single byte;
// the search ioctl widens it to 32 bits.
type ItemType uint32

// Control call request codes.
const (
	IocTreeSearch = 0xd0009411
	IocSpaceInfo  = 0xc0109414
)

// Well-known object ids.
const (
	RootTreeObjectID      uint64 = 1
	ExtentTreeObjectID    uint64 = 2
	ChunkTreeObjectID     uint64 = 3
	DevTreeObjectID       uint64 = 4
	FSTreeObjectID        uint64 = 5
	RootTreeDirObjectID   uint64 = 6
	CsumTreeObjectID      uint64 = 7
	QuotaTreeObjectID     uint64 = 8
	UUIDTreeObjectID      uint64 = 9
	FreeSpaceTreeObjectID uint64 = 10

	DevItemsObjectID       uint64 = 1
	BtreeInodeObjectID     uint64 = 1
	EmptySubvolDirObjectID uint64 = 2

	OrphanObjectID         uint64 = 1<<64 - 5
	TreeLogObjectID        uint64 = 1<<64 - 6
	TreeLogFixupObjectID   uint64 = 1<<64 - 7
	TreeRelocObjectID      uint64 = 1<<64 - 8
	DataRelocTreeObjectID  uint64 = 1<<64 - 9
	ExtentCsumObjectID     uint64 = 1<<64 - 10
	FreeSpaceObjectID      uint64 = 1<<64 - 11
	MultipleObjectIDs      uint64 = 1<<64 - 255
	FirstFreeObjectID      uint64 = 256
	LastFreeObjectID       uint64 = 1<<64 - 256
	FirstChunkTreeObjectID uint64 = 256
)

// Item keys.
const (
	InodeItemKey      ItemType = 1
	InodeRefKey       ItemType = 12
	InodeExtrefKey    ItemType = 13
	XattrItemKey      ItemType = 24
	OrphanItemKey     ItemType = 48
	DirLogItemKey     ItemType = 60
	DirLogIndexKey    ItemType = 72
	DirItemKey        ItemType = 84
	DirIndexKey       ItemType = 96
	ExtentDataKey     ItemType = 108
	ExtentCsumKey     ItemType = 128
	RootItemKey       ItemType = 132
	RootBackrefKey    ItemType = 144
	RootRefKey        ItemType = 156
	ExtentItemKey     ItemType = 168
	MetadataItemKey   ItemType = 169
	TreeBlockRefKey   ItemType = 176
	ExtentDataRefKey  ItemType = 178
	ExtentRefV0Key    ItemType = 180
	SharedBlockRefKey ItemType = 182
	SharedDataRefKey  ItemType = 184
	BlockGroupItemKey ItemType = 192
	DevExtentKey      ItemType = 204
	DevItemKey        ItemType = 216
	ChunkItemKey      ItemType = 228
	StringItemKey     ItemType = 253
)

// Block group flags, also used as chunk types.
const (
	BlockGroupData     uint64 = 1 << 0
	BlockGroupSystem   uint64 = 1 << 1
	BlockGroupMetadata uint64 = 1 << 2
	BlockGroupRaid0    uint64 = 1 << 3
	BlockGroupRaid1    uint64 = 1 << 4
	BlockGroupDup      uint64 = 1 << 5
	BlockGroupRaid10   uint64 = 1 << 6
	BlockGroupRaid5    uint64 = 1 << 7
	BlockGroupRaid6    uint64 = 1 << 8
)

// Extent item flags.
const (
	ExtentFlagData       uint64 = 1 << 0
	ExtentFlagTreeBlock  uint64 = 1 << 1
	BlockFlagFullBackref uint64 = 1 << 8
)
