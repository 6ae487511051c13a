package tfs

import (
	"encoding/binary"
	"time"
)

// Mode type bits, laid out the same way the POSIX S_IFDIR/S_IFREG constants
// are: a single type bit alongside permission bits in the low word. TFS
// tracks only the directory/regular-file distinction.
const (
	ModeTypeDir    uint32 = 0x4000
	ModeTypeRegular uint32 = 0x8000
	modeTypeMask   uint32 = 0xF000
)

// inodeSize is the fixed on-disk size of one inode record:
//
//	word0     8 bytes  mode (allocated) / next (free list, int64, End if none)
//	name     64 bytes  NUL-terminated, NameLimit bytes including terminator
//	blocks   96 bytes  DirectBlocks direct block numbers
//	iblocks  24 bytes  ILevels indirect tree roots
//	nblocks   8 bytes  count of allocated data blocks
//	sizeLink  8 bytes  size (regular file) or nlink (directory), overlapping
//	atim      8 bytes  access time, unix nanoseconds
//	mtim      8 bytes  modification time, unix nanoseconds
const inodeSize = 8 + NameLimit + DirectBlocks*8 + ILevels*8 + 8 + 8 + 8 + 8

const (
	offWord0    = 0
	offName     = offWord0 + 8
	offBlocks   = offName + NameLimit
	offIBlocks  = offBlocks + DirectBlocks*8
	offNBlocks  = offIBlocks + ILevels*8
	offSizeLink = offNBlocks + 8
	offAtim     = offSizeLink + 8
	offMtim     = offAtim + 8
)

// Inode is the in-memory, tagged-variant view of an on-disk inode record.
// Allocation state is determined by reachability from the root, not by a
// stored flag; callers obtain an Inode only for nodes the path cache
// already knows about; free inodes are only ever touched internally by the
// allocator.
type Inode struct {
	Ino int64 // node number; not stored in the record itself

	Mode    uint32
	Name    string
	Blocks  [DirectBlocks]int64
	IBlocks [ILevels]int64
	NBlocks int64 // data blocks currently allocated, excludes index blocks

	// sizeLink holds either Size() (regular file, bytes) or Nlink()
	// (directory, child count) depending on Mode. Callers must go through
	// the accessors below; never read the other interpretation.
	sizeLink int64

	Atim time.Time
	Mtim time.Time

	raw []byte // the inodeSize-byte slice in the mapped inode table this Inode is a view of
}

// IsDir reports whether the inode's type bit marks it a directory.
func (n *Inode) IsDir() bool {
	return n.Mode&modeTypeMask == ModeTypeDir
}

// IsRegular reports whether the inode's type bit marks it a regular file.
func (n *Inode) IsRegular() bool {
	return n.Mode&modeTypeMask == ModeTypeRegular
}

// Size returns the byte length of a regular file's data. Calling Size on a
// directory is a programming error (the word means Nlink there); it panics
// rather than silently returning a wrong value, since callers must never
// read the other field.
func (n *Inode) Size() int64 {
	if n.IsDir() {
		panic("tfs: Size called on a directory inode")
	}
	return n.sizeLink
}

// SetSize sets a regular file's byte length.
func (n *Inode) SetSize(size int64) {
	if n.IsDir() {
		panic("tfs: SetSize called on a directory inode")
	}
	n.sizeLink = size
}

// Nlink returns a directory's child count.
func (n *Inode) Nlink() int64 {
	if !n.IsDir() {
		panic("tfs: Nlink called on a non-directory inode")
	}
	return n.sizeLink
}

// SetNlink sets a directory's child count.
func (n *Inode) SetNlink(nlink int64) {
	if !n.IsDir() {
		panic("tfs: SetNlink called on a non-directory inode")
	}
	n.sizeLink = nlink
}

// nodeSize is a node's logical data length: for a file, the byte length;
// for a directory, nlink * sizeof(inode number).
func nodeSize(n *Inode) int64 {
	if n.IsDir() {
		return n.Nlink() * int64(nodeNoSize)
	}
	return n.Size()
}

// decodeInode reads an inode record out of a inodeSize-byte slice of the
// mapped inode table. The returned Inode retains raw so encodeInode can
// write back into the same bytes.
func decodeInode(ino int64, raw []byte) *Inode {
	n := &Inode{Ino: ino, raw: raw}
	word0 := int64(binary.LittleEndian.Uint64(raw[offWord0:]))
	n.Mode = uint32(word0)

	n.Name = cStringFrom(raw[offName : offName+NameLimit])

	for i := 0; i < DirectBlocks; i++ {
		n.Blocks[i] = int64(binary.LittleEndian.Uint64(raw[offBlocks+i*8:]))
	}
	for i := 0; i < ILevels; i++ {
		n.IBlocks[i] = int64(binary.LittleEndian.Uint64(raw[offIBlocks+i*8:]))
	}
	n.NBlocks = int64(binary.LittleEndian.Uint64(raw[offNBlocks:]))
	n.sizeLink = int64(binary.LittleEndian.Uint64(raw[offSizeLink:]))
	n.Atim = time.Unix(0, int64(binary.LittleEndian.Uint64(raw[offAtim:]))).UTC()
	n.Mtim = time.Unix(0, int64(binary.LittleEndian.Uint64(raw[offMtim:]))).UTC()
	return n
}

// decodeFreeInode reads only the `next` link out of a free inode's record.
func decodeFreeInode(raw []byte) int64 {
	return int64(binary.LittleEndian.Uint64(raw[offWord0:]))
}

// encodeFreeInode writes a free inode's `next` link, leaving the rest of the
// record untouched (it is garbage until the slot is reallocated).
func encodeFreeInode(raw []byte, next int64) {
	binary.LittleEndian.PutUint64(raw[offWord0:], uint64(next))
}

// flush writes the Inode's in-memory fields back into its backing bytes.
func (n *Inode) flush() {
	raw := n.raw
	binary.LittleEndian.PutUint64(raw[offWord0:], uint64(n.Mode))

	nameBytes := cStringTo(n.Name, NameLimit)
	copy(raw[offName:offName+NameLimit], nameBytes)

	for i := 0; i < DirectBlocks; i++ {
		binary.LittleEndian.PutUint64(raw[offBlocks+i*8:], uint64(n.Blocks[i]))
	}
	for i := 0; i < ILevels; i++ {
		binary.LittleEndian.PutUint64(raw[offIBlocks+i*8:], uint64(n.IBlocks[i]))
	}
	binary.LittleEndian.PutUint64(raw[offNBlocks:], uint64(n.NBlocks))
	binary.LittleEndian.PutUint64(raw[offSizeLink:], uint64(n.sizeLink))
	binary.LittleEndian.PutUint64(raw[offAtim:], uint64(n.Atim.UnixNano()))
	binary.LittleEndian.PutUint64(raw[offMtim:], uint64(n.Mtim.UnixNano()))
}

// cStringFrom decodes a NUL-terminated (or fully-occupied) fixed-size byte
// field into a Go string.
func cStringFrom(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// cStringTo encodes s as a NUL-terminated fixed-size byte field of length
// limit. The caller (add_node) is responsible for having already rejected
// names whose encoded length, including the terminator, exceeds limit.
func cStringTo(s string, limit int) []byte {
	b := make([]byte, limit)
	copy(b, s)
	// copy leaves a trailing NUL naturally since b is zero-initialized and
	// len(s) < limit is guaranteed by the NameTooLong check in add_node.
	return b
}
