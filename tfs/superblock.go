package tfs

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// superblockSize is the fixed-size header at offset 0 of the image:
// nblocks, free_block_head, nnodes, free_node_head (four int64 words, in
// that order, per the external interface), followed by a 16-byte volume
// UUID (SPEC_FULL.md's additive supplement; it occupies reserved space
// after the four documented fields and does not change their offsets).
const superblockSize = 4*8 + 16

const (
	sbOffNBlocks        = 0
	sbOffFreeBlockHead  = 8
	sbOffNNodes         = 16
	sbOffFreeNodeHead   = 24
	sbOffUUID           = 32
)

// superblock is the in-memory view of the image header.
type superblock struct {
	NBlocks       int64
	FreeBlockHead int64
	NNodes        int64
	FreeNodeHead  int64
	UUID          uuid.UUID

	raw []byte // the superblockSize-byte slice at the start of the mapping
}

func decodeSuperblock(raw []byte) *superblock {
	sb := &superblock{raw: raw}
	sb.NBlocks = int64(binary.LittleEndian.Uint64(raw[sbOffNBlocks:]))
	sb.FreeBlockHead = int64(binary.LittleEndian.Uint64(raw[sbOffFreeBlockHead:]))
	sb.NNodes = int64(binary.LittleEndian.Uint64(raw[sbOffNNodes:]))
	sb.FreeNodeHead = int64(binary.LittleEndian.Uint64(raw[sbOffFreeNodeHead:]))
	copy(sb.UUID[:], raw[sbOffUUID:sbOffUUID+16])
	return sb
}

func (sb *superblock) flush() {
	raw := sb.raw
	binary.LittleEndian.PutUint64(raw[sbOffNBlocks:], uint64(sb.NBlocks))
	binary.LittleEndian.PutUint64(raw[sbOffFreeBlockHead:], uint64(sb.FreeBlockHead))
	binary.LittleEndian.PutUint64(raw[sbOffNNodes:], uint64(sb.NNodes))
	binary.LittleEndian.PutUint64(raw[sbOffFreeNodeHead:], uint64(sb.FreeNodeHead))
	copy(raw[sbOffUUID:sbOffUUID+16], sb.UUID[:])
}
