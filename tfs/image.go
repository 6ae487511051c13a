package tfs

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/frlis21/dm510-asg3/backend"
	"github.com/frlis21/dm510-asg3/backend/mmap"
)

// image owns the memory-mapped backing file and the region views derived
// from it: the superblock, inode table, and data region. Region base
// offsets are recomputed from the superblock on every init().
type image struct {
	storage backend.Storage
	mapping *mmap.Mapping
	bytes   []byte // the full mapped region

	sb *superblock

	inodeTable []byte // nnodes * inodeSize bytes
	data       []byte // nblocks * BlockSize bytes
}

// openImage maps storage's backing file read/write, shared, at its full
// length.
func openImage(storage backend.Storage) (*image, error) {
	m, err := mmap.Map(storage)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return &image{storage: storage, mapping: m, bytes: m.Bytes()}, nil
}

// destroy flushes and unmaps the image, then closes the backing file
// descriptor. The image must not be used afterward.
func (img *image) destroy() error {
	if err := img.mapping.Unmap(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := img.storage.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// init recomputes region base offsets from the superblock's nblocks/nnodes.
// Both format and load call this; it is idempotent given the same
// superblock contents.
func (img *image) init() {
	img.sb = decodeSuperblock(img.bytes[:superblockSize])

	inodeTableStart := superblockSize
	inodeTableEnd := inodeTableStart + int(img.sb.NNodes)*inodeSize
	dataStart := inodeTableEnd
	dataEnd := dataStart + int(img.sb.NBlocks)*BlockSize

	img.inodeTable = img.bytes[inodeTableStart:inodeTableEnd]
	img.data = img.bytes[dataStart:dataEnd]
}

// format lays out a fresh image: computes geometry from the mapped length,
// writes the superblock, initializes the root inode, and threads both free
// lists. Geometry and free lists depend only on the image's length; each
// call writes a fresh random volume UUID and the current time as the root's
// timestamps.
func (img *image) format() {
	length := int64(len(img.bytes))

	nblocks := length / (BlockSize + int64(inodeSize)/BlocksPerNode)
	nnodes := nblocks / BlocksPerNode

	// Inode 0 is the root and never sits on the free list. If it's the
	// only inode the image has room for, the free-inode list starts empty
	// rather than pointing at a nonexistent inode 1. Symmetrically, an
	// image with no data blocks at all starts with an empty free-block
	// list instead of pointing at a nonexistent block 0.
	freeNodeHead := int64(1)
	if nnodes <= 1 {
		freeNodeHead = End
	}
	freeBlockHead := int64(0)
	if nblocks == 0 {
		freeBlockHead = End
	}

	sb := &superblock{
		raw:           img.bytes[:superblockSize],
		NBlocks:       nblocks,
		NNodes:        nnodes,
		FreeBlockHead: freeBlockHead,
		FreeNodeHead:  freeNodeHead,
		UUID:          uuid.New(),
	}
	sb.flush()
	img.sb = sb
	img.init()

	// Thread the free block list: i -> i+1, last -> End.
	for i := int64(0); i < nblocks-1; i++ {
		writeBlockFreeNext(img.data, i, i+1)
	}
	if nblocks > 0 {
		writeBlockFreeNext(img.data, nblocks-1, End)
	}

	// Thread the free inode list starting at 1 (root occupies 0): i -> i+1,
	// last -> End.
	for i := int64(1); i < nnodes-1; i++ {
		encodeFreeInode(img.inodeRaw(i), i+1)
	}
	if nnodes > 1 {
		encodeFreeInode(img.inodeRaw(nnodes-1), End)
	}

	// Initialize the root directory inode.
	root := &Inode{
		Ino:  0,
		Mode: ModeTypeDir | 0o644,
		Name: "",
		raw:  img.inodeRaw(0),
	}
	now := nowFunc()
	root.Atim, root.Mtim = now, now
	root.SetNlink(0)
	root.flush()
}

// inodeRaw returns the inodeSize-byte slice for inode number i in the
// mapped inode table.
func (img *image) inodeRaw(i int64) []byte {
	off := int(i) * inodeSize
	return img.inodeTable[off : off+inodeSize]
}

// blockRaw returns the BlockSize-byte slice for block number b in the
// mapped data region.
func (img *image) blockRaw(b int64) []byte {
	off := int(b) * BlockSize
	return img.data[off : off+BlockSize]
}
