package tfs

import "encoding/binary"

// readBlockFreeNext/writeBlockFreeNext access the `next` pointer stored in
// the first word of a free data block: free data blocks form a singly
// linked list through the first pointer-sized word of each block.
func readBlockFreeNext(data []byte, b int64) int64 {
	off := int(b) * BlockSize
	return int64(binary.LittleEndian.Uint64(data[off:]))
}

func writeBlockFreeNext(data []byte, b int64, next int64) {
	off := int(b) * BlockSize
	binary.LittleEndian.PutUint64(data[off:], uint64(next))
}

// allocBlock pops the block at the head of the free-block list and advances
// the head to that block's stored `next` word. No zeroing is performed.
func (img *image) allocBlock() (int64, error) {
	b := img.sb.FreeBlockHead
	if b == End {
		return End, ErrOutOfSpace
	}
	img.sb.FreeBlockHead = readBlockFreeNext(img.data, b)
	img.sb.flush()
	return b, nil
}

// freeBlock pushes b onto the head of the free-block list.
func (img *image) freeBlock(b int64) {
	writeBlockFreeNext(img.data, b, img.sb.FreeBlockHead)
	img.sb.FreeBlockHead = b
	img.sb.flush()
}

// allocInode pops the inode at the head of the free-inode list and advances
// the head to that inode's stored `next` field.
func (img *image) allocInode() (int64, error) {
	n := img.sb.FreeNodeHead
	if n == End {
		return End, ErrOutOfSpace
	}
	img.sb.FreeNodeHead = decodeFreeInode(img.inodeRaw(n))
	img.sb.flush()
	return n, nil
}

// freeInode pushes inode n onto the head of the free-inode list.
func (img *image) freeInode(n int64) {
	encodeFreeInode(img.inodeRaw(n), img.sb.FreeNodeHead)
	img.sb.FreeNodeHead = n
	img.sb.flush()
}
