package tfs

import "encoding/binary"

// readChildSlot/writeChildSlot access a directory data block's array of
// child inode numbers.
func readChildSlot(raw []byte, slot int64) int64 {
	return int64(binary.LittleEndian.Uint64(raw[slot*int64(nodeNoSize):]))
}

func writeChildSlot(raw []byte, slot int64, ino int64) {
	binary.LittleEndian.PutUint64(raw[slot*int64(nodeNoSize):], uint64(ino))
}

// lastChildSlot locates the directory data block and slot holding dir's
// most recently appended child, per dir.Nlink() (valid only once nlink has
// already been set to its post-change value and trim has reconciled
// allocation to match).
func (img *image) lastChildSlot(dir *Inode) (block, slot int64, err error) {
	slot = (dir.Nlink() - 1) % BlockMaxChildren
	c := newCursor(img, dir)
	if err := c.seek(dir.NBlocks - 1); err != nil {
		return 0, 0, err
	}
	block, err = touchObserve(c, c.level)
	return block, slot, err
}

// appendChild writes childIno into the slot implied by dir.Nlink(). The
// caller must have already incremented dir.Nlink() and called
// trim(dir).
func (img *image) appendChild(dir *Inode, childIno int64) error {
	block, slot, err := img.lastChildSlot(dir)
	if err != nil {
		return err
	}
	writeChildSlot(img.blockRaw(block), slot, childIno)
	return nil
}

// removeChild overwrites the slot holding targetIno with dir's last child
// (swap-with-last); it does not compact blocks. The caller must call this
// before decrementing dir.Nlink() and trimming.
func (img *image) removeChild(dir *Inode, targetIno int64) error {
	lastBlock, lastSlot, err := img.lastChildSlot(dir)
	if err != nil {
		return err
	}
	lastChild := readChildSlot(img.blockRaw(lastBlock), lastSlot)

	c := newCursor(img, dir)
	if err := c.seek(0); err != nil {
		return err
	}
	block, err := touchObserve(c, c.level)
	if err != nil {
		return err
	}
	for block != End {
		raw := img.blockRaw(block)
		for i := int64(0); i < BlockMaxChildren; i++ {
			if readChildSlot(raw, i) == targetIno {
				writeChildSlot(raw, i, lastChild)
				return nil
			}
		}
		block, err = c.advance(touchObserve)
		if err != nil {
			return err
		}
	}
	return nil
}

// childrenInos reads dir's child inode-number array. The returned slice
// has exactly dir.Nlink() entries. It goes through readRaw, not read:
// read rejects directories outright, but a directory's own data blocks
// are ordinary node data from the block-walk's point of view — the
// original tfs_node_read carries no such rejection either, since the
// IsDir policy belongs to callers (see tfs/nodeio.go's read).
func (img *image) childrenInos(dir *Inode) ([]int64, error) {
	sz := nodeSize(dir)
	buf := make([]byte, sz)
	if _, err := img.readRaw(dir, buf, sz, 0); err != nil {
		return nil, err
	}
	out := make([]int64, dir.Nlink())
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(buf[i*nodeNoSize:]))
	}
	return out, nil
}
