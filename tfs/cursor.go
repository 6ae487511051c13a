package tfs

import (
	"encoding/binary"
	"errors"
)

// errOutOfRange is an internal seek failure. It never escapes the package:
// every call site seeks to a position implied by a node's own nblocks, so
// it can only fire on a corrupt image.
var errOutOfRange = errors.New("tfs: seek position beyond node's allocated blocks")

// cursor is a position in a node's logical block sequence, the central
// algorithm of the filesystem. level == -1 means the direct region;
// level in [0, ILevels) means depth level+1 inside the indirect tree rooted
// at node.IBlocks[level]. pos[k] is the slot consulted at depth k; block[k]
// is the index block loaded at depth k, with block[0] == node.IBlocks[level].
type cursor struct {
	img   *image
	node  *Inode
	i     int64
	level int
	pos   [ILevels]int64
	block [ILevels]int64

	// freeBuf buffers the pointers touchFree observes during a single
	// advance step, keyed by level+1, so trim's shrink loop can free them
	// only after the step returns. End marks an index not yet (or no
	// longer) holding a value to free.
	freeBuf [ILevels + 1]int64
}

func newCursor(img *image, node *Inode) *cursor {
	c := &cursor{img: img, node: node, level: -1}
	for i := range c.freeBuf {
		c.freeBuf[i] = End
	}
	return c
}

// ppow returns pointersPerBlock^e for the small exponents (0..ILevels) the
// cursor ever needs.
func ppow(e int) int64 {
	if e == 0 {
		return 1
	}
	return indirectCapacity[e-1]
}

// seek positions the cursor at logical block index i by walking the node's
// existing index tree (it never allocates); i must not exceed node.NBlocks.
func (c *cursor) seek(i int64) error {
	c.i = i
	c.level = -1
	for k := range c.pos {
		c.pos[k] = 0
		c.block[k] = 0
	}

	if i > c.node.NBlocks {
		return errOutOfRange
	}
	if i < DirectBlocks {
		return nil
	}

	j := i - DirectBlocks
	var cum int64
	level := ILevels - 1
	for l := 0; l < ILevels; l++ {
		if j < cum+indirectCapacity[l] {
			level = l
			break
		}
		cum += indirectCapacity[l]
	}
	offset := j - cum

	c.level = level
	c.block[0] = c.node.IBlocks[level]
	for k := 0; k < level; k++ {
		divisor := ppow(level - k)
		c.pos[k] = offset / divisor
		offset %= divisor
		b, err := c.readPtr(c.block[k], c.pos[k])
		if err != nil {
			return err
		}
		c.block[k+1] = b
	}
	c.pos[level] = offset

	return nil
}

// readPtr reads the block-number pointer stored at slot of index block b.
func (c *cursor) readPtr(b, slot int64) (int64, error) {
	raw := c.img.blockRaw(b)
	off := int(slot) * blockNoSize
	return int64(binary.LittleEndian.Uint64(raw[off:])), nil
}

// writePtr writes value into slot of index block b.
func (c *cursor) writePtr(b, slot, value int64) {
	raw := c.img.blockRaw(b)
	off := int(slot) * blockNoSize
	binary.LittleEndian.PutUint64(raw[off:], uint64(value))
}

// touchFunc is the step strategy parameterizing the single traversal
// primitive below: it is invoked once per level transition (and once more
// for the leaf), so it can observe, allocate, or free index blocks as the
// walk passes through them, not only at the final data block.
type touchFunc func(c *cursor, level int) (int64, error)

// advance moves the cursor to the next logical position (incrementing i)
// and invokes touch at every level that changed, finishing with the leaf
// level. This is the one traversal primitive both iteration modes share.
func (c *cursor) advance(touch touchFunc) (int64, error) {
	c.i++
	if c.i < DirectBlocks {
		return touch(c, -1)
	}

	level := c.level
	for level >= 0 {
		c.pos[level]++
		if c.pos[level] < pointersPerBlock {
			break
		}
		c.pos[level] = 0
		level--
	}
	if level == -1 {
		c.level++
	}

	for lvl := level; lvl < c.level; lvl++ {
		b, err := touch(c, lvl)
		if err != nil {
			return 0, err
		}
		c.block[lvl+1] = b
	}
	return touch(c, c.level)
}

// touchObserve reads (never allocates or frees) the pointer at level,
// returning End once the cursor has moved past the node's allocated prefix.
func touchObserve(c *cursor, level int) (int64, error) {
	if c.i >= c.node.NBlocks {
		return End, nil
	}
	if c.i < DirectBlocks {
		return c.node.Blocks[c.i], nil
	}
	if level == -1 {
		return c.node.IBlocks[c.level], nil
	}
	return c.readPtr(c.block[level], c.pos[level])
}

// touchGrow allocates a fresh block for the pointer at level, writing it
// into the node's direct/indirect-root slot or the parent index block's
// slot. Growth only ever visits positions beyond the node's previous
// allocated prefix, so every slot it touches is unoccupied.
func touchGrow(c *cursor, level int) (int64, error) {
	b, err := c.img.allocBlock()
	if err != nil {
		return End, err
	}
	if c.i < DirectBlocks {
		c.node.Blocks[c.i] = b
		return b, nil
	}
	if level == -1 {
		c.node.IBlocks[c.level] = b
		return b, nil
	}
	c.writePtr(c.block[level], c.pos[level], b)
	return b, nil
}

// touchFree reads the existing pointer at level — exactly like
// touchObserve, never mutating anything in place — and records it into
// the cursor's freeBuf keyed by level+1. It does not free the block
// itself: a single advance step can touch several levels (the index root,
// intermediate index blocks, and the leaf data block), and a deeper level
// is read *through* a shallower one's block (c.block[level]). Freeing a
// shallower level immediately, before the deeper read happens, would
// clobber that block's first word with the free-list head and corrupt the
// very pointer the next touch needs. Instead the trim shrink loop frees
// everything buffered here once the whole step has returned, mirroring
// the original's free_block_buffer deferral.
func touchFree(c *cursor, level int) (int64, error) {
	b, err := touchObserve(c, level)
	if err != nil {
		return End, err
	}
	c.freeBuf[level+1] = b
	return b, nil
}
