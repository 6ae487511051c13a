package tfs

// requiredBlocks is the block count a node's current logical size demands.
func requiredBlocks(n *Inode) int64 {
	size := nodeSize(n)
	if size == 0 {
		return 0
	}
	return (size + BlockSize - 1) / BlockSize
}

// trim reconciles node.NBlocks to requiredBlocks(node), the only routine
// that changes a node's block count. On ErrOutOfSpace during
// growth, the blocks successfully added are retained and size/nlink are
// clamped to what now fits; it is not rolled back.
func (img *image) trim(node *Inode) error {
	required := requiredBlocks(node)
	delta := required - node.NBlocks
	c := newCursor(img, node)

	var outOfSpace bool
	switch {
	case delta < 0:
		if err := c.seek(required - 1); err != nil {
			return err
		}
		for delta != 0 {
			b, err := c.advance(touchFree)
			if err != nil {
				return err
			}
			if b == End {
				break
			}
			delta++

			// Free every level touchFree buffered this step only now that
			// the step has fully returned: a deeper level may have been
			// read through a shallower one's block, and freeing eagerly
			// would clobber that block before the read happened.
			for i := 0; i <= c.level+1; i++ {
				if c.freeBuf[i] == End {
					continue
				}
				img.freeBlock(c.freeBuf[i])
				c.freeBuf[i] = End
			}
		}
		node.NBlocks = required

	case delta > 0:
		if err := c.seek(node.NBlocks - 1); err != nil {
			return err
		}
		for delta != 0 {
			b, err := c.advance(touchGrow)
			if err == ErrOutOfSpace || b == End {
				outOfSpace = true
				break
			}
			if err != nil {
				return err
			}
			delta--
		}
		node.NBlocks = required - delta
	}

	if node.IsDir() {
		if max := node.NBlocks * BlockMaxChildren; node.Nlink() > max {
			node.SetNlink(max)
		}
	} else {
		if max := node.NBlocks * BlockSize; node.Size() > max {
			node.SetSize(max)
		}
	}
	node.flush()

	if outOfSpace {
		return ErrOutOfSpace
	}
	return nil
}

// read copies up to size bytes of node's data starting at offset into buf,
// stopping at the node's logical size. It rejects directories outright;
// the driver adapter is responsible for that policy at a higher level too.
// Directory data itself is read through readRaw (see childrenInos), which
// shares this routine's block-walk but skips the rejection, matching the
// original tfs_node_read: the IsDir policy belongs to the caller, not to
// the block-walk itself.
func (img *image) read(node *Inode, buf []byte, size, offset int64) (int64, error) {
	if node.IsDir() {
		return 0, ErrIsDir
	}
	return img.readRaw(node, buf, size, offset)
}

// readRaw is the block-walk read itself, with no type check: both read
// (for regular files) and childrenInos (for directories) drive it.
func (img *image) readRaw(node *Inode, buf []byte, size, offset int64) (int64, error) {
	nodeSz := nodeSize(node)
	if offset >= nodeSz {
		node.Atim = nowFunc()
		node.flush()
		return 0, nil
	}

	c := newCursor(img, node)
	if err := c.seek(offset / BlockSize); err != nil {
		return 0, err
	}
	block, err := touchObserve(c, c.level)
	if err != nil {
		return 0, err
	}

	toRead := size
	var copied int64
	for offset < nodeSz && toRead > 0 {
		chunk := min(toRead, BlockSize-offset%BlockSize)
		chunk = min(chunk, nodeSz-offset)
		if chunk <= 0 || block == End {
			break
		}

		raw := img.blockRaw(block)
		start := offset % BlockSize
		copy(buf[copied:copied+chunk], raw[start:start+chunk])

		block, err = c.advance(touchObserve)
		if err != nil {
			return copied, err
		}
		toRead -= chunk
		offset += chunk
		copied += chunk
	}

	node.Atim = nowFunc()
	node.flush()
	return copied, nil
}

// write stores up to size bytes of buf into node's data at offset,
// extending the node first via trim. On ErrOutOfSpace it still
// writes whatever portion now fits and returns that count alongside the
// error, matching short-write semantics.
func (img *image) write(node *Inode, buf []byte, size, offset int64) (int64, error) {
	if node.IsDir() {
		return 0, ErrIsDir
	}

	if want := offset + size; want > node.Size() {
		node.SetSize(want)
	}
	trimErr := img.trim(node)

	nodeSz := nodeSize(node)
	if offset >= nodeSz {
		node.Mtim = nowFunc()
		node.flush()
		return 0, trimErr
	}

	c := newCursor(img, node)
	if err := c.seek(offset / BlockSize); err != nil {
		return 0, err
	}
	block, err := touchObserve(c, c.level)
	if err != nil {
		return 0, err
	}

	toWrite := size
	var written int64
	for offset < nodeSz && toWrite > 0 {
		chunk := min(toWrite, BlockSize-offset%BlockSize)
		chunk = min(chunk, nodeSz-offset)
		if chunk <= 0 || block == End {
			break
		}

		raw := img.blockRaw(block)
		start := offset % BlockSize
		copy(raw[start:start+chunk], buf[written:written+chunk])

		block, err = c.advance(touchObserve)
		if err != nil {
			return written, err
		}
		toWrite -= chunk
		offset += chunk
		written += chunk
	}

	node.Mtim = nowFunc()
	node.flush()

	if trimErr != nil {
		return written, trimErr
	}
	return written, nil
}
