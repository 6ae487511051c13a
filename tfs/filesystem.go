package tfs

import (
	"fmt"
	"path"

	"github.com/frlis21/dm510-asg3/backend"
)

// Filesystem is a mounted TFS image: the memory-mapped region plus the
// path cache built over it. A Filesystem is not safe for concurrent use —
// the driver adapter is responsible for serializing every call.
type Filesystem struct {
	img   *image
	cache pathCache
}

// Format lays out a fresh TFS image on storage: computes geometry from its
// length, writes the superblock, initializes the root directory, and
// threads both free lists. It does not build a path cache or leave the
// image mapped; call Load afterward to start using it.
func Format(storage backend.Storage) error {
	img, err := openImage(storage)
	if err != nil {
		return err
	}
	defer img.destroy()
	img.format()
	return nil
}

// Load maps storage, recomputes region views from its superblock, and
// builds the path cache by walking the on-disk tree from the root.
func Load(storage backend.Storage) (*Filesystem, error) {
	img, err := openImage(storage)
	if err != nil {
		return nil, err
	}
	img.init()

	cache, err := buildCache(img)
	if err != nil {
		img.destroy()
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}

	return &Filesystem{img: img, cache: cache}, nil
}

// Destroy flushes and unmaps the image. fs must not be used afterward.
func (fs *Filesystem) Destroy() error {
	return fs.img.destroy()
}

// GetNode resolves an absolute path to its inode via the path cache.
func (fs *Filesystem) GetNode(p string) (*Inode, error) {
	ino, ok := fs.cache[p]
	if !ok {
		return nil, ErrNotFound
	}
	return decodeInode(ino, fs.img.inodeRaw(ino)), nil
}

// AddNode creates a new node at path with the given mode. mode's type
// bits (ModeTypeDir/ModeTypeRegular) select the inode's allocated-field
// interpretation.
func (fs *Filesystem) AddNode(p string, mode uint32) (*Inode, error) {
	if _, exists := fs.cache[p]; exists {
		return nil, ErrExists
	}

	base := path.Base(p)
	if len(base)+1 > NameLimit {
		return nil, ErrNameTooLong
	}

	parentPath := path.Dir(p)
	parentIno, ok := fs.cache[parentPath]
	if !ok {
		return nil, ErrNotFound
	}
	parent := decodeInode(parentIno, fs.img.inodeRaw(parentIno))
	if !parent.IsDir() {
		return nil, ErrIsNotDir
	}

	ino, err := fs.img.allocInode()
	if err != nil {
		return nil, err
	}
	node := &Inode{Ino: ino, raw: fs.img.inodeRaw(ino), Mode: mode, Name: base}
	now := nowFunc()
	node.Atim, node.Mtim = now, now
	if node.IsDir() {
		node.SetNlink(0)
	} else {
		node.SetSize(0)
	}
	node.flush()

	parent.SetNlink(parent.Nlink() + 1)
	if err := fs.img.trim(parent); err != nil {
		// Roll back the nlink bump the trim couldn't back; parent.nlink was
		// already clamped by trim itself, so just free the node we popped.
		fs.img.freeInode(ino)
		parent.flush()
		return nil, err
	}
	if err := fs.img.appendChild(parent, ino); err != nil {
		fs.img.freeInode(ino)
		return nil, err
	}
	parent.Mtim = nowFunc()
	parent.flush()

	fs.cache[p] = ino
	return node, nil
}

// RemoveNode deletes the node at path. Removing the root fails with
// ErrUnsupported. The core accepts any node type here; the driver
// adapter enforces unlink-only-files / rmdir-only-empty-directories policy
// before calling this.
func (fs *Filesystem) RemoveNode(p string) error {
	ino, ok := fs.cache[p]
	if !ok {
		return ErrNotFound
	}
	if p == "/" {
		return ErrUnsupported
	}
	node := decodeInode(ino, fs.img.inodeRaw(ino))

	parentPath := path.Dir(p)
	parentIno, ok := fs.cache[parentPath]
	if !ok {
		return ErrUnsupported
	}
	parent := decodeInode(parentIno, fs.img.inodeRaw(parentIno))

	if err := fs.img.removeChild(parent, ino); err != nil {
		return err
	}
	parent.SetNlink(parent.Nlink() - 1)
	if err := fs.img.trim(parent); err != nil {
		return err
	}
	parent.Mtim = nowFunc()
	parent.flush()

	if node.IsDir() {
		node.SetNlink(0)
	} else {
		node.SetSize(0)
	}
	if err := fs.img.trim(node); err != nil {
		return err
	}

	fs.img.freeInode(ino)
	delete(fs.cache, p)
	return nil
}

// Read copies up to size bytes of node's data at offset into buf.
func (fs *Filesystem) Read(node *Inode, buf []byte, size, offset int64) (int64, error) {
	return fs.img.read(node, buf, size, offset)
}

// Write stores up to size bytes of buf into node's data at offset,
// extending the node as needed.
func (fs *Filesystem) Write(node *Inode, buf []byte, size, offset int64) (int64, error) {
	return fs.img.write(node, buf, size, offset)
}

// Trim reconciles node's allocated block count to its current logical
// size. Callers resize a node (SetSize/SetNlink) then call Trim.
func (fs *Filesystem) Trim(node *Inode) error {
	return fs.img.trim(node)
}

// Children resolves dir's child inode-number array to inodes.
func (fs *Filesystem) Children(dir *Inode) ([]*Inode, error) {
	if !dir.IsDir() {
		return nil, ErrIsNotDir
	}
	inos, err := fs.img.childrenInos(dir)
	if err != nil {
		return nil, err
	}
	out := make([]*Inode, len(inos))
	for i, ino := range inos {
		out[i] = decodeInode(ino, fs.img.inodeRaw(ino))
	}
	return out, nil
}
