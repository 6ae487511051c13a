// Package fuseadapter is the kernel-facing filesystem driver: it
// translates FUSE mount operations (getattr, mknod, mkdir, unlink, rmdir,
// truncate, open, read, write, readdir, utimens) into calls on
// *tfs.Filesystem via go-fuse v2's InodeEmbedder API.
//
// TFS's own concurrency model assumes callers serialize requests against
// the core; the mutex here is what performs that serialization for the
// FUSE layer, which otherwise dispatches concurrent requests from the
// kernel.
package fuseadapter

import (
	"context"
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/frlis21/dm510-asg3/tfs"
)

// fuseModeTypeMask isolates S_IFDIR/S_IFREG from a TFS mode word. TFS's
// ModeTypeDir/ModeTypeRegular constants are already the POSIX S_IFDIR/
// S_IFREG values, so no translation is needed beyond masking.
const fuseModeTypeMask = 0xF000

// root serializes every operation against a single mounted filesystem.
// All nodes in a mount share one root.
type root struct {
	mu   sync.Mutex
	fsys *tfs.Filesystem
}

// Root returns the InodeEmbedder to pass to fs.Mount as the TFS image's
// root directory.
func Root(fsys *tfs.Filesystem) fs.InodeEmbedder {
	return &node{root: &root{fsys: fsys}, path: "/"}
}

// node is one FUSE inode: a path into the mounted TFS image. TFS itself has
// no on-disk parent pointer, so the adapter — not the core — is
// responsible for tracking each node's full path.
type node struct {
	fs.Inode
	root *root
	path string
}

func join(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

// errnoFor maps the core's error taxonomy onto the matching errno for
// each condition.
func errnoFor(err error) syscall.Errno {
	switch {
	case err == nil:
		return 0
	case err == tfs.ErrNotFound:
		return syscall.ENOENT
	case err == tfs.ErrExists:
		return syscall.EEXIST
	case err == tfs.ErrIsDir:
		return syscall.EISDIR
	case err == tfs.ErrIsNotDir:
		return syscall.ENOTDIR
	case err == tfs.ErrNotEmpty:
		return syscall.ENOTEMPTY
	case err == tfs.ErrOutOfSpace:
		return syscall.ENOSPC
	case err == tfs.ErrNameTooLong:
		return syscall.ENAMETOOLONG
	case err == tfs.ErrUnsupported:
		return syscall.EPERM
	default:
		return syscall.EIO
	}
}

// fillAttr populates a fuse.Attr from a TFS inode: a directory's link
// count is its child count plus one (for "."), a regular file's is
// always one.
func fillAttr(out *fuse.Attr, n *tfs.Inode) {
	out.Ino = uint64(n.Ino)
	out.Mode = n.Mode
	if n.IsDir() {
		out.Nlink = uint32(n.Nlink()) + 1
		out.Size = 0
	} else {
		out.Nlink = 1
		out.Size = uint64(n.Size())
	}
	out.Atime = uint64(n.Atim.Unix())
	out.Atimensec = uint32(n.Atim.Nanosecond())
	out.Mtime = uint64(n.Mtim.Unix())
	out.Mtimensec = uint32(n.Mtim.Nanosecond())
	out.Ctime = out.Mtime
	out.Ctimensec = out.Mtimensec
}

func (n *node) get() (*tfs.Inode, syscall.Errno) {
	inode, err := n.root.fsys.GetNode(n.path)
	if err != nil {
		return nil, errnoFor(err)
	}
	return inode, 0
}

var _ fs.NodeLookuper = (*node)(nil)

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	childPath := join(n.path, name)
	child, err := n.root.fsys.GetNode(childPath)
	if err != nil {
		return nil, errnoFor(err)
	}
	fillAttr(&out.Attr, child)

	stable := fs.StableAttr{Mode: child.Mode & fuseModeTypeMask, Ino: uint64(child.Ino)}
	childEmbedder := &node{root: n.root, path: childPath}
	return n.NewInode(ctx, childEmbedder, stable), 0
}

var _ fs.NodeGetattrer = (*node)(nil)

func (n *node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	inode, errno := n.get()
	if errno != 0 {
		return errno
	}
	fillAttr(&out.Attr, inode)
	return 0
}

var _ fs.NodeSetattrer = (*node)(nil)

// Setattr covers truncate(2) (FATTR_SIZE), chmod(2) (FATTR_MODE), and
// utimens(2) (FATTR_ATIME/FATTR_MTIME).
func (n *node) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	inode, errno := n.get()
	if errno != 0 {
		return errno
	}

	if size, ok := in.GetSize(); ok {
		if inode.IsDir() {
			return syscall.EISDIR
		}
		inode.SetSize(int64(size))
		if err := n.root.fsys.Trim(inode); err != nil {
			return errnoFor(err)
		}
	}
	if mode, ok := in.GetMode(); ok {
		n.root.fsys.Chmod(inode, mode)
	}

	atime, hasAtime := in.GetATime()
	mtime, hasMtime := in.GetMTime()
	if hasAtime || hasMtime {
		if !hasAtime {
			atime = inode.Atim
		}
		if !hasMtime {
			mtime = inode.Mtim
		}
		n.root.fsys.SetTimes(inode, atime, mtime)
	}

	fillAttr(&out.Attr, inode)
	return 0
}

var _ fs.NodeReaddirer = (*node)(nil)

func (n *node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	dir, errno := n.get()
	if errno != 0 {
		return nil, errno
	}
	if !dir.IsDir() {
		return nil, syscall.ENOTDIR
	}
	children, err := n.root.fsys.Children(dir)
	if err != nil {
		return nil, errnoFor(err)
	}

	entries := make([]fuse.DirEntry, len(children))
	for i, c := range children {
		entries[i] = fuse.DirEntry{Name: c.Name, Ino: uint64(c.Ino), Mode: c.Mode & fuseModeTypeMask}
	}
	return fs.NewListDirStream(entries), 0
}

var _ fs.NodeMkdirer = (*node)(nil)

func (n *node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	childPath := join(n.path, name)
	child, err := n.root.fsys.AddNode(childPath, tfs.ModeTypeDir|(mode&^fuseModeTypeMask))
	if err != nil {
		return nil, errnoFor(err)
	}
	fillAttr(&out.Attr, child)
	stable := fs.StableAttr{Mode: tfs.ModeTypeDir, Ino: uint64(child.Ino)}
	return n.NewInode(ctx, &node{root: n.root, path: childPath}, stable), 0
}

var _ fs.NodeMknoder = (*node)(nil)

func (n *node) Mknod(ctx context.Context, name string, mode, dev uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	childPath := join(n.path, name)
	child, err := n.root.fsys.AddNode(childPath, tfs.ModeTypeRegular|(mode&^fuseModeTypeMask))
	if err != nil {
		return nil, errnoFor(err)
	}
	fillAttr(&out.Attr, child)
	stable := fs.StableAttr{Mode: tfs.ModeTypeRegular, Ino: uint64(child.Ino)}
	return n.NewInode(ctx, &node{root: n.root, path: childPath}, stable), 0
}

var _ fs.NodeCreater = (*node)(nil)

// Create combines mknod and open into one round trip, as modern FUSE
// clients prefer.
func (n *node) Create(ctx context.Context, name string, flags, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	childPath := join(n.path, name)
	child, err := n.root.fsys.AddNode(childPath, tfs.ModeTypeRegular|(mode&^fuseModeTypeMask))
	if err != nil {
		return nil, nil, 0, errnoFor(err)
	}
	fillAttr(&out.Attr, child)
	stable := fs.StableAttr{Mode: tfs.ModeTypeRegular, Ino: uint64(child.Ino)}
	inode := n.NewInode(ctx, &node{root: n.root, path: childPath}, stable)
	return inode, nil, 0, 0
}

var _ fs.NodeUnlinker = (*node)(nil)

func (n *node) Unlink(ctx context.Context, name string) syscall.Errno {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	childPath := join(n.path, name)
	child, err := n.root.fsys.GetNode(childPath)
	if err != nil {
		return errnoFor(err)
	}
	if child.IsDir() {
		return syscall.EISDIR
	}
	return errnoFor(n.root.fsys.RemoveNode(childPath))
}

var _ fs.NodeRmdirer = (*node)(nil)

func (n *node) Rmdir(ctx context.Context, name string) syscall.Errno {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	childPath := join(n.path, name)
	child, err := n.root.fsys.GetNode(childPath)
	if err != nil {
		return errnoFor(err)
	}
	if !child.IsDir() {
		return syscall.ENOTDIR
	}
	if !n.root.fsys.IsEmpty(child) {
		return syscall.ENOTEMPTY
	}
	return errnoFor(n.root.fsys.RemoveNode(childPath))
}

var _ fs.NodeOpener = (*node)(nil)

func (n *node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	if _, errno := n.get(); errno != 0 {
		return nil, 0, errno
	}
	return nil, 0, 0
}

var _ fs.NodeReader = (*node)(nil)

func (n *node) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	inode, errno := n.get()
	if errno != 0 {
		return nil, errno
	}
	if inode.IsDir() {
		return nil, syscall.EISDIR
	}
	read, err := n.root.fsys.Read(inode, dest, int64(len(dest)), off)
	if err != nil {
		return nil, errnoFor(err)
	}
	return fuse.ReadResultData(dest[:read]), 0
}

var _ fs.NodeWriter = (*node)(nil)

func (n *node) Write(ctx context.Context, f fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	n.root.mu.Lock()
	defer n.root.mu.Unlock()

	inode, errno := n.get()
	if errno != 0 {
		return 0, errno
	}
	if inode.IsDir() {
		return 0, syscall.EISDIR
	}
	written, err := n.root.fsys.Write(inode, data, int64(len(data)), off)
	if err != nil && err != tfs.ErrOutOfSpace {
		return uint32(written), errnoFor(err)
	}
	errnoOut := syscall.Errno(0)
	if err == tfs.ErrOutOfSpace {
		errnoOut = syscall.ENOSPC
	}
	return uint32(written), errnoOut
}

var _ fs.NodeFlusher = (*node)(nil)

// Flush is a no-op: TFS's backing store is a memory-mapped file, so every
// write is already visible to the mapping; there is no client-side buffer
// to flush.
func (n *node) Flush(ctx context.Context, f fs.FileHandle) syscall.Errno {
	return 0
}
