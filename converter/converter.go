// Package converter adapts a mounted TFS image to the standard io/fs.FS
// interface, so a TFS image's contents can be served, walked, or archived
// with any stdlib-io/fs-consuming tool without going through the FUSE
// adapter.
package converter

import (
	"io"
	"io/fs"
	"path"
	"time"

	"github.com/frlis21/dm510-asg3/tfs"
)

const permMask = 0o7777

// tfsFS presents a *tfs.Filesystem as an io/fs.FS.
type tfsFS struct {
	fsys *tfs.Filesystem
}

// FS wraps fsys as a read-only io/fs.FS.
func FS(fsys *tfs.Filesystem) fs.FS {
	return &tfsFS{fsys: fsys}
}

func cleanPath(name string) string {
	if name == "." {
		return "/"
	}
	return "/" + path.Clean(name)
}

func (t *tfsFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	node, err := t.fsys.GetNode(cleanPath(name))
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &tfsFile{fsys: t.fsys, node: node, name: path.Base(name)}, nil
}

func (t *tfsFS) ReadDir(name string) ([]fs.DirEntry, error) {
	dir, err := t.fsys.GetNode(cleanPath(name))
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	if !dir.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	children, err := t.fsys.Children(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, len(children))
	for i, c := range children {
		entries[i] = fs.FileInfoToDirEntry(nodeInfo(c))
	}
	return entries, nil
}

// tfsFile adapts a *tfs.Inode plus a read cursor to fs.File.
type tfsFile struct {
	fsys   *tfs.Filesystem
	node   *tfs.Inode
	name   string
	offset int64
}

func (f *tfsFile) Stat() (fs.FileInfo, error) { return nodeInfo(f.node), nil }

func (f *tfsFile) Read(p []byte) (int, error) {
	if f.node.IsDir() {
		return 0, &fs.PathError{Op: "read", Path: f.name, Err: fs.ErrInvalid}
	}
	n, err := f.fsys.Read(f.node, p, int64(len(p)), f.offset)
	f.offset += n
	if err == nil && n == 0 && len(p) > 0 {
		err = io.EOF
	}
	return int(n), err
}

func (f *tfsFile) ReadDir(count int) ([]fs.DirEntry, error) {
	children, err := f.fsys.Children(f.node)
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, len(children))
	for i, c := range children {
		entries[i] = fs.FileInfoToDirEntry(nodeInfo(c))
	}
	if count <= 0 || count > len(entries) {
		return entries, nil
	}
	return entries[:count], nil
}

func (f *tfsFile) Close() error { return nil }

// nodeFileInfo implements fs.FileInfo over a *tfs.Inode.
type nodeFileInfo struct {
	node *tfs.Inode
}

func nodeInfo(n *tfs.Inode) nodeFileInfo { return nodeFileInfo{node: n} }

func (i nodeFileInfo) Name() string {
	if i.node.Name == "" {
		return "/"
	}
	return i.node.Name
}

func (i nodeFileInfo) Size() int64 {
	if i.node.IsDir() {
		return 0
	}
	return i.node.Size()
}

func (i nodeFileInfo) Mode() fs.FileMode {
	perm := fs.FileMode(i.node.Mode & permMask)
	if i.node.IsDir() {
		return perm | fs.ModeDir
	}
	return perm
}

func (i nodeFileInfo) ModTime() time.Time { return i.node.Mtim }
func (i nodeFileInfo) IsDir() bool        { return i.node.IsDir() }
func (i nodeFileInfo) Sys() any           { return i.node }
