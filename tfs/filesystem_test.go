package tfs

import (
	"testing"
)

const testImageSize = 4 * 1024 * 1024

func TestFormatRoot(t *testing.T) {
	fsys := newTestFilesystem(t, testImageSize)

	root, err := fsys.GetNode("/")
	if err != nil {
		t.Fatalf("GetNode(/): %v", err)
	}
	if !root.IsDir() {
		t.Fatalf("root is not a directory")
	}
	if root.Nlink() != 0 {
		t.Fatalf("fresh root nlink = %d, want 0", root.Nlink())
	}
	if root.Ino != 0 {
		t.Fatalf("root ino = %d, want 0", root.Ino)
	}
}

func TestAddNodeAndGetNode(t *testing.T) {
	fsys := newTestFilesystem(t, testImageSize)

	dir, err := fsys.AddNode("/etc", ModeTypeDir|0o755)
	if err != nil {
		t.Fatalf("AddNode(/etc): %v", err)
	}
	if !dir.IsDir() {
		t.Fatalf("/etc should be a directory")
	}

	file, err := fsys.AddNode("/etc/hostname", ModeTypeRegular|0o644)
	if err != nil {
		t.Fatalf("AddNode(/etc/hostname): %v", err)
	}
	if !file.IsRegular() {
		t.Fatalf("/etc/hostname should be a regular file")
	}
	if file.Size() != 0 {
		t.Fatalf("fresh file size = %d, want 0", file.Size())
	}

	got, err := fsys.GetNode("/etc/hostname")
	if err != nil {
		t.Fatalf("GetNode(/etc/hostname): %v", err)
	}
	if got.Ino != file.Ino {
		t.Fatalf("GetNode returned ino %d, want %d", got.Ino, file.Ino)
	}

	root, err := fsys.GetNode("/")
	if err != nil {
		t.Fatalf("GetNode(/): %v", err)
	}
	if root.Nlink() != 1 {
		t.Fatalf("root nlink after one child = %d, want 1", root.Nlink())
	}
}

func TestAddNodeErrors(t *testing.T) {
	fsys := newTestFilesystem(t, testImageSize)

	if _, err := fsys.AddNode("/a", ModeTypeDir|0o755); err != nil {
		t.Fatalf("AddNode(/a): %v", err)
	}
	if _, err := fsys.AddNode("/a", ModeTypeDir|0o755); err != ErrExists {
		t.Fatalf("AddNode duplicate = %v, want ErrExists", err)
	}
	if _, err := fsys.AddNode("/missing/child", ModeTypeRegular|0o644); err != ErrNotFound {
		t.Fatalf("AddNode under missing parent = %v, want ErrNotFound", err)
	}
	if _, err := fsys.AddNode("/a/b", ModeTypeDir|0o755); err != nil {
		t.Fatalf("AddNode(/a/b): %v", err)
	}
	if _, err := fsys.AddNode("/a/b/c", ModeTypeRegular|0o644); err != nil {
		t.Fatalf("AddNode(/a/b/c): %v", err)
	}

	longName := make([]byte, NameLimit)
	for i := range longName {
		longName[i] = 'x'
	}
	if _, err := fsys.AddNode("/"+string(longName), ModeTypeRegular|0o644); err != ErrNameTooLong {
		t.Fatalf("AddNode with oversized name = %v, want ErrNameTooLong", err)
	}
}

func TestRemoveNode(t *testing.T) {
	fsys := newTestFilesystem(t, testImageSize)

	if _, err := fsys.AddNode("/a", ModeTypeRegular|0o644); err != nil {
		t.Fatalf("AddNode(/a): %v", err)
	}
	if _, err := fsys.AddNode("/b", ModeTypeRegular|0o644); err != nil {
		t.Fatalf("AddNode(/b): %v", err)
	}
	if _, err := fsys.AddNode("/c", ModeTypeRegular|0o644); err != nil {
		t.Fatalf("AddNode(/c): %v", err)
	}

	if err := fsys.RemoveNode("/b"); err != nil {
		t.Fatalf("RemoveNode(/b): %v", err)
	}
	if _, err := fsys.GetNode("/b"); err != ErrNotFound {
		t.Fatalf("GetNode(/b) after removal = %v, want ErrNotFound", err)
	}

	root, err := fsys.GetNode("/")
	if err != nil {
		t.Fatalf("GetNode(/): %v", err)
	}
	if root.Nlink() != 2 {
		t.Fatalf("root nlink after removal = %d, want 2", root.Nlink())
	}

	children, err := fsys.Children(root)
	if err != nil {
		t.Fatalf("Children(/): %v", err)
	}
	names := map[string]bool{}
	for _, c := range children {
		names[c.Name] = true
	}
	if !names["a"] || !names["c"] || names["b"] {
		t.Fatalf("unexpected children after swap-remove: %v", names)
	}
}

func TestRemoveRootUnsupported(t *testing.T) {
	fsys := newTestFilesystem(t, testImageSize)
	if err := fsys.RemoveNode("/"); err != ErrUnsupported {
		t.Fatalf("RemoveNode(/) = %v, want ErrUnsupported", err)
	}
}

func TestChildrenRejectsNonDir(t *testing.T) {
	fsys := newTestFilesystem(t, testImageSize)
	f, err := fsys.AddNode("/f", ModeTypeRegular|0o644)
	if err != nil {
		t.Fatalf("AddNode(/f): %v", err)
	}
	if _, err := fsys.Children(f); err != ErrIsNotDir {
		t.Fatalf("Children(file) = %v, want ErrIsNotDir", err)
	}
}

func TestReloadRebuildsTree(t *testing.T) {
	fsys := newTestFilesystem(t, testImageSize)
	if _, err := fsys.AddNode("/dir", ModeTypeDir|0o755); err != nil {
		t.Fatalf("AddNode(/dir): %v", err)
	}
	node, err := fsys.AddNode("/dir/file", ModeTypeRegular|0o644)
	if err != nil {
		t.Fatalf("AddNode(/dir/file): %v", err)
	}
	want := []byte("persisted across reload")
	if _, err := fsys.Write(node, want, int64(len(want)), 0); err != nil {
		t.Fatalf("Write: %v", err)
	}

	img := fsys.img
	cache, err := buildCache(img)
	if err != nil {
		t.Fatalf("buildCache: %v", err)
	}
	reloaded := &Filesystem{img: img, cache: cache}

	got, err := reloaded.GetNode("/dir/file")
	if err != nil {
		t.Fatalf("GetNode(/dir/file) after rebuild: %v", err)
	}
	buf := make([]byte, len(want))
	n, err := reloaded.Read(got, buf, int64(len(buf)), 0)
	if err != nil {
		t.Fatalf("Read after rebuild: %v", err)
	}
	if string(buf[:n]) != string(want) {
		t.Fatalf("content after rebuild = %q, want %q", buf[:n], want)
	}
}
