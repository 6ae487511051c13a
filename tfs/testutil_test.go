package tfs

import (
	"path/filepath"
	"testing"

	"github.com/frlis21/dm510-asg3/backend/file"
)

// newTestFilesystem formats and loads a fresh image of the given size in a
// temp directory, returning the mounted Filesystem. The image is destroyed
// automatically when the test ends.
func newTestFilesystem(t *testing.T, size int64) *Filesystem {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.img")
	storage, err := file.CreateFromPath(path, size)
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	if err := Format(storage); err != nil {
		t.Fatalf("format: %v", err)
	}

	storage, err = file.OpenFromPath(path, false)
	if err != nil {
		t.Fatalf("reopen image: %v", err)
	}
	fsys, err := Load(storage)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(func() { _ = fsys.Destroy() })
	return fsys
}

// freeBlockListLen walks the free-block list from its head and returns its
// length. It fails the test instead of looping forever if the list doesn't
// terminate at End within nblocks+1 steps, catching a cycle introduced by a
// block being freed twice.
func freeBlockListLen(t *testing.T, img *image) int {
	t.Helper()

	n := 0
	b := img.sb.FreeBlockHead
	for b != End {
		n++
		if int64(n) > img.sb.NBlocks {
			t.Fatalf("free-block list did not terminate within %d steps (cycle?)", img.sb.NBlocks)
		}
		b = readBlockFreeNext(img.data, b)
	}
	return n
}
