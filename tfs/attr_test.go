package tfs

import (
	"testing"
	"time"
)

func TestChmodPreservesType(t *testing.T) {
	fsys := newTestFilesystem(t, testImageSize)
	node, err := fsys.AddNode("/f", ModeTypeRegular|0o644)
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	fsys.Chmod(node, 0o600)
	if node.Mode&modeTypeMask != ModeTypeRegular {
		t.Fatalf("Chmod changed the type bit: mode = %#o", node.Mode)
	}
	if node.Mode&permMask != 0o600 {
		t.Fatalf("Chmod did not update perms: mode = %#o", node.Mode)
	}

	reloaded, err := fsys.GetNode("/f")
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if reloaded.Mode&permMask != 0o600 {
		t.Fatalf("Chmod not persisted: mode = %#o", reloaded.Mode)
	}
}

func TestSetTimes(t *testing.T) {
	fsys := newTestFilesystem(t, testImageSize)
	node, err := fsys.AddNode("/f", ModeTypeRegular|0o644)
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	atim := time.Unix(1000, 0).UTC()
	mtim := time.Unix(2000, 0).UTC()
	fsys.SetTimes(node, atim, mtim)

	if !node.Atim.Equal(atim) {
		t.Fatalf("Atim = %v, want %v", node.Atim, atim)
	}
	if !node.Mtim.Equal(mtim) {
		t.Fatalf("Mtim = %v, want %v", node.Mtim, mtim)
	}

	reloaded, err := fsys.GetNode("/f")
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if !reloaded.Atim.Equal(atim) || !reloaded.Mtim.Equal(mtim) {
		t.Fatalf("times not persisted: atim=%v mtim=%v", reloaded.Atim, reloaded.Mtim)
	}
}

func TestIsEmpty(t *testing.T) {
	fsys := newTestFilesystem(t, testImageSize)
	dir, err := fsys.AddNode("/d", ModeTypeDir|0o755)
	if err != nil {
		t.Fatalf("AddNode(/d): %v", err)
	}
	if !fsys.IsEmpty(dir) {
		t.Fatalf("fresh directory should be empty")
	}

	if _, err := fsys.AddNode("/d/child", ModeTypeRegular|0o644); err != nil {
		t.Fatalf("AddNode(/d/child): %v", err)
	}
	dir, err = fsys.GetNode("/d")
	if err != nil {
		t.Fatalf("GetNode(/d): %v", err)
	}
	if fsys.IsEmpty(dir) {
		t.Fatalf("directory with a child should not be empty")
	}
}
