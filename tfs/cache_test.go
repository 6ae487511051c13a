package tfs

import "testing"

func TestJoinPath(t *testing.T) {
	cases := []struct{ dir, name, want string }{
		{"/", "etc", "/etc"},
		{"/etc", "hostname", "/etc/hostname"},
		{"/a/b", "c", "/a/b/c"},
	}
	for _, c := range cases {
		if got := joinPath(c.dir, c.name); got != c.want {
			t.Errorf("joinPath(%q, %q) = %q, want %q", c.dir, c.name, got, c.want)
		}
	}
}

func TestBuildCacheMatchesIncrementalCache(t *testing.T) {
	fsys := newTestFilesystem(t, testImageSize)

	if _, err := fsys.AddNode("/etc", ModeTypeDir|0o755); err != nil {
		t.Fatalf("AddNode(/etc): %v", err)
	}
	if _, err := fsys.AddNode("/etc/hostname", ModeTypeRegular|0o644); err != nil {
		t.Fatalf("AddNode(/etc/hostname): %v", err)
	}
	if _, err := fsys.AddNode("/etc/ssh", ModeTypeDir|0o755); err != nil {
		t.Fatalf("AddNode(/etc/ssh): %v", err)
	}
	if _, err := fsys.AddNode("/bin", ModeTypeDir|0o755); err != nil {
		t.Fatalf("AddNode(/bin): %v", err)
	}

	rebuilt, err := buildCache(fsys.img)
	if err != nil {
		t.Fatalf("buildCache: %v", err)
	}

	if len(rebuilt) != len(fsys.cache) {
		t.Fatalf("rebuilt cache has %d entries, incremental has %d", len(rebuilt), len(fsys.cache))
	}
	for p, ino := range fsys.cache {
		if rebuilt[p] != ino {
			t.Errorf("rebuilt[%q] = %d, incremental has %d", p, rebuilt[p], ino)
		}
	}
}

func TestBuildCacheOnFreshRootIsJustRoot(t *testing.T) {
	fsys := newTestFilesystem(t, testImageSize)
	cache, err := buildCache(fsys.img)
	if err != nil {
		t.Fatalf("buildCache: %v", err)
	}
	if len(cache) != 1 {
		t.Fatalf("len(cache) = %d, want 1", len(cache))
	}
	if ino, ok := cache["/"]; !ok || ino != 0 {
		t.Fatalf("cache[/] = (%d, %v), want (0, true)", ino, ok)
	}
}
