package sync

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/frlis21/dm510-asg3/backend/file"
	"github.com/frlis21/dm510-asg3/tfs"
)

func newTestImage(t *testing.T) *tfs.Filesystem {
	t.Helper()
	imgPath := filepath.Join(t.TempDir(), "test.img")
	storage, err := file.CreateFromPath(imgPath, 4*1024*1024)
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	if err := tfs.Format(storage); err != nil {
		t.Fatalf("format: %v", err)
	}

	storage, err = file.OpenFromPath(imgPath, false)
	if err != nil {
		t.Fatalf("reopen image: %v", err)
	}
	fsys, err := tfs.Load(storage)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(func() { _ = fsys.Destroy() })
	return fsys
}

func TestCopyFileSystem(t *testing.T) {
	src := fstest.MapFS{
		"etc/hostname":    {Data: []byte("tfs-box\n"), Mode: 0o644},
		"etc/ssh/sshd_cfg": {Data: []byte("PermitRootLogin no\n"), Mode: 0o600},
		"bin/true":        {Data: []byte{}, Mode: 0o755},
		"lost+found":      {Data: []byte("ignored"), Mode: 0o644},
	}

	dst := newTestImage(t)
	if err := CopyFileSystem(src, dst); err != nil {
		t.Fatalf("CopyFileSystem: %v", err)
	}

	for p, want := range map[string]string{
		"/etc/hostname":    "tfs-box\n",
		"/etc/ssh/sshd_cfg": "PermitRootLogin no\n",
		"/bin/true":         "",
	} {
		node, err := dst.GetNode(p)
		if err != nil {
			t.Fatalf("GetNode(%s): %v", p, err)
		}
		buf := make([]byte, len(want)+1)
		n, _ := dst.Read(node, buf, int64(len(buf)), 0)
		if got := string(buf[:n]); got != want {
			t.Fatalf("content of %s = %q, want %q", p, got, want)
		}
	}

	if _, err := dst.GetNode("/lost+found"); err == nil {
		t.Fatalf("excluded path /lost+found should not have been copied")
	}

	etc, err := dst.GetNode("/etc")
	if err != nil {
		t.Fatalf("GetNode(/etc): %v", err)
	}
	if !etc.IsDir() {
		t.Fatalf("/etc should be a directory")
	}
	children, err := dst.Children(etc)
	if err != nil {
		t.Fatalf("Children(/etc): %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children of /etc, got %d", len(children))
	}
}
