package tfs

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/frlis21/dm510-asg3/util"
)

// TestInodeFlushDecodeRoundTrip confirms flush/decodeInode agree on every
// field's on-disk encoding. On mismatch it dumps both raw records instead
// of printing an opaque byte count.
func TestInodeFlushDecodeRoundTrip(t *testing.T) {
	raw := make([]byte, inodeSize)
	n := &Inode{Ino: 5, raw: raw, Mode: ModeTypeRegular | 0o644, Name: "hello.txt"}
	n.Blocks[0] = 7
	n.Blocks[11] = 42
	n.IBlocks[0] = 99
	n.IBlocks[2] = 1000
	n.NBlocks = 3
	n.SetSize(12345)
	n.Atim = time.Unix(111, 222).UTC()
	n.Mtim = time.Unix(333, 444).UTC()
	n.flush()

	want := make([]byte, inodeSize)
	copy(want, raw)

	got := decodeInode(5, raw)
	got.flush()

	if !bytes.Equal(raw, want) {
		different, diffString := util.DumpByteSlicesWithDiffs(want, raw, 32, true, true, true)
		t.Fatalf("inode round trip changed the on-disk record (different=%v):\n%s", different, diffString)
	}

	if diff := cmp.Diff(n, got, cmp.AllowUnexported(Inode{})); diff != "" {
		t.Fatalf("decoded inode does not match original (-want +got):\n%s", diff)
	}
}

func TestCStringRoundTrip(t *testing.T) {
	cases := []string{"", "a", "hostname", "exactly-this-long-ok"}
	for _, s := range cases {
		enc := cStringTo(s, NameLimit)
		if len(enc) != NameLimit {
			t.Fatalf("cStringTo(%q) length = %d, want %d", s, len(enc), NameLimit)
		}
		if got := cStringFrom(enc); got != s {
			t.Errorf("cStringFrom(cStringTo(%q)) = %q", s, got)
		}
	}
}
