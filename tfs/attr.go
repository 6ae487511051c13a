package tfs

import "time"

// permMask isolates the permission bits of a mode word from its type bit.
const permMask = ^modeTypeMask

// Chmod updates node's permission bits, leaving its type bit untouched.
// The driver adapter uses this to implement chmod(2); the core itself never
// changes permissions on its own.
func (fs *Filesystem) Chmod(node *Inode, perm uint32) {
	node.Mode = (node.Mode & modeTypeMask) | (perm & permMask)
	node.flush()
}

// SetTimes updates node's access and modification timestamps directly,
// bypassing the automatic atim/mtim bump Read/Write perform. The driver
// adapter uses this to implement utimes(2).
func (fs *Filesystem) SetTimes(node *Inode, atim, mtim time.Time) {
	node.Atim = atim
	node.Mtim = mtim
	node.flush()
}

// IsEmpty reports whether dir has no children, the precondition the driver
// adapter's rmdir policy checks before calling RemoveNode.
func (fs *Filesystem) IsEmpty(dir *Inode) bool {
	return dir.Nlink() == 0
}
