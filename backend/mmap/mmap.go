// Package mmap maps a backend.Storage's backing file into memory, the way
// TFS requires its image to be mapped at load time.
package mmap

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/frlis21/dm510-asg3/backend"
)

// Mapping is a single memory-mapped region backed by an open file descriptor.
// The returned byte slice aliases the file's contents directly; for writable
// storage, writes into it are writes into the file, made durable by the
// host's ordinary writeback (there is no explicit Sync requirement beyond
// what Flush provides).
type Mapping struct {
	data []byte
	sys  *os.File
}

// Map maps the full contents of storage read/write, returning a byte slice
// that aliases the file. Writable storage is mapped shared. Read-only
// storage is mapped private (copy-on-write): the slice can still be written
// in memory, but those writes never reach the file. storage must expose an
// *os.File via Sys(), since mmap(2) operates on a file descriptor, not an
// arbitrary io.ReaderAt.
func Map(storage backend.Storage) (*Mapping, error) {
	f, err := storage.Sys()
	if err != nil {
		return nil, fmt.Errorf("mmap: backing storage has no usable file descriptor: %w", err)
	}

	size, err := Size(storage)
	if err != nil {
		return nil, fmt.Errorf("mmap: could not determine image size: %w", err)
	}
	if size <= 0 {
		return nil, fmt.Errorf("mmap: image %s has non-positive size %d", f.Name(), size)
	}

	flags := unix.MAP_SHARED
	if _, err := storage.Writable(); err != nil {
		// A shared writable mapping needs a descriptor opened read/write.
		flags = unix.MAP_PRIVATE
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		return nil, fmt.Errorf("mmap: could not map %s: %w", f.Name(), err)
	}

	return &Mapping{data: data, sys: f}, nil
}

// Bytes returns the mapped region as an indexable byte slice. All TFS region
// views (superblock, inode table, data blocks) are derived from this slice
// by bounds-checked index math, never by casting pointers.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Flush asks the kernel to write dirty pages back to the backing file.
func (m *Mapping) Flush() error {
	if m.data == nil {
		return nil
	}
	return unix.Msync(m.data, unix.MS_SYNC)
}

// Unmap flushes and releases the mapping. The Mapping must not be used
// afterward.
func (m *Mapping) Unmap() error {
	if m.data == nil {
		return nil
	}
	if err := m.Flush(); err != nil {
		return fmt.Errorf("mmap: flush before unmap: %w", err)
	}
	if err := unix.Munmap(m.data); err != nil {
		return fmt.Errorf("mmap: munmap: %w", err)
	}
	m.data = nil
	return nil
}

// Size returns the size in bytes of the image backing storage, whether it is
// a regular file or a raw block device. Regular files report their size
// directly via Stat; block devices (e.g. a loopback device used to mount a
// TFS image without an intervening file) do not, so their size is read from
// sysfs the same way the original disk-geometry probe in this codebase did
// before TFS grew its own in-memory byte-slice view.
func Size(storage backend.Storage) (int64, error) {
	info, err := storage.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat: %w", err)
	}

	mode := info.Mode()
	switch {
	case mode.IsRegular():
		return info.Size(), nil
	case mode&os.ModeDevice != 0:
		return blockDeviceSize(info)
	default:
		return 0, fmt.Errorf("%s is neither a regular file nor a block device", info.Name())
	}
}

// DeviceType reports whether f names a regular file or a block device,
// mirroring the distinction TFS's geometry probing must make.
func DeviceType(f fs.File) (string, error) {
	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("could not stat file: %w", err)
	}
	switch {
	case info.Mode().IsRegular():
		return "file", nil
	case info.Mode()&os.ModeDevice != 0:
		return "device", nil
	default:
		return "", fmt.Errorf("%s is neither a block device nor a regular file", info.Name())
	}
}

func blockDeviceSize(info fs.FileInfo) (int64, error) {
	sizePath := fmt.Sprintf("/sys/class/block/%s/size", path.Base(info.Name()))
	sizeBytes, err := os.ReadFile(sizePath)
	if err != nil {
		return 0, fmt.Errorf("could not get size of device %s from kernel: %w", info.Name(), err)
	}
	sectors, err := strconv.ParseInt(strings.TrimSpace(string(sizeBytes)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size reported for device %s: %q", info.Name(), sizeBytes)
	}
	return sectors * 512, nil
}
