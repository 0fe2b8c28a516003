// Package backend provides reference zns.Backend implementations.
package backend

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MmapBackend is an anonymous-memory-mapped reference implementation of
// zns.Backend: a namespace's full byte extent is backed by one mmap
// region, with RW reading or writing at a byte offset directly against
// that mapping. It exists so the core can be exercised end-to-end
// without a real block device.
type MmapBackend struct {
	data []byte
}

// NewMmapBackend maps sizeBytes of anonymous, zero-filled memory to back
// a namespace of that size.
func NewMmapBackend(sizeBytes uint64) (*MmapBackend, error) {
	data, err := unix.Mmap(-1, 0, int(sizeBytes), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("backend: mmap %d bytes: %w", sizeBytes, err)
	}
	return &MmapBackend{data: data}, nil
}

// RW implements zns.Backend: it copies data in or out of the mapping at
// offsetBytes, per spec.md §6's Backend I/O collaborator contract.
func (b *MmapBackend) RW(offsetBytes uint64, data []byte, isWrite bool) error {
	end := offsetBytes + uint64(len(data))
	if end > uint64(len(b.data)) {
		return fmt.Errorf("backend: offset %d + len %d exceeds backing size %d", offsetBytes, len(data), len(b.data))
	}
	if isWrite {
		copy(b.data[offsetBytes:end], data)
	} else {
		copy(data, b.data[offsetBytes:end])
	}
	return nil
}

// Close unmaps the backing memory. Safe to call once, at namespace
// teardown.
func (b *MmapBackend) Close() error {
	if b.data == nil {
		return nil
	}
	err := unix.Munmap(b.data)
	b.data = nil
	return err
}
