//go:build unix

package arena

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/circalloc/internal/layout"
)

// Map returns an anonymous memory mapping of size bytes and a cleanup
// function that unmaps it. Mappings are page-aligned (and therefore
// 16-byte aligned) and sit outside the Go heap, which keeps the arena
// stable for peers addressing it by offset.
func Map(size int) ([]byte, func() error, error) {
	if size <= 0 || size%layout.Alignment != 0 || uint64(size) > layout.MaxArenaBytes {
		return nil, nil, ErrSize
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() error {
		if data == nil {
			return nil
		}
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
	return data, cleanup, nil
}
