//go:build unix

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

func mapFile(f *os.File, size int, access Access) ([]byte, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}

	advice := unix.MADV_NORMAL
	switch access {
	case Sequential:
		advice = unix.MADV_SEQUENTIAL
	case Random:
		advice = unix.MADV_RANDOM
	}
	// Advice is a hint; a kernel that rejects it still serves the pages.
	_ = unix.Madvise(data, advice)
	return data, nil
}

func unmapFile(data []byte) error {
	return unix.Munmap(data)
}
