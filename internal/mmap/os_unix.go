//go:build unix

package mmap

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

var kernelAdvice = [...]int{
	AdviseNormal:     unix.MADV_NORMAL,
	AdviseSequential: unix.MADV_SEQUENTIAL,
	AdviseRandom:     unix.MADV_RANDOM,
}

func mapFile(f *os.File, n int) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, n, unix.PROT_READ, unix.MAP_SHARED)
}

func unmapFile(data []byte) error { return unix.Munmap(data) }

func advise(data []byte, a Advice) error {
	err := unix.Madvise(data, kernelAdvice[a])
	if errors.Is(err, unix.EINVAL) {
		// madvise is a hint; some kernels refuse it for file mappings.
		return nil
	}
	return err
}
