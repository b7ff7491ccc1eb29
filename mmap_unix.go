// VariantKey
//
// mmap_unix.go
//
// @license MIT

//go:build unix

package variantkey

import (
	"fmt"
	"os"
	"syscall"
)

// MappedFile is a read-only memory-mapped file. It must be released with
// Close once no lookups against its Bytes are still in flight.
type MappedFile struct {
	Bytes []byte
	file  *os.File
}

// OpenMappedFile opens path and maps its entire contents read-only. The
// returned MappedFile is safe for concurrent reads from multiple
// goroutines; it must be Closed exactly once when no longer needed.
func OpenMappedFile(path string) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := fi.Size()
	if size == 0 {
		f.Close()
		return &MappedFile{Bytes: nil, file: nil}, nil
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("variantkey: mmap %s: %w", path, err)
	}
	return &MappedFile{Bytes: data, file: f}, nil
}

// Close unmaps the file and releases its descriptor.
func (m *MappedFile) Close() error {
	if m.file == nil {
		return nil
	}
	err := syscall.Munmap(m.Bytes)
	cerr := m.file.Close()
	m.Bytes = nil
	m.file = nil
	if err != nil {
		return err
	}
	return cerr
}
