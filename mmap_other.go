// VariantKey
//
// mmap_other.go
//
// @license MIT

//go:build !unix

package variantkey

import "os"

// MappedFile falls back to a plain read on platforms without a POSIX mmap
// (e.g. Windows); the read-only lookup semantics are identical, only the
// zero-copy mapping is lost.
type MappedFile struct {
	Bytes []byte
}

// OpenMappedFile reads path fully into memory. See the unix build's
// OpenMappedFile for the memory-mapped variant.
func OpenMappedFile(path string) (*MappedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &MappedFile{Bytes: data}, nil
}

// Close drops the reference to the file contents; there is no mapping or
// descriptor to release on this platform.
func (m *MappedFile) Close() error {
	m.Bytes = nil
	return nil
}
