// VariantKey
//
// binsearch.go
//
// @license MIT

package variantkey

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/pgzip"
)

// gzipMagic is the 2 byte magic identifying a gzip-compressed table
// snapshot, recognized as a read-time fallback for deployments that ship
// compressed tables instead of raw mmap-able ones.
var gzipMagic = [2]byte{0x1f, 0x8b}

// rawMagic is the 8 byte magic at the start of a raw binary-search
// container: "BINSRC1\0".
var rawMagic = [8]byte{'B', 'I', 'N', 'S', 'R', 'C', '1', 0}

// MaxColumns bounds the number of columns a container may declare; it
// leaves room above the small, fixed column counts used by the NRVK (3) and
// RSID/VK (2) tables.
const MaxColumns = 8

// ColumnSet describes the byte layout of a memory-mapped, sorted column
// file: one or more fixed-width unsigned integer arrays of nrows elements
// each, every column individually sorted ascending.
type ColumnSet struct {
	Data    []byte   // entire mapped file content
	NRows   uint64   // number of rows (elements per column)
	NCols   uint8    // number of columns
	CTBytes [MaxColumns]uint8 // per-column element width: 1, 2, 4 or 8
	Index   [MaxColumns]uint64 // byte offset of column i's first element
}

// OpenRawColumnSet parses a raw binsearch container: a 40 byte header
// beginning with the "BINSRC1\0" magic, followed by nrows (u64), ncols
// (u8), per-column byte widths (u8 each, up to MaxColumns), and the column
// data itself starting right after the header.
func OpenRawColumnSet(data []byte) (*ColumnSet, error) {
	const headerLen = 40
	if len(data) < headerLen {
		return nil, errors.New("variantkey: raw container too short")
	}
	if string(data[0:8]) != string(rawMagic[:]) {
		return nil, errors.New("variantkey: not a raw BINSRC1 container")
	}
	cs := &ColumnSet{Data: data}
	cs.NRows = binary.LittleEndian.Uint64(data[8:16])
	cs.NCols = data[16]
	if cs.NCols > MaxColumns {
		return nil, fmt.Errorf("variantkey: ncols %d exceeds supported maximum %d", cs.NCols, MaxColumns)
	}
	for i := uint8(0); i < cs.NCols; i++ {
		cs.CTBytes[i] = data[17+i]
	}
	offset := uint64(headerLen)
	for i := uint8(0); i < cs.NCols; i++ {
		cs.Index[i] = offset
		offset += cs.NRows * uint64(cs.CTBytes[i])
	}
	return cs, nil
}

// Column returns the raw bytes backing column i.
func (cs *ColumnSet) Column(i uint8) []byte {
	width := uint64(cs.CTBytes[i])
	start := cs.Index[i]
	return cs.Data[start : start+cs.NRows*width]
}

// Uint64At reads the value at row r of column i, which must have an 8 byte
// element width.
func (cs *ColumnSet) Uint64At(i uint8, r uint64) uint64 {
	off := cs.Index[i] + r*8
	return binary.LittleEndian.Uint64(cs.Data[off : off+8])
}

// Uint32At reads the value at row r of column i, which must have a 4 byte
// element width.
func (cs *ColumnSet) Uint32At(i uint8, r uint64) uint32 {
	off := cs.Index[i] + r*4
	return binary.LittleEndian.Uint32(cs.Data[off : off+4])
}

// Uint8At reads the value at row r of column i, which must have a 1 byte
// element width.
func (cs *ColumnSet) Uint8At(i uint8, r uint64) uint8 {
	return cs.Data[cs.Index[i]+r]
}

// ColFindFirstUint64 performs a binary search over a sorted, contiguous,
// little-endian array of n uint64 values (as produced by Column(i) or
// directly over an in-memory slice) and returns the index of the first
// element equal to search within [first, last). On return *first holds the
// index of the first element >= search; *last is left unchanged. If no
// element equals search, the returned index is *last, which callers must
// compare against n to detect a miss.
func ColFindFirstUint64(col []byte, first, last *uint64, search uint64) uint64 {
	lo, hi := *first, *last
	for lo < hi {
		mid := lo + (hi-lo)/2
		v := binary.LittleEndian.Uint64(col[mid*8 : mid*8+8])
		if v < search {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	*first = lo
	if lo < *last {
		v := binary.LittleEndian.Uint64(col[lo*8 : lo*8+8])
		if v == search {
			return lo
		}
	}
	return *last
}

// ColFindLastUint64 returns the index of the last element equal to search in
// a sorted uint64 column over [first, last), or last (the original upper
// bound) if no match exists.
func ColFindLastUint64(col []byte, first, last *uint64, search uint64) uint64 {
	origLast := *last
	lo, hi := *first, *last
	for lo < hi {
		mid := lo + (hi-lo)/2
		v := binary.LittleEndian.Uint64(col[mid*8 : mid*8+8])
		if v <= search {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == *first {
		return origLast
	}
	v := binary.LittleEndian.Uint64(col[(lo-1)*8 : lo*8])
	if v != search {
		return origLast
	}
	return lo - 1
}

// ColHasNextUint64 reports whether the element immediately after pos in a
// sorted uint64 column still equals search, and if so advances *pos.
func ColHasNextUint64(col []byte, pos *uint64, last uint64, search uint64) bool {
	next := *pos + 1
	if next >= last {
		return false
	}
	v := binary.LittleEndian.Uint64(col[next*8 : next*8+8])
	if v != search {
		return false
	}
	*pos = next
	return true
}

// ColLowerBoundUint64 returns the index of the first element >= search in a
// sorted uint64 column over [first, last), or last if every element is
// smaller. Unlike ColFindFirstUint64 it does not require an exact match,
// making it suitable for range queries.
func ColLowerBoundUint64(col []byte, first, last uint64, search uint64) uint64 {
	lo, hi := first, last
	for lo < hi {
		mid := lo + (hi-lo)/2
		v := binary.LittleEndian.Uint64(col[mid*8 : mid*8+8])
		if v < search {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// ColUpperBoundUint64 returns the index of the first element > search in a
// sorted uint64 column over [first, last), or last if no such element
// exists.
func ColUpperBoundUint64(col []byte, first, last uint64, search uint64) uint64 {
	lo, hi := first, last
	for lo < hi {
		mid := lo + (hi-lo)/2
		v := binary.LittleEndian.Uint64(col[mid*8 : mid*8+8])
		if v <= search {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// ColFindFirstUint32 is the 4 byte element width counterpart of
// ColFindFirstUint64, used for rsID columns.
func ColFindFirstUint32(col []byte, first, last *uint64, search uint32) uint64 {
	lo, hi := *first, *last
	for lo < hi {
		mid := lo + (hi-lo)/2
		v := binary.LittleEndian.Uint32(col[mid*4 : mid*4+4])
		if v < search {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	*first = lo
	if lo < *last {
		v := binary.LittleEndian.Uint32(col[lo*4 : lo*4+4])
		if v == search {
			return lo
		}
	}
	return *last
}

// ColHasNextUint32 is the 4 byte element width counterpart of
// ColHasNextUint64.
func ColHasNextUint32(col []byte, pos *uint64, last uint64, search uint32) bool {
	next := *pos + 1
	if next >= last {
		return false
	}
	v := binary.LittleEndian.Uint32(col[next*4 : next*4+4])
	if v != search {
		return false
	}
	*pos = next
	return true
}

// TableFile wraps the bytes backing an opened ColumnSet together with a
// flag reporting whether they are still memory-mapped (Mapped==true) or
// were decompressed into a private heap buffer (Mapped==false).
type TableFile struct {
	ColumnSet *ColumnSet
	Mapped    bool
	mf        *MappedFile
}

// Close releases the underlying mapped file, if any. It is a no-op for a
// table that was read from a gzip-compressed snapshot.
func (t *TableFile) Close() error {
	if t.mf == nil {
		return nil
	}
	return t.mf.Close()
}

// OpenTableFile opens path as a binary-search table. A plain (or
// Arrow/Feather) container is memory-mapped directly. A file beginning
// with the gzip magic is instead read fully and decompressed through
// pgzip into a private buffer — there is no write path to these tables
// (per spec §1's non-goals), only this read-time fallback for deployments
// that ship compressed snapshots; Mapped is false in that case since the
// decompressed bytes are an ordinary heap allocation, not a page-cached
// mapping.
func OpenTableFile(path string) (*TableFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var head [2]byte
	n, _ := io.ReadFull(f, head[:])
	f.Close()
	if n == 2 && head == gzipMagic {
		raw, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer raw.Close()
		zr, err := pgzip.NewReader(raw)
		if err != nil {
			return nil, fmt.Errorf("variantkey: gzip header on %s: %w", path, err)
		}
		defer zr.Close()
		data, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("variantkey: decompressing %s: %w", path, err)
		}
		cs, err := OpenColumnSet(data)
		if err != nil {
			return nil, err
		}
		return &TableFile{ColumnSet: cs, Mapped: false}, nil
	}
	mf, err := OpenMappedFileDiag(path)
	if err != nil {
		return nil, err
	}
	cs, err := OpenColumnSet(mf.Bytes)
	if err != nil {
		mf.Close()
		return nil, err
	}
	return &TableFile{ColumnSet: cs, Mapped: true, mf: mf}, nil
}
