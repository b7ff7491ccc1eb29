// VariantKey
//
// nrvk.go
//
// @license MIT

package variantkey

import (
	"encoding/binary"
	"fmt"
	"io"
)

// AlleleMaxSize bounds the length of any individual REF or ALT allele
// recovered from the NRVK side table.
const AlleleMaxSize = 256

// VariantKeyRev is the fully decoded, human-readable form of a VariantKey:
// the CHROM string, 0-based POS, and the REF/ALT alleles (recovered from
// the NRVK side table when the in-key reversible encoding does not apply).
type VariantKeyRev struct {
	Chrom  string
	Pos    uint32
	Ref    string
	Alt    string
}

// NRVKTable wraps the three-column NRVK side table: vk (sorted u64), offset
// (u64) and data (raw bytes laid out as
// [u8 sizeref][u8 sizealt][ref bytes][alt bytes] per row).
type NRVKTable struct {
	cs *ColumnSet
}

// OpenNRVKTable parses an already memory-mapped NRVK binary file.
func OpenNRVKTable(data []byte) (*NRVKTable, error) {
	cs, err := OpenRawColumnSet(data)
	if err != nil {
		return nil, err
	}
	if cs.NCols != 3 {
		return nil, fmt.Errorf("variantkey: nrvk table expects 3 columns, got %d", cs.NCols)
	}
	return &NRVKTable{cs: cs}, nil
}

// NRows returns the number of rows in the table.
func (t *NRVKTable) NRows() uint64 {
	return t.cs.NRows
}

// refAltAtRow decodes the REF/ALT pair stored at the given row index.
func (t *NRVKTable) refAltAtRow(row uint64) (ref, alt string) {
	dataCol := t.cs.Data[t.cs.Index[2]:]
	offset := t.cs.Uint64At(1, row)
	sizeref := int(dataCol[offset])
	sizealt := int(dataCol[offset+1])
	base := offset + 2
	ref = string(dataCol[base : base+uint64(sizeref)])
	alt = string(dataCol[base+uint64(sizeref) : base+uint64(sizeref)+uint64(sizealt)])
	return ref, alt
}

// FindRefAltByVariantKey looks up the REF/ALT pair for vk in the table,
// returning ok=false if vk is not present.
func (t *NRVKTable) FindRefAltByVariantKey(vk uint64) (ref, alt string, ok bool) {
	vkCol := t.cs.Column(0)
	first, last := uint64(0), t.cs.NRows
	row := ColFindFirstUint64(vkCol, &first, &last, vk)
	if row >= t.cs.NRows {
		return "", "", false
	}
	ref, alt = t.refAltAtRow(row)
	return ref, alt, true
}

// ReverseVariantKey fully decodes vk, consulting the NRVK table when the
// in-key reversible REF+ALT encoding does not apply (hash form).
func (t *NRVKTable) ReverseVariantKey(vk uint64) VariantKeyRev {
	dec := DecodeVariantKey(vk)
	rev := VariantKeyRev{
		Chrom: DecodeChrom(dec.Chrom),
		Pos:   dec.Pos,
	}
	if ref, alt, ok := DecodeRefAlt(dec.RefAlt); ok {
		rev.Ref, rev.Alt = ref, alt
		return rev
	}
	if t != nil {
		if ref, alt, ok := t.FindRefAltByVariantKey(vk); ok {
			rev.Ref, rev.Alt = ref, alt
		}
	}
	return rev
}

// GetVariantKeyRefLength returns the REF allele length for vk: decoded
// directly from the reversible encoding when possible, otherwise looked up
// in the NRVK table. Returns 0 if vk is a hash-form key absent from the
// table.
func (t *NRVKTable) GetVariantKeyRefLength(vk uint64) int {
	refalt := ExtractRefAlt(vk)
	if refalt&0x1 == 0 {
		return int((refalt & 0x78000000) >> 27)
	}
	if t == nil {
		return 0
	}
	vkCol := t.cs.Column(0)
	first, last := uint64(0), t.cs.NRows
	row := ColFindFirstUint64(vkCol, &first, &last, vk)
	if row >= t.cs.NRows {
		return 0
	}
	dataCol := t.cs.Data[t.cs.Index[2]:]
	offset := t.cs.Uint64At(1, row)
	return int(dataCol[offset])
}

// GetVariantKeyEndPos returns the variant's end position: POS + REF length.
func (t *NRVKTable) GetVariantKeyEndPos(vk uint64) uint32 {
	return ExtractPos(vk) + uint32(t.GetVariantKeyRefLength(vk))
}

// GetVariantKeyChromStartPos returns the CHROM+POS prefix of vk, matching
// VariantKey's own sort order.
func GetVariantKeyChromStartPos(vk uint64) uint64 {
	return vk >> shiftPos
}

// GetVariantKeyChromEndPos returns a CHROM+ENDPOS value combining vk's CHROM
// with its end position, sortable the same way as
// GetVariantKeyChromStartPos.
func (t *NRVKTable) GetVariantKeyChromEndPos(vk uint64) uint64 {
	return (vk & maskChrom >> shiftPos) | uint64(t.GetVariantKeyEndPos(vk))
}

// VariantKeyToRegionKey converts a VariantKey into the RegionKey spanning
// its POS..POS+len(REF) interval, with strand code 0 (no strand).
func (t *NRVKTable) VariantKeyToRegionKey(vk uint64) uint64 {
	dec := DecodeVariantKey(vk)
	end := dec.Pos + uint32(t.GetVariantKeyRefLength(vk))
	return EncodeRegionKey(dec.Chrom, dec.Pos, end, 0)
}

// AreOverlappingVariantKeyRegionKey reports whether the variant vk overlaps
// the region encoded in rk.
func (t *NRVKTable) AreOverlappingVariantKeyRegionKey(vk, rk uint64) bool {
	dec := DecodeVariantKey(vk)
	end := dec.Pos + uint32(t.GetVariantKeyRefLength(vk))
	rdec := DecodeRegionKey(rk)
	return AreOverlappingRegions(dec.Chrom, dec.Pos, end, rdec.Chrom, rdec.StartPos, rdec.EndPos)
}

// DumpTSV writes every row of the table as VARIANTKEY_HEX\tREF\tALT lines,
// mirroring the nrvk_bin_to_tsv dump used to regenerate the source TSV from
// a binary table.
func (t *NRVKTable) DumpTSV(w io.Writer) (int, error) {
	n := 0
	vkCol := t.cs.Column(0)
	for row := uint64(0); row < t.cs.NRows; row++ {
		vk := binary.LittleEndian.Uint64(vkCol[row*8 : row*8+8])
		ref, alt := t.refAltAtRow(row)
		written, err := fmt.Fprintf(w, "%s\t%s\t%s\n", HexUint64(vk), ref, alt)
		if err != nil {
			return n, err
		}
		n += written
	}
	return n, nil
}
