// VariantKey
//
// rsidvar.go
//
// @license MIT

package variantkey

import "fmt"

// RSVKTable wraps the rsvk.bin lookup table: rsID (sorted u32) to
// VariantKey (u64). Generated from a TSV by the rsvk.sh tool.
type RSVKTable struct {
	cs *ColumnSet
}

// VKRSTable wraps the vkrs.bin lookup table: VariantKey (sorted u64) to
// rsID (u32). Generated from a TSV by the vkrs.sh tool.
type VKRSTable struct {
	cs *ColumnSet
}

// OpenRSVKTable parses an already memory-mapped rsvk.bin file: column 0 is
// the sorted rsID (u32), column 1 is the VariantKey (u64).
func OpenRSVKTable(data []byte) (*RSVKTable, error) {
	cs, err := OpenRawColumnSet(data)
	if err != nil {
		return nil, err
	}
	if cs.NCols != 2 {
		return nil, fmt.Errorf("variantkey: rsvk table expects 2 columns, got %d", cs.NCols)
	}
	return &RSVKTable{cs: cs}, nil
}

// OpenVKRSTable parses an already memory-mapped vkrs.bin file: column 0 is
// the sorted VariantKey (u64), column 1 is the rsID (u32).
func OpenVKRSTable(data []byte) (*VKRSTable, error) {
	cs, err := OpenRawColumnSet(data)
	if err != nil {
		return nil, err
	}
	if cs.NCols != 2 {
		return nil, fmt.Errorf("variantkey: vkrs table expects 2 columns, got %d", cs.NCols)
	}
	return &VKRSTable{cs: cs}, nil
}

// NRows returns the number of rows in the table.
func (t *RSVKTable) NRows() uint64 { return t.cs.NRows }

// NRows returns the number of rows in the table.
func (t *VKRSTable) NRows() uint64 { return t.cs.NRows }

// FindVariantKeyByRSID searches for rsid and returns the first occurrence
// of its VariantKey, narrowing [*first,last) to the matching range the way
// the reference search does. Returns ok=false if rsid is not present.
func (t *RSVKTable) FindVariantKeyByRSID(first *uint64, last uint64, rsid uint32) (vk uint64, ok bool) {
	rsCol := t.cs.Column(0)
	max := last
	row := ColFindFirstUint32(rsCol, first, &max, rsid)
	if row >= last {
		return 0, false
	}
	*first = row
	return t.cs.Uint64At(1, row), true
}

// NextVariantKeyByRSID returns the next VariantKey sharing the rsID found
// by a prior FindVariantKeyByRSID call, advancing pos. Returns ok=false
// once no further row matches.
func (t *RSVKTable) NextVariantKeyByRSID(pos *uint64, last uint64, rsid uint32) (vk uint64, ok bool) {
	rsCol := t.cs.Column(0)
	if !ColHasNextUint32(rsCol, pos, last, rsid) {
		return 0, false
	}
	return t.cs.Uint64At(1, *pos), true
}

// FindRSIDByVariantKey searches for vk and returns the first occurrence of
// its rsID, narrowing [*first,last) to the matching range. Returns
// ok=false if vk is not present.
func (t *VKRSTable) FindRSIDByVariantKey(first *uint64, last uint64, vk uint64) (rsid uint32, ok bool) {
	vkCol := t.cs.Column(0)
	max := last
	row := ColFindFirstUint64(vkCol, first, &max, vk)
	if row >= last {
		return 0, false
	}
	*first = row
	return t.cs.Uint32At(1, row), true
}

// NextRSIDByVariantKey returns the next rsID sharing the VariantKey found
// by a prior FindRSIDByVariantKey call, advancing pos. Returns ok=false
// once no further row matches.
func (t *VKRSTable) NextRSIDByVariantKey(pos *uint64, last uint64, vk uint64) (rsid uint32, ok bool) {
	vkCol := t.cs.Column(0)
	if !ColHasNextUint64(vkCol, pos, last, vk) {
		return 0, false
	}
	return t.cs.Uint32At(1, *pos), true
}

// FindRSIDByVariantKeyChromPosRange searches for the first rsID whose
// VariantKey falls within the CHROM/POS range [posMin,posMax] (REFALT
// ignored), narrowing [*first,*last) to the matching row range. Returns
// ok=false if no VariantKey falls in range.
func (t *VKRSTable) FindRSIDByVariantKeyChromPosRange(first, last *uint64, chrom uint8, posMin, posMax uint32) (rsid uint32, ok bool) {
	vkCol := t.cs.Column(0)
	minKey := (uint64(chrom) << shiftChrom) | (uint64(posMin) << shiftPos)
	maxKey := (uint64(chrom) << shiftChrom) | (uint64(posMax) << shiftPos) | maskRefAlt

	lo := ColLowerBoundUint64(vkCol, *first, *last, minKey)
	if lo >= *last {
		return 0, false
	}
	hi := ColUpperBoundUint64(vkCol, lo, *last, maxKey)
	if hi == lo {
		return 0, false
	}
	*first = lo
	*last = hi
	return t.cs.Uint32At(1, lo), true
}
