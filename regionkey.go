// VariantKey
//
// regionkey.go
//
// @license MIT

package variantkey

// RegionKey bit layout (verified against the reference test vectors):
//
//	bits 63..59 (5)  : CHROM code
//	bits 58..31 (28) : STARTPOS
//	bits 30..3  (28) : ENDPOS
//	bits 2..1   (2)  : STRAND, internal encoding (0:+1->1, 1:0->0, 2:-1->2)
//	bit  0      (1)  : reserved, always zero
const (
	rkMaskChrom    uint64 = 0xF800000000000000
	rkMaskStartPos uint64 = 0x07FFFFFF80000000
	rkMaskEndPos   uint64 = 0x000000007FFFFFF8
	rkMaskStrand   uint64 = 0x0000000000000006

	rkShiftChrom    uint32 = 59
	rkShiftStartPos uint32 = 31
	rkShiftEndPos   uint32 = 3
	rkShiftStrand   uint32 = 1
)

// RKMaxPos is the largest representable STARTPOS/ENDPOS value (28 bits).
const RKMaxPos uint32 = 0x0FFFFFFF

// RegionKey holds the decoded components of a RegionKey.
type RegionKey struct {
	Chrom    uint8
	StartPos uint32
	EndPos   uint32
	Strand   uint8 // internal encoding: 0, 1, 2
}

// RegionKeyRev is a fully reversed RegionKey with the CHROM string restored.
type RegionKeyRev struct {
	Chrom    string
	StartPos uint32
	EndPos   uint32
	Strand   int8 // external encoding: -1, 0, +1
}

// EncodeRegionStrand maps the external strand encoding (-1, 0, +1) to the
// internal 2 bit code (2, 0, 1).
func EncodeRegionStrand(strand int8) uint8 {
	switch strand {
	case 1:
		return 1
	case -1:
		return 2
	default:
		return 0
	}
}

// DecodeRegionStrand maps the internal 2 bit strand code back to its
// external representation (-1, 0, +1).
func DecodeRegionStrand(code uint8) int8 {
	switch code {
	case 1:
		return 1
	case 2:
		return -1
	default:
		return 0
	}
}

// EncodeRegionKey composes a 64 bit RegionKey from its pre-encoded parts.
func EncodeRegionKey(chrom uint8, startPos, endPos uint32, strand uint8) uint64 {
	return (uint64(chrom) << rkShiftChrom) |
		(uint64(startPos) << rkShiftStartPos) |
		(uint64(endPos) << rkShiftEndPos) |
		(uint64(strand) << rkShiftStrand)
}

// ExtractRegionKeyChrom extracts the CHROM code from a RegionKey.
func ExtractRegionKeyChrom(rk uint64) uint8 {
	return uint8((rk & rkMaskChrom) >> rkShiftChrom)
}

// ExtractRegionKeyStartPos extracts STARTPOS from a RegionKey.
func ExtractRegionKeyStartPos(rk uint64) uint32 {
	return uint32((rk & rkMaskStartPos) >> rkShiftStartPos)
}

// ExtractRegionKeyEndPos extracts ENDPOS from a RegionKey.
func ExtractRegionKeyEndPos(rk uint64) uint32 {
	return uint32((rk & rkMaskEndPos) >> rkShiftEndPos)
}

// ExtractRegionKeyStrand extracts the internal STRAND code from a RegionKey.
func ExtractRegionKeyStrand(rk uint64) uint8 {
	return uint8((rk & rkMaskStrand) >> rkShiftStrand)
}

// DecodeRegionKey decodes a RegionKey into its components.
func DecodeRegionKey(rk uint64) RegionKey {
	return RegionKey{
		Chrom:    ExtractRegionKeyChrom(rk),
		StartPos: ExtractRegionKeyStartPos(rk),
		EndPos:   ExtractRegionKeyEndPos(rk),
		Strand:   ExtractRegionKeyStrand(rk),
	}
}

// ReverseRegionKey fully decodes a RegionKey, restoring the CHROM string and
// the external strand representation.
func ReverseRegionKey(rk uint64) RegionKeyRev {
	dec := DecodeRegionKey(rk)
	return RegionKeyRev{
		Chrom:    DecodeChrom(dec.Chrom),
		StartPos: dec.StartPos,
		EndPos:   dec.EndPos,
		Strand:   DecodeRegionStrand(dec.Strand),
	}
}

// Regionkey is the convenience composition of EncodeChrom + EncodeRegionStrand
// + EncodeRegionKey.
func Regionkey(chrom string, startPos, endPos uint32, strand int8) uint64 {
	return EncodeRegionKey(EncodeChrom(chrom), startPos, endPos, EncodeRegionStrand(strand))
}

// ExtendRegionKey returns a copy of rk with its STARTPOS decreased and ENDPOS
// increased by size, each saturating at 0 and RKMaxPos respectively.
func ExtendRegionKey(rk uint64, size uint32) uint64 {
	dec := DecodeRegionKey(rk)
	var start uint32
	if size < dec.StartPos {
		start = dec.StartPos - size
	}
	end := dec.EndPos + size
	if end < dec.EndPos || end > RKMaxPos {
		end = RKMaxPos
	}
	return EncodeRegionKey(dec.Chrom, start, end, dec.Strand)
}

// RegionkeyHex returns the 16 character lowercase hexadecimal string for a
// RegionKey.
func RegionkeyHex(rk uint64) string {
	return HexUint64(rk)
}

// ParseRegionkeyHex parses a 16 character hexadecimal RegionKey string.
func ParseRegionkeyHex(s string) uint64 {
	return ParseHexUint64(s)
}

// GetRegionKeyChromStartPos returns a CHROM+STARTPOS prefix value suitable
// for sorted lookups, mirroring VariantKey's CHROM+POS prefix.
func GetRegionKeyChromStartPos(rk uint64) uint64 {
	return rk >> rkShiftStartPos
}

// GetRegionKeyChromEndPos returns a CHROM+ENDPOS value: the CHROM bits
// combined with ENDPOS shifted into the STARTPOS position, so it sorts
// consistently with GetRegionKeyChromStartPos.
func GetRegionKeyChromEndPos(rk uint64) uint64 {
	chrom := uint64(ExtractRegionKeyChrom(rk)) << rkShiftChrom
	endpos := uint64(ExtractRegionKeyEndPos(rk))
	return (chrom >> rkShiftStartPos) | endpos
}

// AreOverlappingRegions reports whether region [aStart,aEnd) on chromosome
// aChrom overlaps region [bStart,bEnd) on chromosome bChrom. Chromosomes
// must match and the half-open intervals must intersect.
func AreOverlappingRegions(aChrom uint8, aStart, aEnd uint32, bChrom uint8, bStart, bEnd uint32) bool {
	return aChrom == bChrom && aStart < bEnd && bStart < aEnd
}

// AreOverlappingRegionRegionKey reports whether region [startPos,endPos) on
// chrom overlaps the region encoded in rk.
func AreOverlappingRegionRegionKey(chrom uint8, startPos, endPos uint32, rk uint64) bool {
	dec := DecodeRegionKey(rk)
	return AreOverlappingRegions(chrom, startPos, endPos, dec.Chrom, dec.StartPos, dec.EndPos)
}

// AreOverlappingRegionKeys reports whether the regions encoded in two
// RegionKeys overlap.
func AreOverlappingRegionKeys(a, b uint64) bool {
	da := DecodeRegionKey(a)
	db := DecodeRegionKey(b)
	return AreOverlappingRegions(da.Chrom, da.StartPos, da.EndPos, db.Chrom, db.StartPos, db.EndPos)
}
