// VariantKey
//
// variantkey.go
//
// @license MIT

package variantkey

import "strings"

// Bit masks and shifts for the VariantKey 64 bit layout:
//
//	bits 63..59 (5)  : CHROM code  [1..25, 0 = NA]
//	bits 58..31 (28) : POS  (0-based reference position)
//	bits 30..0  (31) : REF+ALT code
const (
	maskChrom    uint64 = 0xF800000000000000
	maskPos      uint64 = 0x07FFFFFF80000000
	maskChromPos uint64 = 0xFFFFFFFF80000000
	maskRefAlt   uint64 = 0x000000007FFFFFFF

	shiftChrom uint32 = 59
	shiftPos   uint32 = 31
)

// VariantKey holds the decoded components of a VariantKey.
type VariantKey struct {
	Chrom  uint8  // CHROM code (only the low 5 bits are used)
	Pos    uint32 // 0-based reference position (only the low 28 bits are used)
	RefAlt uint32 // REF+ALT code (only the low 31 bits are used)
}

// VariantKeyRange holds the minimum and maximum VariantKey values for a
// chromosome/position range scan.
type VariantKeyRange struct {
	Min uint64
	Max uint64
}

// chrOneCharMap maps a single decimal-stripped letter (upper or lower cased
// via `| 0x20`) to its CHROM code: X=23, Y=24, M=25, everything else 0 (NA).
var chrOneCharMap = buildChrOneCharMap()

func buildChrOneCharMap() [128]uint8 {
	var m [128]uint8
	m['m'] = 25
	m['x'] = 23
	m['y'] = 24
	return m
}

// hasChromChrPrefix reports whether s starts with the case-insensitive
// prefix "chr".
func hasChromChrPrefix(s string) bool {
	if len(s) <= 3 {
		return false
	}
	return (s[0]|0x20) == 'c' && (s[1]|0x20) == 'h' && (s[2]|0x20) == 'r'
}

// encodeNumericChrom encodes a chromosome string made only of decimal digits.
// Any non-digit character causes it to return 0 (NA), matching
// encode_numeric_chrom.
func encodeNumericChrom(s string) uint8 {
	var v uint8
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0
		}
		v = v*10 + (c - '0')
	}
	return v
}

// EncodeChrom encodes a chromosome string into its VariantKey CHROM code.
//
// Accepted forms: "1".."22" decimal, "X"->23, "Y"->24, "M"/"MT"->25,
// case-insensitive, with an optional case-insensitive "chr"/"CHR" prefix.
// Empty or unrecognized input returns 0 (NA). This never fails.
func EncodeChrom(chrom string) uint8 {
	if hasChromChrPrefix(chrom) {
		chrom = chrom[3:]
	}
	if len(chrom) == 0 {
		return 0
	}
	if chrom[0] >= '0' && chrom[0] <= '9' {
		return encodeNumericChrom(chrom)
	}
	if len(chrom) == 1 || (len(chrom) == 2 && (chrom[1]|0x20) == 't') {
		c := chrom[0] | 0x20
		if c >= 128 {
			return 0
		}
		return chrOneCharMap[c]
	}
	return 0
}

// DecodeChrom decodes a CHROM code back into its string representation:
// 1..22 -> decimal, 23 -> "X", 24 -> "Y", 25 -> "MT", anything else -> "NA".
func DecodeChrom(code uint8) string {
	switch {
	case code >= 1 && code <= 22:
		return itoaSmall(code)
	case code == 23:
		return "X"
	case code == 24:
		return "Y"
	case code == 25:
		return "MT"
	default:
		return "NA"
	}
}

func itoaSmall(v uint8) string {
	if v < 10 {
		return string([]byte{'0' + v})
	}
	return string([]byte{'0' + v/10, '0' + v%10})
}

// encodeBase maps a nucleotide character to its 2 bit code: A=0, C=1, G=2,
// T=3 (case-insensitive); anything else reports ok=false.
func encodeBase(c byte) (uint32, bool) {
	switch c | 0x20 {
	case 'a':
		return 0, true
	case 'c':
		return 1, true
	case 'g':
		return 2, true
	case 't':
		return 3, true
	default:
		return 0, false
	}
}

// encodeAlleleRev packs str's bases into h starting at *bitpos, moving
// downward 2 bits per base. Returns false on the first invalid base.
func encodeAlleleRev(h *uint32, bitpos *uint8, str string) bool {
	for i := 0; i < len(str); i++ {
		v, ok := encodeBase(str[i])
		if !ok {
			return false
		}
		*bitpos -= 2
		*h |= v << *bitpos
	}
	return true
}

// EncodeRefAltRev encodes ref+alt using the reversible scheme: 4 bit |ref|,
// 4 bit |alt|, then 2 bits per base, MSB-first from bit 22 downward. It
// returns ok=false if any base is outside {A,C,G,T} (case-insensitive) or the
// combined length does not fit (handled by the caller, see EncodeRefAlt).
func EncodeRefAltRev(ref, alt string) (code uint32, ok bool) {
	h := (uint32(len(ref)) << 27) | (uint32(len(alt)) << 23)
	bitpos := uint8(23)
	if !encodeAlleleRev(&h, &bitpos, ref) {
		return 0, false
	}
	if !encodeAlleleRev(&h, &bitpos, alt) {
		return 0, false
	}
	return h, true
}

// muxhash mixes key k into hash h using a MurmurHash3-like round, matching
// muxhash in variantkey.h.
func muxhash(k, h uint32) uint32 {
	k *= 0xcc9e2d51
	k = (k >> 17) | (k << 15)
	k *= 0x1b873593
	h ^= k
	h = (h >> 19) | (h << 13)
	return h*5 + 0xe6546b64
}

// encodePackChar maps a letter to a 5 bit code: 'A'..'Z'/'a'..'z' -> 1..26,
// anything below 'A' -> 27 (reserved), matching encode_packchar. Other bytes
// (>= 'A' but not a letter) also fold into this scheme, matching the C
// implementation's unchecked `(c|0x20) - 'a' + 1`.
func encodePackChar(c byte) uint32 {
	if c < 'A' {
		return 27
	}
	return uint32((c|0x20)-'a') + 1
}

// packCharsTail packs 1..5 trailing characters of str into the layout
// [0 RRRRR SSSSS TTTTT UUUUU VVVVV 0], matching pack_chars_tail.
func packCharsTail(str string) uint32 {
	var h uint32
	n := len(str)
	pos := n - 1
	switch n {
	case 5:
		h ^= encodePackChar(str[pos]) << (1 + 5*1)
		pos--
		fallthrough
	case 4:
		h ^= encodePackChar(str[pos]) << (1 + 5*2)
		pos--
		fallthrough
	case 3:
		h ^= encodePackChar(str[pos]) << (1 + 5*3)
		pos--
		fallthrough
	case 2:
		h ^= encodePackChar(str[pos]) << (1 + 5*4)
		pos--
		fallthrough
	case 1:
		h ^= encodePackChar(str[pos]) << (1 + 5*5)
	}
	return h
}

// packChars packs exactly 6 characters of str (str[0:6]) into a 32 bit
// value, matching pack_chars.
func packChars(str string) uint32 {
	pos := 5
	return (encodePackChar(str[pos]) << 1) ^
		(encodePackChar(str[pos-1]) << (1 + 5*1)) ^
		(encodePackChar(str[pos-2]) << (1 + 5*2)) ^
		(encodePackChar(str[pos-3]) << (1 + 5*3)) ^
		(encodePackChar(str[pos-4]) << (1 + 5*4)) ^
		(encodePackChar(str[pos-5]) << (1 + 5*5))
}

// hash32 returns a 32 bit hash of str, processing it in 6-character blocks
// with a MurmurHash3-like mix, matching hash32.
func hash32(str string) uint32 {
	var h uint32
	for len(str) >= 6 {
		h = muxhash(packChars(str), h)
		str = str[6:]
	}
	if len(str) > 0 {
		h = muxhash(packCharsTail(str), h)
	}
	return h
}

// EncodeRefAltHash returns a 32 bit non-reversible hash of ref+alt: a
// MurmurHash3-like mix of hash32(ref), the 0x03 separator, and hash32(alt),
// finalized and shifted with the LSB forced to 1 to mark hash mode, matching
// encode_refalt_hash.
func EncodeRefAltHash(ref, alt string) uint32 {
	h := muxhash(hash32(alt), muxhash(0x3, hash32(ref)))
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return (h >> 1) | 0x1
}

// EncodeRefAlt encodes a REF+ALT pair into a 32 bit code, using the
// reversible scheme when |ref|+|alt| <= 11 and both alleles are pure ACGT,
// otherwise falling back to the non-reversible hash scheme.
func EncodeRefAlt(ref, alt string) uint32 {
	if len(ref)+len(alt) <= 11 {
		if code, ok := EncodeRefAltRev(ref, alt); ok {
			return code
		}
	}
	return EncodeRefAltHash(ref, alt)
}

var decodeBaseTable = [4]byte{'A', 'C', 'G', 'T'}

func decodeBase(code uint32, bitpos int) byte {
	return decodeBaseTable[(code>>uint(bitpos))&0x3]
}

// DecodeRefAltRev decodes a reversible REF+ALT code without checking the
// LSB, matching decode_refalt_rev. Behavior on a hash-form code is
// unspecified (callers should check the LSB first, see DecodeRefAlt).
func DecodeRefAltRev(code uint32) (ref, alt string) {
	sizeref := int((code & 0x78000000) >> 27)
	sizealt := int((code & 0x07800000) >> 23)
	rb := make([]byte, sizeref)
	for i := 0; i < sizeref; i++ {
		rb[i] = decodeBase(code, 21-2*i)
	}
	altBase := 21 - 2*sizeref
	ab := make([]byte, sizealt)
	for i := 0; i < sizealt; i++ {
		ab[i] = decodeBase(code, altBase-2*i)
	}
	return string(rb), string(ab)
}

// DecodeRefAlt decodes a REF+ALT code if it is reversible (LSB == 0). If the
// code is a non-reversible hash (LSB == 1), ok is false and ref/alt are
// empty; the caller must consult the NRVK side table.
func DecodeRefAlt(code uint32) (ref, alt string, ok bool) {
	if code&0x1 != 0 {
		return "", "", false
	}
	ref, alt = DecodeRefAltRev(code)
	return ref, alt, true
}

// EncodeVariantKey composes a 64 bit VariantKey from its pre-encoded parts.
func EncodeVariantKey(chrom uint8, pos uint32, refalt uint32) uint64 {
	return (uint64(chrom) << shiftChrom) | (uint64(pos) << shiftPos) | uint64(refalt)
}

// ExtractChrom extracts the CHROM code from a VariantKey.
func ExtractChrom(vk uint64) uint8 {
	return uint8((vk & maskChrom) >> shiftChrom)
}

// ExtractPos extracts the POS field from a VariantKey.
func ExtractPos(vk uint64) uint32 {
	return uint32((vk & maskPos) >> shiftPos)
}

// ExtractRefAlt extracts the REF+ALT code from a VariantKey.
func ExtractRefAlt(vk uint64) uint32 {
	return uint32(vk & maskRefAlt)
}

// DecodeVariantKey decodes a VariantKey into its three components.
func DecodeVariantKey(vk uint64) VariantKey {
	return VariantKey{
		Chrom:  ExtractChrom(vk),
		Pos:    ExtractPos(vk),
		RefAlt: ExtractRefAlt(vk),
	}
}

// Variantkey is the convenience composition of EncodeChrom + EncodeRefAlt +
// EncodeVariantKey. chrom is a string, pos is 0-based, ref/alt are nucleotide
// strings; the variant should already be normalized (see NormalizeVariant or
// NormalizedVariantKey).
func Variantkey(chrom string, pos uint32, ref, alt string) uint64 {
	return EncodeVariantKey(EncodeChrom(chrom), pos, EncodeRefAlt(ref, alt))
}

// VariantkeyRange computes the minimum and maximum VariantKey for a
// chromosome/position range scan, ignoring REF+ALT.
func VariantkeyRange(chrom uint8, posMin, posMax uint32) VariantKeyRange {
	c := uint64(chrom) << shiftChrom
	return VariantKeyRange{
		Min: c | (uint64(posMin) << shiftPos),
		Max: c | (uint64(posMax) << shiftPos) | maskRefAlt,
	}
}

// CompareUint64 returns -1, 0, or 1 according to whether a is less than,
// equal to, or greater than b.
func CompareUint64(a, b uint64) int8 {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CompareVariantkeyChrom compares two VariantKeys by CHROM only.
func CompareVariantkeyChrom(a, b uint64) int8 {
	return CompareUint64(a>>shiftChrom, b>>shiftChrom)
}

// CompareVariantkeyChromPos compares two VariantKeys by CHROM+POS.
func CompareVariantkeyChromPos(a, b uint64) int8 {
	return CompareUint64(a>>shiftPos, b>>shiftPos)
}

// VariantkeyHex returns the 16 character lowercase hexadecimal string for a
// VariantKey.
func VariantkeyHex(vk uint64) string {
	return HexUint64(vk)
}

// ParseVariantkeyHex parses a 16 character hexadecimal VariantKey string.
func ParseVariantkeyHex(s string) uint64 {
	return ParseHexUint64(s)
}

// normalizeBase uppercases a single nucleotide letter the same way the
// reversible encoder tolerates lowercase input.
func normalizeBase(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 0x20
	}
	return c
}

// UpperACGT uppercases a string of nucleotide letters in place semantics
// (returns a new string), used where callers want the same case-normalized
// form the reversible codec implicitly produces.
func UpperACGT(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r - 0x20
		}
		return r
	}, s)
}
