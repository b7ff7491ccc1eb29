// VariantKey
//
// genoref.go
//
// @license MIT

package variantkey

import "errors"

// genoRefNumChroms is the number of encoded CHROM codes (1..25); index 0 of
// the offset table is unused.
const genoRefNumChroms = 25

// genoRefHeaderLen is the byte size of the leading offset table: 26
// little-endian u32 values (index 0 unused, indices 1..25 map to CHROM
// codes).
const genoRefHeaderLen = (genoRefNumChroms + 1) * 4

// GenoRefFile wraps a memory-mapped per-chromosome reference genome: a
// 26-entry u32 offset table followed by the concatenated uppercase
// reference bases for chromosomes 1..25.
type GenoRefFile struct {
	data    []byte
	offsets [genoRefNumChroms + 1]uint32
}

// OpenGenoRefFile parses an already memory-mapped genoref.bin file.
func OpenGenoRefFile(data []byte) (*GenoRefFile, error) {
	if len(data) < genoRefHeaderLen {
		return nil, errors.New("variantkey: genoref file too short")
	}
	g := &GenoRefFile{data: data}
	for i := 0; i <= genoRefNumChroms; i++ {
		g.offsets[i] = uint32(data[i*4]) | uint32(data[i*4+1])<<8 | uint32(data[i*4+2])<<16 | uint32(data[i*4+3])<<24
	}
	return g, nil
}

// chromLen returns the number of reference bases stored for chrom, derived
// from the gap to the next chromosome's offset (or EOF for the last one).
func (g *GenoRefFile) chromLen(chrom uint8) uint32 {
	if chrom < 1 || int(chrom) > genoRefNumChroms {
		return 0
	}
	start := g.offsets[chrom]
	var end uint32
	if int(chrom) == genoRefNumChroms {
		end = uint32(len(g.data))
	} else {
		end = g.offsets[chrom+1]
	}
	if end < start {
		return 0
	}
	return end - start
}

// GetGenoRefSeq returns the reference base at (chrom, pos), or 0 if pos is
// at or past the chromosome end.
func (g *GenoRefFile) GetGenoRefSeq(chrom uint8, pos uint32) byte {
	if chrom < 1 || int(chrom) > genoRefNumChroms {
		return 0
	}
	if pos >= g.chromLen(chrom) {
		return 0
	}
	return g.data[g.offsets[chrom]+pos]
}

// aztoupper uppercases a single ASCII lowercase letter, leaving every other
// byte (including 96, the byte just below 'a') unchanged.
func aztoupper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 32
	}
	return c
}

// CheckReference compares sizeref bases of ref (case-insensitively) against
// the genome starting at (chrom, pos). Returns 0 on an exact match, 1 if
// every mismatch is IUPAC-compatible, -1 if the compared region runs past
// the chromosome end or any base mismatches in a way no IUPAC code
// explains, and -2 if pos itself is already past the end.
func (g *GenoRefFile) CheckReference(chrom uint8, pos uint32, ref string, sizeref int) int {
	length := g.chromLen(chrom)
	if pos >= length {
		return -2
	}
	if uint32(sizeref) > length-pos {
		return -1
	}
	ambiguous := false
	for i := 0; i < sizeref; i++ {
		gseq := g.GetGenoRefSeq(chrom, pos+uint32(i))
		r := aztoupper(ref[i])
		if r == gseq {
			continue
		}
		if iupacCompatible(r, gseq) {
			ambiguous = true
			continue
		}
		return -1
	}
	if ambiguous {
		return 1
	}
	return 0
}

// iupacExpand maps an IUPAC ambiguity code to the set of bases it may
// represent.
var iupacExpand = map[byte]string{
	'R': "AG",
	'Y': "CT",
	'S': "GC",
	'W': "AT",
	'K': "GT",
	'M': "AC",
	'B': "CGT",
	'D': "AGT",
	'H': "ACT",
	'V': "ACG",
	'N': "ACGT",
}

// iupacCompatible reports whether base a is consistent with genome base b;
// either or both may be a plain ACGT letter or an IUPAC ambiguity code. Two
// ambiguity codes are compatible when their expansions share at least one
// base (e.g. B={C,G,T} and D={A,G,T} share G and T).
func iupacCompatible(a, b byte) bool {
	setA, okA := iupacExpand[a]
	setB, okB := iupacExpand[b]
	switch {
	case okA && okB:
		return intersectsByte(setA, setB)
	case okA:
		return containsByte(setA, b)
	case okB:
		return containsByte(setB, a)
	default:
		return false
	}
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}

func intersectsByte(a, b string) bool {
	for i := 0; i < len(a); i++ {
		if containsByte(b, a[i]) {
			return true
		}
	}
	return false
}

// flipTable maps each uppercase IUPAC nucleotide letter to its complement:
// A<->T, C<->G, M<->K, R<->Y, B<->V, D<->H; W, S, N are their own
// complements. FlipAllele uppercases its input before the lookup.
var flipTable = map[byte]byte{
	'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C',
	'M': 'K', 'K': 'M', 'R': 'Y', 'Y': 'R',
	'B': 'V', 'V': 'B', 'D': 'H', 'H': 'D',
	'W': 'W', 'S': 'S', 'N': 'N',
}

// FlipAllele complements s in place according to flipTable, always emitting
// the uppercase complement regardless of the input letter's case.
func FlipAllele(s []byte) {
	for i, c := range s {
		upper := aztoupper(c)
		flipped, ok := flipTable[upper]
		if !ok {
			continue
		}
		s[i] = flipped
	}
}
