package variantkey_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tecnick-go/variantkey"
)

func TestEncodeDecodeChrom(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want uint8
	}{
		{"plain numeric", "1", 1},
		{"two digit numeric", "22", 22},
		{"X", "X", 23},
		{"x lowercase", "x", 23},
		{"Y", "Y", 24},
		{"M", "M", 25},
		{"MT", "MT", 25},
		{"mt lowercase", "mt", 25},
		{"chr prefix", "chr10", 10},
		{"CHR prefix uppercase", "CHRX", 23},
		{"empty", "", 0},
		{"garbage", "foo", 0},
		{"zero", "0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, variantkey.EncodeChrom(tt.in))
		})
	}

	decodeTests := []struct {
		code uint8
		want string
	}{
		{1, "1"}, {9, "9"}, {22, "22"}, {23, "X"}, {24, "Y"}, {25, "MT"}, {0, "NA"}, {26, "NA"},
	}
	for _, tt := range decodeTests {
		assert.Equal(t, tt.want, variantkey.DecodeChrom(tt.code))
	}
}

func TestEncodeRefAltRevAndDecode(t *testing.T) {
	tests := []struct {
		ref, alt string
	}{
		{"A", "C"}, {"AC", "G"}, {"A", "GT"}, {"ACGT", "TGCA"}, {"AAAAA", "CCCCC"},
	}
	for _, tt := range tests {
		code, ok := variantkey.EncodeRefAltRev(tt.ref, tt.alt)
		require.True(t, ok, "expected reversible encoding for %s/%s", tt.ref, tt.alt)
		assert.Zero(t, code&0x1, "LSB must be 0 for reversible form")
		ref, alt, ok := variantkey.DecodeRefAlt(code)
		require.True(t, ok)
		assert.Equal(t, tt.ref, ref)
		assert.Equal(t, tt.alt, alt)
	}
}

func TestEncodeRefAltFallsBackToHash(t *testing.T) {
	// total length 16 > 11 forces the hash form.
	code := variantkey.EncodeRefAlt("ACGT", "AAACCCGGGTTT")
	assert.Equal(t, uint32(1), code&0x1, "LSB must be 1 for hash form")
	_, _, ok := variantkey.DecodeRefAlt(code)
	assert.False(t, ok)
}

func TestEncodeRefAltInvalidBaseFallsBackToHash(t *testing.T) {
	code := variantkey.EncodeRefAlt("N", "C")
	assert.Equal(t, uint32(1), code&0x1)
}

func TestVariantKeyRoundTrip(t *testing.T) {
	tests := []struct {
		chrom string
		pos   uint32
		ref   string
		alt   string
	}{
		{"1", 100000, "A", "C"},
		{"X", 123, "AC", "G"},
		{"MT", 9999, "GATTACA", "G"},
	}
	for _, tt := range tests {
		vk := variantkey.Variantkey(tt.chrom, tt.pos, tt.ref, tt.alt)
		dec := variantkey.DecodeVariantKey(vk)
		assert.Equal(t, variantkey.EncodeChrom(tt.chrom), dec.Chrom)
		assert.Equal(t, tt.pos, dec.Pos)
		ref, alt, ok := variantkey.DecodeRefAlt(dec.RefAlt)
		require.True(t, ok)
		assert.Equal(t, tt.ref, ref)
		assert.Equal(t, tt.alt, alt)
	}
}

func TestVariantKeyHashForm(t *testing.T) {
	vk := variantkey.Variantkey("MT", 100024, "ACGT", "AAACCCGGGTTT")
	assert.Equal(t, uint64(1), vk&0x1, "VariantKey LSB mirrors the REF+ALT hash marker")
	dec := variantkey.DecodeVariantKey(vk)
	_, _, ok := variantkey.DecodeRefAlt(dec.RefAlt)
	assert.False(t, ok, "hash-form refalt must not decode in-key")
}

func TestVariantkeyRange(t *testing.T) {
	r := variantkey.VariantkeyRange(10, 1000, 2000)
	assert.Equal(t, uint8(10), variantkey.ExtractChrom(r.Min))
	assert.Equal(t, uint8(10), variantkey.ExtractChrom(r.Max))
	assert.Equal(t, uint32(1000), variantkey.ExtractPos(r.Min))
	assert.Equal(t, uint32(2000), variantkey.ExtractPos(r.Max))
	assert.True(t, r.Min < r.Max)
}

func TestCompareVariantkeyChromPos(t *testing.T) {
	a := variantkey.EncodeVariantKey(1, 100, 0)
	b := variantkey.EncodeVariantKey(1, 200, 0)
	c := variantkey.EncodeVariantKey(2, 1, 0)
	assert.Equal(t, int8(-1), variantkey.CompareVariantkeyChromPos(a, b))
	assert.Equal(t, int8(1), variantkey.CompareVariantkeyChromPos(b, a))
	assert.Equal(t, int8(0), variantkey.CompareVariantkeyChromPos(a, a))
	assert.Equal(t, int8(-1), variantkey.CompareVariantkeyChrom(a, c))
}

func TestEncodeStringId(t *testing.T) {
	assert.Equal(t, uint64(0xa411493515597619), variantkey.EncodeStringID("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ", 0))
}

func TestAreOverlappingRegions(t *testing.T) {
	assert.Equal(t, true, variantkey.AreOverlappingRegions(1, 5, 7, 1, 3, 7))
	assert.Equal(t, false, variantkey.AreOverlappingRegions(1, 5, 7, 2, 5, 7))
}
