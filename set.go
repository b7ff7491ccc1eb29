// VariantKey
//
// set.go
//
// @license MIT

package variantkey

import (
	"runtime"

	"github.com/klauspost/cpuid"
	"golang.org/x/sync/errgroup"
)

// parallelSortThreshold is the minimum array length at which SortUint64
// fans the counting pass out across worker goroutines instead of running
// it on the calling goroutine.
const parallelSortThreshold = 1 << 16

// sortWorkers returns the number of worker goroutines to use for a
// parallel counting pass, sized from the host's thread count the same way
// the teacher's utils.go sizes its worker pools from cpuid.CPU.
func sortWorkers() int {
	n := cpuid.CPU.LogicalCores
	if n < 1 {
		n = runtime.GOMAXPROCS(0)
	}
	if n < 1 {
		n = 1
	}
	return n
}

// radixByte extracts byte shift of v (shift in {0,8,...,56}).
func radixByte(v uint64, shift uint) uint8 {
	return uint8(v >> shift)
}

// countRadixPass builds the 256 bucket histogram for one radix byte of
// arr, optionally fanning the count out across worker goroutines for
// large arrays.
func countRadixPass(arr []uint64, shift uint) [256]uint32 {
	var counts [256]uint32
	n := len(arr)
	if n < parallelSortThreshold {
		for i := 0; i < n; i++ {
			counts[radixByte(arr[i], shift)]++
		}
		return counts
	}
	workers := sortWorkers()
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers
	partials := make([][256]uint32, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		start := w * chunk
		if start >= n {
			continue
		}
		end := start + chunk
		if end > n {
			end = n
		}
		g.Go(func() error {
			var local [256]uint32
			for i := start; i < end; i++ {
				local[radixByte(arr[i], shift)]++
			}
			partials[w] = local
			return nil
		})
	}
	_ = g.Wait() // worker closures never return an error
	for w := 0; w < workers; w++ {
		for b := 0; b < 256; b++ {
			counts[b] += partials[w][b]
		}
	}
	return counts
}

// radixPass scatters src into dst ordered by the byte at shift, using a
// prefix-summed copy of counts as per-bucket write cursors. The scatter
// itself is sequential: it must preserve the stable order the LSD radix
// sort relies on, which a naive parallel scatter across a shared cursor
// array cannot do without per-chunk offset bookkeeping.
func radixPass(src, dst []uint64, shift uint, counts [256]uint32) {
	var cursors [256]uint32
	var run uint32
	for b := 0; b < 256; b++ {
		cursors[b] = run
		run += counts[b]
	}
	for _, v := range src {
		b := radixByte(v, shift)
		dst[cursors[b]] = v
		cursors[b]++
	}
}

// SortUint64 sorts arr in ascending order using an 8-pass 256-bucket LSD
// radix sort, matching sort_uint64_t in set.h. tmp must be a scratch slice
// of the same length as arr, owned by the caller (no hidden allocation on
// the hot path).
func SortUint64(arr, tmp []uint64) {
	n := len(arr)
	if n < 2 {
		return
	}
	a, b := arr, tmp
	for pass := 0; pass < 8; pass++ {
		shift := uint(pass * 8)
		counts := countRadixPass(a, shift)
		radixPass(a, b, shift, counts)
		a, b = b, a
	}
	// 8 passes is even, so a already aliases arr; nothing to copy back.
}

// OrderUint64 sorts arr in ascending order like SortUint64, while also
// permuting idx (initially the identity permutation 0..n-1) to record
// where each element came from, matching order_uint64_t in set.h. tmp and
// tdx are caller-provided scratch slices the same length as arr/idx.
func OrderUint64(arr, tmp []uint64, idx, tdx []uint32) {
	n := len(arr)
	if n < 2 {
		return
	}
	a, b := arr, tmp
	ai, bi := idx, tdx
	for pass := 0; pass < 8; pass++ {
		shift := uint(pass * 8)
		counts := countRadixPass(a, shift)
		var cursors [256]uint32
		var run uint32
		for c := 0; c < 256; c++ {
			cursors[c] = run
			run += counts[c]
		}
		for i, v := range a {
			bucket := radixByte(v, shift)
			j := cursors[bucket]
			b[j] = v
			bi[j] = ai[i]
			cursors[bucket]++
		}
		a, b = b, a
		ai, bi = bi, ai
	}
}

// ReverseUint64 reverses arr in place, matching reverse_uint64_t.
func ReverseUint64(arr []uint64) {
	for i, j := 0, len(arr)-1; i < j; i, j = i+1, j-1 {
		arr[i], arr[j] = arr[j], arr[i]
	}
}

// UniqueUint64 compacts consecutive runs of equal values in a sorted arr
// down to their first occurrence in place, returning the deduplicated
// prefix. Matches unique_uint64_t.
func UniqueUint64(arr []uint64) []uint64 {
	if len(arr) == 0 {
		return arr
	}
	p := 0
	for i := 1; i < len(arr); i++ {
		if arr[p] != arr[i] {
			p++
			arr[p] = arr[i]
		}
	}
	return arr[:p+1]
}

// IntersectionUint64 writes the intersection of two sorted arrays a and b
// into out (which must have capacity >= min(len(a), len(b))) and returns
// the written slice. Matches intersection_uint64_t.
func IntersectionUint64(a, b, out []uint64) []uint64 {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] == b[j]:
			out[k] = a[i]
			k++
			i++
			j++
		default:
			j++
		}
	}
	return out[:k]
}

// UnionUint64 writes the union of two sorted arrays a and b into out
// (which must have capacity >= len(a)+len(b)) and returns the written
// slice. Matches union_uint64_t.
func UnionUint64(a, b, out []uint64) []uint64 {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out[k] = a[i]
			i++
		case a[i] > b[j]:
			out[k] = b[j]
			j++
		default:
			out[k] = a[i]
			i++
			j++
		}
		k++
	}
	for i < len(a) {
		out[k] = a[i]
		i++
		k++
	}
	for j < len(b) {
		out[k] = b[j]
		j++
		k++
	}
	return out[:k]
}
