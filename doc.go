// VariantKey
//
// doc.go
//
// @license MIT
//
// Package variantkey implements the VariantKey family of compact, sortable,
// partially-reversible 64-bit identifiers for human genetic variants.
//
// It provides:
//
//   - the VariantKey/RegionKey/ESID bit codecs (hex.go, esid.go, variantkey.go,
//     regionkey.go);
//   - a columnar, memory-mapped binary-search engine over sorted unsigned
//     integer arrays, with raw, Arrow IPC, and Feather v1 container support
//     (binsearch.go, arrow.go);
//   - the NRVK side table for recovering long alleles that do not fit the
//     reversible encoding (nrvk.go);
//   - a memory-mapped per-chromosome reference sequence and the
//     normalize_variant algorithm (genoref.go, normalize.go);
//   - the RSID<->VariantKey lookup tables (rsidvar.go);
//   - sort/unique/intersect/union set utilities over uint64 arrays (set.go).
//
// All mapped files are opened once, are read-only for their entire lifetime,
// and every lookup is reentrant: multiple goroutines may call any lookup
// function on the same opened table concurrently without synchronization.
package variantkey
