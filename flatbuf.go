// VariantKey
//
// flatbuf.go
//
// @license MIT

package variantkey

import (
	"encoding/binary"
	"errors"
)

// errFBOutOfRange is the panic value used by fbSlice to unwind out of a
// corrupt or truncated FlatBuffers container; parseArrowColumnSet and
// parseFeatherColumnSet recover it at their top level and turn it into an
// ordinary error, the same way every other validation failure in those
// functions is reported.
var errFBOutOfRange = errors.New("variantkey: flatbuffers offset out of range")

// fbSlice returns buf[start:start+length], panicking with errFBOutOfRange
// instead of letting a malformed offset index out of bounds. Every absolute
// offset fbTable computes from file bytes (vtable offsets, field offsets,
// uoffset_t indirections, vector lengths) is untrusted input, so every slice
// taken from one of those offsets goes through here.
func fbSlice(buf []byte, start, length uint32) []byte {
	if uint64(start)+uint64(length) > uint64(len(buf)) {
		panic(errFBOutOfRange)
	}
	return buf[start : start+length]
}

// fbTable is a minimal reader over a single FlatBuffers table. FlatBuffers
// is a public, versioned binary wire format (used by Arrow IPC and Feather
// v1, neither of which has a decoder anywhere in this package's dependency
// surface); this reader implements just enough of it — vtable field
// lookup, scalars, nested tables, inline structs, and vectors of tables or inline
// structs — to walk the Footer/Schema/Message/RecordBatch (Arrow) and
// CTable/Column (Feather v1) schemas below. It is not a general-purpose
// FlatBuffers library: there is no mutation, no verification pass, and no
// support for unions beyond the single-field reads the two schemas need.
//
// buf holds the entire container file (every offset below is absolute, not
// relative to some sub-slice), and pos is the absolute byte position of
// this table's vtable-offset field.
type fbTable struct {
	buf []byte
	pos uint32
}

// fbRootAt reads the root table of a FlatBuffers message whose encoded
// bytes start at the absolute position base within buf: the first 4 bytes
// at base are a uoffset_t to the root table, relative to base itself.
func fbRootAt(buf []byte, base uint32) fbTable {
	rel := binary.LittleEndian.Uint32(fbSlice(buf, base, 4))
	return fbTable{buf: buf, pos: base + rel}
}

// vtablePos locates this table's vtable: the 4 bytes at t.pos are a signed
// offset, subtracted from t.pos to get the vtable's absolute position.
func (t fbTable) vtablePos() uint32 {
	so := int32(binary.LittleEndian.Uint32(fbSlice(t.buf, t.pos, 4)))
	return uint32(int64(t.pos) - int64(so))
}

// fieldOffset returns the byte offset (relative to t.pos) of field index,
// or 0 if the field is absent from this table (either because the vtable
// is too short, matching an older schema version, or the writer omitted a
// default value).
func (t fbTable) fieldOffset(index int) uint16 {
	vt := t.vtablePos()
	vtSize := binary.LittleEndian.Uint16(fbSlice(t.buf, vt, 2))
	entry := uint16(4 + index*2)
	if entry >= vtSize {
		return 0
	}
	return binary.LittleEndian.Uint16(fbSlice(t.buf, vt+uint32(entry), 2))
}

func (t fbTable) u8(index int, def uint8) uint8 {
	o := t.fieldOffset(index)
	if o == 0 {
		return def
	}
	return fbSlice(t.buf, t.pos+uint32(o), 1)[0]
}

func (t fbTable) i32(index int, def int32) int32 {
	o := t.fieldOffset(index)
	if o == 0 {
		return def
	}
	p := t.pos + uint32(o)
	return int32(binary.LittleEndian.Uint32(fbSlice(t.buf, p, 4)))
}

func (t fbTable) i64(index int, def int64) int64 {
	o := t.fieldOffset(index)
	if o == 0 {
		return def
	}
	p := t.pos + uint32(o)
	return int64(binary.LittleEndian.Uint64(fbSlice(t.buf, p, 8)))
}

// indirect returns the absolute position of the object (string/table/
// vector) referenced by field index, or 0 if the field is absent. These
// field kinds are stored as a further uoffset_t, relative to the field's
// own position, rather than inline.
func (t fbTable) indirect(index int) uint32 {
	o := t.fieldOffset(index)
	if o == 0 {
		return 0
	}
	fieldPos := t.pos + uint32(o)
	rel := binary.LittleEndian.Uint32(fbSlice(t.buf, fieldPos, 4))
	return fieldPos + rel
}

// table returns the nested table referenced by field index.
func (t fbTable) table(index int) (fbTable, bool) {
	p := t.indirect(index)
	if p == 0 {
		return fbTable{}, false
	}
	return fbTable{buf: t.buf, pos: p}, true
}

// structPos returns the absolute position of an inline struct field
// (struct fields, unlike tables/strings/vectors, are embedded directly in
// the table with no extra indirection).
func (t fbTable) structPos(index int) (uint32, bool) {
	o := t.fieldOffset(index)
	if o == 0 {
		return 0, false
	}
	return t.pos + uint32(o), true
}

// vector returns the absolute position of the first element and the
// element count of a vector field. The 4 bytes at that position (before
// elemsStart) hold the length.
func (t fbTable) vector(index int) (elemsStart uint32, length uint32) {
	p := t.indirect(index)
	if p == 0 {
		return 0, 0
	}
	n := binary.LittleEndian.Uint32(fbSlice(t.buf, p, 4))
	return p + 4, n
}

// vectorTableAt returns the i-th element of a vector-of-tables (or
// vector-of-strings), whose elements are themselves stored as a further
// uoffset_t relative to each element's own slot.
func (t fbTable) vectorTableAt(elemsStart uint32, i uint32) fbTable {
	elemPos := elemsStart + i*4
	rel := binary.LittleEndian.Uint32(fbSlice(t.buf, elemPos, 4))
	return fbTable{buf: t.buf, pos: elemPos + rel}
}
