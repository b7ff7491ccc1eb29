package variantkey_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tecnick-go/variantkey"
)

// --- minimal FlatBuffers fixture builder ---
//
// Exercises exactly the encode side of the wire format variantkey's Arrow
// IPC / Feather v1 reader decodes: a table is a vtable (one 2 byte offset
// per field, 0 meaning absent) followed by a signed vtable-offset header
// and the field bytes themselves; scalar and inline-struct fields sit
// directly in the table, string/table/vector fields are a further
// relative offset that must point to a strictly higher buffer position
// than the slot holding it (so parents are always written before the
// children they reference, and patched in afterwards).

type fbFixtureBuilder struct {
	buf []byte
}

func (b *fbFixtureBuilder) pos() uint32 { return uint32(len(b.buf)) }

func (b *fbFixtureBuilder) writeU16(v uint16) {
	b.buf = append(b.buf, byte(v), byte(v>>8))
}

func (b *fbFixtureBuilder) writeU32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

func (b *fbFixtureBuilder) writeU64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}

// patch rewrites the 4 byte placeholder at slot (previously written as
// zero) with the relative uoffset pointing at target.
func (b *fbFixtureBuilder) patch(slot, target uint32) {
	binary.LittleEndian.PutUint32(b.buf[slot:slot+4], target-slot)
}

var fbPlaceholder = []byte{0, 0, 0, 0}

func fbU8(v uint8) []byte { return []byte{v} }

func fbI32(v int32) []byte {
	p := make([]byte, 4)
	binary.LittleEndian.PutUint32(p, uint32(v))
	return p
}

func fbI64(v int64) []byte {
	p := make([]byte, 8)
	binary.LittleEndian.PutUint64(p, uint64(v))
	return p
}

// writeTable appends a vtable + table for the given ordered field byte
// slices (nil means the field is absent) and returns the table's absolute
// position and, for every non-nil field, its absolute byte position (so
// callers can patch indirect fields with patch once the referent exists).
func (b *fbFixtureBuilder) writeTable(fields [][]byte) (tableStart uint32, fieldPos []uint32) {
	offsets := make([]uint16, len(fields))
	cur := uint16(4)
	for i, f := range fields {
		if f == nil {
			continue
		}
		offsets[i] = cur
		cur += uint16(len(f))
	}
	vtableStart := b.pos()
	b.writeU16(uint16(4 + len(fields)*2))
	b.writeU16(cur)
	for _, o := range offsets {
		b.writeU16(o)
	}
	tableStart = b.pos()
	b.writeU32(uint32(int32(tableStart) - int32(vtableStart)))
	fieldPos = make([]uint32, len(fields))
	for i, f := range fields {
		if f == nil {
			continue
		}
		fieldPos[i] = b.pos()
		b.buf = append(b.buf, f...)
	}
	return tableStart, fieldPos
}

// writeTableVector appends a vector-of-tables length prefix plus n
// placeholder slots, returning the vector's absolute position (for the
// owning table's indirect field) and each slot's absolute position.
func (b *fbFixtureBuilder) writeTableVector(n int) (vecStart uint32, slots []uint32) {
	vecStart = b.pos()
	b.writeU32(uint32(n))
	slots = make([]uint32, n)
	for i := range slots {
		slots[i] = b.pos()
		b.writeU32(0)
	}
	return vecStart, slots
}

// writeBlockVector appends a 1 element vector of an inline Arrow "Block"
// struct (offset int64, metaDataLength int32 + 4 bytes padding, bodyLength
// int64), matching blockStructSize in arrow.go.
func (b *fbFixtureBuilder) writeBlockVector(offset int64, metaDataLength int32, bodyLength int64) uint32 {
	vecStart := b.pos()
	b.writeU32(1)
	b.writeU64(uint64(offset))
	var md [4]byte
	binary.LittleEndian.PutUint32(md[:], uint32(metaDataLength))
	b.buf = append(b.buf, md[:]...)
	b.buf = append(b.buf, 0, 0, 0, 0)
	b.writeU64(uint64(bodyLength))
	return vecStart
}

// writeBufferVector appends a vector of inline Arrow "Buffer" structs
// (offset int64, length int64): one zero-length validity buffer followed
// by one data buffer per (offset,length) pair, matching the no-nulls
// buffer layout parseArrowColumnSet expects.
func (b *fbFixtureBuilder) writeBufferVector(pairs [][2]int64) uint32 {
	vecStart := b.pos()
	b.writeU32(uint32(len(pairs) * 2))
	for _, p := range pairs {
		b.writeU64(0)
		b.writeU64(0)
		b.writeU64(uint64(p[0]))
		b.writeU64(uint64(p[1]))
	}
	return vecStart
}

// buildArrowFixture assembles a minimal, single-RecordBatch Arrow IPC File
// container for two fixed-width unsigned columns, laid out as:
// magic, encapsulated RecordBatch message, column bodies, Footer, footer
// length, trailing magic.
func buildArrowFixture(t *testing.T, col0 []uint64, col1 []uint32) []byte {
	t.Helper()
	bodySize := int64(len(col0)*8 + len(col1)*4)

	mb := &fbFixtureBuilder{}
	mb.writeU32(0) // root placeholder
	msgTableStart, msgFieldPos := mb.writeTable([][]byte{
		nil,                // version
		fbU8(3),            // header_type = RecordBatch
		fbPlaceholder,      // header
		fbI64(bodySize),    // bodyLength
		nil,                // custom_metadata
	})
	mb.patch(0, msgTableStart)

	rbTableStart, rbFieldPos := mb.writeTable([][]byte{
		fbI64(int64(len(col0))), // length (nrows)
		nil,                     // nodes
		fbPlaceholder,           // buffers
		nil,                     // compression
	})
	mb.patch(msgFieldPos[2], rbTableStart)

	buffersVecStart := mb.writeBufferVector([][2]int64{
		{0, int64(len(col0) * 8)},
		{int64(len(col0) * 8), int64(len(col1) * 4)},
	})
	mb.patch(rbFieldPos[2], buffersVecStart)

	sizePrefixValue := uint32(len(mb.buf))
	msgBytes := append([]byte(nil), mb.buf...)
	metaDataLength := int32(4 + len(msgBytes))
	for metaDataLength%8 != 0 {
		metaDataLength++
		msgBytes = append(msgBytes, 0)
	}

	var file bytes.Buffer
	file.WriteString("ARROW1\x00\x00")
	blockOffset := int64(file.Len())
	var sizePrefix [4]byte
	binary.LittleEndian.PutUint32(sizePrefix[:], sizePrefixValue)
	file.Write(sizePrefix[:])
	file.Write(msgBytes)
	for int64(file.Len())-blockOffset < int64(metaDataLength) {
		file.WriteByte(0)
	}
	bodyStart := file.Len()
	require.Equal(t, blockOffset+int64(metaDataLength), int64(bodyStart), "body must start exactly metaDataLength after the block")
	for _, v := range col0 {
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], v)
		file.Write(tmp[:])
	}
	for _, v := range col1 {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], v)
		file.Write(tmp[:])
	}

	fb := &fbFixtureBuilder{}
	fb.writeU32(0) // root placeholder
	footerTableStart, footerFieldPos := fb.writeTable([][]byte{
		nil,           // version
		fbPlaceholder, // schema
		nil,           // dictionaries
		fbPlaceholder, // recordBatches
		nil,           // custom_metadata
	})
	fb.patch(0, footerTableStart)

	schemaTableStart, schemaFieldPos := fb.writeTable([][]byte{
		nil,           // endianness
		fbPlaceholder, // fields
		nil,           // custom_metadata
		nil,           // features
	})
	fb.patch(footerFieldPos[1], schemaTableStart)

	fieldsVecStart, fieldSlots := fb.writeTableVector(2)
	fb.patch(schemaFieldPos[1], fieldsVecStart)

	field0Start, field0Pos := fb.writeTable([][]byte{
		nil, nil, fbU8(2), fbPlaceholder, nil, nil, nil,
	})
	fb.patch(fieldSlots[0], field0Start)

	field1Start, field1Pos := fb.writeTable([][]byte{
		nil, nil, fbU8(2), fbPlaceholder, nil, nil, nil,
	})
	fb.patch(fieldSlots[1], field1Start)

	int0Start, _ := fb.writeTable([][]byte{fbI32(64), nil}) // bitWidth=64 -> uint64 column
	fb.patch(field0Pos[3], int0Start)

	int1Start, _ := fb.writeTable([][]byte{fbI32(32), nil}) // bitWidth=32 -> uint32 column
	fb.patch(field1Pos[3], int1Start)

	blocksVecStart := fb.writeBlockVector(blockOffset, metaDataLength, bodySize)
	fb.patch(footerFieldPos[3], blocksVecStart)

	file.Write(fb.buf)
	var footerLen [4]byte
	binary.LittleEndian.PutUint32(footerLen[:], uint32(len(fb.buf)))
	file.Write(footerLen[:])
	file.WriteString("ARROW1\x00\x00")

	return file.Bytes()
}

// buildPrimitiveArrayStruct encodes a Feather v1 PrimitiveArray struct: type
// (int32), encoding (int32, left at PLAIN=0), offset (int64, absolute file
// position), length (int64, element count), null_count (int64, left at 0),
// total_bytes (int64).
func buildPrimitiveArrayStruct(typeCode int32, offset uint32, length, width int) []byte {
	b := make([]byte, 40)
	binary.LittleEndian.PutUint32(b[0:4], uint32(typeCode))
	binary.LittleEndian.PutUint64(b[8:16], uint64(offset))
	binary.LittleEndian.PutUint64(b[16:24], uint64(length))
	binary.LittleEndian.PutUint64(b[32:40], uint64(length*width))
	return b
}

const (
	featherTypeUint32Code = 7
	featherTypeUint64Code = 8
)

// buildFeatherFixture assembles a minimal Feather v1 container for two
// fixed-width unsigned columns: leading magic, column bodies, a CTable
// flatbuffer, metadata length, trailing magic.
func buildFeatherFixture(t *testing.T, col0 []uint64, col1 []uint32) []byte {
	t.Helper()

	var file bytes.Buffer
	file.WriteString("FEA1")
	col0Pos := uint32(file.Len())
	for _, v := range col0 {
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], v)
		file.Write(tmp[:])
	}
	col1Pos := uint32(file.Len())
	for _, v := range col1 {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], v)
		file.Write(tmp[:])
	}

	fb := &fbFixtureBuilder{}
	fb.writeU32(0) // root placeholder
	ctableStart, ctableFieldPos := fb.writeTable([][]byte{
		nil,                          // description
		fbI64(int64(len(col0))),      // num_rows
		fbPlaceholder,                // columns
		nil,                          // version
		nil,                          // metadata
	})
	fb.patch(0, ctableStart)

	colsVecStart, colSlots := fb.writeTableVector(2)
	fb.patch(ctableFieldPos[2], colsVecStart)

	prim0 := buildPrimitiveArrayStruct(featherTypeUint64Code, col0Pos, len(col0), 8)
	col0TableStart, _ := fb.writeTable([][]byte{nil, prim0, nil, nil})
	fb.patch(colSlots[0], col0TableStart)

	prim1 := buildPrimitiveArrayStruct(featherTypeUint32Code, col1Pos, len(col1), 4)
	col1TableStart, _ := fb.writeTable([][]byte{nil, prim1, nil, nil})
	fb.patch(colSlots[1], col1TableStart)

	file.Write(fb.buf)
	var metaLen [4]byte
	binary.LittleEndian.PutUint32(metaLen[:], uint32(len(fb.buf)))
	file.Write(metaLen[:])
	file.WriteString("FEA1")

	return file.Bytes()
}

func TestDetectContainerKindTable(t *testing.T) {
	raw := make([]byte, 40)
	copy(raw, "BINSRC1\x00")
	kind, err := variantkey.DetectContainerKind(raw)
	require.NoError(t, err)
	assert.Equal(t, variantkey.ContainerRaw, kind)

	arrow := append([]byte("ARROW1\x00\x00"), make([]byte, 8)...)
	kind, err = variantkey.DetectContainerKind(arrow)
	require.NoError(t, err)
	assert.Equal(t, variantkey.ContainerArrowIPC, kind)

	feather := append([]byte("FEA1"), make([]byte, 8)...)
	kind, err = variantkey.DetectContainerKind(feather)
	require.NoError(t, err)
	assert.Equal(t, variantkey.ContainerFeatherV1, kind)

	_, err = variantkey.DetectContainerKind([]byte("garbage!"))
	assert.Error(t, err)
}

func TestOpenColumnSetArrowIPC(t *testing.T) {
	col0 := []uint64{10, 20, 30}
	col1 := []uint32{100, 200, 300}
	data := buildArrowFixture(t, col0, col1)

	kind, err := variantkey.DetectContainerKind(data)
	require.NoError(t, err)
	assert.Equal(t, variantkey.ContainerArrowIPC, kind)

	cs, err := variantkey.OpenColumnSet(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(col0)), cs.NRows)
	assert.EqualValues(t, 2, cs.NCols)
	for i, v := range col0 {
		assert.Equal(t, v, cs.Uint64At(0, uint64(i)))
	}
	for i, v := range col1 {
		assert.Equal(t, v, cs.Uint32At(1, uint64(i)))
	}
}

// TestOpenColumnSetArrowIPCTruncatedReturnsError corrupts a valid Arrow IPC
// fixture by keeping only its first half, which drops the footer and the
// trailing magic, so the bytes read as the footer length are garbage.
// OpenColumnSet must return an error, not panic.
func TestOpenColumnSetArrowIPCTruncatedReturnsError(t *testing.T) {
	data := buildArrowFixture(t, []uint64{10, 20, 30}, []uint32{100, 200, 300})
	truncated := data[:len(data)/2]

	_, err := variantkey.OpenColumnSet(truncated)
	assert.Error(t, err)
}

// TestOpenColumnSetArrowIPCSignedIntRejected builds a fixture whose first
// field's Int type sets is_signed=true and asserts OpenColumnSet rejects it
// rather than treating the column as unsigned.
func TestOpenColumnSetArrowIPCSignedIntRejected(t *testing.T) {
	col0 := []uint64{10, 20, 30}
	col1 := []uint32{100, 200, 300}
	signed := buildArrowFixtureSignedCol0(t, col0, col1)

	_, err := variantkey.OpenColumnSet(signed)
	assert.Error(t, err)
}

// buildArrowFixtureSignedCol0 is buildArrowFixture with field 0's Int type
// carrying is_signed=true, to exercise arrowFieldWidth's signedness check.
func buildArrowFixtureSignedCol0(t *testing.T, col0 []uint64, col1 []uint32) []byte {
	t.Helper()
	bodySize := int64(len(col0)*8 + len(col1)*4)

	mb := &fbFixtureBuilder{}
	mb.writeU32(0)
	msgTableStart, msgFieldPos := mb.writeTable([][]byte{
		nil, fbU8(3), fbPlaceholder, fbI64(bodySize), nil,
	})
	mb.patch(0, msgTableStart)

	rbTableStart, rbFieldPos := mb.writeTable([][]byte{
		fbI64(int64(len(col0))), nil, fbPlaceholder, nil,
	})
	mb.patch(msgFieldPos[2], rbTableStart)

	buffersVecStart := mb.writeBufferVector([][2]int64{
		{0, int64(len(col0) * 8)},
		{int64(len(col0) * 8), int64(len(col1) * 4)},
	})
	mb.patch(rbFieldPos[2], buffersVecStart)

	sizePrefixValue := uint32(len(mb.buf))
	msgBytes := append([]byte(nil), mb.buf...)
	metaDataLength := int32(4 + len(msgBytes))
	for metaDataLength%8 != 0 {
		metaDataLength++
		msgBytes = append(msgBytes, 0)
	}

	var file bytes.Buffer
	file.WriteString("ARROW1\x00\x00")
	blockOffset := int64(file.Len())
	var sizePrefix [4]byte
	binary.LittleEndian.PutUint32(sizePrefix[:], sizePrefixValue)
	file.Write(sizePrefix[:])
	file.Write(msgBytes)
	for int64(file.Len())-blockOffset < int64(metaDataLength) {
		file.WriteByte(0)
	}
	for _, v := range col0 {
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], v)
		file.Write(tmp[:])
	}
	for _, v := range col1 {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], v)
		file.Write(tmp[:])
	}

	fb := &fbFixtureBuilder{}
	fb.writeU32(0)
	footerTableStart, footerFieldPos := fb.writeTable([][]byte{
		nil, fbPlaceholder, nil, fbPlaceholder, nil,
	})
	fb.patch(0, footerTableStart)

	schemaTableStart, schemaFieldPos := fb.writeTable([][]byte{
		nil, fbPlaceholder, nil, nil,
	})
	fb.patch(footerFieldPos[1], schemaTableStart)

	fieldsVecStart, fieldSlots := fb.writeTableVector(2)
	fb.patch(schemaFieldPos[1], fieldsVecStart)

	field0Start, field0Pos := fb.writeTable([][]byte{
		nil, nil, fbU8(2), fbPlaceholder, nil, nil, nil,
	})
	fb.patch(fieldSlots[0], field0Start)

	field1Start, field1Pos := fb.writeTable([][]byte{
		nil, nil, fbU8(2), fbPlaceholder, nil, nil, nil,
	})
	fb.patch(fieldSlots[1], field1Start)

	int0Start, _ := fb.writeTable([][]byte{fbI32(64), fbU8(1)}) // is_signed=true
	fb.patch(field0Pos[3], int0Start)

	int1Start, _ := fb.writeTable([][]byte{fbI32(32), nil})
	fb.patch(field1Pos[3], int1Start)

	blocksVecStart := fb.writeBlockVector(blockOffset, metaDataLength, bodySize)
	fb.patch(footerFieldPos[3], blocksVecStart)

	file.Write(fb.buf)
	var footerLen [4]byte
	binary.LittleEndian.PutUint32(footerLen[:], uint32(len(fb.buf)))
	file.Write(footerLen[:])
	file.WriteString("ARROW1\x00\x00")

	return file.Bytes()
}

func TestOpenColumnSetFeatherV1(t *testing.T) {
	col0 := []uint64{7, 8, 9}
	col1 := []uint32{70, 80, 90}
	data := buildFeatherFixture(t, col0, col1)

	kind, err := variantkey.DetectContainerKind(data)
	require.NoError(t, err)
	assert.Equal(t, variantkey.ContainerFeatherV1, kind)

	cs, err := variantkey.OpenColumnSet(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(col0)), cs.NRows)
	assert.EqualValues(t, 2, cs.NCols)
	for i, v := range col0 {
		assert.Equal(t, v, cs.Uint64At(0, uint64(i)))
	}
	for i, v := range col1 {
		assert.Equal(t, v, cs.Uint32At(1, uint64(i)))
	}
}
