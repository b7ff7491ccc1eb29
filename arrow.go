// VariantKey
//
// arrow.go
//
// @license MIT

package variantkey

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	arrowMagic   = []byte("ARROW1\x00\x00")
	featherMagic = []byte("FEA1")
)

// ContainerKind identifies the physical layout a binary-search file was
// detected as.
type ContainerKind int

const (
	ContainerRaw ContainerKind = iota
	ContainerArrowIPC
	ContainerFeatherV1
)

// DetectContainerKind inspects the leading bytes of a memory-mapped file and
// reports which of the three recognized container shapes it is.
func DetectContainerKind(data []byte) (ContainerKind, error) {
	switch {
	case len(data) >= 8 && bytes.Equal(data[0:8], rawMagic[:]):
		return ContainerRaw, nil
	case len(data) >= len(arrowMagic) && bytes.Equal(data[0:len(arrowMagic)], arrowMagic):
		return ContainerArrowIPC, nil
	case len(data) >= len(featherMagic) && bytes.Equal(data[0:len(featherMagic)], featherMagic):
		return ContainerFeatherV1, nil
	default:
		return 0, errors.New("variantkey: unrecognized binary-search container")
	}
}

// arrowFooterLen reads the int32 footer length stored in the last 4 bytes
// before the trailing magic of an Arrow IPC File container.
func arrowFooterLen(data []byte) (int, error) {
	tail := len(data) - len(arrowMagic)
	if tail < 4 {
		return 0, errors.New("variantkey: arrow file truncated")
	}
	n := int(binary.LittleEndian.Uint32(data[tail-4 : tail]))
	if n <= 0 || n > tail-4 {
		return 0, errors.New("variantkey: arrow footer length out of range")
	}
	return n, nil
}

// Arrow IPC flatbuffers field indices (org.apache.arrow.flatbuf), in the
// order declared by the Arrow format schema (format/File.fbs,
// format/Schema.fbs, format/Message.fbs): a field's vtable index is its
// declaration order, not its name, so these constants mirror that order.
const (
	arrowFooterFieldSchema        = 1
	arrowFooterFieldRecordBatches = 3

	arrowSchemaFieldFields = 1

	arrowFieldFieldTypeType = 2
	arrowFieldFieldType     = 3

	arrowTypeTypeInt = 2 // Type union discriminant for the Int type

	arrowIntFieldBitWidth = 0
	arrowIntFieldIsSigned = 1

	arrowMessageFieldHeaderType = 1
	arrowMessageFieldHeader     = 2

	arrowMessageHeaderRecordBatch = 3

	arrowRecordBatchFieldLength  = 0
	arrowRecordBatchFieldBuffers = 2

	blockStructSize  = 24 // offset(8) + metaDataLength(4) + pad(4) + bodyLength(8)
	bufferStructSize = 16 // offset(8) + length(8)
)

// arrowFieldWidth reads a Schema.fields[i] Field table and returns its
// element byte width if it is a fixed-width, unsigned Int type, or 0
// otherwise (e.g. FloatingPoint, Utf8, nested types, or a signed Int —
// none of which this columnar engine supports: ColumnSet's accessors and
// binsearch.go's comparisons all treat column bytes as unsigned).
func arrowFieldWidth(field fbTable) int {
	if field.u8(arrowFieldFieldTypeType, 0) != arrowTypeTypeInt {
		return 0
	}
	intType, ok := field.table(arrowFieldFieldType)
	if !ok {
		return 0
	}
	if intType.u8(arrowIntFieldIsSigned, 0) != 0 {
		return 0
	}
	bitWidth := intType.i32(arrowIntFieldBitWidth, 0)
	return int(bitWidth) / 8
}

// arrowBlockAt reads the i-th Block struct (offset, metaDataLength,
// bodyLength) from a vector of inline structs starting at elemsStart.
func arrowBlockAt(buf []byte, elemsStart uint32, i uint32) (offset int64, metaDataLength int32) {
	p := elemsStart + i*blockStructSize
	offset = int64(binary.LittleEndian.Uint64(fbSlice(buf, p, 8)))
	metaDataLength = int32(binary.LittleEndian.Uint32(fbSlice(buf, p+8, 4)))
	return offset, metaDataLength
}

// arrowBufferAt reads the i-th Buffer struct (offset, length) from a vector
// of inline structs starting at elemsStart.
func arrowBufferAt(buf []byte, elemsStart uint32, i uint32) (offset, length int64) {
	p := elemsStart + i*bufferStructSize
	offset = int64(binary.LittleEndian.Uint64(fbSlice(buf, p, 8)))
	length = int64(binary.LittleEndian.Uint64(fbSlice(buf, p+8, 8)))
	return offset, length
}

// parseArrowColumnSet parses an Arrow IPC File container holding a single
// RecordBatch of fixed-width primitive columns (no nulls, no dictionary,
// no nested types — the shape spec §4.5/§6 requires). The footer gives the
// schema's field widths and the byte range of that one RecordBatch's
// encapsulated message; the message's own flatbuffer gives each field's
// data buffer as an offset relative to the message body, which starts
// right after the message's metadata prefix.
func parseArrowColumnSet(data []byte) (cs *ColumnSet, err error) {
	defer recoverFBOutOfRange(&err)
	return parseArrowColumnSetUnchecked(data)
}

func parseArrowColumnSetUnchecked(data []byte) (*ColumnSet, error) {
	footerLen, err := arrowFooterLen(data)
	if err != nil {
		return nil, err
	}
	footerEnd := len(data) - len(arrowMagic) - 4
	footerStart := footerEnd - footerLen
	if footerStart < 0 {
		return nil, errors.New("variantkey: arrow footer out of range")
	}
	footer := fbRootAt(data, uint32(footerStart))

	schema, ok := footer.table(arrowFooterFieldSchema)
	if !ok {
		return nil, errors.New("variantkey: arrow footer missing schema")
	}
	fieldsStart, nFields := schema.vector(arrowSchemaFieldFields)
	if nFields == 0 {
		return nil, errors.New("variantkey: arrow schema has no fields")
	}
	if nFields > MaxColumns {
		return nil, fmt.Errorf("variantkey: arrow schema has %d fields, exceeds supported maximum %d", nFields, MaxColumns)
	}
	widths := make([]int, nFields)
	for i := uint32(0); i < nFields; i++ {
		field := schema.vectorTableAt(fieldsStart, i)
		w := arrowFieldWidth(field)
		if w != 1 && w != 2 && w != 4 && w != 8 {
			return nil, fmt.Errorf("variantkey: arrow field %d is not a supported fixed-width unsigned column", i)
		}
		widths[i] = w
	}

	batchesStart, nBatches := footer.vector(arrowFooterFieldRecordBatches)
	if nBatches == 0 {
		return nil, errors.New("variantkey: arrow file has no record batches")
	}
	blockOffset, metaDataLength := arrowBlockAt(data, batchesStart, 0)
	if blockOffset < 0 || metaDataLength <= 0 {
		return nil, errors.New("variantkey: arrow record batch block out of range")
	}
	bodyStart := uint64(blockOffset) + uint64(metaDataLength)

	// The message's own flatbuffer root starts right at the block offset
	// (after an optional 4 byte 0xFFFFFFFF continuation marker and the 4
	// byte metadata-size prefix that the Block's metaDataLength already
	// accounts for).
	msgBase := uint32(blockOffset)
	if binary.LittleEndian.Uint32(fbSlice(data, msgBase, 4)) == 0xFFFFFFFF {
		msgBase += 8
	} else {
		msgBase += 4
	}
	message := fbRootAt(data, msgBase)
	if message.u8(arrowMessageFieldHeaderType, 0) != arrowMessageHeaderRecordBatch {
		return nil, errors.New("variantkey: arrow record batch message has unexpected header type")
	}
	recordBatch, ok := message.table(arrowMessageFieldHeader)
	if !ok {
		return nil, errors.New("variantkey: arrow message missing record batch header")
	}
	nrows := recordBatch.i64(arrowRecordBatchFieldLength, 0)
	if nrows < 0 {
		return nil, errors.New("variantkey: arrow record batch has negative length")
	}
	buffersStart, nBuffers := recordBatch.vector(arrowRecordBatchFieldBuffers)
	if nBuffers != 2*nFields {
		return nil, fmt.Errorf("variantkey: arrow record batch has %d buffers, expected %d for %d fields with no nested types", nBuffers, 2*nFields, nFields)
	}

	cs := &ColumnSet{Data: data, NRows: uint64(nrows), NCols: uint8(nFields)}
	for i := uint32(0); i < nFields; i++ {
		// buffers are laid out [validity0, data0, validity1, data1, ...];
		// spec §4.5/§6 requires no-null columns so only the data buffer
		// (the odd-indexed one of each pair) is used.
		off, _ := arrowBufferAt(data, buffersStart, 2*i+1)
		if off < 0 {
			return nil, fmt.Errorf("variantkey: arrow field %d has a negative buffer offset", i)
		}
		cs.CTBytes[i] = uint8(widths[i])
		cs.Index[i] = bodyStart + uint64(off)
	}
	return cs, nil
}

// Feather v1 flatbuffers field indices (feather.fbs), in schema
// declaration order.
const (
	featherCTableFieldNumRows = 1
	featherCTableFieldColumns = 2

	featherColumnFieldValues = 1

	primitiveArrayStructSize = 40 // type(4)+encoding(4)+offset(8)+length(8)+null_count(8)+total_bytes(8)

	featherTypeBool   = 0
	featherTypeInt8   = 1
	featherTypeInt16  = 2
	featherTypeInt32  = 3
	featherTypeInt64  = 4
	featherTypeUint8  = 5
	featherTypeUint16 = 6
	featherTypeUint32 = 7
	featherTypeUint64 = 8
)

// featherTypeWidth maps a Feather v1 PrimitiveArray.type code to its
// element byte width, or 0 for types this columnar engine does not support
// (bit-packed bools, signed integers, floats, variable-length
// strings/binary).
func featherTypeWidth(t int32) int {
	switch t {
	case featherTypeUint8:
		return 1
	case featherTypeUint16:
		return 2
	case featherTypeUint32:
		return 4
	case featherTypeUint64:
		return 8
	default:
		return 0
	}
}

// parseFeatherColumnSet parses a Feather v1 container: leading "FEA1"
// magic, a CTable flatbuffer metadata block, and a trailing
// [metadata length: int32][magic "FEA1"] footer. Each column's
// PrimitiveArray struct carries an absolute file offset directly, unlike
// Arrow IPC's body-relative buffers.
func parseFeatherColumnSet(data []byte) (cs *ColumnSet, err error) {
	defer recoverFBOutOfRange(&err)
	return parseFeatherColumnSetUnchecked(data)
}

func parseFeatherColumnSetUnchecked(data []byte) (*ColumnSet, error) {
	if len(data) < 8 || !bytes.Equal(data[len(data)-len(featherMagic):], featherMagic) {
		return nil, errors.New("variantkey: feather file missing trailing magic")
	}
	lenFieldEnd := len(data) - len(featherMagic)
	metaLen := int(binary.LittleEndian.Uint32(data[lenFieldEnd-4 : lenFieldEnd]))
	metaStart := lenFieldEnd - 4 - metaLen
	if metaLen <= 0 || metaStart < 0 {
		return nil, errors.New("variantkey: feather metadata length out of range")
	}

	root := fbRootAt(data, uint32(metaStart))
	nrows := root.i64(featherCTableFieldNumRows, 0)
	if nrows < 0 {
		return nil, errors.New("variantkey: feather table has negative row count")
	}
	colsStart, nCols := root.vector(featherCTableFieldColumns)
	if nCols == 0 {
		return nil, errors.New("variantkey: feather table has no columns")
	}
	if nCols > MaxColumns {
		return nil, fmt.Errorf("variantkey: feather table has %d columns, exceeds supported maximum %d", nCols, MaxColumns)
	}

	cs := &ColumnSet{Data: data, NRows: uint64(nrows), NCols: uint8(nCols)}
	for i := uint32(0); i < nCols; i++ {
		col := root.vectorTableAt(colsStart, i)
		paPos, ok := col.structPos(featherColumnFieldValues)
		if !ok {
			return nil, fmt.Errorf("variantkey: feather column %d missing values", i)
		}
		typeCode := int32(binary.LittleEndian.Uint32(fbSlice(data, paPos, 4)))
		width := featherTypeWidth(typeCode)
		if width == 0 {
			return nil, fmt.Errorf("variantkey: feather column %d is not a supported fixed-width unsigned type", i)
		}
		offset := int64(binary.LittleEndian.Uint64(fbSlice(data, paPos+8, 8)))
		if offset < 0 {
			return nil, fmt.Errorf("variantkey: feather column %d has a negative offset", i)
		}
		cs.CTBytes[i] = uint8(width)
		cs.Index[i] = uint64(offset)
	}
	return cs, nil
}

// recoverFBOutOfRange recovers an errFBOutOfRange panic raised by fbSlice
// while walking a footer/vtable (a truncated file, a corrupted vtable size,
// or a tampered offset all surface this way) and reports it through *err
// like any other validation failure in parseArrowColumnSet/
// parseFeatherColumnSet, instead of crashing the caller. Any other panic
// value is re-raised: this boundary exists for untrusted container bytes,
// not to paper over a real bug elsewhere in the parser.
func recoverFBOutOfRange(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if r == errFBOutOfRange {
		*err = errFBOutOfRange
		return
	}
	panic(r)
}

// OpenColumnSet opens a memory-mapped binary-search file of any of the
// three recognized shapes and returns the resulting ColumnSet.
func OpenColumnSet(data []byte) (*ColumnSet, error) {
	kind, err := DetectContainerKind(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case ContainerRaw:
		return OpenRawColumnSet(data)
	case ContainerArrowIPC:
		return parseArrowColumnSet(data)
	case ContainerFeatherV1:
		return parseFeatherColumnSet(data)
	default:
		return nil, errors.New("variantkey: unrecognized binary-search container")
	}
}

// NewColumnSetFromColumns builds a ColumnSet directly from already-resolved
// column offsets and widths, for callers that parsed an Arrow IPC or
// Feather v1 footer through some other means (e.g. a full schema-evolution-
// aware reader like apache/arrow-go) and just need the resulting byte
// ranges plugged into the same binary-search primitives used for the raw
// container.
func NewColumnSetFromColumns(data []byte, nrows uint64, index []uint64, ctbytes []uint8) (*ColumnSet, error) {
	if len(index) != len(ctbytes) || len(index) > MaxColumns {
		return nil, errors.New("variantkey: invalid column description")
	}
	cs := &ColumnSet{Data: data, NRows: nrows, NCols: uint8(len(index))}
	copy(cs.Index[:], index)
	copy(cs.CTBytes[:], ctbytes)
	return cs, nil
}
