package dicom

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
)

// Element is one data element of a data set: a tag, a value
// representation and the raw value bytes, plus parsed sequence items or
// pixel-data fragments where the VR calls for them. The raw bytes alias
// the backing buffer of the file they were parsed from; an Element must
// not outlive that buffer.
type Element struct {
	Tag Tag
	VR  string

	// DataOffset is the absolute offset of the value field within the
	// backing buffer, 0 for elements built in memory.
	DataOffset int64

	// Items holds the nested data sets of a sequence (SQ) element.
	Items []*DataSet

	// Fragments holds the compressed fragments of encapsulated pixel
	// data, excluding the basic offset table item.
	Fragments [][]byte

	// BasicOffsetTable holds the byte offsets read from the first item
	// of encapsulated pixel data. Empty when the table was not sent.
	BasicOffsetTable []uint32

	data []byte
}

// Length returns the value length in bytes. Sequences and encapsulated
// elements report the summed length of their content.
func (e *Element) Length() int {
	if e.data != nil {
		return len(e.data)
	}
	n := 0
	for _, f := range e.Fragments {
		n += len(f)
	}
	return n
}

// Data returns the raw value bytes. Nil for sequences and encapsulated
// pixel data.
func (e *Element) Data() []byte { return e.data }

// DataSet is a parsed DICOM object: a tag-keyed collection of elements.
// It is read-only after construction and shares one backing buffer with
// all of its nested items.
type DataSet struct {
	// TransferSyntaxUID names the encoding the object was parsed from.
	// Empty for data sets assembled in memory.
	TransferSyntaxUID string

	Elements map[Tag]*Element

	bo      binary.ByteOrder
	textDec *encoding.Decoder
}

// NewDataSet returns an empty little-endian data set. Intended for
// assembling objects in memory; parsed files come from Parse.
func NewDataSet(elements ...*Element) *DataSet {
	ds := &DataSet{Elements: map[Tag]*Element{}, bo: binary.LittleEndian}
	for _, e := range elements {
		ds.Elements[e.Tag] = e
	}
	return ds
}

// Add inserts or replaces an element.
func (ds *DataSet) Add(e *Element) { ds.Elements[e.Tag] = e }

func (ds *DataSet) byteOrder() binary.ByteOrder {
	if ds.bo == nil {
		return binary.LittleEndian
	}
	return ds.bo
}

// Element returns the element stored under tag.
func (ds *DataSet) Element(tag Tag) (*Element, bool) {
	e, ok := ds.Elements[tag]
	return e, ok
}

// Bytes returns the raw value bytes of the element stored under tag.
func (ds *DataSet) Bytes(tag Tag) ([]byte, bool) {
	e, ok := ds.Elements[tag]
	if !ok || e.data == nil {
		return nil, false
	}
	return e.data, true
}

// String returns the element value as a trimmed string. Text VRs are
// decoded through the data set's character repertoire; trailing space
// and null padding is removed per PS3.5 §6.2.
func (ds *DataSet) String(tag Tag) (string, bool) {
	e, ok := ds.Elements[tag]
	if !ok || e.data == nil {
		return "", false
	}
	var s string
	switch e.VR {
	case "SH", "LO", "ST", "PN", "LT", "UT", "UC":
		s = decodeText(e.data, ds.textDec)
	default:
		s = string(e.data)
	}
	return strings.TrimRight(s, " \x00"), true
}

// Strings splits a multi-valued string element on the backslash
// delimiter. Returns nil when the element is absent.
func (ds *DataSet) Strings(tag Tag) []string {
	s, ok := ds.String(tag)
	if !ok {
		return nil
	}
	return strings.Split(s, `\`)
}

// Uint16 returns the index-th 16-bit unsigned value of the element.
func (ds *DataSet) Uint16(tag Tag, index int) (uint16, bool) {
	raw, ok := ds.binaryValue(tag, index, 2)
	if !ok {
		return 0, false
	}
	return ds.byteOrder().Uint16(raw), true
}

// Int16 returns the index-th 16-bit signed value of the element.
func (ds *DataSet) Int16(tag Tag, index int) (int16, bool) {
	v, ok := ds.Uint16(tag, index)
	return int16(v), ok
}

// Uint32 returns the index-th 32-bit unsigned value of the element.
func (ds *DataSet) Uint32(tag Tag, index int) (uint32, bool) {
	raw, ok := ds.binaryValue(tag, index, 4)
	if !ok {
		return 0, false
	}
	return ds.byteOrder().Uint32(raw), true
}

// Int32 returns the index-th 32-bit signed value of the element.
func (ds *DataSet) Int32(tag Tag, index int) (int32, bool) {
	v, ok := ds.Uint32(tag, index)
	return int32(v), ok
}

// Float64 returns the index-th floating point value of a FL or FD
// element.
func (ds *DataSet) Float64(tag Tag, index int) (float64, bool) {
	e, ok := ds.Elements[tag]
	if !ok || e.data == nil {
		return 0, false
	}
	width := 8
	if e.VR == "FL" || (e.VR != "FD" && len(e.data)%8 != 0) {
		width = 4
	}
	raw, ok := ds.binaryValue(tag, index, width)
	if !ok {
		return 0, false
	}
	if width == 4 {
		return float64(math.Float32frombits(ds.byteOrder().Uint32(raw))), true
	}
	return math.Float64frombits(ds.byteOrder().Uint64(raw)), true
}

// FloatString parses the index-th value of a decimal string (DS)
// element. Binary float elements are accepted too, so callers need not
// care which form a vendor chose.
func (ds *DataSet) FloatString(tag Tag, index int) (float64, bool) {
	e, ok := ds.Elements[tag]
	if !ok {
		return 0, false
	}
	if kindOfVR(e.VR) == vrBinary {
		return ds.Float64(tag, index)
	}
	vals := ds.Strings(tag)
	if index < 0 || index >= len(vals) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(vals[index]), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// IntString parses the index-th value of an integer string (IS) element.
func (ds *DataSet) IntString(tag Tag, index int) (int, bool) {
	e, ok := ds.Elements[tag]
	if !ok {
		return 0, false
	}
	if kindOfVR(e.VR) == vrBinary {
		f, ok := ds.Float64(tag, index)
		return int(f), ok
	}
	vals := ds.Strings(tag)
	if index < 0 || index >= len(vals) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(vals[index]))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Item returns the index-th nested data set of a sequence element.
func (ds *DataSet) Item(tag Tag, index int) (*DataSet, bool) {
	e, ok := ds.Elements[tag]
	if !ok || index < 0 || index >= len(e.Items) {
		return nil, false
	}
	return e.Items[index], true
}

// ItemCount returns the number of items of a sequence element, 0 when
// the element is absent.
func (ds *DataSet) ItemCount(tag Tag) int {
	e, ok := ds.Elements[tag]
	if !ok {
		return 0
	}
	return len(e.Items)
}

func (ds *DataSet) binaryValue(tag Tag, index, width int) ([]byte, bool) {
	e, ok := ds.Elements[tag]
	if !ok || e.data == nil {
		return nil, false
	}
	off := index * width
	if index < 0 || off+width > len(e.data) {
		return nil, false
	}
	return e.data[off : off+width], true
}

// Element constructors for assembling data sets in memory. Values are
// encoded little-endian, matching NewDataSet.

// NewStringElement builds a text element; multiple values are joined
// with the backslash delimiter.
func NewStringElement(tag Tag, vr string, values ...string) *Element {
	return &Element{Tag: tag, VR: vr, data: []byte(strings.Join(values, `\`))}
}

// NewUint16Element builds a US element.
func NewUint16Element(tag Tag, values ...uint16) *Element {
	data := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(data[2*i:], v)
	}
	return &Element{Tag: tag, VR: "US", data: data}
}

// NewUint32Element builds a UL element.
func NewUint32Element(tag Tag, values ...uint32) *Element {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], v)
	}
	return &Element{Tag: tag, VR: "UL", data: data}
}

// NewFloat64Element builds an FD element.
func NewFloat64Element(tag Tag, values ...float64) *Element {
	data := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(data[8*i:], math.Float64bits(v))
	}
	return &Element{Tag: tag, VR: "FD", data: data}
}

// NewBytesElement builds a raw binary element.
func NewBytesElement(tag Tag, vr string, data []byte) *Element {
	return &Element{Tag: tag, VR: vr, data: data}
}

// NewSequenceElement builds an SQ element from item data sets.
func NewSequenceElement(tag Tag, items ...*DataSet) *Element {
	return &Element{Tag: tag, VR: "SQ", Items: items}
}

// NewNativePixelData builds an uncompressed pixel data element.
func NewNativePixelData(data []byte) *Element {
	return &Element{Tag: TagPixelData, VR: "OW", data: data}
}

// NewEncapsulatedPixelData builds a fragmented pixel data element. A nil
// or empty offset table models objects whose basic offset table item was
// sent empty.
func NewEncapsulatedPixelData(offsetTable []uint32, fragments ...[]byte) *Element {
	return &Element{Tag: TagPixelData, VR: "OB", Fragments: fragments, BasicOffsetTable: offsetTable}
}
