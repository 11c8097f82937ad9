package dicom

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataSetString(t *testing.T) {
	ds := NewDataSet(
		NewStringElement(TagPatientName, "PN", "Doe^John "),
		NewStringElement(TagSOPInstanceUID, "UI", "1.2.3\x00"),
	)

	name, ok := ds.String(TagPatientName)
	require.True(t, ok)
	assert.Equal(t, "Doe^John", name, "trailing padding is stripped")

	uid, ok := ds.String(TagSOPInstanceUID)
	require.True(t, ok)
	assert.Equal(t, "1.2.3", uid)

	_, ok = ds.String(TagModality)
	assert.False(t, ok)
}

func TestDataSetStrings(t *testing.T) {
	ds := NewDataSet(NewStringElement(TagImagePosition, "DS", "1.0", "2.0", "3.0"))

	assert.Equal(t, []string{"1.0", "2.0", "3.0"}, ds.Strings(TagImagePosition))
	assert.Nil(t, ds.Strings(TagImageOrientation))
}

func TestDataSetBinaryValues(t *testing.T) {
	ds := NewDataSet(
		NewUint16Element(TagRows, 512, 256),
		NewUint32Element(TagDimensionIndexValues, 7),
	)

	v, ok := ds.Uint16(TagRows, 0)
	require.True(t, ok)
	assert.Equal(t, uint16(512), v)

	v, ok = ds.Uint16(TagRows, 1)
	require.True(t, ok)
	assert.Equal(t, uint16(256), v)

	_, ok = ds.Uint16(TagRows, 2)
	assert.False(t, ok, "index past the value multiplicity")

	u, ok := ds.Uint32(TagDimensionIndexValues, 0)
	require.True(t, ok)
	assert.Equal(t, uint32(7), u)
}

func TestDataSetFloat64(t *testing.T) {
	fl := make([]byte, 4)
	binary.LittleEndian.PutUint32(fl, math.Float32bits(1.5))

	ds := NewDataSet(
		NewBytesElement(tagPhysicalDeltaX, "FL", fl),
		NewFloat64Element(tagPhysicalDeltaY, 0.25),
	)

	v, ok := ds.Float64(tagPhysicalDeltaX, 0)
	require.True(t, ok)
	assert.Equal(t, 1.5, v)

	v, ok = ds.Float64(tagPhysicalDeltaY, 0)
	require.True(t, ok)
	assert.Equal(t, 0.25, v)
}

func TestDataSetFloatString(t *testing.T) {
	ds := NewDataSet(
		NewStringElement(TagWindowCenter, "DS", " 40.5", "80"),
		NewFloat64Element(TagRescaleSlope, 2),
	)

	v, ok := ds.FloatString(TagWindowCenter, 0)
	require.True(t, ok)
	assert.Equal(t, 40.5, v)

	v, ok = ds.FloatString(TagWindowCenter, 1)
	require.True(t, ok)
	assert.Equal(t, 80.0, v)

	// A vendor that wrote the value as binary FD instead of DS.
	v, ok = ds.FloatString(TagRescaleSlope, 0)
	require.True(t, ok)
	assert.Equal(t, 2.0, v)

	_, ok = ds.FloatString(TagWindowWidth, 0)
	assert.False(t, ok)
}

func TestDataSetIntString(t *testing.T) {
	ds := NewDataSet(NewStringElement(TagInstanceNumber, "IS", " 12"))

	n, ok := ds.IntString(TagInstanceNumber, 0)
	require.True(t, ok)
	assert.Equal(t, 12, n)
}

func TestDataSetItems(t *testing.T) {
	inner := NewDataSet(NewStringElement(TagPatientID, "LO", "p1"))
	ds := NewDataSet(NewSequenceElement(TagUltrasoundRegions, inner, NewDataSet()))

	assert.Equal(t, 2, ds.ItemCount(TagUltrasoundRegions))
	assert.Equal(t, 0, ds.ItemCount(TagFrameContentSequence))

	item, ok := ds.Item(TagUltrasoundRegions, 0)
	require.True(t, ok)
	id, ok := item.String(TagPatientID)
	require.True(t, ok)
	assert.Equal(t, "p1", id)

	_, ok = ds.Item(TagUltrasoundRegions, 2)
	assert.False(t, ok)
}
