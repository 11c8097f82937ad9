package dicom

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

func TestGroupSeriesBuckets(t *testing.T) {
	records := []FileRecord{
		{Path: "a1", SeriesInstanceUID: "A"},
		{Path: "a2", SeriesInstanceUID: "A"},
		{Path: "b1", SeriesInstanceUID: "B"},
	}

	series := GroupSeries(records)
	require.Len(t, series, 2)
	assert.Equal(t, "A", series[0].SeriesInstanceUID, "groups keep first-appearance order")
	assert.Len(t, series[0].Files, 2)
	assert.Equal(t, "B", series[1].SeriesInstanceUID)
	assert.Len(t, series[1].Files, 1)
}

func TestGroupSeriesSortsBySliceLocation(t *testing.T) {
	records := []FileRecord{
		{Path: "c", SeriesInstanceUID: "A", SliceLocation: fp(3)},
		{Path: "a", SeriesInstanceUID: "A", SliceLocation: fp(1)},
		{Path: "b", SeriesInstanceUID: "A", SliceLocation: fp(2)},
	}

	series := GroupSeries(records)
	require.Len(t, series, 1)
	assert.Equal(t, "a", series[0].Files[0].Path)
	assert.Equal(t, "b", series[0].Files[1].Path)
	assert.Equal(t, "c", series[0].Files[2].Path)
}

func TestGroupSeriesPositionFallback(t *testing.T) {
	records := []FileRecord{
		{Path: "far", SeriesInstanceUID: "A", ImagePositionZ: fp(50)},
		{Path: "near", SeriesInstanceUID: "A", ImagePositionZ: fp(-10)},
	}

	series := GroupSeries(records)
	assert.Equal(t, "near", series[0].Files[0].Path)
}

func TestGroupSeriesInstanceNumberFallback(t *testing.T) {
	records := []FileRecord{
		{Path: "second", SeriesInstanceUID: "A", InstanceNumber: ip(2)},
		{Path: "first", SeriesInstanceUID: "A", InstanceNumber: ip(1)},
	}

	series := GroupSeries(records)
	assert.Equal(t, "first", series[0].Files[0].Path)
}

func TestGroupSeriesSliceLocationBeatsInstanceNumber(t *testing.T) {
	records := []FileRecord{
		{Path: "x", SeriesInstanceUID: "A", SliceLocation: fp(2), InstanceNumber: ip(1)},
		{Path: "y", SeriesInstanceUID: "A", SliceLocation: fp(1), InstanceNumber: ip(2)},
	}

	series := GroupSeries(records)
	assert.Equal(t, "y", series[0].Files[0].Path)
}

func TestGroupSeriesStableWithoutSharedKeys(t *testing.T) {
	// One record keyed by slice location, the other only by instance
	// number: no shared key, so input order is kept.
	records := []FileRecord{
		{Path: "first", SeriesInstanceUID: "A", SliceLocation: fp(9)},
		{Path: "second", SeriesInstanceUID: "A", InstanceNumber: ip(1)},
	}

	series := GroupSeries(records)
	assert.Equal(t, "first", series[0].Files[0].Path)
	assert.Equal(t, "second", series[0].Files[1].Path)
}

func TestGroupSeriesStableOnEqualKeys(t *testing.T) {
	records := []FileRecord{
		{Path: "first", SeriesInstanceUID: "A", SliceLocation: fp(5), InstanceNumber: ip(2)},
		{Path: "second", SeriesInstanceUID: "A", SliceLocation: fp(5), InstanceNumber: ip(1)},
	}

	// Equal slice locations do not fall through to the next key.
	series := GroupSeries(records)
	assert.Equal(t, "first", series[0].Files[0].Path)
}

func TestRecordOf(t *testing.T) {
	ds := NewDataSet(
		NewStringElement(TagSOPInstanceUID, "UI", "1.2.3"),
		NewStringElement(TagSeriesInstanceUID, "UI", "9.8.7"),
		NewStringElement(TagSliceLocation, "DS", "-4.5"),
		NewStringElement(TagImagePosition, "DS", "0", "0", "12.25"),
		NewStringElement(TagInstanceNumber, "IS", "3"),
	)

	rec := RecordOf("/data/f1.dcm", NewImage(ds))
	assert.Equal(t, "/data/f1.dcm", rec.Path)
	assert.Equal(t, "1.2.3", rec.SOPInstanceUID)
	assert.Equal(t, "9.8.7", rec.SeriesInstanceUID)
	require.NotNil(t, rec.SliceLocation)
	assert.Equal(t, -4.5, *rec.SliceLocation)
	require.NotNil(t, rec.ImagePositionZ)
	assert.Equal(t, 12.25, *rec.ImagePositionZ)
	require.NotNil(t, rec.InstanceNumber)
	assert.Equal(t, 3, *rec.InstanceNumber)
}

func TestLoadSeries(t *testing.T) {
	dir := t.TempDir()
	write := func(name, seriesUID, sliceLocation string) string {
		var body bytes.Buffer
		body.Write(explicitElem(binary.LittleEndian, TagSeriesInstanceUID, "UI", []byte(seriesUID)))
		body.Write(explicitElem(binary.LittleEndian, TagSliceLocation, "DS", []byte(sliceLocation)))
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, fileStream(ExplicitVRLittleEndianUID, body.Bytes()), 0o644))
		return path
	}
	p1 := write("1.dcm", "1.2.A", "2.0")
	p2 := write("2.dcm", "1.2.A", "1.0")
	p3 := write("3.dcm", "1.2.B", "5.0")
	bad := filepath.Join(dir, "bad.dcm")
	require.NoError(t, os.WriteFile(bad, []byte("not a dicom stream"), 0o644))

	series, err := LoadSeries(context.Background(), p1, p2, bad, p3)
	require.NoError(t, err)

	require.Len(t, series, 2, "the unparsable file is dropped")
	assert.Equal(t, "1.2.A", series[0].SeriesInstanceUID)
	require.Len(t, series[0].Files, 2)
	assert.Equal(t, p2, series[0].Files[0].Path, "ordered by slice location")
	assert.Equal(t, p1, series[0].Files[1].Path)
	assert.Equal(t, "1.2.B", series[1].SeriesInstanceUID)
}

func TestRecordOfMissingKeys(t *testing.T) {
	rec := RecordOf("f", NewImage(NewDataSet()))
	assert.Equal(t, "unknown", rec.SeriesInstanceUID)
	assert.Nil(t, rec.SliceLocation)
	assert.Nil(t, rec.ImagePositionZ)
	assert.Nil(t, rec.InstanceNumber)
}
