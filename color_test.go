package dicom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeGrayscalePassthrough(t *testing.T) {
	data := []uint16{0, 100, 4095, 2048}
	buf := SampleBuffer{
		Rows: 2, Columns: 2, SamplesPerPixel: 1,
		PhotometricInterpretation: PhotometricMonochrome2,
		Data:                      data,
	}

	out, err := Normalize(buf)
	require.NoError(t, err)
	assert.Equal(t, buf, out)
}

func TestNormalizeInterleavedRGBPassthrough(t *testing.T) {
	data := []uint8{255, 0, 0, 0, 255, 0}
	buf := SampleBuffer{
		Rows: 1, Columns: 2, SamplesPerPixel: 3,
		PlanarConfiguration: 0, HasPlanarConfiguration: true,
		PhotometricInterpretation: PhotometricRGB,
		Data:                      data,
	}

	out, err := Normalize(buf)
	require.NoError(t, err)
	assert.Equal(t, data, out.Data)
	assert.Equal(t, PhotometricRGB, out.PhotometricInterpretation)
}

func TestNormalizePlanarRGB(t *testing.T) {
	// Two pixels stored plane-major: RR GG BB.
	data := []uint8{1, 2, 3, 4, 5, 6}
	buf := SampleBuffer{
		Rows: 1, Columns: 2, SamplesPerPixel: 3,
		PlanarConfiguration: 1, HasPlanarConfiguration: true,
		PhotometricInterpretation: PhotometricRGB,
		Data:                      data,
	}

	out, err := Normalize(buf)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 3, 5, 2, 4, 6}, out.Data)
	assert.Equal(t, 0, out.PlanarConfiguration)
}

func TestNormalizeYBRNeutralGray(t *testing.T) {
	buf := SampleBuffer{
		Rows: 1, Columns: 1, SamplesPerPixel: 3,
		PlanarConfiguration: 0, HasPlanarConfiguration: true,
		PhotometricInterpretation: PhotometricYBRFull,
		Data:                      []uint8{128, 128, 128},
	}

	out, err := Normalize(buf)
	require.NoError(t, err)
	assert.Equal(t, []uint8{128, 128, 128}, out.Data, "neutral chroma maps to equal RGB")
	assert.Equal(t, PhotometricRGB, out.PhotometricInterpretation)
}

func TestNormalizeYBRToRGB(t *testing.T) {
	buf := SampleBuffer{
		Rows: 1, Columns: 1, SamplesPerPixel: 3,
		PlanarConfiguration: 0, HasPlanarConfiguration: true,
		PhotometricInterpretation: PhotometricYBRFull,
		Data:                      []uint8{100, 128, 228},
	}

	out, err := Normalize(buf)
	require.NoError(t, err)
	rgb := out.Data.([]uint8)
	assert.Equal(t, uint8(240), rgb[0]) // 100 + 1.402*100
	assert.Equal(t, uint8(28), rgb[1])  // 100 - 0.71414*100
	assert.Equal(t, uint8(100), rgb[2]) // Cb neutral
}

func TestNormalizeMissingPlanarConfiguration(t *testing.T) {
	buf := SampleBuffer{
		Rows: 1, Columns: 2, SamplesPerPixel: 3,
		PhotometricInterpretation: PhotometricRGB,
		Data:                      []uint8{1, 2, 3, 4, 5, 6},
	}

	out, err := Normalize(buf)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 2, 3, 4, 5, 6}, out.Data, "interleaved order assumed")
	assert.True(t, out.HasPlanarConfiguration)
	assert.Equal(t, 0, out.PlanarConfiguration)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, "normalize", out.Warnings[0].Stage)
}

func TestNormalizeIdempotent(t *testing.T) {
	buf := SampleBuffer{
		Rows: 1, Columns: 2, SamplesPerPixel: 3,
		PlanarConfiguration: 0, HasPlanarConfiguration: true,
		PhotometricInterpretation: PhotometricYBRFull,
		Data:                      []uint8{100, 128, 128, 110, 128, 128},
	}

	once, err := Normalize(buf)
	require.NoError(t, err)
	twice, err := Normalize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalizeSixteenBitColor(t *testing.T) {
	buf := SampleBuffer{
		Rows: 1, Columns: 1, SamplesPerPixel: 3,
		PlanarConfiguration: 0, HasPlanarConfiguration: true,
		PhotometricInterpretation: PhotometricRGB,
		Data:                      []uint16{1000, 2000, 3000},
	}

	out, err := Normalize(buf)
	require.NoError(t, err)
	assert.Equal(t, []uint16{1000, 2000, 3000}, out.Data, "sample type is preserved")
}

func TestNormalizeUnsupportedColorSpace(t *testing.T) {
	buf := SampleBuffer{
		Rows: 1, Columns: 1, SamplesPerPixel: 3,
		PlanarConfiguration: 0, HasPlanarConfiguration: true,
		PhotometricInterpretation: PhotometricPalette,
		Data:                      []uint8{0, 0, 0},
	}

	var ce *UnsupportedColorSpaceError
	_, err := Normalize(buf)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, PhotometricPalette, ce.PhotometricInterpretation)
}

func TestNormalizeUnsupportedSampleType(t *testing.T) {
	buf := SampleBuffer{Rows: 1, Columns: 1, SamplesPerPixel: 1, Data: "not samples"}

	var se *UnsupportedSampleTypeError
	_, err := Normalize(buf)
	require.True(t, errors.As(err, &se))
}

func TestNormalizeYBR422Passthrough(t *testing.T) {
	data := []uint8{100, 128, 128, 110, 128, 128}
	buf := SampleBuffer{
		Rows: 1, Columns: 2, SamplesPerPixel: 3,
		PlanarConfiguration: 0, HasPlanarConfiguration: true,
		PhotometricInterpretation: PhotometricYBRFull422,
		Data:                      data,
	}

	// Decoders upsample and color-convert 422 themselves; the samples
	// pass through untouched.
	out, err := Normalize(buf)
	require.NoError(t, err)
	assert.Equal(t, data, out.Data)
	assert.Equal(t, PhotometricYBRFull422, out.PhotometricInterpretation)
}

func TestNormalizeLeavesInputIntact(t *testing.T) {
	in := []uint8{100, 128, 228}
	buf := SampleBuffer{
		Rows: 1, Columns: 1, SamplesPerPixel: 3,
		PlanarConfiguration: 0, HasPlanarConfiguration: true,
		PhotometricInterpretation: PhotometricYBRFull,
		Data:                      in,
	}

	out, err := Normalize(buf)
	require.NoError(t, err)
	assert.Equal(t, []uint8{100, 128, 228}, in, "caller's samples are untouched")
	assert.NotEqual(t, in, out.Data)
}

func TestDeinterleaveRoundTrip(t *testing.T) {
	planar := []uint16{1, 2, 3, 4, 5, 6, 7, 8, 9}
	interleaved := deinterleave(planar, 3, 3)
	assert.Equal(t, []uint16{1, 4, 7, 2, 5, 8, 3, 6, 9}, interleaved)

	// De-interleaving with swapped dimensions restores plane order.
	assert.Equal(t, planar, deinterleave(interleaved, 3, 3))
}
