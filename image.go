package dicom

import (
	"context"
	"os"

	"github.com/pkg/errors"
)

// Image is the metadata view over a parsed data set. Its accessors hide
// where an attribute physically lives: functional group sequences,
// modality sequences or the root data set all resolve through the same
// calls. Accessors return the zero value and false when the attribute is
// absent anywhere; absence is not an error.
type Image struct {
	DataSet *DataSet
}

// NewImage wraps a parsed data set.
func NewImage(ds *DataSet) *Image { return &Image{DataSet: ds} }

// Open parses the DICOM file at path.
func Open(path string, opts ...ParseOption) (*Image, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	ds, err := ParseBytes(buf, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return NewImage(ds), nil
}

// Identity.

func (img *Image) SOPClassUID() (string, bool)    { return img.DataSet.String(TagSOPClassUID) }
func (img *Image) SOPInstanceUID() (string, bool) { return img.DataSet.String(TagSOPInstanceUID) }
func (img *Image) StudyInstanceUID() (string, bool) {
	return img.DataSet.String(TagStudyInstanceUID)
}

// SeriesInstanceUID returns the series identifier, "unknown" for objects
// that lack one so that ungrouped instances still land in a bucket.
func (img *Image) SeriesInstanceUID() string {
	if uid, ok := img.DataSet.String(TagSeriesInstanceUID); ok && uid != "" {
		return uid
	}
	return "unknown"
}

func (img *Image) Modality() (string, bool)    { return img.DataSet.String(TagModality) }
func (img *Image) PatientName() (string, bool) { return img.DataSet.String(TagPatientName) }
func (img *Image) PatientID() (string, bool)   { return img.DataSet.String(TagPatientID) }
func (img *Image) StudyDate() (string, bool)   { return img.DataSet.String(TagStudyDate) }
func (img *Image) SeriesDescription() (string, bool) {
	return img.DataSet.String(TagSeriesDescription)
}

// InstanceNumber returns the per-frame instance number when the object
// organizes frames through the frame content sequence, the root value
// otherwise.
func (img *Image) InstanceNumber(frame int) (int, bool) {
	return img.DataSet.frameInstanceNumber(frame)
}

// Pixel format. These describe every frame of the object.

func (img *Image) Rows() (int, bool)    { return img.uint16AsInt(TagRows) }
func (img *Image) Columns() (int, bool) { return img.uint16AsInt(TagColumns) }
func (img *Image) BitsAllocated() (int, bool) {
	return img.uint16AsInt(TagBitsAllocated)
}
func (img *Image) BitsStored() (int, bool) { return img.uint16AsInt(TagBitsStored) }

// SamplesPerPixel defaults to 1 when absent, matching grayscale objects
// that omit it.
func (img *Image) SamplesPerPixel() int {
	if v, ok := img.uint16AsInt(TagSamplesPerPixel); ok {
		return v
	}
	return 1
}

// Signed reports whether stored samples are two's complement.
func (img *Image) Signed() bool {
	v, _ := img.DataSet.Uint16(TagPixelRepresentation, 0)
	return v == 1
}

func (img *Image) PhotometricInterpretation() (string, bool) {
	return img.DataSet.String(TagPhotometric)
}

// PlanarConfiguration reports the sample order of color frames; ok is
// false when the element is absent.
func (img *Image) PlanarConfiguration() (int, bool) {
	return img.uint16AsInt(TagPlanarConfiguration)
}

// FrameCount returns NumberOfFrames, 1 when absent.
func (img *Image) FrameCount() int { return img.DataSet.frameCount() }

func (img *Image) uint16AsInt(tag Tag) (int, bool) {
	v, ok := img.DataSet.Uint16(tag, 0)
	return int(v), ok
}

// Geometry.

// SliceLocation resolves (0020,1041) through the functional groups.
func (img *Image) SliceLocation(frame int) (float64, bool) {
	return img.DataSet.frameFloat(frame, 0, TagSliceLocation, 0)
}

// ImagePositionPatient resolves the frame's position vector through the
// plane position functional group.
func (img *Image) ImagePositionPatient(frame int) ([3]float64, bool) {
	loc, ok := img.DataSet.resolve(frame, TagPlanePositionSequence, TagImagePosition)
	if !ok {
		return [3]float64{}, false
	}
	var out [3]float64
	for i := range out {
		v, ok := loc.FloatString(TagImagePosition, i)
		if !ok {
			return [3]float64{}, false
		}
		out[i] = v
	}
	return out, true
}

// ImageOrientationPatient resolves the frame's row and column direction
// cosines through the plane orientation functional group.
func (img *Image) ImageOrientationPatient(frame int) ([6]float64, bool) {
	loc, ok := img.DataSet.resolve(frame, TagPlaneOrientationSeq, TagImageOrientation)
	if !ok {
		return [6]float64{}, false
	}
	var out [6]float64
	for i := range out {
		v, ok := loc.FloatString(TagImageOrientation, i)
		if !ok {
			return [6]float64{}, false
		}
		out[i] = v
	}
	return out, true
}

// PixelSpacing resolves the frame's row and column spacing through the
// pixel measures functional group.
func (img *Image) PixelSpacing(frame int) ([2]float64, bool) {
	loc, ok := img.DataSet.resolve(frame, TagPixelMeasuresSequence, TagPixelSpacing)
	if !ok {
		return [2]float64{}, false
	}
	row, ok1 := loc.FloatString(TagPixelSpacing, 0)
	col, ok2 := loc.FloatString(TagPixelSpacing, 1)
	if !ok1 || !ok2 {
		return [2]float64{}, false
	}
	return [2]float64{row, col}, true
}

func (img *Image) SliceThickness(frame int) (float64, bool) {
	return img.DataSet.frameFloat(frame, TagPixelMeasuresSequence, TagSliceThickness, 0)
}

func (img *Image) SpacingBetweenSlices() (float64, bool) {
	return img.DataSet.FloatString(TagSpacingBetweenSlices, 0)
}

// Value transforms. Root values win over functional group entries here:
// single-frame writers put them on the root, and some multi-frame
// writers duplicate them there when they rewrite the object.

func (img *Image) WindowCenter(frame int) (float64, bool) {
	return img.DataSet.frameFloatRootFirst(frame, TagFrameVOILUTSequence, TagWindowCenter, 0)
}

func (img *Image) WindowWidth(frame int) (float64, bool) {
	return img.DataSet.frameFloatRootFirst(frame, TagFrameVOILUTSequence, TagWindowWidth, 0)
}

func (img *Image) RescaleSlope(frame int) (float64, bool) {
	return img.DataSet.frameFloatRootFirst(frame, TagPixelValueTransform, TagRescaleSlope, 0)
}

func (img *Image) RescaleIntercept(frame int) (float64, bool) {
	return img.DataSet.frameFloatRootFirst(frame, TagPixelValueTransform, TagRescaleIntercept, 0)
}

// Timing and auxiliary attributes.

// FrameTime returns the nominal milliseconds per frame.
func (img *Image) FrameTime(frame int) (float64, bool) { return img.DataSet.frameTime(frame) }

// DimensionIndexValues returns the frame's dimension index vector, nil
// when the object carries none.
func (img *Image) DimensionIndexValues(frame int) []uint32 {
	return img.DataSet.frameDimensionIndexValues(frame)
}

// UltrasoundRegions returns the calibrated regions of an ultrasound
// object, nil for other modalities.
func (img *Image) UltrasoundRegions() []UltrasoundRegion {
	return img.DataSet.ultrasoundRegions()
}

// RecommendedDisplayCIELab returns the display color of a segmentation
// or presentation object as L*, a*, b*.
func (img *Image) RecommendedDisplayCIELab() ([3]float64, bool) {
	return img.DataSet.recommendedCIELab()
}

// Pixel pipeline.

// Frame locates one frame within the pixel data element without reading
// its bytes.
func (img *Image) Frame(frame int) (FrameDescriptor, error) {
	return img.DataSet.locateFrame(frame)
}

// FrameBytes returns a copy of one frame's raw bytes: native samples for
// uncompressed objects, the concatenated codestream for encapsulated
// ones.
func (img *Image) FrameBytes(frame int) ([]byte, error) {
	data, _, err := img.DataSet.frameBytes(frame)
	return data, err
}

// ExtractPixelData runs the full pipeline for one frame: locate,
// decode and normalize. The result is pixel-major and, for color
// frames, RGB.
func (img *Image) ExtractPixelData(ctx context.Context, frame int) (SampleBuffer, error) {
	data, desc, err := img.DataSet.frameBytes(frame)
	if err != nil {
		return SampleBuffer{}, err
	}

	rows, _ := img.Rows()
	cols, _ := img.Columns()
	bits, _ := img.BitsAllocated()
	info := FrameInfo{
		Rows:            rows,
		Columns:         cols,
		BitsAllocated:   bits,
		SamplesPerPixel: img.SamplesPerPixel(),
		Signed:          img.Signed(),
		BigEndian:       img.DataSet.TransferSyntaxUID == ExplicitVRBigEndianUID,
	}

	samples, err := decodeFrame(ctx, data, desc, info)
	if err != nil {
		return SampleBuffer{}, err
	}

	buf := SampleBuffer{
		Rows:            rows,
		Columns:         cols,
		SamplesPerPixel: info.SamplesPerPixel,
		Data:            samples,
	}
	buf.PhotometricInterpretation, _ = img.PhotometricInterpretation()
	buf.PlanarConfiguration, buf.HasPlanarConfiguration = img.PlanarConfiguration()

	return Normalize(buf)
}
