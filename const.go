package dicom

// A DICOM file is a stream of data elements, each keyed by a
// (group, element) tag pair. The metadata this package reads lives
// either directly on the root data set, nested inside functional group
// sequences (multi-frame objects), or inside modality-specific
// sequences, depending on vendor and SOP class. See PS3.5 §7 for the
// element encoding and PS3.3 C.7.6.16 for functional groups.

// Tag identifies a data element. The most significant 16 bits hold the
// group number, the least significant 16 bits the element number.
type Tag uint32

// TagOf builds a Tag from a group/element pair.
func TagOf(group, element uint16) Tag {
	return Tag(uint32(group)<<16 | uint32(element))
}

// Group returns the group number component of the tag.
func (t Tag) Group() uint16 { return uint16(t >> 16) }

// Element returns the element number component of the tag.
func (t Tag) Element() uint16 { return uint16(t & 0xFFFF) }

// IsMeta reports whether the tag belongs to the file meta group (0002).
func (t Tag) IsMeta() bool { return t.Group() == 0x0002 }

// File meta group (0002).
const (
	tagFileMetaGroupLength       Tag = 0x00020000
	tagMediaStorageSOPClassUID   Tag = 0x00020002
	tagMediaStorageSOPInstance   Tag = 0x00020003
	TagTransferSyntaxUID         Tag = 0x00020010
	tagImplementationClassUID    Tag = 0x00020012
	tagImplementationVersionName Tag = 0x00020013
)

// Identity and study module tags.
const (
	TagSpecificCharacterSet Tag = 0x00080005
	TagSOPClassUID          Tag = 0x00080016
	TagSOPInstanceUID       Tag = 0x00080018
	TagStudyDate            Tag = 0x00080020
	TagSeriesDate           Tag = 0x00080021
	TagAcquisitionDate      Tag = 0x00080022
	TagStudyTime            Tag = 0x00080030
	TagSeriesTime           Tag = 0x00080031
	TagModality             Tag = 0x00080060
	TagManufacturer         Tag = 0x00080070
	TagStudyDescription     Tag = 0x00081030
	TagSeriesDescription    Tag = 0x0008103E
	TagRecommendedFrameRate Tag = 0x00082144 // RecommendedDisplayFrameRate

	TagPatientName      Tag = 0x00100010
	TagPatientID        Tag = 0x00100020
	TagPatientBirthDate Tag = 0x00100030
	TagPatientSex       Tag = 0x00100040
)

// Acquisition and geometry tags.
const (
	TagCineRate              Tag = 0x00180040
	TagSliceThickness        Tag = 0x00180050
	TagSpacingBetweenSlices  Tag = 0x00180088
	TagFrameTime             Tag = 0x00181063
	TagFrameTimeVector       Tag = 0x00181065
	TagUltrasoundRegions     Tag = 0x00186011 // SequenceOfUltrasoundRegions
	TagStudyInstanceUID      Tag = 0x0020000D
	TagSeriesInstanceUID     Tag = 0x0020000E
	TagStudyID               Tag = 0x00200010
	TagSeriesNumber          Tag = 0x00200011
	TagInstanceNumber        Tag = 0x00200013
	TagImagePosition         Tag = 0x00200032 // ImagePositionPatient
	TagImageOrientation      Tag = 0x00200037 // ImageOrientationPatient
	TagFrameOfReferenceUID   Tag = 0x00200052
	TagSliceLocation         Tag = 0x00201041
	TagFrameContentSequence  Tag = 0x00209111
	TagPlanePositionSequence Tag = 0x00209113
	TagPlaneOrientationSeq   Tag = 0x00209116
	TagDimensionIndexValues  Tag = 0x00209157
)

// Image pixel module tags.
const (
	TagSamplesPerPixel       Tag = 0x00280002
	TagPhotometric           Tag = 0x00280004 // PhotometricInterpretation
	TagPlanarConfiguration   Tag = 0x00280006
	TagNumberOfFrames        Tag = 0x00280008
	TagFrameIncrementPointer Tag = 0x00280009
	TagRows                  Tag = 0x00280010
	TagColumns               Tag = 0x00280011
	TagPixelSpacing          Tag = 0x00280030
	TagBitsAllocated         Tag = 0x00280100
	TagBitsStored            Tag = 0x00280101
	TagHighBit               Tag = 0x00280102
	TagPixelRepresentation   Tag = 0x00280103
	TagWindowCenter          Tag = 0x00281050
	TagWindowWidth           Tag = 0x00281051
	TagRescaleIntercept      Tag = 0x00281052
	TagRescaleSlope          Tag = 0x00281053
	TagPixelMeasuresSequence Tag = 0x00289110
	TagFrameVOILUTSequence   Tag = 0x00289132
	TagPixelValueTransform   Tag = 0x00289145 // PixelValueTransformationSequence
)

// Ultrasound region subfields (PS3.3 C.8.5.5).
const (
	tagRegionLocationMinX0 Tag = 0x00186018
	tagRegionLocationMinY0 Tag = 0x0018601A
	tagRegionLocationMaxX1 Tag = 0x0018601C
	tagRegionLocationMaxY1 Tag = 0x0018601E
	tagReferencePixelX0    Tag = 0x00186020
	tagReferencePixelY0    Tag = 0x00186022
	tagPhysicalUnitsX      Tag = 0x00186024
	tagPhysicalUnitsY      Tag = 0x00186026
	tagPhysicalDeltaX      Tag = 0x0018602C
	tagPhysicalDeltaY      Tag = 0x0018602E
)

// Functional group, PET and presentation tags.
const (
	TagRadiopharmaceuticalSeq Tag = 0x00540016 // RadiopharmaceuticalInformationSequence
	TagRecommendedCIELabValue Tag = 0x0062000D // RecommendedDisplayCIELabValue
	TagSharedFunctionalGroups Tag = 0x52009229
	TagPerFrameFunctional     Tag = 0x52009230
	TagPixelData              Tag = 0x7FE00010
)

// Sequence delimiters (PS3.5 §7.5).
const (
	tagItem              Tag = 0xFFFEE000
	tagItemDelimiter     Tag = 0xFFFEE00D
	tagSequenceDelimiter Tag = 0xFFFEE0DD
)

// Transfer syntax UIDs (PS3.6 chapter A).
const (
	ImplicitVRLittleEndianUID         = "1.2.840.10008.1.2"
	ExplicitVRLittleEndianUID         = "1.2.840.10008.1.2.1"
	DeflatedExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1.99"
	ExplicitVRBigEndianUID            = "1.2.840.10008.1.2.2"
	JPEGBaselineUID                   = "1.2.840.10008.1.2.4.50"
	JPEGExtendedUID                   = "1.2.840.10008.1.2.4.51"
	JPEGLosslessUID                   = "1.2.840.10008.1.2.4.70"
	JPEGLSLosslessUID                 = "1.2.840.10008.1.2.4.80"
	JPEG2000LosslessUID               = "1.2.840.10008.1.2.4.90"
	JPEG2000UID                       = "1.2.840.10008.1.2.4.91"
	RLELosslessUID                    = "1.2.840.10008.1.2.5"
)

// isEncapsulatedSyntax reports whether pixel data under the syntax is
// stored as compressed fragments rather than a native blob.
func isEncapsulatedSyntax(uid string) bool {
	switch uid {
	case ImplicitVRLittleEndianUID, ExplicitVRLittleEndianUID,
		DeflatedExplicitVRLittleEndianUID, ExplicitVRBigEndianUID, "":
		return false
	default:
		return true
	}
}

// Photometric interpretation values (PS3.3 C.7.6.3.1.2).
const (
	PhotometricMonochrome1 = "MONOCHROME1"
	PhotometricMonochrome2 = "MONOCHROME2"
	PhotometricPalette     = "PALETTE COLOR"
	PhotometricRGB         = "RGB"
	PhotometricYBRFull     = "YBR_FULL"
	PhotometricYBRFull422  = "YBR_FULL_422"
	PhotometricYBRICT      = "YBR_ICT"
	PhotometricYBRRCT      = "YBR_RCT"
)

// ultrasoundUnits maps a region physical-units code to its unit name.
// Codes outside the table decode as "none".
var ultrasoundUnits = [...]string{
	"none", "percent", "dB", "cm", "seconds", "hertz", "dB/seconds",
	"cm/sec", "cm²", "cm²/s", "cm³", "cm³/s", "degrees",
}

func ultrasoundUnitName(code int) string {
	if code < 0 || code >= len(ultrasoundUnits) {
		return "none"
	}
	return ultrasoundUnits[code]
}

// vrKind groups value representations by decoding behavior.
type vrKind int

const (
	vrText vrKind = iota // space padded strings
	vrUID                // null padded strings
	vrBinary             // fixed width binary numbers
	vrBulk               // byte blobs (OB, OW, UN...)
	vrSequence
	vrTagValue // AT
)

func kindOfVR(vr string) vrKind {
	switch vr {
	case "AE", "AS", "CS", "DA", "DS", "DT", "IS", "LO", "LT", "PN",
		"SH", "ST", "TM", "UC", "UR", "UT":
		return vrText
	case "UI":
		return vrUID
	case "SS", "US", "SL", "UL", "SV", "UV", "FL", "FD":
		return vrBinary
	case "SQ":
		return vrSequence
	case "AT":
		return vrTagValue
	default:
		return vrBulk
	}
}

// has32BitLength reports whether an explicit VR element stores its value
// length in a 32-bit field after two reserved bytes (PS3.5 §7.1.2).
func has32BitLength(vr string) bool {
	switch vr {
	case "OB", "OD", "OF", "OL", "OV", "OW", "SQ", "UC", "UN", "UR", "UT":
		return true
	default:
		return false
	}
}

// isKnownVR reports whether the two characters form a registered VR code.
// Used to sniff explicit vs implicit encoding on headerless streams.
func isKnownVR(vr string) bool {
	switch vr {
	case "AE", "AS", "AT", "CS", "DA", "DS", "DT", "FL", "FD", "IS",
		"LO", "LT", "OB", "OD", "OF", "OL", "OV", "OW", "PN", "SH",
		"SL", "SQ", "SS", "ST", "SV", "TM", "UC", "UI", "UL", "UN",
		"UR", "US", "UT", "UV":
		return true
	default:
		return false
	}
}

// dictionaryVR maps the tags this package interprets to their VR. Needed
// when parsing implicit VR streams, where the VR is not encoded; tags not
// listed parse as UN. Sequence entries matter most: they decide whether a
// defined-length value is recursed into.
var dictionaryVR = map[Tag]string{
	tagFileMetaGroupLength:       "UL",
	tagMediaStorageSOPClassUID:   "UI",
	tagMediaStorageSOPInstance:   "UI",
	TagTransferSyntaxUID:         "UI",
	tagImplementationClassUID:    "UI",
	tagImplementationVersionName: "SH",

	TagSpecificCharacterSet: "CS",
	TagSOPClassUID:          "UI",
	TagSOPInstanceUID:       "UI",
	TagStudyDate:            "DA",
	TagSeriesDate:           "DA",
	TagAcquisitionDate:      "DA",
	TagStudyTime:            "TM",
	TagSeriesTime:           "TM",
	TagModality:             "CS",
	TagManufacturer:         "LO",
	TagStudyDescription:     "LO",
	TagSeriesDescription:    "LO",
	TagRecommendedFrameRate: "IS",

	TagPatientName:      "PN",
	TagPatientID:        "LO",
	TagPatientBirthDate: "DA",
	TagPatientSex:       "CS",

	TagCineRate:             "IS",
	TagSliceThickness:       "DS",
	TagSpacingBetweenSlices: "DS",
	TagFrameTime:            "DS",
	TagFrameTimeVector:      "DS",
	TagUltrasoundRegions:    "SQ",
	tagRegionLocationMinX0:  "UL",
	tagRegionLocationMinY0:  "UL",
	tagRegionLocationMaxX1:  "UL",
	tagRegionLocationMaxY1:  "UL",
	tagReferencePixelX0:     "UL",
	tagReferencePixelY0:     "UL",
	tagPhysicalUnitsX:       "US",
	tagPhysicalUnitsY:       "US",
	tagPhysicalDeltaX:       "FD",
	tagPhysicalDeltaY:       "FD",

	TagStudyInstanceUID:      "UI",
	TagSeriesInstanceUID:     "UI",
	TagStudyID:               "SH",
	TagSeriesNumber:          "IS",
	TagInstanceNumber:        "IS",
	TagImagePosition:         "DS",
	TagImageOrientation:      "DS",
	TagFrameOfReferenceUID:   "UI",
	TagSliceLocation:         "DS",
	TagFrameContentSequence:  "SQ",
	TagPlanePositionSequence: "SQ",
	TagPlaneOrientationSeq:   "SQ",
	TagDimensionIndexValues:  "UL",

	TagSamplesPerPixel:       "US",
	TagPhotometric:           "CS",
	TagPlanarConfiguration:   "US",
	TagNumberOfFrames:        "IS",
	TagFrameIncrementPointer: "AT",
	TagRows:                  "US",
	TagColumns:               "US",
	TagPixelSpacing:          "DS",
	TagBitsAllocated:         "US",
	TagBitsStored:            "US",
	TagHighBit:               "US",
	TagPixelRepresentation:   "US",
	TagWindowCenter:          "DS",
	TagWindowWidth:           "DS",
	TagRescaleIntercept:      "DS",
	TagRescaleSlope:          "DS",
	TagPixelMeasuresSequence: "SQ",
	TagFrameVOILUTSequence:   "SQ",
	TagPixelValueTransform:   "SQ",

	TagRadiopharmaceuticalSeq: "SQ",
	TagRecommendedCIELabValue: "OW",
	TagSharedFunctionalGroups: "SQ",
	TagPerFrameFunctional:     "SQ",
	TagPixelData:              "OW",
}
