package dicom

import (
	"github.com/rs/zerolog/log"
)

// SampleBuffer holds one decoded frame: a flat sample slice plus the
// layout needed to interpret it. Data is one of the numeric slice types
// produced by the codecs.
type SampleBuffer struct {
	Rows, Columns   int
	SamplesPerPixel int

	// PlanarConfiguration is 0 for pixel-major (RGBRGB...) and 1 for
	// plane-major (RRR...GGG...BBB) sample order. HasPlanarConfiguration
	// is false when the object omitted element (0028,0006).
	PlanarConfiguration    int
	HasPlanarConfiguration bool

	PhotometricInterpretation string

	Data interface{}

	// Warnings collects non-fatal advisories raised while the buffer was
	// produced.
	Warnings []Warning
}

// sample constrains the element types a decoded frame can carry.
type sample interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~float32 | ~float64
}

// Normalize rewrites a frame into the canonical display layout:
// pixel-major sample order and, for color frames, the RGB color space.
// Grayscale frames and frames already in shape pass through unchanged.
// Sample values keep their type and are not clamped; windowing happens
// downstream. The input Data slice is never modified: reordering and
// color conversion write into a fresh slice, pass-through cases return
// the input slice as-is.
func Normalize(buf SampleBuffer) (SampleBuffer, error) {
	switch data := buf.Data.(type) {
	case []uint8:
		return normalizeSamples(buf, data)
	case []int8:
		return normalizeSamples(buf, data)
	case []uint16:
		return normalizeSamples(buf, data)
	case []int16:
		return normalizeSamples(buf, data)
	case []uint32:
		return normalizeSamples(buf, data)
	case []int32:
		return normalizeSamples(buf, data)
	case []float32:
		return normalizeSamples(buf, data)
	case []float64:
		return normalizeSamples(buf, data)
	default:
		return buf, &UnsupportedSampleTypeError{Data: buf.Data}
	}
}

func normalizeSamples[T sample](buf SampleBuffer, data []T) (SampleBuffer, error) {
	if buf.SamplesPerPixel <= 1 {
		return buf, nil
	}
	if buf.SamplesPerPixel != 3 {
		return buf, &UnsupportedColorSpaceError{PhotometricInterpretation: buf.PhotometricInterpretation}
	}

	planar := buf.PlanarConfiguration
	if !buf.HasPlanarConfiguration {
		// Required for color objects but missing in the wild; the
		// overwhelmingly common value is 0.
		log.Warn().Str("photometric", buf.PhotometricInterpretation).
			Msg("color frame without planar configuration, assuming interleaved")
		buf.Warnings = append(buf.Warnings, Warning{
			Stage:   "normalize",
			Message: "planar configuration missing, assuming interleaved",
		})
		planar = 0
	}

	switch buf.PhotometricInterpretation {
	case PhotometricRGB, PhotometricYBRICT, PhotometricYBRRCT, PhotometricYBRFull422:
		// Already RGB-ordered samples: YBR_ICT and YBR_RCT exist only
		// inside JPEG 2000 codestreams and decoders hand back RGB;
		// YBR_FULL_422 comes out of JPEG decoders upsampled.
		if planar == 1 {
			data = deinterleave(data, len(data)/3, 3)
		}
	case PhotometricYBRFull:
		// Stored interleaved in practice; the transform reads triplets.
		converted := make([]T, len(data))
		copy(converted, data)
		ybrToRGB(converted)
		data = converted
		buf.PhotometricInterpretation = PhotometricRGB
	default:
		return buf, &UnsupportedColorSpaceError{PhotometricInterpretation: buf.PhotometricInterpretation}
	}

	buf.Data = data
	buf.PlanarConfiguration = 0
	buf.HasPlanarConfiguration = true
	return buf, nil
}

// deinterleave reorders plane-major samples (RRR...GGG...BBB) into
// pixel-major order (RGBRGB...).
func deinterleave[T sample](data []T, pixels, planes int) []T {
	out := make([]T, len(data))
	for p := 0; p < planes; p++ {
		plane := data[p*pixels : (p+1)*pixels]
		for i, v := range plane {
			out[i*planes+p] = v
		}
	}
	return out
}

// ybrToRGB converts pixel-major YBR_FULL triplets to RGB in place, using
// the full-range matrix of PS3.3 C.7.6.3.1.2. Values keep their sample
// type and are not clamped.
func ybrToRGB[T sample](data []T) {
	for i := 0; i+2 < len(data); i += 3 {
		y := float64(data[i])
		cb := float64(data[i+1]) - 128
		cr := float64(data[i+2]) - 128
		data[i] = T(y + 1.402*cr)
		data[i+1] = T(y - 0.34414*cb - 0.71414*cr)
		data[i+2] = T(y + 1.772*cb)
	}
}
