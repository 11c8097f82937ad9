package dicom

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"
)

// FrameInfo carries the geometry a decoder needs to turn frame bytes
// into samples.
type FrameInfo struct {
	Rows, Columns   int
	BitsAllocated   int
	SamplesPerPixel int

	// Signed reflects PixelRepresentation (0028,0103).
	Signed bool

	// BigEndian is set for objects parsed from the big endian syntax.
	BigEndian bool
}

// Decoder turns one frame's encoded bytes into a flat sample slice of
// one of the numeric element types ([]uint8, []int16, ...). Decoders for
// compressed transfer syntaxes register themselves with RegisterDecoder,
// typically from an init function behind a blank import.
type Decoder interface {
	Decode(ctx context.Context, data []byte, info FrameInfo) (interface{}, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(ctx context.Context, data []byte, info FrameInfo) (interface{}, error)

func (f DecoderFunc) Decode(ctx context.Context, data []byte, info FrameInfo) (interface{}, error) {
	return f(ctx, data, info)
}

var (
	decodersMu sync.RWMutex
	decoders   = map[string]Decoder{}
)

// RegisterDecoder installs a decoder for a transfer syntax UID,
// replacing any previous registration.
func RegisterDecoder(transferSyntaxUID string, d Decoder) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	decoders[transferSyntaxUID] = d
}

func decoderFor(transferSyntaxUID string) (Decoder, bool) {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	d, ok := decoders[transferSyntaxUID]
	return d, ok
}

// decodeFrame dispatches frame bytes to the native codec or a registered
// decoder, depending on how the frame was located.
func decodeFrame(ctx context.Context, data []byte, desc FrameDescriptor, info FrameInfo) (interface{}, error) {
	if !desc.Compressed {
		samples, err := decodeNative(data, info)
		if err != nil {
			return nil, &DecodeError{TransferSyntaxUID: desc.TransferSyntaxUID, Err: err}
		}
		return samples, nil
	}
	d, ok := decoderFor(desc.TransferSyntaxUID)
	if !ok {
		return nil, &DecodeError{TransferSyntaxUID: desc.TransferSyntaxUID}
	}
	samples, err := d.Decode(ctx, data, info)
	if err != nil {
		return nil, &DecodeError{TransferSyntaxUID: desc.TransferSyntaxUID, Err: err}
	}
	return samples, nil
}

// decodeNative unpacks uncompressed samples. The output slice is typed
// by BitsAllocated and PixelRepresentation.
func decodeNative(data []byte, info FrameInfo) (interface{}, error) {
	want := info.Rows * info.Columns * info.SamplesPerPixel
	bo := binary.ByteOrder(binary.LittleEndian)
	if info.BigEndian {
		bo = binary.BigEndian
	}

	switch info.BitsAllocated {
	case 8:
		if len(data) < want {
			return nil, errors.Errorf("frame holds %d samples, geometry wants %d", len(data), want)
		}
		if info.Signed {
			out := make([]int8, want)
			for i := range out {
				out[i] = int8(data[i])
			}
			return out, nil
		}
		out := make([]uint8, want)
		copy(out, data)
		return out, nil

	case 16:
		if len(data) < 2*want {
			return nil, errors.Errorf("frame holds %d samples, geometry wants %d", len(data)/2, want)
		}
		if info.Signed {
			out := make([]int16, want)
			for i := range out {
				out[i] = int16(bo.Uint16(data[2*i:]))
			}
			return out, nil
		}
		out := make([]uint16, want)
		for i := range out {
			out[i] = bo.Uint16(data[2*i:])
		}
		return out, nil

	case 32:
		if len(data) < 4*want {
			return nil, errors.Errorf("frame holds %d samples, geometry wants %d", len(data)/4, want)
		}
		if info.Signed {
			out := make([]int32, want)
			for i := range out {
				out[i] = int32(bo.Uint32(data[4*i:]))
			}
			return out, nil
		}
		out := make([]uint32, want)
		for i := range out {
			out[i] = bo.Uint32(data[4*i:])
		}
		return out, nil
	}
	return nil, errors.Errorf("unsupported bits allocated %d", info.BitsAllocated)
}
