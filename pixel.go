package dicom

import "bytes"

// FrameDescriptor locates one frame inside the pixel data element
// without copying it. Native frames are a byte window into the pixel
// data value; encapsulated frames are a window into the fragment list.
type FrameDescriptor struct {
	// ByteOffset and ByteLength bound a native frame within the pixel
	// data value field. Zero for encapsulated frames.
	ByteOffset, ByteLength int64

	// FragmentStart and FragmentCount bound an encapsulated frame within
	// the fragment list. Zero for native frames.
	FragmentStart, FragmentCount int

	// Compressed reports whether the frame needs a codec before its
	// samples can be read.
	Compressed bool

	// TransferSyntaxUID names the compression scheme of the frame.
	TransferSyntaxUID string
}

// jpegSOI and j2kSOC open every JPEG-family and JPEG 2000 codestream.
// Fragments starting with either marker begin a new frame.
var (
	jpegSOI = []byte{0xFF, 0xD8}
	j2kSOC  = []byte{0xFF, 0x4F}
)

// frameCount returns NumberOfFrames, 1 when absent.
func (ds *DataSet) frameCount() int {
	if n, ok := ds.IntString(TagNumberOfFrames, 0); ok && n > 0 {
		return n
	}
	return 1
}

// locateFrame resolves the byte or fragment extent of one frame.
func (ds *DataSet) locateFrame(frame int) (FrameDescriptor, error) {
	e, ok := ds.Elements[TagPixelData]
	if !ok {
		return FrameDescriptor{}, &UnsupportedEncodingError{Reason: "no pixel data element"}
	}
	frames := ds.frameCount()
	if frame < 0 || frame >= frames {
		return FrameDescriptor{}, &UnsupportedEncodingError{Reason: "frame index out of range"}
	}

	if !isEncapsulatedSyntax(ds.TransferSyntaxUID) {
		return ds.locateNativeFrame(e, frame)
	}
	return ds.locateEncapsulatedFrame(e, frame, frames)
}

func (ds *DataSet) locateNativeFrame(e *Element, frame int) (FrameDescriptor, error) {
	rows, _ := ds.Uint16(TagRows, 0)
	cols, _ := ds.Uint16(TagColumns, 0)
	bits, _ := ds.Uint16(TagBitsAllocated, 0)
	spp, ok := ds.Uint16(TagSamplesPerPixel, 0)
	if !ok {
		spp = 1
	}

	size := int64(rows) * int64(cols) * int64(bits) * int64(spp) / 8
	if size == 0 {
		return FrameDescriptor{}, &UnsupportedEncodingError{Reason: "zero-sized frame geometry"}
	}
	off := int64(frame) * size
	if off+size > int64(len(e.data)) {
		return FrameDescriptor{}, &UnsupportedEncodingError{Reason: "pixel data shorter than frame extent"}
	}
	return FrameDescriptor{
		ByteOffset:        off,
		ByteLength:        size,
		TransferSyntaxUID: ds.TransferSyntaxUID,
	}, nil
}

func (ds *DataSet) locateEncapsulatedFrame(e *Element, frame, frames int) (FrameDescriptor, error) {
	desc := FrameDescriptor{Compressed: true, TransferSyntaxUID: ds.TransferSyntaxUID}

	switch {
	case len(e.BasicOffsetTable) > 0:
		starts, err := fragmentsAtOffsets(e.Fragments, e.BasicOffsetTable)
		if err != nil {
			return FrameDescriptor{}, err
		}
		if frame >= len(starts) {
			return FrameDescriptor{}, &UnsupportedEncodingError{Reason: "offset table shorter than frame count"}
		}
		desc.FragmentStart = starts[frame]
		desc.FragmentCount = fragmentSpan(starts, frame, len(e.Fragments))

	case frames == len(e.Fragments):
		// One fragment per frame, the common single-frame layout too.
		desc.FragmentStart = frame
		desc.FragmentCount = 1

	default:
		starts := codestreamStarts(e.Fragments)
		if len(starts) != frames {
			return FrameDescriptor{}, &UnsupportedEncodingError{
				Reason: "cannot map fragments to frames without an offset table",
			}
		}
		desc.FragmentStart = starts[frame]
		desc.FragmentCount = fragmentSpan(starts, frame, len(e.Fragments))
	}
	return desc, nil
}

// fragmentsAtOffsets maps basic offset table entries to fragment
// indices. Table offsets count from the first fragment's item header, so
// fragment i sits at the sum of the preceding item lengths plus 8 bytes
// of item header each (PS3.5 A.4).
func fragmentsAtOffsets(fragments [][]byte, table []uint32) ([]int, error) {
	starts := make([]int, 0, len(table))
	wire := make([]int64, len(fragments))
	pos := int64(0)
	for i, f := range fragments {
		wire[i] = pos
		pos += 8 + int64(len(f))
	}
	for _, off := range table {
		idx := -1
		for i, w := range wire {
			if w == int64(off) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, &UnsupportedEncodingError{Reason: "offset table entry points between fragments"}
		}
		starts = append(starts, idx)
	}
	return starts, nil
}

// codestreamStarts lists the fragments that open a new codestream.
func codestreamStarts(fragments [][]byte) []int {
	var starts []int
	for i, f := range fragments {
		if bytes.HasPrefix(f, jpegSOI) || bytes.HasPrefix(f, j2kSOC) {
			starts = append(starts, i)
		}
	}
	return starts
}

// fragmentSpan returns how many fragments belong to the frame starting
// at starts[frame].
func fragmentSpan(starts []int, frame, total int) int {
	if frame+1 < len(starts) {
		return starts[frame+1] - starts[frame]
	}
	return total - starts[frame]
}

// frameBytes extracts one frame's bytes. The returned slice is a copy
// and safe to hold after the data set's backing buffer is released.
func (ds *DataSet) frameBytes(frame int) ([]byte, FrameDescriptor, error) {
	desc, err := ds.locateFrame(frame)
	if err != nil {
		return nil, FrameDescriptor{}, err
	}
	e := ds.Elements[TagPixelData]

	if !desc.Compressed {
		out := make([]byte, desc.ByteLength)
		copy(out, e.data[desc.ByteOffset:desc.ByteOffset+desc.ByteLength])
		return out, desc, nil
	}

	n := 0
	for _, f := range e.Fragments[desc.FragmentStart : desc.FragmentStart+desc.FragmentCount] {
		n += len(f)
	}
	out := make([]byte, 0, n)
	for _, f := range e.Fragments[desc.FragmentStart : desc.FragmentStart+desc.FragmentCount] {
		out = append(out, f...)
	}
	return out, desc, nil
}
