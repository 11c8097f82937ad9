package dicom

import "fmt"

// ParseError reports a malformed DICOM stream. It is fatal for the file
// it occurred in; batch operations catch it per file and continue.
type ParseError struct {
	Offset int64
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dicom: parse error at offset %d: %s", e.Offset, e.Reason)
}

func parseErrorf(offset int64, format string, a ...interface{}) *ParseError {
	return &ParseError{Offset: offset, Reason: fmt.Sprintf(format, a...)}
}

// Warning is a non-fatal advisory recorded while processing a frame,
// typically about a required element the writer omitted.
type Warning struct {
	Stage   string
	Message string
}

// UnsupportedEncodingError reports that the pixel data element is absent
// or its fragmentation shape is not recognized. Fatal for the frame.
type UnsupportedEncodingError struct {
	Reason string
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("dicom: unsupported pixel encoding: %s", e.Reason)
}

// DecodeError reports that the codec rejected the frame. It carries the
// transfer syntax so callers can tell a missing codec from corrupt data.
type DecodeError struct {
	TransferSyntaxUID string
	Err               error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("dicom: no decoder for transfer syntax %s", e.TransferSyntaxUID)
	}
	return fmt.Sprintf("dicom: decoding transfer syntax %s: %v", e.TransferSyntaxUID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnsupportedColorSpaceError reports a photometric interpretation the
// normalizer does not handle.
type UnsupportedColorSpaceError struct {
	PhotometricInterpretation string
}

func (e *UnsupportedColorSpaceError) Error() string {
	return fmt.Sprintf("dicom: unsupported photometric interpretation %q", e.PhotometricInterpretation)
}

// UnsupportedSampleTypeError reports a sample buffer whose element type is
// not one of the recognized numeric kinds.
type UnsupportedSampleTypeError struct {
	Data interface{}
}

func (e *UnsupportedSampleTypeError) Error() string {
	return fmt.Sprintf("dicom: unsupported sample type %T", e.Data)
}
