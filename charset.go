package dicom

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// characterSets maps SpecificCharacterSet (0008,0005) defined terms to
// text encodings. Terms absent from the table fall back to the default
// repertoire, which for our purposes is byte-transparent UTF-8.
var characterSets = map[string]encoding.Encoding{
	"ISO_IR 100":      charmap.ISO8859_1,
	"ISO_IR 101":      charmap.ISO8859_2,
	"ISO_IR 109":      charmap.ISO8859_3,
	"ISO_IR 110":      charmap.ISO8859_4,
	"ISO_IR 126":      charmap.ISO8859_7,
	"ISO_IR 127":      charmap.ISO8859_6,
	"ISO_IR 138":      charmap.ISO8859_8,
	"ISO_IR 144":      charmap.ISO8859_5,
	"ISO_IR 148":      charmap.ISO8859_9,
	"ISO_IR 166":      charmap.Windows874,
	"ISO_IR 13":       japanese.ShiftJIS,
	"ISO_IR 192":      unicode.UTF8,
	"ISO 2022 IR 6":   unicode.UTF8,
	"ISO 2022 IR 13":  japanese.ShiftJIS,
	"ISO 2022 IR 87":  japanese.ISO2022JP,
	"ISO 2022 IR 100": charmap.ISO8859_1,
	"ISO 2022 IR 144": charmap.ISO8859_5,
	"ISO 2022 IR 149": korean.EUCKR,
	"GB18030":         simplifiedchinese.GB18030,
}

// textDecoder returns a decoder for the given SpecificCharacterSet value,
// or nil when the bytes can be used as-is.
func textDecoder(term string) *encoding.Decoder {
	enc, ok := characterSets[strings.TrimSpace(term)]
	if !ok || enc == unicode.UTF8 {
		return nil
	}
	return enc.NewDecoder()
}

// decodeText converts raw element bytes to a string using the data set's
// character repertoire. Decoding failures keep the raw bytes rather than
// dropping the value.
func decodeText(raw []byte, dec *encoding.Decoder) string {
	if dec == nil {
		return string(raw)
	}
	out, err := dec.Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
