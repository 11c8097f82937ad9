package dicom

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// magicOffset is where the "DICM" magic sits, after the 128-byte
// preamble (PS3.10 §7.1).
const magicOffset = 128

// ParseOption adjusts parsing behavior.
type ParseOption func(*parser)

// SkipPixelData drops the pixel data element while parsing. Metadata-only
// consumers (series grouping) avoid holding frame bytes this way.
func SkipPixelData() ParseOption {
	return func(p *parser) { p.skipPixel = true }
}

// StrictMode rejects streams without the preamble and DICM magic instead
// of sniffing their encoding.
func StrictMode() ParseOption {
	return func(p *parser) { p.strict = true }
}

// WithLogger routes parse advisories to the given logger instead of the
// package-global one.
func WithLogger(logger zerolog.Logger) ParseOption {
	return func(p *parser) { p.log = logger }
}

// Parse reads a complete DICOM stream and returns its data set. Streams
// with and without the 128-byte preamble and meta header are accepted.
func Parse(r io.Reader, opts ...ParseOption) (*DataSet, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading stream")
	}
	return ParseBytes(buf, opts...)
}

// ParseBytes parses an in-memory DICOM stream. The returned DataSet and
// everything derived from it alias buf; buf must stay untouched for
// their lifetime.
func ParseBytes(buf []byte, opts ...ParseOption) (*DataSet, error) {
	p := &parser{buf: buf, bo: binary.LittleEndian, log: log.Logger}
	for _, opt := range opts {
		opt(p)
	}

	ds := NewDataSet()
	syntax := ExplicitVRLittleEndianUID

	if hasMagic(buf) {
		p.pos = magicOffset + 4
		if err := p.parseMetaGroup(ds); err != nil {
			return nil, err
		}
		uid, ok := ds.String(TagTransferSyntaxUID)
		if !ok {
			p.log.Warn().Msg("meta header without transfer syntax, assuming explicit VR little endian")
		} else {
			syntax = uid
		}
	} else {
		if p.strict {
			return nil, parseErrorf(0, "missing DICM magic")
		}
		if p.remaining() >= 8 && binary.LittleEndian.Uint16(buf) == 0x0002 {
			// Some exporters strip the preamble but keep the meta group;
			// its declared transfer syntax still governs the body.
			if err := p.parseMetaGroup(ds); err != nil {
				return nil, err
			}
			uid, ok := ds.String(TagTransferSyntaxUID)
			if !ok {
				p.log.Warn().Msg("meta group without transfer syntax, assuming explicit VR little endian")
			} else {
				syntax = uid
			}
		} else {
			syntax = p.sniffSyntax()
		}
	}

	switch syntax {
	case ImplicitVRLittleEndianUID:
		p.implicit = true
	case ExplicitVRBigEndianUID:
		p.bo = binary.BigEndian
	case DeflatedExplicitVRLittleEndianUID:
		inflated, err := io.ReadAll(flate.NewReader(bytes.NewReader(buf[p.pos:])))
		if err != nil {
			return nil, parseErrorf(p.pos, "inflating deflated stream: %v", err)
		}
		p.buf = inflated
		p.pos = 0
	}

	if err := p.parseInto(ds, int64(len(p.buf))); err != nil {
		return nil, err
	}

	ds.TransferSyntaxUID = syntax
	ds.bo = p.bo
	if terms := ds.Strings(TagSpecificCharacterSet); len(terms) > 0 {
		term := terms[0]
		if term == "" && len(terms) > 1 {
			term = terms[1]
		}
		ds.textDec = textDecoder(term)
	}
	return ds, nil
}

func hasMagic(buf []byte) bool {
	return len(buf) >= magicOffset+4 && string(buf[magicOffset:magicOffset+4]) == "DICM"
}

type parser struct {
	buf       []byte
	pos       int64
	bo        binary.ByteOrder
	implicit  bool
	skipPixel bool
	strict    bool
	log       zerolog.Logger
}

// sniffSyntax guesses the encoding of a headerless stream by checking
// whether bytes 4..6 of the first element form a registered VR code.
func (p *parser) sniffSyntax() string {
	if len(p.buf) >= 6 && isKnownVR(string(p.buf[4:6])) {
		return ExplicitVRLittleEndianUID
	}
	return ImplicitVRLittleEndianUID
}

// parseMetaGroup reads the group 0002 elements, which are always encoded
// explicit VR little endian regardless of the main transfer syntax.
func (p *parser) parseMetaGroup(ds *DataSet) error {
	for p.remaining() >= 8 {
		if binary.LittleEndian.Uint16(p.buf[p.pos:]) != 0x0002 {
			return nil
		}
		elem, err := p.readElement(binary.LittleEndian, false)
		if err != nil {
			return err
		}
		ds.Add(elem)
	}
	return nil
}

// parseInto reads elements until limit and adds them to ds.
func (p *parser) parseInto(ds *DataSet, limit int64) error {
	for p.pos+8 <= limit {
		elem, err := p.readElement(p.bo, p.implicit)
		if err != nil {
			return err
		}
		if elem == nil {
			continue
		}
		ds.Add(elem)
	}
	return nil
}

func (p *parser) readElement(bo binary.ByteOrder, implicit bool) (*Element, error) {
	start := p.pos
	tag := p.readTag(bo)

	var vr string
	var length uint32
	if implicit {
		vr = dictionaryVR[tag]
		if vr == "" {
			vr = "UN"
		}
		length = bo.Uint32(p.buf[p.pos:])
		p.pos += 4
	} else {
		if p.remaining() < 4 {
			return nil, parseErrorf(start, "truncated element header")
		}
		vr = string(p.buf[p.pos : p.pos+2])
		p.pos += 2
		if !isKnownVR(vr) {
			return nil, parseErrorf(start, "unknown VR %q", vr)
		}
		if has32BitLength(vr) {
			p.pos += 2 // reserved
			if p.remaining() < 4 {
				return nil, parseErrorf(start, "truncated element header")
			}
			length = bo.Uint32(p.buf[p.pos:])
			p.pos += 4
		} else {
			length = uint32(bo.Uint16(p.buf[p.pos:]))
			p.pos += 2
		}
	}

	elem := &Element{Tag: tag, VR: vr, DataOffset: p.pos}

	switch {
	case length == undefinedLength && tag == TagPixelData:
		if err := p.readEncapsulated(elem); err != nil {
			return nil, err
		}
	case length == undefinedLength && (vr == "SQ" || implicit):
		// Implicit VR objects can carry private sequences we have no
		// dictionary entry for; undefined length implies a sequence.
		if err := p.readItems(elem, -1); err != nil {
			return nil, err
		}
	case length == undefinedLength:
		return nil, parseErrorf(start, "undefined length on non-sequence element %08X", uint32(tag))
	case vr == "SQ":
		if err := p.readItems(elem, int64(length)); err != nil {
			return nil, err
		}
	default:
		if int64(length) > p.remaining() {
			return nil, parseErrorf(start, "value length %d exceeds remaining %d bytes", length, p.remaining())
		}
		if tag == TagPixelData && p.skipPixel {
			p.pos += int64(length)
			return nil, nil
		}
		elem.data = p.buf[p.pos : p.pos+int64(length)]
		p.pos += int64(length)
	}
	return elem, nil
}

// readItems parses sequence items into elem. A negative limit means the
// sequence has undefined length and runs until its delimiter.
func (p *parser) readItems(elem *Element, limit int64) error {
	end := int64(len(p.buf))
	if limit >= 0 {
		end = p.pos + limit
		if end > int64(len(p.buf)) {
			return parseErrorf(p.pos, "sequence length exceeds stream")
		}
	}

	for p.pos+8 <= end {
		start := p.pos
		tag := p.readTag(p.bo)
		length := p.bo.Uint32(p.buf[p.pos:])
		p.pos += 4

		switch tag {
		case tagSequenceDelimiter:
			return nil
		case tagItem:
		default:
			return parseErrorf(start, "expected item tag, found %08X", uint32(tag))
		}

		item := &DataSet{Elements: map[Tag]*Element{}, bo: p.bo}
		itemEnd := p.pos + int64(length)
		if length == undefinedLength {
			itemEnd = end
		} else if itemEnd > end {
			return parseErrorf(start, "item length exceeds sequence")
		}

		for p.pos+8 <= itemEnd {
			if Tag(uint32(p.bo.Uint16(p.buf[p.pos:]))<<16|uint32(p.bo.Uint16(p.buf[p.pos+2:]))) == tagItemDelimiter {
				p.pos += 8
				break
			}
			child, err := p.readElement(p.bo, p.implicit)
			if err != nil {
				return err
			}
			if child != nil {
				item.Elements[child.Tag] = child
			}
		}
		elem.Items = append(elem.Items, item)
	}

	if limit < 0 {
		return parseErrorf(p.pos, "unterminated sequence")
	}
	return nil
}

// readEncapsulated parses the item stream of encapsulated pixel data:
// the basic offset table item first, then one item per fragment, closed
// by a sequence delimiter (PS3.5 A.4).
func (p *parser) readEncapsulated(elem *Element) error {
	first := true
	for p.pos+8 <= int64(len(p.buf)) {
		start := p.pos
		tag := p.readTag(binary.LittleEndian)
		length := binary.LittleEndian.Uint32(p.buf[p.pos:])
		p.pos += 4

		if tag == tagSequenceDelimiter {
			return nil
		}
		if tag != tagItem {
			return parseErrorf(start, "expected fragment item tag, found %08X", uint32(tag))
		}
		if length == undefinedLength || int64(length) > p.remaining() {
			return parseErrorf(start, "bad fragment length %d", length)
		}

		data := p.buf[p.pos : p.pos+int64(length)]
		p.pos += int64(length)

		if first {
			first = false
			for off := 0; off+4 <= len(data); off += 4 {
				elem.BasicOffsetTable = append(elem.BasicOffsetTable, binary.LittleEndian.Uint32(data[off:]))
			}
			continue
		}
		if !p.skipPixel {
			elem.Fragments = append(elem.Fragments, data)
		}
	}
	return parseErrorf(p.pos, "unterminated encapsulated pixel data")
}

func (p *parser) readTag(bo binary.ByteOrder) Tag {
	group := bo.Uint16(p.buf[p.pos:])
	element := bo.Uint16(p.buf[p.pos+2:])
	p.pos += 4
	return TagOf(group, element)
}

func (p *parser) remaining() int64 { return int64(len(p.buf)) - p.pos }

const undefinedLength = 0xFFFFFFFF
