package dicom

// Attribute resolution. Multi-frame objects scatter per-frame metadata
// across the shared (5200,9229) and per-frame (5200,9230) functional
// group sequences, nested one more level inside attribute-specific
// sub-sequences; PET objects park timing attributes in the
// radiopharmaceutical information sequence; single-frame objects keep
// everything on the root. The resolver walks those locations in
// precedence order and reads from the first one that carries the tag.

// candidates lists the data sets that may hold frame attributes, most
// specific shared location first, root last. sub narrows the functional
// group items to a nested sub-sequence; zero means read the item itself.
func (ds *DataSet) candidates(frame int, sub Tag) []*DataSet {
	out := make([]*DataSet, 0, 4)
	add := func(parent *DataSet, ok bool) {
		if !ok {
			return
		}
		if sub == 0 {
			out = append(out, parent)
			return
		}
		if item, ok := parent.Item(sub, 0); ok {
			out = append(out, item)
		}
	}
	add(ds.Item(TagSharedFunctionalGroups, 0))
	add(ds.Item(TagPerFrameFunctional, frame))
	if item, ok := ds.Item(TagRadiopharmaceuticalSeq, 0); ok {
		out = append(out, item)
	}
	return append(out, ds)
}

// resolve returns the data set that holds tag for the given frame.
func (ds *DataSet) resolve(frame int, sub, tag Tag) (*DataSet, bool) {
	for _, cand := range ds.candidates(frame, sub) {
		if _, ok := cand.Elements[tag]; ok {
			return cand, true
		}
	}
	return nil, false
}

func (ds *DataSet) frameString(frame int, sub, tag Tag) (string, bool) {
	if loc, ok := ds.resolve(frame, sub, tag); ok {
		return loc.String(tag)
	}
	return "", false
}

func (ds *DataSet) frameFloat(frame int, sub, tag Tag, index int) (float64, bool) {
	if loc, ok := ds.resolve(frame, sub, tag); ok {
		return loc.FloatString(tag, index)
	}
	return 0, false
}

// frameFloatRootFirst reads a numeric attribute preferring the root over
// the functional groups. Rescale and windowing values placed directly on
// the root by single-frame writers win over stale functional group
// entries.
func (ds *DataSet) frameFloatRootFirst(frame int, sub, tag Tag, index int) (float64, bool) {
	if v, ok := ds.FloatString(tag, index); ok {
		return v, true
	}
	return ds.frameFloat(frame, sub, tag, index)
}

// frameInstanceNumber reads the per-frame instance number from the frame
// content sequence, falling back to the root InstanceNumber element.
func (ds *DataSet) frameInstanceNumber(frame int) (int, bool) {
	if per, ok := ds.Item(TagPerFrameFunctional, frame); ok {
		if content, ok := per.Item(TagFrameContentSequence, 0); ok {
			if n, ok := content.IntString(TagInstanceNumber, 0); ok {
				return n, true
			}
		}
	}
	return ds.IntString(TagInstanceNumber, 0)
}

// frameDimensionIndexValues reads the dimension index vector of one
// frame. Nil when the object carries no dimension organization.
func (ds *DataSet) frameDimensionIndexValues(frame int) []uint32 {
	per, ok := ds.Item(TagPerFrameFunctional, frame)
	if !ok {
		return nil
	}
	content, ok := per.Item(TagFrameContentSequence, 0)
	if !ok {
		return nil
	}
	e, ok := content.Element(TagDimensionIndexValues)
	if !ok || e.data == nil {
		return nil
	}
	values := make([]uint32, 0, len(e.data)/4)
	for i := 0; i+4 <= len(e.data); i += 4 {
		values = append(values, content.byteOrder().Uint32(e.data[i:]))
	}
	return values
}

// frameTime returns the nominal time per frame in milliseconds. The
// frame increment pointer (0028,0009) names the element that drives the
// cine loop; when it points at the frame time vector the per-frame entry
// is used, otherwise the scalar frame time. Objects without a usable
// pointer fall back to frame time, then to the cine and display rates.
func (ds *DataSet) frameTime(frame int) (float64, bool) {
	if ptr, ok := ds.tagValue(TagFrameIncrementPointer, 0); ok {
		switch ptr {
		case TagFrameTimeVector:
			if v, ok := ds.FloatString(TagFrameTimeVector, frame); ok {
				return v, true
			}
		case TagFrameTime:
			if v, ok := ds.FloatString(TagFrameTime, 0); ok {
				return v, true
			}
		}
	}
	if v, ok := ds.FloatString(TagFrameTime, 0); ok {
		return v, true
	}
	if rate, ok := ds.FloatString(TagCineRate, 0); ok && rate > 0 {
		return 1000 / rate, true
	}
	if rate, ok := ds.FloatString(TagRecommendedFrameRate, 0); ok && rate > 0 {
		return 1000 / rate, true
	}
	return 0, false
}

// tagValue reads the index-th value of an AT element as a Tag.
func (ds *DataSet) tagValue(tag Tag, index int) (Tag, bool) {
	raw, ok := ds.binaryValue(tag, index, 4)
	if !ok {
		return 0, false
	}
	bo := ds.byteOrder()
	return TagOf(bo.Uint16(raw), bo.Uint16(raw[2:])), true
}

// UltrasoundRegion describes one entry of the sequence of ultrasound
// regions (0018,6011): the region's pixel bounding box, its calibration
// deltas and the physical units they are expressed in. Every numeric
// subfield is independently optional; nil means the writer omitted the
// element, which is not the same as an encoded zero.
type UltrasoundRegion struct {
	// Region bounding box in pixels.
	MinX0, MinY0, MaxX1, MaxY1 *uint32

	// ReferencePixelX0/Y0 locate the physical origin within the region.
	ReferencePixelX0, ReferencePixelY0 *uint32

	// PhysicalDeltaX/Y are the physical increments per pixel. Nil when
	// the region is uncalibrated.
	PhysicalDeltaX, PhysicalDeltaY *float64

	// UnitsX/UnitsY name the units of the deltas ("cm", "seconds", ...).
	// Unknown unit codes decode as "none".
	UnitsX, UnitsY string
}

// ultrasoundRegions decodes the sequence of ultrasound regions. Nil when
// the object carries none.
func (ds *DataSet) ultrasoundRegions() []UltrasoundRegion {
	n := ds.ItemCount(TagUltrasoundRegions)
	if n == 0 {
		return nil
	}
	regions := make([]UltrasoundRegion, 0, n)
	for i := 0; i < n; i++ {
		item, _ := ds.Item(TagUltrasoundRegions, i)
		r := UltrasoundRegion{
			MinX0:            uint32At(item, tagRegionLocationMinX0),
			MinY0:            uint32At(item, tagRegionLocationMinY0),
			MaxX1:            uint32At(item, tagRegionLocationMaxX1),
			MaxY1:            uint32At(item, tagRegionLocationMaxY1),
			ReferencePixelX0: uint32At(item, tagReferencePixelX0),
			ReferencePixelY0: uint32At(item, tagReferencePixelY0),
			PhysicalDeltaX:   float64At(item, tagPhysicalDeltaX),
			PhysicalDeltaY:   float64At(item, tagPhysicalDeltaY),
		}
		ux, _ := item.Uint16(tagPhysicalUnitsX, 0)
		uy, _ := item.Uint16(tagPhysicalUnitsY, 0)
		r.UnitsX = ultrasoundUnitName(int(ux))
		r.UnitsY = ultrasoundUnitName(int(uy))
		regions = append(regions, r)
	}
	return regions
}

func uint32At(ds *DataSet, tag Tag) *uint32 {
	if v, ok := ds.Uint32(tag, 0); ok {
		return &v
	}
	return nil
}

func float64At(ds *DataSet, tag Tag) *float64 {
	if v, ok := ds.Float64(tag, 0); ok {
		return &v
	}
	return nil
}

// recommendedCIELab decodes the recommended display CIELab value
// (0062,000D) from its PCS encoding: three unsigned 16-bit components
// where 0..0xFFFF spans L* 0..100 and a*/b* -128..127 (PS3.3 C.10.7.1.1).
func (ds *DataSet) recommendedCIELab() ([3]float64, bool) {
	e, ok := ds.Elements[TagRecommendedCIELabValue]
	if !ok || len(e.data) < 6 {
		return [3]float64{}, false
	}
	bo := ds.byteOrder()
	scale := func(v uint16) float64 { return float64(v) / 0xFFFF }
	return [3]float64{
		scale(bo.Uint16(e.data)) * 100,
		scale(bo.Uint16(e.data[2:]))*255 - 128,
		scale(bo.Uint16(e.data[4:]))*255 - 128,
	}, true
}
