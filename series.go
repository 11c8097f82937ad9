package dicom

import (
	"context"
	"os"
	"runtime"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// FileRecord is the slim per-file summary used for grouping and
// ordering: identity plus whichever ordering keys the file carries.
// Optional keys are pointers so that absence survives into the
// comparator instead of collapsing to zero.
type FileRecord struct {
	Path              string
	SOPInstanceUID    string
	SeriesInstanceUID string

	SliceLocation  *float64
	ImagePositionZ *float64
	InstanceNumber *int
}

// RecordOf summarizes a parsed image for grouping.
func RecordOf(path string, img *Image) FileRecord {
	rec := FileRecord{
		Path:              path,
		SeriesInstanceUID: img.SeriesInstanceUID(),
	}
	rec.SOPInstanceUID, _ = img.SOPInstanceUID()
	if v, ok := img.SliceLocation(0); ok {
		rec.SliceLocation = &v
	}
	if pos, ok := img.ImagePositionPatient(0); ok {
		z := pos[2]
		rec.ImagePositionZ = &z
	}
	if n, ok := img.InstanceNumber(0); ok {
		rec.InstanceNumber = &n
	}
	return rec
}

// Series is one group of files sharing a series instance UID, in
// anatomical order.
type Series struct {
	SeriesInstanceUID string
	Files             []FileRecord
}

// GroupSeries buckets records by series instance UID and orders each
// bucket. Groups come out in first-appearance order; files without a
// series UID land together under "unknown".
func GroupSeries(records []FileRecord) []Series {
	var out []Series
	index := map[string]int{}
	for _, rec := range records {
		i, ok := index[rec.SeriesInstanceUID]
		if !ok {
			i = len(out)
			index[rec.SeriesInstanceUID] = i
			out = append(out, Series{SeriesInstanceUID: rec.SeriesInstanceUID})
		}
		out[i].Files = append(out[i].Files, rec)
	}
	for i := range out {
		sortFiles(out[i].Files)
	}
	return out
}

// sortFiles orders records by slice location, then by the z component of
// the image position, then by instance number. Each pair is compared on
// the first key both records carry; pairs with no shared key keep their
// input order. The sort is stable, so partially keyed sets degrade
// gracefully instead of shuffling.
func sortFiles(files []FileRecord) {
	sort.SliceStable(files, func(i, j int) bool {
		return lessFile(files[i], files[j])
	})
}

func lessFile(a, b FileRecord) bool {
	if a.SliceLocation != nil && b.SliceLocation != nil {
		if *a.SliceLocation != *b.SliceLocation {
			return *a.SliceLocation < *b.SliceLocation
		}
		return false
	}
	if a.ImagePositionZ != nil && b.ImagePositionZ != nil {
		if *a.ImagePositionZ != *b.ImagePositionZ {
			return *a.ImagePositionZ < *b.ImagePositionZ
		}
		return false
	}
	if a.InstanceNumber != nil && b.InstanceNumber != nil {
		return *a.InstanceNumber < *b.InstanceNumber
	}
	return false
}

// LoadSeries parses the given files concurrently, skipping pixel data,
// and returns them grouped and ordered. Files that fail to parse are
// logged and dropped; a directory of mixed exports should not fail
// wholesale because one file is truncated.
func LoadSeries(ctx context.Context, paths ...string) ([]Series, error) {
	records := make([]*FileRecord, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			buf, err := os.ReadFile(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("skipping unreadable file")
				return nil
			}
			ds, err := ParseBytes(buf, SkipPixelData())
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("skipping unparsable file")
				return nil
			}
			rec := RecordOf(path, NewImage(ds))
			records[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	flat := make([]FileRecord, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			flat = append(flat, *rec)
		}
	}
	return GroupSeries(flat), nil
}
