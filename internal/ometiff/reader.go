package ometiff

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/tiff"
)

// Suffixes lists the file name endings of OME-TIFF files.
var Suffixes = []string{".ome.tif", ".ome.tiff", ".ome.tf2", ".ome.tf8", ".ome.btf"}

// HasOMESuffix reports whether name ends with one of Suffixes.
func HasOMESuffix(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range Suffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// Reader is an opened OME-TIFF file set. It is not safe for concurrent use.
type Reader struct {
	log    *slog.Logger
	doc    *ome.Document
	files  *FileSet
	series []Series
	slots  [][]PlaneSlot
	open   map[FileID]*tiff.File
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger receiving reconciliation warnings.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reader) {
		if l != nil {
			r.log = l
		}
	}
}

// Detect reports whether path is an OME-TIFF file. Any failure means no.
func Detect(path string) bool {
	f, err := tiff.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	_, err = document(f)
	return err == nil
}

// document extracts and parses the OME-XML comment of f.
func document(f *tiff.File) (*ome.Document, error) {
	comment := f.Comment()
	if comment == "" || !strings.HasPrefix(comment, "<") || !strings.HasSuffix(comment, ">") {
		return nil, fmt.Errorf("%w: first IFD has no XML description", ErrNotOMETIFF)
	}
	doc, err := ome.Parse(comment)
	if err != nil {
		if errors.Is(err, ome.ErrNotOME) {
			return nil, fmt.Errorf("%w: %w", ErrNotOMETIFF, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrMetadataParse, err)
	}
	if !doc.HasPopulatedPixels() {
		return nil, fmt.Errorf("%w: no image with populated Pixels", ErrNotOMETIFF)
	}
	return doc, nil
}

// Open reads the OME-XML document of path and maps every plane of every
// series to a file and IFD of the set.
func Open(path string, opts ...Option) (*Reader, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fileError("open", path, err)
	}
	r := &Reader{
		log:  slog.Default(),
		open: make(map[FileID]*tiff.File),
	}
	for _, opt := range opts {
		opt(r)
	}

	f, err := tiff.Open(abs)
	if err != nil {
		if errors.Is(err, tiff.ErrNotTIFF) {
			err = fmt.Errorf("%w: %w", ErrNotOMETIFF, err)
		}
		return nil, fileError("open", abs, err)
	}
	r.open[0] = f

	if err := r.init(abs, f); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) init(path string, f *tiff.File) error {
	doc, err := document(f)
	if err != nil {
		return fileError("open", path, err)
	}
	r.doc = doc

	decls, err := declarations(doc)
	if err != nil {
		return err
	}
	files, refFiles, err := resolveFileSet(path, doc.DocumentUUID(), decls)
	if err != nil {
		return err
	}
	r.files = files
	r.log.Debug("resolved file set", "path", path, "files", files.Len(), "series", len(decls))

	r.series = make([]Series, len(decls))
	r.slots = make([][]PlaneSlot, len(decls))
	for i, d := range decls {
		s := newSeries(d)
		first := r.firstHeader(d, refFiles[i])

		reconcileSamples(r.log, i, &s, d, first)
		slots, missing := locate(r.log, i, &s, d, refFiles[i])
		if missing >= 0 {
			r.log.Warn("missing plane, using IFD enumeration of the opened file",
				"series", i, "image", s.ImageID, "plane", missing)
			slots = enumerate(0, f.HeaderCount())
			if len(slots) == 0 {
				return seriesError("locate planes", i, fmt.Errorf("%w: %s has no IFDs", ErrMissingPlaneData, path))
			}
			s.PlaneCount = len(slots)
			files.series[i] = []FileID{0}
		}
		finalize(r.log, i, &s, first)

		r.series[i] = s
		r.slots[i] = slots
	}
	return nil
}

// firstHeader returns the header that physical checks compare against: the
// one named by the series' first reference when it can be read, else the
// first IFD of the opened file.
func (r *Reader) firstHeader(d declaration, files []FileID) tiff.Header {
	if len(d.Refs) > 0 {
		if f, err := r.file(files[0]); err == nil {
			if h, err := f.Header(d.Refs[0].IFD); err == nil {
				return h
			}
		}
	}
	h, _ := r.open[0].Header(0)
	return h
}

// file returns the open handle of id, opening it on first use.
func (r *Reader) file(id FileID) (*tiff.File, error) {
	if f, ok := r.open[id]; ok {
		return f, nil
	}
	name := r.files.Name(id)
	if name == "" {
		return nil, fmt.Errorf("%w: unknown file %d", ErrMissingPlaneData, id)
	}
	f, err := tiff.Open(name)
	if err != nil {
		return nil, err
	}
	r.open[id] = f
	return f, nil
}

// SeriesCount returns the number of series.
func (r *Reader) SeriesCount() int { return len(r.series) }

// Series returns the reconciled geometry of series i.
func (r *Reader) Series(i int) (Series, error) {
	if i < 0 || i >= len(r.series) {
		return Series{}, fmt.Errorf("series %d out of range [0,%d)", i, len(r.series))
	}
	return r.series[i], nil
}

// Plane returns the location of plane no of a series and its filename.
func (r *Reader) Plane(series, no int) (PlaneSlot, string, error) {
	if _, err := r.Series(series); err != nil {
		return PlaneSlot{}, "", err
	}
	slots := r.slots[series]
	if no < 0 || no >= len(slots) {
		return PlaneSlot{}, "", seriesError("plane", series, fmt.Errorf("plane %d out of range [0,%d)", no, len(slots)))
	}
	slot := slots[no]
	return slot, r.files.Name(slot.File), nil
}

// ReadPlane returns a whole plane as interleaved little-endian samples.
func (r *Reader) ReadPlane(series, no int) ([]byte, error) {
	s, err := r.Series(series)
	if err != nil {
		return nil, err
	}
	return r.ReadRegion(series, no, 0, 0, s.PhysicalSizeX, s.PhysicalSizeY)
}

// ReadRegion returns a rectangle of a plane as interleaved little-endian samples.
func (r *Reader) ReadRegion(series, no, x, y, w, h int) ([]byte, error) {
	slot, name, err := r.Plane(series, no)
	if err != nil {
		return nil, err
	}
	f, err := r.file(slot.File)
	if err != nil {
		return nil, &Error{Op: "read plane", Series: series, File: name, Err: err}
	}
	buf, err := f.ReadRegion(slot.IFD, x, y, w, h)
	if err != nil {
		return nil, &Error{Op: "read plane", Series: series, File: name, Err: fmt.Errorf("plane %d: %w", no, err)}
	}
	return buf, nil
}

// UsedFiles returns every file of the set, the opened one first.
func (r *Reader) UsedFiles() []string { return r.files.Files() }

// SeriesUsedFiles returns the files holding planes of one series.
func (r *Reader) SeriesUsedFiles(series int) []string { return r.files.SeriesFiles(series) }

// FileEntries returns the UUID to filename table.
func (r *Reader) FileEntries() []FileEntry { return r.files.Entries() }

// IsHCS reports whether the document describes a plate.
func (r *Reader) IsHCS() bool { return r.doc.PlateCount() > 0 }

// Metadata returns the document with reconciled sizes and dimension orders
// written back. It is shared with the Reader.
func (r *Reader) Metadata() *ome.Document {
	writeBack(r.doc, r.series)
	return r.doc
}

// Close closes every file the Reader opened.
func (r *Reader) Close() error {
	var result *multierror.Error
	for id, f := range r.open {
		if err := f.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %s: %w", f.Path(), err))
		}
		delete(r.open, id)
	}
	return result.ErrorOrNil()
}
