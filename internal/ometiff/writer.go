package ometiff

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/tiff"
)

// Writer writes the planes of a document into one or more OME-TIFF files.
// Planes are buffered and the files are written on Close, each holding its
// planes in plane order and the document in its first IFD. It is not safe
// for concurrent use.
type Writer struct {
	log         *slog.Logger
	doc         *ome.Document
	layouts     []SeriesLayout
	counters    IFDCounters
	compression tiff.Compression
	newUUID     func() string

	dir    string
	dests  []*destination
	byPath map[string]*destination
	assign Assignment
	closed bool
}

type destination struct {
	path    string
	uuid    string
	builder *tiff.Builder
	base    *tiff.File
	prior   [][]ome.TiffData
	planes  []pendingPlane
}

type pendingPlane struct {
	key  PlaneKey
	data []byte
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompression sets the compression of written planes. Planes the codec
// cannot compress are stored uncompressed.
func WithCompression(c tiff.Compression) WriterOption {
	return func(w *Writer) { w.compression = c }
}

// WithWriterLogger sets the Writer's logger.
func WithWriterLogger(l *slog.Logger) WriterOption {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// WithUUIDSource replaces the generator of per-file UUIDs.
func WithUUIDSource(fn func() string) WriterOption {
	return func(w *Writer) {
		if fn != nil {
			w.newUUID = fn
		}
	}
}

// NewUUID returns a random URN UUID as written in OME-XML.
func NewUUID() string {
	return "urn:uuid:" + uuid.NewString()
}

// NewWriter prepares a write session for doc. counters is the state returned
// by the previous session's Close, or nil for a fresh file set. Files with a
// non-zero counter are extended; the others are created or truncated.
func NewWriter(doc *ome.Document, counters IFDCounters, opts ...WriterOption) (*Writer, error) {
	layouts, err := Layouts(doc)
	if err != nil {
		return nil, err
	}
	w := &Writer{
		log:      slog.Default(),
		doc:      doc,
		layouts:  layouts,
		counters: counters,
		newUUID:  NewUUID,
		byPath:   make(map[string]*destination),
		assign:   make(Assignment),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Layout returns the write geometry of a series.
func (w *Writer) Layout(series int) (SeriesLayout, error) {
	if series < 0 || series >= len(w.layouts) {
		return SeriesLayout{}, fmt.Errorf("series %d out of range [0,%d)", series, len(w.layouts))
	}
	return w.layouts[series], nil
}

// WritePlane queues plane no of a series for filename. data holds
// interleaved little-endian samples and is copied.
func (w *Writer) WritePlane(series, no int, filename string, data []byte) error {
	if w.closed {
		return ErrWriterClosed
	}
	l, err := w.Layout(series)
	if err != nil {
		return err
	}
	if n := l.Sizes.PlaneCount(); no < 0 || no >= n {
		return seriesError("write plane", series, fmt.Errorf("plane %d out of range [0,%d)", no, n))
	}
	key := PlaneKey{Series: series, Plane: no}
	if _, dup := w.assign[key]; dup {
		return seriesError("write plane", series, fmt.Errorf("plane %d already written", no))
	}
	if len(data) != l.Plane.Size() {
		return seriesError("write plane", series, fmt.Errorf("plane %d is %d bytes, want %d", no, len(data), l.Plane.Size()))
	}

	dest, err := w.destination(filename)
	if err != nil {
		return err
	}
	dest.planes = append(dest.planes, pendingPlane{key: key, data: bytes.Clone(data)})
	w.assign[key] = dest.path
	return nil
}

func (w *Writer) destination(filename string) (*destination, error) {
	path, err := filepath.Abs(filename)
	if err != nil {
		return nil, fileError("write plane", filename, err)
	}
	if d, ok := w.byPath[path]; ok {
		return d, nil
	}
	if w.dir == "" {
		w.dir = filepath.Dir(path)
	} else if filepath.Dir(path) != w.dir {
		return nil, fileError("write plane", path, fmt.Errorf("file set must live in one directory, have %s", w.dir))
	}

	d := &destination{path: path}
	if counter := w.counters[path]; counter > 0 {
		if err := w.extend(d, counter); err != nil {
			return nil, fileError("write plane", path, err)
		}
	} else {
		d.builder = tiff.NewBuilder()
		d.uuid = w.newUUID()
	}
	w.dests = append(w.dests, d)
	w.byPath[path] = d
	return d, nil
}

// extend reopens a file written by an earlier session, keeping its UUID and
// the references its document already holds.
func (w *Writer) extend(d *destination, counter int) error {
	f, err := tiff.Open(d.path)
	if err != nil {
		return err
	}
	if f.HeaderCount() != counter {
		_ = f.Close()
		return fmt.Errorf("file has %d IFDs but the saved counter is %d", f.HeaderCount(), counter)
	}
	b, err := tiff.Extend(f)
	if err != nil {
		_ = f.Close()
		return err
	}
	d.base, d.builder = f, b

	prev, err := document(f)
	if err != nil || prev.UUID == "" {
		w.log.Warn("extending file without a readable OME-XML UUID", "file", d.path, "error", err)
		d.uuid = w.newUUID()
		return nil
	}
	d.uuid = prev.UUID
	d.prior = make([][]ome.TiffData, len(prev.Images))
	for i, img := range prev.Images {
		d.prior[i] = img.Pixels.TiffData
	}
	return nil
}

// Close writes every destination file and returns the counters to hand to
// the next session. Files are staged next to their destination and only
// replace it once every file of the session has been staged, so a failed
// session leaves the set as the previous session left it and the input
// counters are returned. If replacing a staged file fails, the returned
// counters account for the files that were replaced.
func (w *Writer) Close() (IFDCounters, error) {
	if w.closed {
		return w.counters, ErrWriterClosed
	}
	w.closed = true
	defer w.closeBases()

	res, err := Synthesize(w.layouts, w.assign, w.counters, func(filename string) ome.UUIDRef {
		d := w.byPath[filename]
		return ome.UUIDRef{FileName: relativeName(d.path), Value: d.uuid}
	})
	if err != nil {
		return w.counters, err
	}
	applyTiffData(w.doc, w.mergePrior(res.TiffData))

	docUUID := w.doc.UUID
	defer func() { w.doc.UUID = docUUID }()

	staged := make([]string, len(w.dests))
	defer func() {
		for _, tmp := range staged {
			if tmp != "" {
				_ = os.Remove(tmp)
			}
		}
	}()

	var result *multierror.Error
	for i, d := range w.dests {
		tmp, err := w.stage(d)
		if err != nil {
			result = multierror.Append(result, fileError("write", d.path, err))
			continue
		}
		staged[i] = tmp
	}
	if err := result.ErrorOrNil(); err != nil {
		return w.counters, err
	}

	committed := maps.Clone(w.counters)
	if committed == nil {
		committed = IFDCounters{}
	}
	for i, d := range w.dests {
		if err := os.Rename(staged[i], d.path); err != nil {
			result = multierror.Append(result, fileError("write", d.path, err))
			continue
		}
		staged[i] = ""
		committed[d.path] = res.Counters[d.path]
	}
	if err := result.ErrorOrNil(); err != nil {
		return committed, err
	}

	w.log.Debug("wrote file set", "files", len(w.dests), "planes", res.Emitted,
		"written", Written(res.Counters), "expected", ExpectedPlanes(w.layouts))
	return Finalize(res, w.layouts), nil
}

// Abort discards the buffered planes without touching any file. The counters
// passed to NewWriter stay valid for the next session.
func (w *Writer) Abort() {
	if w.closed {
		return
	}
	w.closed = true
	w.closeBases()
	for _, d := range w.dests {
		d.planes = nil
	}
}

// stage encodes a destination into a temporary file in its directory and
// returns the temporary path.
func (w *Writer) stage(d *destination) (string, error) {
	if fi, err := os.Lstat(d.path); err == nil && !fi.Mode().IsRegular() {
		return "", errors.New("destination is not a regular file")
	}
	data, err := w.encode(d)
	if err != nil {
		return "", err
	}
	f, err := os.CreateTemp(filepath.Dir(d.path), "."+filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := os.Chmod(f.Name(), 0644); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (w *Writer) encode(d *destination) ([]byte, error) {
	slices.SortFunc(d.planes, func(a, b pendingPlane) int {
		if c := cmp.Compare(a.key.Series, b.key.Series); c != 0 {
			return c
		}
		return cmp.Compare(a.key.Plane, b.key.Plane)
	})
	for _, p := range d.planes {
		spec := w.layouts[p.key.Series].Plane
		err := d.builder.AppendPlane(spec, p.data, w.compression)
		if errors.Is(err, tiff.ErrUnsupported) && w.compression != tiff.None {
			w.log.Debug("storing plane uncompressed", "file", d.path, "series", p.key.Series,
				"plane", p.key.Plane, "reason", err)
			err = d.builder.AppendPlane(spec, p.data, tiff.None)
		}
		if err != nil {
			return nil, fmt.Errorf("series %d plane %d: %w", p.key.Series, p.key.Plane, err)
		}
	}

	w.doc.UUID = d.uuid
	text, err := w.doc.Marshal()
	if err != nil {
		return nil, err
	}
	d.builder.SetComment(text)
	return d.builder.Bytes()
}

// mergePrior puts the references kept by extended files ahead of the new
// ones, dropping duplicates and empty-series markers.
func (w *Writer) mergePrior(fresh [][]ome.TiffData) [][]ome.TiffData {
	type refKey struct {
		file string
		ifd  int
	}
	out := make([][]ome.TiffData, len(fresh))
	for s := range fresh {
		seen := make(map[refKey]bool)
		for _, d := range w.dests {
			if s >= len(d.prior) {
				continue
			}
			for _, td := range d.prior[s] {
				if td.UUID == nil || td.IFD == nil || (td.PlaneCount != nil && *td.PlaneCount == 0) {
					continue
				}
				k := refKey{td.UUID.FileName, *td.IFD}
				if seen[k] {
					continue
				}
				seen[k] = true
				out[s] = append(out[s], td)
			}
		}
		out[s] = append(out[s], fresh[s]...)
	}
	return out
}

func (w *Writer) closeBases() {
	for _, d := range w.dests {
		if d.base != nil {
			_ = d.base.Close()
		}
	}
}
