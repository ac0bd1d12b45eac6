package defects

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/tiff"
)

// Applied describes one defect written to a set.
type Applied struct {
	Type   Type
	File   string // File the defect is about, when there is one
	Detail string
}

// Applicator injects the configured defects into a finished file set.
type Applicator struct {
	config Config
	rng    *rand.Rand
	log    *slog.Logger
}

// NewApplicator creates a new defect applicator. A nil logger uses the
// default one.
func NewApplicator(config Config, rng *rand.Rand, log *slog.Logger) *Applicator {
	if log == nil {
		log = slog.Default()
	}
	return &Applicator{config: config, rng: rng, log: log}
}

// set is the parsed metadata of every file of a set.
type set struct {
	files []string
	docs  []*ome.Document
}

// Apply damages files, the complete set in planning order. The first file
// keeps its place and is never deleted, so it can still be opened. Defects
// that need a companion file are skipped for single-file sets.
func (a *Applicator) Apply(files []string) ([]Applied, error) {
	if !a.config.IsEnabled() || len(files) == 0 {
		return nil, nil
	}

	s := &set{files: files, docs: make([]*ome.Document, len(files))}
	for i, path := range files {
		f, err := tiff.Open(path)
		if err != nil {
			return nil, err
		}
		doc, err := ome.Parse(f.Comment())
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		s.docs[i] = doc
	}

	var applied []Applied
	var remove string
	for _, t := range a.config.Types {
		if t.NeedsCompanion() && len(files) < 2 {
			a.log.Warn("skipping defect, the set has a single file", "defect", t)
			continue
		}
		var (
			app Applied
			err error
		)
		switch t {
		case DropReference:
			app, err = a.dropReference(s)
		case MissingFile:
			remove = a.companion(files)
			app = Applied{Type: t, File: remove, Detail: "file deleted"}
		case UUIDConflict:
			app = a.uuidConflict(s)
		case BareUUID:
			app = a.bareUUID(s)
		case OneIndexed:
			app = oneIndexed(s)
		case UnsetSamples:
			app = unsetSamples(s)
		default:
			err = fmt.Errorf("unknown defect type %q", t)
		}
		if err != nil {
			return applied, err
		}
		a.log.Debug("injected defect", "defect", app.Type, "file", app.File, "detail", app.Detail)
		applied = append(applied, app)
	}

	for i, path := range files {
		text, err := s.docs[i].Marshal()
		if err != nil {
			return applied, err
		}
		if err := tiff.RewriteComment(path, text); err != nil {
			return applied, err
		}
	}
	if remove != "" {
		if err := os.Remove(remove); err != nil {
			return applied, err
		}
	}
	return applied, nil
}

// companion picks a file other than the first one.
func (a *Applicator) companion(files []string) string {
	return files[1+a.rng.IntN(len(files)-1)]
}

// refs returns every plane reference of series img in doc, skipping the
// empty-series marker.
func refs(doc *ome.Document, img int) []*ome.TiffData {
	var out []*ome.TiffData
	tds := doc.Images[img].Pixels.TiffData
	for k := range tds {
		if tds[k].PlaneCount != nil && *tds[k].PlaneCount == 0 {
			continue
		}
		out = append(out, &tds[k])
	}
	return out
}

func (a *Applicator) dropReference(s *set) (Applied, error) {
	var candidates []int
	for img := range s.docs[0].Images {
		if len(refs(s.docs[0], img)) > 1 {
			candidates = append(candidates, img)
		}
	}
	if len(candidates) == 0 {
		return Applied{}, errors.New("drop-reference needs a series with at least two planes")
	}
	img := candidates[a.rng.IntN(len(candidates))]
	victim := *refs(s.docs[0], img)[1+a.rng.IntN(len(refs(s.docs[0], img))-1)]

	for _, doc := range s.docs {
		tds := doc.Images[img].Pixels.TiffData
		kept := tds[:0]
		for _, td := range tds {
			if !sameRef(td, victim) {
				kept = append(kept, td)
			}
		}
		doc.Images[img].Pixels.TiffData = kept
	}

	detail := fmt.Sprintf("series %d", img)
	if victim.IFD != nil {
		detail += fmt.Sprintf(", IFD %d", *victim.IFD)
	}
	var file string
	if victim.UUID != nil {
		file = victim.UUID.FileName
	}
	return Applied{Type: DropReference, File: file, Detail: detail}, nil
}

func sameRef(a, b ome.TiffData) bool {
	if (a.UUID == nil) != (b.UUID == nil) || (a.IFD == nil) != (b.IFD == nil) {
		return false
	}
	if a.UUID != nil && a.UUID.FileName != b.UUID.FileName {
		return false
	}
	return a.IFD == nil || *a.IFD == *b.IFD
}

// uuidConflict makes the references to a companion carry the UUID of the
// first file, so one UUID names two files.
func (a *Applicator) uuidConflict(s *set) Applied {
	victim := a.companion(s.files)
	name := filepath.Base(victim)
	first := s.docs[0].UUID
	for _, doc := range s.docs {
		for img := range doc.Images {
			for _, td := range refs(doc, img) {
				if td.UUID != nil && td.UUID.FileName == name {
					td.UUID.Value = first
				}
			}
		}
	}
	return Applied{Type: UUIDConflict, File: victim, Detail: "references reuse UUID " + first}
}

// bareUUID leaves only the UUID value on references to a companion.
func (a *Applicator) bareUUID(s *set) Applied {
	victim := a.companion(s.files)
	name := filepath.Base(victim)
	for _, doc := range s.docs {
		for img := range doc.Images {
			for _, td := range refs(doc, img) {
				if td.UUID != nil && td.UUID.FileName == name {
					td.UUID.FileName = ""
				}
			}
		}
	}
	return Applied{Type: BareUUID, File: victim, Detail: "FileName removed from references"}
}

func oneIndexed(s *set) Applied {
	for _, doc := range s.docs {
		for img := range doc.Images {
			for _, td := range refs(doc, img) {
				for _, p := range []*int{td.FirstZ, td.FirstC, td.FirstT} {
					if p != nil {
						*p++
					}
				}
			}
		}
	}
	return Applied{Type: OneIndexed, Detail: "FirstZ, FirstC and FirstT shifted by one"}
}

func unsetSamples(s *set) Applied {
	for _, doc := range s.docs {
		for img := range doc.Images {
			chs := doc.Images[img].Pixels.Channels
			for c := range chs {
				chs[c].SamplesPerPixel = 0
			}
		}
	}
	return Applied{Type: UnsetSamples, Detail: "SamplesPerPixel removed from every channel"}
}
