package ometiff

import (
	"fmt"

	"github.com/mrsinham/omeforge/internal/ome"
	"github.com/mrsinham/omeforge/internal/tiff"
)

// Consolidate rewrites the OME-XML of every file of a set so that each one
// references the planes of all the others. Sessions of a Writer only record
// the files they touched; after the last session any file of the set can then
// be opened on its own. Each file keeps its UUID.
func Consolidate(files []string) error {
	if len(files) == 0 {
		return nil
	}
	docs := make([]*ome.Document, len(files))
	for i, path := range files {
		f, err := tiff.Open(path)
		if err != nil {
			return fileError("consolidate", path, err)
		}
		doc, err := document(f)
		_ = f.Close()
		if err != nil {
			return fileError("consolidate", path, err)
		}
		if i > 0 && len(doc.Images) != len(docs[0].Images) {
			return fileError("consolidate", path, fmt.Errorf("%w: %d images, %s has %d",
				ErrMetadataParse, len(doc.Images), files[0], len(docs[0].Images)))
		}
		docs[i] = doc
	}

	merged := docs[0]
	for s := range merged.Images {
		merged.Images[s].Pixels.TiffData = mergeTiffData(docs, s)
	}

	for i, path := range files {
		merged.UUID = docs[i].UUID
		text, err := merged.Marshal()
		if err != nil {
			return fileError("consolidate", path, err)
		}
		if err := tiff.RewriteComment(path, text); err != nil {
			return fileError("consolidate", path, err)
		}
	}
	return nil
}

// mergeTiffData collects the references of series s from every document,
// dropping duplicates. An empty-series marker survives only when no document
// references a plane.
func mergeTiffData(docs []*ome.Document, s int) []ome.TiffData {
	type refKey struct {
		file string
		ifd  int
	}
	var (
		out    []ome.TiffData
		marker *ome.TiffData
		seen   = make(map[refKey]bool)
	)
	for _, doc := range docs {
		for _, td := range doc.Images[s].Pixels.TiffData {
			if td.PlaneCount != nil && *td.PlaneCount == 0 {
				if marker == nil {
					marker = &td
				}
				continue
			}
			if td.UUID == nil || td.IFD == nil {
				out = append(out, td)
				continue
			}
			k := refKey{td.UUID.FileName, *td.IFD}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, td)
		}
	}
	if len(out) == 0 && marker != nil {
		out = append(out, *marker)
	}
	return out
}
