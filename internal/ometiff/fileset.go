package ometiff

import (
	"fmt"
	"path/filepath"
)

// FileID identifies a file of the set. The file that was opened is always 0.
type FileID int

// NoFile marks an unassigned plane slot.
const NoFile FileID = -1

// FileEntry binds a UUID to the file it names.
type FileEntry struct {
	UUID     string
	Filename string
}

// FileSet is the table of files a document references.
type FileSet struct {
	dir     string
	docUUID string
	names   []string
	ids     map[string]FileID
	entries []FileEntry
	byUUID  map[string]string
	series  [][]FileID
}

func newFileSet(current, docUUID string) *FileSet {
	current = filepath.Clean(current)
	fs := &FileSet{
		dir:     filepath.Dir(current),
		docUUID: docUUID,
		ids:     make(map[string]FileID),
		byUUID:  make(map[string]string),
	}
	fs.add(current)
	return fs
}

// resolveFileSet maps every reference of every series to a file. The result
// is indexed like decls[series].Refs.
func resolveFileSet(current, docUUID string, decls []declaration) (*FileSet, [][]FileID, error) {
	fs := newFileSet(current, docUUID)

	// Explicit UUID/FileName pairs first, so UUID-only references can use them.
	for s, d := range decls {
		for _, r := range d.Refs {
			if r.UUID == "" || r.FileName == "" {
				continue
			}
			name := fs.absolute(r.FileName)
			if err := fs.bind(r.UUID, name); err != nil {
				return nil, nil, &Error{Op: "resolve files", Series: s, File: name, UUID: r.UUID, Err: err}
			}
		}
	}

	refFiles := make([][]FileID, len(decls))
	fs.series = make([][]FileID, len(decls))
	for s, d := range decls {
		refFiles[s] = make([]FileID, len(d.Refs))
		for k, r := range d.Refs {
			name, err := fs.resolve(r)
			if err != nil {
				return nil, nil, &Error{Op: "resolve files", Series: s, File: r.FileName, UUID: r.UUID, Err: err}
			}
			id := fs.add(name)
			refFiles[s][k] = id
			fs.series[s] = appendUnique(fs.series[s], id)
		}
	}
	return fs, refFiles, nil
}

// resolve returns the file a reference points at. A reference carrying only
// a UUID resolves through a (UUID, FileName) pair declared elsewhere in the
// same document before the local rule applies: the opened file when the
// UUID is the document's own or the document has none. Companion files are
// never searched, so any other UUID is ErrUnresolvedUUID.
func (fs *FileSet) resolve(r reference) (string, error) {
	switch {
	case r.FileName != "":
		return fs.absolute(r.FileName), nil
	case r.UUID == "":
		return fs.names[0], nil
	}
	if name, ok := fs.byUUID[r.UUID]; ok {
		return name, nil
	}
	if fs.docUUID == "" || r.UUID == fs.docUUID {
		if err := fs.bind(r.UUID, fs.names[0]); err != nil {
			return "", err
		}
		return fs.names[0], nil
	}
	// Finding the file that carries this UUID would mean scanning companion
	// files, which is not supported.
	return "", ErrUnresolvedUUID
}

func (fs *FileSet) bind(uuid, name string) error {
	if prev, ok := fs.byUUID[uuid]; ok {
		if prev != name {
			return fmt.Errorf("%w: %s and %s", ErrInconsistentUUID, prev, name)
		}
		return nil
	}
	fs.byUUID[uuid] = name
	fs.entries = append(fs.entries, FileEntry{UUID: uuid, Filename: name})
	return nil
}

func (fs *FileSet) absolute(name string) string {
	if !filepath.IsAbs(name) {
		name = filepath.Join(fs.dir, name)
	}
	return filepath.Clean(name)
}

func (fs *FileSet) add(name string) FileID {
	if id, ok := fs.ids[name]; ok {
		return id
	}
	id := FileID(len(fs.names))
	fs.names = append(fs.names, name)
	fs.ids[name] = id
	return id
}

// Name returns the absolute filename of id.
func (fs *FileSet) Name(id FileID) string {
	if id < 0 || int(id) >= len(fs.names) {
		return ""
	}
	return fs.names[id]
}

// Len returns the number of distinct files.
func (fs *FileSet) Len() int { return len(fs.names) }

// Files returns the deduplicated file list in first-seen order.
func (fs *FileSet) Files() []string {
	return append([]string(nil), fs.names...)
}

// Entries returns the UUID table in binding order.
func (fs *FileSet) Entries() []FileEntry {
	return append([]FileEntry(nil), fs.entries...)
}

// SeriesFiles returns the files referenced by one series.
func (fs *FileSet) SeriesFiles(series int) []string {
	if series < 0 || series >= len(fs.series) {
		return nil
	}
	out := make([]string, 0, len(fs.series[series]))
	for _, id := range fs.series[series] {
		out = append(out, fs.names[id])
	}
	return out
}

func appendUnique(ids []FileID, id FileID) []FileID {
	for _, have := range ids {
		if have == id {
			return ids
		}
	}
	return append(ids, id)
}
