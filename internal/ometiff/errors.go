package ometiff

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrNotOMETIFF                 = errors.New("not an OME-TIFF file")
	ErrMetadataParse              = errors.New("invalid OME-XML metadata")
	ErrInvalidCoordinateReference = errors.New("TiffData coordinate out of range")
	ErrMissingPlaneData           = errors.New("missing plane data")
	ErrInconsistentUUID           = errors.New("inconsistent UUID filenames")
	ErrUnresolvedUUID             = errors.New("unresolved UUID reference")
	ErrWriterClosed               = errors.New("writer is closed")
)

// Error adds the failing operation and the series, file or UUID it concerns.
// Series is -1 when the error is not tied to a series.
type Error struct {
	Op     string
	Series int
	File   string
	UUID   string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Series >= 0 {
		fmt.Fprintf(&b, ": series %d", e.Series)
	}
	if e.File != "" {
		fmt.Fprintf(&b, ": file %s", e.File)
	}
	if e.UUID != "" {
		fmt.Fprintf(&b, ": uuid %s", e.UUID)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

// Unwrap provides compatibility with errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

func fileError(op, file string, err error) error {
	return &Error{Op: op, Series: -1, File: file, Err: err}
}

func seriesError(op string, series int, err error) error {
	return &Error{Op: op, Series: series, Err: err}
}
