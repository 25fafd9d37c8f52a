package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/nvandessel/stairwalk/internal/experiment"
	"github.com/nvandessel/stairwalk/internal/store"
	"github.com/nvandessel/stairwalk/internal/walk"
)

// Format names an export file format.
type Format string

const (
	FormatArrow   Format = "arrow"
	FormatArchive Format = "archive"
)

// ErrMismatch reports that regenerated walks differ from a run's stored endpoints.
var ErrMismatch = errors.New("regenerated walks do not match the stored endpoints")

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatArrow, FormatArchive:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (valid: arrow, archive)", s)
	}
}

// Ext returns the default file extension for the format.
func (f Format) Ext() string {
	if f == FormatArchive {
		return ".json.gz"
	}
	return ".arrow"
}

// Report describes a written export.
type Report struct {
	RunID    string `json:"id"`
	Format   Format `json:"format"`
	Path     string `json:"path"`
	Walks    int    `json:"walks"`
	Rows     int64  `json:"rows,omitempty"`
	Checksum string `json:"checksum,omitempty"`
}

// Regenerate rebuilds a stored run's ensemble from its params and checks
// that it reproduces the stored endpoints.
func Regenerate(ctx context.Context, run *store.Run) (*walk.Ensemble, error) {
	res, err := experiment.Execute(ctx, run.Params)
	if err != nil {
		return nil, fmt.Errorf("regenerating %s: %w", run.ID, err)
	}
	if !slices.Equal(res.Ends(), run.Ends) {
		return nil, fmt.Errorf("%s: %w", run.ID, ErrMismatch)
	}
	return res.Ensemble, nil
}

// WriteRun regenerates a stored run and writes every walk to path.
func WriteRun(ctx context.Context, run *store.Run, format Format, path string) (*Report, error) {
	ens, err := Regenerate(ctx, run)
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: run.ID, Format: format, Path: path, Walks: ens.Len()}

	switch format {
	case FormatArrow:
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", path, err)
		}
		rows, err := WriteArrow(f, ens)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}
		report.Rows = rows
	case FormatArchive:
		header, err := WriteArchive(path, &Archive{Run: *run, Walks: ens.Walks})
		if err != nil {
			return nil, err
		}
		report.Checksum = header.Checksum
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	return report, nil
}
