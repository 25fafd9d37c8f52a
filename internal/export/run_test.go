package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvandessel/stairwalk/internal/store"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantExt string
		wantErr bool
	}{
		{"arrow", FormatArrow, ".arrow", false},
		{"archive", FormatArchive, ".json.gz", false},
		{"csv", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if !tt.wantErr && got.Ext() != tt.wantExt {
				t.Errorf("Ext() = %q, want %q", got.Ext(), tt.wantExt)
			}
		})
	}
}

func TestWriteRun(t *testing.T) {
	res := testResult(t, 12)
	run := store.RunFromResult(res)

	tests := []struct {
		name   string
		format Format
		check  func(t *testing.T, path string, r *Report)
	}{
		{"arrow", FormatArrow, func(t *testing.T, path string, r *Report) {
			if r.Rows != 12*101 {
				t.Errorf("Rows = %d, want %d", r.Rows, 12*101)
			}
		}},
		{"archive", FormatArchive, func(t *testing.T, path string, r *Report) {
			if err := VerifyChecksum(path); err != nil {
				t.Errorf("VerifyChecksum() error = %v", err)
			}
			if r.Checksum == "" {
				t.Error("expected checksum in report")
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out"+tt.format.Ext())

			r, err := WriteRun(context.Background(), &run, tt.format, path)
			if err != nil {
				t.Fatalf("WriteRun() error = %v", err)
			}
			if r.Walks != 12 || r.RunID != run.ID || r.Path != path {
				t.Errorf("report = %+v", r)
			}
			if _, err := os.Stat(path); err != nil {
				t.Fatalf("output not written: %v", err)
			}
			tt.check(t, path, r)
		})
	}
}

func TestRegenerate_Mismatch(t *testing.T) {
	res := testResult(t, 8)
	run := store.RunFromResult(res)
	run.Ends[3]++

	if _, err := Regenerate(context.Background(), &run); !errors.Is(err, ErrMismatch) {
		t.Errorf("Regenerate() error = %v, want ErrMismatch", err)
	}

	path := filepath.Join(t.TempDir(), "out.arrow")
	if _, err := WriteRun(context.Background(), &run, FormatArrow, path); err == nil {
		t.Error("expected WriteRun to refuse a run that does not reproduce")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("nothing should be written for a mismatched run")
	}
}
