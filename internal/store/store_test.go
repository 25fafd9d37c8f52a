package store

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/nvandessel/stairwalk/internal/experiment"
	"github.com/nvandessel/stairwalk/internal/summary"
)

// testRun builds a small run with a distinct creation time.
func testRun(id string, seed uint64, createdAt time.Time) Run {
	ends := []float64{12, 70, 61, 45, 88}
	p := experiment.DefaultParams()
	p.Seed = seed
	p.Trials = len(ends)
	return Run{
		ID:        id,
		Params:    p,
		Summary:   summary.Summarize(ends, p.Bins, p.Threshold, 1),
		Ends:      ends,
		CreatedAt: createdAt,
	}
}

// storeContract runs the RunStore behavior checks shared by every implementation.
func storeContract(t *testing.T, newStore func(t *testing.T) RunStore) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("save and get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		want := testRun("run-a", 18446744073709551615, base)
		if err := s.SaveRun(ctx, want); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}

		got, err := s.GetRun(ctx, "run-a")
		if err != nil {
			t.Fatalf("GetRun() error = %v", err)
		}
		if got.Params != want.Params {
			t.Errorf("Params = %+v, want %+v", got.Params, want.Params)
		}
		if !slices.Equal(got.Ends, want.Ends) {
			t.Errorf("Ends = %v, want %v", got.Ends, want.Ends)
		}
		if got.Summary.Exceedance != want.Summary.Exceedance {
			t.Errorf("Exceedance = %v, want %v", got.Summary.Exceedance, want.Summary.Exceedance)
		}
		if got.Summary.ResetWalks != 1 {
			t.Errorf("ResetWalks = %d, want 1", got.Summary.ResetWalks)
		}
		if !slices.Equal(got.Summary.Histogram.Counts, want.Summary.Histogram.Counts) {
			t.Errorf("Histogram.Counts = %v, want %v", got.Summary.Histogram.Counts, want.Summary.Histogram.Counts)
		}
		if !got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.GetRun(context.Background(), "run-missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetRun() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("save requires id", func(t *testing.T) {
		s := newStore(t)
		if err := s.SaveRun(context.Background(), testRun("", 1, base)); err == nil {
			t.Error("expected error for empty run ID")
		}
	})

	t.Run("save replaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first := testRun("run-a", 1, base)
		if err := s.SaveRun(ctx, first); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
		second := first
		second.Ends = []float64{1, 2}
		if err := s.SaveRun(ctx, second); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}

		got, err := s.GetRun(ctx, "run-a")
		if err != nil {
			t.Fatalf("GetRun() error = %v", err)
		}
		if !slices.Equal(got.Ends, []float64{1, 2}) {
			t.Errorf("Ends = %v, want [1 2]", got.Ends)
		}
	})

	t.Run("list newest first", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for i, id := range []string{"run-a", "run-b", "run-c"} {
			if err := s.SaveRun(ctx, testRun(id, uint64(i), base.Add(time.Duration(i)*time.Minute))); err != nil {
				t.Fatalf("SaveRun(%s) error = %v", id, err)
			}
		}

		runs, err := s.ListRuns(ctx, 0)
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		var ids []string
		for _, r := range runs {
			ids = append(ids, r.ID)
			if len(r.Ends) != 0 {
				t.Errorf("ListRuns() returned endpoints for %s", r.ID)
			}
		}
		if !slices.Equal(ids, []string{"run-c", "run-b", "run-a"}) {
			t.Errorf("ListRuns() order = %v, want [run-c run-b run-a]", ids)
		}

		limited, err := s.ListRuns(ctx, 2)
		if err != nil {
			t.Fatalf("ListRuns(2) error = %v", err)
		}
		if len(limited) != 2 {
			t.Errorf("ListRuns(2) returned %d runs", len(limited))
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := s.SaveRun(ctx, testRun("run-a", 1, base)); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
		if err := s.DeleteRun(ctx, "run-a"); err != nil {
			t.Fatalf("DeleteRun() error = %v", err)
		}
		if _, err := s.GetRun(ctx, "run-a"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetRun() after delete error = %v, want ErrNotFound", err)
		}
		if err := s.DeleteRun(ctx, "run-a"); !errors.Is(err, ErrNotFound) {
			t.Errorf("second DeleteRun() error = %v, want ErrNotFound", err)
		}
	})
}

func TestInMemoryRunStore(t *testing.T) {
	storeContract(t, func(t *testing.T) RunStore {
		return NewInMemoryRunStore()
	})
}

func TestSQLiteRunStore(t *testing.T) {
	storeContract(t, func(t *testing.T) RunStore {
		s, err := NewSQLiteRunStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewSQLiteRunStore() error = %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestRunFromResult(t *testing.T) {
	p := experiment.DefaultParams()
	p.Trials = 20
	res, err := experiment.Execute(context.Background(), p)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	run := RunFromResult(res)
	if run.ID != res.ID {
		t.Errorf("ID = %q, want %q", run.ID, res.ID)
	}
	if len(run.Ends) != 20 {
		t.Errorf("len(Ends) = %d, want 20", len(run.Ends))
	}
	if run.Summary.Exceedance != res.Summary.Exceedance {
		t.Errorf("Exceedance = %v, want %v", run.Summary.Exceedance, res.Summary.Exceedance)
	}
}

func TestSQLiteRunStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewSQLiteRunStore(dir)
	if err != nil {
		t.Fatalf("NewSQLiteRunStore() error = %v", err)
	}
	if err := s.SaveRun(ctx, testRun("run-a", 5, time.Now())); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	s.Close()

	s, err = NewSQLiteRunStore(dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	if _, err := s.GetRun(ctx, "run-a"); err != nil {
		t.Errorf("GetRun() after reopen error = %v", err)
	}
}
