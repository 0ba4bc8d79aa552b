package store

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/mgorriz/ajp-results/internal/match"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleMatches(eventID, n int) []match.Match {
	out := make([]match.Match, n)
	for i := range out {
		out[i] = match.Match{
			Athlete1:  "FIGHTER A",
			Athlete2:  "FIGHTER B",
			Winner:    "FIGHTER A",
			WinnerVia: "Points",
			Time:      "06:00",
			Category:  "Adult",
			Belt:      "Black",
			Type:      "Gi",
			Weight:    "85KG",
			EventName: "Test Open",
			Year:      2020,
			EventID:   eventID,
		}
	}
	return out
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open #%d failed: %v", i+1, err)
		}
		s.Close()
	}
}

func TestMarkEventAndIsCompleted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	done, err := s.IsCompleted(ctx, 1)
	if err != nil {
		t.Fatalf("IsCompleted failed: %v", err)
	}
	if done {
		t.Error("unmarked event reported as completed")
	}

	if err := s.MarkEvent(ctx, 1, "Test Open", 2020, 5, match.StatusCompleted); err != nil {
		t.Fatalf("MarkEvent failed: %v", err)
	}
	if done, _ = s.IsCompleted(ctx, 1); !done {
		t.Error("completed event not reported as completed")
	}

	if err := s.MarkEvent(ctx, 2, "", 0, 0, match.StatusFailed); err != nil {
		t.Fatalf("MarkEvent failed: %v", err)
	}
	if done, _ = s.IsCompleted(ctx, 2); done {
		t.Error("failed event reported as completed")
	}
}

func TestMarkEventUpsertsSingleRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.MarkEvent(ctx, 3, "", 0, 0, match.StatusFailed); err != nil {
		t.Fatalf("MarkEvent failed: %v", err)
	}
	if err := s.MarkEvent(ctx, 3, "Retried Open", 2021, 7, match.StatusCompleted); err != nil {
		t.Fatalf("re-mark failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM processed_events WHERE event_id = 3`).Scan(&count); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one row per event_id, got %d", count)
	}

	recent, err := s.RecentEvents(ctx, 1)
	if err != nil {
		t.Fatalf("RecentEvents failed: %v", err)
	}
	if len(recent) != 1 || recent[0].Status != match.StatusCompleted || recent[0].MatchesCount != 7 {
		t.Errorf("re-mark did not update the row: %+v", recent)
	}
}

func TestBacklogExcludesCompleted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.MarkEvent(ctx, 0, "A", 2020, 1, match.StatusCompleted)
	s.MarkEvent(ctx, 2, "B", 2020, 0, match.StatusFailed)
	s.MarkEvent(ctx, 3, "C", 2020, 2, match.StatusCompleted)

	backlog, err := s.Backlog(ctx, 5)
	if err != nil {
		t.Fatalf("Backlog failed: %v", err)
	}

	expected := []int{1, 2, 4}
	if len(backlog) != len(expected) {
		t.Fatalf("expected backlog %v, got %v", expected, backlog)
	}
	for i, id := range expected {
		if backlog[i] != id {
			t.Errorf("expected backlog %v, got %v", expected, backlog)
			break
		}
	}
}

func TestBacklogWithShrunkRange(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// More completed events than the new range covers, as after a
	// re-run with a lowered event limit.
	s.MarkEvent(ctx, 0, "A", 2020, 1, match.StatusCompleted)
	s.MarkEvent(ctx, 1, "B", 2020, 1, match.StatusCompleted)
	s.MarkEvent(ctx, 2, "C", 2020, 1, match.StatusCompleted)

	backlog, err := s.Backlog(ctx, 1)
	if err != nil {
		t.Fatalf("Backlog failed: %v", err)
	}
	if len(backlog) != 0 {
		t.Errorf("expected empty backlog, got %v", backlog)
	}
}

func TestReplaceMatchesIsAtomicReplacement(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.ReplaceMatches(ctx, 10, sampleMatches(10, 5)); err != nil {
		t.Fatalf("first ReplaceMatches failed: %v", err)
	}
	// Reprocessing with a different count leaves exactly the new set,
	// never old+new.
	if err := s.ReplaceMatches(ctx, 10, sampleMatches(10, 3)); err != nil {
		t.Fatalf("second ReplaceMatches failed: %v", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM matches WHERE event_id = 10`).Scan(&count); err != nil {
		t.Fatalf("counting matches: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 matches after replacement, got %d", count)
	}
}

func TestReplaceMatchesLeavesOtherEventsAlone(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.ReplaceMatches(ctx, 1, sampleMatches(1, 2))
	s.ReplaceMatches(ctx, 2, sampleMatches(2, 4))
	s.ReplaceMatches(ctx, 1, sampleMatches(1, 1))

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM matches WHERE event_id = 2`).Scan(&count); err != nil {
		t.Fatalf("counting matches: %v", err)
	}
	if count != 4 {
		t.Errorf("replacing event 1 touched event 2: got %d rows", count)
	}
}

func TestStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	empty, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats on empty store failed: %v", err)
	}
	if empty.Total != 0 || empty.TotalMatches != 0 {
		t.Errorf("expected zero stats, got %+v", empty)
	}

	s.MarkEvent(ctx, 1, "A", 2020, 5, match.StatusCompleted)
	s.MarkEvent(ctx, 2, "B", 2021, 3, match.StatusCompleted)
	s.MarkEvent(ctx, 3, "", 0, 0, match.StatusFailed)

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.Total != 3 || st.Completed != 2 || st.Failed != 1 || st.Partial != 0 {
		t.Errorf("unexpected status counts: %+v", st)
	}
	if st.TotalMatches != 8 {
		t.Errorf("expected 8 total matches, got %d", st.TotalMatches)
	}
	if st.FirstProcessed == "" || st.LastProcessed == "" {
		t.Errorf("expected processed timestamps, got %+v", st)
	}
}

func TestAppendLogNeverFails(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.AppendLog(ctx, 1, match.LogSuccess, "Processed 5 matches")
	s.AppendLog(ctx, 2, match.LogError, "No matches found")

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM scraping_logs`).Scan(&count); err != nil {
		t.Fatalf("counting logs: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 audit rows, got %d", count)
	}
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.MarkEvent(ctx, 1, "A", 2020, 2, match.StatusCompleted)
	s.ReplaceMatches(ctx, 1, sampleMatches(1, 2))
	s.AppendLog(ctx, 1, match.LogSuccess, "ok")

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	st, _ := s.Stats(ctx)
	if st.Total != 0 {
		t.Errorf("expected empty store after reset, got %+v", st)
	}
}

func TestExportCSV(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.MarkEvent(ctx, 1, "Test Open", 2020, 2, match.StatusCompleted)
	s.ReplaceMatches(ctx, 1, sampleMatches(1, 2))
	s.AppendLog(ctx, 1, match.LogSuccess, "Processed 2 matches")

	dir := t.TempDir()
	exportDir, err := s.ExportCSV(ctx, dir)
	if err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	for table, wantRows := range map[string]int{
		"matches":          2,
		"processed_events": 1,
		"scraping_logs":    1,
	} {
		f, err := os.Open(filepath.Join(exportDir, table+".csv"))
		if err != nil {
			t.Fatalf("opening %s export: %v", table, err)
		}
		records, err := csv.NewReader(f).ReadAll()
		f.Close()
		if err != nil {
			t.Fatalf("reading %s export: %v", table, err)
		}
		// Header plus data rows.
		if len(records) != wantRows+1 {
			t.Errorf("%s: expected %d rows plus header, got %d", table, wantRows, len(records))
		}
	}
}
