package snapshot

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mgorriz/ajp-results/internal/match"
)

// Writer handles persistence of end-of-run snapshot files
type Writer struct {
	dataDir string
}

// New creates a new snapshot Writer rooted at dataDir
func New(dataDir string) (*Writer, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Writer{
		dataDir: dataDir,
	}, nil
}

// timestamp names both files of one run identically so they can be
// correlated later.
func timestamp() string {
	return time.Now().Format("20060102_150405")
}

var matchHeader = []string{
	"athlete1", "team1", "athlete2", "team2", "winner", "winner_via",
	"time", "category", "belt", "type", "weight", "day",
	"event_name", "year", "event_id",
}

var eventHeader = []string{
	"event_id", "event_name", "year", "matches_count", "status",
}

// WriteRun writes the snapshot files for a finished run: one with
// every match harvested, one with the per-event summaries. A file with
// no rows is not written at all, so a run where every event failed
// still leaves an event summary but no match artifact. It returns the
// paths of the files written.
func (w *Writer) WriteRun(matches []match.Match, events []match.EventSummary) ([]string, error) {
	ts := timestamp()

	var paths []string
	if len(matches) > 0 {
		matchPath := filepath.Join(w.dataDir, fmt.Sprintf("ajp_matches_%s.csv", ts))
		if err := writeCSV(matchPath, matchHeader, len(matches), func(i int) []string {
			m := matches[i]
			return []string{
				m.Athlete1, m.Team1, m.Athlete2, m.Team2, m.Winner, m.WinnerVia,
				m.Time, m.Category, m.Belt, m.Type, m.Weight, m.Day,
				m.EventName, strconv.Itoa(m.Year), strconv.Itoa(m.EventID),
			}
		}); err != nil {
			return nil, fmt.Errorf("writing match snapshot: %w", err)
		}
		paths = append(paths, matchPath)
	}

	if len(events) > 0 {
		eventPath := filepath.Join(w.dataDir, fmt.Sprintf("ajp_events_%s.csv", ts))
		if err := writeCSV(eventPath, eventHeader, len(events), func(i int) []string {
			e := events[i]
			return []string{
				strconv.Itoa(e.EventID), e.Name, strconv.Itoa(e.Year),
				strconv.Itoa(e.MatchesCount), e.Status,
			}
		}); err != nil {
			return nil, fmt.Errorf("writing event snapshot: %w", err)
		}
		paths = append(paths, eventPath)
	}

	return paths, nil
}

func writeCSV(path string, header []string, n int, row func(i int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Sync()
}
