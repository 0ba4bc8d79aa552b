package match

// Event processing statuses persisted in the store.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusPartial   = "partial"
)

// Audit log entry statuses.
const (
	LogSuccess = "success"
	LogError   = "error"
	LogSkipped = "skipped"
)

// Match represents one bout between two participants within an event.
// All fields are best-effort: missing data is an empty string, never an
// error. Matches are owned by their event and replaced wholesale when
// the event is reprocessed.
type Match struct {
	Athlete1  string
	Team1     string
	Athlete2  string
	Team2     string
	Winner    string
	WinnerVia string
	Time      string
	Category  string
	Belt      string
	Type      string
	Weight    string
	Day       string
	EventName string
	Year      int
	EventID   int
}

// EventInfo holds the metadata extracted from an event's first page.
type EventInfo struct {
	Name string
	Year int
}

// EventSummary is the per-event outcome accumulated during a run and
// written to the end-of-run snapshot artifact.
type EventSummary struct {
	EventID      int
	Name         string
	Year         int
	MatchesCount int
	Status       string
}
