package orchestrator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mgorriz/ajp-results/internal/logger"
	"github.com/mgorriz/ajp-results/internal/match"
	"github.com/mgorriz/ajp-results/internal/snapshot"
	"github.com/mgorriz/ajp-results/internal/store"
)

// progressEvery controls how often a progress line is emitted.
const progressEvery = 10

// Harvester fetches and extracts one event's matches.
type Harvester interface {
	HarvestEvent(ctx context.Context, eventID int) ([]match.Match, match.EventInfo, error)
}

// result carries one finished event from a worker to the persister.
type result struct {
	eventID int
	matches []match.Match
	info    match.EventInfo
	err     error
}

// Orchestrator runs the harvest: it computes the backlog, fans events
// out to a bounded worker pool, and persists results one at a time in
// completion order.
type Orchestrator struct {
	harvester Harvester
	store     *store.Store
	snapshots *snapshot.Writer
	workers   int
	maxEvents int
}

// New wires an Orchestrator from its collaborators.
func New(h Harvester, st *store.Store, sw *snapshot.Writer, workers, maxEvents int) *Orchestrator {
	return &Orchestrator{
		harvester: h,
		store:     st,
		snapshots: sw,
		workers:   workers,
		maxEvents: maxEvents,
	}
}

// Run processes every event not yet completed. Individual event
// failures are recorded in the store and never abort the run; Run
// returns an error only for faults that invalidate the run as a whole.
func (o *Orchestrator) Run(ctx context.Context) error {
	backlog, err := o.store.Backlog(ctx, o.maxEvents)
	if err != nil {
		return fmt.Errorf("computing backlog: %w", err)
	}

	if st, err := o.store.Stats(ctx); err == nil {
		logger.Info("Current processing statistics", st.Fields())
	}

	if len(backlog) == 0 {
		logger.Info("All events already processed", nil)
		return nil
	}

	logger.Info("Starting harvest", logger.Fields{
		"pending": len(backlog),
		"workers": o.workers,
	})

	results := make(chan result)

	var g errgroup.Group
	g.SetLimit(o.workers)
	go func() {
		for _, id := range backlog {
			if ctx.Err() != nil {
				break
			}
			eventID := id
			g.Go(func() error {
				o.harvest(ctx, eventID, results)
				return nil
			})
		}
		g.Wait()
		close(results)
	}()

	allMatches, summaries := o.persist(results, len(backlog))

	if err := ctx.Err(); err != nil {
		logger.Info("Harvest interrupted", logger.Fields{"processed": len(summaries)})
		return err
	}

	if len(summaries) > 0 {
		o.writeSnapshots(allMatches, summaries)
	}

	if st, err := o.store.Stats(ctx); err == nil {
		logger.Info("Final processing statistics", st.Fields())
	}
	logger.Info("Run metrics", logger.Fields{"metrics": logger.GetMetricsSnapshot()})
	return nil
}

// harvest runs one event and delivers its outcome. A panicking
// extractor is converted into a failed event so one malformed page
// can't take the pool down.
func (o *Orchestrator) harvest(ctx context.Context, eventID int, results chan<- result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Worker panic", logger.Fields{"event_id": eventID}, fmt.Errorf("%v", r))
			results <- result{eventID: eventID, err: fmt.Errorf("panic while processing event %d: %v", eventID, r)}
		}
	}()

	start := time.Now()
	matches, info, err := o.harvester.HarvestEvent(ctx, eventID)
	logger.RecordTiming("harvest.event", time.Since(start))

	results <- result{eventID: eventID, matches: matches, info: info, err: err}
}

// persist consumes results in completion order and writes each one to
// the store immediately, so an interrupted run loses at most the
// events still in flight.
func (o *Orchestrator) persist(results <-chan result, total int) ([]match.Match, []match.EventSummary) {
	// Persistence runs on its own context so in-flight results still
	// land after the run context is cancelled.
	dbCtx := context.Background()

	var (
		allMatches []match.Match
		summaries  []match.EventSummary
		completed  int
	)
	for res := range results {
		completed++

		switch {
		case res.err != nil:
			o.recordFailure(dbCtx, res.eventID, res.err.Error())
			logger.Error("Event failed", logger.Fields{
				"event_id": res.eventID,
				"progress": fmt.Sprintf("%d/%d", completed, total),
			}, res.err)
			summaries = append(summaries, match.EventSummary{
				EventID: res.eventID,
				Status:  match.StatusFailed,
			})

		case len(res.matches) == 0:
			o.recordFailure(dbCtx, res.eventID, "No matches found")
			logger.Warn("Event yielded no matches", logger.Fields{
				"event_id": res.eventID,
				"progress": fmt.Sprintf("%d/%d", completed, total),
			})
			summaries = append(summaries, match.EventSummary{
				EventID: res.eventID,
				Status:  match.StatusFailed,
			})

		default:
			summary := o.recordSuccess(dbCtx, res, completed, total)
			if summary.Status == match.StatusCompleted {
				allMatches = append(allMatches, res.matches...)
			}
			summaries = append(summaries, summary)
		}

		if completed%progressEvery == 0 {
			logger.Info("Progress", logger.Fields{
				"completed": completed,
				"total":     total,
			})
		}
	}
	return allMatches, summaries
}

func (o *Orchestrator) recordSuccess(ctx context.Context, res result, completed, total int) match.EventSummary {
	if err := o.store.ReplaceMatches(ctx, res.eventID, res.matches); err != nil {
		o.recordFailure(ctx, res.eventID, err.Error())
		logger.Error("Persisting matches failed", logger.Fields{"event_id": res.eventID}, err)
		return match.EventSummary{EventID: res.eventID, Status: match.StatusFailed}
	}

	if err := o.store.MarkEvent(ctx, res.eventID, res.info.Name, res.info.Year,
		len(res.matches), match.StatusCompleted); err != nil {
		logger.Error("Marking event failed", logger.Fields{"event_id": res.eventID}, err)
	}
	o.store.AppendLog(ctx, res.eventID,
		match.LogSuccess, fmt.Sprintf("Processed %d matches", len(res.matches)))

	logger.IncrCounter("events_completed")
	logger.AddCounter("matches_harvested", int64(len(res.matches)))
	logger.Info("Event processed", logger.Fields{
		"event_id": res.eventID,
		"matches":  len(res.matches),
		"progress": fmt.Sprintf("%d/%d", completed, total),
	})

	return match.EventSummary{
		EventID:      res.eventID,
		Name:         res.info.Name,
		Year:         res.info.Year,
		MatchesCount: len(res.matches),
		Status:       match.StatusCompleted,
	}
}

// recordFailure marks an event failed with empty metadata and appends
// the audit row. Store errors here are logged and swallowed: a failed
// event must never escalate into a failed run.
func (o *Orchestrator) recordFailure(ctx context.Context, eventID int, message string) {
	if err := o.store.MarkEvent(ctx, eventID, "", 0, 0, match.StatusFailed); err != nil {
		logger.Error("Marking event failed", logger.Fields{"event_id": eventID}, err)
	}
	o.store.AppendLog(ctx, eventID, match.LogError, message)
	logger.IncrCounter("events_failed")
}

// writeSnapshots writes the end-of-run CSV artifacts. Snapshot
// failures are logged but do not fail the run: the store already
// holds everything.
func (o *Orchestrator) writeSnapshots(allMatches []match.Match, summaries []match.EventSummary) {
	paths, err := o.snapshots.WriteRun(allMatches, summaries)
	if err != nil {
		logger.Error("Writing snapshots failed", nil, err)
		return
	}
	logger.Info("Snapshots written", logger.Fields{
		"files":   paths,
		"matches": len(allMatches),
		"events":  len(summaries),
	})
}
