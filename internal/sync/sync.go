// Package sync drives a run over a range of days: read, extract, report,
// confirm and push.
package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/Tiliavir/gitlab-time-sync/internal/extract"
	"github.com/Tiliavir/gitlab-time-sync/internal/gitlab"
	"github.com/Tiliavir/gitlab-time-sync/internal/model"
	"github.com/Tiliavir/gitlab-time-sync/internal/report"
	"github.com/Tiliavir/gitlab-time-sync/internal/timecalc"
)

// PushQuestion is asked before each day's totals are sent.
const PushQuestion = "Synchronize those tasks ?"

// Store reads one day of activities.
type Store interface {
	FetchDay(ctx context.Context, day time.Time) ([]model.Activity, error)
}

// Pusher submits per-issue totals.
type Pusher interface {
	PushTotals(ctx context.Context, totals []model.IssueTotal) ([]gitlab.Outcome, error)
}

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(question string) (bool, error)

func (f ConfirmFunc) Confirm(question string) (bool, error) { return f(question) }

// Options configures a Syncer.
type Options struct {
	// Auto pushes every day without asking.
	Auto bool
	// DryRun extracts and reports but never pushes.
	DryRun bool
	// Confirm is required unless Auto is set.
	Confirm Confirmer
	// Display formats day headers.
	Display timecalc.Format
	Logger  *slog.Logger
}

// Summary accumulates a run.
//
// SentHours only counts totals GitLab confirmed with 201 Created.
type Summary struct {
	Days            int
	DaysWithEntries int
	FoundHours      float64
	SentHours       float64
	NotFound        []string
	Failed          int
	Aborted         bool
}

// Syncer runs the per-day pipeline.
type Syncer struct {
	store     Store
	extractor *extract.Extractor
	pusher    Pusher
	printer   *report.Printer
	opts      Options
	log       *slog.Logger
}

// New returns a Syncer. pusher may be nil for dry runs.
func New(store Store, extractor *extract.Extractor, pusher Pusher, printer *report.Printer, opts Options) *Syncer {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{
		store:     store,
		extractor: extractor,
		pusher:    pusher,
		printer:   printer,
		opts:      opts,
		log:       log,
	}
}

// Run processes every day of rng in ascending order. A declined
// confirmation ends the run without error and sets Summary.Aborted. A
// connection error ends the current day only. Store errors, integrity
// errors and fatal GitLab errors are returned along with the summary so far;
// pushes already made stay in place.
func (s *Syncer) Run(ctx context.Context, rng timecalc.Range) (Summary, error) {
	var (
		sum   Summary
		found float64
		sent  float64
	)
	finish := func() Summary {
		sum.FoundHours = timecalc.RoundHours(found)
		sum.SentHours = timecalc.RoundHours(sent)
		return sum
	}

	for _, day := range rng.Days() {
		if err := ctx.Err(); err != nil {
			return finish(), err
		}
		sum.Days++
		if rng.Mode == timecalc.ModeBetween {
			s.printer.DayHeader(s.opts.Display.Format(day))
		}

		rows, err := s.store.FetchDay(ctx, day)
		if err != nil {
			return finish(), err
		}
		res, err := s.extractor.Extract(rows)
		if err != nil {
			return finish(), err
		}
		s.printer.Day(res)
		s.log.Debug("day extracted", "date", day.Format(timecalc.DayLayout),
			"rows", len(rows), "entries", len(res.Entries), "skipped", len(res.Skipped))

		if res.Empty() {
			s.printer.NoEntries()
			continue
		}
		sum.DaysWithEntries++
		found += res.ExactTotal

		if !s.opts.Auto {
			ok, err := s.opts.Confirm.Confirm(PushQuestion)
			if err != nil {
				return finish(), err
			}
			if !ok {
				sum.Aborted = true
				s.log.Info("run declined", "date", day.Format(timecalc.DayLayout))
				break
			}
		}

		if s.opts.DryRun {
			s.printer.DryRun()
			continue
		}

		outcomes, err := s.pusher.PushTotals(ctx, res.Totals)
		s.printer.Outcomes(outcomes)
		for _, o := range outcomes {
			if o.Sent {
				sent += o.Hours
			}
			if gitlab.Kind(o.Err) == gitlab.KindIssueNotFound {
				sum.NotFound = append(sum.NotFound, o.IssueID)
			}
		}
		if err != nil {
			if gitlab.Kind(err) == gitlab.KindConnectivity && ctx.Err() == nil {
				s.printer.ConnectionError(err)
				s.log.Warn("day abandoned", "date", day.Format(timecalc.DayLayout), "err", err)
				sum.Failed++
				continue
			}
			return finish(), err
		}
	}

	out := finish()
	s.printer.Summary(out.FoundHours, out.SentHours)
	return out, nil
}
