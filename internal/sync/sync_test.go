package sync_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Tiliavir/gitlab-time-sync/internal/extract"
	"github.com/Tiliavir/gitlab-time-sync/internal/gitlab"
	"github.com/Tiliavir/gitlab-time-sync/internal/model"
	"github.com/Tiliavir/gitlab-time-sync/internal/report"
	gtssync "github.com/Tiliavir/gitlab-time-sync/internal/sync"
	"github.com/Tiliavir/gitlab-time-sync/internal/timecalc"
)

var today = time.Date(2015, 10, 14, 12, 0, 0, 0, time.UTC)

type fakeStore map[string][]model.Activity

func (f fakeStore) FetchDay(_ context.Context, day time.Time) ([]model.Activity, error) {
	return f[day.Format(timecalc.DayLayout)], nil
}

type failingStore struct{}

func (failingStore) FetchDay(context.Context, time.Time) ([]model.Activity, error) {
	return nil, errors.New("hamster: disk on fire")
}

// fakePusher records every push and answers with per-issue behaviour:
// notFound issues are skipped, and errs stops the sequence at that issue.
type fakePusher struct {
	pushed   [][]string
	notFound map[string]bool
	errs     map[string]error
}

func (f *fakePusher) PushTotals(_ context.Context, totals []model.IssueTotal) ([]gitlab.Outcome, error) {
	var ids []string
	var outcomes []gitlab.Outcome
	defer func() { f.pushed = append(f.pushed, ids) }()

	for _, t := range totals {
		ids = append(ids, t.IssueID)
		o := gitlab.Outcome{IssueID: t.IssueID, Hours: t.Hours, Duration: gitlab.FormatDuration(t.Hours)}
		if f.notFound[t.IssueID] {
			o.Err = &gitlab.Error{Kind: gitlab.KindIssueNotFound, IssueID: t.IssueID}
			outcomes = append(outcomes, o)
			continue
		}
		if err := f.errs[t.IssueID]; err != nil {
			o.Err = err
			outcomes = append(outcomes, o)
			return outcomes, err
		}
		o.Sent = true
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

type answers struct {
	replies []bool
	asked   int
}

func (a *answers) Confirm(string) (bool, error) {
	r := a.replies[a.asked]
	a.asked++
	return r, nil
}

func act(label, day string, startHour, minutes int) model.Activity {
	d, err := time.Parse(timecalc.DayLayout, day)
	if err != nil {
		panic(err)
	}
	start := d.Add(time.Duration(startHour) * time.Hour)
	end := start.Add(time.Duration(minutes) * time.Minute)
	return model.Activity{Label: label, Start: start, End: &end}
}

func resolver(t *testing.T) *timecalc.Resolver {
	t.Helper()
	r, err := timecalc.NewResolver([]string{"DD/MM/YY"},
		timecalc.WithClock(func() time.Time { return today }),
		timecalc.WithLocation(time.UTC),
	)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func between(t *testing.T, start, stop string) timecalc.Range {
	t.Helper()
	rng, err := resolver(t).Between(start, stop)
	if err != nil {
		t.Fatal(err)
	}
	return rng
}

func newSyncer(t *testing.T, store gtssync.Store, pusher gtssync.Pusher, opts gtssync.Options) (*gtssync.Syncer, *bytes.Buffer) {
	t.Helper()
	x, err := extract.New(`#(\d+)`)
	if err != nil {
		t.Fatal(err)
	}
	opts.Display = resolver(t).Display()
	var buf bytes.Buffer
	return gtssync.New(store, x, pusher, report.New(&buf, report.WithPlainText()), opts), &buf
}

var threeDays = fakeStore{
	"2015-10-12": {act("#42 a", "2015-10-12", 9, 78), act("#7 b", "2015-10-12", 11, 30), act("#42 c", "2015-10-12", 12, 42)},
	"2015-10-14": {act("#8 d", "2015-10-14", 9, 60)},
}

func TestRunAuto(t *testing.T) {
	pusher := &fakePusher{}
	s, out := newSyncer(t, threeDays, pusher, gtssync.Options{Auto: true})

	sum, err := s.Run(context.Background(), between(t, "12/10/15", "14/10/15"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := gtssync.Summary{Days: 3, DaysWithEntries: 2, FoundHours: 3.5, SentHours: 3.5}
	if diff := cmp.Diff(want, sum); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"42", "7"}, {"8"}}, pusher.pushed); diff != "" {
		t.Errorf("pushes mismatch (-want +got):\n%s", diff)
	}

	text := out.String()
	for _, s := range []string{
		"******************** 12/10/15 ********************",
		"******************** 13/10/15 ********************",
		"No time entries to send... have you been lazy ?",
		"---> TOTAL: 3.5h found in Hamster - 3.5h sent to GitLab",
	} {
		if !strings.Contains(text, s) {
			t.Errorf("output missing %q:\n%s", s, text)
		}
	}
}

func TestRunSingleDayHasNoHeader(t *testing.T) {
	rng, err := resolver(t).Single("12/10/15")
	if err != nil {
		t.Fatal(err)
	}
	s, out := newSyncer(t, threeDays, &fakePusher{}, gtssync.Options{Auto: true})
	if _, err := s.Run(context.Background(), rng); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "****") {
		t.Errorf("unexpected day header in single day run:\n%s", out.String())
	}
}

func TestRunDeclined(t *testing.T) {
	pusher := &fakePusher{}
	confirm := &answers{replies: []bool{true, false}}
	s, _ := newSyncer(t, threeDays, pusher, gtssync.Options{Confirm: confirm})

	sum, err := s.Run(context.Background(), between(t, "12/10/15", "14/10/15"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sum.Aborted {
		t.Error("expected Aborted after declined confirmation")
	}
	if confirm.asked != 2 {
		t.Errorf("asked %d times, want 2", confirm.asked)
	}
	if len(pusher.pushed) != 1 {
		t.Errorf("pushed %d days, want 1", len(pusher.pushed))
	}
	// The declined day was found but not sent.
	if sum.FoundHours != 3.5 || sum.SentHours != 2.5 {
		t.Errorf("found %v sent %v, want 3.5 and 2.5", sum.FoundHours, sum.SentHours)
	}
}

func TestRunDryRun(t *testing.T) {
	s, out := newSyncer(t, threeDays, nil, gtssync.Options{Auto: true, DryRun: true})
	sum, err := s.Run(context.Background(), between(t, "12/10/15", "14/10/15"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.FoundHours != 3.5 || sum.SentHours != 0 {
		t.Errorf("found %v sent %v, want 3.5 and 0", sum.FoundHours, sum.SentHours)
	}
	if strings.Count(out.String(), "Dry run") != 2 {
		t.Errorf("expected one dry run line per day with entries:\n%s", out.String())
	}
}

func TestRunNotFoundContinues(t *testing.T) {
	pusher := &fakePusher{notFound: map[string]bool{"42": true}}
	s, _ := newSyncer(t, threeDays, pusher, gtssync.Options{Auto: true})

	sum, err := s.Run(context.Background(), between(t, "12/10/15", "14/10/15"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"42"}, sum.NotFound); diff != "" {
		t.Errorf("NotFound mismatch (-want +got):\n%s", diff)
	}
	// #7 (0.5h) and #8 (1h) were confirmed, #42 (2h) was not.
	if sum.SentHours != 1.5 {
		t.Errorf("SentHours = %v, want 1.5", sum.SentHours)
	}
	if sum.FoundHours != 3.5 {
		t.Errorf("FoundHours = %v, want 3.5", sum.FoundHours)
	}
}

func TestRunSentCountsOnlyConfirmed(t *testing.T) {
	rejected := &gitlab.Error{Kind: gitlab.KindRejected, IssueID: "7", StatusCode: 403}
	pusher := &fakePusher{errs: map[string]error{"7": rejected}}
	s, _ := newSyncer(t, threeDays, pusher, gtssync.Options{Auto: true})

	sum, err := s.Run(context.Background(), between(t, "12/10/15", "14/10/15"))
	if !errors.Is(err, rejected) {
		t.Fatalf("Run err = %v, want rejected error", err)
	}
	if sum.SentHours != 2 {
		t.Errorf("SentHours = %v, want 2 (only #42 confirmed)", sum.SentHours)
	}
	if len(pusher.pushed) != 1 {
		t.Errorf("later days must not be pushed after a rejection, got %v", pusher.pushed)
	}
}

func TestRunAmbiguousAborts(t *testing.T) {
	ambiguous := &gitlab.Error{Kind: gitlab.KindAmbiguousIssue, IssueID: "42", Matches: 2}
	pusher := &fakePusher{errs: map[string]error{"42": ambiguous}}
	s, _ := newSyncer(t, threeDays, pusher, gtssync.Options{Auto: true})

	sum, err := s.Run(context.Background(), between(t, "12/10/15", "14/10/15"))
	if gitlab.Kind(err) != gitlab.KindAmbiguousIssue {
		t.Fatalf("Run err = %v, want ambiguous issue", err)
	}
	if sum.SentHours != 0 {
		t.Errorf("SentHours = %v, want 0", sum.SentHours)
	}
}

func TestRunConnectivityContinues(t *testing.T) {
	down := &gitlab.Error{Kind: gitlab.KindConnectivity, IssueID: "42", Err: errors.New("connection refused")}
	pusher := &fakePusher{errs: map[string]error{"42": down}}
	s, out := newSyncer(t, threeDays, pusher, gtssync.Options{Auto: true})

	sum, err := s.Run(context.Background(), between(t, "12/10/15", "14/10/15"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Failed != 1 {
		t.Errorf("Failed = %d, want 1", sum.Failed)
	}
	if diff := cmp.Diff([][]string{{"42"}, {"8"}}, pusher.pushed); diff != "" {
		t.Errorf("pushes mismatch (-want +got):\n%s", diff)
	}
	if sum.SentHours != 1 {
		t.Errorf("SentHours = %v, want 1", sum.SentHours)
	}
	if !strings.Contains(out.String(), "Connection Error: ") {
		t.Errorf("connection error not reported:\n%s", out.String())
	}
}

func TestRunIntegrityErrorStopsBeforePush(t *testing.T) {
	start := time.Date(2015, 10, 12, 10, 0, 0, 0, time.UTC)
	store := fakeStore{"2015-10-12": {{Label: "#1 broken", Start: start, End: &start}}}
	pusher := &fakePusher{}
	s, _ := newSyncer(t, store, pusher, gtssync.Options{Auto: true})

	_, err := s.Run(context.Background(), between(t, "12/10/15", "12/10/15"))
	var ierr *extract.IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("Run err = %v, want *extract.IntegrityError", err)
	}
	if len(pusher.pushed) != 0 {
		t.Error("nothing may be pushed after an integrity error")
	}
}

func TestRunStoreError(t *testing.T) {
	s, _ := newSyncer(t, failingStore{}, &fakePusher{}, gtssync.Options{Auto: true})
	if _, err := s.Run(context.Background(), between(t, "12/10/15", "")); err == nil {
		t.Fatal("expected store error")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _ := newSyncer(t, threeDays, &fakePusher{}, gtssync.Options{Auto: true})
	if _, err := s.Run(ctx, between(t, "12/10/15", "")); !errors.Is(err, context.Canceled) {
		t.Errorf("Run err = %v, want context.Canceled", err)
	}
}

func TestConfirmFunc(t *testing.T) {
	var asked string
	c := gtssync.ConfirmFunc(func(q string) (bool, error) {
		asked = q
		return true, nil
	})
	s, _ := newSyncer(t, threeDays, &fakePusher{}, gtssync.Options{Confirm: c})
	if _, err := s.Run(context.Background(), between(t, "14/10/15", "")); err != nil {
		t.Fatal(err)
	}
	if asked != gtssync.PushQuestion {
		t.Errorf("asked %q, want %q", asked, gtssync.PushQuestion)
	}
}
