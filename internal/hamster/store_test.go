package hamster_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Tiliavir/gitlab-time-sync/internal/hamster"
	"github.com/Tiliavir/gitlab-time-sync/internal/hamster/hamstertest"
)

func ts(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOpenMissingFile(t *testing.T) {
	_, err := hamster.Open(filepath.Join(t.TempDir(), "nope.db"))
	if err == nil {
		t.Fatal("expected error for missing database, got nil")
	}
}

func TestFetchDay(t *testing.T) {
	path := hamstertest.NewDB(t,
		hamstertest.Fact{Label: "#42 review", Category: "work", Start: "2015-10-12 14:00:00", End: "2015-10-12 15:30:00", Note: "with Bob"},
		hamstertest.Fact{Label: "#7 login", Start: "2015-10-12 09:00:00", End: "2015-10-12 10:00:00"},
		hamstertest.Fact{Label: "#9 running", Start: "2015-10-12 16:00:00"},
		hamstertest.Fact{Label: "#1 other day", Start: "2015-10-13 09:00:00", End: "2015-10-13 10:00:00"},
	)

	store, err := hamster.Open(path, hamster.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	got, err := store.FetchDay(context.Background(), time.Date(2015, 10, 12, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FetchDay: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("FetchDay returned %d rows, want 3", len(got))
	}

	// Ordered by start time.
	wantLabels := []string{"#7 login", "#42 review", "#9 running"}
	for i, want := range wantLabels {
		if got[i].Label != want {
			t.Errorf("row %d label = %q, want %q", i, got[i].Label, want)
		}
	}

	first := got[0]
	if !first.Start.Equal(ts("2015-10-12 09:00:00")) {
		t.Errorf("start = %v", first.Start)
	}
	if first.End == nil || !first.End.Equal(ts("2015-10-12 10:00:00")) {
		t.Errorf("end = %v", first.End)
	}
	if first.Note != nil {
		t.Errorf("note = %q, want nil", *first.Note)
	}
	if first.Category != "" {
		t.Errorf("category = %q, want empty", first.Category)
	}

	review := got[1]
	if review.Category != "work" {
		t.Errorf("category = %q, want %q", review.Category, "work")
	}
	if review.Note == nil || *review.Note != "with Bob" {
		t.Errorf("note = %v, want %q", review.Note, "with Bob")
	}

	if !got[2].Running() {
		t.Error("expected last row to be running")
	}
}

func TestFetchDayEmpty(t *testing.T) {
	path := hamstertest.NewDB(t)
	store, err := hamster.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	got, err := store.FetchDay(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("FetchDay: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("FetchDay returned %d rows, want 0", len(got))
	}
}

func TestFetchDayCorruptTimestamp(t *testing.T) {
	path := hamstertest.NewDB(t,
		hamstertest.Fact{Label: "#1 broken", Start: "2015-10-12 09:00:00", End: "2015-10-12 25:99:00"},
	)
	store, err := hamster.Open(path, hamster.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if _, err := store.FetchDay(context.Background(), time.Date(2015, 10, 12, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Fatal("expected error for malformed end time, got nil")
	}
}

func TestCurrentAndStop(t *testing.T) {
	path := hamstertest.NewDB(t,
		hamstertest.Fact{Label: "#1 done", Start: "2015-10-12 09:00:00", End: "2015-10-12 10:00:00"},
		hamstertest.Fact{Label: "#2 running", Start: "2015-10-12 11:00:00"},
	)

	ro, err := hamster.Open(path, hamster.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	cur, err := ro.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur == nil || cur.Label != "#2 running" {
		t.Fatalf("Current = %+v, want #2 running", cur)
	}
	if _, err := ro.StopCurrent(context.Background(), time.Now()); err == nil {
		t.Error("StopCurrent on read-only store: expected error")
	}
	ro.Close()

	rw, err := hamster.Open(path, hamster.Writable(), hamster.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("Open writable: %v", err)
	}
	defer rw.Close()

	at := ts("2015-10-12 12:15:00")
	stopped, err := rw.StopCurrent(context.Background(), at)
	if err != nil {
		t.Fatalf("StopCurrent: %v", err)
	}
	if stopped.End == nil || !stopped.End.Equal(at) {
		t.Errorf("stopped end = %v, want %v", stopped.End, at)
	}

	rows, err := rw.FetchDay(context.Background(), at)
	if err != nil {
		t.Fatalf("FetchDay: %v", err)
	}
	for _, r := range rows {
		if r.Running() {
			t.Errorf("row %q still running after StopCurrent", r.Label)
		}
	}

	if _, err := rw.StopCurrent(context.Background(), at); !errors.Is(err, hamster.ErrNoRunningActivity) {
		t.Errorf("second StopCurrent err = %v, want ErrNoRunningActivity", err)
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/test")
	got, err := hamster.ExpandPath("~/hamster.db")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/home/test/hamster.db" {
		t.Errorf("ExpandPath = %q", got)
	}
	if got, _ := hamster.ExpandPath("/abs/x.db"); got != "/abs/x.db" {
		t.Errorf("ExpandPath(abs) = %q", got)
	}
}
