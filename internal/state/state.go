// Package state keeps the plain text note about the last successful sync.
package state

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/Tiliavir/gitlab-time-sync/internal/timecalc"
)

const relPath = "gts/last_run.txt"

// LastRun describes the last sync that completed.
type LastRun struct {
	Range    string
	Finished time.Time
	Found    float64
	Sent     float64
}

// Path returns the note location under $XDG_STATE_HOME, creating parent
// directories as needed.
func Path() (string, error) {
	p, err := xdg.StateFile(relPath)
	if err != nil {
		return "", fmt.Errorf("state error resolving %s: %w", relPath, err)
	}
	return p, nil
}

// SaveLastRun atomically writes run to path.
func SaveLastRun(path string, run LastRun) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("state error creating directories: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, run.Range)
	fmt.Fprintf(&buf, "finished: %s\n", run.Finished.Format(time.RFC3339))
	fmt.Fprintf(&buf, "found: %sh\n", timecalc.FormatHours(run.Found))
	fmt.Fprintf(&buf, "sent: %sh\n", timecalc.FormatHours(run.Sent))

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("state error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("state error renaming temp file: %w", err)
	}
	return nil
}

// LoadLastRun reads the note at path. ok is false when no sync was recorded.
func LoadLastRun(path string) (run LastRun, ok bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return LastRun{}, false, nil
	}
	if err != nil {
		return LastRun{}, false, fmt.Errorf("state error reading %s: %w", path, err)
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	if sc.Scan() {
		run.Range = sc.Text()
	}
	for sc.Scan() {
		key, value, found := strings.Cut(sc.Text(), ": ")
		if !found {
			continue
		}
		switch key {
		case "finished":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				run.Finished = t
			}
		case "found":
			fmt.Sscanf(strings.TrimSuffix(value, "h"), "%g", &run.Found)
		case "sent":
			fmt.Sscanf(strings.TrimSuffix(value, "h"), "%g", &run.Sent)
		}
	}
	return run, true, sc.Err()
}
