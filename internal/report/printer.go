// Package report writes the human readable console output of a sync run.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/Tiliavir/gitlab-time-sync/internal/extract"
	"github.com/Tiliavir/gitlab-time-sync/internal/gitlab"
	"github.com/Tiliavir/gitlab-time-sync/internal/timecalc"
)

const headerStars = 20

// Printer renders report lines to a writer. Styling is dropped when the
// writer is not a color terminal.
type Printer struct {
	w io.Writer

	entry   lipgloss.Style
	warning lipgloss.Style
	total   lipgloss.Style
	header  lipgloss.Style
	ok      lipgloss.Style
	failed  lipgloss.Style
	faint   lipgloss.Style
}

// Option configures a Printer.
type Option func(*lipgloss.Renderer)

// WithPlainText disables all colors and text attributes.
func WithPlainText() Option {
	return func(r *lipgloss.Renderer) { r.SetColorProfile(termenv.Ascii) }
}

// New returns a Printer writing to w.
func New(w io.Writer, opts ...Option) *Printer {
	r := lipgloss.NewRenderer(w)
	for _, opt := range opts {
		opt(r)
	}
	return &Printer{
		w:       w,
		entry:   r.NewStyle().Foreground(lipgloss.Color("#4A90E2")),
		warning: r.NewStyle().Foreground(lipgloss.Color("#FFA500")),
		total:   r.NewStyle().Bold(true),
		header:  r.NewStyle().Foreground(lipgloss.Color("#874BFD")).Bold(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("#04B575")),
		failed:  r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		faint:   r.NewStyle().Foreground(lipgloss.Color("#626262")),
	}
}

func (p *Printer) println(s string) {
	fmt.Fprintln(p.w, s)
}

// DayHeader separates days of a multi-day run.
func (p *Printer) DayHeader(day string) {
	stars := strings.Repeat("*", headerStars)
	p.println(p.header.Render(fmt.Sprintf("%s %s %s", stars, day, stars)))
}

// Day prints the accepted entries of one day, one warning per skipped
// activity and the day total.
func (p *Printer) Day(res extract.Result) {
	for _, e := range res.Entries {
		tag := fmt.Sprintf("[%sh #%s]", timecalc.FormatHours(e.Hours), e.IssueID)
		p.println(fmt.Sprintf("* %s: %s", p.entry.Render(tag), e.Label))
		if e.Note != nil {
			for _, line := range strings.Split(*e.Note, "\n") {
				p.println("  " + p.faint.Render(line))
			}
		}
	}
	for _, s := range res.Skipped {
		p.println(p.warning.Render(fmt.Sprintf("** Warning: ignoring %q: %s", s.Label, s.Reason)))
	}
	if res.GrandTotal > 0 {
		p.println("")
		p.println(p.total.Render(fmt.Sprintf("Total : %sh", timecalc.FormatHours(res.GrandTotal))))
	}
}

// NoEntries reports a day without anything to send.
func (p *Printer) NoEntries() {
	p.println("")
	p.println("No time entries to send... have you been lazy ?")
	p.println("")
}

// DryRun notes that a day was not pushed.
func (p *Printer) DryRun() {
	p.println(p.faint.Render("-> Dry run, nothing sent"))
}

// Outcomes prints one line per pushed issue.
func (p *Printer) Outcomes(outcomes []gitlab.Outcome) {
	p.println("-> Sending entries")
	for _, o := range outcomes {
		switch {
		case o.Sent:
			line := fmt.Sprintf("  ✓ #%s %s", o.IssueID, o.Duration)
			if o.Stats != nil && o.Stats.HumanTotalTimeSpent != "" {
				line += p.faint.Render(fmt.Sprintf(" (total spent %s)", o.Stats.HumanTotalTimeSpent))
			}
			p.println(p.ok.Render(line))
		case o.Skipped:
			p.println(p.warning.Render(fmt.Sprintf("  - #%s skipped, rounds to %s", o.IssueID, o.Duration)))
		case o.Err != nil:
			p.println(p.failed.Render(fmt.Sprintf("  ! #%s %s: %v", o.IssueID, o.Duration, o.Err)))
		}
	}
}

// ConnectionError reports a day abandoned because GitLab was unreachable.
func (p *Printer) ConnectionError(err error) {
	p.println(p.failed.Render(fmt.Sprintf("Connection Error: %v", err)))
}

// Summary prints the run totals.
func (p *Printer) Summary(found, sent float64) {
	p.println("")
	p.println(p.total.Render(fmt.Sprintf("---> TOTAL: %sh found in Hamster - %sh sent to GitLab",
		timecalc.FormatHours(found), timecalc.FormatHours(sent))))
}
