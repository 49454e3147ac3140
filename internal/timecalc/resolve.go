package timecalc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ParseError reports a date token that matched none of the accepted forms.
type ParseError struct {
	Token   string
	Formats []string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("error while parsing date %q: accepted formats are %s, or a number of days ago",
		e.Token, strings.Join(e.Formats, ", "))
}

// Resolver turns user supplied date tokens into calendar days.
type Resolver struct {
	formats []Format
	now     func() time.Time
	loc     *time.Location
	natural *when.Parser
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithClock overrides the current time, used for "N days ago" and year-less formats.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

// WithLocation sets the location dates are resolved in. Defaults to time.Local.
func WithLocation(loc *time.Location) ResolverOption {
	return func(r *Resolver) { r.loc = loc }
}

// WithNaturalLanguage enables English phrases such as "yesterday" or
// "last friday" as a fallback after the configured formats.
func WithNaturalLanguage() ResolverOption {
	return func(r *Resolver) {
		w := when.New(nil)
		w.Add(en.All...)
		w.Add(common.All...)
		r.natural = w
	}
}

// NewResolver builds a Resolver from moment-style format strings. The first
// format is the canonical display format.
func NewResolver(formats []string, opts ...ResolverOption) (*Resolver, error) {
	parsed, err := ParseFormats(formats)
	if err != nil {
		return nil, err
	}
	r := &Resolver{formats: parsed, now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Display is the canonical format used to print dates.
func (r *Resolver) Display() Format {
	return r.formats[0]
}

// Today returns the current day at midnight.
func (r *Resolver) Today() time.Time {
	return StartOfDay(r.now().In(r.loc))
}

// Resolve interprets token as either a number of days before today or a
// date in one of the configured formats (first match wins). It reports
// false when nothing matches.
func (r *Resolver) Resolve(token string) (time.Time, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return time.Time{}, false
	}

	if isDigits(token) {
		n, err := strconv.Atoi(token)
		if err != nil {
			return time.Time{}, false
		}
		return r.Today().AddDate(0, 0, -n), true
	}

	now := r.now().In(r.loc)
	for _, f := range r.formats {
		if t, err := f.Parse(token, now, r.loc); err == nil {
			return t, true
		}
	}

	if r.natural != nil {
		res, err := r.natural.Parse(token, now)
		if err == nil && res != nil && coversToken(res.Text, token) {
			return StartOfDay(res.Time.In(r.loc)), true
		}
	}
	return time.Time{}, false
}

func (r *Resolver) parseError(token string) *ParseError {
	specs := make([]string, len(r.formats))
	for i, f := range r.formats {
		specs[i] = f.Spec
	}
	return &ParseError{Token: token, Formats: specs}
}

// Single resolves a one-day range.
func (r *Resolver) Single(token string) (Range, error) {
	d, ok := r.Resolve(token)
	if !ok {
		return Range{}, r.parseError(token)
	}
	return Range{Start: d, End: d, Mode: ModeSingle, today: r.Today()}, nil
}

// Between resolves an inclusive range. start is mandatory; an empty stop
// means today.
func (r *Resolver) Between(start, stop string) (Range, error) {
	from, ok := r.Resolve(start)
	if !ok {
		return Range{}, r.parseError(start)
	}

	rng := Range{Start: from, Mode: ModeBetween, today: r.Today()}
	if strings.TrimSpace(stop) == "" {
		rng.End = rng.today
		rng.Open = true
	} else {
		to, ok := r.Resolve(stop)
		if !ok {
			return Range{}, r.parseError(stop)
		}
		rng.End = to
	}

	if rng.Start.After(rng.End) {
		return Range{}, fmt.Errorf("start date %s is after end date %s",
			rng.Start.Format(DayLayout), rng.End.Format(DayLayout))
	}
	return rng, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

// coversToken reports whether a natural-language match spans the whole
// token rather than a fragment of it.
func coversToken(match, token string) bool {
	trim := func(s string) string {
		return strings.TrimFunc(s, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
	}
	return strings.EqualFold(trim(match), trim(token))
}
