package timecalc

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Format is a user-facing date format such as "DD/MM/YY", translated into
// Go layouts. Parsing uses unpadded layouts so "5/3" matches "DD/MM".
type Format struct {
	Spec    string
	parse   string
	display string
	hasYear bool
}

type formatToken struct {
	token   string
	parse   string
	display string
}

// Longest tokens first so "YYYY" wins over "YY" and "MMMM" over "MM".
var formatTokens = []formatToken{
	{"YYYY", "2006", "2006"},
	{"YY", "06", "06"},
	{"MMMM", "January", "January"},
	{"MMM", "Jan", "Jan"},
	{"MM", "1", "01"},
	{"M", "1", "1"},
	{"DD", "2", "02"},
	{"D", "2", "2"},
	{"dddd", "Monday", "Monday"},
	{"ddd", "Mon", "Mon"},
	{"HH", "15", "15"},
	{"H", "15", "15"},
	{"hh", "3", "03"},
	{"h", "3", "3"},
	{"mm", "4", "04"},
	{"m", "4", "4"},
	{"ss", "5", "05"},
	{"s", "5", "5"},
	{"A", "PM", "PM"},
	{"a", "pm", "pm"},
}

// ParseFormat translates a moment-style format. Text inside [brackets] is
// literal. The format must name at least a day and a month.
func ParseFormat(spec string) (Format, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Format{}, fmt.Errorf("empty date format")
	}

	f := Format{Spec: spec}
	var parse, display strings.Builder
	var hasDay, hasMonth bool

	for i := 0; i < len(spec); {
		if spec[i] == '[' {
			end := strings.IndexByte(spec[i+1:], ']')
			if end < 0 {
				return Format{}, fmt.Errorf("date format %q: unterminated [", spec)
			}
			lit := spec[i+1 : i+1+end]
			if err := checkLiteral(spec, lit); err != nil {
				return Format{}, err
			}
			parse.WriteString(lit)
			display.WriteString(lit)
			i += end + 2
			continue
		}

		matched := false
		for _, tok := range formatTokens {
			if strings.HasPrefix(spec[i:], tok.token) {
				parse.WriteString(tok.parse)
				display.WriteString(tok.display)
				switch tok.token[0] {
				case 'Y':
					f.hasYear = true
				case 'M':
					hasMonth = true
				case 'D':
					hasDay = true
				}
				i += len(tok.token)
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		if err := checkLiteral(spec, spec[i:i+1]); err != nil {
			return Format{}, err
		}
		parse.WriteByte(spec[i])
		display.WriteByte(spec[i])
		i++
	}

	if !hasDay || !hasMonth {
		return Format{}, fmt.Errorf("date format %q must contain a day (D, DD) and a month (M, MM, MMM, MMMM)", spec)
	}
	f.parse = parse.String()
	f.display = display.String()
	return f, nil
}

// Go layouts treat digits as reference values; literal digits would be
// misread as layout elements.
func checkLiteral(spec, lit string) error {
	for _, r := range lit {
		if unicode.IsDigit(r) {
			return fmt.Errorf("date format %q: literal digits are not supported", spec)
		}
	}
	return nil
}

// HasYear reports whether the format carries a year component.
func (f Format) HasYear() bool {
	return f.hasYear
}

// Layout returns the Go layout used to display dates in this format.
func (f Format) Layout() string {
	return f.display
}

// Parse parses s with this format in loc. A format without a year yields a
// date in the year of now.
func (f Format) Parse(s string, now time.Time, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(f.parse, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, err
	}
	year := t.Year()
	if !f.hasYear {
		year = now.Year()
	}
	d := time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, loc)
	if d.Month() != t.Month() || d.Day() != t.Day() {
		return time.Time{}, fmt.Errorf("%q: day %d does not exist in %s %d", s, t.Day(), t.Month(), year)
	}
	return d, nil
}

// Format renders t in this format.
func (f Format) Format(t time.Time) string {
	return t.Format(f.display)
}

// ParseFormats translates a list of formats, e.g. split from a comma
// separated config value. Blank entries are ignored.
func ParseFormats(specs []string) ([]Format, error) {
	var formats []Format
	for _, s := range specs {
		if strings.TrimSpace(s) == "" {
			continue
		}
		f, err := ParseFormat(s)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("no date formats configured")
	}
	return formats, nil
}
