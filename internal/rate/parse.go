package rate

import (
	"fmt"
	"strings"
	"time"
)

const feedSeparator = "|"

// dateLayouts are tried in order when converting a feed date.
var dateLayouts = []string{"1/2/2006", "2006-01-02"}

// LineError describes one malformed feed line.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// ParseError collects every malformed line of a feed.
type ParseError struct {
	Lines []LineError
}

func (e *ParseError) Error() string {
	const shown = 3
	parts := make([]string, 0, shown)
	for i, le := range e.Lines {
		if i == shown {
			break
		}
		parts = append(parts, le.Error())
	}
	msg := fmt.Sprintf("parse feed: %d malformed line(s): %s", len(e.Lines), strings.Join(parts, "; "))
	if len(e.Lines) > shown {
		msg += "; ..."
	}
	return msg
}

// Parse turns a raw yield table into records in feed order. The first line is
// a header. Rate values are kept verbatim so that reformatting never looks
// like an amendment. If any line is malformed no records are returned and the
// error is a *ParseError listing all of them.
func Parse(raw string, now time.Time) ([]Record, error) {
	now = now.UTC()
	timeAdded := now.Format(TimeAddedFormat)

	lines := strings.Split(raw, "\n")
	records := make([]Record, 0, len(lines))
	var perr ParseError

	for i, line := range lines {
		if i == 0 {
			continue
		}
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, feedSeparator)
		date := fields[0]
		if len(fields) < 2 {
			perr.Lines = append(perr.Lines, LineError{Line: i + 1, Text: line, Err: fmt.Errorf("no rate values")})
			continue
		}

		iso, err := parseDate(date)
		if err != nil {
			perr.Lines = append(perr.Lines, LineError{Line: i + 1, Text: line, Err: err})
			continue
		}

		records = append(records, Record{
			Date:      date,
			DateISO:   iso,
			Rates:     fields[1:],
			DateAdded: now,
			TimeAdded: timeAdded,
		})
	}

	if len(perr.Lines) > 0 {
		return nil, &perr
	}
	return records, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
