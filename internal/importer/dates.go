package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2-Jan-2006",
	"2006-01-02",
	"2 Jan 2006",
	"02/01/2006",
}

// parseDate accepts DD-Mon-YYYY, ISO dates and timestamps, and epoch
// milliseconds. The result is the start of that day in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return startOfDay(t, loc), nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return startOfDay(t, loc), nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, loc); err == nil {
		return startOfDay(t, loc), nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil && len(s) >= 10 {
		return fromEpochMillis(ms, loc), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func fromEpochMillis(ms int64, loc *time.Location) time.Time {
	return startOfDay(time.UnixMilli(ms), loc)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
