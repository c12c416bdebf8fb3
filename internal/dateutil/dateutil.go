// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dateutil parses the date and date-range arguments accepted by the
// CLI and builds dated feed URLs from the subscription link.
package dateutil

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// timeNow is swapped out by tests that validate against a fixed day.
var timeNow = time.Now

// dateFormats lists the accepted input layouts, tried in order.
var dateFormats = []string{
	"2006-01-02",
	"01-02-2006",
	"2006/01/02",
	"01/02/2006",
	"20060102",
}

// rangeSeparators are tried in order; the first one present splits the
// input into start and end dates.
var rangeSeparators = []string{" to ", ":", "..", "~"}

// DateRange is an inclusive span of days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range, rejecting a start after the end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.After(end) {
		return DateRange{}, fmt.Errorf("start date %s is after end date %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return DateRange{Start: start, End: end}, nil
}

// Days returns the number of days in the range, inclusive.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Dates returns every day in the range in ascending order.
func (r DateRange) Dates() []time.Time {
	var dates []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

func (r DateRange) String() string {
	if r.Start.Equal(r.End) {
		return r.Start.Format("2006-01-02")
	}
	return fmt.Sprintf("%s to %s", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
}

// ParseDate parses a single date in any accepted layout.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid date %q: supported formats are YYYY-MM-DD, MM-DD-YYYY, YYYY/MM/DD, MM/DD/YYYY, YYYYMMDD", s)
}

// ParseRange parses a single date or a "start SEP end" range. Accepted
// separators are " to ", ":", ".." and "~".
func ParseRange(s string) (DateRange, error) {
	s = strings.TrimSpace(s)
	for _, sep := range rangeSeparators {
		start, end, found := strings.Cut(s, sep)
		if !found {
			continue
		}
		startDate, err := ParseDate(start)
		if err != nil {
			return DateRange{}, err
		}
		endDate, err := ParseDate(end)
		if err != nil {
			return DateRange{}, err
		}
		return NewDateRange(startDate, endDate)
	}

	date, err := ParseDate(s)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: date, End: date}, nil
}

// Validate checks a range against operational limits. It returns whether
// the range is usable and a human-readable warning, which may be non-empty
// even for a valid range (dates near the one-year horizon).
func Validate(r DateRange, maxDays int) (bool, string) {
	if maxDays <= 0 {
		maxDays = 30
	}
	if days := r.Days(); days > maxDays {
		return false, fmt.Sprintf(
			"date range spans %d days, exceeding the maximum of %d; process a smaller range", days, maxDays)
	}

	now := timeNow()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if r.Start.After(today) {
		return false, fmt.Sprintf("start date %s is in the future", r.Start.Format("2006-01-02"))
	}

	if r.End.Before(today.AddDate(0, 0, -365)) {
		return true, fmt.Sprintf(
			"end date %s is more than a year ago; papers may no longer be available", r.End.Format("2006-01-02"))
	}
	return true, ""
}

var (
	loginKeyPattern  = regexp.MustCompile(`/login/([a-f0-9]+)`)
	dateParamPattern = regexp.MustCompile(`&date=[\d-]+`)
)

// BuildFeedURL turns the subscription link into a feed URL for one day.
// Subscription links come in two shapes: /login/<key> paths, which are
// rewritten to the sha_key query form, and URLs already carrying sha_key=,
// which get any stale date parameter replaced.
func BuildFeedURL(baseURL string, date time.Time) (string, error) {
	m := loginKeyPattern.FindStringSubmatch(baseURL)
	if m == nil {
		if !strings.Contains(baseURL, "sha_key=") {
			return "", fmt.Errorf("unrecognized feed URL format: %s", baseURL)
		}
		baseURL = dateParamPattern.ReplaceAllString(baseURL, "")
	}

	dateStr := date.Format("01-02-2006")
	if strings.Contains(baseURL, "sha_key=") {
		return baseURL + "&date=" + dateStr, nil
	}
	return fmt.Sprintf("https://www.scholar-inbox.com/login?sha_key=%s&date=%s", m[1], dateStr), nil
}
