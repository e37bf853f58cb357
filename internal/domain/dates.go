package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var errMalformedDate = errors.New("malformed date token")

// calendarLayouts are the layouts seen in the basic-med date columns.
var calendarLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"20060102",
	"01022006",
	time.RFC3339,
}

// parseMonthYear parses an MMYYYY token into the first day of that month.
// Blank input returns (nil, nil).
func parseMonthYear(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if len(s) != 6 {
		return nil, errMalformedDate
	}
	month, errM := strconv.Atoi(s[:2])
	year, errY := strconv.Atoi(s[2:])
	if errM != nil || errY != nil || month < 1 || month > 12 || year < 1 {
		return nil, errMalformedDate
	}
	t := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return &t, nil
}

// parseMMDDYYYY parses an 8-digit MMDDYYYY token. Zero or out-of-range month
// and day values, and dates that do not exist (0231...), are malformed.
func parseMMDDYYYY(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if len(s) != 8 {
		return nil, errMalformedDate
	}
	month, errM := strconv.Atoi(s[:2])
	day, errD := strconv.Atoi(s[2:4])
	year, errY := strconv.Atoi(s[4:])
	if errM != nil || errD != nil || errY != nil || month < 1 || month > 12 || day < 1 || year < 1 {
		return nil, errMalformedDate
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return nil, errMalformedDate
	}
	return &t, nil
}

// parseCalendarDate accepts any of calendarLayouts.
func parseCalendarDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range calendarLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, errMalformedDate
}
