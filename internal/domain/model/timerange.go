package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTimeRange is returned when a time range name is not recognized.
var ErrUnknownTimeRange = errors.New("unknown time range")

// TimeRange selects the aggregation period a record set was collected over.
// The ranking engine treats it as an opaque upstream filter.
type TimeRange string

// Supported aggregation periods.
const (
	TimeRangeAll          TimeRange = "all"
	TimeRangeLastOneYear  TimeRange = "last_one_year"
	TimeRangeLastOneMonth TimeRange = "last_one_month"
	TimeRangeLastOneWeek  TimeRange = "last_one_week"
	TimeRangeLastOneDay   TimeRange = "last_one_day"
)

// TimeRanges returns every supported range, widest first.
func TimeRanges() []TimeRange {
	return []TimeRange{
		TimeRangeAll,
		TimeRangeLastOneYear,
		TimeRangeLastOneMonth,
		TimeRangeLastOneWeek,
		TimeRangeLastOneDay,
	}
}

// ParseTimeRange parses a snake_case range name. An empty string means all.
func ParseTimeRange(s string) (TimeRange, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TimeRangeAll, nil
	}
	for _, r := range TimeRanges() {
		if TimeRange(s) == r {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTimeRange, s)
}

func (r TimeRange) String() string { return string(r) }
