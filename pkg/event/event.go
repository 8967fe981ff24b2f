package event

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// KeyLayout is the minute-precision form of a start time. It doubles as the
// event identifier in the store.
const KeyLayout = "2006-01-02 15:04"

// MinDuration is the floor applied when a duration is decremented.
const MinDuration = 5

// MaxDuration caps a duration at roughly a century, keeping End well inside
// the range of time.Duration.
const MaxDuration = 100 * 365 * 24 * 60

type Event struct {
	Name     string
	Category string
	// StartTime is truncated to the minute.
	StartTime time.Time
	// Duration in minutes.
	Duration int
}

type Entry struct {
	Key   string
	Event Event
}

func NewEvent(name, category string, startTime time.Time, duration int) (Event, error) {
	if duration <= 0 {
		return Event{}, fmt.Errorf("duration must be a positive integer, got %d: %w", duration, ErrValidation)
	}
	if duration > MaxDuration {
		return Event{}, fmt.Errorf("duration must not exceed %d minutes, got %d: %w", MaxDuration, duration, ErrValidation)
	}
	if strings.TrimSpace(name) == "" {
		return Event{}, fmt.Errorf("name is required: %w", ErrValidation)
	}
	if strings.TrimSpace(category) == "" {
		return Event{}, fmt.Errorf("category is required: %w", ErrValidation)
	}
	return Event{
		Name:      name,
		Category:  category,
		StartTime: normalize(startTime),
		Duration:  duration,
	}, nil
}

func (e Event) Key() string {
	return Key(e.StartTime)
}

func (e Event) End() time.Time {
	return e.StartTime.Add(time.Duration(e.Duration) * time.Minute)
}

func (e Event) String() string {
	return fmt.Sprintf("Time: %s, Name: %s, Category: %s, Duration: %d minutes",
		e.StartTime.Format(KeyLayout), e.Name, e.Category, e.Duration)
}

func Key(t time.Time) string {
	return normalize(t).Format(KeyLayout)
}

func ParseKey(key string) (time.Time, error) {
	t, err := time.Parse(KeyLayout, strings.TrimSpace(key))
	if err != nil {
		return time.Time{}, fmt.Errorf("incorrect date format %q, expected YYYY-MM-DD HH:MM: %w", key, ErrValidation)
	}
	return t, nil
}

// overlaps reports whether [s1, e1) and [s2, e2) intersect. Touching ends do not.
func overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && e1.After(s2)
}

func normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// ParseDurationChange reads an absolute duration ("30") or a signed delta
// ("+10", "-10").
func ParseDurationChange(s string) (int, DurationMode, error) {
	s = strings.TrimSpace(s)
	mode := DurationAbsolute
	switch {
	case strings.HasPrefix(s, "+"):
		mode = DurationIncrement
		s = s[1:]
	case strings.HasPrefix(s, "-"):
		mode = DurationDecrement
		s = s[1:]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, mode, fmt.Errorf("invalid duration %q: %w", s, ErrValidation)
	}
	return n, mode, nil
}
