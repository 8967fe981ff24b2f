package report

import (
	"cmp"
	"iter"
	"slices"
	"time"

	"github.com/klokku/scheduler/pkg/event"
)

// DateLayout formats calendar days in every report.
const DateLayout = "2006-01-02"

type CategoryTotal struct {
	Category string
	// Minutes is the summed duration of the category's events.
	Minutes int
}

type DayCount struct {
	Date   time.Time
	Events int
}

type DayTrend struct {
	Date       time.Time
	Categories []CategoryTotal
}

type Report struct {
	// Categories keeps the order in which categories were first seen.
	Categories []CategoryTotal
	// BusiestDays is sorted by descending event count; ties keep first-seen order.
	BusiestDays []DayCount
	// Trends is chronological, with categories sorted by name within a day.
	Trends []DayTrend
}

// Generate aggregates events in a single pass.
func Generate(events iter.Seq2[string, event.Event]) Report {
	var (
		categories    []CategoryTotal
		categoryIndex = map[string]int{}
		days          []DayCount
		dayIndex      = map[time.Time]int{}
		trends        = map[time.Time]map[string]int{}
	)

	for _, e := range events {
		day := truncateToDay(e.StartTime)

		idx, ok := categoryIndex[e.Category]
		if !ok {
			idx = len(categories)
			categoryIndex[e.Category] = idx
			categories = append(categories, CategoryTotal{Category: e.Category})
		}
		categories[idx].Minutes += e.Duration

		idx, ok = dayIndex[day]
		if !ok {
			idx = len(days)
			dayIndex[day] = idx
			days = append(days, DayCount{Date: day})
		}
		days[idx].Events++

		if trends[day] == nil {
			trends[day] = map[string]int{}
		}
		trends[day][e.Category] += e.Duration
	}

	busiest := slices.Clone(days)
	slices.SortStableFunc(busiest, func(a, b DayCount) int {
		return cmp.Compare(b.Events, a.Events)
	})

	dayTrends := make([]DayTrend, 0, len(trends))
	for day, byCategory := range trends {
		totals := make([]CategoryTotal, 0, len(byCategory))
		for category, minutes := range byCategory {
			totals = append(totals, CategoryTotal{Category: category, Minutes: minutes})
		}
		slices.SortFunc(totals, func(a, b CategoryTotal) int {
			return cmp.Compare(a.Category, b.Category)
		})
		dayTrends = append(dayTrends, DayTrend{Date: day, Categories: totals})
	}
	slices.SortFunc(dayTrends, func(a, b DayTrend) int {
		return a.Date.Compare(b.Date)
	})

	return Report{
		Categories:  categories,
		BusiestDays: busiest,
		Trends:      dayTrends,
	}
}

// TotalFor returns the minutes recorded for category, or zero.
func (r Report) TotalFor(category string) int {
	for _, c := range r.Categories {
		if c.Category == category {
			return c.Minutes
		}
	}
	return 0
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
