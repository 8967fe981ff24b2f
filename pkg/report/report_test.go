package report

import (
	"context"
	"testing"
	"time"

	"github.com/klokku/scheduler/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(key string) time.Time {
	t, err := event.ParseKey(key)
	if err != nil {
		panic(err)
	}
	return t
}

func day(date string) time.Time {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		panic(err)
	}
	return t
}

// Test setup helper: a store holding the given events, in order
func setupStore(t *testing.T, events ...event.Event) *event.Store {
	store, err := event.NewStore(context.Background(), event.NewRepositoryStub(events...))
	require.NoError(t, err)
	return store
}

var sampleEvents = []event.Event{
	{Name: "Meeting", Category: "Work", StartTime: at("2024-09-04 12:00"), Duration: 30},
	{Name: "Break", Category: "Personal", StartTime: at("2024-09-04 15:00"), Duration: 45},
	{Name: "Date", Category: "Personal", StartTime: at("2024-09-05 18:00"), Duration: 80},
}

func TestGenerate(t *testing.T) {
	store := setupStore(t, sampleEvents...)

	r := Generate(store.All())

	assert.Equal(t, []CategoryTotal{
		{Category: "Work", Minutes: 30},
		{Category: "Personal", Minutes: 125},
	}, r.Categories)
	assert.Equal(t, []DayCount{
		{Date: day("2024-09-04"), Events: 2},
		{Date: day("2024-09-05"), Events: 1},
	}, r.BusiestDays)
	assert.Equal(t, []DayTrend{
		{Date: day("2024-09-04"), Categories: []CategoryTotal{{Category: "Personal", Minutes: 45}, {Category: "Work", Minutes: 30}}},
		{Date: day("2024-09-05"), Categories: []CategoryTotal{{Category: "Personal", Minutes: 80}}},
	}, r.Trends)
	assert.Equal(t, 30, r.TotalFor("Work"))
	assert.Equal(t, 125, r.TotalFor("Personal"))
	assert.Equal(t, 0, r.TotalFor("Sport"))
}

func TestGenerate_Empty(t *testing.T) {
	store := setupStore(t)

	r := Generate(store.All())

	assert.Empty(t, r.Categories)
	assert.Empty(t, r.BusiestDays)
	assert.Empty(t, r.Trends)
}

func TestGenerate_BusiestDays(t *testing.T) {
	// loaded out of chronological order on purpose
	store := setupStore(t,
		event.Event{Name: "a", Category: "X", StartTime: at("2024-03-02 09:00"), Duration: 10},
		event.Event{Name: "b", Category: "X", StartTime: at("2024-03-01 09:00"), Duration: 10},
		event.Event{Name: "c", Category: "Y", StartTime: at("2024-03-03 09:00"), Duration: 10},
		event.Event{Name: "d", Category: "Y", StartTime: at("2024-03-03 10:00"), Duration: 10},
		event.Event{Name: "e", Category: "Z", StartTime: at("2024-03-03 11:00"), Duration: 10},
		event.Event{Name: "f", Category: "X", StartTime: at("2024-03-01 10:00"), Duration: 10},
		event.Event{Name: "g", Category: "Z", StartTime: at("2024-03-04 10:00"), Duration: 10},
	)

	r := Generate(store.All())

	assert.Equal(t, []DayCount{
		{Date: day("2024-03-03"), Events: 3},
		{Date: day("2024-03-01"), Events: 2},
		// ties keep the order in which the days were first seen
		{Date: day("2024-03-02"), Events: 1},
		{Date: day("2024-03-04"), Events: 1},
	}, r.BusiestDays)

	dates := make([]time.Time, 0, len(r.Trends))
	for _, trend := range r.Trends {
		dates = append(dates, trend.Date)
	}
	assert.Equal(t, []time.Time{day("2024-03-01"), day("2024-03-02"), day("2024-03-03"), day("2024-03-04")}, dates)
	assert.Equal(t, []CategoryTotal{{Category: "Y", Minutes: 20}, {Category: "Z", Minutes: 10}}, r.Trends[2].Categories)
}

func TestGenerate_CategoryTotalsMatchDurations(t *testing.T) {
	var events []event.Event
	want := map[string]int{}
	start := at("2024-05-01 00:00")
	categories := []string{"Work", "Sport", "Family"}
	for i := range 30 {
		e := event.Event{
			Name:      "e",
			Category:  categories[i%len(categories)],
			StartTime: start.Add(time.Duration(i) * 3 * time.Hour),
			Duration:  5 + i*3,
		}
		events = append(events, e)
		want[e.Category] += e.Duration
	}
	store := setupStore(t, events...)

	r := Generate(store.All())

	require.Len(t, r.Categories, len(want))
	for _, c := range r.Categories {
		assert.Equal(t, want[c.Category], c.Minutes, c.Category)
	}
}
