package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"slices"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

type Renderer interface {
	Render(r Report) (string, error)
	// Extension is the file extension used when the report is written out.
	Extension() string
}

type TextRenderer struct{}

func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

func (TextRenderer) Extension() string {
	return "log"
}

func (TextRenderer) Render(r Report) (string, error) {
	lines := make([]string, 0, 3+len(r.Categories)+len(r.BusiestDays)+2*len(r.Trends))

	lines = append(lines, "Total Time Spent per Category:")
	for _, c := range r.Categories {
		lines = append(lines, fmt.Sprintf("Category: %s, Total Time: %d minutes", c.Category, c.Minutes))
	}

	lines = append(lines, "\nBusiest Days:")
	for _, d := range r.BusiestDays {
		lines = append(lines, fmt.Sprintf("Date: %s, Number of Events: %d", d.Date.Format(DateLayout), d.Events))
	}

	lines = append(lines, "\nTrends Over Time by Category:")
	for _, t := range r.Trends {
		lines = append(lines, fmt.Sprintf("Date: %s", t.Date.Format(DateLayout)))
		for _, c := range t.Categories {
			lines = append(lines, fmt.Sprintf("  Category: %s, Total Time: %d minutes", c.Category, c.Minutes))
		}
	}

	return strings.Join(lines, "\n"), nil
}

// CsvRenderer lays the trends out as a table: one row per day, one column per
// category, then a row of category totals.
type CsvRenderer struct{}

func NewCsvRenderer() *CsvRenderer {
	return &CsvRenderer{}
}

func (CsvRenderer) Extension() string {
	return "csv"
}

func (CsvRenderer) Render(r Report) (string, error) {
	categories := make([]string, 0, len(r.Categories))
	for _, c := range r.Categories {
		categories = append(categories, c.Category)
	}
	slices.Sort(categories)

	header := append([]string{"Date"}, categories...)
	header = append(header, "Events", "SUM")

	eventsPerDay := make(map[string]int, len(r.BusiestDays))
	for _, d := range r.BusiestDays {
		eventsPerDay[d.Date.Format(DateLayout)] = d.Events
	}

	data := make([][]string, 0, len(r.Trends)+2)
	data = append(data, header)
	for _, t := range r.Trends {
		date := t.Date.Format(DateLayout)
		row := []string{date}
		sum := 0
		for _, category := range categories {
			minutes := 0
			idx, found := slices.BinarySearchFunc(t.Categories, category, func(c CategoryTotal, name string) int {
				return strings.Compare(c.Category, name)
			})
			if found {
				minutes = t.Categories[idx].Minutes
			}
			sum += minutes
			row = append(row, strconv.Itoa(minutes))
		}
		row = append(row, strconv.Itoa(eventsPerDay[date]), strconv.Itoa(sum))
		data = append(data, row)
	}

	totals := []string{"Total"}
	sum, events := 0, 0
	for _, category := range categories {
		minutes := r.TotalFor(category)
		sum += minutes
		totals = append(totals, strconv.Itoa(minutes))
	}
	for _, d := range r.BusiestDays {
		events += d.Events
	}
	totals = append(totals, strconv.Itoa(events), strconv.Itoa(sum))
	data = append(data, totals)

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	if err := writer.WriteAll(data); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}
	return b.String(), nil
}
