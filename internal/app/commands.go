package app

import (
	"errors"
	"fmt"

	"github.com/klokku/scheduler/pkg/event"
	"github.com/klokku/scheduler/pkg/report"
	"github.com/urfave/cli/v2"
)

var ErrStartWithMultipleKeys = errors.New("cannot use --start with multiple events")

func (a *Application) commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "add",
			Usage: "Add a new event",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Usage: "name of the event", Required: true},
				&cli.StringFlag{Name: "category", Usage: "category of the event", Required: true},
				&cli.StringFlag{Name: "start", Usage: `start time of the event ("YYYY-MM-DD HH:MM")`, Required: true},
				&cli.IntFlag{Name: "duration", Usage: "duration of the event in minutes", Required: true},
			},
			Action: a.addEvent,
		},
		{
			Name:  "update",
			Usage: "Update one or more events identified by --keys",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "keys", Usage: `start times of the events to update ("YYYY-MM-DD HH:MM"), repeatable`, Required: true},
				&cli.StringFlag{Name: "name", Usage: "new name"},
				&cli.StringFlag{Name: "category", Usage: "new category"},
				&cli.StringFlag{Name: "start", Usage: "new start time, only with a single key"},
				&cli.StringFlag{Name: "duration", Usage: "new duration in minutes, or a change such as +10 or -10"},
			},
			Action: a.updateEvents,
		},
		{
			Name:  "delete",
			Usage: "Delete the event starting at --start",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "start", Usage: `start time of the event ("YYYY-MM-DD HH:MM")`, Required: true},
			},
			Action: a.deleteEvent,
		},
		{
			Name:   "list",
			Usage:  "List all events",
			Action: a.listEvents,
		},
		{
			Name:  "filter",
			Usage: "Filter events by category",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "category", Usage: "category to match, case-insensitive", Required: true},
			},
			Action: a.filterEvents,
		},
		{
			Name:  "report",
			Usage: "Generate a report on events",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "format", Usage: "text or csv (defaults to report.format)"},
			},
			Action: a.generateReport,
		},
		{
			Name:  "serve",
			Usage: "Serve the events over HTTP",
			Action: func(c *cli.Context) error {
				return Serve(c.Context, a.deps)
			},
		},
	}
}

func (a *Application) addEvent(c *cli.Context) error {
	start, err := event.ParseKey(c.String("start"))
	if err != nil {
		return err
	}
	_, err = a.deps.EventStore.Create(c.Context, c.String("name"), c.String("category"), start, c.Int("duration"))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Event added successfully.")
	return nil
}

func (a *Application) updateEvents(c *cli.Context) error {
	keys := c.StringSlice("keys")
	if len(keys) > 1 && c.IsSet("start") {
		return ErrStartWithMultipleKeys
	}

	req, err := event.DTOToUpdateRequest(event.UpdateRequestDTO{
		Keys:      keys,
		Name:      c.String("name"),
		Category:  c.String("category"),
		StartTime: c.String("start"),
		Duration:  c.String("duration"),
	})
	if err != nil {
		return err
	}

	outcomes, err := a.deps.EventStore.Update(c.Context, req)
	if err != nil {
		return err
	}
	for _, o := range outcomes {
		switch {
		case o.Status == event.OutcomeNotFound:
			fmt.Fprintf(a.out, "Event starting at %s not found.\n", o.Key)
		case o.Event.Key() != o.Key:
			fmt.Fprintf(a.out, "Event starting at %s moved to %s and updated successfully.\n", o.Key, o.Event.Key())
		default:
			if o.StartIgnored {
				fmt.Fprintf(a.out, "Skipping new start for %s: a new start is not allowed for multiple updates.\n", o.Key)
			}
			fmt.Fprintf(a.out, "Event starting at %s updated successfully.\n", o.Key)
		}
	}
	return nil
}

func (a *Application) deleteEvent(c *cli.Context) error {
	start, err := event.ParseKey(c.String("start"))
	if err != nil {
		return err
	}
	if err := a.deps.EventStore.Delete(c.Context, event.Key(start)); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Event deleted successfully.")
	return nil
}

func (a *Application) listEvents(_ *cli.Context) error {
	entries := a.deps.EventStore.List()
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No events scheduled.")
		return nil
	}
	for _, entry := range entries {
		fmt.Fprintln(a.out, entry.Event.String())
	}
	return nil
}

func (a *Application) filterEvents(c *cli.Context) error {
	category := c.String("category")
	found := false
	for _, e := range a.deps.EventStore.FilterByCategory(category) {
		fmt.Fprintln(a.out, e.String())
		found = true
	}
	if !found {
		fmt.Fprintf(a.out, "No events found for the category: %s\n", category)
	}
	return nil
}

func (a *Application) generateReport(c *cli.Context) error {
	var (
		result report.Result
		err    error
	)
	if format := c.String("format"); format != "" {
		renderer, rErr := report.RendererFor(format)
		if rErr != nil {
			return rErr
		}
		result, err = a.deps.ReportService.GenerateReportWith(c.Context, renderer)
	} else {
		result, err = a.deps.ReportService.GenerateReport(c.Context)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, result.Content)
	fmt.Fprintf(a.out, "Report generated and saved as %s.\n", result.Path)
	return nil
}
