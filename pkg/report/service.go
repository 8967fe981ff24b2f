package report

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/klokku/scheduler/internal/utils"
	"github.com/klokku/scheduler/pkg/event"
	log "github.com/sirupsen/logrus"
)

type Source interface {
	All() iter.Seq2[string, event.Event]
}

type Result struct {
	Report  Report
	Content string
	// Path of the written report file.
	Path string
}

type Service struct {
	source   Source
	clock    utils.Clock
	dir      string
	renderer Renderer
}

func NewService(source Source, clock utils.Clock, dir string, renderer Renderer) *Service {
	return &Service{
		source:   source,
		clock:    clock,
		dir:      dir,
		renderer: renderer,
	}
}

// GenerateReport aggregates the current events and writes the rendered report
// to a file named after today's date, replacing any report written earlier today.
func (s *Service) GenerateReport(ctx context.Context) (Result, error) {
	return s.generate(ctx, s.renderer)
}

// GenerateReportWith is GenerateReport with a renderer chosen by the caller.
func (s *Service) GenerateReportWith(ctx context.Context, renderer Renderer) (Result, error) {
	return s.generate(ctx, renderer)
}

func (s *Service) generate(ctx context.Context, renderer Renderer) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	r := Generate(s.source.All())
	content, err := renderer.Render(r)
	if err != nil {
		return Result{}, fmt.Errorf("failed to render report: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("could not create report directory %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, FileName(s.clock, renderer.Extension()))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return Result{}, fmt.Errorf("could not write report %s: %w", path, err)
	}
	log.Infof("Report written to %s", path)

	return Result{Report: r, Content: content, Path: path}, nil
}

// FileName is report_YYYY_MM_DD.<extension> for the clock's current day.
func FileName(clock utils.Clock, extension string) string {
	return fmt.Sprintf("report_%s.%s", clock.Now().Format("2006_01_02"), extension)
}

// RendererFor maps a configured format name to its renderer.
func RendererFor(format string) (Renderer, error) {
	switch format {
	case "", "text":
		return NewTextRenderer(), nil
	case "csv":
		return NewCsvRenderer(), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}
