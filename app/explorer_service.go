package app

import (
	"context"
	"fmt"
	"io"

	"dataprobe/adapters/excel"
	"dataprobe/domain/filter"
	"dataprobe/domain/summary"
	"dataprobe/domain/table"
	"dataprobe/internal"
	filterengine "dataprobe/internal/analysis/filter"
	"dataprobe/internal/analysis/planner"
	summaryengine "dataprobe/internal/analysis/summary"
	"dataprobe/internal/metrics"
)

// Loader turns an upload into a table
type Loader interface {
	Load(ctx context.Context, src io.Reader, format excel.Format) (*table.Table, error)
}

// Dataset is a loaded table together with its filter plan
type Dataset struct {
	Name  string
	Table *table.Table
	Plan  filter.Plan
}

// Outcome is everything derived from one set of selections
type Outcome struct {
	Result filter.Result
	Report *summary.Report
}

// ExplorerService runs the load → plan → filter → summarize pipeline
type ExplorerService struct {
	loader  Loader
	metrics metrics.Collector
	logger  *internal.Logger
}

// NewExplorerService creates the service; nil metrics or logger discard their output
func NewExplorerService(loader Loader, collector metrics.Collector, logger *internal.Logger) *ExplorerService {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	if logger == nil {
		logger = internal.NopLogger()
	}
	return &ExplorerService{
		loader:  loader,
		metrics: collector,
		logger:  logger.With("explorer"),
	}
}

// Load parses an upload and plans its filters
func (s *ExplorerService) Load(ctx context.Context, name string, src io.Reader, format excel.Format) (*Dataset, error) {
	timer := s.metrics.StartTimer("load_seconds")

	t, err := s.loader.Load(ctx, src, format)
	if err != nil {
		s.metrics.IncrementCounter("uploads_total", "format", string(format), "result", "error")
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	ds := &Dataset{Name: name, Table: t, Plan: planner.Plan(t)}

	s.metrics.IncrementCounter("uploads_total", "format", string(format), "result", "ok")
	s.metrics.RecordHistogram("load_seconds", timer.Stop(), "format", string(format))
	s.metrics.RecordHistogram("loaded_rows", float64(t.NumRows()))
	s.logger.Info("loaded %s: %d rows, %d columns", name, t.NumRows(), t.NumColumns())
	return ds, nil
}

// Recompute filters the table and summarizes what remains. It is synchronous and has no
// side effects on its inputs; callers invoke it on every selection change.
func (s *ExplorerService) Recompute(t *table.Table, plan filter.Plan, selections filter.Selections) (*Outcome, error) {
	timer := s.metrics.StartTimer("recompute_seconds")

	result, err := filterengine.Apply(t, plan, selections)
	if err != nil {
		s.metrics.IncrementCounter("recompute_errors_total")
		return nil, err
	}
	outcome := &Outcome{
		Result: result,
		Report: summaryengine.Summarize(result.Table),
	}

	status := result.Status().String()
	s.metrics.RecordHistogram("recompute_seconds", timer.Stop(), "status", status)
	s.metrics.RecordGauge("filtered_rows", float64(result.Table.NumRows()))
	if w := result.Warning(); w != nil {
		s.logger.Debug("recompute: %v", w)
	} else {
		s.logger.Trace("recompute: %d of %d rows (%s)", result.Table.NumRows(), result.SourceRows, status)
	}
	return outcome, nil
}
