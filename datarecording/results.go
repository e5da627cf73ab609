package datarecording

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/sarchlab/simlab/labs"
)

// Table names of a results file.
const (
	RunsTable    = "runs"
	MetricsTable = "metrics"
)

// RunEntry is a row of the runs table.
type RunEntry struct {
	RunID     string
	Lab       string
	Seed      int64
	RunLength int64
	Params    string
	SimTime   float64
	Events    int64
}

// MetricEntry is a row of the metrics table.
type MetricEntry struct {
	RunID string
	Lab   string
	Name  string
	Value float64
}

// RunSummary is a run with its metrics.
type RunSummary struct {
	Run     RunEntry
	Metrics []MetricEntry
}

// ParamMap decodes the parameters of the run.
func (r RunEntry) ParamMap() (map[string]float64, error) {
	params := map[string]float64{}
	if r.Params == "" {
		return params, nil
	}

	if err := json.Unmarshal([]byte(r.Params), &params); err != nil {
		return nil, fmt.Errorf("run %s: bad params: %w", r.RunID, err)
	}

	return params, nil
}

// A ResultWriter records lab results.
type ResultWriter struct {
	recorder DataRecorder
}

// NewResultWriter creates the result tables on the recorder.
func NewResultWriter(recorder DataRecorder) *ResultWriter {
	recorder.CreateTable(RunsTable, RunEntry{})
	recorder.CreateTable(MetricsTable, MetricEntry{})

	return &ResultWriter{recorder: recorder}
}

// Summarize turns a lab result into the rows that describe the run.
func Summarize(
	runID string,
	seed, runLength uint64,
	params map[string]float64,
	res labs.Result,
) (RunSummary, error) {
	if seed > math.MaxInt64 || runLength > math.MaxInt64 {
		return RunSummary{}, fmt.Errorf(
			"run %s: seed or run length overflows int64", runID)
	}

	encoded, err := json.Marshal(params)
	if err != nil {
		return RunSummary{}, fmt.Errorf("run %s: %w", runID, err)
	}

	summary := RunSummary{
		Run: RunEntry{
			RunID:     runID,
			Lab:       res.Lab,
			Seed:      int64(seed),
			RunLength: int64(runLength),
			Params:    string(encoded),
			SimTime:   res.SimTime,
			Events:    int64(res.Events),
		},
		Metrics: make([]MetricEntry, 0, len(res.Metrics)),
	}

	for _, m := range res.Metrics {
		summary.Metrics = append(summary.Metrics, MetricEntry{
			RunID: runID,
			Lab:   res.Lab,
			Name:  m.Name,
			Value: m.Value,
		})
	}

	return summary, nil
}

// Record buffers one run and its metrics.
func (w *ResultWriter) Record(
	runID string,
	seed, runLength uint64,
	params map[string]float64,
	res labs.Result,
) error {
	summary, err := Summarize(runID, seed, runLength, params, res)
	if err != nil {
		return err
	}

	w.RecordSummary(summary)

	return nil
}

// RecordSummary buffers a summarized run.
func (w *ResultWriter) RecordSummary(summary RunSummary) {
	w.recorder.InsertData(RunsTable, summary.Run)

	for _, m := range summary.Metrics {
		w.recorder.InsertData(MetricsTable, m)
	}
}

// Flush writes the buffered runs.
func (w *ResultWriter) Flush() {
	w.recorder.Flush()
}

// A ResultReader reads the runs of a results file.
type ResultReader struct {
	reader DataReader
}

// NewResultReader maps the result tables on the reader.
func NewResultReader(reader DataReader) *ResultReader {
	reader.MapTable(RunsTable, RunEntry{})
	reader.MapTable(MetricsTable, MetricEntry{})

	return &ResultReader{reader: reader}
}

// Runs lists the recorded runs in recording order.
func (r *ResultReader) Runs(ctx context.Context) ([]RunEntry, error) {
	rows, _, err := r.reader.Query(ctx, RunsTable, QueryParams{
		OrderBy: "rowid",
	})
	if err != nil {
		return nil, err
	}

	runs := make([]RunEntry, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, *row.(*RunEntry))
	}

	return runs, nil
}

// Run returns a run and its metrics. The bool is false if no run has the
// ID.
func (r *ResultReader) Run(ctx context.Context, runID string) (RunSummary, bool, error) {
	rows, _, err := r.reader.Query(ctx, RunsTable, QueryParams{
		Where: "RunID = ?",
		Args:  []any{runID},
	})
	if err != nil || len(rows) == 0 {
		return RunSummary{}, false, err
	}

	metrics, _, err := r.reader.Query(ctx, MetricsTable, QueryParams{
		Where:   "RunID = ?",
		Args:    []any{runID},
		OrderBy: "rowid",
	})
	if err != nil {
		return RunSummary{}, false, err
	}

	summary := RunSummary{Run: *rows[0].(*RunEntry)}
	for _, m := range metrics {
		summary.Metrics = append(summary.Metrics, *m.(*MetricEntry))
	}

	return summary, true, nil
}

// Close closes the underlying reader.
func (r *ResultReader) Close() error {
	return r.reader.Close()
}
