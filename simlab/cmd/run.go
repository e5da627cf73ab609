package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/xid"
	"github.com/sarchlab/simlab/config"
	"github.com/sarchlab/simlab/datarecording"
	"github.com/sarchlab/simlab/labs"
	"github.com/sarchlab/simlab/monitoring"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type runSettings struct {
	record      string
	monitor     bool
	monitorPort int
	open        bool
	logLevel    string
	traceEvents bool
}

var runFlags runSettings

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every point of an experiment file.",
	Long: "`run -c experiment.yaml` runs the lab of the experiment once per " +
		"seed and sweep combination and prints the metrics of each run.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("config")

		exp, err := config.Load(path)
		if err != nil {
			return err
		}

		return runExperiment(exp, runFlags, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "Experiment file")
	_ = runCmd.MarkFlagRequired("config")

	runCmd.Flags().StringVar(&runFlags.record, "record", "",
		"Record the results into this SQLite file (without extension)")
	runCmd.Flags().BoolVar(&runFlags.monitor, "monitor", false,
		"Serve the sweep progress over HTTP")
	runCmd.Flags().IntVar(&runFlags.monitorPort, "monitor-port", 0,
		"Port of the monitoring server, random if unset")
	runCmd.Flags().BoolVar(&runFlags.open, "open", false,
		"Open the monitoring page in a browser")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "",
		"Log level (panic, fatal, error, warn, info, debug, trace)")
	runCmd.Flags().BoolVar(&runFlags.traceEvents, "trace-events", false,
		"Log every event at debug level")
}

func newLogger(flagLevel, expLevel string) (*logrus.Logger, error) {
	level := "info"

	switch {
	case flagLevel != "":
		level = flagLevel
	case expLevel != "":
		level = expLevel
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(parsed)

	return logger, nil
}

type sweepRecorder struct {
	writer *datarecording.ResultWriter
	exec   *datarecording.ExecRecorder
}

func newSweepRecorder(path string, exp *config.Experiment) *sweepRecorder {
	if path == "" {
		return nil
	}

	recorder := datarecording.New(path)
	r := &sweepRecorder{
		writer: datarecording.NewResultWriter(recorder),
		exec:   datarecording.NewExecRecorder(recorder),
	}

	r.exec.Start()
	r.exec.Note("Lab", exp.Lab)
	r.exec.Note("Run Length", strconv.FormatUint(exp.RunLength, 10))

	return r
}

func runExperiment(
	exp *config.Experiment,
	settings runSettings,
	out io.Writer,
) error {
	lab, err := labs.Get(exp.Lab)
	if err != nil {
		return err
	}

	points, err := exp.Points()
	if err != nil {
		return err
	}

	logger, err := newLogger(settings.logLevel, exp.LogLevel)
	if err != nil {
		return err
	}

	recorder := newSweepRecorder(settings.record, exp)

	var monitor *monitoring.Monitor
	if settings.monitor {
		monitor = monitoring.NewMonitor().WithPortNumber(settings.monitorPort)
		url := monitor.StartServer()

		if settings.open {
			if err := monitoring.OpenBrowser(url); err != nil {
				logger.WithError(err).Warn("cannot open browser")
			}
		}
	}

	var sweepBar *monitoring.ProgressBar
	if monitor != nil {
		sweepBar = monitor.CreateProgressBar(
			exp.Lab+" sweep", uint64(len(points)))
	}

	for _, point := range points {
		summary, err := runPoint(lab, exp, point, settings, logger, monitor)
		if err != nil {
			return err
		}

		printSummary(out, summary)

		if recorder != nil {
			recorder.writer.RecordSummary(summary)
		}

		if monitor != nil {
			monitor.RecordRun(summary)
			sweepBar.IncrementFinished(1)
		}
	}

	if recorder != nil {
		recorder.writer.Flush()
		recorder.exec.End()
	}

	return nil
}

func runPoint(
	lab labs.Lab,
	exp *config.Experiment,
	point config.RunPoint,
	settings runSettings,
	logger *logrus.Logger,
	monitor *monitoring.Monitor,
) (datarecording.RunSummary, error) {
	runID := xid.New().String()
	runLog := logger.WithFields(logrus.Fields{
		"lab":  exp.Lab,
		"run":  runID,
		"seed": point.Seed,
	})

	opts := labs.Options{
		Seed:        point.Seed,
		RunLength:   exp.RunLength,
		BlipRate:    exp.BlipRate,
		Logger:      runLog,
		TraceEvents: settings.traceEvents,
	}

	if monitor != nil {
		bar := monitor.CreateProgressBar(
			fmt.Sprintf("%s #%d seed %d", exp.Lab, point.Index, point.Seed),
			exp.RunLength)
		defer monitor.CompleteProgressBar(bar)

		opts.OnProgress = bar.UpdateProgress
	}

	runLog.WithField("params", point.Params).Info("run started")

	res, err := lab.Run(point.Params, opts)
	if err != nil {
		return datarecording.RunSummary{}, fmt.Errorf(
			"%s run %d (seed %d): %w", exp.Lab, point.Index, point.Seed, err)
	}

	runLog.WithFields(logrus.Fields{
		"sim_time": res.SimTime,
		"events":   res.Events,
	}).Info("run finished")

	return datarecording.Summarize(
		runID, point.Seed, exp.RunLength, point.Params, res)
}

func printSummary(out io.Writer, s datarecording.RunSummary) {
	params, _ := s.Run.ParamMap()

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}

	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+formatValue(params[name]))
	}

	fmt.Fprintf(out, "%s seed=%d %s\n",
		s.Run.Lab, s.Run.Seed, strings.Join(parts, " "))

	for _, m := range s.Metrics {
		fmt.Fprintf(out, "  %-28s %s\n", m.Name, formatValue(m.Value))
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
