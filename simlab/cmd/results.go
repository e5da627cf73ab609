package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/simlab/datarecording"
	"github.com/sarchlab/simlab/monitoring"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Print or serve a recorded results file.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, _ := cmd.Flags().GetString("db")
		addr, _ := cmd.Flags().GetString("http")

		if !strings.HasSuffix(file, ".sqlite3") {
			file += ".sqlite3"
		}

		reader := datarecording.NewResultReader(datarecording.NewReader(file))
		defer reader.Close()

		if addr != "" {
			return monitoring.NewMonitor().WithRunSource(reader).Serve(addr)
		}

		return printResults(cmd.Context(), reader, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)

	resultsCmd.Flags().StringP("db", "d", "", "Results file")
	_ = resultsCmd.MarkFlagRequired("db")
	resultsCmd.Flags().String("http", "",
		"Serve the results as JSON on this address, for example :3001")
}

func printResults(
	ctx context.Context,
	source monitoring.RunSource,
	out io.Writer,
) error {
	if ctx == nil {
		ctx = context.Background()
	}

	runs, err := source.Runs(ctx)
	if err != nil {
		return err
	}

	for _, run := range runs {
		summary, found, err := source.Run(ctx, run.RunID)
		if err != nil {
			return err
		}

		if !found {
			return fmt.Errorf("run %s disappeared", run.RunID)
		}

		printSummary(out, summary)
	}

	return nil
}
