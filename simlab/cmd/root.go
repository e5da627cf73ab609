// Package cmd provides the command-line interface for simlab.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	// Register every lab with the registry.
	_ "github.com/sarchlab/simlab/labs/all"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "simlab",
	Short: "simlab runs discrete-event queueing and network labs.",
	Long: `simlab runs discrete-event queueing and network labs. An ` +
		`experiment file picks a lab, its parameters, the seeds and the ` +
		`parameter sweep. Results can be recorded into SQLite and served ` +
		`over HTTP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}
