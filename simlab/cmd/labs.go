package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/sarchlab/simlab/labs"
	"github.com/spf13/cobra"
)

var labsCmd = &cobra.Command{
	Use:   "labs",
	Short: "List the labs and their parameters.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return listLabs(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(labsCmd)
}

func listLabs(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	for _, name := range labs.Names() {
		lab, err := labs.Get(name)
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "%s\t%s\n", lab.Name, lab.Description)

		for _, p := range lab.Params {
			fmt.Fprintf(w, "  %s\t%s\t%s\n",
				p.Name, strconv.FormatFloat(p.Default, 'g', -1, 64), p.Doc)
		}
	}

	return w.Flush()
}
