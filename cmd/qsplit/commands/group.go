package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theapemachine/qsplit"
)

func groupCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "group",
		Short: "Print the commuting groups of a tape's measurements as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				tape *qsplit.Tape
				err  error
			)
			if file == "" || file == "-" {
				tape, err = qsplit.DecodeTape(os.Stdin)
			} else {
				tape, err = qsplit.LoadTape(file)
			}
			if err != nil {
				return err
			}

			opts, err := cfg.GroupOptions()
			if err != nil {
				return err
			}

			p, err := qsplit.GroupMeasurements(tape.Measurements, opts...)
			if err != nil {
				return fmt.Errorf("group %s: %w", file, err)
			}
			return writeJSON(cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML tape file (stdin if empty or -)")
	return cmd
}
