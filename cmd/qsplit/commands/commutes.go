package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theapemachine/qsplit"
)

func commutesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "commutes <observable> <observable>",
		Short:   "Report whether two observables commute",
		Example: `  qsplit commutes "Z0 @ Z1" "X0 @ X1"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := qsplit.ParseObservable(args[0])
			if err != nil {
				return err
			}
			b, err := qsplit.ParseObservable(args[1])
			if err != nil {
				return err
			}

			rel, err := qsplit.RelationByName(cfg.Relation)
			if err != nil {
				return err
			}

			ok, err := rel(a, b)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	}
	return cmd
}
