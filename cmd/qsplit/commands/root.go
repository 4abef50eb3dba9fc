package commands

import (
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/theapemachine/qsplit"
)

var (
	configPath string
	relation   string
	cfg        *qsplit.Config
)

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "qsplit",
		Short:         "Group non-commuting measurements of a quantum tape",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = qsplit.NewConfig()
			if configPath != "" {
				loaded, err := qsplit.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if relation != "" {
				cfg.Relation = relation
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&relation, "relation", "", "commutation relation: commuting or qubitwise")

	root.AddCommand(groupCmd(), commutesCmd(), versionCmd())
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
