package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cfgFile string

// NewRootCommand builds the sitesentry command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "sitesentry",
		Short: "Website defacement monitoring engine",
		Long: `sitesentry periodically fetches monitored sites through a headless
browser, compares each fetch against its baseline, classifies
significant changes with a rule/semantic/LLM ensemble, and raises
alerts on suspected defacement.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cfgFile)
			if err != nil {
				return fmt.Errorf("initialize application: %w", err)
			}
			cmd.SetContext(contextWithApp(cmd.Context(), a))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, err := appFromContext(cmd.Context()); err == nil {
				a.Close()
			}
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config.yaml (default: $SITESENTRY_CONFIG_PATH or ./config.yaml)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newCheckCommand())
	root.AddCommand(newSitesCommand())
	root.AddCommand(newVersionCommand())

	return root
}

// Execute is the process entry point.
func Execute() error {
	return NewRootCommand().Execute()
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "sitesentry 0.1.0")
			return nil
		},
	}
}
