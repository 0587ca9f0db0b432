package cli

import (
	"github.com/spf13/cobra"
	"github.com/untillpro/goutils/cobrau"
	"github.com/untillpro/goutils/logger"
)

// Execute runs the hto CLI. An interrupt cancels the command context, which
// stops a running watch loop.
func Execute() error {
	return cobrau.ExecCommandAndCatchInterrupt(NewRootCmd())
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hto",
		Short: "Generate OpenAPI documents from type-level route tables",
		Long: "hto statically derives an OpenAPI 3.0 or 3.1 document from the route table type " +
			"of a web application, without running it.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			setVerbose(verbose)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// Convert Cobra flag errors (like unknown flags) into friendly usage errors
	// that also show the command's help text.
	cmd.SetFlagErrorFunc(flagError)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON); discovered when omitted")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")

	for _, sub := range []*cobra.Command{newGenerateCmd(), newWatchCmd(), newInitCmd()} {
		sub.SetFlagErrorFunc(flagError)
		cmd.AddCommand(sub)
	}

	return cmd
}

func flagError(c *cobra.Command, err error) error {
	return usagef("%v\n\n%s", err, c.UsageString())
}

func setVerbose(verbose bool) {
	if verbose {
		logger.SetLogLevel(logger.LogLevelVerbose)
		return
	}
	logger.SetLogLevel(logger.LogLevelInfo)
}
