// Package cli implements the delegatehoist command line.
package cli

import (
	"flag"

	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

type globalOptions struct {
	configFile string
	output     string
	zap        zap.Options
}

func (o *globalOptions) formatter(cmd *cobra.Command) *Formatter {
	format, _ := ParseFormat(o.output)
	return &Formatter{Format: format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
}

// NewRootCommand builds the delegatehoist command tree.
func NewRootCommand() *cobra.Command {
	o := &globalOptions{zap: zap.Options{Development: true}}

	cmd := &cobra.Command{
		Use:   "delegatehoist",
		Short: "Place module federation delegate modules in the runtime chunk",
		Long: `delegatehoist runs the delegate hoisting plugin against chunk graph
snapshots, outside of a bundler.

Options are read from --config (or ./delegatehoist.yaml) and may be
overridden with DELEGATEHOIST_RUNTIME, DELEGATEHOIST_CONTAINER,
DELEGATEHOIST_EAGER, DELEGATEHOIST_APPLICATIONNAME and DELEGATEHOIST_DEBUG.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log.SetLogger(zap.New(zap.UseFlagOptions(&o.zap), zap.WriteTo(cmd.ErrOrStderr())))
			_, err := ParseFormat(o.output)
			return err
		},
	}

	zapFlags := flag.NewFlagSet("zap", flag.ContinueOnError)
	o.zap.BindFlags(zapFlags)
	cmd.PersistentFlags().AddGoFlagSet(zapFlags)

	cmd.PersistentFlags().StringVar(&o.configFile, "config", "",
		"options file (default ./delegatehoist.yaml when present)")
	cmd.PersistentFlags().StringVarP(&o.output, "output", "o", "table",
		"output format: table, json, yaml")

	cmd.AddCommand(
		newRunCommand(o),
		newDiscoverCommand(o),
		newValidateCommand(o),
		newWatchCommand(o),
	)
	return cmd
}
