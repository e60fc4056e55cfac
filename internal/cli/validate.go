package cli

import (
	"errors"

	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/anvil-platform/delegatehoist/internal/config"
)

func newValidateCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the options file and environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := g.formatter(cmd)

			opts, err := config.Load(g.configFile)
			if err != nil {
				return err
			}
			for _, w := range config.Warnings(opts) {
				f.PrintWarning(w)
			}

			if err := config.Validate(opts); err != nil {
				var agg utilerrors.Aggregate
				if errors.As(err, &agg) {
					for _, e := range agg.Errors() {
						f.PrintError(e.Error())
					}
				}
				return err
			}

			if f.Format != FormatTable {
				return f.Print(opts)
			}
			f.PrintSuccess("options valid")
			return nil
		},
	}
}
