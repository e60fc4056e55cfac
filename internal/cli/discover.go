package cli

import (
	"github.com/spf13/cobra"

	"github.com/anvil-platform/delegatehoist/internal/config"
	"github.com/anvil-platform/delegatehoist/internal/hoist"
	"github.com/anvil-platform/delegatehoist/internal/snapshot"
)

type discoveredModule struct {
	ID       string `json:"id"`
	Resource string `json:"resource"`
	Class    string `json:"class"`
}

func newDiscoverCommand(g *globalOptions) *cobra.Command {
	var snapshotPath string

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List the delegate modules found in a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := config.Load(g.configFile)
			if err != nil {
				return err
			}
			snap, err := snapshot.LoadFile(snapshotPath)
			if err != nil {
				return err
			}

			classifier := hoist.NewClassifier(opts)
			delegates := hoist.Discover(snap.Modules, opts.Remotes)
			found := make([]discoveredModule, 0, delegates.Len())
			for _, m := range delegates.Modules() {
				resource, _ := m.Resource()
				found = append(found, discoveredModule{
					ID:       m.Identifier(),
					Resource: resource,
					Class:    classifier.Classify(m).String(),
				})
			}

			f := g.formatter(cmd)
			if f.Format != FormatTable {
				return f.Print(found)
			}
			rows := make([][]string, 0, len(found))
			for _, d := range found {
				rows = append(rows, []string{d.ID, d.Resource, d.Class})
			}
			f.PrintTable(TableData{Headers: []string{"MODULE", "RESOURCE", "CLASS"}, Rows: rows})
			return nil
		},
	}

	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "chunk graph snapshot (YAML or JSON)")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}
