package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newRunCommand(g *globalOptions) *cobra.Command {
	o := compileOptions{passes: 1, compiler: "client"}
	var writePath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the plugin over a chunk graph snapshot",
		Example: `  delegatehoist run --config delegatehoist.yaml --snapshot app1-client.yaml
  delegatehoist run --snapshot app1-client.yaml --passes 2 --write out.yaml -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if o.passes < 1 {
				return fmt.Errorf("--passes must be at least 1, got %d", o.passes)
			}
			res, err := compileSnapshot(cmd.Context(), g, o)
			if err != nil {
				return err
			}
			if writePath != "" {
				if err := res.snap.WriteFile(writePath); err != nil {
					return err
				}
			}
			return printCompileResult(g.formatter(cmd), res)
		},
	}

	cmd.Flags().StringVar(&o.snapshotPath, "snapshot", "", "chunk graph snapshot (YAML or JSON)")
	cmd.Flags().IntVar(&o.passes, "passes", o.passes, "number of optimize passes")
	cmd.Flags().StringVar(&o.compiler, "compiler", o.compiler, `compiler name; "server" skips per-application classification`)
	cmd.Flags().StringVar(&writePath, "write", "", "write the resulting snapshot to this file")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

func printCompileResult(f *Formatter, res *compileResult) error {
	if f.Format != FormatTable {
		return f.Print(res)
	}

	for _, w := range res.Warnings {
		f.PrintWarning(w)
	}

	rows := make([][]string, 0, len(res.Passes))
	for _, p := range res.Passes {
		var connected, evicted, associated int
		for _, a := range p.Report.Applications {
			connected += a.Connected
			evicted += a.Evicted
			associated += a.Associated
		}
		result := p.Result
		if p.Report.Skipped != "" {
			result += " (" + string(p.Report.Skipped) + ")"
		}
		rows = append(rows, []string{
			strconv.FormatInt(p.Pass, 10),
			result,
			strconv.Itoa(p.Report.DelegatesConnected),
			strconv.Itoa(p.Report.DelegatesRemoved),
			strconv.Itoa(connected),
			strconv.Itoa(evicted),
			strconv.Itoa(associated),
		})
	}
	f.PrintTable(TableData{
		Headers: []string{"PASS", "RESULT", "DELEGATES ADDED", "DELEGATES REMOVED", "CONNECTED", "EVICTED", "ASSOCIATED"},
		Rows:    rows,
	})
	f.PrintSuccess("")

	chunkRows := make([][]string, 0, len(res.Graph.Chunks))
	for _, c := range res.Graph.Chunks {
		key := c.Name
		if key == "" {
			key = c.ID
		}
		chunkRows = append(chunkRows, []string{key, strconv.FormatBool(c.Runtime), strings.Join(c.Modules, ", ")})
	}
	f.PrintTable(TableData{
		Headers: []string{"CHUNK", "RUNTIME", "MODULES"},
		Rows:    chunkRows,
	})
	return nil
}
