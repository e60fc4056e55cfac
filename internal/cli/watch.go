package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

const watchDebounce = 100 * time.Millisecond

type watchOptions struct {
	compileOptions
	metricsAddr string
}

func newWatchCommand(g *globalOptions) *cobra.Command {
	o := watchOptions{compileOptions: compileOptions{passes: 1, compiler: "client"}}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompile a snapshot whenever it or the options file changes",
		Long: `watch runs a new compilation each time the snapshot or options file is
written. Every compilation discovers delegates afresh. Plugin metrics are
served on --metrics-bind-address at /metrics; "0" disables the endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), g, o, g.formatter(cmd))
		},
	}

	cmd.Flags().StringVar(&o.snapshotPath, "snapshot", "", "chunk graph snapshot (YAML or JSON)")
	cmd.Flags().IntVar(&o.passes, "passes", o.passes, "number of optimize passes per compilation")
	cmd.Flags().StringVar(&o.compiler, "compiler", o.compiler, "compiler name")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-bind-address", ":8080", "The address the metric endpoint binds to.")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

func runWatch(ctx context.Context, g *globalOptions, o watchOptions, f *Formatter) error {
	logger := log.FromContext(ctx).WithName("watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Directories are watched so that editors replacing files by rename are seen.
	watched := map[string]struct{}{}
	for _, path := range []string{o.snapshotPath, g.configFile} {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		watched[abs] = struct{}{}
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}

	eg, ctx := errgroup.WithContext(ctx)

	if o.metricsAddr != "" && o.metricsAddr != "0" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: o.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		eg.Go(func() error {
			logger.Info("serving metrics", "address", o.metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	compile := func() {
		res, err := compileSnapshot(ctx, g, o.compileOptions)
		if err != nil {
			logger.Error(err, "compilation failed")
			return
		}
		if err := printCompileResult(f, res); err != nil {
			logger.Error(err, "unable to print result")
		}
	}

	eg.Go(func() error {
		compile()

		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				abs, err := filepath.Abs(ev.Name)
				if err != nil {
					continue
				}
				if _, ok := watched[abs]; !ok || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				logger.V(1).Info("change detected", "file", ev.Name, "op", ev.Op.String())
				debounce = time.After(watchDebounce)
			case <-debounce:
				debounce = nil
				compile()
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Error(err, "watch error")
			}
		}
	})

	return eg.Wait()
}
