package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/dataset"
	"github.com/sells-group/coverage-cli/internal/metrics"
	"github.com/sells-group/coverage-cli/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve coverage summaries over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		m, err := metrics.New(nil)
		if err != nil {
			return eris.Wrap(err, "init metrics")
		}

		e, err := initEnv(ctx, "serve", m)
		if err != nil {
			return err
		}
		m.SetSnapshot(e.Holder.Current())
		e.Holder.Subscribe(m.SetSnapshot)

		watch, _ := cmd.Flags().GetBool("watch")
		if watch || cfg.Data.Watch {
			startWatcher(ctx, e.Loader, e.Holder)
		}

		srv := server.New(server.Config{
			Port:            resolvePort(servePort, cfg.Server.Port),
			CORSOrigins:     cfg.Server.CORSOrigins,
			RatePerSec:      cfg.Server.RatePerSec,
			Burst:           cfg.Server.Burst,
			RequestTimeout:  time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second,
			DefaultRadiusKM: cfg.Coverage.DefaultRadiusKM,
		}, e.Engine, e.Holder, e.Loader, m)

		return srv.ListenAndServe(ctx)
	},
}

// startWatcher reloads the snapshot when a local input changes. Remote inputs
// are not watched.
func startWatcher(ctx context.Context, loader *dataset.Loader, holder *dataset.Holder) {
	files := loader.LocalFiles()
	if len(files) == 0 {
		zap.L().Info("watch requested but no local inputs to watch")
		return
	}
	debounce := time.Duration(cfg.Data.WatchDebounceMS) * time.Millisecond
	w := dataset.NewWatcher(loader, holder, files, debounce)
	go func() {
		if err := w.Run(ctx); err != nil {
			zap.L().Error("dataset watcher stopped", zap.Error(err))
		}
	}()
	zap.L().Info("watching inputs", zap.Strings("files", files))
}

// resolvePort returns the flag port when set, otherwise the config port.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().Bool("watch", false, "reload when local input files change")
	rootCmd.AddCommand(serveCmd)
}
