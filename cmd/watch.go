package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/statesmith/statesmith/watch"
)

var (
	watchFile     string
	watchInterval time.Duration
	watchOneshot  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Converge crontabs against a desired-state file, continuously or once",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := watch.New(watchFile, watchInterval, newManager(), logger)

		if watchOneshot {
			return w.ConvergeOnce(cmd.Context())
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if promListenAddr != "" {
			go func() {
				if err := metrics.InitHTTPServer(); err != nil && err != http.ErrServerClosed {
					logger.Errorf("prometheus http server failed: %v", err)
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = metrics.ShutdownHTTPServer(shutdownCtx)
			}()
		}

		return w.Run(ctx)
	},
}

func init() {
	f := watchCmd.Flags()
	f.StringVar(&watchFile, "file", "", "desired-state YAML file")
	f.DurationVar(&watchInterval, "interval", 0, "also re-converge on this interval (0 disables)")
	f.BoolVar(&watchOneshot, "oneshot", false, "converge once and exit")
	_ = watchCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(watchCmd)
}
