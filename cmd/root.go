// Package cmd wires the CLI surface: crontab convergence commands and the
// appliance configuration commands, sharing one logging and metrics setup.
package cmd

import (
	"os"
	"sync"

	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/statesmith/statesmith/log/formatter"
	"github.com/statesmith/statesmith/log/hook"
	"github.com/statesmith/statesmith/prometheus_metrics"
)

var (
	debugFlag      bool
	jsonFlag       bool
	splitLogsFlag  bool
	logFormatFlag  string
	sentryDsnFlag  string
	promListenAddr string

	logger  *logrus.Entry
	metrics *prometheus_metrics.PrometheusMetrics

	setupOnce sync.Once
)

var rootCmd = &cobra.Command{
	Use:   "statesmith",
	Short: "Converge system crontabs and appliance configuration",
	Long: `statesmith converges per-user system crontabs against a desired
state and drives a network appliance's NITRO configuration API from a
data-driven object table.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&debugFlag, "debug", false, "enable debug logging")
	pf.BoolVar(&jsonFlag, "json", false, "enable JSON logging")
	pf.BoolVar(&splitLogsFlag, "split-logs", false, "send debug/info to stdout, warnings and errors to stderr")
	pf.StringVar(&logFormatFlag, "log-format", "", "render logs from a template of %field placeholders")
	pf.StringVar(&sentryDsnFlag, "sentry-dsn", "", "report errors to Sentry")
	pf.StringVar(&promListenAddr, "prometheus-listen-address", "", "serve /metrics on this address in watch mode")
}

func setup() (err error) {
	setupOnce.Do(func() {
		std := logrus.StandardLogger()

		if debugFlag {
			std.SetLevel(logrus.DebugLevel)
		}

		switch {
		case logFormatFlag != "":
			std.SetFormatter(&formatter.CustomFieldFormatter{LogFormat: logFormatFlag})
		case jsonFlag:
			std.SetFormatter(&logrus.JSONFormatter{})
		default:
			std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		}

		if splitLogsFlag {
			hook.RegisterSplitLogger(std, os.Stdout, os.Stderr)
		}

		if sentryDsnFlag != "" {
			var sentryHook *logrus_sentry.SentryHook
			sentryHook, err = logrus_sentry.NewSentryHook(sentryDsnFlag, []logrus.Level{
				logrus.ErrorLevel,
				logrus.FatalLevel,
				logrus.PanicLevel,
			})
			if err != nil {
				return
			}
			sentryHook.StacktraceConfiguration.Enable = true
			std.AddHook(sentryHook)
		}

		logger = logrus.NewEntry(std)
		metrics = prometheus_metrics.New(promListenAddr)
	})

	return err
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
