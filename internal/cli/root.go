package cli

import (
	"log/slog"
	"time"

	"github.com/me/timetable/internal/client"
	"github.com/me/timetable/internal/config"
	"github.com/me/timetable/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagTimeout   time.Duration
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	tc     *client.Client
)

// NewRootCmd creates the root cobra command for the timetable CLI.
func NewRootCmd() *cobra.Command {
	defaults := config.DefaultClientConfig()

	root := &cobra.Command{
		Use:   "timetable",
		Short: "Lecture timetable server and client",
		Long:  "timetable runs the lecture scheduling server and sends it add, remove, display and reschedule requests.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
			tc = client.New(flagServer, flagTimeout, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaults.Server, "Timetable server host:port (or TIMETABLE_SERVER env)")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", defaults.Timeout, "Connection timeout, 0 for none")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newServeCmd(),
		newAddCmd(),
		newRemoveCmd(),
		newDisplayCmd(),
		newEarlyCmd(),
		newStopCmd(),
		newSendCmd(),
	)

	return root
}
