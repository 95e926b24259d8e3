package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/fjmerc/studiodesk/internal/upload"
)

// newRootCmd builds the command tree. The returned app is populated when a
// command runs.
func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, *app) {
	a := &app{
		stdout:  stdout,
		stderr:  stderr,
		tracker: upload.NewTracker(nil),
	}

	rootCmd := &cobra.Command{
		Use:   "studiodesk",
		Short: "StudioDesk CLI - manage the studio site from the command line",
		Long: `StudioDesk CLI talks to the studio admin API using the session cookies
issued at sign-in. Expired sessions are refreshed automatically.

Configuration:
  Set STUDIODESK_* environment variables (or put them in a .env file), or use
  the --url, --data-dir, --log-level and --metrics-addr flags.

Examples:
  studiodesk whoami
  studiodesk categories list --page 1 --size 20
  studiodesk clients upload-logo 42 ./logo.png
  studiodesk galleries upload 7 ./shots/*.jpg`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.flags.url, "url", "", "API base URL (or STUDIODESK_API_URL env)")
	flags.StringVar(&a.flags.dataDir, "data-dir", "", "Directory for client state (or STUDIODESK_DATA_DIR env)")
	flags.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (or STUDIODESK_LOG_LEVEL env)")
	flags.StringVar(&a.flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (or STUDIODESK_METRICS_ADDR env)")
	flags.StringVar(&a.flags.envFile, "env-file", ".env", "Environment file to load if present")

	// Add subcommands
	rootCmd.AddCommand(deviceCmd(a))
	rootCmd.AddCommand(whoamiCmd(a))
	rootCmd.AddCommand(logoutCmd(a))
	for _, cmd := range listCmds(a) {
		rootCmd.AddCommand(cmd)
	}
	addUploadCmds(rootCmd, a)

	return rootCmd, a
}
