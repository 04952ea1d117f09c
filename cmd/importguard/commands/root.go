package commands

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/garagon/importguard/internal/logger"
)

var (
	flagFormat   string
	flagOutput   string
	flagPolicy   string
	flagNoColor  bool
	flagVerbose  bool
	flagLogLevel string
	flagLogJSON  bool
)

// exit is replaced in tests.
var exit = os.Exit

var rootCmd = &cobra.Command{
	Use:   "importguard",
	Short: "Import-time scanner for Unity project assets",
	Long: `ImportGuard classifies assets entering a Unity project and removes the suspicious ones.
It flags scripts that reference dangerous APIs, prefabs that embed such scripts,
unknown file types, oversized scripts, and paths matching a local denylist.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "terminal", "Output format (terminal, json, sarif, markdown)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.PersistentFlags().StringVar(&flagPolicy, "policy", "", "Policy file replacing the built-in extensions and patterns")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Show reason descriptions, cause chains and excluded paths")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (trace, debug, info, warn, error, off)")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "Emit logs as JSON")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the log sink. --log-level wins over IMPORTGUARD_LOG_LEVEL,
// which wins over the configured level.
func newLogger(cmd *cobra.Command, configured string, jsonFormat bool, w io.Writer) hclog.Logger {
	l := logger.New(logger.Options{
		Level:      configured,
		JSONFormat: jsonFormat || flagLogJSON,
		Output:     w,
	})
	if cmd.Flags().Changed("log-level") {
		l.SetLevel(logger.ParseLevel(flagLogLevel))
	}
	return l
}
