package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garagon/importguard/internal/update"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var (
	flagCheck bool

	// updateBaseURL is replaced in tests.
	updateBaseURL = update.DefaultBaseURL
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&flagCheck, "check", false, "Check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "importguard %s (commit: %s)\n", Version, Commit)
	if !flagCheck {
		return nil
	}

	log := newLogger(cmd, "", false, cmd.ErrOrStderr())
	checker := update.NewChecker(update.Options{BaseURL: updateBaseURL, Logger: log})
	res, err := checker.CheckLatest(context.Background(), Version)
	if err != nil {
		return err
	}
	switch {
	case res == nil:
		fmt.Fprintln(w, "development build, skipping update check")
	case res.NeedsUpdate():
		fmt.Fprintf(w, "update available: %s -> %s\n  %s\n", res.Current, res.Latest, res.UpdateCmd)
	default:
		fmt.Fprintln(w, "up to date")
	}
	return nil
}
