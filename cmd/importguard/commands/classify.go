package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garagon/importguard"
	"github.com/garagon/importguard/internal/config"
)

var flagProject string

var classifyCmd = &cobra.Command{
	Use:   "classify <asset>...",
	Short: "Classify assets without acting on them",
	Long: `Prints the verdict for each asset path. Paths are relative to --project.
Nothing is removed, quarantined or excluded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&flagProject, "project", ".", "Unity project directory")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagProject)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := newLogger(cmd, cfg.LogLevel, cfg.LogJSON, cmd.ErrOrStderr())

	opts := []importguard.Option{
		importguard.WithLogger(log),
		importguard.WithMaxDepth(cfg.MaxDepth),
	}
	policy := flagPolicy
	if policy == "" {
		policy = cfg.Policy
	}
	if policy != "" {
		opts = append(opts, importguard.WithPolicyFile(policy))
	}
	if cfg.Denylist != "" {
		opts = append(opts, importguard.WithDenylist(cfg.Denylist))
	}

	verdicts := make([]importguard.Verdict, 0, len(args))
	for _, path := range args {
		v, err := importguard.Classify(flagProject, path, opts...)
		if err != nil {
			return err
		}
		verdicts = append(verdicts, v)
	}

	w := cmd.OutOrStdout()
	if strings.ToLower(flagFormat) == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(verdicts)
	}

	for _, v := range verdicts {
		if !v.Suspicious {
			fmt.Fprintf(w, "%s: clean\n", v.Path)
			continue
		}
		fmt.Fprintf(w, "%s: suspicious (%s)", v.Path, v.Reason)
		if v.Evidence != "" {
			fmt.Fprintf(w, " %s", v.Evidence)
		}
		fmt.Fprintln(w)
		for c := v.Cause; c != nil; c = c.Cause {
			fmt.Fprintf(w, "  via %s: %s %s\n", c.Path, c.Reason, c.Evidence)
		}
	}
	return nil
}
