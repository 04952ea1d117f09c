package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/garagon/importguard"
	"github.com/garagon/importguard/internal/config"
	"github.com/garagon/importguard/internal/output"
	"github.com/garagon/importguard/internal/project"
	"github.com/garagon/importguard/internal/remediation"
	"github.com/garagon/importguard/internal/scanner"
)

var (
	flagPaths         []string
	flagGitChanged    bool
	flagBatchID       string
	flagAction        string
	flagConfirm       bool
	flagQuarantineDir string
	flagDenylist      string
	flagSelfPath      string
	flagIgnore        []string
	flagMaxDepth      int
	flagFail          bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [project]",
	Short: "Scan a Unity project, or one batch of imported assets",
	Long: `Scans every asset under Assets/ and Packages/ of the project (default: current
directory). With --paths or --git-changed only that batch is classified.
Suspicious assets are handed to the configured action: delete (asset and .meta
sidecar), quarantine, or report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringSliceVar(&flagPaths, "paths", nil, "Project-relative asset paths forming the imported batch (comma-separated, repeatable)")
	scanCmd.Flags().BoolVar(&flagGitChanged, "git-changed", false, "Only scan git-changed assets (staged, unstaged, untracked)")
	scanCmd.Flags().StringVar(&flagBatchID, "batch-id", "", "Batch identifier (default: random UUID)")
	scanCmd.Flags().StringVar(&flagAction, "action", "report", "Action on suspicious assets (delete, quarantine, report)")
	scanCmd.Flags().BoolVar(&flagConfirm, "confirm", false, "Ask before acting on each suspicious asset")
	scanCmd.Flags().StringVar(&flagQuarantineDir, "quarantine-dir", "", "Quarantine directory (default: "+remediation.DefaultJailDir+")")
	scanCmd.Flags().StringVar(&flagDenylist, "denylist", "", "Indicator file relative to the project")
	scanCmd.Flags().StringVar(&flagSelfPath, "self-path", scanner.DefaultSelfPath, "Path segment excluded from scanning (empty disables)")
	scanCmd.Flags().StringSliceVar(&flagIgnore, "ignore", nil, "Asset path globs to skip (comma-separated, repeatable)")
	scanCmd.Flags().IntVar(&flagMaxDepth, "max-depth", 0, "Maximum nested prefab depth (default: 32)")
	scanCmd.Flags().BoolVar(&flagFail, "fail", false, "Exit with code 1 if any asset is suspicious")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return fmt.Errorf("project %s is not a directory", root)
	}
	if flagGitChanged && len(flagPaths) > 0 {
		return fmt.Errorf("--paths and --git-changed are mutually exclusive")
	}

	cfg, err := loadScanConfig(cmd, root)
	if err != nil {
		return err
	}
	if os.Getenv("NO_COLOR") != "" {
		flagNoColor = true
	}
	log := newLogger(cmd, cfg.LogLevel, cfg.LogJSON, cmd.ErrOrStderr())

	formatter, err := output.ForName(flagFormat, flagNoColor, flagVerbose)
	if err != nil {
		return err
	}

	mode, err := remediation.ParseMode(flagAction)
	if err != nil {
		return err
	}
	remover, err := remediation.New(mode, remediation.Options{
		Root:    project.Root(root),
		JailDir: flagQuarantineDir,
		Confirm: flagConfirm,
		In:      cmd.InOrStdin(),
		Out:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	opts := scanOptions(remover, log)

	var spinner *output.Spinner
	if showProgress(cmd.ErrOrStderr()) {
		spinner = output.NewSpinner(cmd.ErrOrStderr())
		spinner.Start("Scanning...")
		opts = append(opts, importguard.WithProgress(spinner.Progress))
	}

	result, err := executeScan(root, opts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	log.Info("scan complete", "batch", result.BatchID, "scanned", len(result.Verdicts),
		"suspicious", len(result.SuspiciousVerdicts()), "excluded", len(result.Excluded))

	if err := writeOutput(cmd.OutOrStdout(), formatter, result); err != nil {
		return err
	}
	if flagFormat == "terminal" && !flagGitChanged {
		checkHookHint(cmd.ErrOrStderr(), root)
	}

	if flagFail && len(result.SuspiciousVerdicts()) > 0 {
		exit(1)
	}
	return nil
}

// loadScanConfig reads the project config and fills every flag the user did
// not set explicitly.
func loadScanConfig(cmd *cobra.Command, root string) (config.Config, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	flags := cmd.Flags()
	if !flags.Changed("format") && cfg.Format != "" {
		flagFormat = cfg.Format
	}
	if !flags.Changed("policy") && cfg.Policy != "" {
		flagPolicy = cfg.Policy
	}
	if !flags.Changed("action") && cfg.Action != "" {
		flagAction = cfg.Action
	}
	if !flags.Changed("confirm") && cfg.Confirm {
		flagConfirm = true
	}
	if !flags.Changed("quarantine-dir") && cfg.QuarantineDir != "" {
		flagQuarantineDir = cfg.QuarantineDir
	}
	if !flags.Changed("denylist") && cfg.Denylist != "" {
		flagDenylist = cfg.Denylist
	}
	if !flags.Changed("self-path") && cfg.SelfPath != nil {
		flagSelfPath = *cfg.SelfPath
	}
	if !flags.Changed("ignore") && len(cfg.Ignore) > 0 {
		flagIgnore = cfg.Ignore
	}
	if !flags.Changed("max-depth") && cfg.MaxDepth > 0 {
		flagMaxDepth = cfg.MaxDepth
	}
	if !flags.Changed("fail") && cfg.Fail {
		flagFail = true
	}
	return cfg, nil
}

func scanOptions(remover remediation.Remover, log hclog.Logger) []importguard.Option {
	opts := []importguard.Option{
		importguard.WithRemover(remover),
		importguard.WithLogger(log),
		importguard.WithSelfPath(flagSelfPath),
		importguard.WithMaxDepth(flagMaxDepth),
	}
	if flagPolicy != "" {
		opts = append(opts, importguard.WithPolicyFile(flagPolicy))
	}
	if flagDenylist != "" {
		opts = append(opts, importguard.WithDenylist(flagDenylist))
	}
	if len(flagIgnore) > 0 {
		opts = append(opts, importguard.WithIgnorePatterns(flagIgnore))
	}
	return opts
}

func executeScan(root string, opts []importguard.Option) (*importguard.BatchResult, error) {
	switch {
	case flagGitChanged:
		changed, err := scanner.GitChangedFiles(root)
		if err != nil {
			return nil, fmt.Errorf("getting changed files: %w", err)
		}
		return importguard.ScanBatch(root, importguard.Batch{ID: flagBatchID, Imported: changed}, opts...)
	case len(flagPaths) > 0:
		return importguard.ScanBatch(root, importguard.Batch{ID: flagBatchID, Imported: flagPaths}, opts...)
	default:
		result, err := importguard.Scan(root, opts...)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		return result, nil
	}
}

// showProgress reports whether a spinner may draw on w: terminal output
// to stdout, no prompts, and w is a terminal.
func showProgress(w io.Writer) bool {
	if flagOutput != "" || flagConfirm || (flagFormat != "" && flagFormat != "terminal") {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func writeOutput(stdout io.Writer, formatter output.Formatter, result *importguard.BatchResult) error {
	output.ToolVersion = Version

	w := stdout
	if flagOutput != "" {
		f, err := os.Create(flagOutput)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	return formatter.Format(w, result)
}
