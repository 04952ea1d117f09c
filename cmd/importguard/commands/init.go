package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/garagon/importguard/internal/config"
	"github.com/garagon/importguard/internal/scanner"
)

var (
	flagHook   bool
	flagCIOnly bool
)

var initCmd = &cobra.Command{
	Use:   "init [project]",
	Short: "Initialize ImportGuard configuration files",
	Long:  `Scaffolds .importguard.yml, .importguardignore, and a GitHub Actions workflow for ImportGuard scanning.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&flagHook, "hook", false, "Create a git pre-commit hook that scans changed assets")
	initCmd.Flags().BoolVar(&flagCIOnly, "ci", false, "Only generate GitHub Actions workflow (skip config files)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	var w io.Writer = os.Stdout
	if cmd != nil {
		w = cmd.OutOrStdout()
	}

	if flagHook {
		return initHook(w, dir)
	}

	workflow := scaffold{path: filepath.Join(dir, ".github", "workflows", "importguard.yml"), content: workflowTemplate}
	if flagCIOnly {
		return writeScaffold(w, workflow)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	return writeScaffold(w,
		scaffold{path: filepath.Join(dir, config.FileNames[0]), content: configTemplate},
		scaffold{path: filepath.Join(dir, scanner.IgnoreFile), content: ignoreTemplate},
		workflow,
	)
}

type scaffold struct {
	path    string
	content string
	mode    os.FileMode
}

// writeScaffold creates each file that does not exist yet.
func writeScaffold(w io.Writer, files ...scaffold) error {
	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			fmt.Fprintf(w, "  skip %s (already exists)\n", f.path)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", f.path, err)
		}
		mode := f.mode
		if mode == 0 {
			mode = 0644
		}
		if err := os.WriteFile(f.path, []byte(f.content), mode); err != nil {
			return fmt.Errorf("writing %s: %w", f.path, err)
		}
		fmt.Fprintf(w, "  create %s\n", f.path)
	}
	return nil
}

func initHook(w io.Writer, dir string) error {
	gitDir := filepath.Join(dir, ".git")
	if _, err := os.Stat(gitDir); os.IsNotExist(err) {
		return fmt.Errorf("no .git directory found in %s (is this a git repository?)", dir)
	}
	return writeScaffold(w, scaffold{
		path:    filepath.Join(gitDir, "hooks", "pre-commit"),
		content: preCommitTemplate,
		mode:    0755,
	})
}

const configTemplate = `# ImportGuard configuration
# https://github.com/garagon/importguard

# Indicator file, one substring per line, relative to the project
# denylist: Packages/com.garagon.importguard/Resources/indicators.txt

# Path segment never scanned (the scanner's own install location)
# self_path: Packages/com.garagon.importguard

# Policy file replacing the built-in extensions and patterns
# policy: importguard-policy.yaml

# Asset path globs to skip
ignore:
  - "Assets/Plugins/Vendor/**"

# What to do with suspicious assets: delete, quarantine, report
action: report

# Ask before acting on each suspicious asset
# confirm: true

# Quarantine directory, relative to the project
# quarantine_dir: Library/ImportGuard/Quarantine

# Maximum nested prefab depth
# max_depth: 32

# Output format: terminal, json, sarif, markdown
format: terminal

# Log level: trace, debug, info, warn, error, off
log_level: info

# Exit with code 1 if any asset is suspicious
# fail: true
`

const ignoreTemplate = `# ImportGuard ignore patterns
# Assets matching these patterns are never classified

# Third-party packages you have reviewed
# Assets/Plugins/Vendor/**

# Generated content
Assets/StreamingAssets/**
Assets/AddressableAssetsData/**

# Editor temp files
*.tmp
`

const preCommitTemplate = `#!/bin/sh
# ImportGuard pre-commit hook
echo "Running ImportGuard on changed assets..."
importguard scan . --git-changed --action report --fail --no-color
exit $?
`

const workflowTemplate = `name: ImportGuard Asset Scan

on:
  push:
    branches: [main]
  pull_request:
    branches: [main]

permissions:
  security-events: write
  contents: read

jobs:
  importguard:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4

      - uses: actions/setup-go@v5
        with:
          go-version: stable

      - name: Install ImportGuard
        run: go install github.com/garagon/importguard/cmd/importguard@latest

      - name: Run ImportGuard scan
        id: scan
        continue-on-error: true
        run: importguard scan . --action report --format sarif --output results.sarif --fail

      - name: Upload SARIF results
        if: always()
        uses: github/codeql-action/upload-sarif@v3
        with:
          sarif_file: results.sarif

      - name: Fail on suspicious assets
        if: steps.scan.outcome == 'failure'
        run: exit 1
`
