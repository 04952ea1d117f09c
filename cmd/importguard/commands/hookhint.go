package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// checkHookHint prints a tip to w when root is a git repository whose
// pre-commit hook does not run importguard. All errors are silently ignored.
func checkHookHint(w io.Writer, root string) {
	if !needsHook(root) {
		return
	}
	fmt.Fprintf(w, "\nTip: scan imported assets before every commit:\n\n")
	fmt.Fprintf(w, "  importguard init --hook %s\n\n", root)
}

// needsHook reports whether root has a .git directory and no pre-commit hook
// mentioning importguard.
func needsHook(root string) bool {
	info, err := os.Stat(filepath.Join(root, ".git"))
	if err != nil || !info.IsDir() {
		return false
	}
	hook, err := os.ReadFile(filepath.Join(root, ".git", "hooks", "pre-commit"))
	if err != nil {
		return true
	}
	return !bytes.Contains(hook, []byte("importguard"))
}
