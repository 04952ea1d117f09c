// Package builtin embeds the YAML classification policy via go:embed.
package builtin

import "embed"

//go:embed *.yaml
var builtinPolicy embed.FS

// FS returns the embedded filesystem containing the built-in policy.
func FS() embed.FS {
	return builtinPolicy
}
