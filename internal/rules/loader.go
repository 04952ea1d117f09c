package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// PolicyFile is the name of the policy document inside a policy FS.
const PolicyFile = "policy.yaml"

// maxPolicyFileSize is the maximum size for a policy file on disk (1 MB).
const maxPolicyFileSize = 1 << 20

// LoadFromFS loads the policy document from an embed.FS or any fs.FS.
func LoadFromFS(fsys fs.FS) (RawPolicy, error) {
	data, err := fs.ReadFile(fsys, PolicyFile)
	if err != nil {
		return RawPolicy{}, fmt.Errorf("reading %s: %w", PolicyFile, err)
	}
	raw, err := parsePolicy(data)
	if err != nil {
		return RawPolicy{}, fmt.Errorf("parsing %s: %w", PolicyFile, err)
	}
	return raw, nil
}

// LoadFromFile loads a policy document from disk. Unknown YAML keys are
// rejected.
func LoadFromFile(path string) (RawPolicy, error) {
	info, err := os.Stat(path)
	if err != nil {
		return RawPolicy{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.Size() > maxPolicyFileSize {
		return RawPolicy{}, fmt.Errorf("policy file too large: %s (%d bytes, max %d)", path, info.Size(), maxPolicyFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return RawPolicy{}, fmt.Errorf("reading %s: %w", path, err)
	}
	raw, err := parsePolicy(data)
	if err != nil {
		return RawPolicy{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return raw, nil
}

func parsePolicy(data []byte) (RawPolicy, error) {
	var raw RawPolicy
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return RawPolicy{}, fmt.Errorf("empty policy")
		}
		return RawPolicy{}, err
	}
	return raw, nil
}
