package remediation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/garagon/importguard/internal/types"
)

// Confirming asks before handing an artifact to the wrapped Remover.
// Anything other than "y" or "yes", including end of input, keeps the
// artifact.
type Confirming struct {
	next Remover
	in   *bufio.Reader
	out  io.Writer
}

// NewConfirming wraps next. Nil in and out default to stdin and stderr.
func NewConfirming(next Remover, in io.Reader, out io.Writer) *Confirming {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	return &Confirming{next: next, in: bufio.NewReader(in), out: out}
}

func (c *Confirming) Remove(path string) (types.Removal, error) {
	fmt.Fprintf(c.out, "Suspicious asset detected: %s\nRemove it? [y/N]: ", path)
	answer, err := c.in.ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(c.out)
		return types.Removal{Path: path, Action: types.ActionKept}, nil
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return c.next.Remove(path)
	default:
		return types.Removal{Path: path, Action: types.ActionKept}, nil
	}
}
