package output

import (
	"encoding/json"
	"io"

	"github.com/garagon/importguard/internal/types"
)

// JSONFormatter outputs the batch result as a JSON object.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, result *types.BatchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
