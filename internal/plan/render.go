package plan

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by Render.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Render writes p to w in the given format.
func Render(w io.Writer, p *Plan, format string) error {
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("failed to encode plan as yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("failed to encode plan as json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported plan format %q: must be %q or %q", format, FormatYAML, FormatJSON)
	}
}
