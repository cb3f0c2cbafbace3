package topology

import (
	"fmt"
	"strings"
)

// requireName rejects empty and whitespace-only identifiers.
func requireName(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("must be a non-empty string")
	}
	return nil
}

// requirePaths rejects any empty element of a path list.
func requirePaths(paths []string) error {
	for i, p := range paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("element %d must be a non-empty path", i)
		}
	}
	return nil
}

// uniqueOrdered returns the input without repeated elements, keeping the
// first occurrence of each.
func uniqueOrdered(in []string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// cloneStrings copies a slice, preserving the nil/empty distinction.
func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
