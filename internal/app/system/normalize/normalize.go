// Package normalize canonicalizes user-supplied strings before they are
// stored or compared.
package normalize

import (
	"strings"
)

// Email trims and lowercases an address.
func Email(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Name trims a display string and collapses inner whitespace runs. Case is
// preserved.
func Name(s string) string { return strings.Join(strings.Fields(s), " ") }

// Role trims and lowercases a role or status token.
func Role(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// QueryParam trims a query-string value, preserving case.
func QueryParam(s string) string { return strings.TrimSpace(s) }

// Tags trims, drops empties, and de-duplicates a list, keeping first
// occurrence order.
func Tags(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t = Name(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}
