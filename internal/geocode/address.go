package geocode

import (
	"regexp"
	"strings"
)

var (
	parenthesized = regexp.MustCompile(`\([^)]*\)`)
	// Trailing building detail the geocoders choke on: basement markers,
	// floors, and unit numbers.
	detailSuffix = regexp.MustCompile(`\s+(지하\d*|\d+층|[A-Z]?\d+(\.\d+)?호)$`)
)

// NormalizeAddress prepares a raw scraped address for provider lookup.
// It trims surrounding whitespace, drops parenthesized annotations and
// trailing floor/unit detail, and collapses interior whitespace. An empty
// result means the address is not worth sending to any provider.
func NormalizeAddress(raw string) string {
	cleaned := parenthesized.ReplaceAllString(strings.TrimSpace(raw), "")
	for {
		next := detailSuffix.ReplaceAllString(cleaned, "")
		if next == cleaned {
			break
		}
		cleaned = next
	}
	return strings.Join(strings.Fields(cleaned), " ")
}
