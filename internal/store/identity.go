package store

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// IdentityKey derives the deduplication key for a store from its name and
// address. The same physical store must map to the same key on every crawl,
// so both inputs are normalized first: Unicode NFC (Korean text scraped from
// the site arrives in mixed composition forms), case folded, and interior
// whitespace collapsed.
func IdentityKey(name, address string) string {
	sum := sha256.Sum256([]byte(Normalize(name) + "|" + Normalize(address)))
	return fmt.Sprintf("%x", sum)
}

// Normalize applies the identity normalization to a single field.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}
