// Package scraper produces raw store records for one region at a time from
// the merchant listing site.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coumap/store-crawler/internal/region"
	"github.com/coumap/store-crawler/internal/store"
)

// Source yields the scraped records for one region. A returned error is a
// region-level failure (session crash, navigation failure); an empty slice
// with a nil error is a valid outcome for a region with no stores.
type Source interface {
	Fetch(ctx context.Context, reg region.Descriptor) ([]store.RawRecord, error)
}

// rawItem is the wire shape produced by both the DOM extraction script and
// the static listing markup.
type rawItem struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Category string `json:"category"`
	Phone    string `json:"phone"`
}

// parseItems converts extracted JSON into records, dropping entries that are
// missing a name or address. The skipped count lets callers log how many
// malformed rows a region produced without failing the region.
func parseItems(data []byte, reg region.Descriptor) ([]store.RawRecord, int, error) {
	var items []rawItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, 0, fmt.Errorf("decode listing items: %w", err)
	}
	records := make([]store.RawRecord, 0, len(items))
	skipped := 0
	for _, item := range items {
		rec := store.RawRecord{
			Name:       strings.TrimSpace(item.Name),
			RawAddress: strings.TrimSpace(item.Address),
			Category:   strings.TrimSpace(item.Category),
			Phone:      strings.TrimSpace(item.Phone),
			Region:     reg,
		}
		if !rec.Valid() {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}
