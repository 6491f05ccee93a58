// Package export renders the persisted store set as delimited artifacts.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/coumap/store-crawler/internal/store"
)

var header = []string{
	"identity_key", "name", "address", "category", "phone",
	"province", "district", "dong", "latitude", "longitude", "last_seen_at",
}

// Stores renders the snapshot as UTF-8 CSV. Every column is derived
// directly from the entity, so the file can be regenerated losslessly from
// the database at any time.
func Stores(entities []store.Entity) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entities {
		lat, lng := "", ""
		if e.Coordinate != nil {
			lat = strconv.FormatFloat(e.Coordinate.Latitude, 'f', -1, 64)
			lng = strconv.FormatFloat(e.Coordinate.Longitude, 'f', -1, 64)
		}
		row := []string{
			e.IdentityKey, e.Name, e.Address, e.Category, e.Phone,
			e.Region.Province, e.Region.District, e.Region.Dong,
			lat, lng, e.LastSeenAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row for %q: %w", e.Name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Unresolved filters the snapshot down to stores still missing coordinates,
// the set worth replaying through the geocoders manually.
func Unresolved(entities []store.Entity) []store.Entity {
	var out []store.Entity
	for _, e := range entities {
		if !e.HasCoordinates() {
			out = append(out, e)
		}
	}
	return out
}

// ObjectName builds the artifact path for a run's export file.
func ObjectName(runID string, generatedAt time.Time) string {
	return fmt.Sprintf("exports/%s/stores-%s.csv", generatedAt.UTC().Format("2006-01-02"), runID)
}
