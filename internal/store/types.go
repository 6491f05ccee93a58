// Package store defines the merchant domain model shared across subsystems.
package store

import (
	"time"

	"github.com/coumap/store-crawler/internal/region"
)

// RawRecord is one store as scraped from a listing page. It is transient:
// records always pass through geocoding and the upsert before anything is
// persisted.
type RawRecord struct {
	Name       string
	RawAddress string
	Category   string
	Phone      string
	Region     region.Descriptor
}

// Valid reports whether the record carries the minimum fields the pipeline
// needs. Records failing this are skipped as unparseable.
func (r RawRecord) Valid() bool {
	return r.Name != "" && r.RawAddress != ""
}

// Coordinate is a resolved latitude/longitude pair. Absence (a nil
// *Coordinate) is a valid persisted state: the store exists, its location
// is unknown.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Entity is the persisted form of a store. IdentityKey is unique across the
// store set and stable across repeated crawls of the same physical store.
type Entity struct {
	IdentityKey string            `json:"identity_key"`
	Name        string            `json:"name"`
	Address     string            `json:"address"`
	Category    string            `json:"category"`
	Phone       string            `json:"phone,omitempty"`
	Coordinate  *Coordinate       `json:"coordinate,omitempty"`
	Region      region.Descriptor `json:"region"`
	LastSeenAt  time.Time         `json:"last_seen_at"`
}

// HasCoordinates reports whether geocoding has ever succeeded for the store.
func (e Entity) HasCoordinates() bool {
	return e.Coordinate != nil
}
