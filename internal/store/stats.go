package store

import "math"

// RunStatistics summarizes the persisted store set: how many stores exist
// and for how many of them geocoding has succeeded. It is computed on
// demand and never persisted itself.
type RunStatistics struct {
	TotalStores           int64   `json:"total_stores"`
	StoresWithCoordinates int64   `json:"stores_with_coordinates"`
	SuccessRate           float64 `json:"success_rate"`
}

// NewRunStatistics builds statistics from raw counts. SuccessRate is a
// percentage rounded to two decimals and is 0 when the set is empty.
func NewRunStatistics(total, withCoords int64) RunStatistics {
	stats := RunStatistics{
		TotalStores:           total,
		StoresWithCoordinates: withCoords,
	}
	if total > 0 {
		rate := float64(withCoords) / float64(total) * 100
		stats.SuccessRate = math.Round(rate*100) / 100
	}
	return stats
}

// Summarize computes statistics over an explicit entity snapshot. Keeping
// this a pure function lets tests assert exact output on synthetic sets.
func Summarize(entities []Entity) RunStatistics {
	var withCoords int64
	for _, e := range entities {
		if e.HasCoordinates() {
			withCoords++
		}
	}
	return NewRunStatistics(int64(len(entities)), withCoords)
}
