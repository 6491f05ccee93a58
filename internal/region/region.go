// Package region models the three-level administrative hierarchy
// (province, district, dong) that bounds each crawl unit.
package region

import (
	"errors"
	"sort"
	"strings"
)

// ErrInvalidRegion is returned when a caller supplies an incomplete region
// filter for single-region mode.
var ErrInvalidRegion = errors.New("region: province and district are required")

// Descriptor identifies one unit of crawl work. An empty Dong means
// "every dong in the district". Descriptors are immutable values.
type Descriptor struct {
	Province string
	District string
	Dong     string
}

// String renders the descriptor as the space-joined Korean region name.
func (d Descriptor) String() string {
	parts := []string{d.Province, d.District}
	if d.Dong != "" {
		parts = append(parts, d.Dong)
	}
	return strings.Join(parts, " ")
}

// Hierarchy is the static province -> district -> dong table. The crawl
// order derived from it must be reproducible, so enumeration always sorts
// each level ascending by name.
type Hierarchy map[string]map[string][]string

// All enumerates every (province, district, dong) triple in deterministic
// order: provinces ascending, then districts, then dongs.
func (h Hierarchy) All() []Descriptor {
	var out []Descriptor
	for _, province := range sortedKeys(h) {
		districts := h[province]
		for _, district := range sortedKeys(districts) {
			dongs := append([]string(nil), districts[district]...)
			sort.Strings(dongs)
			for _, dong := range dongs {
				out = append(out, Descriptor{Province: province, District: district, Dong: dong})
			}
		}
	}
	return out
}

// Expand resolves a single-region filter against the hierarchy.
// Province and district are mandatory. With an explicit dong the filter is
// returned as-is; with an empty dong every known dong in the district is
// expanded. Districts absent from the table crawl as one district-wide unit.
func (h Hierarchy) Expand(filter Descriptor) ([]Descriptor, error) {
	if strings.TrimSpace(filter.Province) == "" || strings.TrimSpace(filter.District) == "" {
		return nil, ErrInvalidRegion
	}
	if filter.Dong != "" {
		return []Descriptor{filter}, nil
	}
	dongs := append([]string(nil), h[filter.Province][filter.District]...)
	if len(dongs) == 0 {
		return []Descriptor{filter}, nil
	}
	sort.Strings(dongs)
	out := make([]Descriptor, 0, len(dongs))
	for _, dong := range dongs {
		out = append(out, Descriptor{Province: filter.Province, District: filter.District, Dong: dong})
	}
	return out, nil
}

// TestSet returns the fixed one-region subset used by test mode to
// smoke-test the pipeline end to end.
func TestSet() []Descriptor {
	return []Descriptor{{Province: "서울", District: "강남구", Dong: "개포동"}}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
