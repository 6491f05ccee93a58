package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coumap/store-crawler/internal/region"
	"github.com/coumap/store-crawler/internal/store"
)

func sampleEntities() []store.Entity {
	seen := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	return []store.Entity{
		{
			IdentityKey: "key-a",
			Name:        "우성정육점",
			Address:     "서울 강남구 개포동 172",
			Category:    "정육점",
			Phone:       "02-123-4567",
			Coordinate:  &store.Coordinate{Latitude: 37.4836, Longitude: 127.0664},
			Region:      region.Descriptor{Province: "서울", District: "강남구", Dong: "개포동"},
			LastSeenAt:  seen,
		},
		{
			IdentityKey: "key-b",
			Name:        "한솥도시락",
			Address:     "서울 강남구 개포동 655",
			Category:    "도시락",
			Region:      region.Descriptor{Province: "서울", District: "강남구", Dong: "개포동"},
			LastSeenAt:  seen,
		},
	}
}

func TestStoresRendersAllColumns(t *testing.T) {
	t.Parallel()

	data, err := Stores(sampleEntities())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, header, rows[0])
	assert.Equal(t, "우성정육점", rows[1][1])
	assert.Equal(t, "37.4836", rows[1][8])
	assert.Equal(t, "127.0664", rows[1][9])
	assert.Equal(t, "2026-08-29T10:00:00Z", rows[1][10])

	// The geocode-less store keeps empty coordinate columns.
	assert.Empty(t, rows[2][8])
	assert.Empty(t, rows[2][9])
}

func TestStoresEmptySnapshot(t *testing.T) {
	t.Parallel()

	data, err := Stores(nil)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}

func TestUnresolvedFiltersCoordinatelessStores(t *testing.T) {
	t.Parallel()

	unresolved := Unresolved(sampleEntities())
	require.Len(t, unresolved, 1)
	assert.Equal(t, "한솥도시락", unresolved[0].Name)
}

func TestObjectName(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 8, 29, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "exports/2026-08-29/stores-run-1.csv", ObjectName("run-1", at))
}
