package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coumap/store-crawler/internal/region"
)

var gaepo = region.Descriptor{Province: "서울", District: "강남구", Dong: "개포동"}

func TestParseItems(t *testing.T) {
	t.Parallel()

	data := []byte(`[
		{"name":" 우성정육점 ","address":"서울 강남구 개포동 172","category":"정육점","phone":"02-123-4567"},
		{"name":"한솥도시락","address":"서울 강남구 개포동 655","category":"도시락",  "phone":""}
	]`)
	records, skipped, err := parseItems(data, gaepo)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, records, 2)
	assert.Equal(t, "우성정육점", records[0].Name)
	assert.Equal(t, "서울 강남구 개포동 172", records[0].RawAddress)
	assert.Equal(t, gaepo, records[0].Region)
	assert.Empty(t, records[1].Phone)
}

func TestParseItemsSkipsMalformedRows(t *testing.T) {
	t.Parallel()

	data := []byte(`[
		{"name":"","address":"서울 강남구 개포동 172"},
		{"name":"이름만있는가게","address":"  "},
		{"name":"정상가게","address":"서울 강남구 개포동 1"}
	]`)
	records, skipped, err := parseItems(data, gaepo)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, records, 1)
	assert.Equal(t, "정상가게", records[0].Name)
}

func TestParseItemsRejectsBadJSON(t *testing.T) {
	t.Parallel()

	_, _, err := parseItems([]byte(`not json`), gaepo)
	assert.Error(t, err)
}

func TestParseItemsEmptyListIsNotAFailure(t *testing.T) {
	t.Parallel()

	records, skipped, err := parseItems([]byte(`[]`), gaepo)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Empty(t, records)
}
