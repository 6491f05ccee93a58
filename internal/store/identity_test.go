package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityKeyStableUnderCaseAndWhitespace(t *testing.T) {
	t.Parallel()

	base := IdentityKey("스타벅스 R점", "서울 강남구 개포동 186")
	variants := []struct {
		name    string
		address string
	}{
		{"스타벅스 r점", "서울 강남구 개포동 186"},
		{"  스타벅스 R점  ", "서울  강남구   개포동 186"},
		{"스타벅스\tR점", "서울 강남구 개포동 186 "},
	}
	for _, v := range variants {
		assert.Equal(t, base, IdentityKey(v.name, v.address), "%q / %q", v.name, v.address)
	}
}

func TestIdentityKeyDistinguishesStores(t *testing.T) {
	t.Parallel()

	a := IdentityKey("우성정육점", "서울 강남구 개포동 172")
	b := IdentityKey("우성정육점", "서울 강남구 대치동 891")
	c := IdentityKey("한솥도시락", "서울 강남구 개포동 172")
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestIdentityKeyNormalizesUnicodeComposition(t *testing.T) {
	t.Parallel()

	// "한" as a precomposed syllable vs. decomposed jamo.
	composed := "한솝"
	decomposed := "한솝"
	require.NotEqual(t, composed, decomposed)
	assert.Equal(t,
		IdentityKey(composed, "서울"),
		IdentityKey(decomposed, "서울"),
	)
}

func TestNormalizeCollapsesFields(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc def", Normalize("  ABC \t DEF\n"))
	assert.Equal(t, "", Normalize("   "))
}
