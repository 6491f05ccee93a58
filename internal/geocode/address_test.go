package geocode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddress(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"trims whitespace", "  서울 강남구 개포동 186  ", "서울 강남구 개포동 186"},
		{"drops parenthesized detail", "서울 강남구 개포동 186 (개포주공아파트)", "서울 강남구 개포동 186"},
		{"drops floor suffix", "서울 강남구 역삼동 735 2층", "서울 강남구 역삼동 735"},
		{"drops unit suffix", "서울 강남구 역삼동 735 103호", "서울 강남구 역삼동 735"},
		{"drops stacked suffixes", "서울 강남구 역삼동 735 2층 B1호", "서울 강남구 역삼동 735"},
		{"drops basement marker", "서울 강남구 대치동 891 지하1", "서울 강남구 대치동 891"},
		{"collapses interior whitespace", "서울  강남구\t개포동 186", "서울 강남구 개포동 186"},
		{"empty input", "   ", ""},
		{"only detail", "(임시)", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, NormalizeAddress(tc.in))
		})
	}
}
