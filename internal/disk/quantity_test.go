package disk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"100", 100},
		{"1e2", 100},
		{"1Ki", 1024},
		{"13Mi", 13 * 1024 * 1024},
		{"22Gi", 22 * 1024 * 1024 * 1024},
		{"33Ti", 33 * 1024 * 1024 * 1024 * 1024},
		{"44Pi", 44 * 1024 * 1024 * 1024 * 1024 * 1024},
		{"55Ei", 55 * 1024 * 1024 * 1024 * 1024 * 1024 * 1024},
		{"1k", 1000},
		{"13M", 13 * 1000 * 1000},
		{"22G", 22 * 1000 * 1000 * 1000},
		{"33T", 33 * 1000 * 1000 * 1000 * 1000},
		{"44P", 44 * 1000 * 1000 * 1000 * 1000 * 1000},
		{"55E", 55 * 1000 * 1000 * 1000 * 1000 * 1000 * 1000},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseQuantity(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseQuantityInvalid(t *testing.T) {
	_, err := ParseQuantity("not-a-quantity")
	assert.Error(t, err)
}
