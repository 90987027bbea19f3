// ABOUTME: Tests for the upstream client factory and shared paging helpers
// ABOUTME: Keeps the real client construction path covered without network access

package tools

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enapter/mcp-server/internal/enapter"
)

func TestNewClientFactory(t *testing.T) {
	factory := NewClientFactory(enapter.Config{BaseURL: "https://api.example.com"})
	api, err := factory(enapter.Credentials{Token: "t"})
	require.NoError(t, err)
	require.NotNil(t, api)
	assert.NoError(t, api.Close())

	bad := NewClientFactory(enapter.Config{BaseURL: "::not a url"})
	api, err = bad(enapter.Credentials{})
	assert.Error(t, err)
	assert.Nil(t, api)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3}

	tests := []struct {
		page Page
		want []int
	}{
		{Page{0, 3}, []int{1, 2, 3}},
		{Page{0, 10}, []int{1, 2, 3}},
		{Page{2, 1}, []int{3}},
		{Page{3, 1}, []int{}},
		{Page{1, 0}, []int{}},
		{Page{0, math.MaxInt}, []int{1, 2, 3}},
		{Page{2, math.MaxInt}, []int{3}},
		{Page{math.MaxInt, math.MaxInt}, []int{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, paginate(items, tt.page), "page %+v", tt.page)
	}

	assert.Equal(t, []int{}, paginate([]int(nil), DefaultPage))
}
