package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		page    int
		perPage int
		offset  int
	}{
		{"defaults", "", 1, 20, 0},
		{"custom", "?page=3&per_page=50", 3, 50, 100},
		{"negative page", "?page=-1", 1, 20, 0},
		{"zero page", "?page=0", 1, 20, 0},
		{"non-numeric page", "?page=abc", 1, 20, 0},
		{"per_page over max", "?per_page=500", 1, 20, 0},
		{"per_page at max", "?page=2&per_page=100", 2, 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromRequest(httptest.NewRequest(http.MethodGet, "/api/v1/orders"+tt.query, nil))
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.PerPage)
			assert.Equal(t, tt.offset, p.Offset())
		})
	}
}

func TestParams_Limit(t *testing.T) {
	assert.Equal(t, DefaultPerPage, Params{Page: 1}.Limit())
	assert.Equal(t, MaxPerPage, Params{Page: 1, PerPage: 1000}.Limit())
	assert.Equal(t, 7, Params{Page: 1, PerPage: 7}.Limit())
	assert.Equal(t, 0, Params{}.Offset())
}

func TestNewResult(t *testing.T) {
	mid := NewResult([]string{"a", "b"}, 11, Params{Page: 2, PerPage: 5})
	assert.Equal(t, 3, mid.TotalPages)
	assert.True(t, mid.HasNext)
	assert.True(t, mid.HasPrev)

	last := NewResult([]string{"k"}, 11, Params{Page: 3, PerPage: 5})
	assert.False(t, last.HasNext)

	empty := NewResult[string](nil, 0, DefaultParams())
	assert.NotNil(t, empty.Data)
	assert.Empty(t, empty.Data)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrev)
}
