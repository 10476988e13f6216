package utils

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name          string
		page, limit   int
		total         int64
		expectedPages int
		expectedMore  bool
	}{
		{"empty listing", 1, 5, 0, 0, false},
		{"exact multiple", 1, 5, 10, 2, true},
		{"last page", 2, 5, 10, 2, false},
		{"partial last page", 2, 5, 11, 3, true},
		{"page beyond end", 4, 5, 11, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage([]int{1}, tt.page, tt.limit, tt.total)
			assert.Equal(t, tt.expectedPages, p.TotalPages)
			assert.Equal(t, tt.expectedMore, p.HasMore)
			assert.Equal(t, tt.page, p.CurrentPage)
		})
	}
}

func TestNewPage_NilItemsSerializeAsEmptyList(t *testing.T) {
	body, err := json.Marshal(NewPage[string](nil, 1, 5, 0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"currentPage":1,"totalPages":0,"hasMore":false}`, string(body))
}

func TestParsePage(t *testing.T) {
	assert.Equal(t, 1, ParsePage(""))
	assert.Equal(t, 1, ParsePage("abc"))
	assert.Equal(t, 1, ParsePage("0"))
	assert.Equal(t, 1, ParsePage("-3"))
	assert.Equal(t, 3, ParsePage("3"))
	assert.Equal(t, MaxPage, ParsePage("9223372036854775807"))
	assert.Equal(t, MaxPage, ParsePage("99999999999999999999"))
	assert.Equal(t, 1, ParsePage("-99999999999999999999"))
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 5))
	assert.Equal(t, 10, Offset(3, 5))
	assert.Equal(t, 0, Offset(0, 5))
	assert.Equal(t, (MaxPage-1)*20, Offset(math.MaxInt, 20))
}
