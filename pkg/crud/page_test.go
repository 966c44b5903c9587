package crud

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageTotalPages(t *testing.T) {
	cases := []struct {
		total, want int
	}{
		{0, 0},
		{1, 1},
		{10, 1},
		{11, 2},
		{25, 3},
		{100, 10},
	}
	for _, tc := range cases {
		p := NewPage([]int{}, tc.total, 0, 10)
		assert.Equal(t, tc.want, p.TotalPages, "total=%d", tc.total)
	}
}

func TestNewPageFlags(t *testing.T) {
	first := NewPage([]int{1, 2}, 25, 0, 10)
	assert.Equal(t, 1, first.PageNo)
	assert.True(t, first.HasNext)
	assert.False(t, first.HasPrev)

	middle := NewPage([]int{1}, 25, 10, 10)
	assert.Equal(t, 2, middle.PageNo)
	assert.True(t, middle.HasNext)
	assert.True(t, middle.HasPrev)

	empty := NewPage[int](nil, 0, 0, 10)
	assert.NotNil(t, empty.Items)
	assert.False(t, empty.HasNext)
}

func TestMapPageKeepsMetadata(t *testing.T) {
	p := NewPage([]int{1, 2, 3}, 13, 10, 10)
	out := MapPage(p, strconv.Itoa)

	assert.Equal(t, []string{"1", "2", "3"}, out.Items)
	assert.Equal(t, p.Total, out.Total)
	assert.Equal(t, p.PageNo, out.PageNo)
	assert.Equal(t, p.TotalPages, out.TotalPages)
	assert.Equal(t, p.HasPrev, out.HasPrev)
	assert.Nil(t, MapPage[int, string](nil, strconv.Itoa))
}
