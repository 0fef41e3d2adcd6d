package datastructure_test

import (
	"testing"

	"lintang/routeplanner/pkg/datastructure"

	"github.com/stretchr/testify/assert"
)

func TestSearchResult(t *testing.T) {
	res := datastructure.SearchResult{
		Path: []datastructure.Node{
			{Lat: -7.57, Lon: 110.82, Idx: 4},
			{Lat: -7.569, Lon: 110.821, Idx: 9},
		},
		Distance: 1414.21356,
		Found:    true,
	}

	t.Run("rounded distance", func(t *testing.T) {
		assert.Equal(t, 1414.21, res.RoundedDistance(2))
		assert.Equal(t, 1414.214, res.RoundedDistance(3))
		assert.Equal(t, 1414.0, res.RoundedDistance(0))
	})

	t.Run("start and end", func(t *testing.T) {
		start, ok := res.Start()
		assert.True(t, ok)
		assert.Equal(t, int32(4), start.Idx)

		end, ok := res.End()
		assert.True(t, ok)
		assert.Equal(t, int32(9), end.Idx)

		_, ok = datastructure.SearchResult{}.End()
		assert.False(t, ok)
	})

	t.Run("coordinates", func(t *testing.T) {
		assert.Equal(t, []datastructure.Coordinate{
			{Lat: -7.57, Lon: 110.82},
			{Lat: -7.569, Lon: 110.821},
		}, res.Coordinates())
		assert.Empty(t, datastructure.SearchResult{}.Coordinates())
	})
}
