package spatial

import (
	"testing"

	"github.com/Prototyp3html/2025-CP-SafePathZamboanga-sub002/pkg/datastructure"

	"github.com/stretchr/testify/assert"
)

func TestIndexNear(t *testing.T) {
	ix := NewIndex()
	// two parallel east-west roads ~111 m apart
	ix.InsertLine(1, []datastructure.Coordinate{{6.9200, 122.0700}, {6.9200, 122.0800}, {6.9200, 122.0900}})
	ix.InsertLine(2, []datastructure.Coordinate{{6.9210, 122.0700}, {6.9210, 122.0900}})
	ix.InsertPoint(3, datastructure.NewCoordinate(6.9300, 122.0800))

	p := datastructure.NewCoordinate(6.9202, 122.0850)

	hits := ix.Near(p, 50)
	assert.Equal(t, 1, len(hits))
	assert.Equal(t, 1, hits[0].ID)
	assert.InDelta(t, 22.2, hits[0].Distance, 1)

	hits = ix.Near(p, 200)
	assert.Equal(t, 2, len(hits))
	assert.Equal(t, 1, hits[0].ID)
	assert.Equal(t, 2, hits[1].ID)

	hits = ix.Near(p, 2000)
	assert.Equal(t, 3, len(hits))
	assert.Equal(t, 3, ix.Size())
}

func TestIndexNearFunc(t *testing.T) {
	ix := NewIndex()
	ix.InsertPoint(10, datastructure.NewCoordinate(6.9200, 122.0800))
	ix.InsertPoint(11, datastructure.NewCoordinate(6.9201, 122.0800))

	p := datastructure.NewCoordinate(6.9200, 122.0800)
	hit, ok := ix.Nearest(p, 100, func(id int) bool { return id != 10 })
	assert.True(t, ok)
	assert.Equal(t, 11, hit.ID)

	_, ok = ix.Nearest(p, 100, func(id int) bool { return false })
	assert.False(t, ok)
}

func TestIndexTieOrder(t *testing.T) {
	ix := NewIndex()
	c := datastructure.NewCoordinate(6.9200, 122.0800)
	ix.InsertPoint(7, c)
	ix.InsertPoint(4, c)
	ix.InsertPoint(5, c)

	hits := ix.Near(c, 1)
	ids := []int{}
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	assert.Equal(t, []int{4, 5, 7}, ids)
}
