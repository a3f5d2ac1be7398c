package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRectNormalizes(t *testing.T) {
	r := NewRect(200, 110, 100, 100)
	assert.Equal(t, Rect{X0: 100, Y0: 100, X1: 200, Y1: 110}, r)
	assert.Equal(t, 105.0, r.CenterY())
}

func TestRectUnion(t *testing.T) {
	a := Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}
	b := Rect{X0: 5, Y0: -5, X1: 20, Y1: 8}
	assert.Equal(t, Rect{X0: 0, Y0: -5, X1: 20, Y1: 10}, a.Union(b))
	assert.Equal(t, a, Rect{}.Union(a))
	assert.Equal(t, a, a.Union(Rect{}))
}

func TestRectIntersects(t *testing.T) {
	a := Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}
	assert.True(t, a.Intersects(Rect{X0: 5, Y0: 5, X1: 15, Y1: 15}))
	assert.False(t, a.Intersects(Rect{X0: 10, Y0: 0, X1: 20, Y1: 10}), "touching edges do not intersect")
	assert.False(t, a.Intersects(Rect{X0: 20, Y0: 20, X1: 30, Y1: 30}))
}

func TestRectExpand(t *testing.T) {
	r := Rect{X0: 100, Y0: 100, X1: 200, Y1: 110}.Expand(30)
	assert.Equal(t, Rect{X0: 70, Y0: 70, X1: 230, Y1: 140}, r)
	assert.False(t, r.IsEmpty())
	assert.True(t, Rect{}.IsEmpty())
}
