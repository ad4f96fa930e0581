package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionCardFilterNormalize(t *testing.T) {
	f := &ActionCardFilter{}
	f.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.PageSize)
	assert.Equal(t, 0, f.Offset())

	f = &ActionCardFilter{Page: -3, PageSize: 5000}
	f.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 100, f.PageSize, "page size clamps to the maximum")

	f = &ActionCardFilter{Page: 3, PageSize: 25}
	f.Normalize()
	assert.Equal(t, 50, f.Offset())
}

func TestOrderPair(t *testing.T) {
	a, b := OrderPair("c2", "c1")
	assert.Equal(t, "c1", a)
	assert.Equal(t, "c2", b)

	a, b = OrderPair("c1", "c2")
	assert.Equal(t, "c1", a)
	assert.Equal(t, "c2", b)
}
