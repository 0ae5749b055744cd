package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolFlagsNeverChangeMembership(t *testing.T) {
	u := NewUniverse(sampleItems())
	p := NewPool(u.IDs())
	before := p.IDs()

	p.SetPlaced(List{"P2"})
	p.SetExcluded([]ID{"P5", "NOT-A-MEMBER"})
	p.Filter("squ", u)

	assert.Equal(t, before, p.IDs())
	assert.True(t, p.Placed("P2"))
	assert.False(t, p.Available("P2"), "placed")
	assert.False(t, p.Available("P5"), "excluded")
	assert.False(t, p.Available("P1"), "filtered")
	assert.True(t, p.Available("P3"))
	assert.False(t, p.Available("NOT-A-MEMBER"))
}

func TestPoolDropsDuplicateMembers(t *testing.T) {
	p := NewPool([]ID{"A", "B", "A", ""})
	assert.Equal(t, []ID{"A", "B"}, p.IDs())
	assert.Equal(t, 2, p.Len())
}

func TestPoolFilterHidesNonMatches(t *testing.T) {
	u := NewUniverse(sampleItems())
	p := NewPool(u.IDs())

	p.Filter("pika", u)
	assert.Equal(t, []ID{"P4"}, p.View())
	assert.True(t, p.Hidden("P1"))
	assert.Equal(t, "pika", p.Query())

	p.Filter("water", u)
	assert.Equal(t, []ID{"P3"}, p.View(), "tags are searchable")

	p.Filter("  ", u)
	assert.Len(t, p.View(), 5)
	assert.False(t, p.Hidden("P1"))
}

func TestPoolSortByTitleUsesCollation(t *testing.T) {
	u := NewUniverse(sampleItems())
	p := NewPool(u.IDs())

	p.SetSort(SortTitle, u)
	require.Equal(t, SortTitle, p.SortMode())
	// bulbasaur, Charizard, Éevee, Pikachu, Squirtle: case and accents fold.
	assert.Equal(t, []ID{"P2", "P1", "P5", "P4", "P3"}, p.View())

	p.SetSort(SortCatalog, u)
	assert.Equal(t, []ID{"P1", "P2", "P3", "P4", "P5"}, p.View())
	assert.Equal(t, "catalog", p.SortMode().String())
}

func TestPoolSetPlacedRecomputes(t *testing.T) {
	p := NewPool([]ID{"A", "B", "C"})
	p.SetPlaced(List{"A", "B"})
	p.SetPlaced(List{"C"})
	assert.False(t, p.Placed("A"))
	assert.True(t, p.Placed("C"))
}
