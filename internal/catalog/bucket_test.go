package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	"github.com/treykane/cli-rank/internal/ranking"
)

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestBucket(t *testing.T, compress bool) *Bucket {
	t.Helper()
	c, err := NewBucket(memblob.OpenBucket(nil), Options{Compress: compress, Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func seedItems(t *testing.T, c *Bucket) {
	t.Helper()
	require.NoError(t, c.PutItems(context.Background(), []ranking.Item{
		{ID: "dune", Title: "Dune", Subtitle: "Frank Herbert", Tags: []string{"scifi"}},
		{ID: "emma", Title: "Emma", Subtitle: "Jane Austen"},
		{ID: "ulysses", Title: "Ulysses", Subtitle: "James Joyce"},
	}))
}

func TestFetchAllItemsEmptyBucket(t *testing.T) {
	c := newTestBucket(t, false)
	items, err := c.FetchAllItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestItemsRoundTripThroughYAML(t *testing.T) {
	c := newTestBucket(t, false)
	seedItems(t, c)

	items, err := c.FetchAllItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, ranking.ID("dune"), items[0].ID)
	assert.Equal(t, []string{"scifi"}, items[0].Tags)
	assert.Equal(t, "Jane Austen", items[1].Subtitle)
}

func TestFetchRankingNotFound(t *testing.T) {
	c := newTestBucket(t, false)
	_, err := c.FetchRanking(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchRankingRejectsPathIDs(t *testing.T) {
	c := newTestBucket(t, false)
	_, err := c.FetchRanking(context.Background(), "../items")
	require.Error(t, err)
}

func TestCreateFetchAndSaveRanking(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "zstd"
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := newTestBucket(t, compress)
			seedItems(t, c)

			id, err := c.CreateRanking(ctx, "Favourites", ranking.List{"emma", "dune"}, []ranking.Item{{ID: "local", Title: "Local only"}})
			require.NoError(t, err)

			r, err := c.FetchRanking(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "Favourites", r.Title)
			assert.Equal(t, ranking.List{"emma", "dune"}, r.IDs())
			assert.Equal(t, fixedNow, r.UpdatedAt)

			require.NoError(t, c.SaveRanking(ctx, id, ranking.List{"local", "ulysses", "emma"}))
			r, err = c.FetchRanking(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, ranking.List{"local", "ulysses", "emma"}, r.IDs())

			summaries, err := c.ListRankings(ctx)
			require.NoError(t, err)
			require.Len(t, summaries, 1)
			assert.Equal(t, id, summaries[0].ID)
			assert.Equal(t, 3, summaries[0].ItemCount)
			assert.Equal(t, compress, summaries[0].Compressed)
		})
	}
}

func TestSaveRankingRejectsUnknownAndDuplicateItems(t *testing.T) {
	ctx := context.Background()
	c := newTestBucket(t, false)
	seedItems(t, c)
	id, err := c.CreateRanking(ctx, "Books", ranking.List{"dune"}, nil)
	require.NoError(t, err)

	err = c.SaveRanking(ctx, id, ranking.List{"dune", "nope"})
	assert.ErrorIs(t, err, ErrUnknownItem)

	err = c.SaveRanking(ctx, id, ranking.List{"dune", "dune"})
	assert.ErrorIs(t, err, ranking.ErrDuplicate)

	r, err := c.FetchRanking(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ranking.List{"dune"}, r.IDs(), "rejected saves leave the ranking alone")
}

func TestFetchRankingDropsPrunedItems(t *testing.T) {
	ctx := context.Background()
	c := newTestBucket(t, false)
	seedItems(t, c)
	id, err := c.CreateRanking(ctx, "Books", ranking.List{"dune", "emma"}, nil)
	require.NoError(t, err)

	require.NoError(t, c.PutItems(ctx, []ranking.Item{{ID: "emma", Title: "Emma"}}))
	r, err := c.FetchRanking(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ranking.List{"emma"}, r.IDs())
}

func TestSwitchingCompressionRemovesOldEncoding(t *testing.T) {
	ctx := context.Background()
	b := memblob.OpenBucket(nil)
	plain, err := NewBucket(b, Options{})
	require.NoError(t, err)
	seedItems(t, plain)
	id, err := plain.CreateRanking(ctx, "Books", ranking.List{"dune"}, nil)
	require.NoError(t, err)

	// Share the underlying bucket; only close it once.
	zipped := &Bucket{bucket: b, compress: true, now: time.Now, encoder: plain.encoder, decoder: plain.decoder}
	require.NoError(t, zipped.SaveRanking(ctx, id, ranking.List{"emma", "dune"}))

	exists, err := b.Exists(ctx, rankingKey(id, false))
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = b.Exists(ctx, rankingKey(id, true))
	require.NoError(t, err)
	assert.True(t, exists)

	r, err := plain.FetchRanking(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, ranking.List{"emma", "dune"}, r.IDs())
	require.NoError(t, plain.Close())
}

func TestParseRankingKey(t *testing.T) {
	tests := []struct {
		key        string
		id         string
		compressed bool
		ok         bool
	}{
		{"rankings/abc.json", "abc", false, true},
		{"rankings/abc.json.zst", "abc", true, true},
		{"rankings/readme.txt", "", false, false},
	}
	for _, tt := range tests {
		id, compressed, ok := parseRankingKey(tt.key)
		assert.Equal(t, tt.id, id, tt.key)
		assert.Equal(t, tt.compressed, compressed, tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
	}
}
