// Package catalog is the item source and ranking persistence behind the
// editor. Items and rankings live in a gocloud.dev blob bucket, so the same
// code reads a local directory, an in-memory bucket, S3, or GCS.
//
// Bucket layout:
//
//	items.yaml                 the item catalog (the pool)
//	rankings/<id>.json         one ranking document per ranking
//	rankings/<id>.json.zst     the same document, zstd-compressed
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/treykane/cli-rank/internal/logging"
	"github.com/treykane/cli-rank/internal/ranking"
)

var log = logging.New("catalog")

var (
	// ErrNotFound is returned when a ranking does not exist.
	ErrNotFound = errors.New("ranking not found")
	// ErrUnknownItem is returned when a save references an item the catalog
	// cannot resolve.
	ErrUnknownItem = errors.New("unknown item")
)

// Ranking is one ranking as served to the editor. Items are in rank order.
// Extra holds items that exist only within this ranking and are not part of
// the shared catalog.
type Ranking struct {
	ID        string
	Title     string
	Items     []ranking.Item
	Extra     []ranking.Item
	UpdatedAt time.Time
}

// IDs returns the ordered identifiers of the ranked items.
func (r Ranking) IDs() ranking.List {
	return ranking.IDs(r.Items)
}

// Summary describes a stored ranking without resolving its items.
type Summary struct {
	ID         string
	Title      string
	ItemCount  int
	UpdatedAt  time.Time
	Compressed bool
}

// Source supplies the item universe and individual rankings.
type Source interface {
	FetchAllItems(ctx context.Context) ([]ranking.Item, error)
	FetchRanking(ctx context.Context, id string) (Ranking, error)
}

// Persister stores a ranking's new order. Only identifiers are sent.
type Persister interface {
	SaveRanking(ctx context.Context, id string, ids ranking.List) error
}
