package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // gs:// driver
	_ "gocloud.dev/blob/memblob"  // mem:// driver
	_ "gocloud.dev/blob/s3blob"   // s3:// driver
	"gocloud.dev/gcerrors"
	"gopkg.in/yaml.v3"

	"github.com/treykane/cli-rank/internal/ranking"
)

const (
	itemsKey       = "items.yaml"
	rankingsPrefix = "rankings/"
	jsonExt        = ".json"
	zstdExt        = ".json.zst"
)

// itemsDoc is the items.yaml document.
type itemsDoc struct {
	Items []ranking.Item `yaml:"items"`
}

// rankingDoc is the stored ranking document.
type rankingDoc struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	ItemIDs   []ranking.ID   `json:"item_ids"`
	Extra     []ranking.Item `json:"items,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Options configure a Bucket.
type Options struct {
	// Compress writes rankings as zstd-compressed documents.
	Compress bool
	// Now defaults to time.Now.
	Now func() time.Time
}

// Bucket implements Source and Persister on a blob bucket.
type Bucket struct {
	bucket   *blob.Bucket
	compress bool
	now      func() time.Time
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

// OpenBucket opens the bucket at url, e.g. "file:///home/me/rankings",
// "mem://", "s3://my-bucket?region=us-east-1" or "gs://my-bucket".
func OpenBucket(ctx context.Context, url string, opts Options) (*Bucket, error) {
	b, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open catalog bucket %s: %w", url, err)
	}
	c, err := NewBucket(b, opts)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	return c, nil
}

// NewBucket wraps an already opened bucket. The catalog takes ownership and
// closes it on Close.
func NewBucket(b *blob.Bucket, opts Options) (*Bucket, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Bucket{bucket: b, compress: opts.Compress, now: now, encoder: enc, decoder: dec}, nil
}

// Close releases the bucket and codecs.
func (c *Bucket) Close() error {
	c.decoder.Close()
	_ = c.encoder.Close()
	if c.bucket != nil {
		return c.bucket.Close()
	}
	return nil
}

// FetchAllItems implements Source. A bucket without items.yaml has an empty
// catalog.
func (c *Bucket) FetchAllItems(ctx context.Context) ([]ranking.Item, error) {
	data, err := c.bucket.ReadAll(ctx, itemsKey)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", itemsKey, err)
	}
	var doc itemsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", itemsKey, err)
	}
	items := make([]ranking.Item, 0, len(doc.Items))
	for _, it := range doc.Items {
		if strings.TrimSpace(string(it.ID)) == "" {
			log.Warn("skip catalog item without id", "title", it.Title)
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// PutItems replaces the item catalog.
func (c *Bucket) PutItems(ctx context.Context, items []ranking.Item) error {
	data, err := yaml.Marshal(itemsDoc{Items: items})
	if err != nil {
		return fmt.Errorf("encode %s: %w", itemsKey, err)
	}
	if err := c.bucket.WriteAll(ctx, itemsKey, data, &blob.WriterOptions{ContentType: "application/yaml"}); err != nil {
		return fmt.Errorf("write %s: %w", itemsKey, err)
	}
	return nil
}

// FetchRanking implements Source. Item identifiers that no longer resolve
// are dropped with a warning so a pruned catalog cannot block the editor.
func (c *Bucket) FetchRanking(ctx context.Context, id string) (Ranking, error) {
	doc, _, err := c.readRanking(ctx, id)
	if err != nil {
		return Ranking{}, err
	}
	items, err := c.FetchAllItems(ctx)
	if err != nil {
		return Ranking{}, err
	}
	universe := ranking.NewUniverse(doc.Extra, items)
	resolved, missing := ranking.List(doc.ItemIDs).Resolve(universe)
	if missing > 0 {
		log.Warn("ranking references unknown items", "ranking", id, "missing", missing)
	}
	return Ranking{
		ID:        doc.ID,
		Title:     doc.Title,
		Items:     resolved,
		Extra:     doc.Extra,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// SaveRanking implements Persister. Every identifier must resolve against
// the catalog or the ranking's own items, and none may repeat.
func (c *Bucket) SaveRanking(ctx context.Context, id string, ids ranking.List) error {
	doc, compressed, err := c.readRanking(ctx, id)
	if err != nil {
		return err
	}
	items, err := c.FetchAllItems(ctx)
	if err != nil {
		return err
	}
	if err := ids.Validate(ranking.NewUniverse(doc.Extra, items)); err != nil {
		if errors.Is(err, ranking.ErrUnresolved) {
			return fmt.Errorf("save ranking %s: %w: %v", id, ErrUnknownItem, err)
		}
		return fmt.Errorf("save ranking %s: %w", id, err)
	}

	doc.ItemIDs = ids.Clone()
	doc.UpdatedAt = c.now().UTC()
	if err := c.writeRanking(ctx, doc); err != nil {
		return err
	}
	// Drop the copy in the other encoding so reads are never ambiguous.
	if compressed != c.compress {
		stale := rankingKey(id, compressed)
		if err := c.bucket.Delete(ctx, stale); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
			log.Warn("remove previous ranking encoding", "key", stale, "error", err)
		}
	}
	log.Info("saved ranking", "ranking", id, "items", len(ids))
	return nil
}

// CreateRanking stores a new ranking and returns its identifier.
func (c *Bucket) CreateRanking(ctx context.Context, title string, ids ranking.List, extra []ranking.Item) (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate ranking id: %w", err)
	}
	id := u.String()
	if err := ids.Validate(nil); err != nil {
		return "", err
	}
	doc := rankingDoc{ID: id, Title: title, ItemIDs: ids.Clone(), Extra: extra, UpdatedAt: c.now().UTC()}
	if err := c.writeRanking(ctx, doc); err != nil {
		return "", err
	}
	return id, nil
}

// ListRankings returns every stored ranking ordered by title.
func (c *Bucket) ListRankings(ctx context.Context) ([]Summary, error) {
	iter := c.bucket.List(&blob.ListOptions{Prefix: rankingsPrefix})

	var out []Summary
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list rankings: %w", err)
		}
		if obj.IsDir {
			continue
		}
		id, compressed, ok := parseRankingKey(obj.Key)
		if !ok {
			continue
		}
		doc, err := c.readRankingKey(ctx, obj.Key, compressed)
		if err != nil {
			log.Warn("skip unreadable ranking", "key", obj.Key, "error", err)
			continue
		}
		out = append(out, Summary{
			ID:         id,
			Title:      doc.Title,
			ItemCount:  len(doc.ItemIDs),
			UpdatedAt:  doc.UpdatedAt,
			Compressed: compressed,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// readRanking returns the ranking document, preferring the compressed copy.
func (c *Bucket) readRanking(ctx context.Context, id string) (rankingDoc, bool, error) {
	if strings.TrimSpace(id) == "" || strings.ContainsAny(id, "/\\") {
		return rankingDoc{}, false, fmt.Errorf("invalid ranking id %q", id)
	}
	for _, compressed := range []bool{true, false} {
		doc, err := c.readRankingKey(ctx, rankingKey(id, compressed), compressed)
		if err == nil {
			if doc.ID == "" {
				doc.ID = id
			}
			return doc, compressed, nil
		}
		if gcerrors.Code(err) != gcerrors.NotFound {
			return rankingDoc{}, false, err
		}
	}
	return rankingDoc{}, false, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (c *Bucket) readRankingKey(ctx context.Context, key string, compressed bool) (rankingDoc, error) {
	data, err := c.bucket.ReadAll(ctx, key)
	if err != nil {
		return rankingDoc{}, err
	}
	if compressed {
		data, err = c.decoder.DecodeAll(data, nil)
		if err != nil {
			return rankingDoc{}, fmt.Errorf("zstd decompress %s: %w", key, err)
		}
	}
	var doc rankingDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return rankingDoc{}, fmt.Errorf("parse %s: %w", key, err)
	}
	return doc, nil
}

func (c *Bucket) writeRanking(ctx context.Context, doc rankingDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ranking %s: %w", doc.ID, err)
	}
	opts := &blob.WriterOptions{ContentType: "application/json"}
	if c.compress {
		data = c.encoder.EncodeAll(data, nil)
		opts = &blob.WriterOptions{ContentType: "application/zstd"}
	}
	key := rankingKey(doc.ID, c.compress)
	if err := c.bucket.WriteAll(ctx, key, data, opts); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func rankingKey(id string, compressed bool) string {
	if compressed {
		return rankingsPrefix + id + zstdExt
	}
	return rankingsPrefix + id + jsonExt
}

func parseRankingKey(key string) (id string, compressed bool, ok bool) {
	name := path.Base(key)
	switch {
	case strings.HasSuffix(name, zstdExt):
		return strings.TrimSuffix(name, zstdExt), true, true
	case strings.HasSuffix(name, jsonExt):
		return strings.TrimSuffix(name, jsonExt), false, true
	}
	return "", false, false
}
