package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrymomot/cronpipe/pkg/scheduler"
	"github.com/dmitrymomot/cronpipe/pkg/storage"
)

// Archiving wraps a ResultSink and additionally snapshots every persisted
// item as JSON to object storage, keyed by <variant>/<timestamp>.json.
// ResultSink methods carry neither the originating job name nor the
// weekday bucket (see DESIGN.md), so the key can't be scoped any finer.
// The snapshot is best-effort: a storage failure is not allowed to block
// or fail the underlying persist.
type Archiving struct {
	next  scheduler.ResultSink
	store storage.Storage
	now   func() time.Time
}

// NewArchiving returns a ResultSink that persists through next and also
// archives a JSON snapshot of each item to store.
func NewArchiving(next scheduler.ResultSink, store storage.Storage) *Archiving {
	return &Archiving{next: next, store: store, now: time.Now}
}

func (a *Archiving) archive(ctx context.Context, variant string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	key := fmt.Sprintf("%s/%s.json", variant, a.now().UTC().Format("20060102T150405.000000000"))
	_, _ = a.store.Put(ctx, bytes.NewReader(data), int64(len(data)), storage.WithKey(key), storage.WithContentType("application/json"))
}

func (a *Archiving) PersistAnime(ctx context.Context, r scheduler.AnimeResult) error {
	a.archive(ctx, "anime", r)
	return a.next.PersistAnime(ctx, r)
}

func (a *Archiving) PersistVideo(ctx context.Context, r scheduler.VideoResult) error {
	a.archive(ctx, "video", r)
	return a.next.PersistVideo(ctx, r)
}

func (a *Archiving) PersistNews(ctx context.Context, r scheduler.NewsResult) error {
	a.archive(ctx, "news", r)
	return a.next.PersistNews(ctx, r)
}

func (a *Archiving) PersistHealth(ctx context.Context, r scheduler.HealthResult) error {
	a.archive(ctx, "health", r)
	return a.next.PersistHealth(ctx, r)
}

func (a *Archiving) PersistExtractedNewsItem(ctx context.Context, r scheduler.ExtractedNewsItemResult) error {
	a.archive(ctx, "extracted-news-item", r)
	return a.next.PersistExtractedNewsItem(ctx, r)
}

func (a *Archiving) PersistNewsKeywords(ctx context.Context, r scheduler.NewsKeywordsResult) error {
	a.archive(ctx, "news-keywords", r)
	return a.next.PersistNewsKeywords(ctx, r)
}

var _ scheduler.ResultSink = (*Archiving)(nil)
