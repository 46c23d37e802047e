package sink

import (
	"context"

	"github.com/dmitrymomot/cronpipe/pkg/job"
	"github.com/dmitrymomot/cronpipe/pkg/scheduler"
)

// QueueSink adapts the teacher's River-backed job.Manager into a
// scheduler.ResultSink: every Persist call enqueues a durable job instead
// of writing inline from the drain goroutine, so a slow or failing
// database never backs up the result channel.
type QueueSink struct {
	manager *job.Manager
}

// NewQueueSink returns a QueueSink over manager. manager must already have
// the six Persist* tasks registered (see RegisterTasks) before Start is
// called.
func NewQueueSink(manager *job.Manager) *QueueSink {
	return &QueueSink{manager: manager}
}

func (s *QueueSink) PersistAnime(ctx context.Context, r scheduler.AnimeResult) error {
	return s.manager.Enqueue(ctx, taskPersistAnime, r)
}

func (s *QueueSink) PersistVideo(ctx context.Context, r scheduler.VideoResult) error {
	return s.manager.Enqueue(ctx, taskPersistVideo, r)
}

func (s *QueueSink) PersistNews(ctx context.Context, r scheduler.NewsResult) error {
	return s.manager.Enqueue(ctx, taskPersistNews, r)
}

func (s *QueueSink) PersistHealth(ctx context.Context, r scheduler.HealthResult) error {
	return s.manager.Enqueue(ctx, taskPersistHealth, r)
}

func (s *QueueSink) PersistExtractedNewsItem(ctx context.Context, r scheduler.ExtractedNewsItemResult) error {
	return s.manager.Enqueue(ctx, taskPersistExtractedNewsItem, r)
}

func (s *QueueSink) PersistNewsKeywords(ctx context.Context, r scheduler.NewsKeywordsResult) error {
	return s.manager.Enqueue(ctx, taskPersistNewsKeywords, r)
}

var _ scheduler.ResultSink = (*QueueSink)(nil)
