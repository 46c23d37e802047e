package sink

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/cronpipe/pkg/job"
	"github.com/dmitrymomot/cronpipe/pkg/scheduler"
)

// TaskOptions returns the job.Option values that register the six
// Persist* task types against db. Pass these alongside any other
// job.Option when constructing the job.Manager that backs a QueueSink.
func TaskOptions(db *pgxpool.Pool) []job.Option {
	return []job.Option{
		job.WithTask[scheduler.AnimeResult](persistAnimeTask{db: db}),
		job.WithTask[scheduler.VideoResult](persistVideoTask{db: db}),
		job.WithTask[scheduler.NewsResult](persistNewsTask{db: db}),
		job.WithTask[scheduler.HealthResult](persistHealthTask{db: db}),
		job.WithTask[scheduler.ExtractedNewsItemResult](persistExtractedNewsItemTask{db: db}),
		job.WithTask[scheduler.NewsKeywordsResult](persistNewsKeywordsTask{db: db}),
	}
}
