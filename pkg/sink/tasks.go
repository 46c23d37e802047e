package sink

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/cronpipe/pkg/scheduler"
)

// Each task type below is executed by the teacher's pkg/job worker once its
// enqueued River job is picked up; this is where the actual upsert against
// Postgres happens, independent of and retried separately from the
// scheduler's own command-retry budget.

type persistAnimeTask struct{ db *pgxpool.Pool }

func (persistAnimeTask) Name() string { return taskPersistAnime }

func (t persistAnimeTask) Handle(ctx context.Context, r scheduler.AnimeResult) error {
	_, err := t.db.Exec(ctx, `
		INSERT INTO anime_items (platform, title, update_count, update_info, image_url, detail_url, update_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (platform, title, update_time) DO UPDATE SET
			update_count = EXCLUDED.update_count,
			update_info  = EXCLUDED.update_info,
			image_url    = EXCLUDED.image_url,
			detail_url   = EXCLUDED.detail_url
	`, r.Platform, r.Title, r.UpdateCount, r.UpdateInfo, r.ImageURL, r.DetailURL, r.UpdateTime)
	return err
}

type persistVideoTask struct{ db *pgxpool.Pool }

func (persistVideoTask) Name() string { return taskPersistVideo }

func (t persistVideoTask) Handle(ctx context.Context, r scheduler.VideoResult) error {
	_, err := t.db.Exec(ctx, `
		INSERT INTO video_items (id, title, rating, pic, is_new, uri, episodes_info, card_subtitle, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title          = EXCLUDED.title,
			rating         = EXCLUDED.rating,
			pic            = EXCLUDED.pic,
			is_new         = EXCLUDED.is_new,
			uri            = EXCLUDED.uri,
			episodes_info  = EXCLUDED.episodes_info,
			card_subtitle  = EXCLUDED.card_subtitle,
			type           = EXCLUDED.type
	`, r.ID, r.Title, r.Rating, r.Pic, r.IsNew, r.URI, r.EpisodesInfo, r.CardSubtitle, r.Type)
	return err
}

type persistNewsTask struct{ db *pgxpool.Pool }

func (persistNewsTask) Name() string { return taskPersistNews }

func (t persistNewsTask) Handle(ctx context.Context, r scheduler.NewsResult) error {
	_, err := t.db.Exec(ctx, `
		INSERT INTO news_items (source_id, name, items, extracted)
		VALUES ($1, $2, $3, false)
		ON CONFLICT (source_id) DO UPDATE SET
			name  = EXCLUDED.name,
			items = EXCLUDED.items
	`, r.ID, r.Name, rawItemsToJSONArray(r.Items))
	return err
}

type persistHealthTask struct{ db *pgxpool.Pool }

func (persistHealthTask) Name() string { return taskPersistHealth }

func (t persistHealthTask) Handle(ctx context.Context, r scheduler.HealthResult) error {
	_, err := t.db.Exec(ctx, `
		INSERT INTO health_checks (url, result, checked_at)
		VALUES ($1, $2, now())
	`, r.URL, []byte(r.Result))
	return err
}

type persistExtractedNewsItemTask struct{ db *pgxpool.Pool }

func (persistExtractedNewsItemTask) Name() string { return taskPersistExtractedNewsItem }

func (t persistExtractedNewsItemTask) Handle(ctx context.Context, r scheduler.ExtractedNewsItemResult) error {
	_, err := t.db.Exec(ctx, `
		INSERT INTO news_extracted_items (news_id, news_from, name, news_date, news_item_id, title, url, content, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (news_id, news_item_id) DO UPDATE SET
			title   = EXCLUDED.title,
			url     = EXCLUDED.url,
			content = EXCLUDED.content,
			extra   = EXCLUDED.extra
	`, r.ID, r.NewsFrom, r.Name, r.NewsDate, r.NewsItemID, r.Title, r.URL, r.Content, []byte(r.Extra))
	return err
}

type persistNewsKeywordsTask struct{ db *pgxpool.Pool }

func (persistNewsKeywordsTask) Name() string { return taskPersistNewsKeywords }

func (t persistNewsKeywordsTask) Handle(ctx context.Context, r scheduler.NewsKeywordsResult) error {
	_, err := t.db.Exec(ctx, `
		INSERT INTO news_keywords (url, keywords, extracted_at)
		VALUES ($1, $2, now())
		ON CONFLICT (url) DO UPDATE SET
			keywords     = EXCLUDED.keywords,
			extracted_at = now()
	`, r.URL, []byte(r.Keywords))
	return err
}

func rawItemsToJSONArray(items []json.RawMessage) []byte {
	if len(items) == 0 {
		return []byte("[]")
	}
	out := make([]byte, 0, 2+len(items)*32)
	out = append(out, '[')
	for i, item := range items {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, item...)
	}
	out = append(out, ']')
	return out
}
