package scheduler

import (
	"context"
	"encoding/json"
)

// TaskOutcome is produced by a successful attempt and delivered once to the
// drain. A firing that exhausts its retry budget produces no outcome.
type TaskOutcome struct {
	JobName string
	Payload *ResultBundle
}

// ResultBundle maps a weekday label (a grouping key set by the command) to
// an ordered sequence of items. The scheduler never interprets the label.
type ResultBundle map[string][]ResultItem

// ResultItem is a tagged union over the closed set of payload variants a
// command can produce: Anime, Video, News, Health, ExtractedNewsItem,
// NewsKeywords. Exactly one field is non-nil. This is the idiomatic Go
// rendition of a closed sum type: a struct of optional pointers plus a
// single Dispatch method that switches over all of them, so adding a
// seventh variant forces both a new field here and a new ResultSink method
// everywhere the interface is implemented.
type ResultItem struct {
	Anime             *AnimeResult
	Video             *VideoResult
	News              *NewsResult
	Health            *HealthResult
	ExtractedNewsItem *ExtractedNewsItemResult
	NewsKeywords      *NewsKeywordsResult
}

// Variant returns a short diagnostic name for whichever field is set, or
// "" if the item is empty.
func (i ResultItem) Variant() string {
	switch {
	case i.Anime != nil:
		return "anime"
	case i.Video != nil:
		return "video"
	case i.News != nil:
		return "news"
	case i.Health != nil:
		return "health"
	case i.ExtractedNewsItem != nil:
		return "extracted_news_item"
	case i.NewsKeywords != nil:
		return "news_keywords"
	default:
		return ""
	}
}

// Dispatch invokes the ResultSink method matching whichever variant is set.
func (i ResultItem) Dispatch(ctx context.Context, sink ResultSink) error {
	switch {
	case i.Anime != nil:
		return sink.PersistAnime(ctx, *i.Anime)
	case i.Video != nil:
		return sink.PersistVideo(ctx, *i.Video)
	case i.News != nil:
		return sink.PersistNews(ctx, *i.News)
	case i.Health != nil:
		return sink.PersistHealth(ctx, *i.Health)
	case i.ExtractedNewsItem != nil:
		return sink.PersistExtractedNewsItem(ctx, *i.ExtractedNewsItem)
	case i.NewsKeywords != nil:
		return sink.PersistNewsKeywords(ctx, *i.NewsKeywords)
	default:
		return ErrEmptyResultItem
	}
}

// ResultSink is consumed by the drain task; one method per ResultItem
// variant. Methods are independent: a failure persisting one item must
// not abort the rest of the bundle, and the sink may be called
// concurrently by many drain-spawned writers. The sink never iterates a
// bundle itself — that is the drain's job.
type ResultSink interface {
	PersistAnime(ctx context.Context, r AnimeResult) error
	PersistVideo(ctx context.Context, r VideoResult) error
	PersistNews(ctx context.Context, r NewsResult) error
	PersistHealth(ctx context.Context, r HealthResult) error
	PersistExtractedNewsItem(ctx context.Context, r ExtractedNewsItemResult) error
	PersistNewsKeywords(ctx context.Context, r NewsKeywordsResult) error
}

// AnimeResult is one episode update from an anime-tracking source.
// Grounded on original_source/common/src/po.rs's AniItem.
type AnimeResult struct {
	Platform    string
	Title       string
	UpdateCount string
	UpdateInfo  string
	ImageURL    string
	DetailURL   string
	UpdateTime  string
}

// VideoResult is one entry from a video catalog source.
// Grounded on original_source/common/src/po.rs's BaseVideo/VideoItem.
type VideoResult struct {
	ID           string
	Title        string
	Rating       string
	Pic          string
	IsNew        bool
	URI          string
	EpisodesInfo string
	CardSubtitle string
	Type         string
}

// NewsResult is one news source's index page, with each item's raw JSON
// preserved for the extraction commands to re-parse later.
// Grounded on original_source/common/src/po.rs's NewsInfo.
type NewsResult struct {
	ID    string
	Name  string
	Items []json.RawMessage
}

// HealthResult is one upstream URL's health-check response.
// Grounded on original_source/common/src/po.rs's HealthItem.
type HealthResult struct {
	URL    string
	Result json.RawMessage
}

// ExtractedNewsItemResult is a news item that has been extracted and
// transformed out of a NewsResult's raw items.
// Grounded on original_source/service/src/process_news_info_to_item.rs's
// NewsInfo2Item.
type ExtractedNewsItemResult struct {
	ID         string
	NewsFrom   string
	Name       string
	NewsDate   string
	NewsItemID string
	Title      string
	URL        string
	Content    *string
	Extra      json.RawMessage
}

// NewsKeywordsResult is the response of a keyword-extraction call made
// against one news item's content. The original sources have no dedicated
// struct for this (both task_manage.rs and process_news_info.rs reuse
// HealthItem{url, result} for it); this gives it its own strongly-typed
// record instead, since ResultItem's closed set requires the sink to
// exhaustively handle every variant by name.
type NewsKeywordsResult struct {
	URL      string
	Keywords json.RawMessage
}
