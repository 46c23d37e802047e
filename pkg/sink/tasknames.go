package sink

// Task names registered with the underlying job.Manager, one per
// scheduler.ResultItem variant.
const (
	taskPersistAnime             = "persist_anime"
	taskPersistVideo             = "persist_video"
	taskPersistNews              = "persist_news"
	taskPersistHealth            = "persist_health"
	taskPersistExtractedNewsItem = "persist_extracted_news_item"
	taskPersistNewsKeywords      = "persist_news_keywords"
)
