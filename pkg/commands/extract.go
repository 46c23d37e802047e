package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/cronpipe/pkg/scheduler"
)

type newsInfoRow struct {
	ID       string
	NewsFrom string
	Name     string
	NewsDate string
	Items    []json.RawMessage
}

type nestedNewsItem struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	URL   string  `json:"url"`
	Hover *string `json:"hover"`
}

// extractNewsItems is grounded on process_news_info_to_item.rs's
// extract_transform_news_info_to_item: reads unextracted news_info rows via
// the shared DB pool, flattens each row's nested items[] JSON into one
// ExtractedNewsItemResult per item.
func extractNewsItems() scheduler.CommandFunc {
	return func(ctx context.Context, in scheduler.CommandInput) (scheduler.ResultBundle, error) {
		shared, ok := sharedFrom(in)
		if !ok || shared.DB == nil {
			return nil, fmt.Errorf("commands: extract_news_items requires a database-backed Shared context")
		}

		rows, err := shared.DB.Query(ctx, `
			SELECT id, news_from, name, news_date, data->'items'
			FROM news_info
			WHERE extracted = false
			ORDER BY id
		`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var newsRows []newsInfoRow
		for rows.Next() {
			var r newsInfoRow
			var rawItems json.RawMessage
			if err := rows.Scan(&r.ID, &r.NewsFrom, &r.Name, &r.NewsDate, &rawItems); err != nil {
				continue
			}
			_ = json.Unmarshal(rawItems, &r.Items)
			newsRows = append(newsRows, r)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}

		bundle := scheduler.ResultBundle{}
		weekday := todayWeekday()
		for _, row := range newsRows {
			for _, raw := range row.Items {
				var item nestedNewsItem
				if err := json.Unmarshal(raw, &item); err != nil {
					continue
				}
				result := scheduler.ExtractedNewsItemResult{
					ID:         row.ID,
					NewsFrom:   row.NewsFrom,
					Name:       row.Name,
					NewsDate:   row.NewsDate,
					NewsItemID: item.ID,
					Title:      item.Title,
					URL:        item.URL,
					Content:    item.Hover,
					Extra:      raw,
				}
				bundle[weekday] = append(bundle[weekday], scheduler.ResultItem{ExtractedNewsItem: &result})
			}
		}
		return bundle, nil
	}
}

// extractNewsKeywords is grounded on process_news_info.rs's
// extract_news_keywords: posts an empty JSON body to a configurable
// downstream NLP endpoint (in.Argument) and wraps the raw response as a
// NewsKeywordsResult.
func extractNewsKeywords() scheduler.CommandFunc {
	return func(ctx context.Context, in scheduler.CommandInput) (scheduler.ResultBundle, error) {
		shared, ok := sharedFrom(in)
		if !ok {
			return nil, fmt.Errorf("commands: extract_news_keywords requires a Shared context")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, in.Argument, bytes.NewReader([]byte("{}")))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Referer", in.Argument)
		req.Header.Set("Content-Type", "application/json")

		resp, err := shared.HTTP.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("commands: extract_news_keywords: status %d from %s", resp.StatusCode, in.Argument)
		}

		var raw json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return nil, err
		}

		bundle := scheduler.ResultBundle{
			todayWeekday(): {
				{NewsKeywords: &scheduler.NewsKeywordsResult{URL: in.Argument, Keywords: raw}},
			},
		}
		return bundle, nil
	}
}
