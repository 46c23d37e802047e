package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/cronpipe/pkg/scheduler"
)

const newsSourceBaseURL = "https://news.likanug.top/api/s?id="

type newsSourcePayload struct {
	Name  string            `json:"name"`
	Items []json.RawMessage `json:"items"`
}

// fetchLatestNewsData is grounded on news.rs's fetch_latest_news_data: a
// comma-separated list of source ids, one goroutine per source, failures
// for individual sources dropped without logging rather than failing the
// command; only a failure of every source is an error.
func fetchLatestNewsData() scheduler.CommandFunc {
	return func(ctx context.Context, in scheduler.CommandInput) (scheduler.ResultBundle, error) {
		shared, ok := sharedFrom(in)
		if !ok {
			return nil, fmt.Errorf("commands: fetch_latest_news_data requires a Shared context")
		}

		sources := splitArgs(in.Argument)
		results := make([]*scheduler.NewsResult, len(sources))

		g, gctx := errgroup.WithContext(ctx)
		for i, src := range sources {
			i, src := i, src
			g.Go(func() error {
				body, err := fetchCached(gctx, shared, newsSourceBaseURL+src, "https://news.likanug.top/")
				if err != nil {
					return nil // a single source's failure is not fatal
				}
				var payload newsSourcePayload
				if err := json.Unmarshal(body, &payload); err != nil {
					return nil
				}
				results[i] = &scheduler.NewsResult{ID: src, Name: payload.Name, Items: payload.Items}
				return nil
			})
		}
		_ = g.Wait() // individual source errors are swallowed above; this can't fail

		bundle := scheduler.ResultBundle{}
		weekday := todayWeekday()
		found := 0
		for _, r := range results {
			if r != nil {
				found++
				bundle[weekday] = append(bundle[weekday], scheduler.ResultItem{News: r})
			}
		}
		if found == 0 && len(sources) > 0 {
			return nil, fmt.Errorf("commands: fetch_latest_news_data: every source failed")
		}
		return bundle, nil
	}
}

func splitArgs(arg string) []string {
	parts := strings.Split(arg, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
