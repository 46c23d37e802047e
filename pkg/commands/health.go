package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/cronpipe/pkg/scheduler"
)

// healthCheck is grounded on health_checker.rs's health_check: args is a
// comma-separated list of URLs, each checked concurrently via an
// errgroup.Group. A single URL's failure is dropped without logging, mirroring
// the original's JoinSet-and-collect-successes pattern; only a total
// failure to reach any URL surfaces as a command error.
func healthCheck() scheduler.CommandFunc {
	return func(ctx context.Context, in scheduler.CommandInput) (scheduler.ResultBundle, error) {
		shared, ok := sharedFrom(in)
		if !ok {
			return nil, fmt.Errorf("commands: health_check requires a Shared context")
		}

		urls := splitArgs(in.Argument)
		results := make([]*scheduler.HealthResult, len(urls))

		g, gctx := errgroup.WithContext(ctx)
		for i, u := range urls {
			i, u := i, u
			g.Go(func() error {
				result, err := checkOne(gctx, shared.HTTP, u)
				if err != nil {
					return nil
				}
				results[i] = result
				return nil
			})
		}
		_ = g.Wait()

		bundle := scheduler.ResultBundle{}
		weekday := todayWeekday()
		found := 0
		for _, r := range results {
			if r != nil {
				found++
				bundle[weekday] = append(bundle[weekday], scheduler.ResultItem{Health: r})
			}
		}
		if found == 0 && len(urls) > 0 {
			return nil, fmt.Errorf("commands: health_check: every URL failed")
		}
		return bundle, nil
	}
}

func checkOne(ctx context.Context, client *http.Client, targetURL string) (*scheduler.HealthResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", targetURL)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d checking %s", resp.StatusCode, targetURL)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return &scheduler.HealthResult{URL: targetURL, Result: raw}, nil
}
