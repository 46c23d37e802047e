package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"

	"github.com/dmitrymomot/cronpipe/pkg/cache"
	"github.com/dmitrymomot/cronpipe/pkg/scheduler"
)

var pubIndexDigits = regexp.MustCompile(`\d+`)

// fetchCached performs a GET against url with the given Referer header,
// reusing a cached body for the same URL within pageCacheTTL so a burst of
// firings hitting the same upstream page collapses to one fetch.
func fetchCached(ctx context.Context, s Shared, targetURL, referer string) ([]byte, error) {
	if s.Cache == nil {
		return doGet(ctx, s.HTTP, targetURL, referer)
	}
	return cache.GetOrSet(ctx, s.Cache, "commands:page:"+targetURL, func(ctx context.Context) ([]byte, time.Duration, error) {
		body, err := doGet(ctx, s.HTTP, targetURL, referer)
		return body, pageCacheTTL, err
	})
}

func doGet(ctx context.Context, client *http.Client, targetURL, referer string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", referer)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, targetURL)
	}
	return io.ReadAll(resp.Body)
}

// aniDayBucket mirrors the upstream JSON shape bilibili.rs's process_json_value
// walks: a list of day buckets, each carrying an is_today flag and an
// episodes array.
type aniDayBucket struct {
	IsToday  int `json:"is_today"`
	Episodes []struct {
		PubIndex    string `json:"pub_index"`
		Published   int    `json:"published"`
		SquareCover string `json:"square_cover"`
		Cover       string `json:"cover"`
		EpisodeID   int64  `json:"episode_id"`
		Title       string `json:"title"`
	} `json:"episodes"`
}

type aniResponse struct {
	Code   int            `json:"code"`
	Result []aniDayBucket `json:"result"`
}

// parseAniJSON replicates process_json_value: validate the envelope, find
// today's bucket, and build one AnimeResult per published episode.
func parseAniJSON(platform string, body []byte) ([]scheduler.AnimeResult, error) {
	var parsed aniResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	if parsed.Code != 0 {
		return nil, fmt.Errorf("upstream returned code %d", parsed.Code)
	}

	var today *aniDayBucket
	for i := range parsed.Result {
		if parsed.Result[i].IsToday == 1 {
			today = &parsed.Result[i]
			break
		}
	}
	if today == nil {
		return nil, nil
	}

	now := time.Now().Format("2006/01/02")
	var items []scheduler.AnimeResult
	for _, ep := range today.Episodes {
		if ep.Published != 1 {
			continue
		}
		image := ep.SquareCover
		if image == "" {
			image = ep.Cover
		}
		items = append(items, scheduler.AnimeResult{
			Platform:    platform,
			Title:       strings.TrimSpace(ep.Title),
			UpdateCount: strings.Join(pubIndexDigits.FindAllString(ep.PubIndex, -1), ""),
			UpdateInfo:  "更新至" + strings.TrimSpace(ep.PubIndex),
			ImageURL:    image,
			DetailURL:   fmt.Sprintf("https://www.bilibili.com/bangumi/play/ep%d", ep.EpisodeID),
			UpdateTime:  now,
		})
	}
	return items, nil
}

// parseAniHTML replicates mikanani.rs's <li> filter-and-extract pass over a
// rendered schedule page, for platforms that don't expose a JSON API.
func parseAniHTML(platform string, baseURL string, body []byte) ([]scheduler.AnimeResult, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	today := time.Now().Format("2006/01/02")
	var items []scheduler.AnimeResult
	doc.Find("li").Each(func(_ int, li *goquery.Selection) {
		if li.Find("div.num-node.text-center").Length() == 0 {
			return
		}
		dateText := strings.TrimSpace(li.Find("div.date-text").First().Text())
		if dateText == "" || !strings.Contains(dateText, today) {
			return
		}

		anchor := li.Find("a.an-text").First()
		title := strings.TrimSpace(anchor.AttrOr("title", ""))
		if title == "" {
			return
		}

		imageRel, hasImage := li.Find("span.js-expand_bangumi").First().Attr("data-src")
		detailRel := anchor.AttrOr("href", "")

		var imageURL, detailURL string
		if hasImage {
			if u, err := base.Parse(imageRel); err == nil {
				imageURL = u.String()
			}
		}
		if u, err := base.Parse(detailRel); err == nil {
			detailURL = u.String()
		}

		updateTime := dateText
		if parts := strings.Fields(dateText); len(parts) > 0 {
			updateTime = parts[0]
		}

		items = append(items, scheduler.AnimeResult{
			Platform:   platform,
			Title:      title,
			UpdateInfo: dateText,
			ImageURL:   imageURL,
			DetailURL:  detailURL,
			UpdateTime: updateTime,
		})
	})
	return items, nil
}

// scrapeAniJSON builds a command for a JSON-API anime source.
func scrapeAniJSON(platform, referer string) scheduler.CommandFunc {
	return func(ctx context.Context, in scheduler.CommandInput) (scheduler.ResultBundle, error) {
		shared, ok := sharedFrom(in)
		if !ok {
			return nil, fmt.Errorf("commands: %s requires a Shared context", platform)
		}
		body, err := fetchCached(ctx, shared, in.Argument, referer)
		if err != nil {
			return nil, err
		}
		items, err := parseAniJSON(platform, body)
		if err != nil {
			return nil, err
		}
		bundle := scheduler.ResultBundle{}
		weekday := todayWeekday()
		for i := range items {
			bundle[weekday] = append(bundle[weekday], scheduler.ResultItem{Anime: &items[i]})
		}
		return bundle, nil
	}
}

// scrapeAniHTML builds a command for an HTML-rendered anime schedule page.
func scrapeAniHTML(platform, referer string) scheduler.CommandFunc {
	return func(ctx context.Context, in scheduler.CommandInput) (scheduler.ResultBundle, error) {
		shared, ok := sharedFrom(in)
		if !ok {
			return nil, fmt.Errorf("commands: %s requires a Shared context", platform)
		}
		body, err := fetchCached(ctx, shared, in.Argument, referer)
		if err != nil {
			return nil, err
		}
		items, err := parseAniHTML(platform, in.Argument, body)
		if err != nil {
			return nil, err
		}
		bundle := scheduler.ResultBundle{}
		weekday := todayWeekday()
		for i := range items {
			bundle[weekday] = append(bundle[weekday], scheduler.ResultItem{Anime: &items[i]})
		}
		return bundle, nil
	}
}

type doubanItem struct {
	ID           json.Number     `json:"id"`
	Title        string          `json:"title"`
	Rating       json.RawMessage `json:"rating"`
	Pic          json.RawMessage `json:"pic"`
	IsNew        bool            `json:"is_new"`
	EpisodesInfo string          `json:"episodes_info"`
	CardSubtitle string          `json:"card_subtitle"`
}

type doubanResponse struct {
	Items []doubanItem `json:"items"`
}

// fetchDoubanMovieData is grounded on douban.rs's process_json_value, but
// fetches through a colly.Collector rather than a bare HTTP client. It
// visits targetURL only; pagination links in the response are not followed.
func fetchDoubanMovieData(ctx context.Context, shared Shared, targetURL string) ([]scheduler.VideoResult, error) {
	var (
		videos []scheduler.VideoResult
		fetchErr error
	)

	c := colly.NewCollector()
	c.OnResponse(func(r *colly.Response) {
		var parsed doubanResponse
		if err := json.Unmarshal(r.Body, &parsed); err != nil {
			fetchErr = err
			return
		}
		for _, item := range parsed.Items {
			pic := strings.Trim(string(item.Pic), `"`)
			videos = append(videos, scheduler.VideoResult{
				ID:           item.ID.String(),
				Title:        item.Title,
				Rating:       string(item.Rating),
				Pic:          pic,
				IsNew:        item.IsNew,
				URI:          pic,
				EpisodesInfo: item.EpisodesInfo,
				CardSubtitle: item.CardSubtitle,
				Type:         pic,
			})
		}
	})
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Referer", "https://movie.douban.com/")
	})

	if err := c.Visit(targetURL); err != nil {
		return nil, err
	}
	c.Wait()
	if fetchErr != nil {
		return nil, fetchErr
	}
	_ = ctx
	return videos, nil
}

func scrapeDoubanMovies() scheduler.CommandFunc {
	return func(ctx context.Context, in scheduler.CommandInput) (scheduler.ResultBundle, error) {
		shared, ok := sharedFrom(in)
		if !ok {
			return nil, fmt.Errorf("commands: fetch_douban_movie_data requires a Shared context")
		}
		videos, err := fetchDoubanMovieData(ctx, shared, in.Argument)
		if err != nil {
			return nil, err
		}
		bundle := scheduler.ResultBundle{}
		weekday := todayWeekday()
		for i := range videos {
			bundle[weekday] = append(bundle[weekday], scheduler.ResultItem{Video: &videos[i]})
		}
		return bundle, nil
	}
}
