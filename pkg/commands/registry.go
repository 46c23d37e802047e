package commands

import (
	"github.com/dmitrymomot/cronpipe/pkg/scheduler"
)

// Build returns a CommandRegistry populated with the full command set this
// deployment runs, registered under the same names the original system
// used (original_source/timer_tasker/src/commands.rs's build_cmd_map), so
// catalog rows authored against that naming scheme port over unchanged.
func Build() *scheduler.CommandRegistry {
	registry := scheduler.NewCommandRegistry()

	registry.Register("fetch_bilibili_ani_data", scrapeAniJSON("bilibili", "https://www.bilibili.com/"))
	registry.Register("fetch_agedm_ani_data", scrapeAniJSON("agedm", "https://www.agedm.org/"))
	registry.Register("fetch_iqiyi_ani_data", scrapeAniJSON("iqiyi", "https://www.iqiyi.com/"))
	registry.Register("fetch_qq_ani_data", scrapeAniJSON("qq", "https://v.qq.com/"))
	registry.Register("fetch_youku_ani_data", scrapeAniJSON("youku", "https://www.youku.com/"))
	registry.Register("fetch_mikanani_ani_data", scrapeAniHTML("mikanani", "https://mikanani.me/"))
	registry.Register("fetch_douban_movie_data", scrapeDoubanMovies())

	registry.Register("fetch_latest_news_data", fetchLatestNewsData())
	registry.Register("health_check", healthCheck())

	registry.Register("extract_news_items", extractNewsItems())
	registry.Register("extract_news_keywords", extractNewsKeywords())

	return registry
}
