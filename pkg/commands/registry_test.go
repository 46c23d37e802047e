package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuild_RegistersOriginalCommandNames(t *testing.T) {
	registry := Build()
	for _, name := range []string{
		"fetch_bilibili_ani_data",
		"fetch_agedm_ani_data",
		"fetch_iqiyi_ani_data",
		"fetch_qq_ani_data",
		"fetch_youku_ani_data",
		"fetch_mikanani_ani_data",
		"fetch_douban_movie_data",
		"fetch_latest_news_data",
		"health_check",
		"extract_news_items",
		"extract_news_keywords",
	} {
		_, ok := registry.Lookup(name)
		assert.True(t, ok, "expected command %q to be registered", name)
	}
}
