package commands

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/cronpipe/pkg/cache"
	"github.com/dmitrymomot/cronpipe/pkg/scheduler"
)

// Shared is the concrete value every command type-asserts out of
// scheduler.SharedContext. pkg/scheduler never imports this type directly;
// it only ever sees it as the opaque scheduler.SharedContext.
type Shared struct {
	DB    *pgxpool.Pool
	Cache cache.Cache[[]byte]
	HTTP  *http.Client
}

// pageCacheTTL bounds how long a fetched page is reused across jobs hitting
// the same upstream URL within the window.
const pageCacheTTL = 2 * time.Minute

func sharedFrom(in scheduler.CommandInput) (Shared, bool) {
	s, ok := in.Shared.(Shared)
	return s, ok
}

var weekdayCN = [...]string{
	"星期一", "星期二", "星期三", "星期四", "星期五", "星期六", "星期日",
}

// todayWeekday returns the Chinese weekday label used to group results,
// exactly as the original system's get_today_weekday does.
func todayWeekday() string {
	wd := time.Now().Weekday()
	// time.Weekday: Sunday=0..Saturday=6; the original indexes Monday=0.
	idx := (int(wd) + 6) % 7
	return weekdayCN[idx]
}
