package scheduler_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cronpipe/pkg/scheduler"
)

// staticCatalog returns a fixed, swappable list of specs.
type staticCatalog struct {
	mu    sync.Mutex
	specs []scheduler.JobSpec
	err   error
}

func (c *staticCatalog) ListAll(context.Context) ([]scheduler.JobSpec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	out := make([]scheduler.JobSpec, len(c.specs))
	copy(out, c.specs)
	return out, nil
}

func (c *staticCatalog) set(specs []scheduler.JobSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.specs = specs
}

// countingSink counts calls per variant; one method returns an error to
// prove a single sink failure does not suppress the rest of a bundle.
type countingSink struct {
	mu             sync.Mutex
	animeCalls     int
	videoCalls     int
	newsCalls      int
	healthCalls    int
	extractedCalls int
	keywordCalls   int
	failHealth     bool
}

func (s *countingSink) PersistAnime(context.Context, scheduler.AnimeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animeCalls++
	return nil
}

func (s *countingSink) PersistVideo(context.Context, scheduler.VideoResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videoCalls++
	return nil
}

func (s *countingSink) PersistNews(context.Context, scheduler.NewsResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newsCalls++
	return nil
}

func (s *countingSink) PersistHealth(context.Context, scheduler.HealthResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthCalls++
	if s.failHealth {
		return errors.New("simulated sink failure")
	}
	return nil
}

func (s *countingSink) PersistExtractedNewsItem(context.Context, scheduler.ExtractedNewsItemResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extractedCalls++
	return nil
}

func (s *countingSink) PersistNewsKeywords(context.Context, scheduler.NewsKeywordsResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keywordCalls++
	return nil
}

func (s *countingSink) snapshot() (anime, video, news, health, extracted, keywords int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.animeCalls, s.videoCalls, s.newsCalls, s.healthCalls, s.extractedCalls, s.keywordCalls
}

func TestTaskManager_StartTwiceFails(t *testing.T) {
	catalog := &staticCatalog{}
	registry := scheduler.NewCommandRegistry()
	sink := &countingSink{}

	tm := scheduler.NewTaskManager(catalog, registry, sink, nil, scheduler.WithLogger(slog.Default()))
	require.NoError(t, tm.Start(context.Background()))
	defer tm.Stop()

	err := tm.Start(context.Background())
	assert.ErrorIs(t, err, scheduler.ErrAlreadyStarted)
}

func TestTaskManager_RefreshBeforeStartFails(t *testing.T) {
	tm := scheduler.NewTaskManager(&staticCatalog{}, scheduler.NewCommandRegistry(), &countingSink{}, nil)
	err := tm.Refresh(context.Background())
	assert.ErrorIs(t, err, scheduler.ErrNotStarted)
}

func TestTaskManager_CatalogUnavailableFailsStart(t *testing.T) {
	catalog := &staticCatalog{err: errors.New("db down")}
	tm := scheduler.NewTaskManager(catalog, scheduler.NewCommandRegistry(), &countingSink{}, nil)

	err := tm.Start(context.Background())
	assert.ErrorIs(t, err, scheduler.ErrCatalogUnavailable)
}

// 9. Sink fan-out: a bundle with M items triggers M sink calls, and one
// erroring call does not suppress the others.
func TestTaskManager_SinkFanOutToleratesPartialFailure(t *testing.T) {
	registry := scheduler.NewCommandRegistry()
	registry.Register("emit", func(context.Context, scheduler.CommandInput) (scheduler.ResultBundle, error) {
		return scheduler.ResultBundle{
			"mon": {
				{Anime: &scheduler.AnimeResult{Title: "a"}},
				{Video: &scheduler.VideoResult{Title: "b"}},
				{Health: &scheduler.HealthResult{URL: "u"}},
			},
		}, nil
	})

	catalog := &staticCatalog{specs: []scheduler.JobSpec{
		{Name: "emitter", CronExpr: "*/1 * * * * * *", CommandName: "emit"},
	}}
	sink := &countingSink{failHealth: true}

	tm := scheduler.NewTaskManager(catalog, registry, sink, nil, scheduler.WithLogger(slog.Default()))
	require.NoError(t, tm.Start(context.Background()))
	defer tm.Stop()

	require.Eventually(t, func() bool {
		anime, video, _, health, _, _ := sink.snapshot()
		return anime > 0 && video > 0 && health > 0
	}, 3*time.Second, 50*time.Millisecond)
}

// 8. Refresh atomicity: after Refresh, the old generation's jobs stop
// firing and the new generation's jobs fire.
func TestTaskManager_RefreshSwapsGeneration(t *testing.T) {
	var bCalls, cCalls atomic.Int64

	registry := scheduler.NewCommandRegistry()
	registry.Register("b", func(context.Context, scheduler.CommandInput) (scheduler.ResultBundle, error) {
		bCalls.Add(1)
		return scheduler.ResultBundle{}, nil
	})
	registry.Register("c", func(context.Context, scheduler.CommandInput) (scheduler.ResultBundle, error) {
		cCalls.Add(1)
		return scheduler.ResultBundle{}, nil
	})

	catalog := &staticCatalog{specs: []scheduler.JobSpec{
		{Name: "B", CronExpr: "*/1 * * * * * *", CommandName: "b"},
	}}

	tm := scheduler.NewTaskManager(catalog, registry, &countingSink{}, nil, scheduler.WithLogger(slog.Default()))
	require.NoError(t, tm.Start(context.Background()))
	defer tm.Stop()

	require.Eventually(t, func() bool { return bCalls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	catalog.set([]scheduler.JobSpec{
		{Name: "C", CronExpr: "*/1 * * * * * *", CommandName: "c"},
	})
	require.NoError(t, tm.Refresh(context.Background()))

	bBefore := bCalls.Load()
	require.Eventually(t, func() bool { return cCalls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, bBefore, bCalls.Load(), "job B must stop firing once refreshed out of the catalog")
}

func TestTaskManager_Describe(t *testing.T) {
	catalog := &staticCatalog{specs: []scheduler.JobSpec{
		{Name: "A", CronExpr: "*/5 * * * * * *", CommandName: "noop"},
	}}
	registry := scheduler.NewCommandRegistry()
	registry.Register("noop", func(context.Context, scheduler.CommandInput) (scheduler.ResultBundle, error) {
		return scheduler.ResultBundle{}, nil
	})

	tm := scheduler.NewTaskManager(catalog, registry, &countingSink{}, nil)
	require.NoError(t, tm.Start(context.Background()))
	defer tm.Stop()

	descs := tm.Describe()
	require.Len(t, descs, 1)
	assert.Equal(t, "A", descs[0].Name)
	assert.NotNil(t, descs[0].NextFireTime)
}
