package refresh_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"feed-ingest/internal/domain/entity"
)

// sources

type stubSources struct {
	mu      sync.Mutex
	list    []*entity.Source
	listErr error
	marked  map[int64]time.Time
}

func newStubSources(srcs ...*entity.Source) *stubSources {
	return &stubSources{list: srcs, marked: map[int64]time.Time{}}
}

func (s *stubSources) ListActive(context.Context) ([]*entity.Source, error) {
	return s.list, s.listErr
}

func (s *stubSources) MarkFetched(_ context.Context, id int64, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked[id] = t
	return nil
}

func (s *stubSources) Register(context.Context, *entity.Source) (bool, error) { return true, nil }

func (s *stubSources) markedIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.marked))
	for id := range s.marked {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// articles

type stubArticles struct {
	mu        sync.Mutex
	byURL     map[string]*entity.Article
	upsertErr error
	deleteErr error
	cutoffs   []time.Time
	deleted   int64
}

func newStubArticles() *stubArticles {
	return &stubArticles{byURL: map[string]*entity.Article{}}
}

func (a *stubArticles) UpsertByURL(_ context.Context, art *entity.Article) (entity.UpsertOutcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.upsertErr != nil {
		return 0, a.upsertErr
	}
	if _, ok := a.byURL[art.URL]; ok {
		return entity.AlreadyExists, nil
	}
	cp := *art
	a.byURL[art.URL] = &cp
	return entity.Inserted, nil
}

func (a *stubArticles) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cutoffs = append(a.cutoffs, cutoff)
	return a.deleted, a.deleteErr
}

func (a *stubArticles) CountBySource(_ context.Context, sourceID int64) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var n int64
	for _, art := range a.byURL {
		if art.SourceID == sourceID {
			n++
		}
	}
	return n, nil
}

// metadata

type stubMetadata struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newStubMetadata() *stubMetadata { return &stubMetadata{values: map[string]string{}} }

func (m *stubMetadata) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *stubMetadata) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", entity.ErrNotFound
	}
	return v, nil
}

// jobs

type stubJobs struct {
	mu          sync.Mutex
	next        int64
	jobs        map[int64]*entity.FeedJob
	completeErr error
}

func newStubJobs() *stubJobs { return &stubJobs{jobs: map[int64]*entity.FeedJob{}} }

func (j *stubJobs) Create(_ context.Context, job *entity.FeedJob) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.next++
	cp := *job
	cp.ID = j.next
	j.jobs[cp.ID] = &cp
	return cp.ID, nil
}

func (j *stubJobs) Finish(_ context.Context, job *entity.FeedJob) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	cur, ok := j.jobs[job.ID]
	if !ok || cur.Status.IsTerminal() {
		return entity.ErrInvalidJobTransition
	}
	if job.Status == entity.JobCompleted && j.completeErr != nil {
		return j.completeErr
	}
	cp := *job
	j.jobs[job.ID] = &cp
	return nil
}

func (j *stubJobs) all() []*entity.FeedJob {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*entity.FeedJob, 0, len(j.jobs))
	for _, job := range j.jobs {
		cp := *job
		out = append(out, &cp)
	}
	return out
}

func (j *stubJobs) ListByRun(_ context.Context, runID string) ([]*entity.FeedJob, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []*entity.FeedJob
	for _, job := range j.jobs {
		if job.RunID == runID {
			cp := *job
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].SourceID < out[b].SourceID })
	return out, nil
}

// parser

type fetchFunc func(ctx context.Context) ([]entity.FeedEntry, error)

type stubParser struct {
	feeds    map[string]fetchFunc
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func (p *stubParser) FetchFeed(ctx context.Context, feedURL string) ([]entity.FeedEntry, error) {
	cur := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		prev := p.maxSeen.Load()
		if cur <= prev || p.maxSeen.CompareAndSwap(prev, cur) {
			break
		}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}

	fn, ok := p.feeds[feedURL]
	if !ok {
		return nil, fmt.Errorf("no stub for %s", feedURL)
	}
	return fn(ctx)
}

func entriesFor(sourceID int64, n int) fetchFunc {
	return func(context.Context) ([]entity.FeedEntry, error) {
		out := make([]entity.FeedEntry, n)
		for i := range out {
			out[i] = entity.FeedEntry{
				Dialect:        entity.DialectRSS,
				Title:          fmt.Sprintf("Source %d article %d", sourceID, i),
				Link:           fmt.Sprintf("https://s%d.example.com/a/%d", sourceID, i),
				ContentSnippet: "snippet",
				ContentEncoded: "<p>body</p>",
			}
		}
		return out, nil
	}
}

func hangUntilDone(ctx context.Context) ([]entity.FeedEntry, error) {
	<-ctx.Done()
	return nil, fmt.Errorf("fetch: %w", ctx.Err())
}

func source(id int64) *entity.Source {
	return &entity.Source{
		ID:      id,
		Name:    fmt.Sprintf("source-%d", id),
		FeedURL: fmt.Sprintf("https://s%d.example.com/feed", id),
		Active:  true,
	}
}
