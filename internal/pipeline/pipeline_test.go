package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pokelearn/web/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCatalog struct {
	mu      sync.Mutex
	records map[string]*domain.DetailRecord
	fail    map[string]bool
	calls   atomic.Int32
	delay   time.Duration // Blocks every call regardless of ctx, like a rate limiter
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		records: make(map[string]*domain.DetailRecord),
		fail:    make(map[string]bool),
	}
}

func (f *fakeCatalog) add(id int, name string, types ...string) domain.IndexEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	url := fmt.Sprintf("https://catalog.test/pokemon/%d/", id)
	f.records[url] = &domain.DetailRecord{ID: id, Name: name, Types: types}
	return domain.IndexEntry{Name: name, URL: url}
}

func (f *fakeCatalog) ListAll(ctx context.Context) ([]domain.IndexEntry, error) {
	return nil, errors.New("not used")
}

func (f *fakeCatalog) GetDetail(ctx context.Context, url string) (*domain.DetailRecord, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail[url] {
		return nil, &domain.FetchError{Op: domain.OpDetail, Err: errors.New("HTTP error: 500 Internal Server Error")}
	}
	record, ok := f.records[url]
	if !ok {
		return nil, &domain.FetchError{Op: domain.OpDetail, Err: errors.New("HTTP error: 404 Not Found")}
	}
	copied := *record
	return &copied, nil
}

func defaultOptions() Options {
	return Options{CandidateCap: 300, PageSize: 20, MaxWorkers: 8}
}

func searchState(term string) domain.FilterState {
	return domain.NewFilterState().WithSearchTerm(term)
}

func TestRun_EmptyTermMakesNoCalls(t *testing.T) {
	catalog := newFakeCatalog()
	idx := domain.Index{Entries: []domain.IndexEntry{catalog.add(1, "bulbasaur", "grass")}}
	p := New(catalog, defaultOptions())

	for _, term := range []string{"", "   ", "\t\n"} {
		page, err := p.Run(context.Background(), idx, searchState(term))
		require.NoError(t, err)
		assert.Equal(t, domain.EmptyResultPage(), page)
	}

	assert.Zero(t, catalog.calls.Load())
}

func TestRun_EmptyTermIgnoresIndexFailure(t *testing.T) {
	p := New(newFakeCatalog(), defaultOptions())
	idx := domain.Index{Err: &domain.FetchError{Op: domain.OpIndex, Err: errors.New("boom")}}

	page, err := p.Run(context.Background(), idx, searchState(""))
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalPages)
}

func TestRun_PrefixFilter(t *testing.T) {
	catalog := newFakeCatalog()
	idx := domain.Index{Entries: []domain.IndexEntry{
		catalog.add(1, "bulbasaur", "grass"),
		catalog.add(2, "bulbasandwich", "grass"),
		catalog.add(4, "charmander", "fire"),
	}}
	p := New(catalog, defaultOptions())

	page, err := p.Run(context.Background(), idx, searchState("BULBA"))
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, "bulbasaur", page.Items[0].Name)
	assert.Equal(t, "bulbasandwich", page.Items[1].Name)
	assert.Equal(t, 2, page.Candidates)
	assert.Equal(t, int32(2), catalog.calls.Load())
}

func TestRun_NoPrefixMatches(t *testing.T) {
	catalog := newFakeCatalog()
	idx := domain.Index{Entries: []domain.IndexEntry{catalog.add(4, "charmander", "fire")}}
	p := New(catalog, defaultOptions())

	page, err := p.Run(context.Background(), idx, searchState("zz"))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Zero(t, catalog.calls.Load())
}

func TestRun_GenerationFilterIsInclusive(t *testing.T) {
	catalog := newFakeCatalog()
	idx := domain.Index{Entries: []domain.IndexEntry{
		catalog.add(1, "mon-first", "grass"),
		catalog.add(151, "mon-last", "psychic"),
		catalog.add(152, "mon-next", "grass"),
	}}
	p := New(catalog, defaultOptions())

	page, err := p.Run(context.Background(), idx, searchState("mon").WithGeneration("Gen 1"))
	require.NoError(t, err)

	ids := make([]int, 0, len(page.Items))
	for _, item := range page.Items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []int{1, 151}, ids)
}

func TestRun_TypeAndGenerationCombined(t *testing.T) {
	catalog := newFakeCatalog()
	idx := domain.Index{Entries: []domain.IndexEntry{
		catalog.add(1, "mon-a", "grass", "poison"),
		catalog.add(4, "mon-b", "fire"),
		catalog.add(152, "mon-c", "grass"),
	}}
	p := New(catalog, defaultOptions())

	page, err := p.Run(context.Background(), idx, searchState("mon").WithType("grass").WithGeneration("Gen 1"))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "mon-a", page.Items[0].Name)

	page, err = p.Run(context.Background(), idx, searchState("mon").WithType("grass"))
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestRun_UnknownSelectorsAreRejectedBeforeFetching(t *testing.T) {
	catalog := newFakeCatalog()
	idx := domain.Index{Entries: []domain.IndexEntry{catalog.add(1, "bulbasaur", "grass")}}
	p := New(catalog, defaultOptions())

	_, err := p.Run(context.Background(), idx, searchState("b").WithGeneration("Gen 42"))
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "generation", validationErr.Field)

	_, err = p.Run(context.Background(), idx, searchState("b").WithType("cosmic"))
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "type", validationErr.Field)

	assert.Zero(t, catalog.calls.Load())
}

func TestRun_IndexFailure(t *testing.T) {
	p := New(newFakeCatalog(), defaultOptions())
	idx := domain.Index{Err: &domain.FetchError{Op: domain.OpIndex, Err: errors.New("connection refused")}}

	_, err := p.Run(context.Background(), idx, searchState("bulba"))
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, domain.OpIndex, fetchErr.Op)
}

func TestRun_DetailFailureFailsWholeBatch(t *testing.T) {
	catalog := newFakeCatalog()
	entries := make([]domain.IndexEntry, 0, 10)
	for i := 1; i <= 10; i++ {
		entries = append(entries, catalog.add(i, fmt.Sprintf("mon-%02d", i), "normal"))
	}
	catalog.fail[entries[6].URL] = true
	p := New(catalog, defaultOptions())

	page, err := p.Run(context.Background(), domain.Index{Entries: entries}, searchState("mon"))
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, domain.OpDetail, fetchErr.Op)
	assert.Nil(t, page.Items)
}

func TestRun_DetailFailureSkipsQueuedFetches(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.delay = 50 * time.Millisecond
	entries := make([]domain.IndexEntry, 0, 20)
	for i := 1; i <= 20; i++ {
		entries = append(entries, catalog.add(i, fmt.Sprintf("mon-%02d", i), "normal"))
	}
	catalog.fail[entries[0].URL] = true
	p := New(catalog, Options{CandidateCap: 300, PageSize: 20, MaxWorkers: 1})

	start := time.Now()
	_, err := p.Run(context.Background(), domain.Index{Entries: entries}, searchState("mon"))
	elapsed := time.Since(start)

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, domain.OpDetail, fetchErr.Op)
	assert.Equal(t, int32(1), catalog.calls.Load())
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestRun_CancelledContext(t *testing.T) {
	catalog := newFakeCatalog()
	idx := domain.Index{Entries: []domain.IndexEntry{catalog.add(1, "bulbasaur", "grass")}}
	p := New(catalog, defaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, idx, searchState("bulba"))
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, catalog.calls.Load())
}

func TestNew_FloorsOptions(t *testing.T) {
	catalog := newFakeCatalog()
	entries := make([]domain.IndexEntry, 0, 25)
	for i := 1; i <= 25; i++ {
		entries = append(entries, catalog.add(i, fmt.Sprintf("mon-%02d", i), "normal"))
	}
	p := New(catalog, Options{})
	assert.Equal(t, DefaultPageSize, p.PageSize())

	page, err := p.Run(context.Background(), domain.Index{Entries: entries}, searchState("mon"))
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, DefaultPageSize)
	assert.False(t, page.Truncated)
}

func TestRun_CandidateCap(t *testing.T) {
	catalog := newFakeCatalog()
	entries := make([]domain.IndexEntry, 0, 12)
	for i := 1; i <= 12; i++ {
		entries = append(entries, catalog.add(i, fmt.Sprintf("mon-%02d", i), "normal"))
	}
	opts := defaultOptions()
	opts.CandidateCap = 5
	p := New(catalog, opts)

	page, err := p.Run(context.Background(), domain.Index{Entries: entries}, searchState("mon"))
	require.NoError(t, err)

	assert.True(t, page.Truncated)
	assert.Equal(t, 5, page.Candidates)
	assert.Equal(t, 5, page.TotalCount)
	assert.Equal(t, int32(5), catalog.calls.Load())
	assert.Equal(t, "mon-05", page.Items[4].Name)
}

func TestRun_Pagination(t *testing.T) {
	catalog := newFakeCatalog()
	entries := make([]domain.IndexEntry, 0, 45)
	for i := 1; i <= 45; i++ {
		entries = append(entries, catalog.add(i, fmt.Sprintf("mon-%02d", i), "normal"))
	}
	idx := domain.Index{Entries: entries}
	p := New(catalog, defaultOptions())

	page, err := p.Run(context.Background(), idx, searchState("mon").WithPage(3))
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 3, page.CurrentPage)
	require.Len(t, page.Items, 5)
	assert.Equal(t, "mon-41", page.Items[0].Name)

	page, err = p.Run(context.Background(), idx, searchState("mon").WithPage(4))
	require.NoError(t, err)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Len(t, page.Items, 5)
}

func TestRun_Idempotent(t *testing.T) {
	catalog := newFakeCatalog()
	entries := make([]domain.IndexEntry, 0, 30)
	for i := 1; i <= 30; i++ {
		entries = append(entries, catalog.add(i*10, fmt.Sprintf("mon-%02d", i), "water"))
	}
	idx := domain.Index{Entries: entries}
	p := New(catalog, defaultOptions())
	state := searchState("mon").WithGeneration("Gen 2").WithPage(1)

	first, err := p.Run(context.Background(), idx, state)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), idx, state)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(60), catalog.calls.Load())
}

func TestPrefixCandidates(t *testing.T) {
	entries := []domain.IndexEntry{
		{Name: "pikachu"},
		{Name: "pichu"},
		{Name: "raichu"},
		{Name: "pidgey"},
	}

	candidates, truncated := PrefixCandidates(entries, "Pi", 10)
	assert.False(t, truncated)
	require.Len(t, candidates, 3)
	for _, c := range candidates {
		assert.Regexp(t, "^pi", c.Name)
	}
	assert.Equal(t, "pidgey", candidates[2].Name)

	candidates, truncated = PrefixCandidates(entries, "pi", 3)
	assert.False(t, truncated)
	assert.Len(t, candidates, 3)

	candidates, truncated = PrefixCandidates(entries, "pi", 2)
	assert.True(t, truncated)
	assert.Len(t, candidates, 2)
}

func TestPaginate(t *testing.T) {
	records := func(n int) []domain.DetailRecord {
		out := make([]domain.DetailRecord, n)
		for i := range out {
			out[i].ID = i + 1
		}
		return out
	}

	tests := []struct {
		name        string
		count       int
		requested   int
		wantPage    int
		wantTotal   int
		wantItems   int
		wantFirstID int
	}{
		{"no records", 0, 1, 1, 1, 0, 0},
		{"no records page clamped", 0, 5, 1, 1, 0, 0},
		{"exact page", 20, 1, 1, 1, 20, 1},
		{"one over", 21, 2, 2, 2, 1, 21},
		{"forty five last page", 45, 3, 3, 3, 5, 41},
		{"clamped down", 45, 4, 3, 3, 5, 41},
		{"clamped up", 45, 0, 1, 3, 20, 1},
		{"negative page", 45, -3, 1, 3, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Paginate(records(tt.count), tt.requested, 20)
			assert.Equal(t, tt.wantPage, page.CurrentPage)
			assert.Equal(t, tt.wantTotal, page.TotalPages)
			assert.Equal(t, tt.count, page.TotalCount)
			require.Len(t, page.Items, tt.wantItems)
			if tt.wantItems > 0 {
				assert.Equal(t, tt.wantFirstID, page.Items[0].ID)
			}
			assert.NotNil(t, page.Items)
		})
	}
}

func TestPaginate_NonPositivePageSize(t *testing.T) {
	records := []domain.DetailRecord{{ID: 1}, {ID: 2}}

	page := Paginate(records, 2, 0)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Items[0].ID)
}

func TestTracker(t *testing.T) {
	var tracker Tracker

	first := tracker.Begin()
	assert.True(t, tracker.IsLatest(first))

	second := tracker.Begin()
	assert.Greater(t, second, first)
	assert.False(t, tracker.IsLatest(first))
	assert.True(t, tracker.IsLatest(second))
}
