package service

import (
	"context"
	"strings"
	"sync"

	"pokelearn/web/internal/client"
	"pokelearn/web/internal/domain"
	"pokelearn/web/internal/pipeline"

	log "github.com/sirupsen/logrus"
)

const noMatchesMessage = "No Pokémon found."

type Searcher interface {
	Run(ctx context.Context, idx domain.Index, state domain.FilterState) (domain.ResultPage, error)
}

// Snapshot is the renderable state of a listing view.
type Snapshot struct {
	State   domain.FilterState `json:"state"`
	Page    domain.ResultPage  `json:"page"`
	Loading bool               `json:"loading"`
	Message string             `json:"message,omitempty"`
	Failed  bool               `json:"failed"`
}

func (s Snapshot) HasResults() bool {
	return len(s.Page.Items) > 0
}

func (s Snapshot) IsFirstPage() bool {
	return s.Page.CurrentPage <= 1
}

func (s Snapshot) IsLastPage() bool {
	return s.Page.CurrentPage >= s.Page.TotalPages
}

// ListingView holds the search state of one signed-in user. Every change
// re-runs the whole search; a run only publishes its result if no newer run
// has started in the meantime.
type ListingView struct {
	catalog  client.CatalogClient
	searcher Searcher
	tracker  pipeline.Tracker

	indexOnce sync.Once
	index     domain.Index

	mu      sync.Mutex
	state   domain.FilterState
	page    domain.ResultPage
	loading bool
	message string
	failed  bool
}

func NewListingView(catalog client.CatalogClient, searcher Searcher) *ListingView {
	return &ListingView{
		catalog:  catalog,
		searcher: searcher,
		state:    domain.NewFilterState(),
		page:     domain.EmptyResultPage(),
	}
}

// LoadIndex fetches the catalog index the first time it is called. A failed
// load is kept and reported by every later search.
func (v *ListingView) LoadIndex(ctx context.Context) domain.Index {
	v.indexOnce.Do(func() {
		entries, err := v.catalog.ListAll(context.WithoutCancel(ctx))
		if err != nil {
			log.Errorf("❌ Failed to load catalog index: %v", err)
			v.index = domain.Index{Err: err}
			return
		}
		log.Infof("📚 Loaded catalog index with %d entries", len(entries))
		v.index = domain.Index{Entries: entries}
	})
	return v.index
}

func (v *ListingView) SetSearchTerm(ctx context.Context, term string) Snapshot {
	return v.update(ctx, func(s domain.FilterState) domain.FilterState {
		return s.WithSearchTerm(term)
	})
}

func (v *ListingView) SetType(ctx context.Context, t string) Snapshot {
	return v.update(ctx, func(s domain.FilterState) domain.FilterState {
		return s.WithType(t)
	})
}

func (v *ListingView) SetGeneration(ctx context.Context, gen string) Snapshot {
	return v.update(ctx, func(s domain.FilterState) domain.FilterState {
		return s.WithGeneration(gen)
	})
}

// Apply replaces the whole filter state at once, as a form submission does.
// The page is kept only when the search term and selectors are unchanged.
func (v *ListingView) Apply(ctx context.Context, next domain.FilterState) Snapshot {
	return v.update(ctx, func(s domain.FilterState) domain.FilterState {
		after := s.WithSearchTerm(next.SearchTerm).
			WithType(next.SelectedType).
			WithGeneration(next.SelectedGeneration)
		if next.CurrentPage > 0 && after.WithPage(1) == s.WithPage(1) {
			return after.WithPage(next.CurrentPage)
		}
		return after
	})
}

func (v *ListingView) GoToPage(ctx context.Context, page int) Snapshot {
	return v.update(ctx, func(s domain.FilterState) domain.FilterState {
		return s.WithPage(page)
	})
}

func (v *ListingView) FirstPage(ctx context.Context) Snapshot {
	return v.GoToPage(ctx, 1)
}

func (v *ListingView) PrevPage(ctx context.Context) Snapshot {
	return v.update(ctx, func(s domain.FilterState) domain.FilterState {
		return s.WithPage(s.CurrentPage - 1)
	})
}

func (v *ListingView) NextPage(ctx context.Context) Snapshot {
	return v.update(ctx, func(s domain.FilterState) domain.FilterState {
		return s.WithPage(s.CurrentPage + 1)
	})
}

func (v *ListingView) LastPage(ctx context.Context) Snapshot {
	v.mu.Lock()
	last := v.page.TotalPages
	v.mu.Unlock()
	return v.GoToPage(ctx, last)
}

// Refresh re-runs the current search unchanged.
func (v *ListingView) Refresh(ctx context.Context) Snapshot {
	return v.update(ctx, func(s domain.FilterState) domain.FilterState { return s })
}

func (v *ListingView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// Detail returns a record from the page currently shown.
func (v *ListingView) Detail(name string) (domain.DetailRecord, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, item := range v.page.Items {
		if item.Name == name {
			return item, true
		}
	}
	return domain.DetailRecord{}, false
}

func (v *ListingView) update(ctx context.Context, mutate func(domain.FilterState) domain.FilterState) Snapshot {
	idx := v.LoadIndex(ctx)

	v.mu.Lock()
	v.state = mutate(v.state)
	current := v.state
	token := v.tracker.Begin()
	v.loading = true
	v.failed = false
	v.message = ""
	v.mu.Unlock()

	// A started batch always runs to completion, even if the caller goes away.
	page, err := v.searcher.Run(context.WithoutCancel(ctx), idx, current)

	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.tracker.IsLatest(token) {
		log.Debugf("Discarding stale search result for %q", current.SearchTerm)
		// The newer run reports its own progress.
		snapshot := v.snapshotLocked()
		snapshot.Loading = false
		return snapshot
	}

	v.loading = false
	if err != nil {
		log.Warnf("❌ Search %q failed: %v", current.SearchTerm, err)
		v.page = domain.EmptyResultPage()
		v.state.CurrentPage = 1
		v.message = domain.UserMessage(err)
		v.failed = true
		return v.snapshotLocked()
	}

	v.page = page
	v.state.CurrentPage = page.CurrentPage
	if strings.TrimSpace(current.SearchTerm) != "" && page.Candidates == 0 {
		v.message = noMatchesMessage
	}
	return v.snapshotLocked()
}

func (v *ListingView) snapshotLocked() Snapshot {
	page := v.page
	page.Items = append([]domain.DetailRecord(nil), v.page.Items...)
	if page.Items == nil {
		page.Items = []domain.DetailRecord{}
	}

	return Snapshot{
		State:   v.state,
		Page:    page,
		Loading: v.loading,
		Message: v.message,
		Failed:  v.failed,
	}
}
