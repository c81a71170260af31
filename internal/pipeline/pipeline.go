// Package pipeline turns a catalog index and a filter state into one page of
// detail records.
package pipeline

import (
	"context"
	"errors"
	"strings"

	"pokelearn/web/internal/client"
	"pokelearn/web/internal/domain"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultCandidateCap = 300
	DefaultPageSize     = 20
)

type Options struct {
	CandidateCap int // Upper bound on detail fetches per run
	PageSize     int
	MaxWorkers   int // Concurrent detail requests
}

type Pipeline struct {
	catalog client.CatalogClient
	opts    Options
}

// New builds a pipeline. Non-positive options fall back to the defaults.
func New(catalog client.CatalogClient, opts Options) *Pipeline {
	if opts.CandidateCap <= 0 {
		opts.CandidateCap = DefaultCandidateCap
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	opts.MaxWorkers = max(1, opts.MaxWorkers)

	return &Pipeline{
		catalog: catalog,
		opts:    opts,
	}
}

func (p *Pipeline) PageSize() int {
	return p.opts.PageSize
}

// Run executes one full search. A failed detail fetch fails the whole run and
// no partial page is returned.
func (p *Pipeline) Run(ctx context.Context, idx domain.Index, state domain.FilterState) (domain.ResultPage, error) {
	if strings.TrimSpace(state.SearchTerm) == "" {
		return domain.EmptyResultPage(), nil
	}

	match, err := newMatcher(state)
	if err != nil {
		return domain.ResultPage{}, err
	}

	if idx.Err != nil {
		return domain.ResultPage{}, idx.Err
	}

	candidates, truncated := PrefixCandidates(idx.Entries, state.SearchTerm, p.opts.CandidateCap)
	if truncated {
		log.Debugf("Search %q matched more than %d entries, extra matches skipped", state.SearchTerm, p.opts.CandidateCap)
	}

	details, err := p.fetchDetails(ctx, candidates)
	if err != nil {
		return domain.ResultPage{}, err
	}

	filtered := make([]domain.DetailRecord, 0, len(details))
	for _, record := range details {
		if match(record) {
			filtered = append(filtered, *record)
		}
	}

	page := Paginate(filtered, state.CurrentPage, p.opts.PageSize)
	page.Candidates = len(candidates)
	page.Truncated = truncated

	log.Debugf("Search %q: %d candidates, %d matches, page %d of %d",
		state.SearchTerm, len(candidates), len(filtered), page.CurrentPage, page.TotalPages)
	return page, nil
}

// PrefixCandidates keeps the entries whose name starts with the lower-cased
// term, in index order, and cuts the result at limit.
func PrefixCandidates(entries []domain.IndexEntry, term string, limit int) ([]domain.IndexEntry, bool) {
	prefix := strings.ToLower(term)
	candidates := make([]domain.IndexEntry, 0)

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name, prefix) {
			continue
		}
		if len(candidates) == limit {
			return candidates, true
		}
		candidates = append(candidates, entry)
	}

	return candidates, false
}

func (p *Pipeline) fetchDetails(ctx context.Context, candidates []domain.IndexEntry) ([]*domain.DetailRecord, error) {
	details := make([]*domain.DetailRecord, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.MaxWorkers)

	for i, candidate := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			record, err := p.catalog.GetDetail(gctx, candidate.URL)
			if err != nil {
				return err
			}
			details[i] = record
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		log.Warnf("❌ Detail batch of %d failed: %v", len(candidates), err)
		var fetchErr *domain.FetchError
		if !errors.As(err, &fetchErr) {
			err = &domain.FetchError{Op: domain.OpDetail, Err: err}
		}
		return nil, err
	}

	return details, nil
}

type matcher func(*domain.DetailRecord) bool

func newMatcher(state domain.FilterState) (matcher, error) {
	var generation *domain.GenerationRange
	if state.SelectedGeneration != "" && state.SelectedGeneration != domain.All {
		g, ok := domain.LookupGeneration(state.SelectedGeneration)
		if !ok {
			return nil, &domain.ValidationError{Field: "generation", Message: "Unknown generation: " + state.SelectedGeneration}
		}
		generation = &g
	}

	selectedType := ""
	if state.SelectedType != "" && state.SelectedType != domain.All {
		if !domain.IsKnownType(state.SelectedType) {
			return nil, &domain.ValidationError{Field: "type", Message: "Unknown type: " + state.SelectedType}
		}
		selectedType = state.SelectedType
	}

	return func(record *domain.DetailRecord) bool {
		if generation != nil && !generation.Contains(record.ID) {
			return false
		}
		if selectedType != "" && !record.HasType(selectedType) {
			return false
		}
		return true
	}, nil
}

// Paginate slices out the requested page. There is always at least one page
// and the requested page is clamped into range.
func Paginate(records []domain.DetailRecord, currentPage, pageSize int) domain.ResultPage {
	pageSize = max(1, pageSize)
	totalPages := max(1, (len(records)+pageSize-1)/pageSize)
	currentPage = min(max(1, currentPage), totalPages)

	start := min((currentPage-1)*pageSize, len(records))
	end := min(currentPage*pageSize, len(records))

	items := make([]domain.DetailRecord, end-start)
	copy(items, records[start:end])

	return domain.ResultPage{
		Items:       items,
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		TotalCount:  len(records),
	}
}
