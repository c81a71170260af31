package domain

// All is the selector value that disables a type or generation filter.
const All = "all"

// FilterState is the transient search state of a listing view. Changing the
// search term or either selector sends the view back to the first page.
type FilterState struct {
	SearchTerm         string `json:"search_term"`
	SelectedType       string `json:"selected_type"`
	SelectedGeneration string `json:"selected_generation"`
	CurrentPage        int    `json:"current_page"`
}

func NewFilterState() FilterState {
	return FilterState{
		SelectedType:       All,
		SelectedGeneration: All,
		CurrentPage:        1,
	}
}

func (s FilterState) WithSearchTerm(term string) FilterState {
	if s.SearchTerm != term {
		s.SearchTerm = term
		s.CurrentPage = 1
	}
	return s
}

func (s FilterState) WithType(t string) FilterState {
	if t == "" {
		t = All
	}
	if s.SelectedType != t {
		s.SelectedType = t
		s.CurrentPage = 1
	}
	return s
}

func (s FilterState) WithGeneration(gen string) FilterState {
	if gen == "" {
		gen = All
	}
	if s.SelectedGeneration != gen {
		s.SelectedGeneration = gen
		s.CurrentPage = 1
	}
	return s
}

func (s FilterState) WithPage(page int) FilterState {
	s.CurrentPage = max(1, page)
	return s
}
