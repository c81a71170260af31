package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"pokelearn/web/internal/domain"
	"pokelearn/web/internal/service"
	"pokelearn/web/internal/state"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

const listingKey = "listing"

type mainPage struct {
	User        *domain.User
	Snapshot    service.Snapshot
	Types       []string
	Generations []domain.GenerationRange
}

type detailPage struct {
	Record domain.DetailRecord
}

// view returns the listing view of the session, creating it on first use.
func (s *Server) view(sessionID string) (*service.ListingView, error) {
	var view *service.ListingView
	err := s.sessions.Update(sessionID, func(entry *state.Entry) {
		if existing, ok := entry.Values[listingKey].(*service.ListingView); ok {
			view = existing
			return
		}
		view = s.newView()
		entry.Values[listingKey] = view
	})
	return view, err
}

// applyQuery feeds the request parameters into the view. Without any
// parameters the current state is returned as is.
func applyQuery(ctx context.Context, view *service.ListingView, q url.Values) service.Snapshot {
	switch q.Get("nav") {
	case "first":
		return view.FirstPage(ctx)
	case "prev":
		return view.PrevPage(ctx)
	case "next":
		return view.NextPage(ctx)
	case "last":
		return view.LastPage(ctx)
	}

	if !q.Has("q") && !q.Has("type") && !q.Has("gen") && !q.Has("page") {
		return view.Snapshot()
	}

	next := view.Snapshot().State
	if q.Has("q") {
		next.SearchTerm = q.Get("q")
	}
	if q.Has("type") {
		next.SelectedType = q.Get("type")
	}
	if q.Has("gen") {
		next.SelectedGeneration = q.Get("gen")
	}
	next.CurrentPage = 0
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		next.CurrentPage = page
	}

	return view.Apply(ctx, next)
}

func (s *Server) handleMainPage(w http.ResponseWriter, r *http.Request) {
	view, err := s.view(sessionIDFrom(r.Context()))
	if err != nil {
		log.Warnf("Session vanished during request: %v", err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	snapshot := applyQuery(r.Context(), view, r.URL.Query())

	s.render(w, http.StatusOK, "main.html", mainPage{
		User:        outcomeFrom(r.Context()).User,
		Snapshot:    snapshot,
		Types:       domain.Types,
		Generations: domain.Generations,
	})
}

func (s *Server) handleDetailPage(w http.ResponseWriter, r *http.Request) {
	view, err := s.view(sessionIDFrom(r.Context()))
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	record, ok := view.Detail(chi.URLParam(r, "name"))
	if !ok {
		http.Redirect(w, r, "/main", http.StatusSeeOther)
		return
	}

	s.render(w, http.StatusOK, "detail.html", detailPage{Record: record})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	view, err := s.view(sessionIDFrom(r.Context()))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	respondJSON(w, http.StatusOK, applyQuery(r.Context(), view, r.URL.Query()))
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	view, err := s.view(sessionIDFrom(r.Context()))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Not signed in")
		return
	}

	record, ok := view.Detail(chi.URLParam(r, "name"))
	if !ok {
		respondError(w, http.StatusNotFound, "Pokémon not found on the current page")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, outcomeFrom(r.Context()).User)
}
