package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type createListRequest struct {
	Name string `json:"name"`
}

type renameListRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListLists(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	lists, err := s.lists.Lists(r.Context(), query)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toListPayloads(lists, time.Now()))
}

// handleSections returns all lists grouped into the relative-date
// sections. The unfiltered grouping is cached until the next change.
func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	const cacheKey = "sections"
	if query == "" {
		if groups, found := s.sectionsCache.Get(cacheKey); found {
			respondJSON(w, http.StatusOK, toSectionPayloads(groups, time.Now()))
			return
		}
	}

	groups, err := s.lists.Sections(r.Context(), query)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if query == "" {
		s.sectionsCache.Set(cacheKey, groups)
	}
	respondJSON(w, http.StatusOK, toSectionPayloads(groups, time.Now()))
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, err := s.lists.CreateList(r.Context(), req.Name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toListPayload(l, time.Now()))
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	l, err := s.lists.GetList(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toListPayload(l, time.Now()))
}

func (s *Server) handleRenameList(w http.ResponseWriter, r *http.Request) {
	var req renameListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, err := s.lists.RenameList(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toListPayload(l, time.Now()))
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	if err := s.lists.DeleteList(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
