package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/gieok/internal/domain"
	"github.com/MrSnakeDoc/gieok/internal/httpserver/deps"
)

type createKeywordRequest struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

type deleteKeywordResponse struct {
	ID             string `json:"id"`
	RemovedEntries int    `json:"removed_entries"`
}

// ─────────────────────────────────────────────────────────────────
// Keywords
// ─────────────────────────────────────────────────────────────────

func ListKeywords(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := d.Data.ListKeywords(r.Context(), domain.KeywordFilter{
			Name:      q.Get("q"),
			Tags:      tagsParam(q),
			SortBy:    domain.KeywordSortField(q.Get("sort_by")),
			SortOrder: domain.SortOrder(q.Get("sort_order")),
		})
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetKeyword(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		k, err := d.Data.GetKeyword(r.Context(), pathParam(r, "id"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, k)
	}
}

// GetKeywordByName backs the /docs/{keyword} page.
func GetKeywordByName(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		k, err := d.Data.GetKeywordByName(r.Context(), pathParam(r, "name"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, k)
	}
}

// CreateKeyword answers 201 for a new keyword and 200 when an existing
// keyword with the same name was reused.
func CreateKeyword(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createKeywordRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		k, created, err := d.Data.CreateKeyword(r.Context(), accessKey(r), req.Name, req.Tags)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if !created {
			writeJSON(w, http.StatusOK, k)
			return
		}
		setInvalidated(w, domain.DocsViews())
		writeJSON(w, http.StatusCreated, k)
	}
}

func DeleteKeyword(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathParam(r, "id")
		removed, err := d.Data.DeleteKeyword(r.Context(), accessKey(r), id)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		setInvalidated(w, domain.DocsViews())
		writeJSON(w, http.StatusOK, deleteKeywordResponse{ID: id, RemovedEntries: removed})
	}
}

func ListKeywordEntries(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := d.Data.ListEntries(r.Context(), pathParam(r, "id"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// ─────────────────────────────────────────────────────────────────
// Entries
// ─────────────────────────────────────────────────────────────────

func CreateEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.EntryInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		e, err := d.Data.CreateEntry(r.Context(), accessKey(r), in)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		setInvalidated(w, domain.DocsViews())
		writeJSON(w, http.StatusCreated, e)
	}
}

func GetEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := d.Data.GetEntry(r.Context(), pathParam(r, "id"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func UpdateEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p domain.EntryPatch
		if err := decodeJSON(w, r, &p); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		e, err := d.Data.UpdateEntry(r.Context(), accessKey(r), pathParam(r, "id"), p)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		setInvalidated(w, domain.DocsViews())
		writeJSON(w, http.StatusOK, e)
	}
}

func DeleteEntry(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Data.DeleteEntry(r.Context(), accessKey(r), pathParam(r, "id")); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		setInvalidated(w, domain.DocsViews())
		w.WriteHeader(http.StatusNoContent)
	}
}
