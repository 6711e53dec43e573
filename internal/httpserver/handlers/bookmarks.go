package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/gieok/internal/domain"
	"github.com/MrSnakeDoc/gieok/internal/httpserver/deps"
)

type pinRequest struct {
	Pinned *bool `json:"pinned"`
}

func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := d.Data.ListBookmarks(r.Context(), domain.BookmarkFilter{
			Query:     q.Get("q"),
			Tags:      tagsParam(q),
			SortBy:    domain.BookmarkSortField(q.Get("sort_by")),
			SortOrder: domain.SortOrder(q.Get("sort_order")),
		})
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := d.Data.GetBookmark(r.Context(), pathParam(r, "id"))
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.BookmarkInput
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		b, err := d.Data.CreateBookmark(r.Context(), accessKey(r), in)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		setInvalidated(w, domain.BookmarkViews())
		writeJSON(w, http.StatusCreated, b)
	}
}

func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p domain.BookmarkPatch
		if err := decodeJSON(w, r, &p); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		b, err := d.Data.UpdateBookmark(r.Context(), accessKey(r), pathParam(r, "id"), p)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		setInvalidated(w, domain.BookmarkViews())
		writeJSON(w, http.StatusOK, b)
	}
}

// PinBookmark sets the pin flag to the value in the body.
func PinBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pinRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if req.Pinned == nil {
			writeError(w, r, d.Logger, &domain.ValidationError{Fields: map[string]string{"pinned": "pinned is required"}})
			return
		}
		b, err := d.Data.TogglePin(r.Context(), accessKey(r), pathParam(r, "id"), *req.Pinned)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		setInvalidated(w, domain.BookmarkViews())
		writeJSON(w, http.StatusOK, b)
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Data.DeleteBookmark(r.Context(), accessKey(r), pathParam(r, "id")); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		setInvalidated(w, domain.BookmarkViews())
		w.WriteHeader(http.StatusNoContent)
	}
}
