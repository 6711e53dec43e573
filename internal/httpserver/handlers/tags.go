package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/gieok/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gieok/internal/vocabulary"
)

type limitsResponse struct {
	MaxTagsPerLink       int `json:"max_tags_per_link"`
	MaxTitleLength       int `json:"max_title_length"`
	MaxDescriptionLength int `json:"max_description_length"`
}

type tagsResponse struct {
	*vocabulary.Vocabulary
	Limits limitsResponse `json:"limits"`
}

// Tags serves the recommended vocabulary and the validation limits the
// forms should enforce before submitting.
func Tags(d deps.Deps) http.HandlerFunc {
	l := d.Data.Limits()
	resp := tagsResponse{
		Vocabulary: d.Vocabulary,
		Limits: limitsResponse{
			MaxTagsPerLink:       l.MaxTagsPerLink,
			MaxTitleLength:       l.MaxTitleLength,
			MaxDescriptionLength: l.MaxDescriptionLength,
		},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=300")
		writeJSON(w, http.StatusOK, resp)
	}
}
