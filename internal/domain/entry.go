package domain

import "time"

// Entry is a markdown note owned by exactly one Keyword.
// Deleting the keyword deletes its entries; the reverse never happens.
type Entry struct {
	ID        string    `json:"id"`
	KeywordID string    `json:"keyword_id"`
	Title     *string   `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryInput carries Create Entry. Exactly one of KeywordID and
// KeywordName must be set. Tags only apply when a new keyword is created.
type EntryInput struct {
	KeywordID   string   `json:"keyword_id,omitempty"`
	KeywordName string   `json:"keyword_name,omitempty"`
	Title       string   `json:"title,omitempty"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags,omitempty"`
}

// EntryPatch is a partial update. The owning keyword cannot change.
type EntryPatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

func (p EntryPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil
}

// Apply writes the patch onto e. An empty title is stored as NULL.
func (p EntryPatch) Apply(e *Entry) {
	if p.Title != nil {
		e.Title = nullable(*p.Title)
	}
	if p.Content != nil {
		e.Content = *p.Content
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
