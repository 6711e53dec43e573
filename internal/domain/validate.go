package domain

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Limits are the configured field bounds.
type Limits struct {
	MaxTagsPerLink       int
	MaxTitleLength       int
	MaxDescriptionLength int
}

// DefaultLimits mirror the original application settings.
var DefaultLimits = Limits{
	MaxTagsPerLink:       5,
	MaxTitleLength:       200,
	MaxDescriptionLength: 500,
}

// Validator normalizes and checks inputs before any store call.
type Validator struct {
	v      *validator.Validate
	limits Limits
}

func NewValidator(limits Limits) *Validator {
	if limits.MaxTagsPerLink <= 0 {
		limits.MaxTagsPerLink = DefaultLimits.MaxTagsPerLink
	}
	if limits.MaxTitleLength <= 0 {
		limits.MaxTitleLength = DefaultLimits.MaxTitleLength
	}
	if limits.MaxDescriptionLength <= 0 {
		limits.MaxDescriptionLength = DefaultLimits.MaxDescriptionLength
	}
	return &Validator{
		v:      validator.New(),
		limits: limits,
	}
}

func (v *Validator) Limits() Limits { return v.limits }

// BookmarkInput trims and dedupes in place, then validates.
func (v *Validator) BookmarkInput(in *BookmarkInput) error {
	in.URL = strings.TrimSpace(in.URL)
	in.Title = strings.TrimSpace(in.Title)
	in.Description = trimOptional(in.Description)
	in.Tags = NormalizeTags(in.Tags)

	verr := &ValidationError{}
	v.checkURL(verr, in.URL)
	v.checkTitle(verr, in.Title)
	if in.Description != nil {
		v.checkDescription(verr, *in.Description)
	}
	v.checkTags(verr, in.Tags)
	return verr.OrNil()
}

// BookmarkPatch validates only the provided fields.
func (v *Validator) BookmarkPatch(p *BookmarkPatch) error {
	verr := &ValidationError{}
	if p.IsEmpty() {
		verr.Add("body", "nothing to update")
		return verr
	}
	if p.URL != nil {
		u := strings.TrimSpace(*p.URL)
		p.URL = &u
		v.checkURL(verr, u)
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		p.Title = &t
		v.checkTitle(verr, t)
	}
	if p.Description != nil {
		d := strings.TrimSpace(*p.Description)
		p.Description = &d
		v.checkDescription(verr, d)
	}
	if p.Tags != nil {
		tags := NormalizeTags(*p.Tags)
		p.Tags = &tags
		v.checkTags(verr, tags)
	}
	return verr.OrNil()
}

// KeywordName trims and requires a non-empty name.
func (v *Validator) KeywordName(name string) (string, error) {
	name = strings.TrimSpace(name)
	verr := &ValidationError{}
	v.checkKeywordName(verr, name)
	return name, verr.OrNil()
}

// EntryInput checks the keyword reference and the content.
func (v *Validator) EntryInput(in *EntryInput) error {
	in.KeywordID = strings.TrimSpace(in.KeywordID)
	in.KeywordName = strings.TrimSpace(in.KeywordName)
	in.Title = strings.TrimSpace(in.Title)
	in.Tags = NormalizeTags(in.Tags)

	verr := &ValidationError{}
	switch {
	case in.KeywordID == "" && in.KeywordName == "":
		verr.Add("keyword", "a keyword id or a keyword name is required")
	case in.KeywordID != "" && in.KeywordName != "":
		verr.Add("keyword", "give either a keyword id or a keyword name, not both")
	case in.KeywordName != "":
		v.checkKeywordName(verr, in.KeywordName)
	}
	if in.Title != "" {
		v.checkTitle(verr, in.Title)
	}
	v.checkContent(verr, in.Content)
	return verr.OrNil()
}

func (v *Validator) EntryPatch(p *EntryPatch) error {
	verr := &ValidationError{}
	if p.IsEmpty() {
		verr.Add("body", "nothing to update")
		return verr
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		p.Title = &t
		if t != "" {
			v.checkTitle(verr, t)
		}
	}
	if p.Content != nil {
		v.checkContent(verr, *p.Content)
	}
	return verr.OrNil()
}

func (v *Validator) checkURL(verr *ValidationError, raw string) {
	if raw == "" {
		verr.Add("url", "url is required")
		return
	}
	if err := v.v.Var(raw, "url"); err != nil {
		verr.Add("url", "url must be a valid absolute URL")
	}
}

func (v *Validator) checkKeywordName(verr *ValidationError, name string) {
	if err := v.v.Var(name, fmt.Sprintf("required,max=%d", v.limits.MaxTitleLength)); err != nil {
		verr.Add("keyword_name", messageFor("keyword name", err, v.limits.MaxTitleLength))
	}
}

func (v *Validator) checkTitle(verr *ValidationError, title string) {
	if err := v.v.Var(title, fmt.Sprintf("required,max=%d", v.limits.MaxTitleLength)); err != nil {
		verr.Add("title", messageFor("title", err, v.limits.MaxTitleLength))
	}
}

func (v *Validator) checkDescription(verr *ValidationError, d string) {
	if err := v.v.Var(d, fmt.Sprintf("max=%d", v.limits.MaxDescriptionLength)); err != nil {
		verr.Add("description", messageFor("description", err, v.limits.MaxDescriptionLength))
	}
}

func (v *Validator) checkTags(verr *ValidationError, tags []string) {
	if len(tags) > v.limits.MaxTagsPerLink {
		verr.Add("tags", fmt.Sprintf("at most %d tags are allowed", v.limits.MaxTagsPerLink))
	}
}

func (v *Validator) checkContent(verr *ValidationError, content string) {
	if strings.TrimSpace(content) == "" {
		verr.Add("content", "content is required")
	}
}

func messageFor(field string, err error, max int) string {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		switch errs[0].Tag() {
		case "required":
			return field + " is required"
		case "max":
			return fmt.Sprintf("%s must be at most %d characters", field, max)
		}
	}
	return field + " is invalid"
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
