package models

import "encoding/json"

// BlogPost represents a post on the school blog
type BlogPost struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Excerpt   string     `json:"excerpt"`
	Author    string     `json:"author"`
	CreatedAt Timestamp  `json:"createdAt"`
	Published bool       `json:"published"`
	UpdatedAt *Timestamp `json:"updatedAt,omitempty"`
}

// BlogPostInput is the admin create/edit form. Nil fields are left untouched on edit.
type BlogPostInput struct {
	Title     *string `json:"title" validate:"omitempty,notblank"`
	Content   *string `json:"content" validate:"omitempty,notblank"`
	Excerpt   *string `json:"excerpt" validate:"omitempty,notblank"`
	Author    *string `json:"author" validate:"omitempty,notblank"`
	Published *bool   `json:"published"`
}

// BlogPostCreate carries the fields required to create a post
type BlogPostCreate struct {
	Title     string `json:"title" validate:"required,notblank"`
	Content   string `json:"content" validate:"required,notblank"`
	Excerpt   string `json:"excerpt" validate:"required,notblank"`
	Author    string `json:"author" validate:"required,notblank"`
	Published bool   `json:"published"`
}

// DecodeBlogPost builds a BlogPost from a stored document
func DecodeBlogPost(id string, raw json.RawMessage) (BlogPost, error) {
	return decodeDocument(id, raw, func(p *BlogPost, id string) { p.ID = id })
}

// BlogPostNewestFirst orders posts by creation time, newest first
func BlogPostNewestFirst(a, b BlogPost) bool {
	return a.CreatedAt.After(b.CreatedAt.Time)
}

// IsPublished reports whether a post is visible to the public
func IsPublished(p BlogPost) bool {
	return p.Published
}
