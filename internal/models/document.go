package models

import (
	"encoding/json"
	"fmt"
)

// Collection paths in the document store
const (
	CollectionBlogPosts       = "blog-posts"
	CollectionContactMessages = "contact-messages"
	CollectionEnrollments     = "enrollments"
	CollectionGalleryItems    = "gallery-items"
	CollectionDailySchedule   = "daily-schedule"
)

// Collections lists every collection path the site uses
var Collections = []string{
	CollectionBlogPosts,
	CollectionContactMessages,
	CollectionEnrollments,
	CollectionGalleryItems,
	CollectionDailySchedule,
}

// ValidCollections is the lookup form of Collections
var ValidCollections = map[string]bool{
	CollectionBlogPosts:       true,
	CollectionContactMessages: true,
	CollectionEnrollments:     true,
	CollectionGalleryItems:    true,
	CollectionDailySchedule:   true,
}

// decodeDocument unmarshals a stored document and stamps the store key on it.
func decodeDocument[T any](id string, raw json.RawMessage, setID func(*T, string)) (T, error) {
	var rec T
	if len(raw) == 0 || string(raw) == "null" {
		return rec, fmt.Errorf("document %s is empty", id)
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("decode document %s: %w", id, err)
	}
	setID(&rec, id)
	return rec, nil
}
