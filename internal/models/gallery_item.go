package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// GalleryItem is a captioned photo in the public gallery
type GalleryItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Order       int    `json:"order"`
}

// UnmarshalJSON decodes a stored item. An order that is not a whole number
// is truncated, a numeric string is parsed, and anything else reads as 0.
func (g *GalleryItem) UnmarshalJSON(data []byte) error {
	type plain GalleryItem
	aux := struct {
		*plain
		Order json.RawMessage `json:"order"`
	}{plain: (*plain)(g)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	g.Order = parseOrder(aux.Order)
	return nil
}

func parseOrder(raw json.RawMessage) int {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return 0
	}
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0
	}
	return int(math.Trunc(f))
}

// GalleryItemInput is the admin create/edit form. Nil fields are left untouched on edit.
type GalleryItemInput struct {
	Title       *string `json:"title" validate:"omitempty,notblank"`
	Description *string `json:"description"`
	Image       *string `json:"image" validate:"omitempty,notblank"`
	Order       *int    `json:"order" validate:"omitempty,min=0"`
}

// GalleryItemCreate carries the fields required to add a gallery item
type GalleryItemCreate struct {
	Title       string `json:"title" validate:"required,notblank"`
	Description string `json:"description"`
	Image       string `json:"image" validate:"required,notblank"`
}

// DefaultGalleryItems is shown publicly while the gallery collection is empty
var DefaultGalleryItems = []GalleryItem{
	{ID: "default-1", Title: "Colorful Classroom", Description: "Our bright and engaging learning spaces", Image: "/assets/classroom-image.jpg", Order: 0},
	{ID: "default-2", Title: "Safe Playground", Description: "Fun outdoor activities and equipment", Image: "/assets/playground-image.jpg", Order: 1},
	{ID: "default-3", Title: "Art Corner", Description: "Creative spaces for artistic expression", Image: "https://images.unsplash.com/photo-1587654780291-39c9404d746b?w=800&h=600&fit=crop", Order: 2},
	{ID: "default-4", Title: "Reading Nook", Description: "Cozy spaces for story time and quiet reading", Image: "https://images.unsplash.com/photo-1503454537195-1dcabb73ffb9?w=800&h=600&fit=crop", Order: 3},
	{ID: "default-5", Title: "Music Room", Description: "Interactive music and movement sessions", Image: "https://images.unsplash.com/photo-1571019613454-1cb2f99b2d8b?w=800&h=600&fit=crop", Order: 4},
	{ID: "default-6", Title: "Happy Kids", Description: "Joyful moments of learning and play", Image: "https://images.unsplash.com/photo-1606092195730-5d7b9af1efc5?w=800&h=600&fit=crop", Order: 5},
}

// DecodeGalleryItem builds a GalleryItem from a stored document
func DecodeGalleryItem(id string, raw json.RawMessage) (GalleryItem, error) {
	return decodeDocument(id, raw, func(g *GalleryItem, id string) { g.ID = id })
}

// GalleryItemByOrder orders items by their display position
func GalleryItemByOrder(a, b GalleryItem) bool {
	return a.Order < b.Order
}
