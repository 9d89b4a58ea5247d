package repository

import (
	"context"
	"errors"

	"github.com/preschool-cms-api/internal/models"
	"github.com/preschool-cms-api/internal/store"
)

// ErrUndecodable is returned when a stored document does not match the
// collection's record shape
var ErrUndecodable = errors.New("document cannot be decoded")

// DocumentRepository defines typed operations on one collection
type DocumentRepository[T any] interface {
	Path() string
	Create(ctx context.Context, record T) (string, error)
	Update(ctx context.Context, id string, partial map[string]any) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (T, error)
	List(ctx context.Context) ([]T, error)
}

// Repositories holds the repository of every collection
type Repositories struct {
	BlogPosts       DocumentRepository[models.BlogPost]
	ContactMessages DocumentRepository[models.ContactMessage]
	Enrollments     DocumentRepository[models.Enrollment]
	GalleryItems    DocumentRepository[models.GalleryItem]
	DailySchedule   DocumentRepository[models.ScheduleItem]

	// Store is the underlying document store, shared with live collections
	Store store.DocumentStore
}

// New creates all repositories on top of the given document store
func New(st store.DocumentStore) *Repositories {
	return &Repositories{
		BlogPosts:       NewDocumentRepo(st, models.CollectionBlogPosts, models.DecodeBlogPost),
		ContactMessages: NewDocumentRepo(st, models.CollectionContactMessages, models.DecodeContactMessage),
		Enrollments:     NewDocumentRepo(st, models.CollectionEnrollments, models.DecodeEnrollment),
		GalleryItems:    NewDocumentRepo(st, models.CollectionGalleryItems, models.DecodeGalleryItem),
		DailySchedule:   NewDocumentRepo(st, models.CollectionDailySchedule, models.DecodeScheduleItem),
		Store:           st,
	}
}
