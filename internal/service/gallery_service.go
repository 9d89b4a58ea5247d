package service

import (
	"context"
	"time"

	"github.com/preschool-cms-api/internal/livesync"
	"github.com/preschool-cms-api/internal/models"
	"github.com/preschool-cms-api/internal/repository"
	"github.com/preschool-cms-api/internal/validation"
	"github.com/rs/zerolog"
)

// galleryService is the concrete implementation of GalleryService
type galleryService struct {
	repo      repository.DocumentRepository[models.GalleryItem]
	admin     *livesync.Collection[models.GalleryItem]
	public    *livesync.Collection[models.GalleryItem]
	validator *validation.Validator
	wait      time.Duration
	log       zerolog.Logger
}

func newGalleryService(repo repository.DocumentRepository[models.GalleryItem], live *liveCollections, v *validation.Validator, wait time.Duration, log zerolog.Logger) *galleryService {
	return &galleryService{
		repo:      repo,
		admin:     live.gallery,
		public:    live.publicGallery,
		validator: v,
		wait:      wait,
		log:       log.With().Str("service", "gallery").Logger(),
	}
}

// List returns the stored items in display order
func (s *galleryService) List(ctx context.Context) ([]models.GalleryItem, bool) {
	return awaitRecords(ctx, s.admin, s.wait)
}

// Public returns the items in display order, or the default items while the
// gallery is empty
func (s *galleryService) Public(ctx context.Context) ([]models.GalleryItem, bool) {
	return awaitRecords(ctx, s.public, s.wait)
}

// Create appends an item; its order is the number of items already stored
func (s *galleryService) Create(ctx context.Context, form models.GalleryItemCreate) Result[models.GalleryItem] {
	if errs := s.validator.Struct(form); len(errs) > 0 {
		return invalid[models.GalleryItem](errs...)
	}

	existing, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to count gallery items")
		return fromStoreErr[models.GalleryItem](err)
	}

	item := models.GalleryItem{
		Title:       form.Title,
		Description: form.Description,
		Image:       form.Image,
		Order:       len(existing),
	}
	id, err := s.repo.Create(ctx, item)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to create gallery item")
		return fromStoreErr[models.GalleryItem](err)
	}
	item.ID = id

	s.log.Info().Str("item_id", id).Int("order", item.Order).Msg("Gallery item created")
	return ok(item)
}

// Update writes the provided fields; order is kept unless given
func (s *galleryService) Update(ctx context.Context, id string, in models.GalleryItemInput) Result[models.GalleryItem] {
	if errs := s.validator.Struct(in); len(errs) > 0 {
		return invalid[models.GalleryItem](errs...)
	}

	partial := make(map[string]any)
	setString(partial, "title", in.Title)
	setString(partial, "description", in.Description)
	setString(partial, "image", in.Image)
	if in.Order != nil {
		partial["order"] = *in.Order
	}
	if len(partial) == 0 {
		return invalid[models.GalleryItem](noFieldsError)
	}

	if err := s.repo.Update(ctx, id, partial); err != nil {
		s.log.Error().Err(err).Str("item_id", id).Msg("Failed to update gallery item")
		return fromStoreErr[models.GalleryItem](err)
	}
	return reload(ctx, s.repo, id, s.log)
}

// Delete removes an item once the caller has confirmed
func (s *galleryService) Delete(ctx context.Context, id string, confirmed bool) Result[string] {
	return deleteConfirmed(ctx, s.repo, id, confirmed, s.log)
}
