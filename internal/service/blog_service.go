package service

import (
	"context"
	"errors"
	"time"

	"github.com/preschool-cms-api/internal/livesync"
	"github.com/preschool-cms-api/internal/models"
	"github.com/preschool-cms-api/internal/repository"
	"github.com/preschool-cms-api/internal/validation"
	"github.com/rs/zerolog"
)

// blogService is the concrete implementation of BlogService
type blogService struct {
	repo      repository.DocumentRepository[models.BlogPost]
	all       *livesync.Collection[models.BlogPost]
	published *livesync.Collection[models.BlogPost]
	validator *validation.Validator
	wait      time.Duration
	log       zerolog.Logger
}

func newBlogService(repo repository.DocumentRepository[models.BlogPost], live *liveCollections, v *validation.Validator, wait time.Duration, log zerolog.Logger) *blogService {
	return &blogService{
		repo:      repo,
		all:       live.blog,
		published: live.publishedBlog,
		validator: v,
		wait:      wait,
		log:       log.With().Str("service", "blog").Logger(),
	}
}

// List returns every post, newest first
func (s *blogService) List(ctx context.Context) ([]models.BlogPost, bool) {
	return awaitRecords(ctx, s.all, s.wait)
}

// Published returns the published posts, newest first
func (s *blogService) Published(ctx context.Context) ([]models.BlogPost, bool) {
	return awaitRecords(ctx, s.published, s.wait)
}

// GetPublished returns a post only when it exists and is published. A post
// that cannot be decoded is hidden the same way.
func (s *blogService) GetPublished(ctx context.Context, id string) Result[models.BlogPost] {
	post, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrUndecodable) {
		s.log.Warn().Err(err).Str("post_id", id).Msg("Hiding undecodable post")
		return Result[models.BlogPost]{Kind: KindNotFound, Err: err}
	}
	if err != nil {
		return fromStoreErr[models.BlogPost](err)
	}
	if !post.Published {
		return Result[models.BlogPost]{Kind: KindNotFound}
	}
	return ok(post)
}

// Create stores a new post stamped with the creation time
func (s *blogService) Create(ctx context.Context, form models.BlogPostCreate) Result[models.BlogPost] {
	if errs := s.validator.Struct(form); len(errs) > 0 {
		return invalid[models.BlogPost](errs...)
	}

	post := models.BlogPost{
		Title:     form.Title,
		Content:   form.Content,
		Excerpt:   form.Excerpt,
		Author:    form.Author,
		Published: form.Published,
		CreatedAt: models.Now(),
	}
	id, err := s.repo.Create(ctx, post)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to create blog post")
		return fromStoreErr[models.BlogPost](err)
	}
	post.ID = id

	s.log.Info().Str("post_id", id).Bool("published", post.Published).Msg("Blog post created")
	return ok(post)
}

// Update writes the provided fields plus a fresh updatedAt
func (s *blogService) Update(ctx context.Context, id string, in models.BlogPostInput) Result[models.BlogPost] {
	if errs := s.validator.Struct(in); len(errs) > 0 {
		return invalid[models.BlogPost](errs...)
	}

	partial := make(map[string]any)
	setString(partial, "title", in.Title)
	setString(partial, "content", in.Content)
	setString(partial, "excerpt", in.Excerpt)
	setString(partial, "author", in.Author)
	if in.Published != nil {
		partial["published"] = *in.Published
	}
	if len(partial) == 0 {
		return invalid[models.BlogPost](noFieldsError)
	}
	partial["updatedAt"] = models.Now()

	return s.apply(ctx, id, partial)
}

// TogglePublished flips the published flag of a post
func (s *blogService) TogglePublished(ctx context.Context, id string) Result[models.BlogPost] {
	post, err := s.repo.Get(ctx, id)
	if err != nil {
		return fromStoreErr[models.BlogPost](err)
	}
	return s.apply(ctx, id, map[string]any{
		"published": !post.Published,
		"updatedAt": models.Now(),
	})
}

// Delete removes a post once the caller has confirmed
func (s *blogService) Delete(ctx context.Context, id string, confirmed bool) Result[string] {
	return deleteConfirmed(ctx, s.repo, id, confirmed, s.log)
}

func (s *blogService) apply(ctx context.Context, id string, partial map[string]any) Result[models.BlogPost] {
	if err := s.repo.Update(ctx, id, partial); err != nil {
		s.log.Error().Err(err).Str("post_id", id).Msg("Failed to update blog post")
		return fromStoreErr[models.BlogPost](err)
	}
	return reload(ctx, s.repo, id, s.log)
}
