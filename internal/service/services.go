package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/preschool-cms-api/internal/config"
	"github.com/preschool-cms-api/internal/livesync"
	"github.com/preschool-cms-api/internal/models"
	"github.com/preschool-cms-api/internal/repository"
	"github.com/preschool-cms-api/internal/store"
	"github.com/preschool-cms-api/internal/validation"
	"github.com/rs/zerolog"
)

// BlogService defines the interface for blog post operations
type BlogService interface {
	List(ctx context.Context) ([]models.BlogPost, bool)
	Published(ctx context.Context) ([]models.BlogPost, bool)
	GetPublished(ctx context.Context, id string) Result[models.BlogPost]
	Create(ctx context.Context, form models.BlogPostCreate) Result[models.BlogPost]
	Update(ctx context.Context, id string, in models.BlogPostInput) Result[models.BlogPost]
	TogglePublished(ctx context.Context, id string) Result[models.BlogPost]
	Delete(ctx context.Context, id string, confirmed bool) Result[string]
}

// ContactService defines the interface for contact message operations
type ContactService interface {
	Submit(ctx context.Context, form models.ContactForm) Result[models.ContactMessage]
	List(ctx context.Context) ([]models.ContactMessage, bool)
	Delete(ctx context.Context, id string, confirmed bool) Result[string]
}

// EnrollmentService defines the interface for enrollment operations
type EnrollmentService interface {
	Submit(ctx context.Context, form models.EnrollmentForm) Result[models.Enrollment]
	List(ctx context.Context) ([]models.EnrollmentView, bool)
	Get(ctx context.Context, id string) Result[models.EnrollmentView]
	SetStatus(ctx context.Context, id string, status models.EnrollmentStatus) Result[models.EnrollmentView]
	Approve(ctx context.Context, id string) Result[models.EnrollmentView]
	Reject(ctx context.Context, id string) Result[models.EnrollmentView]
	Delete(ctx context.Context, id string, confirmed bool) Result[string]
}

// GalleryService defines the interface for gallery operations
type GalleryService interface {
	List(ctx context.Context) ([]models.GalleryItem, bool)
	Public(ctx context.Context) ([]models.GalleryItem, bool)
	Create(ctx context.Context, form models.GalleryItemCreate) Result[models.GalleryItem]
	Update(ctx context.Context, id string, in models.GalleryItemInput) Result[models.GalleryItem]
	Delete(ctx context.Context, id string, confirmed bool) Result[string]
}

// ScheduleService defines the interface for daily schedule operations
type ScheduleService interface {
	List(ctx context.Context) ([]models.ScheduleItem, bool)
	Grouped(ctx context.Context) ([]models.ScheduleDay, bool)
	Create(ctx context.Context, form models.ScheduleItemCreate) Result[models.ScheduleItem]
	Update(ctx context.Context, id string, in models.ScheduleItemInput) Result[models.ScheduleItem]
	Delete(ctx context.Context, id string, confirmed bool) Result[string]
}

// ExportService defines the interface for export operations
type ExportService interface {
	Formats(collection string) []string
	Check(collection, format string) error
	Stream(ctx context.Context, w http.ResponseWriter, collection, format string) error
}

// Services holds all service interfaces
type Services struct {
	Blog       BlogService
	Contact    ContactService
	Enrollment EnrollmentService
	Gallery    GalleryService
	Schedule   ScheduleService
	Export     ExportService

	sub  store.Subscriber
	live *liveCollections
	cfg  *config.Config
	log  zerolog.Logger
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	live := newLiveCollections(repos.Store, log)
	v := validation.NewValidator()
	wait := cfg.Server.SnapshotWait

	return &Services{
		Blog:       newBlogService(repos.BlogPosts, live, v, wait, log),
		Contact:    newContactService(repos.ContactMessages, live, v, wait, log),
		Enrollment: newEnrollmentService(repos.Enrollments, live, v, wait, log),
		Gallery:    newGalleryService(repos.GalleryItems, live, v, wait, log),
		Schedule:   newScheduleService(repos.DailySchedule, live, v, wait, log),
		Export:     newExportService(repos, log),
		sub:        repos.Store,
		live:       live,
		cfg:        cfg,
		log:        log.With().Str("component", "services").Logger(),
	}
}

// Start subscribes the shared live collections
func (s *Services) Start(ctx context.Context) error {
	started := make([]livesync.Feed, 0, len(s.live.all()))
	for _, c := range s.live.all() {
		if err := c.Start(ctx); err != nil {
			for _, done := range started {
				done.Stop()
			}
			return fmt.Errorf("failed to start live collections: %w", err)
		}
		started = append(started, c)
	}
	s.log.Info().Int("collections", len(started)).Msg("Live collections started")
	return nil
}

// Stop releases every subscription held by the services
func (s *Services) Stop() {
	for _, c := range s.live.all() {
		c.Stop()
	}
	s.log.Info().Msg("Live collections stopped")
}

// Feed returns an unstarted per-client collection for streaming
func (s *Services) Feed(collection string, public bool) (livesync.Feed, error) {
	return newFeed(s.sub, collection, public, s.log)
}

// Dashboard returns the admin overview counters
func (s *Services) Dashboard(ctx context.Context, adminEmail string) models.DashboardStats {
	wait := s.cfg.Server.SnapshotWait

	enrollments, l1 := awaitRecords(ctx, s.live.enrollments, wait)
	posts, l2 := awaitRecords(ctx, s.live.blog, wait)
	messages, l3 := awaitRecords(ctx, s.live.contact, wait)
	gallery, l4 := awaitRecords(ctx, s.live.gallery, wait)
	schedule, l5 := awaitRecords(ctx, s.live.schedule, wait)

	stats := models.DashboardStats{
		AdminEmail:      adminEmail,
		Enrollments:     len(enrollments),
		BlogPosts:       len(posts),
		ContactMessages: len(messages),
		GalleryItems:    len(gallery),
		ScheduleItems:   len(schedule),
		Loading:         l1 || l2 || l3 || l4 || l5,
	}
	for _, e := range enrollments {
		if e.IsPending() {
			stats.PendingEnrollments++
		}
	}
	for _, p := range posts {
		if p.Published {
			stats.PublishedPosts++
		}
	}
	return stats
}

// Health checks the document store when the backend supports it
func (s *Services) Health(ctx context.Context) error {
	if p, ok := s.sub.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}
