package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/preschool-cms-api/internal/livesync"
	"github.com/preschool-cms-api/internal/models"
	"github.com/preschool-cms-api/internal/store"
	"github.com/rs/zerolog"
)

// ErrUnknownCollection is returned for collection names the site does not
// have or does not expose on the requested surface
var ErrUnknownCollection = errors.New("unknown collection")

func blogOptions(publishedOnly bool) livesync.Options[models.BlogPost] {
	opts := livesync.Options[models.BlogPost]{
		Path:   models.CollectionBlogPosts,
		Decode: models.DecodeBlogPost,
		Less:   models.BlogPostNewestFirst,
	}
	if publishedOnly {
		opts.Filter = models.IsPublished
	}
	return opts
}

func contactOptions() livesync.Options[models.ContactMessage] {
	return livesync.Options[models.ContactMessage]{
		Path:   models.CollectionContactMessages,
		Decode: models.DecodeContactMessage,
		Less:   models.ContactMessageNewestFirst,
	}
}

func enrollmentOptions() livesync.Options[models.EnrollmentView] {
	return livesync.Options[models.EnrollmentView]{
		Path: models.CollectionEnrollments,
		Decode: func(id string, raw json.RawMessage) (models.EnrollmentView, error) {
			e, err := models.DecodeEnrollment(id, raw)
			if err != nil {
				return models.EnrollmentView{}, err
			}
			return e.View(), nil
		},
		Less: func(a, b models.EnrollmentView) bool {
			return models.EnrollmentNewestFirst(a.Enrollment, b.Enrollment)
		},
	}
}

func galleryOptions(withFallback bool) livesync.Options[models.GalleryItem] {
	opts := livesync.Options[models.GalleryItem]{
		Path:   models.CollectionGalleryItems,
		Decode: models.DecodeGalleryItem,
		Less:   models.GalleryItemByOrder,
	}
	if withFallback {
		opts.Fallback = models.DefaultGalleryItems
	}
	return opts
}

func scheduleOptions() livesync.Options[models.ScheduleItem] {
	return livesync.Options[models.ScheduleItem]{
		Path:   models.CollectionDailySchedule,
		Decode: models.DecodeScheduleItem,
	}
}

// liveCollections are the long-lived projections the services read from
type liveCollections struct {
	blog          *livesync.Collection[models.BlogPost]
	publishedBlog *livesync.Collection[models.BlogPost]
	contact       *livesync.Collection[models.ContactMessage]
	enrollments   *livesync.Collection[models.EnrollmentView]
	gallery       *livesync.Collection[models.GalleryItem]
	publicGallery *livesync.Collection[models.GalleryItem]
	schedule      *livesync.Collection[models.ScheduleItem]
}

func newLiveCollections(sub store.Subscriber, log zerolog.Logger) *liveCollections {
	return &liveCollections{
		blog:          livesync.New(sub, blogOptions(false), log),
		publishedBlog: livesync.New(sub, blogOptions(true), log),
		contact:       livesync.New(sub, contactOptions(), log),
		enrollments:   livesync.New(sub, enrollmentOptions(), log),
		gallery:       livesync.New(sub, galleryOptions(false), log),
		publicGallery: livesync.New(sub, galleryOptions(true), log),
		schedule:      livesync.New(sub, scheduleOptions(), log),
	}
}

func (l *liveCollections) all() []livesync.Feed {
	return []livesync.Feed{l.blog, l.publishedBlog, l.contact, l.enrollments, l.gallery, l.publicGallery, l.schedule}
}

// newFeed builds an unstarted collection for one streaming client. The
// public surface sees published posts only, the gallery with its fallback
// items, and the schedule.
func newFeed(sub store.Subscriber, collection string, public bool, log zerolog.Logger) (livesync.Feed, error) {
	if public {
		switch collection {
		case models.CollectionBlogPosts:
			return livesync.New(sub, blogOptions(true), log), nil
		case models.CollectionGalleryItems:
			return livesync.New(sub, galleryOptions(true), log), nil
		case models.CollectionDailySchedule:
			return livesync.New(sub, scheduleOptions(), log), nil
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}

	switch collection {
	case models.CollectionBlogPosts:
		return livesync.New(sub, blogOptions(false), log), nil
	case models.CollectionContactMessages:
		return livesync.New(sub, contactOptions(), log), nil
	case models.CollectionEnrollments:
		return livesync.New(sub, enrollmentOptions(), log), nil
	case models.CollectionGalleryItems:
		return livesync.New(sub, galleryOptions(false), log), nil
	case models.CollectionDailySchedule:
		return livesync.New(sub, scheduleOptions(), log), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
}

// awaitRecords returns the records of c, waiting up to d for the first
// snapshot. The bool reports whether the collection is still loading.
func awaitRecords[T any](ctx context.Context, c *livesync.Collection[T], d time.Duration) ([]T, bool) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return c.Wait(ctx)
}
