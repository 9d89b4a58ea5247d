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

// scheduleService is the concrete implementation of ScheduleService
type scheduleService struct {
	repo      repository.DocumentRepository[models.ScheduleItem]
	live      *livesync.Collection[models.ScheduleItem]
	validator *validation.Validator
	wait      time.Duration
	log       zerolog.Logger
}

func newScheduleService(repo repository.DocumentRepository[models.ScheduleItem], live *liveCollections, v *validation.Validator, wait time.Duration, log zerolog.Logger) *scheduleService {
	return &scheduleService{
		repo:      repo,
		live:      live.schedule,
		validator: v,
		wait:      wait,
		log:       log.With().Str("service", "schedule").Logger(),
	}
}

// List returns the schedule entries
func (s *scheduleService) List(ctx context.Context) ([]models.ScheduleItem, bool) {
	return awaitRecords(ctx, s.live, s.wait)
}

// Grouped returns the entries bucketed per day
func (s *scheduleService) Grouped(ctx context.Context) ([]models.ScheduleDay, bool) {
	items, loading := s.List(ctx)
	return models.GroupByDay(items), loading
}

// Create adds a schedule entry
func (s *scheduleService) Create(ctx context.Context, form models.ScheduleItemCreate) Result[models.ScheduleItem] {
	if errs := s.validator.Struct(form); len(errs) > 0 {
		return invalid[models.ScheduleItem](errs...)
	}

	item := models.ScheduleItem{
		Day:         form.Day,
		Time:        form.Time,
		Activity:    form.Activity,
		Description: form.Description,
		AgeGroup:    form.AgeGroup,
	}
	id, err := s.repo.Create(ctx, item)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to create schedule item")
		return fromStoreErr[models.ScheduleItem](err)
	}
	item.ID = id

	s.log.Info().Str("item_id", id).Str("day", item.Day).Msg("Schedule item created")
	return ok(item)
}

// Update writes the provided fields
func (s *scheduleService) Update(ctx context.Context, id string, in models.ScheduleItemInput) Result[models.ScheduleItem] {
	if errs := s.validator.Struct(in); len(errs) > 0 {
		return invalid[models.ScheduleItem](errs...)
	}

	partial := make(map[string]any)
	setString(partial, "day", in.Day)
	setString(partial, "time", in.Time)
	setString(partial, "activity", in.Activity)
	setString(partial, "description", in.Description)
	setString(partial, "ageGroup", in.AgeGroup)
	if len(partial) == 0 {
		return invalid[models.ScheduleItem](noFieldsError)
	}

	if err := s.repo.Update(ctx, id, partial); err != nil {
		s.log.Error().Err(err).Str("item_id", id).Msg("Failed to update schedule item")
		return fromStoreErr[models.ScheduleItem](err)
	}
	return reload(ctx, s.repo, id, s.log)
}

// Delete removes an entry once the caller has confirmed
func (s *scheduleService) Delete(ctx context.Context, id string, confirmed bool) Result[string] {
	return deleteConfirmed(ctx, s.repo, id, confirmed, s.log)
}
