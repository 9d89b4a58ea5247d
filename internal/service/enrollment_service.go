package service

import (
	"context"
	"fmt"
	"time"

	"github.com/preschool-cms-api/internal/livesync"
	"github.com/preschool-cms-api/internal/models"
	"github.com/preschool-cms-api/internal/repository"
	"github.com/preschool-cms-api/internal/validation"
	"github.com/rs/zerolog"
)

// enrollmentService is the concrete implementation of EnrollmentService
type enrollmentService struct {
	repo      repository.DocumentRepository[models.Enrollment]
	live      *livesync.Collection[models.EnrollmentView]
	validator *validation.Validator
	wait      time.Duration
	log       zerolog.Logger
}

func newEnrollmentService(repo repository.DocumentRepository[models.Enrollment], live *liveCollections, v *validation.Validator, wait time.Duration, log zerolog.Logger) *enrollmentService {
	return &enrollmentService{
		repo:      repo,
		live:      live.enrollments,
		validator: v,
		wait:      wait,
		log:       log.With().Str("service", "enrollment").Logger(),
	}
}

// Submit validates the public enrollment form and stores it as pending
func (s *enrollmentService) Submit(ctx context.Context, form models.EnrollmentForm) Result[models.Enrollment] {
	if errs := s.validator.Struct(form); len(errs) > 0 {
		s.log.Debug().Strs("fields", validation.Fields(errs)).Msg("Enrollment form rejected")
		return invalid[models.Enrollment](errs...)
	}

	enrollment := models.Enrollment{
		ParentName:       form.ParentName,
		ParentEmail:      form.ParentEmail,
		ParentPhone:      form.ParentPhone,
		ChildName:        form.ChildName,
		ChildAge:         form.ChildAge,
		Program:          form.Program,
		StartDate:        form.StartDate,
		EmergencyContact: form.EmergencyContact,
		EmergencyPhone:   form.EmergencyPhone,
		MedicalInfo:      form.MedicalInfo,
		AdditionalNotes:  form.AdditionalNotes,
		SubmittedAt:      models.Now(),
		Status:           models.EnrollmentPending,
	}
	id, err := s.repo.Create(ctx, enrollment)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to store enrollment")
		return fromStoreErr[models.Enrollment](err)
	}
	enrollment.ID = id

	s.log.Info().Str("enrollment_id", id).Str("program", enrollment.Program).Msg("Enrollment submitted")
	return ok(enrollment)
}

// List returns the applications with their available actions, newest first
func (s *enrollmentService) List(ctx context.Context) ([]models.EnrollmentView, bool) {
	return awaitRecords(ctx, s.live, s.wait)
}

// Get returns a single application
func (s *enrollmentService) Get(ctx context.Context, id string) Result[models.EnrollmentView] {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return fromStoreErr[models.EnrollmentView](err)
	}
	return ok(e.View())
}

// SetStatus decides a pending application. Only approved and rejected are
// valid targets and both are final.
func (s *enrollmentService) SetStatus(ctx context.Context, id string, status models.EnrollmentStatus) Result[models.EnrollmentView] {
	if status != models.EnrollmentApproved && status != models.EnrollmentRejected {
		return invalid[models.EnrollmentView](validation.ValidationError{
			Field:   "status",
			Message: "status must be one of: approved, rejected",
			Value:   string(status),
		})
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return fromStoreErr[models.EnrollmentView](err)
	}
	if !current.IsPending() {
		return invalid[models.EnrollmentView](validation.ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("enrollment is already %s", current.Status),
			Value:   string(status),
		})
	}

	if err := s.repo.Update(ctx, id, map[string]any{"status": status}); err != nil {
		s.log.Error().Err(err).Str("enrollment_id", id).Msg("Failed to update enrollment status")
		return fromStoreErr[models.EnrollmentView](err)
	}

	current.Status = status
	s.log.Info().Str("enrollment_id", id).Str("status", string(status)).Msg("Enrollment status changed")
	return ok(current.View())
}

// Approve marks a pending application approved
func (s *enrollmentService) Approve(ctx context.Context, id string) Result[models.EnrollmentView] {
	return s.SetStatus(ctx, id, models.EnrollmentApproved)
}

// Reject marks a pending application rejected
func (s *enrollmentService) Reject(ctx context.Context, id string) Result[models.EnrollmentView] {
	return s.SetStatus(ctx, id, models.EnrollmentRejected)
}

// Delete removes an application once the caller has confirmed
func (s *enrollmentService) Delete(ctx context.Context, id string, confirmed bool) Result[string] {
	return deleteConfirmed(ctx, s.repo, id, confirmed, s.log)
}
