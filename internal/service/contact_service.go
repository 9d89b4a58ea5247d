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

// contactService is the concrete implementation of ContactService
type contactService struct {
	repo      repository.DocumentRepository[models.ContactMessage]
	live      *livesync.Collection[models.ContactMessage]
	validator *validation.Validator
	wait      time.Duration
	log       zerolog.Logger
}

func newContactService(repo repository.DocumentRepository[models.ContactMessage], live *liveCollections, v *validation.Validator, wait time.Duration, log zerolog.Logger) *contactService {
	return &contactService{
		repo:      repo,
		live:      live.contact,
		validator: v,
		wait:      wait,
		log:       log.With().Str("service", "contact").Logger(),
	}
}

// Submit validates the public contact form and writes it once
func (s *contactService) Submit(ctx context.Context, form models.ContactForm) Result[models.ContactMessage] {
	if errs := s.validator.Struct(form); len(errs) > 0 {
		s.log.Debug().Strs("fields", validation.Fields(errs)).Msg("Contact form rejected")
		return invalid[models.ContactMessage](errs...)
	}

	msg := models.ContactMessage{
		Name:      form.Name,
		Email:     form.Email,
		Phone:     form.Phone,
		ChildAge:  form.ChildAge,
		Message:   form.Message,
		Timestamp: models.Now(),
	}
	id, err := s.repo.Create(ctx, msg)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to store contact message")
		return fromStoreErr[models.ContactMessage](err)
	}
	msg.ID = id

	s.log.Info().Str("message_id", id).Msg("Contact message received")
	return ok(msg)
}

// List returns the messages, newest first
func (s *contactService) List(ctx context.Context) ([]models.ContactMessage, bool) {
	return awaitRecords(ctx, s.live, s.wait)
}

// Delete removes a message once the caller has confirmed
func (s *contactService) Delete(ctx context.Context, id string, confirmed bool) Result[string] {
	return deleteConfirmed(ctx, s.repo, id, confirmed, s.log)
}
