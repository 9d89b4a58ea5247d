package service

import (
	"context"

	"github.com/preschool-cms-api/internal/repository"
	"github.com/preschool-cms-api/internal/validation"
	"github.com/rs/zerolog"
)

var noFieldsError = validation.ValidationError{Message: "at least one field must be provided"}

// deleteConfirmed removes a document only when the caller confirmed. An
// unconfirmed delete never reaches the store.
func deleteConfirmed[T any](ctx context.Context, repo repository.DocumentRepository[T], id string, confirmed bool, log zerolog.Logger) Result[string] {
	if !confirmed {
		return notConfirmed[string]()
	}
	if err := repo.Delete(ctx, id); err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to delete document")
		return fromStoreErr[string](err)
	}
	log.Info().Str("collection", repo.Path()).Str("id", id).Msg("Document deleted")
	return ok(id)
}

// reload reads a record back after a successful write. The write already
// happened, so a failed read still reports success.
func reload[T any](ctx context.Context, repo repository.DocumentRepository[T], id string, log zerolog.Logger) Result[T] {
	rec, err := repo.Get(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Msg("Failed to read back updated document")
		var zero T
		return ok(zero)
	}
	return ok(rec)
}

// setString copies a non-nil form field into a partial update
func setString(partial map[string]any, key string, value *string) {
	if value != nil {
		partial[key] = *value
	}
}
