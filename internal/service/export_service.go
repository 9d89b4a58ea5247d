package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/preschool-cms-api/internal/models"
	"github.com/preschool-cms-api/internal/repository"
	"github.com/rs/zerolog"
)

// ErrUnsupportedFormat is returned for export formats a collection lacks
var ErrUnsupportedFormat = errors.New("unsupported format")

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// Formats returns the formats a collection can be exported in
func (s *exportService) Formats(collection string) []string {
	switch collection {
	case models.CollectionContactMessages, models.CollectionEnrollments:
		return []string{"json", "ndjson", "csv"}
	default:
		if models.ValidCollections[collection] {
			return []string{"json", "ndjson"}
		}
		return nil
	}
}

// Check reports whether collection can be exported in format, before any
// response bytes are written
func (s *exportService) Check(collection, format string) error {
	formats := s.Formats(collection)
	if formats == nil {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	for _, f := range formats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// Stream writes the collection to w in the requested format
func (s *exportService) Stream(ctx context.Context, w http.ResponseWriter, collection, format string) error {
	if err := s.Check(collection, format); err != nil {
		return err
	}

	s.log.Info().Str("collection", collection).Str("format", format).Msg("Starting export")

	if format == "csv" {
		return s.streamCSV(ctx, w, collection)
	}

	records, err := s.records(ctx, collection)
	if err != nil {
		return err
	}

	switch format {
	case "ndjson":
		return s.streamNDJSON(w, collection, records)
	default:
		return s.streamJSON(w, collection, records)
	}
}

// records loads a collection in the order the admin views show it
func (s *exportService) records(ctx context.Context, collection string) ([]any, error) {
	switch collection {
	case models.CollectionBlogPosts:
		return sortedRecords(ctx, s.repos.BlogPosts, models.BlogPostNewestFirst)
	case models.CollectionContactMessages:
		return sortedRecords(ctx, s.repos.ContactMessages, models.ContactMessageNewestFirst)
	case models.CollectionEnrollments:
		return sortedRecords(ctx, s.repos.Enrollments, models.EnrollmentNewestFirst)
	case models.CollectionGalleryItems:
		return sortedRecords(ctx, s.repos.GalleryItems, models.GalleryItemByOrder)
	case models.CollectionDailySchedule:
		return sortedRecords(ctx, s.repos.DailySchedule, nil)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
}

func sortedRecords[T any](ctx context.Context, repo repository.DocumentRepository[T], less func(a, b T) bool) ([]any, error) {
	list, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if less != nil {
		sort.SliceStable(list, func(i, j int) bool { return less(list[i], list[j]) })
	}
	out := make([]any, len(list))
	for i := range list {
		out[i] = list[i]
	}
	return out, nil
}

func (s *exportService) streamNDJSON(w http.ResponseWriter, collection string, records []any) error {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.ndjson", collection))

	flusher, _ := w.(http.Flusher)
	count := 0

	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		w.Write(data)
		w.Write([]byte("\n"))
		count++

		// Flush every 100 records for streaming
		if count%100 == 0 && flusher != nil {
			flusher.Flush()
		}
	}

	s.log.Info().Str("collection", collection).Int("count", count).Msg("Export completed")
	return nil
}

func (s *exportService) streamJSON(w http.ResponseWriter, collection string, records []any) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.json", collection))

	w.Write([]byte("["))
	for i, rec := range records {
		if i > 0 {
			w.Write([]byte(","))
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		w.Write(data)
	}
	w.Write([]byte("]"))

	s.log.Info().Str("collection", collection).Int("count", len(records)).Msg("Export completed")
	return nil
}

func (s *exportService) streamCSV(ctx context.Context, w http.ResponseWriter, collection string) error {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", collection))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	switch collection {
	case models.CollectionContactMessages:
		list, err := s.repos.ContactMessages.List(ctx)
		if err != nil {
			return err
		}
		sort.SliceStable(list, func(i, j int) bool { return models.ContactMessageNewestFirst(list[i], list[j]) })

		writer.Write([]string{"id", "name", "email", "phone", "child_age", "message", "timestamp"})
		for _, m := range list {
			if err := writer.Write([]string{
				m.ID, m.Name, m.Email, m.Phone, m.ChildAge, m.Message, formatTime(m.Timestamp),
			}); err != nil {
				return err
			}
		}

	case models.CollectionEnrollments:
		list, err := s.repos.Enrollments.List(ctx)
		if err != nil {
			return err
		}
		sort.SliceStable(list, func(i, j int) bool { return models.EnrollmentNewestFirst(list[i], list[j]) })

		writer.Write([]string{
			"id", "status", "submitted_at", "parent_name", "parent_email", "parent_phone",
			"child_name", "child_age", "program", "start_date",
			"emergency_contact", "emergency_phone", "medical_info", "additional_notes",
		})
		for _, e := range list {
			status := string(e.Status)
			if e.IsPending() {
				status = string(models.EnrollmentPending)
			}
			if err := writer.Write([]string{
				e.ID, status, formatTime(e.SubmittedAt), e.ParentName, e.ParentEmail, e.ParentPhone,
				e.ChildName, e.ChildAge, e.Program, e.StartDate,
				e.EmergencyContact, e.EmergencyPhone, e.MedicalInfo, e.AdditionalNotes,
			}); err != nil {
				return err
			}
		}
	}

	return nil
}

func formatTime(t models.Timestamp) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

