package validation

import (
	"strings"
	"testing"

	"github.com/preschool-cms-api/internal/models"
)

func strPtr(s string) *string { return &s }

func TestValidateContactForm(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name       string
		form       models.ContactForm
		wantFields []string
	}{
		{
			name: "valid with only required fields",
			form: models.ContactForm{Name: "Ama", Email: "ama@example.com"},
		},
		{
			name:       "missing name",
			form:       models.ContactForm{Email: "ama@example.com"},
			wantFields: []string{"name"},
		},
		{
			name:       "blank name",
			form:       models.ContactForm{Name: "   ", Email: "ama@example.com"},
			wantFields: []string{"name"},
		},
		{
			name:       "invalid email",
			form:       models.ContactForm{Name: "Ama", Email: "not-an-email"},
			wantFields: []string{"email"},
		},
		{
			name:       "everything missing",
			form:       models.ContactForm{},
			wantFields: []string{"name", "email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Struct(tt.form)
			if len(errs) != len(tt.wantFields) {
				t.Fatalf("Expected %d errors, got %d: %+v", len(tt.wantFields), len(errs), errs)
			}
			for i, field := range tt.wantFields {
				if errs[i].Field != field {
					t.Errorf("Expected error on %s, got %s", field, errs[i].Field)
				}
			}
		})
	}
}

func TestValidateEnrollmentForm(t *testing.T) {
	v := NewValidator()

	valid := models.EnrollmentForm{
		ParentName:  "Kofi",
		ParentEmail: "kofi@example.com",
		ParentPhone: "555-0100",
		ChildName:   "Ama",
		ChildAge:    "4",
		Program:     "preschool",
		StartDate:   "2024-09-01",
	}
	if errs := v.Struct(valid); len(errs) != 0 {
		t.Fatalf("Expected valid form, got %+v", errs)
	}

	bad := valid
	bad.Program = "college"
	bad.StartDate = "next week"
	errs := v.Struct(bad)
	if len(errs) != 2 {
		t.Fatalf("Expected 2 errors, got %+v", errs)
	}
	if errs[0].Field != "program" || !strings.Contains(errs[0].Message, "preschool") {
		t.Errorf("Expected program error listing options, got %+v", errs[0])
	}
	if errs[1].Field != "startDate" {
		t.Errorf("Expected startDate error, got %+v", errs[1])
	}
}

func TestValidatePartialInput(t *testing.T) {
	v := NewValidator()

	if errs := v.Struct(models.BlogPostInput{}); len(errs) != 0 {
		t.Errorf("Expected empty partial to be valid, got %+v", errs)
	}

	errs := v.Struct(models.BlogPostInput{Title: strPtr("  ")})
	if len(errs) != 1 || errs[0].Field != "title" || errs[0].Message != "title is required" {
		t.Errorf("Expected blank title error, got %+v", errs)
	}
}

func TestValidateScheduleAgeGroup(t *testing.T) {
	v := NewValidator()

	item := models.ScheduleItemCreate{Day: "Monday", Time: "9:00 AM", Activity: "Circle Time", AgeGroup: "3-4 Years"}
	if errs := v.Struct(item); len(errs) != 0 {
		t.Fatalf("Expected valid item, got %+v", errs)
	}

	item.AgeGroup = "Teens"
	errs := v.Struct(item)
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "All Ages, 2-3 Years") {
		t.Errorf("Expected age group error listing options, got %+v", errs)
	}
}

func TestValidateScheduleInputDay(t *testing.T) {
	v := NewValidator()

	if errs := v.Struct(models.ScheduleItemInput{Day: strPtr("Friday")}); len(errs) != 0 {
		t.Fatalf("Expected Friday to be valid, got %+v", errs)
	}

	errs := v.Struct(models.ScheduleItemInput{Day: strPtr("Sunday")})
	if len(errs) != 1 || errs[0].Field != "day" {
		t.Fatalf("Expected day error, got %+v", errs)
	}
	if errs[0].Message != "day must be one of: Monday, Tuesday, Wednesday, Thursday, Friday" {
		t.Errorf("Expected weekday list in message, got %q", errs[0].Message)
	}
}

func TestValidateEnrollmentChildAge(t *testing.T) {
	v := NewValidator()

	form := models.EnrollmentForm{
		ParentName:  "Kofi",
		ParentEmail: "kofi@example.com",
		ParentPhone: "555-0100",
		ChildName:   "Ama",
		ChildAge:    "7",
		Program:     "summer",
		StartDate:   "2024-09-01",
	}
	errs := v.Struct(form)
	if len(errs) != 1 || errs[0].Field != "childAge" {
		t.Fatalf("Expected childAge error, got %+v", errs)
	}
	if !strings.Contains(errs[0].Message, "2, 3, 4, 5, 6") {
		t.Errorf("Expected age list in message, got %q", errs[0].Message)
	}
}
