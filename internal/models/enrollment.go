package models

import "encoding/json"

// EnrollmentStatus is the review state of an enrollment application
type EnrollmentStatus string

const (
	EnrollmentPending  EnrollmentStatus = "pending"
	EnrollmentApproved EnrollmentStatus = "approved"
	EnrollmentRejected EnrollmentStatus = "rejected"
)

// Programs lists the programs offered on the enrollment form
var Programs = []string{"preschool", "prekindergarten", "afterschool", "summer"}

// ChildAges lists the ages offered on the enrollment form
var ChildAges = []string{"2", "3", "4", "5", "6"}

// Enrollment is an application submitted by a parent
type Enrollment struct {
	ID               string           `json:"id"`
	ParentName       string           `json:"parentName"`
	ParentEmail      string           `json:"parentEmail"`
	ParentPhone      string           `json:"parentPhone"`
	ChildName        string           `json:"childName"`
	ChildAge         string           `json:"childAge"`
	Program          string           `json:"program"`
	StartDate        string           `json:"startDate"`
	EmergencyContact string           `json:"emergencyContact"`
	EmergencyPhone   string           `json:"emergencyPhone"`
	MedicalInfo      string           `json:"medicalInfo"`
	AdditionalNotes  string           `json:"additionalNotes"`
	SubmittedAt      Timestamp        `json:"submittedAt"`
	Status           EnrollmentStatus `json:"status"`
}

// EnrollmentForm is the public enrollment form submission
type EnrollmentForm struct {
	ParentName       string `json:"parentName" validate:"required,notblank"`
	ParentEmail      string `json:"parentEmail" validate:"required,notblank,email"`
	ParentPhone      string `json:"parentPhone" validate:"required,notblank"`
	ChildName        string `json:"childName" validate:"required,notblank"`
	ChildAge         string `json:"childAge" validate:"required,childage"`
	Program          string `json:"program" validate:"required,program"`
	StartDate        string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EmergencyContact string `json:"emergencyContact"`
	EmergencyPhone   string `json:"emergencyPhone"`
	MedicalInfo      string `json:"medicalInfo"`
	AdditionalNotes  string `json:"additionalNotes"`
}

// EnrollmentView is an enrollment row as the admin table shows it
type EnrollmentView struct {
	Enrollment
	Actions []string `json:"actions"`
}

// IsPending reports whether the application still awaits a decision.
// Records written without a status are treated as pending.
func (e Enrollment) IsPending() bool {
	return e.Status == EnrollmentPending || e.Status == ""
}

// View returns the admin row with the actions still available
func (e Enrollment) View() EnrollmentView {
	actions := []string{"delete"}
	if e.IsPending() {
		actions = []string{"approve", "reject", "delete"}
	}
	return EnrollmentView{Enrollment: e, Actions: actions}
}

// DecodeEnrollment builds an Enrollment from a stored document
func DecodeEnrollment(id string, raw json.RawMessage) (Enrollment, error) {
	return decodeDocument(id, raw, func(e *Enrollment, id string) { e.ID = id })
}

// EnrollmentNewestFirst orders applications by submission time, newest first
func EnrollmentNewestFirst(a, b Enrollment) bool {
	return a.SubmittedAt.After(b.SubmittedAt.Time)
}
