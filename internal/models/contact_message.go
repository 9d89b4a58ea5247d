package models

import "encoding/json"

// ContactMessage is a message left through the public contact form
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	ChildAge  string    `json:"childAge"`
	Message   string    `json:"message"`
	Timestamp Timestamp `json:"timestamp"`
}

// ContactForm is the public contact form submission
type ContactForm struct {
	Name     string `json:"name" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,notblank,email"`
	Phone    string `json:"phone"`
	ChildAge string `json:"childAge"`
	Message  string `json:"message"`
}

// DecodeContactMessage builds a ContactMessage from a stored document
func DecodeContactMessage(id string, raw json.RawMessage) (ContactMessage, error) {
	return decodeDocument(id, raw, func(m *ContactMessage, id string) { m.ID = id })
}

// ContactMessageNewestFirst orders messages by arrival, newest first
func ContactMessageNewestFirst(a, b ContactMessage) bool {
	return a.Timestamp.After(b.Timestamp.Time)
}
