package models

import (
	"encoding/json"
	"sort"
)

// Weekdays are the days the daily schedule covers, in display order
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// AgeGroups lists the age groups a schedule entry can target
var AgeGroups = []string{"All Ages", "2-3 Years", "3-4 Years", "4-5 Years", "5-6 Years"}

// ScheduleItem is one activity slot in the weekly schedule
type ScheduleItem struct {
	ID          string `json:"id"`
	Day         string `json:"day"`
	Time        string `json:"time"`
	Activity    string `json:"activity"`
	Description string `json:"description"`
	AgeGroup    string `json:"ageGroup"`
}

// ScheduleItemInput is the admin create/edit form. Nil fields are left untouched on edit.
type ScheduleItemInput struct {
	Day         *string `json:"day" validate:"omitempty,weekday"`
	Time        *string `json:"time" validate:"omitempty,notblank"`
	Activity    *string `json:"activity" validate:"omitempty,notblank"`
	Description *string `json:"description"`
	AgeGroup    *string `json:"ageGroup" validate:"omitempty,agegroup"`
}

// ScheduleItemCreate carries the fields required to add a schedule entry
type ScheduleItemCreate struct {
	Day         string `json:"day" validate:"required,weekday"`
	Time        string `json:"time" validate:"required,notblank"`
	Activity    string `json:"activity" validate:"required,notblank"`
	Description string `json:"description"`
	AgeGroup    string `json:"ageGroup" validate:"required,agegroup"`
}

// ScheduleDay groups the entries of one day
type ScheduleDay struct {
	Day   string         `json:"day"`
	Items []ScheduleItem `json:"items"`
}

// DecodeScheduleItem builds a ScheduleItem from a stored document
func DecodeScheduleItem(id string, raw json.RawMessage) (ScheduleItem, error) {
	return decodeDocument(id, raw, func(s *ScheduleItem, id string) { s.ID = id })
}

// GroupByDay buckets items per day, Monday to Friday first and any other
// day names after them alphabetically. Item order inside a day is kept.
func GroupByDay(items []ScheduleItem) []ScheduleDay {
	buckets := make(map[string][]ScheduleItem)
	for _, item := range items {
		buckets[item.Day] = append(buckets[item.Day], item)
	}

	days := make([]ScheduleDay, 0, len(buckets))
	for _, day := range Weekdays {
		if entries, ok := buckets[day]; ok {
			days = append(days, ScheduleDay{Day: day, Items: entries})
			delete(buckets, day)
		}
	}

	var others []string
	for day := range buckets {
		others = append(others, day)
	}
	sort.Strings(others)
	for _, day := range others {
		days = append(days, ScheduleDay{Day: day, Items: buckets[day]})
	}
	return days
}
