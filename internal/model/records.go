// Package model defines the personal data records, the Item union over them,
// and the per-query structures that flow through the retrieval pipeline.
package model

import "time"

// Note is a free-form text note kept in a folder.
type Note struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Folder    string    `json:"folder,omitempty"`
}

// Task is a calendar event or to-do item.
type Task struct {
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"` // Exact start time, if any
	TargetDate    *time.Time `json:"target_date,omitempty"`    // Day-level due date, if any
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Priority      string     `json:"priority,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	IsCompleted   bool       `json:"is_completed"`
}

// EffectiveDate returns the scheduled time, else the target date.
// The second return value is false when the task has neither.
func (t *Task) EffectiveDate() (time.Time, bool) {
	if t.ScheduledTime != nil {
		return *t.ScheduledTime, true
	}
	if t.TargetDate != nil {
		return *t.TargetDate, true
	}
	return time.Time{}, false
}

// Location is a saved place.
type Location struct {
	SavedAt   time.Time `json:"saved_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	Folder    string    `json:"folder,omitempty"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	Province  string    `json:"province,omitempty"`
	Country   string    `json:"country,omitempty"`
	Rating    float64   `json:"rating,omitempty"`
	Latitude  float64   `json:"latitude,omitempty"`
	Longitude float64   `json:"longitude,omitempty"`
}

// Email is a message from the user's mailbox.
type Email struct {
	Timestamp   time.Time `json:"timestamp"`
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Sender      string    `json:"sender"`
	Body        string    `json:"body,omitempty"`
	Folder      string    `json:"folder,omitempty"`
	IsImportant bool      `json:"is_important"`
	IsRead      bool      `json:"is_read"`
}

// Receipt is a single purchase.
type Receipt struct {
	Date          time.Time `json:"date"`
	ID            string    `json:"id"`
	Merchant      string    `json:"merchant"`
	Category      string    `json:"category,omitempty"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	LineItems     []string  `json:"line_items,omitempty"`
	Amount        float64   `json:"amount"`
}
