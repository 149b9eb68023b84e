package model

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies which record an Item wraps.
type Kind string

const (
	// KindReceipt wraps a Receipt.
	KindReceipt Kind = "receipt"
	// KindEmail wraps an Email.
	KindEmail Kind = "email"
	// KindTask wraps a Task (calendar event).
	KindTask Kind = "task"
	// KindNote wraps a Note.
	KindNote Kind = "note"
	// KindLocation wraps a Location.
	KindLocation Kind = "location"
)

// AllKinds lists every record kind in a stable order.
var AllKinds = []Kind{KindNote, KindTask, KindLocation, KindEmail, KindReceipt}

// ParseKind converts user input such as "receipts" or "Task" into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "receipt", "expense":
		return KindReceipt, nil
	case "email", "mail":
		return KindEmail, nil
	case "task", "event":
		return KindTask, nil
	case "note":
		return KindNote, nil
	case "location", "place":
		return KindLocation, nil
	default:
		return "", fmt.Errorf("unknown item kind: %q", s)
	}
}

// Item is a closed union over the five record kinds. Exactly one of the
// record pointers is set, matching Kind. Use the New*Item constructors.
type Item struct {
	receipt  *Receipt
	email    *Email
	task     *Task
	note     *Note
	location *Location
	kind     Kind
}

// NewReceiptItem wraps a receipt.
func NewReceiptItem(r Receipt) Item { return Item{kind: KindReceipt, receipt: &r} }

// NewEmailItem wraps an email.
func NewEmailItem(e Email) Item { return Item{kind: KindEmail, email: &e} }

// NewTaskItem wraps a task.
func NewTaskItem(t Task) Item { return Item{kind: KindTask, task: &t} }

// NewNoteItem wraps a note.
func NewNoteItem(n Note) Item { return Item{kind: KindNote, note: &n} }

// NewLocationItem wraps a location.
func NewLocationItem(l Location) Item { return Item{kind: KindLocation, location: &l} }

// Kind returns the wrapped record kind.
func (i Item) Kind() Kind { return i.kind }

// Receipt returns the wrapped receipt, if any.
func (i Item) Receipt() (Receipt, bool) {
	if i.receipt == nil {
		return Receipt{}, false
	}
	return *i.receipt, true
}

// Email returns the wrapped email, if any.
func (i Item) Email() (Email, bool) {
	if i.email == nil {
		return Email{}, false
	}
	return *i.email, true
}

// Task returns the wrapped task, if any.
func (i Item) Task() (Task, bool) {
	if i.task == nil {
		return Task{}, false
	}
	return *i.task, true
}

// Note returns the wrapped note, if any.
func (i Item) Note() (Note, bool) {
	if i.note == nil {
		return Note{}, false
	}
	return *i.note, true
}

// Location returns the wrapped location, if any.
func (i Item) Location() (Location, bool) {
	if i.location == nil {
		return Location{}, false
	}
	return *i.location, true
}

// ID returns the record identifier.
func (i Item) ID() string {
	switch i.kind {
	case KindReceipt:
		return i.receipt.ID
	case KindEmail:
		return i.email.ID
	case KindTask:
		return i.task.ID
	case KindNote:
		return i.note.ID
	case KindLocation:
		return i.location.ID
	}
	return ""
}

// Date returns the record's primary date. Tasks without any date return
// the zero time.
func (i Item) Date() time.Time {
	switch i.kind {
	case KindReceipt:
		return i.receipt.Date
	case KindEmail:
		return i.email.Timestamp
	case KindTask:
		d, _ := i.task.EffectiveDate()
		return d
	case KindNote:
		if !i.note.UpdatedAt.IsZero() {
			return i.note.UpdatedAt
		}
		return i.note.CreatedAt
	case KindLocation:
		return i.location.SavedAt
	}
	return time.Time{}
}

// Category returns the grouping label used by category filters.
func (i Item) Category() string {
	switch i.kind {
	case KindReceipt:
		return i.receipt.Category
	case KindEmail:
		if i.email.Folder != "" {
			return i.email.Folder
		}
		return "inbox"
	case KindTask:
		if len(i.task.Tags) > 0 {
			return i.task.Tags[0]
		}
		return "task"
	case KindNote:
		return i.note.Folder
	case KindLocation:
		return i.location.Category
	}
	return ""
}

// Amount returns the monetary amount. Non-monetary kinds return 0.
func (i Item) Amount() float64 {
	if i.kind == KindReceipt {
		return i.receipt.Amount
	}
	return 0
}

// Status returns the record status, evaluating task lateness against now.
func (i Item) Status() string {
	return i.StatusAt(time.Now())
}

// StatusAt returns the record status, evaluating task lateness against ref.
func (i Item) StatusAt(ref time.Time) string {
	switch i.kind {
	case KindReceipt:
		return "paid"
	case KindEmail:
		switch {
		case i.email.IsImportant:
			return "important"
		case i.email.IsRead:
			return "read"
		default:
			return "unread"
		}
	case KindTask:
		if i.task.IsCompleted {
			return "completed"
		}
		if d, ok := i.task.EffectiveDate(); ok && d.Before(ref) {
			return "overdue"
		}
		return "pending"
	case KindNote:
		return "active"
	case KindLocation:
		return "saved"
	}
	return ""
}

// MerchantName returns the display name used by merchant filters.
func (i Item) MerchantName() string {
	switch i.kind {
	case KindReceipt:
		return i.receipt.Merchant
	case KindEmail:
		return i.email.Sender
	case KindLocation:
		return i.location.Name
	case KindTask, KindNote:
		return ""
	}
	return ""
}

// SearchableText returns the lowercased text used by text search.
func (i Item) SearchableText() string {
	var parts []string
	switch i.kind {
	case KindReceipt:
		parts = append([]string{i.receipt.Merchant, i.receipt.Category, i.receipt.Notes}, i.receipt.LineItems...)
	case KindEmail:
		parts = []string{i.email.Subject, i.email.Sender, i.email.Body}
	case KindTask:
		parts = append([]string{i.task.Title, i.task.Description}, i.task.Tags...)
	case KindNote:
		parts = []string{i.note.Title, i.note.Content, i.note.Folder}
	case KindLocation:
		parts = []string{i.location.Name, i.location.Category, i.location.Address, i.location.City}
	}

	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.ToLower(strings.Join(nonEmpty, " "))
}
