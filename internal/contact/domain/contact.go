package domain

import "time"

// Status is the triage state of a contact submission.
type Status string

const (
	StatusUnread     Status = "unread"
	StatusRead       Status = "read"
	StatusInProgress Status = "in_progress"
	StatusReplied    Status = "replied"
	StatusArchived   Status = "archived"
)

// DefaultSource is recorded when a submission does not name its form.
const DefaultSource = "landing-contact-form"

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusUnread, StatusRead, StatusInProgress, StatusReplied, StatusArchived:
		return true
	}
	return false
}

// Assignee is the public view of the user a contact is assigned to.
type Assignee struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatarUrl"`
}

// Contact is a message submitted through a public contact form.
type Contact struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Subject      string     `json:"subject"`
	Message      string     `json:"message"`
	Source       string     `json:"source"`
	Status       Status     `json:"status"`
	AssignedToID *string    `json:"assignedToId"`
	AssignedTo   *Assignee  `json:"assignedTo,omitempty"`
	Notes        *string    `json:"notes"`
	RepliedAt    *time.Time `json:"repliedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Filter selects a page of contacts. Zero values do not filter.
type Filter struct {
	Status       Status
	AssignedToID string
	Search       string
	Limit        int
	Offset       int
}

// Stats counts contacts by status.
type Stats struct {
	Total      int `json:"total"`
	Unread     int `json:"unread"`
	Read       int `json:"read"`
	InProgress int `json:"inProgress"`
	Replied    int `json:"replied"`
	Archived   int `json:"archived"`
}

// Add counts n contacts with status s.
func (st *Stats) Add(s Status, n int) {
	st.Total += n
	switch s {
	case StatusUnread:
		st.Unread += n
	case StatusRead:
		st.Read += n
	case StatusInProgress:
		st.InProgress += n
	case StatusReplied:
		st.Replied += n
	case StatusArchived:
		st.Archived += n
	}
}
