package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rocr/backend/internal/contact/domain"
	"rocr/backend/internal/contact/repository"
	"rocr/backend/internal/db"
	"rocr/backend/internal/platform/sanitize"
)

var (
	// ErrNotFound is returned when no contact has the requested id.
	ErrNotFound = errors.New("contact not found")
	// ErrAssigneeNotFound is returned when an update assigns a user that does not exist.
	ErrAssigneeNotFound = errors.New("assigned user not found")
)

// SubmitInput is a public contact form submission.
type SubmitInput struct {
	Name    string
	Email   string
	Subject string
	Message string
	Source  string
}

// UpdateInput is a partial triage update. Set* selects a nullable field; a nil value clears it.
type UpdateInput struct {
	Status          *domain.Status
	SetAssignedToID bool
	AssignedToID    *string
	SetNotes        bool
	Notes           *string
}

// Page is one page of a contact listing.
type Page struct {
	Items      []*domain.Contact
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// ContactService implements contact form intake and triage.
type ContactService struct {
	repo repository.Repository
	now  func() time.Time
}

// NewContactService returns a ContactService.
func NewContactService(repo repository.Repository) *ContactService {
	return &ContactService{repo: repo, now: time.Now}
}

// Submit stores a sanitized submission with status unread.
func (s *ContactService) Submit(ctx context.Context, in SubmitInput) (*domain.Contact, error) {
	source := in.Source
	if source == "" {
		source = domain.DefaultSource
	}
	now := s.now().UTC()
	c := &domain.Contact{
		ID:        uuid.New().String(),
		Name:      sanitize.Text(in.Name),
		Email:     sanitize.Email(in.Email),
		Subject:   sanitize.Text(in.Subject),
		Message:   sanitize.Text(in.Message),
		Source:    sanitize.Text(source),
		Status:    domain.StatusUnread,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns page (1-based) of contacts matching f, perPage per page.
func (s *ContactService) List(ctx context.Context, f domain.Filter, page, perPage int) (*Page, error) {
	f.Limit = perPage
	f.Offset = (page - 1) * perPage
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Page{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// Get returns the contact with id or ErrNotFound.
func (s *ContactService) Get(ctx context.Context, id string) (*domain.Contact, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// Update applies in. RepliedAt is stamped when the status first moves to replied.
func (s *ContactService) Update(ctx context.Context, id string, in UpdateInput) (*domain.Contact, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if in.Status != nil {
		if *in.Status == domain.StatusReplied && c.Status != domain.StatusReplied {
			c.RepliedAt = &now
		}
		c.Status = *in.Status
	}
	if in.SetAssignedToID {
		c.AssignedToID = in.AssignedToID
	}
	if in.SetNotes {
		c.Notes = in.Notes
	}
	c.UpdatedAt = now
	if err := s.repo.Update(ctx, c); err != nil {
		if in.SetAssignedToID && db.IsForeignKeyViolation(err) {
			return nil, ErrAssigneeNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the contact with id.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Stats counts contacts by status.
func (s *ContactService) Stats(ctx context.Context) (domain.Stats, error) {
	return s.repo.Stats(ctx)
}
