package memrepo

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"

	"rocr/backend/internal/contact/domain"
	"rocr/backend/internal/db"
)

// Contacts is an in-memory contact repository. When users is set, assignees are resolved from it.
type Contacts struct {
	mu    sync.Mutex
	byID  map[string]domain.Contact
	users *Users
}

// NewContacts returns an empty Contacts repository. users may be nil.
func NewContacts(users *Users) *Contacts {
	return &Contacts{byID: make(map[string]domain.Contact), users: users}
}

func (r *Contacts) Create(_ context.Context, c *domain.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[c.ID] = *c
	return nil
}

func (r *Contacts) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	r.mu.Lock()
	c, ok := r.byID[id]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return r.withAssignee(ctx, c), nil
}

func (r *Contacts) List(ctx context.Context, f domain.Filter) ([]*domain.Contact, int, error) {
	r.mu.Lock()
	var matched []domain.Contact
	for _, c := range r.byID {
		if matches(c, f) {
			matched = append(matched, c)
		}
	}
	r.mu.Unlock()
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := len(matched)
	if f.Offset > len(matched) {
		matched = nil
	} else {
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	out := make([]*domain.Contact, 0, len(matched))
	for _, c := range matched {
		out = append(out, r.withAssignee(ctx, c))
	}
	return out, total, nil
}

func (r *Contacts) Update(_ context.Context, c *domain.Contact) error {
	if c.AssignedToID != nil && r.users != nil {
		if u, _ := r.users.GetByID(context.Background(), *c.AssignedToID); u == nil {
			return &pgconn.PgError{Code: db.ForeignKeyViolation, ConstraintName: "contacts_assigned_to_id_fkey"}
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; ok {
		stored := *c
		stored.AssignedTo = nil
		r.byID[c.ID] = stored
	}
	return nil
}

func (r *Contacts) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byID[id]
	delete(r.byID, id)
	return ok, nil
}

func (r *Contacts) Stats(_ context.Context) (domain.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var st domain.Stats
	for _, c := range r.byID {
		st.Add(c.Status, 1)
	}
	return st, nil
}

func (r *Contacts) withAssignee(ctx context.Context, c domain.Contact) *domain.Contact {
	if c.AssignedToID == nil || r.users == nil {
		return &c
	}
	if u, _ := r.users.GetByID(ctx, *c.AssignedToID); u != nil {
		c.AssignedTo = &domain.Assignee{ID: u.ID, Name: u.Name, Email: u.Email, AvatarURL: u.AvatarURL}
	}
	return &c
}

func matches(c domain.Contact, f domain.Filter) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.AssignedToID != "" && (c.AssignedToID == nil || *c.AssignedToID != f.AssignedToID) {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(c.Name), term) &&
			!strings.Contains(strings.ToLower(c.Email), term) &&
			!strings.Contains(strings.ToLower(c.Subject), term) {
			return false
		}
	}
	return true
}
