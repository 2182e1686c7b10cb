package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"rocr/backend/internal/contact/domain"
	"rocr/backend/internal/platform/sanitize"
)

const contactSelect = `SELECT c.id, c.name, c.email, c.subject, c.message, c.source, c.status,
	c.assigned_to_id, c.notes, c.replied_at, c.created_at, c.updated_at,
	u.id, u.name, u.email, u.avatar_url
	FROM contacts c LEFT JOIN users u ON u.id = c.assigned_to_id`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a contact repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the contact. The contact must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Contact) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO contacts
		(id, name, email, subject, message, source, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Name, c.Email, c.Subject, c.Message, c.Source, string(c.Status), c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// GetByID returns the contact for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	c, err := scanContact(r.db.QueryRowContext(ctx, contactSelect+` WHERE c.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// List returns contacts matching f ordered by created_at descending.
func (r *PostgresRepository) List(ctx context.Context, f domain.Filter) ([]*domain.Contact, int, error) {
	where, args := filterClause(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts c`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := contactSelect + where + ` ORDER BY c.created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		q += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []*domain.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// Update writes the mutable triage columns of c.
func (r *PostgresRepository) Update(ctx context.Context, c *domain.Contact) error {
	_, err := r.db.ExecContext(ctx, `UPDATE contacts SET
		status = $2, assigned_to_id = $3, notes = $4, replied_at = $5, updated_at = $6
		WHERE id = $1`,
		c.ID, string(c.Status), nullString(c.AssignedToID), nullString(c.Notes), nullTime(c.RepliedAt), c.UpdatedAt,
	)
	return err
}

// Delete removes the contact with id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Stats counts contacts per status.
func (r *PostgresRepository) Stats(ctx context.Context) (domain.Stats, error) {
	var st domain.Stats
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM contacts GROUP BY status`)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status domain.Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return st, err
		}
		st.Add(status, n)
	}
	return st, rows.Err()
}

// filterClause builds the WHERE clause for f. Search terms are LIKE-escaped and
// matched case-insensitively against name, email and subject.
func filterClause(f domain.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, `c.status = $`+strconv.Itoa(len(args)))
	}
	if f.AssignedToID != "" {
		args = append(args, f.AssignedToID)
		conds = append(conds, `c.assigned_to_id = $`+strconv.Itoa(len(args)))
	}
	if f.Search != "" {
		args = append(args, sanitize.LikePattern(f.Search))
		n := `$` + strconv.Itoa(len(args))
		conds = append(conds, `(c.name ILIKE `+n+` OR c.email ILIKE `+n+` OR c.subject ILIKE `+n+`)`)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conds, ` AND `), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*domain.Contact, error) {
	var (
		c                           domain.Contact
		assignedTo, notes           sql.NullString
		repliedAt                   sql.NullTime
		uID, uName, uEmail, uAvatar sql.NullString
	)
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.Source, &c.Status,
		&assignedTo, &notes, &repliedAt, &c.CreatedAt, &c.UpdatedAt,
		&uID, &uName, &uEmail, &uAvatar)
	if err != nil {
		return nil, err
	}
	if assignedTo.Valid {
		c.AssignedToID = &assignedTo.String
	}
	if notes.Valid {
		c.Notes = &notes.String
	}
	if repliedAt.Valid {
		c.RepliedAt = &repliedAt.Time
	}
	if uID.Valid {
		a := &domain.Assignee{ID: uID.String, Name: uName.String, Email: uEmail.String}
		if uAvatar.Valid {
			a.AvatarURL = &uAvatar.String
		}
		c.AssignedTo = a
	}
	return &c, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
