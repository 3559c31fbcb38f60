package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/contactbook/contactbook-go/internal/model"
)

var ErrContactNotFound = errors.New("contact not found")

const contactColumns = `id, user_id, first_name, last_name, email, phone_number, birthday, notes, created_at, updated_at`

// ContactRepository handles contact persistence operations. Every query is
// scoped by the owning user ID, so a contact can never be read or mutated
// through another user's requests.
type ContactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new ContactRepository.
func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create inserts a new contact and sets the generated ID on the contact struct.
func (r *ContactRepository) Create(ctx context.Context, contact *model.Contact) error {
	query := `INSERT INTO contacts (user_id, first_name, last_name, email, phone_number, birthday, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		contact.UserID, contact.FirstName, contact.LastName, contact.Email,
		contact.PhoneNumber, nullTime(contact.Birthday), contact.Notes,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	contact.ID = id
	return nil
}

// GetByID retrieves a contact by ID, scoped to the owning user.
func (r *ContactRepository) GetByID(ctx context.Context, userID, contactID int64) (*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = ? AND user_id = ?`

	contact, err := scanContact(r.db.QueryRowContext(ctx, query, contactID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}

	return contact, nil
}

// ListByUser retrieves a page of the user's contacts ordered by last name.
func (r *ContactRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE user_id = ?
		ORDER BY last_name, first_name LIMIT ? OFFSET ?`

	return r.queryContacts(ctx, query, userID, limit, offset)
}

// Update replaces the mutable fields of a contact, scoped to the owning user.
func (r *ContactRepository) Update(ctx context.Context, contact *model.Contact) error {
	query := `UPDATE contacts SET first_name = ?, last_name = ?, email = ?, phone_number = ?, birthday = ?, notes = ?
		WHERE id = ? AND user_id = ?`

	_, err := r.db.ExecContext(ctx, query,
		contact.FirstName, contact.LastName, contact.Email, contact.PhoneNumber,
		nullTime(contact.Birthday), contact.Notes, contact.ID, contact.UserID,
	)
	return err
}

// Delete permanently removes a contact, scoped to the owning user.
func (r *ContactRepository) Delete(ctx context.Context, userID, contactID int64) error {
	query := `DELETE FROM contacts WHERE id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, contactID, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrContactNotFound
	}

	return nil
}

// Search retrieves the user's contacts whose first name, last name or email
// contains the query as a substring. Matching is case-insensitive under the
// usual MySQL collations.
func (r *ContactRepository) Search(ctx context.Context, userID int64, query string) ([]model.Contact, error) {
	stmt := `SELECT ` + contactColumns + ` FROM contacts
		WHERE user_id = ? AND (first_name LIKE ? OR last_name LIKE ? OR email LIKE ?)
		ORDER BY last_name, first_name`

	pattern := "%" + query + "%"
	return r.queryContacts(ctx, stmt, userID, pattern, pattern, pattern)
}

// ListWithBirthdays retrieves all of the user's contacts that have a birthday
// on record. Window filtering happens in the service layer, which handles
// year wrap-around correctly.
func (r *ContactRepository) ListWithBirthdays(ctx context.Context, userID int64) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE user_id = ? AND birthday IS NOT NULL`

	return r.queryContacts(ctx, query, userID)
}

func (r *ContactRepository) queryContacts(ctx context.Context, query string, args ...any) ([]model.Contact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *contact)
	}

	return contacts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*model.Contact, error) {
	contact := &model.Contact{}
	var birthday sql.NullTime
	var notes sql.NullString

	err := row.Scan(
		&contact.ID, &contact.UserID, &contact.FirstName, &contact.LastName,
		&contact.Email, &contact.PhoneNumber, &birthday, &notes,
		&contact.CreatedAt, &contact.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if birthday.Valid {
		t := birthday.Time
		contact.Birthday = &t
	}
	contact.Notes = notes.String
	return contact, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
