package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/calldesk/internal/domain/contact"
	"github.com/rpggio/calldesk/internal/repository"
)

const contactColumns = `
	id, first_name, last_name, email, phone_number, status, comment,
	reminder_date, reminder_time, appointment_date, appointment_time,
	call_date, call_time, call_duration, call_start_time, source, in_call`

const insertContact = `
	INSERT INTO contacts (` + contactColumns + `)
	VALUES (
		:id, :first_name, :last_name, :email, :phone_number, :status, :comment,
		:reminder_date, :reminder_time, :appointment_date, :appointment_time,
		:call_date, :call_time, :call_duration, :call_start_time, :source, :in_call
	)`

// contactRow mirrors the contacts table. Nullable columns map to absent
// values on the domain type.
type contactRow struct {
	ID              string         `db:"id"`
	FirstName       string         `db:"first_name"`
	LastName        string         `db:"last_name"`
	Email           sql.NullString `db:"email"`
	PhoneNumber     sql.NullString `db:"phone_number"`
	Status          sql.NullString `db:"status"`
	Comment         sql.NullString `db:"comment"`
	ReminderDate    sql.NullString `db:"reminder_date"`
	ReminderTime    sql.NullString `db:"reminder_time"`
	AppointmentDate sql.NullString `db:"appointment_date"`
	AppointmentTime sql.NullString `db:"appointment_time"`
	CallDate        sql.NullString `db:"call_date"`
	CallTime        sql.NullString `db:"call_time"`
	CallDuration    sql.NullString `db:"call_duration"`
	CallStartTime   sql.NullString `db:"call_start_time"`
	Source          sql.NullString `db:"source"`
	InCall          bool           `db:"in_call"`
}

// ContactRepository implements contact.Repository for SQLite
type ContactRepository struct {
	db *DB
}

// NewContactRepository creates a new ContactRepository
func NewContactRepository(db *DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// List loads the whole table in insertion order
func (r *ContactRepository) List(ctx context.Context) ([]contact.Contact, error) {
	var rows []contactRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+contactColumns+` FROM contacts ORDER BY rowid`); err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	out := make([]contact.Contact, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toContact())
	}
	return out, nil
}

// Get retrieves a contact by ID
func (r *ContactRepository) Get(ctx context.Context, id string) (*contact.Contact, error) {
	return r.getOne(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
}

// FindByEmail retrieves the contact holding email
func (r *ContactRepository) FindByEmail(ctx context.Context, email string) (*contact.Contact, error) {
	return r.getOne(ctx, `SELECT `+contactColumns+` FROM contacts WHERE email = ? LIMIT 1`, email)
}

// FindByName retrieves the first contact with the given name pair
func (r *ContactRepository) FindByName(ctx context.Context, firstName, lastName string) (*contact.Contact, error) {
	return r.getOne(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE first_name = ? AND last_name = ? ORDER BY rowid LIMIT 1`,
		firstName, lastName)
}

func (r *ContactRepository) getOne(ctx context.Context, query string, args ...any) (*contact.Contact, error) {
	var row contactRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	c := row.toContact()
	return &c, nil
}

// Create inserts a new contact
func (r *ContactRepository) Create(ctx context.Context, c *contact.Contact) error {
	if _, err := r.db.NamedExecContext(ctx, insertContact, fromContact(c)); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// Update rewrites every column of an existing contact
func (r *ContactRepository) Update(ctx context.Context, c *contact.Contact) error {
	query := `
		UPDATE contacts SET
			first_name = :first_name,
			last_name = :last_name,
			email = :email,
			phone_number = :phone_number,
			status = :status,
			comment = :comment,
			reminder_date = :reminder_date,
			reminder_time = :reminder_time,
			appointment_date = :appointment_date,
			appointment_time = :appointment_time,
			call_date = :call_date,
			call_time = :call_time,
			call_duration = :call_duration,
			call_start_time = :call_start_time,
			source = :source,
			in_call = :in_call,
			modified_at = CURRENT_TIMESTAMP
		WHERE id = :id
	`

	result, err := r.db.NamedExecContext(ctx, query, fromContact(c))
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return requireAffected(result)
}

// Delete removes a contact by ID
func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return requireAffected(result)
}

// DeleteAll empties the table
func (r *ContactRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM contacts`); err != nil {
		return fmt.Errorf("failed to delete contacts: %w", err)
	}
	return nil
}

// ReplaceAll swaps the table contents in a single transaction
func (r *ContactRepository) ReplaceAll(ctx context.Context, contacts []contact.Contact) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM contacts`); err != nil {
		return fmt.Errorf("failed to clear contacts: %w", err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, insertContact)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range contacts {
		if _, err := stmt.ExecContext(ctx, fromContact(&contacts[i])); err != nil {
			if isUniqueViolation(err) {
				return repository.ErrConflict
			}
			return fmt.Errorf("failed to insert contact %s: %w", contacts[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit contacts: %w", err)
	}
	return nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (row contactRow) toContact() contact.Contact {
	return contact.Contact{
		ID:              row.ID,
		FirstName:       row.FirstName,
		LastName:        row.LastName,
		Email:           optional(row.Email),
		PhoneNumber:     optional(row.PhoneNumber),
		Status:          row.Status.String,
		Comment:         row.Comment.String,
		ReminderDate:    optional(row.ReminderDate),
		ReminderTime:    optional(row.ReminderTime),
		AppointmentDate: optional(row.AppointmentDate),
		AppointmentTime: optional(row.AppointmentTime),
		CallDate:        optional(row.CallDate),
		CallTime:        optional(row.CallTime),
		CallDuration:    optional(row.CallDuration),
		CallStartTime:   optional(row.CallStartTime),
		Source:          row.Source.String,
		InCall:          row.InCall,
	}
}

func fromContact(c *contact.Contact) contactRow {
	return contactRow{
		ID:              c.ID,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		Email:           nullable(c.Email),
		PhoneNumber:     nullable(c.PhoneNumber),
		Status:          text(c.Status),
		Comment:         text(c.Comment),
		ReminderDate:    nullable(c.ReminderDate),
		ReminderTime:    nullable(c.ReminderTime),
		AppointmentDate: nullable(c.AppointmentDate),
		AppointmentTime: nullable(c.AppointmentTime),
		CallDate:        nullable(c.CallDate),
		CallTime:        nullable(c.CallTime),
		CallDuration:    nullable(c.CallDuration),
		CallStartTime:   nullable(c.CallStartTime),
		Source:          text(c.Source),
		InCall:          c.InCall,
	}
}

func optional(v sql.NullString) *string {
	if !v.Valid || v.String == "" {
		return nil
	}
	s := v.String
	return &s
}

func nullable(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func text(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
