package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/calldesk/internal/phonenum"
	"github.com/rpggio/calldesk/internal/repository"
	"go.uber.org/zap"
)

const defaultImportTimeout = 2 * time.Minute

// Service handles contact business logic. Reads are served from a cache of
// the whole table; every successful write invalidates it once.
type Service struct {
	contacts Repository
	cache    *Cache
	logger   *zap.Logger

	// writeMu serializes writers so conflict checks and the write that
	// follows them observe the same table.
	writeMu sync.Mutex

	importTimeout time.Duration
	jobs          *jobRegistry
	importsWG     sync.WaitGroup
}

// NewService creates a new contact service.
func NewService(contacts Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		contacts:      contacts,
		cache:         NewCache(),
		logger:        logger,
		importTimeout: defaultImportTimeout,
		jobs:          newJobRegistry(),
	}
}

// SetImportTimeout bounds each background import.
func (s *Service) SetImportTimeout(d time.Duration) {
	if d > 0 {
		s.importTimeout = d
	}
}

// List returns every contact in table order.
func (s *Service) List(ctx context.Context) ([]Contact, error) {
	rows, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Contact, 0, len(rows))
	for _, c := range rows {
		out = append(out, c.Clone())
	}
	return out, nil
}

// Get returns a contact by id.
func (s *Service) Get(ctx context.Context, id string) (*Contact, error) {
	rows, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range rows {
		if c.ID == id {
			found := c.Clone()
			return &found, nil
		}
	}
	return nil, ErrContactNotFound
}

// Search filters the cached contacts by a free-text query and status.
func (s *Service) Search(ctx context.Context, opts SearchOptions) ([]Contact, error) {
	rows, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(strings.TrimSpace(opts.Query))
	queryDigits := phonenum.Digits(query)
	out := make([]Contact, 0)
	skipped := 0
	for _, c := range rows {
		if opts.Status != "" && c.Status != opts.Status {
			continue
		}
		if query != "" && !matches(c, query, queryDigits) {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		out = append(out, c.Clone())
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

func matches(c Contact, query, queryDigits string) bool {
	fields := []string{
		c.FirstName,
		c.LastName,
		c.FirstName + " " + c.LastName,
		stringValue(c.Email),
		c.Comment,
		c.Source,
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	if len(strings.TrimPrefix(queryDigits, "+")) >= 3 && c.PhoneNumber != nil {
		return strings.Contains(phonenum.Digits(*c.PhoneNumber), strings.TrimPrefix(queryDigits, "+"))
	}
	return false
}

// Create validates and stores a new contact.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Contact, error) {
	c, err := newContact(req)
	if err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.checkConflicts(ctx, c, ""); err != nil {
		return nil, err
	}
	if _, err := s.contacts.FindByName(ctx, c.FirstName, c.LastName); err == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrConflict, c.FirstName, c.LastName)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: checking name: %w", ErrStorageRead, err)
	}

	if err := s.contacts.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("%w: creating contact: %w", ErrStorageWrite, err)
	}
	s.cache.Invalidate()

	s.logger.Info("contact created", zap.String("contact_id", c.ID))
	created := c.Clone()
	return &created, nil
}

// Update applies a partial update. An empty patch returns the stored
// contact without writing.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*Contact, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.contacts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("%w: loading contact: %w", ErrStorageRead, err)
	}
	if patch.IsEmpty() {
		return current, nil
	}

	previousEmail := stringValue(current.Email)
	updated := current.Clone()
	if err := patch.apply(&updated); err != nil {
		return nil, err
	}
	normalizeContact(&updated)

	if email := stringValue(updated.Email); email != "" && email != previousEmail {
		if err := s.checkConflicts(ctx, &updated, updated.ID); err != nil {
			return nil, err
		}
	}

	if err := s.contacts.Update(ctx, &updated); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrContactNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("%w: updating contact: %w", ErrStorageWrite, err)
	}
	s.cache.Invalidate()

	s.logger.Debug("contact updated", zap.String("contact_id", id))
	return &updated, nil
}

// Delete removes one contact.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.contacts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrContactNotFound
		}
		return fmt.Errorf("%w: deleting contact: %w", ErrStorageWrite, err)
	}
	s.cache.Invalidate()

	s.logger.Info("contact deleted", zap.String("contact_id", id))
	return nil
}

// DeleteAll wipes the table. Wiping an empty table succeeds.
func (s *Service) DeleteAll(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.contacts.DeleteAll(ctx); err != nil {
		return fmt.Errorf("%w: deleting contacts: %w", ErrStorageWrite, err)
	}
	s.cache.Invalidate()

	s.logger.Info("all contacts deleted")
	return nil
}

func (s *Service) snapshot(ctx context.Context) ([]Contact, error) {
	rows, err := s.cache.GetOrLoad(ctx, s.contacts.List)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	return rows, nil
}

// checkConflicts looks for another contact holding c's email. It reads the
// durable table, not the cache.
func (s *Service) checkConflicts(ctx context.Context, c *Contact, selfID string) error {
	email := stringValue(c.Email)
	if email == "" {
		return nil
	}
	existing, err := s.contacts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%w: checking email: %w", ErrStorageRead, err)
	}
	if existing.ID != selfID {
		return fmt.Errorf("%w: email %s", ErrConflict, email)
	}
	return nil
}

func newContact(req CreateRequest) (*Contact, error) {
	c := &Contact{
		ID:              uuid.NewString(),
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		Status:          req.Status,
		Comment:         req.Comment,
		ReminderDate:    req.ReminderDate,
		ReminderTime:    req.ReminderTime,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		Source:          req.Source,
	}
	if c.FirstName == "" || c.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	normalizeContact(c)
	return c, nil
}

func normalizeContact(c *Contact) {
	c.PhoneNumber = phonenum.NormalizePtr(c.PhoneNumber)
	if c.Email != nil {
		email := strings.TrimSpace(*c.Email)
		if email == "" {
			c.Email = nil
		} else {
			c.Email = &email
		}
	}
}
