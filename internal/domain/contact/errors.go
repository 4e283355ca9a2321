package contact

import "errors"

var (
	// ErrContactNotFound indicates the contact doesn't exist.
	ErrContactNotFound = errors.New("contact not found")
	// ErrConflict indicates another contact already holds the email or name pair.
	ErrConflict = errors.New("contact already exists")
	// ErrInvalidInput indicates invalid input for contact operations.
	ErrInvalidInput = errors.New("invalid contact input")
	// ErrStorageRead indicates the contact table could not be read.
	ErrStorageRead = errors.New("contact storage read failed")
	// ErrStorageWrite indicates the contact table could not be written.
	ErrStorageWrite = errors.New("contact storage write failed")
	// ErrImportNotFound indicates an unknown import job id.
	ErrImportNotFound = errors.New("import job not found")
)
