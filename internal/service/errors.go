package service

import "errors"

var (
	// ErrNotFound is returned when the requested entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied is returned when the principal may not see or act on
	// the entity at all (before any workflow guard runs)
	ErrAccessDenied = errors.New("access denied")

	// ErrAuditPersist is returned when the place change was applied in
	// memory but the audit trail could not be durably saved; the whole
	// transaction is rolled back and the caller must reload the subject.
	ErrAuditPersist = errors.New("audit trail persistence failed")
)
