/*
errors.go - Sentinel errors for the tracker

PURPOSE:
  All shared error values in one place. Packages wrap these with context
  (fmt.Errorf("...: %w", err)) and callers test with errors.Is.

ERROR CATEGORIES:
  1. Lookup errors - a referenced record does not exist
  2. Input errors  - a value could not be interpreted (week strings, kinds)
  3. Sync errors   - the remote side asked to retry later

  Form validation is not represented here. It happens before requests
  reach the data layer (see api/dto.go).

SEE ALSO:
  - csvcodec/codec.go: ParseError for strict CSV imports
  - cache/cache.go:    ErrSyncDeferred usage
*/
package model

import "errors"

var (
	// ErrEmployeeNotFound is returned by facade operations that need an
	// existing employee. Stores themselves report absence as (nil, nil).
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrKPINotFound is the KPI counterpart of ErrEmployeeNotFound.
	ErrKPINotFound = errors.New("kpi not found")

	// ErrWeeklyEntryNotFound is the weekly entry counterpart.
	ErrWeeklyEntryNotFound = errors.New("weekly entry not found")

	// ErrInvalidWeek is returned when a week string is not YYYY-Www.
	ErrInvalidWeek = errors.New("invalid ISO week")

	// ErrUnknownKind is returned for an unrecognised CSV entity kind.
	ErrUnknownKind = errors.New("unknown entity kind")

	// ErrSyncDeferred means the sync provider accepted nothing and the
	// pending queue was kept for a later attempt.
	ErrSyncDeferred = errors.New("sync deferred")
)

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrKPINotFound) ||
		errors.Is(err, ErrWeeklyEntryNotFound)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidWeek) || errors.Is(err, ErrUnknownKind)
}
