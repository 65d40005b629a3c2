package domain

import "errors"

// Error taxonomy shared by the REST API and the realtime channel. Handlers
// map these with errors.Is; everything else is treated as internal.
var (
	// ErrUnauthenticated means no identity or an invalid token.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means a valid identity that is not a party to the
	// entity or not permitted the role.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound covers both a missing entity and an entity not in the
	// state an operation requires. The two are deliberately not
	// distinguished so a losing broker learns nothing about the row.
	ErrNotFound = errors.New("not found")

	// ErrConflict is a state or uniqueness violation: duplicate interest,
	// losing a claim race, property already sold, lock wait timeout.
	ErrConflict = errors.New("conflict")
)
