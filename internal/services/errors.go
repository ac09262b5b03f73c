// Package services defines the business logic for scooter intake and
// reporting. This file centralizes service-level error values so that they
// can be consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed by
// the transport layers (bot, http).
package services

import "errors"

var (
	// ErrInvalidArgs is returned for malformed or out-of-range arguments,
	// e.g. an unparsable date or an empty identifier.
	ErrInvalidArgs = errors.New("invalid arguments")

	// ErrNoRecords indicates that a lookup or delete matched nothing.
	ErrNoRecords = errors.New("no matching records")

	// ErrDuplicateUpdate is returned when an inbound event was already handled.
	ErrDuplicateUpdate = errors.New("update already processed")
)
