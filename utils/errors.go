package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Error taxonomy for the enrollment core. Controllers map these onto HTTP
// statuses via Fail; everything else in the codebase returns them as plain
// errors.

// ValidationError: malformed input, operation not attempted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError: duplicate active enrollment, duplicate contact email.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// StateError: operation invalid for the entity's current state.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

// NotFoundError: unknown id, or an id outside the caller's workspace. The
// two cases are indistinguishable on purpose so cross-tenant probes can't
// learn whether a row exists.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// TransportError: the email transport failed. Recorded on the OutboundEmail,
// never rolls back enrollment state.
type TransportError struct {
	Message string
	Err     error
}

func (e *TransportError) Error() string { return e.Message }
func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatus maps a taxonomy error to its response status.
func HTTPStatus(err error) int {
	var (
		ve *ValidationError
		ce *ConflictError
		se *StateError
		ne *NotFoundError
		te *TransportError
	)
	switch {
	case errors.As(err, &ve):
		return fiber.StatusBadRequest
	case errors.As(err, &ce):
		return fiber.StatusConflict
	case errors.As(err, &se):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &ne):
		return fiber.StatusNotFound
	case errors.As(err, &te):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// Fail writes the standard error envelope for a taxonomy error.
func Fail(c *fiber.Ctx, err error) error {
	return ErrorResponse(c, HTTPStatus(err), err.Error())
}

// ErrorResponse writes the standard error envelope: a JSON body with a
// single detail string.
func ErrorResponse(c *fiber.Ctx, status int, detail string) error {
	return c.Status(status).JSON(fiber.Map{
		"detail": detail,
	})
}
