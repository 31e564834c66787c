package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/eventify/ticketing/internal/model"
)

// Sentinel errors. Every failed call unwraps to exactly one of them, so
// callers branch with errors.Is and show APIError.Error() to the user.
var (
	ErrNetwork           = errors.New("network failure")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failure")
	ErrSoldOut           = fmt.Errorf("%w: sold out", ErrValidation)
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrAlreadyProcessed  = errors.New("already processed")
	ErrConflict          = errors.New("conflict")
	ErrRateLimited       = errors.New("rate limited")
	ErrServer            = errors.New("server error")
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError is a non-2xx reply. Message is the server's text, unchanged.
type APIError struct {
	Status  int
	Code    string
	Message string
	// Item is the entity the server attached to the error, if any.
	Item json.RawMessage

	kind error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status))
}

func (e *APIError) Unwrap() error { return e.kind }

// newAPIError builds the error for a non-2xx reply. The code field wins
// over the status so a 409 can be told apart as sold out, already used or
// a plain conflict.
func newAPIError(status int, raw []byte) *APIError {
	e := &APIError{Status: status}
	var body model.ErrorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		e.Code = body.Code
		e.Message = body.Error
		e.Item = body.Item
	}
	e.kind = classify(status, e.Code)
	return e
}

func classify(status int, code string) error {
	switch code {
	case model.CodeValidation:
		return ErrValidation
	case model.CodeSoldOut:
		return ErrSoldOut
	case model.CodeUnauthorized:
		return ErrUnauthorized
	case model.CodeForbidden:
		return ErrForbidden
	case model.CodeNotFound:
		return ErrNotFound
	case model.CodeAlreadyCheckedIn:
		return ErrAlreadyProcessed
	case model.CodeConflict:
		return ErrConflict
	case model.CodeRateLimited:
		return ErrRateLimited
	}
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	return ErrServer
}
