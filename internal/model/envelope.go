package model

import "encoding/json"

// Machine readable error codes sent in the "code" field of error bodies.
const (
	CodeValidation       = "validation"
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeNotFound         = "not_found"
	CodeSoldOut          = "sold_out"
	CodeAlreadyCheckedIn = "already_checked_in"
	CodeConflict         = "conflict"
	CodeRateLimited      = "rate_limited"
	CodeInternal         = "internal"
)

// ErrorBody is the JSON body of every non-2xx response. Item optionally
// carries the entity the error refers to, such as the booking of an
// already used ticket.
type ErrorBody struct {
	Error string          `json:"error"`
	Code  string          `json:"code"`
	Item  json.RawMessage `json:"item,omitempty"`
}
