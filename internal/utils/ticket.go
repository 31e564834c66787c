package utils

import (
	"strings"

	"github.com/google/uuid"
)

// TicketCodePrefix starts every generated ticket code.
const TicketCodePrefix = "EVT-"

// NewTicketCode returns a ticket code such as EVT-1A2B3C4D built from the
// first eight hex characters of a random UUID.
func NewTicketCode() string {
	return TicketCodePrefix + strings.ToUpper(uuid.NewString()[:8])
}
