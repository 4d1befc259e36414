package model

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the isolation boundary: every product, user and sale belongs to
// exactly one tenant.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Domain    string    `json:"domain"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
