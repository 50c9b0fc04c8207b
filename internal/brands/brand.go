// Package brands implements the brand domain for Prism.
// A brand carries the entity vocabulary (name, products, websites) that the
// scoring pipeline matches against answer text, plus the per-brand backend
// safety flag maintained by the circuit breaker.
package brands

import (
	"github.com/google/uuid"
)

// Brand represents a tracked brand and its matching vocabulary.
type Brand struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Name       string    `json:"name"`
	Products   []string  `json:"products"`
	Websites   []string  `json:"websites"`
	// SerializedDisabled is set by the circuit breaker after repeated
	// serialized-backend failures. Cleared manually or via Enable.
	SerializedDisabled bool `json:"serialized_disabled"`
}
