package usage

import (
	"fmt"
	"strings"

	internal_errors "github.com/edufly-cloud/edufly/internal/errors"
)

const TypeAiTokens string = "ai_tokens"

// Usage is a monotonically increasing counter keyed by (user, type). It is
// only ever mutated by additive increments.
type Usage struct {
	UserId string `json:"userId"`
	Type   string `json:"type"`
	Value  int64  `json:"value"`
}

type IncrementRequest struct {
	UserId     string `json:"userId"`
	Type       string `json:"type"`
	Increments int64  `json:"increments"`
}

func (ir *IncrementRequest) Validate() error {
	invalid := []string{}

	if len(strings.TrimSpace(ir.UserId)) == 0 {
		invalid = append(invalid, "userId")
	}

	if len(strings.TrimSpace(ir.Type)) == 0 {
		invalid = append(invalid, "type")
	}

	if ir.Increments <= 0 {
		invalid = append(invalid, "increments")
	}

	if len(invalid) > 0 {
		return internal_errors.NewValidationError(fmt.Sprintf("fields [%s] are invalid", strings.Join(invalid, ", ")))
	}

	return nil
}
