package ports

import (
	"context"

	"github.com/aretw0/buddy/pkg/domain"
)

// Dispatcher applies the transform selected by a payload's action, relays the result
// and returns the acknowledgement for the caller.
// Ingress adapters (HTTP, MCP) depend on this port only.
type Dispatcher interface {
	Dispatch(ctx context.Context, p domain.Payload) (domain.Result, string)
}
