package ports

import (
	"context"

	"rangepulse/internal/domain"
)

// Notifier delivers an accepted signal to end users. The scanner does not
// know or care how delivery happens; failures are reported, logged, and do
// not interrupt scanning.
type Notifier interface {
	Broadcast(ctx context.Context, sig *domain.Signal) error
}
