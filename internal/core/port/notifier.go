package port

import "context"

// Notifier delivers human-readable messages. Delivery is best-effort: callers
// log failures and never let them fail the pipeline.
type Notifier interface {
	NotifyBuyer(ctx context.Context, chatID string, text string) error
	NotifyOperator(ctx context.Context, text string) error
}
