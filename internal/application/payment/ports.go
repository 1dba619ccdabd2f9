package payment

import (
	"context"

	dompay "github.com/Zhima-Mochi/minishop-payment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-payment/internal/observability"
)

// Outbound ports used by the checkout use case. HTTP collaborators return the upstream
// status code; a non-nil error always means the call did not complete (transport failure).

type UserDirectory interface {
	// CheckUser reports the status of the existence check for userID.
	CheckUser(ctx context.Context, userID string) (int, error)
	// AddOrder appends the entry to the user's order history.
	AddOrder(ctx context.Context, userID string, entry dompay.HistoryEntry) (int, error)
}

type CartStore interface {
	DeleteCart(ctx context.Context, userID string) (int, error)
}

type Gateway interface {
	Charge(ctx context.Context, cart dompay.Cart) (int, error)
}

// OrderPublisher delivers an order event with trace headers attached out-of-band.
type OrderPublisher interface {
	Publish(ctx context.Context, msg any, headers observability.TraceHeaders) error
}

// MessageDestination is implemented by publishers that can describe where they deliver.
type MessageDestination interface {
	Exchange() string
	RoutingKey() string
}

type IDGenerator interface {
	NewID() string
}
