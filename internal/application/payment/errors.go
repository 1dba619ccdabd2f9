package payment

import (
	"fmt"

	dompay "github.com/Zhima-Mochi/minishop-payment/internal/domain/payment"
)

const (
	reasonPaymentError       = "payment error"
	reasonOrderHistoryUpdate = "order history update error"
)

// ErrCartInvalid is returned before any side effect when the cart fails validation.
var ErrCartInvalid = dompay.ErrCartInvalid

// UpstreamStatusError reports a collaborator that answered with a non-success status.
type UpstreamStatusError struct {
	Peer       string
	Reason     string
	StatusCode int
}

func (e *UpstreamStatusError) Error() string {
	return e.Reason
}

// TransportError reports a collaborator call that did not complete.
type TransportError struct {
	Peer string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Peer, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BrokerError reports an order that could not be published; the order is not placed.
type BrokerError struct {
	Err error
}

func (e *BrokerError) Error() string {
	return fmt.Sprintf("broker: %v", e.Err)
}

func (e *BrokerError) Unwrap() error { return e.Err }
