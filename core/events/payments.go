package events

import (
	"math/big"
	"strings"

	"travelledger/core/types"
)

const (
	// TypePaymentProcessed is emitted once a travel payment settles and its
	// record is committed to the ledger.
	TypePaymentProcessed = "payments.processed"
	// TypePaymentRefunded is emitted once a provider refund settles and the
	// payment record transitions to its refunded state.
	TypePaymentRefunded = "payments.refunded"
)

// PaymentProcessed describes a settled travel payment. Downstream consumers
// correlate the payment identifier with booking records to reconcile the
// purchase.
type PaymentProcessed struct {
	ID          [32]byte
	Payer       [20]byte
	Recipient   [20]byte
	Token       string
	Amount      *big.Int
	ServiceType string
}

// EventType satisfies the events.Event interface.
func (PaymentProcessed) EventType() string { return TypePaymentProcessed }

// Event converts the structured payload into a wire-friendly representation
// for RPC subscribers.
func (e PaymentProcessed) Event() *types.Event {
	attrs := map[string]string{
		"paymentId": hexID(e.ID),
		"payer":     hexAddr(e.Payer),
		"recipient": hexAddr(e.Recipient),
		"token":     e.Token,
		"amount":    amountString(e.Amount),
	}
	if svc := strings.TrimSpace(e.ServiceType); svc != "" {
		attrs["serviceType"] = svc
	}
	return &types.Event{Type: TypePaymentProcessed, Attributes: attrs}
}

// PaymentRefunded describes a refunded travel payment. The refunder is the
// provider that supplied the returned funds, which is not necessarily the
// provider that received the original payment.
type PaymentRefunded struct {
	ID       [32]byte
	Payer    [20]byte
	Refunder [20]byte
	Token    string
	Amount   *big.Int
}

// EventType satisfies the events.Event interface.
func (PaymentRefunded) EventType() string { return TypePaymentRefunded }

// Event converts the structured payload into a wire-friendly representation
// for RPC subscribers.
func (e PaymentRefunded) Event() *types.Event {
	return &types.Event{Type: TypePaymentRefunded, Attributes: map[string]string{
		"paymentId": hexID(e.ID),
		"payer":     hexAddr(e.Payer),
		"refunder":  hexAddr(e.Refunder),
		"token":     e.Token,
		"amount":    amountString(e.Amount),
	}}
}
