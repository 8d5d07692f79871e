package payments

import "math/big"

// PaymentID uniquely identifies a recorded payment. IDs are derived from a
// persisted monotonic sequence hashed with the payer and token, so two
// otherwise identical payments never collide.
type PaymentID [32]byte

// Payment is the immutable record of a settled travel purchase. Only the
// Refunded flag ever changes after creation, and it transitions exactly once.
type Payment struct {
	ID          PaymentID
	Payer       [20]byte
	Recipient   [20]byte
	Token       string
	Amount      *big.Int
	ServiceType string
	CreatedAt   int64
	Refunded    bool
}

// Clone returns a deep copy of the payment so callers can safely mutate the
// copy without affecting the stored instance.
func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Amount != nil {
		clone.Amount = new(big.Int).Set(p.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// storedPayment is the RLP-friendly persistence shape. RLP has no signed
// integer support, so the creation timestamp is stored unsigned.
type storedPayment struct {
	ID          [32]byte
	Payer       [20]byte
	Recipient   [20]byte
	Token       string
	Amount      *big.Int
	ServiceType string
	CreatedAt   uint64
	Refunded    bool
}

func toStored(p *Payment) *storedPayment {
	return &storedPayment{
		ID:          [32]byte(p.ID),
		Payer:       p.Payer,
		Recipient:   p.Recipient,
		Token:       p.Token,
		Amount:      p.Amount,
		ServiceType: p.ServiceType,
		CreatedAt:   uint64(p.CreatedAt),
		Refunded:    p.Refunded,
	}
}

func fromStored(s *storedPayment) *Payment {
	amount := big.NewInt(0)
	if s.Amount != nil {
		amount = new(big.Int).Set(s.Amount)
	}
	return &Payment{
		ID:          PaymentID(s.ID),
		Payer:       s.Payer,
		Recipient:   s.Recipient,
		Token:       s.Token,
		Amount:      amount,
		ServiceType: s.ServiceType,
		CreatedAt:   int64(s.CreatedAt),
		Refunded:    s.Refunded,
	}
}
