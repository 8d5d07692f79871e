package events

import (
	"math/big"

	"travelledger/core/types"
)

const (
	// TypeLoyaltyPointsEarned is emitted when a settled payment accrues
	// loyalty points to the payer.
	TypeLoyaltyPointsEarned = "loyalty.points.earned"
	// TypeLoyaltyPointsRedeemed is emitted when a user converts loyalty
	// points back into token value.
	TypeLoyaltyPointsRedeemed = "loyalty.points.redeemed"
)

// LoyaltyPointsEarned records an accrual of loyalty points to a user.
type LoyaltyPointsEarned struct {
	User    [20]byte
	Points  *big.Int
	Balance *big.Int
}

// EventType satisfies the events.Event interface.
func (LoyaltyPointsEarned) EventType() string { return TypeLoyaltyPointsEarned }

// Event converts the structured payload into a wire-friendly representation.
func (e LoyaltyPointsEarned) Event() *types.Event {
	return &types.Event{Type: TypeLoyaltyPointsEarned, Attributes: map[string]string{
		"user":    hexAddr(e.User),
		"points":  amountString(e.Points),
		"balance": amountString(e.Balance),
	}}
}

// LoyaltyPointsRedeemed records a redemption of loyalty points for token
// value.
type LoyaltyPointsRedeemed struct {
	User        [20]byte
	Points      *big.Int
	Token       string
	TokenAmount *big.Int
	Balance     *big.Int
}

// EventType satisfies the events.Event interface.
func (LoyaltyPointsRedeemed) EventType() string { return TypeLoyaltyPointsRedeemed }

// Event converts the structured payload into a wire-friendly representation.
func (e LoyaltyPointsRedeemed) Event() *types.Event {
	return &types.Event{Type: TypeLoyaltyPointsRedeemed, Attributes: map[string]string{
		"user":        hexAddr(e.User),
		"points":      amountString(e.Points),
		"token":       e.Token,
		"tokenAmount": amountString(e.TokenAmount),
		"balance":     amountString(e.Balance),
	}}
}
