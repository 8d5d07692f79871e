package types

import "math/big"

// TokenBalance pairs a token symbol with the amount held. Balances are stored
// as an ordered slice rather than a map so RLP encoding stays deterministic.
type TokenBalance struct {
	Symbol string
	Amount *big.Int
}

// Account holds the per-token balances for an address. The ledger bank moves
// value between accounts when payments, refunds and redemptions settle.
type Account struct {
	Nonce    uint64
	Balances []TokenBalance
}

// Balance returns the held amount for the given token symbol, zero when the
// account holds none of it.
func (a *Account) Balance(symbol string) *big.Int {
	if a == nil {
		return big.NewInt(0)
	}
	for _, tb := range a.Balances {
		if tb.Symbol == symbol {
			if tb.Amount == nil {
				return big.NewInt(0)
			}
			return new(big.Int).Set(tb.Amount)
		}
	}
	return big.NewInt(0)
}

// SetBalance replaces the held amount for the given token symbol, inserting a
// new entry in symbol order when the account did not hold the token before.
func (a *Account) SetBalance(symbol string, amount *big.Int) {
	if a == nil {
		return
	}
	amt := big.NewInt(0)
	if amount != nil {
		amt = new(big.Int).Set(amount)
	}
	for i, tb := range a.Balances {
		if tb.Symbol == symbol {
			a.Balances[i].Amount = amt
			return
		}
	}
	idx := len(a.Balances)
	for i, tb := range a.Balances {
		if tb.Symbol > symbol {
			idx = i
			break
		}
	}
	a.Balances = append(a.Balances, TokenBalance{})
	copy(a.Balances[idx+1:], a.Balances[idx:])
	a.Balances[idx] = TokenBalance{Symbol: symbol, Amount: amt}
}

// Clone returns a deep copy of the account so callers can safely mutate the
// copy without affecting the stored instance.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{}
	}
	clone := &Account{Nonce: a.Nonce}
	if len(a.Balances) > 0 {
		clone.Balances = make([]TokenBalance, len(a.Balances))
		for i, tb := range a.Balances {
			amt := big.NewInt(0)
			if tb.Amount != nil {
				amt = new(big.Int).Set(tb.Amount)
			}
			clone.Balances[i] = TokenBalance{Symbol: tb.Symbol, Amount: amt}
		}
	}
	return clone
}
