package bank

import (
	"errors"
	"fmt"
	"math/big"

	"travelledger/core/types"
)

var (
	ErrNilState          = errors.New("bank: state not configured")
	ErrAmountNotPositive = errors.New("bank: amount must be positive")
	ErrInsufficientFunds = errors.New("bank: insufficient funds")
	ErrSelfTransfer      = errors.New("bank: self transfer")
)

// Transferer is the capability that moves token value between identities. It
// must fail closed: on error no value may have moved. The ledger engines hold
// this interface so an external wallet integration can replace the in-process
// implementation.
type Transferer interface {
	Transfer(from, to [20]byte, token string, amount *big.Int) error
}

type accountState interface {
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Ledger is the in-process transfer capability backed by the account store.
type Ledger struct {
	state accountState
}

// NewLedger creates a transfer ledger over the provided account state.
func NewLedger(state accountState) *Ledger {
	return &Ledger{state: state}
}

// Transfer moves amount of token from one account to the other. Both account
// writes happen against the same state manager, so a failure between them is
// surfaced to the caller which unwinds the surrounding operation.
func (l *Ledger) Transfer(from, to [20]byte, token string, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountNotPositive
	}
	if from == to {
		return ErrSelfTransfer
	}
	fromAcc, err := l.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := l.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	held := fromAcc.Balance(token)
	if held.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientFunds, token, held, amount)
	}
	fromAcc.SetBalance(token, new(big.Int).Sub(held, amount))
	toAcc.SetBalance(token, new(big.Int).Add(toAcc.Balance(token), amount))
	if err := l.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return l.state.PutAccount(to[:], toAcc)
}

// Mint credits amount of token to the address without a counterparty debit.
// It exists for genesis funding and tests.
func (l *Ledger) Mint(to [20]byte, token string, amount *big.Int) error {
	if l == nil || l.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountNotPositive
	}
	acc, err := l.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	acc.SetBalance(token, new(big.Int).Add(acc.Balance(token), amount))
	return l.state.PutAccount(to[:], acc)
}
