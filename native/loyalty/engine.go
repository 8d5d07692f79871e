package loyalty

import (
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"travelledger/core/events"
	"travelledger/native/bank"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

type tokenChecker interface {
	IsSupported(symbol string) bool
}

const balanceKeyPrefix = "loyalty/balance/"

// PoolAddress returns the module-owned address that funds point redemptions.
// Redemptions are paid from whatever the pool holds; the engine never checks a
// reserve up front, so an underfunded pool simply fails the payout and the
// deduction unwinds.
func PoolAddress() [20]byte {
	var addr [20]byte
	hash := ethcrypto.Keccak256([]byte("travelledger/loyalty/pool"))
	copy(addr[:], hash[12:])
	return addr
}

// Engine is the loyalty point ledger. Points accrue when travel payments
// settle and redeem back into token value at a fixed rate.
type Engine struct {
	st       engineState
	tokens   tokenChecker
	transfer bank.Transferer
	pool     [20]byte
	emitter  events.Emitter
}

// NewEngine creates a loyalty engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine(st engineState, tokens tokenChecker, transfer bank.Transferer) *Engine {
	return &Engine{
		st:       st,
		tokens:   tokens,
		transfer: transfer,
		pool:     PoolAddress(),
		emitter:  events.NoopEmitter{},
	}
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPool overrides the module address that funds redemptions. Primarily
// intended for tests.
func (e *Engine) SetPool(pool [20]byte) { e.pool = pool }

func balanceKey(user [20]byte) []byte {
	return append([]byte(balanceKeyPrefix), user[:]...)
}

// BalanceOf returns the user's current point balance.
func (e *Engine) BalanceOf(user [20]byte) (*big.Int, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	balance := new(big.Int)
	ok, err := e.st.KVGet(balanceKey(user), balance)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return balance, nil
}

func (e *Engine) setBalance(user [20]byte, balance *big.Int) error {
	return e.st.KVPut(balanceKey(user), balance)
}

// Accrue credits the payer with points for a settled payment: one point per
// whole 10^18 base unit spent. Amounts below one base unit earn nothing and
// emit nothing.
func (e *Engine) Accrue(user [20]byte, amount *big.Int) error {
	if e == nil || e.st == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	points := new(big.Int).Quo(amount, BaseUnit())
	if points.Sign() <= 0 {
		return nil
	}
	balance, err := e.BalanceOf(user)
	if err != nil {
		return err
	}
	balance = new(big.Int).Add(balance, points)
	if err := e.setBalance(user, balance); err != nil {
		return err
	}
	e.emitter.Emit(events.LoyaltyPointsEarned{User: user, Points: points, Balance: balance})
	return nil
}

// Redeem converts points back into token value at baseUnit/100 per point and
// pays the user from the redemption pool. The deduction lands before the
// payout is attempted; a failed payout restores the prior balance so the
// operation is all-or-nothing.
func (e *Engine) Redeem(user [20]byte, points *big.Int, token string) (*big.Int, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	if e.transfer == nil {
		return nil, ErrNilTransferer
	}
	if points == nil || points.Sign() <= 0 {
		return nil, ErrPointsNotPositive
	}
	token = strings.ToUpper(strings.TrimSpace(token))
	if e.tokens == nil || !e.tokens.IsSupported(token) {
		return nil, ErrTokenNotSupported
	}
	balance, err := e.BalanceOf(user)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(points) < 0 {
		return nil, ErrInsufficientBalance
	}
	tokenAmount := new(big.Int).Mul(points, BaseUnit())
	tokenAmount.Quo(tokenAmount, big.NewInt(RedeemRateDivisor))

	remaining := new(big.Int).Sub(balance, points)
	if err := e.setBalance(user, remaining); err != nil {
		return nil, err
	}
	if err := e.transfer.Transfer(e.pool, user, token, tokenAmount); err != nil {
		if restoreErr := e.setBalance(user, balance); restoreErr != nil {
			return nil, restoreErr
		}
		return nil, fmt.Errorf("%w: %v", ErrRedeemTransfer, err)
	}
	e.emitter.Emit(events.LoyaltyPointsRedeemed{
		User:        user,
		Points:      new(big.Int).Set(points),
		Token:       token,
		TokenAmount: tokenAmount,
		Balance:     remaining,
	})
	return tokenAmount, nil
}
