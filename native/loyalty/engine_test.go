package loyalty

import (
	"errors"
	"math/big"
	"testing"

	"travelledger/core/events"
	"travelledger/core/state"
	"travelledger/native/common"
	"travelledger/storage"
)

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) {
	c.events = append(c.events, evt)
}

type mockTransferer struct {
	calls []transferCall
	fail  bool
}

type transferCall struct {
	from, to [20]byte
	token    string
	amount   *big.Int
}

func (m *mockTransferer) Transfer(from, to [20]byte, token string, amount *big.Int) error {
	if m.fail {
		return errors.New("transfer rejected")
	}
	m.calls = append(m.calls, transferCall{from: from, to: to, token: token, amount: new(big.Int).Set(amount)})
	return nil
}

type mockTokens struct {
	supported map[string]bool
}

func (m *mockTokens) IsSupported(symbol string) bool { return m.supported[symbol] }

func addr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

func baseUnits(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), BaseUnit())
}

func newTestEngine(t *testing.T) (*Engine, *mockTransferer, *captureEmitter) {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	transfer := &mockTransferer{}
	engine := NewEngine(manager, &mockTokens{supported: map[string]bool{"USDC": true}}, transfer)
	emitter := &captureEmitter{}
	engine.SetEmitter(emitter)
	return engine, transfer, emitter
}

func TestAccrueWholeUnits(t *testing.T) {
	engine, _, emitter := newTestEngine(t)
	user := addr(1)
	if err := engine.Accrue(user, baseUnits(100)); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	balance, err := engine.BalanceOf(user)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected 100 points, got %s", balance)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one event, got %d", len(emitter.events))
	}
}

func TestAccrueFloorsFractions(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	user := addr(1)
	// 2.9 whole units earns exactly 2 points.
	amount := new(big.Int).Add(baseUnits(2), new(big.Int).Quo(baseUnits(9), big.NewInt(10)))
	if err := engine.Accrue(user, amount); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	balance, _ := engine.BalanceOf(user)
	if balance.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("expected 2 points, got %s", balance)
	}
}

func TestAccrueSubUnitEarnsNothing(t *testing.T) {
	// A token with fewer than 18 decimals prices every realistic payment
	// below one base unit, so it accrues zero points. The divisor is a fixed
	// convention, not scaled per token.
	engine, _, emitter := newTestEngine(t)
	user := addr(1)
	if err := engine.Accrue(user, big.NewInt(999_999)); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	balance, _ := engine.BalanceOf(user)
	if balance.Sign() != 0 {
		t.Fatalf("expected zero balance, got %s", balance)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no events, got %d", len(emitter.events))
	}
}

func TestRedeemHappyPath(t *testing.T) {
	engine, transfer, emitter := newTestEngine(t)
	user := addr(1)
	if err := engine.Accrue(user, baseUnits(100)); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	amount, err := engine.Redeem(user, big.NewInt(50), "USDC")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	// 50 points redeem to 0.5 whole units.
	want := new(big.Int).Quo(baseUnits(1), big.NewInt(2))
	if amount.Cmp(want) != 0 {
		t.Fatalf("expected %s, got %s", want, amount)
	}
	balance, _ := engine.BalanceOf(user)
	if balance.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("expected 50 points remaining, got %s", balance)
	}
	if len(transfer.calls) != 1 {
		t.Fatalf("expected one transfer, got %d", len(transfer.calls))
	}
	call := transfer.calls[0]
	if call.from != PoolAddress() || call.to != user || call.token != "USDC" || call.amount.Cmp(want) != 0 {
		t.Fatalf("unexpected transfer call: %+v", call)
	}
	if len(emitter.events) != 2 {
		t.Fatalf("expected accrue+redeem events, got %d", len(emitter.events))
	}
}

func TestRedeemInsufficientBalance(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	user := addr(1)
	if err := engine.Accrue(user, baseUnits(10)); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	_, err := engine.Redeem(user, big.NewInt(11), "USDC")
	if !errors.Is(err, common.ErrState) {
		t.Fatalf("expected state error, got %v", err)
	}
	balance, _ := engine.BalanceOf(user)
	if balance.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("balance changed on failed redeem: %s", balance)
	}
}

func TestRedeemUnsupportedToken(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	user := addr(1)
	if err := engine.Accrue(user, baseUnits(10)); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	_, err := engine.Redeem(user, big.NewInt(1), "DOGE")
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRedeemRollsBackOnTransferFailure(t *testing.T) {
	engine, transfer, _ := newTestEngine(t)
	user := addr(1)
	if err := engine.Accrue(user, baseUnits(100)); err != nil {
		t.Fatalf("accrue: %v", err)
	}
	transfer.fail = true
	_, err := engine.Redeem(user, big.NewInt(50), "USDC")
	if !errors.Is(err, common.ErrTransfer) {
		t.Fatalf("expected transfer error, got %v", err)
	}
	balance, _ := engine.BalanceOf(user)
	if balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("deduction not rolled back, balance %s", balance)
	}
}
