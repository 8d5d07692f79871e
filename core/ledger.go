package core

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"travelledger/core/events"
	"travelledger/core/state"
	"travelledger/core/types"
	"travelledger/native/bank"
	"travelledger/native/common"
	"travelledger/native/loyalty"
	"travelledger/native/payments"
	"travelledger/native/registry"
	"travelledger/observability"
	"travelledger/storage"
)

// eventLog collects every emitted ledger event as an append-only audit trail.
// Consumers poll it for observability; nothing in the ledger reads it back.
type eventLog struct {
	mu     sync.Mutex
	events []types.Event
}

type auditEvent interface {
	events.Event
	Event() *types.Event
}

func (l *eventLog) Emit(evt events.Event) {
	payload, ok := evt.(auditEvent)
	if !ok {
		return
	}
	wire := payload.Event()
	if wire == nil {
		return
	}
	l.mu.Lock()
	l.events = append(l.events, *wire)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []types.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.Event, len(l.events))
	copy(out, l.events)
	return out
}

// Ledger owns the payment and loyalty state for one deployment. Every
// mutating operation runs under a single lock for its full duration, external
// settlement included, so nested calls from a misbehaving transfer capability
// cannot interleave ledger effects.
type Ledger struct {
	mu sync.RWMutex

	state     *state.Manager
	access    *registry.AccessControl
	tokens    *registry.TokenRegistry
	providers *registry.ProviderRegistry
	bank      *bank.Ledger
	payments  *payments.Engine
	loyalty   *loyalty.Engine
	audit     *eventLog
	metrics   *observability.LedgerMetrics
}

// NewLedger assembles the ledger over the provided database with the given
// admin identity. The admin is seeded as the first provider.
func NewLedger(db storage.Database, admin [20]byte) (*Ledger, error) {
	manager := state.NewManager(db)
	access := registry.NewAccessControl(admin)
	audit := &eventLog{}

	tokens := registry.NewTokenRegistry(manager, access)
	tokens.SetEmitter(audit)
	providers, err := registry.NewProviderRegistry(manager, access)
	if err != nil {
		return nil, err
	}
	providers.SetEmitter(audit)

	transfer := bank.NewLedger(manager)
	loyaltyEngine := loyalty.NewEngine(manager, tokens, transfer)
	loyaltyEngine.SetEmitter(audit)
	paymentEngine := payments.NewEngine(manager, tokens, providers, transfer)
	paymentEngine.SetLoyalty(loyaltyEngine)
	paymentEngine.SetEmitter(audit)

	return &Ledger{
		state:     manager,
		access:    access,
		tokens:    tokens,
		providers: providers,
		bank:      transfer,
		payments:  paymentEngine,
		loyalty:   loyaltyEngine,
		audit:     audit,
		metrics:   observability.Ledger(),
	}, nil
}

// Admin returns the ledger's admin address.
func (l *Ledger) Admin() [20]byte { return l.access.Admin() }

// SetNowFunc overrides the payment engine's time source for deterministic
// tests.
func (l *Ledger) SetNowFunc(now func() int64) { l.payments.SetNowFunc(now) }

func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, common.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, common.ErrState):
		return "state"
	case errors.Is(err, common.ErrTransfer):
		return "transfer"
	case errors.Is(err, common.ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}

func (l *Ledger) observe(operation string, start time.Time, err error) {
	l.metrics.ObserveOperation(operation, time.Since(start).Seconds(), err, errorKind(err))
}

// AddToken registers a token symbol as accepted for payment. Admin only.
func (l *Ledger) AddToken(caller [20]byte, symbol string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := time.Now()
	err := l.tokens.AddToken(caller, symbol)
	l.observe("add_token", start, err)
	return err
}

// RemoveToken withdraws a token symbol. Admin only.
func (l *Ledger) RemoveToken(caller [20]byte, symbol string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := time.Now()
	err := l.tokens.RemoveToken(caller, symbol)
	l.observe("remove_token", start, err)
	return err
}

// AddProvider authorises a provider address. Admin only.
func (l *Ledger) AddProvider(caller, provider [20]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := time.Now()
	err := l.providers.AddProvider(caller, provider)
	l.observe("add_provider", start, err)
	return err
}

// RemoveProvider revokes a provider authorisation. Admin only.
func (l *Ledger) RemoveProvider(caller, provider [20]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := time.Now()
	err := l.providers.RemoveProvider(caller, provider)
	l.observe("remove_provider", start, err)
	return err
}

// ProcessPayment settles a travel purchase on behalf of the payer.
func (l *Ledger) ProcessPayment(payer [20]byte, token string, amount *big.Int, serviceType string, recipient [20]byte) (payments.PaymentID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := time.Now()
	id, err := l.payments.ProcessPayment(payer, token, amount, serviceType, recipient)
	l.observe("process_payment", start, err)
	if err == nil {
		earned := new(big.Int).Quo(amount, loyalty.BaseUnit())
		l.metrics.AddOutstandingPoints(float64(earned.Int64()))
	}
	return id, err
}

// RefundPayment returns a payment to its payer, funded by the calling
// provider.
func (l *Ledger) RefundPayment(id payments.PaymentID, caller [20]byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := time.Now()
	err := l.payments.RefundPayment(id, caller)
	l.observe("refund_payment", start, err)
	return err
}

// RedeemLoyaltyPoints converts the user's points into token value.
func (l *Ledger) RedeemLoyaltyPoints(user [20]byte, points *big.Int, token string) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := time.Now()
	amount, err := l.loyalty.Redeem(user, points, token)
	l.observe("redeem_points", start, err)
	if err == nil {
		l.metrics.AddOutstandingPoints(-float64(points.Int64()))
	}
	return amount, err
}

// MintFunds credits token value to an address on the in-process bank. Admin
// only; used for genesis funding and development environments.
func (l *Ledger) MintFunds(caller, to [20]byte, token string, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.access.Require(caller); err != nil {
		return err
	}
	return l.bank.Mint(to, registry.NormalizeSymbol(token), amount)
}

// GetUserPayments returns the user's payment identifiers in insertion order.
func (l *Ledger) GetUserPayments(user [20]byte) ([]payments.PaymentID, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.payments.GetUserPayments(user)
}

// GetPayment retrieves a payment record by identifier.
func (l *Ledger) GetPayment(id payments.PaymentID) (*payments.Payment, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.payments.GetPayment(id)
}

// LoyaltyBalance returns the user's current point balance.
func (l *Ledger) LoyaltyBalance(user [20]byte) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loyalty.BalanceOf(user)
}

// TokenBalance returns the token amount the address holds on the in-process
// bank.
func (l *Ledger) TokenBalance(addr [20]byte, token string) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	account, err := l.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return account.Balance(registry.NormalizeSymbol(token)), nil
}

// ListTokens returns the accepted token symbols.
func (l *Ledger) ListTokens() ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tokens.Tokens()
}

// ListProviders returns the authorised provider addresses.
func (l *Ledger) ListProviders() ([][20]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.providers.Providers()
}

// Events returns a copy of the audit trail accumulated since startup.
func (l *Ledger) Events() []types.Event {
	return l.audit.snapshot()
}
