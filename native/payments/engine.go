package payments

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"travelledger/core/events"
	"travelledger/native/bank"
)

var (
	sequenceKey    = []byte("payments/sequence")
	recordPrefix   = []byte("payments/record/")
	indexKeyPrefix = []byte("payments/index/")
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVAppend(key []byte, value []byte) error
	KVGetList(key []byte, out *[][]byte) error
}

type tokenChecker interface {
	IsSupported(symbol string) bool
}

type providerChecker interface {
	IsProvider(addr [20]byte) bool
}

type accruer interface {
	Accrue(user [20]byte, amount *big.Int) error
}

// Engine records travel payments, drives settlement through the transfer
// capability and tracks refund state. Accrual of loyalty points hangs off
// successful payments via the configured accruer.
type Engine struct {
	st        engineState
	tokens    tokenChecker
	providers providerChecker
	transfer  bank.Transferer
	loyalty   accruer
	emitter   events.Emitter
	nowFn     func() int64
}

// NewEngine creates a payment engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine(st engineState, tokens tokenChecker, providers providerChecker, transfer bank.Transferer) *Engine {
	return &Engine{
		st:        st,
		tokens:    tokens,
		providers: providers,
		transfer:  transfer,
		emitter:   events.NoopEmitter{},
		nowFn:     func() int64 { return time.Now().Unix() },
	}
}

// SetLoyalty configures the loyalty accruer invoked after each settled
// payment. Passing nil disables accrual.
func (e *Engine) SetLoyalty(loyalty accruer) { e.loyalty = loyalty }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func recordKey(id PaymentID) []byte {
	return append(append([]byte(nil), recordPrefix...), id[:]...)
}

func indexKey(user [20]byte) []byte {
	return append(append([]byte(nil), indexKeyPrefix...), user[:]...)
}

func (e *Engine) nextSequence() (uint64, error) {
	var seq uint64
	if _, err := e.st.KVGet(sequenceKey, &seq); err != nil {
		return 0, err
	}
	seq++
	if err := e.st.KVPut(sequenceKey, seq); err != nil {
		return 0, err
	}
	return seq, nil
}

func paymentID(payer [20]byte, token string, seq uint64) PaymentID {
	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], seq)
	var id PaymentID
	copy(id[:], ethcrypto.Keccak256(payer[:], []byte(token), seqBytes[:]))
	return id
}

func (e *Engine) storePayment(p *Payment) error {
	return e.st.KVPut(recordKey(p.ID), toStored(p))
}

// ProcessPayment settles a travel purchase: it validates the token, recipient
// and amount, moves the funds from payer to recipient, records the payment and
// accrues loyalty points. Settlement failure surfaces as ErrPaymentTransfer
// with no record created.
func (e *Engine) ProcessPayment(payer [20]byte, token string, amount *big.Int, serviceType string, recipient [20]byte) (PaymentID, error) {
	if e == nil || e.st == nil {
		return PaymentID{}, ErrNilState
	}
	if e.transfer == nil {
		return PaymentID{}, ErrNilTransferer
	}
	token = strings.ToUpper(strings.TrimSpace(token))
	if e.tokens == nil || !e.tokens.IsSupported(token) {
		return PaymentID{}, ErrTokenNotSupported
	}
	if e.providers == nil || !e.providers.IsProvider(recipient) {
		return PaymentID{}, ErrUnknownProvider
	}
	if amount == nil || amount.Sign() <= 0 {
		return PaymentID{}, ErrAmountNotPositive
	}
	amt := new(big.Int).Set(amount)

	if err := e.transfer.Transfer(payer, recipient, token, amt); err != nil {
		return PaymentID{}, fmt.Errorf("%w: %v", ErrPaymentTransfer, err)
	}

	seq, err := e.nextSequence()
	if err != nil {
		return PaymentID{}, err
	}
	payment := &Payment{
		ID:          paymentID(payer, token, seq),
		Payer:       payer,
		Recipient:   recipient,
		Token:       token,
		Amount:      amt,
		ServiceType: strings.TrimSpace(serviceType),
		CreatedAt:   e.nowFn(),
	}
	if err := e.storePayment(payment); err != nil {
		return PaymentID{}, err
	}
	if err := e.st.KVAppend(indexKey(payer), payment.ID[:]); err != nil {
		return PaymentID{}, err
	}
	if e.loyalty != nil {
		if err := e.loyalty.Accrue(payer, amt); err != nil {
			return PaymentID{}, err
		}
	}
	e.emitter.Emit(events.PaymentProcessed{
		ID:          [32]byte(payment.ID),
		Payer:       payer,
		Recipient:   recipient,
		Token:       token,
		Amount:      new(big.Int).Set(amt),
		ServiceType: payment.ServiceType,
	})
	return payment.ID, nil
}

// RefundPayment returns a settled payment to its payer. Any current provider
// may refund any payment and supplies the returned funds itself. The refunded
// flag is committed before the payout; a failed payout rolls it back so the
// operation stays all-or-nothing.
func (e *Engine) RefundPayment(id PaymentID, caller [20]byte) error {
	if e == nil || e.st == nil {
		return ErrNilState
	}
	if e.transfer == nil {
		return ErrNilTransferer
	}
	payment, ok, err := e.loadPayment(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPaymentNotFound
	}
	if e.providers == nil || !e.providers.IsProvider(caller) {
		return ErrNotProvider
	}
	if payment.Refunded {
		return ErrAlreadyRefunded
	}
	payment.Refunded = true
	if err := e.storePayment(payment); err != nil {
		return err
	}
	if err := e.transfer.Transfer(caller, payment.Payer, payment.Token, payment.Amount); err != nil {
		payment.Refunded = false
		if restoreErr := e.storePayment(payment); restoreErr != nil {
			return restoreErr
		}
		return fmt.Errorf("%w: %v", ErrRefundTransfer, err)
	}
	e.emitter.Emit(events.PaymentRefunded{
		ID:       [32]byte(payment.ID),
		Payer:    payment.Payer,
		Refunder: caller,
		Token:    payment.Token,
		Amount:   new(big.Int).Set(payment.Amount),
	})
	return nil
}

func (e *Engine) loadPayment(id PaymentID) (*Payment, bool, error) {
	stored := new(storedPayment)
	ok, err := e.st.KVGet(recordKey(id), stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return fromStored(stored), true, nil
}

// GetPayment retrieves a payment record by identifier.
func (e *Engine) GetPayment(id PaymentID) (*Payment, bool) {
	if e == nil || e.st == nil {
		return nil, false
	}
	payment, ok, err := e.loadPayment(id)
	if err != nil || !ok {
		return nil, false
	}
	return payment, true
}

// GetUserPayments returns the payer's payment identifiers in insertion order.
// Unknown users yield an empty slice.
func (e *Engine) GetUserPayments(user [20]byte) ([]PaymentID, error) {
	if e == nil || e.st == nil {
		return nil, ErrNilState
	}
	var raw [][]byte
	if err := e.st.KVGetList(indexKey(user), &raw); err != nil {
		return nil, err
	}
	ids := make([]PaymentID, 0, len(raw))
	for _, b := range raw {
		var id PaymentID
		copy(id[:], b)
		ids = append(ids, id)
	}
	return ids, nil
}
