package registry

import (
	"errors"
	"strings"

	"travelledger/core/events"
)

var errNilState = errors.New("registry: state not configured")

var tokenSetKey = []byte("registry/tokens")

type registryState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

// TokenRegistry manages the set of token symbols accepted for payment and
// redemption. Removing a token never invalidates payments already recorded
// against it.
type TokenRegistry struct {
	st      registryState
	access  *AccessControl
	emitter events.Emitter
}

// NewTokenRegistry creates a token registry gated by the provided access
// control.
func NewTokenRegistry(st registryState, access *AccessControl) *TokenRegistry {
	return &TokenRegistry{st: st, access: access, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used to broadcast registry updates.
// Passing nil resets the emitter to a no-op implementation.
func (r *TokenRegistry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// NormalizeSymbol returns the canonical uppercase form of a token symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (r *TokenRegistry) load() ([]string, error) {
	if r == nil || r.st == nil {
		return nil, errNilState
	}
	var symbols []string
	if _, err := r.st.KVGet(tokenSetKey, &symbols); err != nil {
		return nil, err
	}
	return symbols, nil
}

// AddToken registers a token symbol as accepted. The operation is idempotent:
// re-adding an already supported token leaves state untouched but still emits
// the added event.
func (r *TokenRegistry) AddToken(caller [20]byte, symbol string) error {
	if err := r.access.Require(caller); err != nil {
		return err
	}
	normalized := NormalizeSymbol(symbol)
	if normalized == "" {
		return ErrEmptySymbol
	}
	symbols, err := r.load()
	if err != nil {
		return err
	}
	present := false
	for _, s := range symbols {
		if s == normalized {
			present = true
			break
		}
	}
	if !present {
		symbols = append(symbols, normalized)
		if err := r.st.KVPut(tokenSetKey, symbols); err != nil {
			return err
		}
	}
	r.emitter.Emit(events.TokenAdded{Symbol: normalized, Admin: caller})
	return nil
}

// RemoveToken withdraws a token symbol from the accepted set.
func (r *TokenRegistry) RemoveToken(caller [20]byte, symbol string) error {
	if err := r.access.Require(caller); err != nil {
		return err
	}
	normalized := NormalizeSymbol(symbol)
	if normalized == "" {
		return ErrEmptySymbol
	}
	symbols, err := r.load()
	if err != nil {
		return err
	}
	idx := -1
	for i, s := range symbols {
		if s == normalized {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrTokenNotFound
	}
	symbols = append(symbols[:idx], symbols[idx+1:]...)
	if err := r.st.KVPut(tokenSetKey, symbols); err != nil {
		return err
	}
	r.emitter.Emit(events.TokenRemoved{Symbol: normalized, Admin: caller})
	return nil
}

// IsSupported reports whether the token symbol is currently accepted.
func (r *TokenRegistry) IsSupported(symbol string) bool {
	normalized := NormalizeSymbol(symbol)
	if normalized == "" {
		return false
	}
	symbols, err := r.load()
	if err != nil {
		return false
	}
	for _, s := range symbols {
		if s == normalized {
			return true
		}
	}
	return false
}

// Tokens returns the accepted symbols in registration order.
func (r *TokenRegistry) Tokens() ([]string, error) {
	symbols, err := r.load()
	if err != nil {
		return nil, err
	}
	if symbols == nil {
		symbols = []string{}
	}
	return symbols, nil
}
