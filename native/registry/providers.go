package registry

import (
	"travelledger/core/events"
)

var providerSetKey = []byte("registry/providers")

// ProviderRegistry manages the set of addresses authorised to receive travel
// payments and to issue refunds. Refund authority is membership-scoped, not
// payment-scoped: any current provider may refund any payment.
type ProviderRegistry struct {
	st      registryState
	access  *AccessControl
	emitter events.Emitter
}

// NewProviderRegistry creates a provider registry gated by the provided access
// control and seeds the admin address as the first provider.
func NewProviderRegistry(st registryState, access *AccessControl) (*ProviderRegistry, error) {
	r := &ProviderRegistry{st: st, access: access, emitter: events.NoopEmitter{}}
	admin := access.Admin()
	providers, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, p := range providers {
		if p == admin {
			return r, nil
		}
	}
	providers = append(providers, admin)
	if err := r.store(providers); err != nil {
		return nil, err
	}
	return r, nil
}

// SetEmitter configures the event emitter used to broadcast registry updates.
// Passing nil resets the emitter to a no-op implementation.
func (r *ProviderRegistry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

func (r *ProviderRegistry) load() ([][20]byte, error) {
	if r == nil || r.st == nil {
		return nil, errNilState
	}
	var raw [][]byte
	if _, err := r.st.KVGet(providerSetKey, &raw); err != nil {
		return nil, err
	}
	providers := make([][20]byte, 0, len(raw))
	for _, b := range raw {
		var addr [20]byte
		copy(addr[:], b)
		providers = append(providers, addr)
	}
	return providers, nil
}

func (r *ProviderRegistry) store(providers [][20]byte) error {
	raw := make([][]byte, len(providers))
	for i, p := range providers {
		raw[i] = append([]byte(nil), p[:]...)
	}
	return r.st.KVPut(providerSetKey, raw)
}

// AddProvider authorises an address as a provider. Idempotent; re-adding an
// existing provider still emits the added event.
func (r *ProviderRegistry) AddProvider(caller, provider [20]byte) error {
	if err := r.access.Require(caller); err != nil {
		return err
	}
	if provider == ([20]byte{}) {
		return ErrEmptyProvider
	}
	providers, err := r.load()
	if err != nil {
		return err
	}
	present := false
	for _, p := range providers {
		if p == provider {
			present = true
			break
		}
	}
	if !present {
		providers = append(providers, provider)
		if err := r.store(providers); err != nil {
			return err
		}
	}
	r.emitter.Emit(events.ProviderAdded{Provider: provider, Admin: caller})
	return nil
}

// RemoveProvider revokes a provider authorisation.
func (r *ProviderRegistry) RemoveProvider(caller, provider [20]byte) error {
	if err := r.access.Require(caller); err != nil {
		return err
	}
	providers, err := r.load()
	if err != nil {
		return err
	}
	idx := -1
	for i, p := range providers {
		if p == provider {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrProviderNotFound
	}
	providers = append(providers[:idx], providers[idx+1:]...)
	if err := r.store(providers); err != nil {
		return err
	}
	r.emitter.Emit(events.ProviderRemoved{Provider: provider, Admin: caller})
	return nil
}

// IsProvider reports whether the address is currently authorised.
func (r *ProviderRegistry) IsProvider(addr [20]byte) bool {
	providers, err := r.load()
	if err != nil {
		return false
	}
	for _, p := range providers {
		if p == addr {
			return true
		}
	}
	return false
}

// Providers returns the authorised addresses in registration order.
func (r *ProviderRegistry) Providers() ([][20]byte, error) {
	return r.load()
}
