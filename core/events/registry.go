package events

import "travelledger/core/types"

const (
	TypeTokenAdded      = "registry.token.added"
	TypeTokenRemoved    = "registry.token.removed"
	TypeProviderAdded   = "registry.provider.added"
	TypeProviderRemoved = "registry.provider.removed"
)

// TokenAdded records the admin registering a token as an accepted payment
// unit. Re-adding an already supported token emits the event again without
// changing state.
type TokenAdded struct {
	Symbol string
	Admin  [20]byte
}

// EventType satisfies the events.Event interface.
func (TokenAdded) EventType() string { return TypeTokenAdded }

// Event converts the structured payload into a wire-friendly representation.
func (e TokenAdded) Event() *types.Event {
	return &types.Event{Type: TypeTokenAdded, Attributes: map[string]string{
		"token": e.Symbol,
		"admin": hexAddr(e.Admin),
	}}
}

// TokenRemoved records the admin withdrawing a token from the accepted set.
// Past payments referencing the token stay valid.
type TokenRemoved struct {
	Symbol string
	Admin  [20]byte
}

// EventType satisfies the events.Event interface.
func (TokenRemoved) EventType() string { return TypeTokenRemoved }

// Event converts the structured payload into a wire-friendly representation.
func (e TokenRemoved) Event() *types.Event {
	return &types.Event{Type: TypeTokenRemoved, Attributes: map[string]string{
		"token": e.Symbol,
		"admin": hexAddr(e.Admin),
	}}
}

// ProviderAdded records the admin authorising an address to receive payments
// and issue refunds.
type ProviderAdded struct {
	Provider [20]byte
	Admin    [20]byte
}

// EventType satisfies the events.Event interface.
func (ProviderAdded) EventType() string { return TypeProviderAdded }

// Event converts the structured payload into a wire-friendly representation.
func (e ProviderAdded) Event() *types.Event {
	return &types.Event{Type: TypeProviderAdded, Attributes: map[string]string{
		"provider": hexAddr(e.Provider),
		"admin":    hexAddr(e.Admin),
	}}
}

// ProviderRemoved records the admin revoking a provider authorisation.
type ProviderRemoved struct {
	Provider [20]byte
	Admin    [20]byte
}

// EventType satisfies the events.Event interface.
func (ProviderRemoved) EventType() string { return TypeProviderRemoved }

// Event converts the structured payload into a wire-friendly representation.
func (e ProviderRemoved) Event() *types.Event {
	return &types.Event{Type: TypeProviderRemoved, Attributes: map[string]string{
		"provider": hexAddr(e.Provider),
		"admin":    hexAddr(e.Admin),
	}}
}
