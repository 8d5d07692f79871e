package registry

// AccessControl holds the single admin identity fixed at construction. It
// gates every registry mutation; there is no admin transfer.
type AccessControl struct {
	admin [20]byte
}

// NewAccessControl creates the authorization gate for the given admin address.
func NewAccessControl(admin [20]byte) *AccessControl {
	return &AccessControl{admin: admin}
}

// Admin returns the configured admin address.
func (a *AccessControl) Admin() [20]byte {
	if a == nil {
		return [20]byte{}
	}
	return a.admin
}

// Require returns ErrNotAdmin unless the caller is the configured admin.
func (a *AccessControl) Require(caller [20]byte) error {
	if a == nil || caller != a.admin {
		return ErrNotAdmin
	}
	return nil
}
