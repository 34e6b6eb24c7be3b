package metatable

// Gate is the externally supplied permission collaborator. Every import,
// export, and column mutation consults it before touching data.
type Gate interface {
	CanView(actor string, tableID int64) bool
	CanEdit(actor string, tableID int64) bool
}

// AllowAll is a Gate that permits everything. Useful for tests and for
// embedding contexts that enforce permissions upstream.
type AllowAll struct{}

func (AllowAll) CanView(string, int64) bool { return true }
func (AllowAll) CanEdit(string, int64) bool { return true }

// CheckView returns ErrPermissionDenied when the gate refuses view access.
// A nil gate permits everything.
func CheckView(g Gate, actor string, tableID int64) error {
	if g != nil && !g.CanView(actor, tableID) {
		return ErrPermissionDenied
	}
	return nil
}

// CheckEdit returns ErrPermissionDenied when the gate refuses edit access.
func CheckEdit(g Gate, actor string, tableID int64) error {
	if g != nil && !g.CanEdit(actor, tableID) {
		return ErrPermissionDenied
	}
	return nil
}
