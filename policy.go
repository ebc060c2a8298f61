package authcore

// Action names an operation checked through [Can]. Actions deliberately
// cover only the checks the engine and middleware need; callers guarding
// their own routes reuse the same vocabulary.
type Action string

const (
	// ActionManageUsers is an exported constant or variable used by the authentication engine.
	ActionManageUsers Action = "manage_users"
	// ActionRestoreIdentity is an exported constant or variable used by the authentication engine.
	ActionRestoreIdentity Action = "restore_identity"
	// ActionReadIdentity is an exported constant or variable used by the authentication engine.
	ActionReadIdentity Action = "read_identity"
	// ActionUpdateIdentity is an exported constant or variable used by the authentication engine.
	ActionUpdateIdentity Action = "update_identity"
)

// Can reports whether the actor may perform the action. Admins pass every
// check; regular users pass only read and update checks against their own
// identity. There is no role inheritance: the decision depends on nothing
// but the actor's role claim and the target's ID.
//
//	Docs: docs/engine.md
func Can(actor Claims, action Action, target *Identity) bool {
	if actor.Role == RoleAdmin {
		return true
	}

	switch action {
	case ActionReadIdentity, ActionUpdateIdentity:
		return target != nil && target.ID == actor.UserID
	default:
		return false
	}
}
