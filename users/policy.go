// Package users provides user record management: listing, retrieval,
// update, and deletion, gated by the ownership policy.
package users

// Action enumerates the operations the ownership policy decides on.
type Action string

const (
	// ActionView is reading a single user record.
	ActionView Action = "view"
	// ActionUpdate is modifying a user record.
	ActionUpdate Action = "update"
	// ActionDelete is removing a user record.
	ActionDelete Action = "delete"
)

// Decision is the outcome of an ownership check. Reason is only set on
// denials.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow is the positive decision.
var Allow = Decision{Allowed: true}

// Deny constructs a denial with a human-readable reason.
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Can decides whether an actor may perform an action on a target user
// record: allowed iff the actor is the record's owner. Pure function, no
// side effects, no I/O.
func Can(action Action, actorID, targetID int) Decision {
	if actorID == targetID {
		return Allow
	}
	switch action {
	case ActionView:
		return Deny("You can not view this user.")
	case ActionUpdate:
		return Deny("You can not edit this user.")
	case ActionDelete:
		return Deny("You can not delete this user.")
	default:
		return Deny("You can not perform this action.")
	}
}
