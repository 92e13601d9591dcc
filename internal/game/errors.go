package game

import "errors"

// Reason is the machine-readable code reported back to a player whose
// action was rejected.
type Reason string

const (
	ReasonAlreadyActive     Reason = "already_active"
	ReasonNotParticipant    Reason = "not_participant"
	ReasonNotYourTurn       Reason = "not_your_turn"
	ReasonInsufficientFunds Reason = "insufficient_funds"
	ReasonTargetJailed      Reason = "target_jailed"
	ReasonSelfJailed        Reason = "self_jailed"
	ReasonInvalidTarget     Reason = "invalid_target"
	ReasonExpired           Reason = "expired"
	ReasonTimedOut          Reason = "timed_out"
	ReasonCapacityExceeded  Reason = "capacity_exceeded"
	ReasonNoLongerPending   Reason = "no_longer_pending"
	ReasonSpecialUsed       Reason = "special_used"
	ReasonAlreadyMember     Reason = "already_member"
	ReasonNotOrganizer      Reason = "not_organizer"
	ReasonInvalidAction     Reason = "invalid_action"
	ReasonInvalidPartySize  Reason = "invalid_party_size"
	ReasonNotFound          Reason = "not_found"
	ReasonOnCooldown        Reason = "on_cooldown"
	ReasonInvalidState      Reason = "invalid_state"
)

// Rejection is a user-recoverable refusal of an action.
type Rejection struct {
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string { return r.Message }

func reject(reason Reason, msg string) *Rejection {
	return &Rejection{Reason: reason, Message: msg}
}

var (
	ErrAlreadyActive     = reject(ReasonAlreadyActive, "an encounter between these players is already active")
	ErrNotParticipant    = reject(ReasonNotParticipant, "player is not part of this encounter")
	ErrNotYourTurn       = reject(ReasonNotYourTurn, "it is not your turn")
	ErrInsufficientFunds = reject(ReasonInsufficientFunds, "insufficient funds")
	ErrTargetJailed      = reject(ReasonTargetJailed, "target is jailed")
	ErrSelfJailed        = reject(ReasonSelfJailed, "you are jailed")
	ErrInvalidTarget     = reject(ReasonInvalidTarget, "invalid target")
	ErrExpired           = reject(ReasonExpired, "encounter expired")
	ErrTimedOut          = reject(ReasonTimedOut, "encounter timed out")
	ErrCapacityExceeded  = reject(ReasonCapacityExceeded, "party is full")
	ErrNoLongerPending   = reject(ReasonNoLongerPending, "challenge no longer pending")
	ErrSpecialUsed       = reject(ReasonSpecialUsed, "special already used this duel")
	ErrAlreadyMember     = reject(ReasonAlreadyMember, "player already joined this heist")
	ErrNotOrganizer      = reject(ReasonNotOrganizer, "only the organizer may do this")
	ErrInvalidAction     = reject(ReasonInvalidAction, "invalid action")
	ErrInvalidPartySize  = reject(ReasonInvalidPartySize, "invalid party size")
	ErrNotFound          = reject(ReasonNotFound, "encounter not found")
	ErrOnCooldown        = reject(ReasonOnCooldown, "action is on cooldown")
	ErrInvalidState      = reject(ReasonInvalidState, "action not allowed in the current state")
)

// ReasonOf extracts the rejection code from err, or "" when err is not a
// rejection (an internal failure).
func ReasonOf(err error) Reason {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason
	}
	return ""
}
