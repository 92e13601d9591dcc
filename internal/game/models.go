package game

import (
	"time"
)

// Kind distinguishes the two encounter engines.
type Kind string

const (
	KindDuel  Kind = "duel"
	KindHeist Kind = "heist"
)

// State is the lifecycle position of a session. Duels and heists share the
// type; each engine only ever uses its own subset.
type State string

const (
	// Duel states
	StateChallenged State = "challenged"
	StateAccepted   State = "accepted"
	StateInProgress State = "in_progress"
	StateWon        State = "won"
	StateTimedOut   State = "timed_out"
	StateDeclined   State = "declined"

	// Heist states
	StateForming        State = "forming"
	StateActive         State = "active"
	StateResolving      State = "resolving"
	StateSuccess        State = "success"
	StatePartialFailure State = "partial_failure"
	StateFailure        State = "failure"
	StateBothCaptured   State = "both_captured"
	StateCancelled      State = "cancelled"

	// Shared
	StateExpired State = "expired"
	StateAborted State = "aborted"
)

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	switch s {
	case StateWon, StateTimedOut, StateDeclined, StateExpired, StateAborted,
		StateSuccess, StatePartialFailure, StateFailure, StateBothCaptured, StateCancelled:
		return true
	}
	return false
}

// DuelAction is one of the three moves a duelist can submit on their turn.
type DuelAction string

const (
	ActionAttack  DuelAction = "attack"
	ActionDefend  DuelAction = "defend"
	ActionSpecial DuelAction = "special"
)

// ParseDuelAction validates a client-supplied action name.
func ParseDuelAction(s string) (DuelAction, error) {
	switch a := DuelAction(s); a {
	case ActionAttack, ActionDefend, ActionSpecial:
		return a, nil
	}
	return "", ErrInvalidAction
}

// HeistVariant selects the payout rules applied at resolution.
type HeistVariant string

const (
	VariantCooperative HeistVariant = "cooperative"
	// VariantRobbery is the two-party heist with independent capture rolls.
	VariantRobbery HeistVariant = "robbery"
)

// ParseHeistVariant accepts an empty string as cooperative.
func ParseHeistVariant(s string) (HeistVariant, error) {
	switch v := HeistVariant(s); v {
	case "":
		return VariantCooperative, nil
	case VariantCooperative, VariantRobbery:
		return v, nil
	}
	return "", ErrInvalidAction
}

// DuelParticipant is the combat view of one duelist.
// Invariant: 0 <= HP <= MaxHP.
type DuelParticipant struct {
	PlayerID    string `json:"player_id"`
	HP          int    `json:"hp"`
	MaxHP       int    `json:"max_hp"`
	IsDefending bool   `json:"is_defending"`
	SpecialUsed bool   `json:"special_used"`
}

// Duel holds the turn-engine state of a duel session.
type Duel struct {
	Fighters [2]DuelParticipant `json:"fighters"`
	// Turn indexes Fighters; it is the only participant allowed to act.
	Turn       int         `json:"turn"`
	TurnNumber int         `json:"turn_number"`
	LastTurn   *TurnResult `json:"last_turn,omitempty"`
	Winner     string      `json:"winner,omitempty"`
	Loser      string      `json:"loser,omitempty"`
}

// Fighter returns the participant for playerID and its index.
func (d *Duel) Fighter(playerID string) (*DuelParticipant, int) {
	for i := range d.Fighters {
		if d.Fighters[i].PlayerID == playerID {
			return &d.Fighters[i], i
		}
	}
	return nil, -1
}

// TurnResult describes one resolved duel action.
type TurnResult struct {
	Actor    string     `json:"actor"`
	Target   string     `json:"target"`
	Action   DuelAction `json:"action"`
	Rolled   int        `json:"rolled"`
	Damage   int        `json:"damage"`
	Reduced  bool       `json:"reduced"`
	TargetHP int        `json:"target_hp"`
}

// HeistParty is the party-formation view of a heist session.
// Invariant: len(Members) <= RequiredSize.
type HeistParty struct {
	Organizer    string       `json:"organizer"`
	RequiredSize int          `json:"required_size"`
	Members      []string     `json:"members"`
	EntryFee     int64        `json:"entry_fee"`
	Variant      HeistVariant `json:"variant"`
}

// Has reports whether playerID already joined.
func (p *HeistParty) Has(playerID string) bool {
	for _, m := range p.Members {
		if m == playerID {
			return true
		}
	}
	return false
}

// Full reports whether the party reached its required size.
func (p *HeistParty) Full() bool {
	return len(p.Members) >= p.RequiredSize
}

// Session is one live encounter. Only the goroutine driving the session
// mutates it; everything handed outside is a Clone.
type Session struct {
	Key          string      `json:"key"`
	Kind         Kind        `json:"kind"`
	State        State       `json:"state"`
	Participants []string    `json:"participants"`
	CreatedAt    time.Time   `json:"created_at"`
	ExpiresAt    time.Time   `json:"expires_at"`
	Wager        int64       `json:"wager,omitempty"`
	Duel         *Duel       `json:"duel,omitempty"`
	Heist        *HeistParty `json:"heist,omitempty"`
}

// IsParticipant reports whether playerID belongs to the session.
func (s *Session) IsParticipant(playerID string) bool {
	for _, p := range s.Participants {
		if p == playerID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Participants = append([]string(nil), s.Participants...)
	if s.Duel != nil {
		d := *s.Duel
		if s.Duel.LastTurn != nil {
			lt := *s.Duel.LastTurn
			d.LastTurn = &lt
		}
		c.Duel = &d
	}
	if s.Heist != nil {
		h := *s.Heist
		h.Members = append([]string(nil), s.Heist.Members...)
		c.Heist = &h
	}
	return &c
}

// Snapshot is what presentation layers render: the session state plus the
// actions each participant may submit right now.
type Snapshot struct {
	Session          *Session            `json:"session"`
	AvailableActions map[string][]string `json:"available_actions"`
}

// Grant is one economic effect computed at a terminal state.
type Grant struct {
	PlayerID string `json:"player_id"`
	Effect   string `json:"effect"`
	Amount   int64  `json:"amount"`
}

// Effect names used in grants and delivery failures.
const (
	EffectCredit     = "credit"
	EffectDebit      = "debit"
	EffectItem       = "item"
	EffectXP         = "xp"
	EffectPunishment = "punishment"
	EffectWanted     = "wanted"
	EffectRefund     = "refund"
)

// DeliveryFailure records an effect that was computed but could not be
// applied by a collaborator. It never changes the session outcome.
type DeliveryFailure struct {
	PlayerID string `json:"player_id"`
	Effect   string `json:"effect"`
	Amount   int64  `json:"amount"`
	Err      string `json:"error"`
}

// LevelResult is returned by the progression collaborator after granting XP.
type LevelResult struct {
	NewLevel  int  `json:"new_level"`
	LeveledUp bool `json:"leveled_up"`
}

// Outcome summarizes how a session ended and which effects were dispatched.
type Outcome struct {
	State    State             `json:"state"`
	Winner   string            `json:"winner,omitempty"`
	Captured []string          `json:"captured,omitempty"`
	Escaped  []string          `json:"escaped,omitempty"`
	Loot     int64             `json:"loot,omitempty"`
	Grants   []Grant           `json:"grants,omitempty"`
	Failures []DeliveryFailure `json:"failures,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	EndedAt  time.Time         `json:"ended_at"`
}
