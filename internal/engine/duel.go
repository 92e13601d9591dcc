package engine

import (
	"math"

	"github.com/ericogr/encounters/internal/game"
	"github.com/ericogr/encounters/internal/reward"
)

// DuelRules are the combat tuning values, loaded from config.
type DuelRules struct {
	MaxHP         int
	AttackMin     int
	AttackMax     int
	SpecialMin    int
	SpecialMax    int
	DefendFactor  float64
	FirstTurnRate float64
}

// DefaultDuelRules matches the shipped game balance.
func DefaultDuelRules() DuelRules {
	return DuelRules{
		MaxHP:         100,
		AttackMin:     10,
		AttackMax:     25,
		SpecialMin:    25,
		SpecialMax:    45,
		DefendFactor:  0.4,
		FirstTurnRate: 0.5,
	}
}

// NewDuel builds the combat state for two players at full HP.
func NewDuel(challenger, target string, rules DuelRules) *game.Duel {
	return &game.Duel{
		Fighters: [2]game.DuelParticipant{
			{PlayerID: challenger, HP: rules.MaxHP, MaxHP: rules.MaxHP},
			{PlayerID: target, HP: rules.MaxHP, MaxHP: rules.MaxHP},
		},
	}
}

// StartDuel flips the coin for the first turn. The challenger moves first
// when the roll lands under FirstTurnRate.
func StartDuel(d *game.Duel, rules DuelRules, dice reward.Dice) {
	if reward.Succeeds(dice, rules.FirstTurnRate) {
		d.Turn = 0
	} else {
		d.Turn = 1
	}
	d.TurnNumber = 1
}

// AvailableDuelActions lists what playerID may submit right now.
func AvailableDuelActions(d *game.Duel, playerID string) []string {
	f, idx := d.Fighter(playerID)
	if f == nil || idx != d.Turn || d.Winner != "" {
		return nil
	}
	out := []string{string(game.ActionAttack), string(game.ActionDefend)}
	if !f.SpecialUsed {
		out = append(out, string(game.ActionSpecial))
	}
	return out
}

// ApplyDuelAction resolves one action for actor. It validates turn order,
// applies damage or stance, flips the turn and sets Winner/Loser when the
// target's HP reaches zero. The duel is not modified when an error is returned.
func ApplyDuelAction(d *game.Duel, actor string, action game.DuelAction, rules DuelRules, dice reward.Dice) (*game.TurnResult, error) {
	if d.Winner != "" {
		return nil, game.ErrInvalidState
	}
	self, idx := d.Fighter(actor)
	if self == nil {
		return nil, game.ErrNotParticipant
	}
	if idx != d.Turn {
		return nil, game.ErrNotYourTurn
	}
	other := &d.Fighters[1-idx]

	res := &game.TurnResult{Actor: actor, Target: other.PlayerID, Action: action}
	switch action {
	case game.ActionAttack:
		res.Rolled = reward.RollRange(dice, rules.AttackMin, rules.AttackMax)
		strike(res, self, other, rules)
	case game.ActionSpecial:
		if self.SpecialUsed {
			return nil, game.ErrSpecialUsed
		}
		res.Rolled = reward.RollRange(dice, rules.SpecialMin, rules.SpecialMax)
		self.SpecialUsed = true
		strike(res, self, other, rules)
	case game.ActionDefend:
		self.IsDefending = true
	default:
		return nil, game.ErrInvalidAction
	}
	res.TargetHP = other.HP

	d.Turn = 1 - idx
	d.TurnNumber++
	d.LastTurn = res

	for i := range d.Fighters {
		if d.Fighters[i].HP <= 0 {
			d.Fighters[i].HP = 0
			d.Loser = d.Fighters[i].PlayerID
			d.Winner = d.Fighters[1-i].PlayerID
			break
		}
	}
	return res, nil
}

// strike applies rolled damage to target, reduced when the target is
// defending, and drops both stances.
func strike(res *game.TurnResult, self, target *game.DuelParticipant, rules DuelRules) {
	dmg := res.Rolled
	if target.IsDefending {
		dmg = int(math.Floor(float64(dmg) * rules.DefendFactor))
		res.Reduced = true
	}
	if dmg < 0 {
		dmg = 0
	}
	target.HP -= dmg
	if target.HP < 0 {
		target.HP = 0
	}
	if target.HP > target.MaxHP {
		target.HP = target.MaxHP
	}
	res.Damage = dmg
	self.IsDefending = false
	target.IsDefending = false
}
