package engine

import (
	"github.com/ericogr/encounters/internal/game"
	"github.com/ericogr/encounters/internal/reward"
)

// HeistRules are the payout and risk parameters, loaded from config.
type HeistRules struct {
	MinSize      int
	MaxSize      int
	SuccessRate  float64
	CaptureRate  float64
	RewardTotals []int64
}

// DefaultHeistRules matches the shipped game balance.
func DefaultHeistRules() HeistRules {
	return HeistRules{
		MinSize:      2,
		MaxSize:      4,
		SuccessRate:  0.65,
		CaptureRate:  0.30,
		RewardTotals: []int64{300, 450, 600, 900},
	}
}

// Payout maps a member to the loot they receive.
type Payout struct {
	PlayerID string
	Amount   int64
}

// HeistResult is the pure outcome of a heist roll; effects are applied by
// the caller.
type HeistResult struct {
	State    game.State
	Loot     int64
	Payouts  []Payout
	Captured []string
	Escaped  []string
}

// ResolveHeist rolls the outcome for members (organizer first). The robbery
// variant rolls capture per member; every other party rolls once for all.
func ResolveHeist(members []string, variant game.HeistVariant, rules HeistRules, dice reward.Dice) HeistResult {
	if variant == game.VariantRobbery && len(members) == 2 {
		return resolveRobbery(members, rules, dice)
	}
	if !reward.Succeeds(dice, rules.SuccessRate) {
		return HeistResult{State: game.StateFailure, Captured: append([]string(nil), members...)}
	}
	loot := reward.Pick(dice, rules.RewardTotals)
	return HeistResult{
		State:   game.StateSuccess,
		Loot:    loot,
		Payouts: split(members, loot),
		Escaped: append([]string(nil), members...),
	}
}

func resolveRobbery(members []string, rules HeistRules, dice reward.Dice) HeistResult {
	var captured, escaped []string
	for _, m := range members {
		if reward.Succeeds(dice, rules.CaptureRate) {
			captured = append(captured, m)
		} else {
			escaped = append(escaped, m)
		}
	}
	res := HeistResult{Captured: captured, Escaped: escaped}
	switch len(escaped) {
	case 0:
		res.State = game.StateBothCaptured
	case 1:
		// The lone escapee keeps the whole haul.
		res.State = game.StatePartialFailure
		res.Loot = reward.Pick(dice, rules.RewardTotals)
		res.Payouts = []Payout{{PlayerID: escaped[0], Amount: res.Loot}}
	default:
		res.State = game.StateSuccess
		res.Loot = reward.Pick(dice, rules.RewardTotals)
		res.Payouts = split(escaped, res.Loot)
	}
	return res
}

func split(members []string, loot int64) []Payout {
	shares := reward.DistributeFairly(loot, len(members))
	out := make([]Payout, len(members))
	for i, m := range members {
		out[i] = Payout{PlayerID: m, Amount: shares[i]}
	}
	return out
}
