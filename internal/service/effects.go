package service

import (
	"github.com/ericogr/encounters/internal/constants"
	"github.com/ericogr/encounters/internal/game"
	"github.com/ericogr/encounters/internal/logging"
)

// deliver runs one collaborator call and records it on out: as a grant when
// it succeeds, as a delivery failure otherwise. Failures are not retried.
func (a *actor) deliver(out *game.Outcome, playerID, effect string, amount int64, apply func() error) bool {
	if err := apply(); err != nil {
		out.Failures = append(out.Failures, game.DeliveryFailure{
			PlayerID: playerID,
			Effect:   effect,
			Amount:   amount,
			Err:      err.Error(),
		})
		logging.Error("reward computed but delivery failed", err, logging.Fields{
			constants.LogFieldSessionKey: a.sess.Key,
			constants.LogFieldPlayerID:   playerID,
			constants.LogFieldEffect:     effect,
			constants.LogFieldAmount:     amount,
		})
		return false
	}
	out.Grants = append(out.Grants, game.Grant{PlayerID: playerID, Effect: effect, Amount: amount})
	return true
}
