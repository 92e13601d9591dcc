package service

import (
	"context"
	"strings"

	"github.com/ericogr/encounters/internal/challenge"
	"github.com/ericogr/encounters/internal/constants"
	"github.com/ericogr/encounters/internal/engine"
	"github.com/ericogr/encounters/internal/game"
	"github.com/ericogr/encounters/internal/keys"
	"github.com/ericogr/encounters/internal/logging"
)

// ChallengeDuel registers a duel between challenger and target and waits
// for the target's answer. The challenger's stake is only checked here; both
// stakes are escrowed when the target accepts.
func (e *Encounters) ChallengeDuel(ctx context.Context, challenger, target string, wager int64) (*game.Snapshot, error) {
	challenger, target = strings.TrimSpace(challenger), strings.TrimSpace(target)
	if challenger == "" || target == "" || challenger == target {
		return nil, game.ErrInvalidTarget
	}
	if wager < 0 || (e.cfg.MaxWager > 0 && wager > e.cfg.MaxWager) {
		return nil, game.ErrInvalidAction
	}
	if err := e.checkCooldown(challenger, constants.ActionTypeDuel); err != nil {
		return nil, err
	}
	if err := e.checkJailed(ctx, challenger, game.ErrSelfJailed); err != nil {
		return nil, err
	}
	if err := e.checkJailed(ctx, target, game.ErrTargetJailed); err != nil {
		return nil, err
	}
	if err := e.checkFunds(ctx, challenger, wager); err != nil {
		return nil, err
	}

	now := e.deps.Now()
	sess := &game.Session{
		Key:          keys.PairKey(challenger, target),
		Kind:         game.KindDuel,
		State:        game.StateChallenged,
		Participants: []string{challenger, target},
		CreatedAt:    now,
		Wager:        wager,
		Duel:         engine.NewDuel(challenger, target, e.cfg.Duel),
	}
	a := newActor(e, sess)
	if err := e.register(a, challenger, constants.ActionTypeDuel); err != nil {
		return nil, err
	}
	a.handle = e.challenges.Propose(challenger, target, sess.Key, e.cfg.ChallengeWindow, func(*challenge.Challenge) {
		a.post(command{kind: cmdExpire})
	})
	sess.ExpiresAt = a.handle.ExpiresAt
	snap := a.snapshot()
	// Published before the loop runs so no turn event can precede it.
	e.deps.Events.OnSessionStarted(snap)
	a.start()

	logging.Info("duel challenge issued", logging.Fields{
		constants.LogFieldSessionKey: sess.Key,
		constants.LogFieldPlayerID:   challenger,
		constants.LogFieldTarget:     target,
		constants.LogFieldAmount:     wager,
	})
	return snap, nil
}

// RespondDuel accepts or declines a pending challenge on behalf of playerID.
// A challenge that already expired or was settled is no longer pending.
func (e *Encounters) RespondDuel(ctx context.Context, key, playerID string, accept bool) (*game.Snapshot, error) {
	a, err := e.lookup(key, game.KindDuel)
	if err != nil {
		return nil, game.ErrNoLongerPending
	}
	r := a.send(command{kind: cmdRespond, ctx: ctx, playerID: playerID, accept: accept})
	return r.snap, r.err
}

// SubmitDuelAction plays one turn for playerID.
func (e *Encounters) SubmitDuelAction(ctx context.Context, key, playerID, action string) (*game.Snapshot, error) {
	act, err := game.ParseDuelAction(action)
	if err != nil {
		return nil, err
	}
	a, err := e.lookup(key, game.KindDuel)
	if err != nil {
		return nil, err
	}
	r := a.send(command{kind: cmdAction, ctx: ctx, playerID: playerID, action: act})
	return r.snap, r.err
}

func (a *actor) respond(ctx context.Context, playerID string, accept bool) error {
	s := a.sess
	if s.Kind != game.KindDuel {
		return game.ErrInvalidAction
	}
	if s.State != game.StateChallenged {
		return game.ErrNoLongerPending
	}
	if accept && a.handle.Target == playerID {
		if err := a.svc.checkJailed(ctx, playerID, game.ErrSelfJailed); err != nil {
			return err
		}
	}
	if err := a.svc.challenges.Respond(a.handle, playerID, accept); err != nil {
		return err
	}
	if !accept {
		a.end(&game.Outcome{State: game.StateDeclined})
		return nil
	}

	s.State = game.StateAccepted
	if s.Wager > 0 {
		if err := a.escrow(ctx); err != nil {
			out := &game.Outcome{State: game.StateAborted, Reason: string(game.ReasonOf(err))}
			a.refundEscrow(ctx, out)
			a.end(out)
			return err
		}
	}

	engine.StartDuel(s.Duel, a.svc.cfg.Duel, a.svc.deps.Dice)
	s.State = game.StateInProgress
	s.ExpiresAt = a.svc.deps.Now().Add(a.svc.cfg.TurnWindow)
	a.arm()
	logging.Info("duel accepted", logging.Fields{
		constants.LogFieldSessionKey: s.Key,
		constants.LogFieldPlayerID:   s.Duel.Fighters[s.Duel.Turn].PlayerID,
	})
	a.notify()
	return nil
}

// escrow debits both stakes. A debit that fails leaves the stakes taken so
// far in escrowed for the caller to refund.
func (a *actor) escrow(ctx context.Context) error {
	for _, p := range a.sess.Participants {
		if err := a.svc.checkFunds(ctx, p, a.sess.Wager); err != nil {
			return err
		}
		if err := a.svc.deps.Economy.Debit(ctx, p, a.sess.Wager); err != nil {
			logging.Warn("wager escrow failed", logging.Fields{
				constants.LogFieldSessionKey: a.sess.Key,
				constants.LogFieldPlayerID:   p,
				constants.LogFieldAmount:     a.sess.Wager,
			})
			return game.ErrInsufficientFunds
		}
		a.escrowed[p] = a.sess.Wager
	}
	return nil
}

func (a *actor) refundEscrow(ctx context.Context, out *game.Outcome) {
	for _, p := range a.sess.Participants {
		amt := a.escrowed[p]
		if amt == 0 {
			continue
		}
		delete(a.escrowed, p)
		a.deliver(out, p, game.EffectRefund, amt, func() error {
			return a.svc.deps.Economy.Credit(ctx, p, amt)
		})
	}
}

func (a *actor) act(playerID string, action game.DuelAction) error {
	s := a.sess
	if s.Kind != game.KindDuel {
		return game.ErrInvalidAction
	}
	if !s.IsParticipant(playerID) {
		return game.ErrNotParticipant
	}
	if s.State != game.StateInProgress {
		return game.ErrInvalidState
	}
	res, err := engine.ApplyDuelAction(s.Duel, playerID, action, a.svc.cfg.Duel, a.svc.deps.Dice)
	if err != nil {
		return err
	}
	logging.Debug("duel turn resolved", logging.Fields{
		constants.LogFieldSessionKey: s.Key,
		constants.LogFieldPlayerID:   playerID,
		constants.LogFieldAction:     action,
		constants.LogFieldAmount:     res.Damage,
	})
	if s.Duel.Winner != "" {
		a.duelWon()
		return nil
	}
	s.ExpiresAt = a.svc.deps.Now().Add(a.svc.cfg.TurnWindow)
	a.arm()
	a.notify()
	return nil
}

func (a *actor) duelTimedOut() {
	if a.sess.State != game.StateInProgress {
		return
	}
	out := &game.Outcome{State: game.StateTimedOut, Reason: string(game.ReasonTimedOut)}
	ctx, cancel := a.effectCtx()
	defer cancel()
	a.refundEscrow(ctx, out)
	a.end(out)
}

// duelWon grants XP to both duelists and pays the pot. A pot the winner
// cannot receive goes back to the duelists stake by stake.
func (a *actor) duelWon() {
	d := a.sess.Duel
	cfg := a.svc.cfg
	out := &game.Outcome{State: game.StateWon, Winner: d.Winner}
	ctx, cancel := a.effectCtx()
	defer cancel()

	a.grantXP(ctx, out, d.Winner, cfg.DuelXPWinner)
	a.grantXP(ctx, out, d.Loser, cfg.DuelXPLoser)

	pot := a.escrowed[d.Winner] + a.escrowed[d.Loser]
	if pot > 0 {
		ok := a.deliver(out, d.Winner, game.EffectCredit, pot, func() error {
			return a.svc.deps.Economy.Credit(ctx, d.Winner, pot)
		})
		if ok {
			a.escrowed = make(map[string]int64)
		} else {
			a.refundEscrow(ctx, out)
		}
	}
	a.end(out)
}

func (a *actor) grantXP(ctx context.Context, out *game.Outcome, playerID string, amount int64) {
	if amount <= 0 || a.svc.deps.Progression == nil {
		return
	}
	var lvl game.LevelResult
	ok := a.deliver(out, playerID, game.EffectXP, amount, func() error {
		var err error
		lvl, err = a.svc.deps.Progression.GrantXP(ctx, playerID, amount)
		return err
	})
	if ok && lvl.LeveledUp {
		logging.Info("player leveled up", logging.Fields{
			constants.LogFieldPlayerID: playerID,
			constants.LogFieldAmount:   lvl.NewLevel,
		})
	}
}
