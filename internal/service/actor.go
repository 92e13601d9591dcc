package service

import (
	"context"

	"github.com/ericogr/encounters/internal/challenge"
	"github.com/ericogr/encounters/internal/constants"
	"github.com/ericogr/encounters/internal/engine"
	"github.com/ericogr/encounters/internal/game"
	"github.com/ericogr/encounters/internal/logging"
	"github.com/ericogr/encounters/internal/scheduler"
)

type commandKind int

const (
	cmdSnapshot commandKind = iota
	cmdRespond
	cmdAction
	cmdJoin
	cmdCancel
	cmdTimeout
	cmdExpire
)

type command struct {
	kind     commandKind
	ctx      context.Context
	playerID string
	accept   bool
	action   game.DuelAction
	seq      uint64
	resp     chan reply
}

type reply struct {
	snap *game.Snapshot
	err  error
}

// actor is the single writer of one session. Everything that touches sess
// runs on the loop goroutine.
type actor struct {
	svc  *Encounters
	sess *game.Session

	inbox chan command
	done  chan struct{}

	// handle is the pending challenge (duel) or forming window (heist).
	handle *challenge.Challenge
	timer  scheduler.Timer
	seq    uint64

	// escrowed is the stake held per duelist while the duel runs.
	escrowed map[string]int64
	outcome  *game.Outcome
}

func newActor(svc *Encounters, sess *game.Session) *actor {
	return &actor{
		svc:      svc,
		sess:     sess,
		inbox:    make(chan command, 16),
		done:     make(chan struct{}),
		escrowed: make(map[string]int64),
	}
}

func (a *actor) start() {
	a.svc.wg.Add(1)
	go a.loop()
}

func (a *actor) loop() {
	defer a.svc.wg.Done()
	for {
		select {
		case cmd := <-a.inbox:
			r := a.dispatch(cmd)
			if cmd.resp != nil {
				cmd.resp <- r
			}
		case <-a.svc.ctx.Done():
			a.abort("shutdown")
		}
		if a.sess.State.Terminal() {
			a.finish()
			return
		}
	}
}

func (a *actor) dispatch(cmd command) reply {
	if cmd.ctx == nil {
		cmd.ctx = a.svc.ctx
	}
	var err error
	switch cmd.kind {
	case cmdSnapshot:
		return reply{snap: a.snapshot()}
	case cmdTimeout:
		if cmd.seq != a.seq || a.sess.State.Terminal() {
			return reply{}
		}
		a.onTimeout()
		return reply{}
	case cmdExpire:
		if !a.sess.State.Terminal() {
			a.onExpire()
		}
		return reply{}
	case cmdRespond:
		err = a.respond(cmd.ctx, cmd.playerID, cmd.accept)
	case cmdAction:
		err = a.act(cmd.playerID, cmd.action)
	case cmdJoin:
		err = a.join(cmd.ctx, cmd.playerID)
	case cmdCancel:
		err = a.cancelHeist(cmd.playerID)
	default:
		err = game.ErrInvalidAction
	}
	if err != nil {
		return reply{err: err}
	}
	return reply{snap: a.snapshot()}
}

// send delivers cmd and waits for its reply. Once the session is gone the
// caller gets an error describing how it ended.
func (a *actor) send(cmd command) reply {
	cmd.resp = make(chan reply, 1)
	select {
	case a.inbox <- cmd:
	case <-a.done:
		return reply{err: a.endedErr(cmd.kind)}
	}
	select {
	case r := <-cmd.resp:
		return r
	case <-a.done:
		select {
		case r := <-cmd.resp:
			return r
		default:
			return reply{err: a.endedErr(cmd.kind)}
		}
	}
}

// post is the fire-and-forget form used by timer callbacks.
func (a *actor) post(cmd command) {
	select {
	case a.inbox <- cmd:
	case <-a.done:
	}
}

// endedErr is only called after done is closed, so outcome is safe to read.
func (a *actor) endedErr(kind commandKind) error {
	switch {
	case a.outcome == nil:
		return game.ErrNotFound
	case kind == cmdRespond || kind == cmdJoin:
		return game.ErrNoLongerPending
	case a.outcome.State == game.StateTimedOut:
		return game.ErrTimedOut
	case a.outcome.State == game.StateExpired:
		return game.ErrExpired
	}
	return game.ErrInvalidState
}

// arm replaces the session deadline. A timeout from an earlier deadline is
// recognized by its sequence number and ignored.
func (a *actor) arm() {
	a.disarm()
	a.seq++
	seq := a.seq
	d := a.sess.ExpiresAt.Sub(a.svc.deps.Now())
	a.timer = a.svc.deps.Scheduler.AfterFunc(d, func() {
		a.post(command{kind: cmdTimeout, seq: seq})
	})
}

func (a *actor) disarm() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *actor) onTimeout() {
	switch a.sess.Kind {
	case game.KindDuel:
		a.duelTimedOut()
	case game.KindHeist:
		a.resolveHeist()
	}
}

func (a *actor) onExpire() {
	switch a.sess.State {
	case game.StateChallenged, game.StateForming:
		a.end(&game.Outcome{State: game.StateExpired, Reason: string(game.ReasonExpired)})
	}
}

// abort ends a non-terminal session without a result, returning escrow.
func (a *actor) abort(reason string) {
	if a.sess.State.Terminal() {
		return
	}
	if a.handle != nil {
		a.svc.challenges.Cancel(a.handle)
	}
	out := &game.Outcome{State: game.StateAborted, Reason: reason}
	ctx, cancel := context.WithTimeout(context.Background(), a.svc.cfg.EffectTimeout)
	defer cancel()
	a.refundEscrow(ctx, out)
	a.end(out)
}

// end commits the terminal state. Effects must already be recorded on out.
func (a *actor) end(out *game.Outcome) {
	a.disarm()
	a.sess.State = out.State
	out.EndedAt = a.svc.deps.Now()
	a.outcome = out
}

// finish releases the key, publishes the outcome and unblocks senders.
func (a *actor) finish() {
	a.disarm()
	a.svc.sessions.Remove(a.sess.Key, a)
	snap := a.snapshot()
	logging.Info("encounter ended", logging.Fields{
		constants.LogFieldSessionKey: a.sess.Key,
		constants.LogFieldKind:       a.sess.Kind,
		constants.LogFieldState:      a.outcome.State,
		constants.LogFieldWinner:     a.outcome.Winner,
	})
	a.svc.deps.Events.OnSessionEnded(snap, a.outcome)
	close(a.done)
}

func (a *actor) notify() {
	a.svc.deps.Events.OnTurnResolved(a.snapshot())
}

func (a *actor) snapshot() *game.Snapshot {
	snap := &game.Snapshot{
		Session:          a.sess.Clone(),
		AvailableActions: make(map[string][]string, len(a.sess.Participants)),
	}
	for _, p := range a.sess.Participants {
		snap.AvailableActions[p] = a.availableActions(p)
	}
	return snap
}

func (a *actor) availableActions(playerID string) []string {
	s := a.sess
	switch {
	case s.State.Terminal():
		return nil
	case s.Kind == game.KindDuel && s.State == game.StateChallenged:
		if a.handle != nil && a.handle.Target == playerID {
			return []string{actionAccept, actionDecline}
		}
		return nil
	case s.Kind == game.KindDuel && s.State == game.StateInProgress:
		return engine.AvailableDuelActions(s.Duel, playerID)
	case s.Kind == game.KindHeist && s.State == game.StateForming:
		if s.Heist.Organizer == playerID {
			return []string{actionCancel}
		}
	}
	return nil
}

const (
	actionAccept  = "accept"
	actionDecline = "decline"
	actionCancel  = "cancel"
)

// effectCtx bounds one collaborator call during resolution.
func (a *actor) effectCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(a.svc.ctx, a.svc.cfg.EffectTimeout)
}
