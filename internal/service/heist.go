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

// OrganizeHeist opens a forming party with organizer as its first member.
// A robbery is always a two-party heist; size 0 picks the variant's minimum.
func (e *Encounters) OrganizeHeist(ctx context.Context, organizer string, size int, variant string) (*game.Snapshot, error) {
	organizer = strings.TrimSpace(organizer)
	if organizer == "" {
		return nil, game.ErrInvalidTarget
	}
	v, err := game.ParseHeistVariant(variant)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		size = e.cfg.Heist.MinSize
	}
	if err := e.validPartySize(v, size); err != nil {
		return nil, err
	}
	actionType, fee := e.heistTerms(v)
	if err := e.checkCooldown(organizer, actionType); err != nil {
		return nil, err
	}
	if err := e.checkJailed(ctx, organizer, game.ErrSelfJailed); err != nil {
		return nil, err
	}
	if err := e.checkFunds(ctx, organizer, fee); err != nil {
		return nil, err
	}

	sess := &game.Session{
		Key:          keys.HeistToken(),
		Kind:         game.KindHeist,
		State:        game.StateForming,
		Participants: []string{organizer},
		CreatedAt:    e.deps.Now(),
		Heist: &game.HeistParty{
			Organizer:    organizer,
			RequiredSize: size,
			Members:      []string{organizer},
			EntryFee:     fee,
			Variant:      v,
		},
	}
	a := newActor(e, sess)
	if err := e.register(a, organizer, actionType); err != nil {
		return nil, err
	}
	a.handle = e.challenges.Propose(organizer, "", sess.Key, e.cfg.FormingWindow, func(*challenge.Challenge) {
		a.post(command{kind: cmdExpire})
	})
	sess.ExpiresAt = a.handle.ExpiresAt
	snap := a.snapshot()
	// Published before the loop runs so no turn event can precede it.
	e.deps.Events.OnSessionStarted(snap)
	a.start()

	logging.Info("heist forming", logging.Fields{
		constants.LogFieldSessionKey: sess.Key,
		constants.LogFieldPlayerID:   organizer,
		constants.LogFieldKind:       v,
		constants.LogFieldMembers:    size,
	})
	return snap, nil
}

// JoinHeist adds playerID to a forming party. The join that fills the party
// starts the heist.
func (e *Encounters) JoinHeist(ctx context.Context, key, playerID string) (*game.Snapshot, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, game.ErrInvalidTarget
	}
	a, err := e.lookup(key, game.KindHeist)
	if err != nil {
		return nil, err
	}
	r := a.send(command{kind: cmdJoin, ctx: ctx, playerID: playerID})
	return r.snap, r.err
}

// CancelHeist disbands a forming party. Only the organizer may cancel.
func (e *Encounters) CancelHeist(ctx context.Context, key, playerID string) (*game.Snapshot, error) {
	a, err := e.lookup(key, game.KindHeist)
	if err != nil {
		return nil, err
	}
	r := a.send(command{kind: cmdCancel, ctx: ctx, playerID: playerID})
	return r.snap, r.err
}

func (e *Encounters) validPartySize(v game.HeistVariant, size int) error {
	if v == game.VariantRobbery {
		if size != 2 {
			return game.ErrInvalidPartySize
		}
		return nil
	}
	if size < e.cfg.Heist.MinSize || size > e.cfg.Heist.MaxSize {
		return game.ErrInvalidPartySize
	}
	return nil
}

// heistTerms returns the cooldown bucket and entry fee of a variant.
func (e *Encounters) heistTerms(v game.HeistVariant) (string, int64) {
	if v == game.VariantRobbery {
		return constants.ActionTypeRobbery, e.cfg.RobberyFee
	}
	return constants.ActionTypeHeist, e.cfg.HeistEntryFee
}

func (a *actor) join(ctx context.Context, playerID string) error {
	s := a.sess
	h := s.Heist
	switch {
	case s.State.Terminal():
		return game.ErrNoLongerPending
	case h.Has(playerID):
		return game.ErrAlreadyMember
	case s.State != game.StateForming || h.Full():
		return game.ErrCapacityExceeded
	}
	actionType, _ := a.svc.heistTerms(h.Variant)
	if err := a.svc.checkCooldown(playerID, actionType); err != nil {
		return err
	}
	if err := a.svc.checkJailed(ctx, playerID, game.ErrSelfJailed); err != nil {
		return err
	}
	if err := a.svc.checkFunds(ctx, playerID, h.EntryFee); err != nil {
		return err
	}

	if !a.svc.consumeCooldown(playerID, actionType) {
		return game.ErrOnCooldown
	}
	if len(h.Members)+1 == h.RequiredSize {
		// The filling join races the forming window.
		if err := a.svc.challenges.Respond(a.handle, h.Organizer, true); err != nil {
			return err
		}
	}
	h.Members = append(h.Members, playerID)
	s.Participants = append([]string(nil), h.Members...)

	logging.Info("heist member joined", logging.Fields{
		constants.LogFieldSessionKey: s.Key,
		constants.LogFieldPlayerID:   playerID,
		constants.LogFieldMembers:    len(h.Members),
	})
	if h.Full() {
		s.State = game.StateActive
		s.ExpiresAt = a.svc.deps.Now().Add(a.svc.cfg.ActivePhase)
		a.arm()
	}
	a.notify()
	return nil
}

func (a *actor) cancelHeist(playerID string) error {
	s := a.sess
	if s.Heist.Organizer != playerID {
		return game.ErrNotOrganizer
	}
	if s.State != game.StateForming {
		return game.ErrInvalidState
	}
	if !a.svc.challenges.Cancel(a.handle) {
		return game.ErrNoLongerPending
	}
	a.end(&game.Outcome{State: game.StateCancelled})
	return nil
}

// resolveHeist runs when the active phase ends: it collects every fee,
// rolls the outcome and pays out.
func (a *actor) resolveHeist() {
	s := a.sess
	h := s.Heist
	if s.State != game.StateActive {
		return
	}
	s.State = game.StateResolving
	a.notify()

	out := &game.Outcome{}
	ctx, cancel := a.effectCtx()
	defer cancel()

	if err := a.collectFees(ctx, out); err != nil {
		out.State = game.StateAborted
		out.Reason = string(game.ReasonOf(err))
		if out.Reason == "" {
			out.Reason = err.Error()
		}
		a.end(out)
		return
	}

	res := engine.ResolveHeist(h.Members, h.Variant, a.svc.cfg.Heist, a.svc.deps.Dice)
	out.State = res.State
	out.Loot = res.Loot
	out.Captured = res.Captured
	out.Escaped = res.Escaped

	for _, p := range res.Payouts {
		a.payLoot(ctx, out, p.PlayerID, p.Amount)
		a.grantXP(ctx, out, p.PlayerID, a.svc.cfg.HeistXP)
	}

	reason, bounty := constants.ReasonHeistFailed, a.svc.cfg.HeistBounty
	if h.Variant == game.VariantRobbery {
		reason, bounty = constants.ReasonRobberyCaptured, a.svc.cfg.RobberyBounty
	}
	for _, m := range res.Captured {
		a.deliver(out, m, game.EffectPunishment, bounty, func() error {
			return a.svc.deps.Punishments.ApplyPunishment(ctx, m, reason, bounty)
		})
	}
	if res.State == game.StatePartialFailure {
		for _, m := range res.Escaped {
			wanted := a.svc.cfg.WantedBounty
			a.deliver(out, m, game.EffectWanted, wanted, func() error {
				return a.svc.deps.Punishments.MarkWanted(ctx, m, wanted)
			})
		}
	}
	a.end(out)
}

// collectFees charges every member all-or-nothing. Balances are checked
// first; a debit that still fails refunds the members already charged.
func (a *actor) collectFees(ctx context.Context, out *game.Outcome) error {
	h := a.sess.Heist
	if h.EntryFee <= 0 {
		return nil
	}
	for _, m := range h.Members {
		if err := a.svc.checkFunds(ctx, m, h.EntryFee); err != nil {
			return err
		}
	}
	charged := make([]string, 0, len(h.Members))
	for _, m := range h.Members {
		if err := a.svc.deps.Economy.Debit(ctx, m, h.EntryFee); err != nil {
			logging.Warn("heist fee collection failed, refunding", logging.Fields{
				constants.LogFieldSessionKey: a.sess.Key,
				constants.LogFieldPlayerID:   m,
				constants.LogFieldAmount:     h.EntryFee,
			})
			for _, c := range charged {
				a.deliver(out, c, game.EffectRefund, h.EntryFee, func() error {
					return a.svc.deps.Economy.Credit(ctx, c, h.EntryFee)
				})
			}
			return game.ErrInsufficientFunds
		}
		charged = append(charged, m)
		out.Grants = append(out.Grants, game.Grant{PlayerID: m, Effect: game.EffectDebit, Amount: h.EntryFee})
	}
	return nil
}

func (a *actor) payLoot(ctx context.Context, out *game.Outcome, playerID string, amount int64) {
	if amount <= 0 {
		return
	}
	if item := a.svc.cfg.LootItemID; item != "" {
		a.deliver(out, playerID, game.EffectItem, amount, func() error {
			return a.svc.deps.Economy.GrantItem(ctx, playerID, item, amount)
		})
		return
	}
	a.deliver(out, playerID, game.EffectCredit, amount, func() error {
		return a.svc.deps.Economy.Credit(ctx, playerID, amount)
	})
}
