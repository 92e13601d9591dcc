package storage

import (
	"context"
	"strings"
	"time"

	"github.com/ericogr/encounters/internal/constants"
	"github.com/ericogr/encounters/internal/game"
	"github.com/ericogr/encounters/internal/logging"
)

// Recorder persists one history row per ended session. It only implements
// the end-of-session hook; start and turn events are ignored.
type Recorder struct {
	repo    Repository
	timeout time.Duration
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo, timeout: 5 * time.Second}
}

func (r *Recorder) OnSessionStarted(*game.Snapshot) {}

func (r *Recorder) OnTurnResolved(*game.Snapshot) {}

func (r *Recorder) OnSessionEnded(snap *game.Snapshot, out *game.Outcome) {
	if snap == nil || snap.Session == nil || out == nil {
		return
	}
	s := snap.Session
	rec := &game.EncounterRecord{
		SessionKey:   s.Key,
		Kind:         string(s.Kind),
		FinalState:   string(out.State),
		Winner:       out.Winner,
		Participants: strings.Join(s.Participants, ","),
		Loot:         out.Loot,
		Failures:     len(out.Failures),
		EndedAt:      out.EndedAt,
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.repo.SaveEncounter(ctx, rec); err != nil {
		logging.Error("failed to record encounter", err, logging.Fields{
			constants.LogFieldSessionKey: s.Key,
			constants.LogFieldState:      out.State,
		})
	}
}
