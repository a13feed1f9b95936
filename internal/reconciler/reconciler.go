// Package reconciler keeps one client consistent with the session
// authority purely by polling. Once per interval it fetches the full
// snapshot, performs the minimum work needed to keep the session moving
// (consume announcements, relay AI turns, prompt the human), then mirrors
// the authoritative fields into local shadow state. It never computes
// outcomes itself.
package reconciler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/werewolf-arena/internal/engine"
	"github.com/DoyleJ11/werewolf-arena/pkg/types"
)

const defaultInterval = time.Second

// Authority is the slice of the HTTP client the loop drives. apiclient's
// Client satisfies it.
type Authority interface {
	GetState(ctx context.Context, roomID string) (types.Snapshot, error)
	AdvancePhase(ctx context.Context, roomID string, phaseVersion int) (types.AdvancePhaseResponse, error)
	SubmitSpeech(ctx context.Context, roomID string, seat int, text string) error
	AdvanceSpeaker(ctx context.Context, roomID string) (types.AdvanceSpeakerResponse, error)
	SubmitNightAction(ctx context.Context, roomID string, seat int, role, actionType string, targetSeat int) error
	CompleteAnnouncement(ctx context.Context, roomID string) error
	AgentSpeech(ctx context.Context, roomID string, seat int) (string, error)
	AgentAction(ctx context.Context, roomID string, seat int, role string, availableTargets []int) (types.AgentActionResponse, error)
	AgentVote(ctx context.Context, roomID string, seat int) error
}

// Presenter receives what the human-facing layer should show. It must not
// block; a slow presenter stalls the tick, not the authority.
type Presenter interface {
	ShowAnnouncement(text string)
	ShowPhase(snap types.Snapshot)
	ShowSpeech(seat int, text string)
	ShowDeath(dead types.DeadPlayer)
	ShowGameOver(result string)
	ShowHumanTurn(myTurn bool, actingRole string)
}

type Options struct {
	RoomID      string
	HumanSeat   int
	RolesBySeat map[int]string // from assignRoles; the only role knowledge the client holds
	Interval    time.Duration
}

// Reconciler is single-threaded cooperative: one tick at a time, overlap
// skipped rather than queued. All idempotency markers here are local
// guards against duplicate requests; the authority's own counters remain
// the ground truth.
type Reconciler struct {
	authority Authority
	presenter Presenter
	log       *zap.Logger

	roomID      string
	humanSeat   int
	rolesBySeat map[int]string
	interval    time.Duration

	inFlight atomic.Bool

	// shadow state, touched only inside a tick
	processedSpeakers map[int]bool
	lastPhase         string
	announcing        bool
	shadow            types.Snapshot

	stopOnce sync.Once
	stopped  chan struct{}
}

func New(authority Authority, presenter Presenter, log *zap.Logger, opts Options) *Reconciler {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	return &Reconciler{
		authority:         authority,
		presenter:         presenter,
		log:               log.With(zap.String("room", opts.RoomID)),
		roomID:            opts.RoomID,
		humanSeat:         opts.HumanSeat,
		rolesBySeat:       opts.RolesBySeat,
		interval:          opts.Interval,
		processedSpeakers: make(map[int]bool),
		stopped:           make(chan struct{}),
	}
}

// Run polls until ctx is done or Stop is called. The ticker is released
// on return, so detach is deterministic.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopped:
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.stopped) })
}

// Shadow returns the last mirrored snapshot.
func (r *Reconciler) Shadow() types.Snapshot { return r.shadow }

// Tick runs one reconciliation pass. It returns false when a previous
// tick was still in flight, in which case it performed no network
// operations and no mutations at all.
func (r *Reconciler) Tick(ctx context.Context) bool {
	if !r.inFlight.CompareAndSwap(false, true) {
		return false
	}
	defer r.inFlight.Store(false)

	snap, err := r.authority.GetState(ctx, r.roomID)
	if err != nil {
		r.log.Warn("poll failed", zap.Error(err))
		return true
	}

	if snap.Phase != r.lastPhase {
		if snap.Phase == string(engine.PhaseDayDiscussion) {
			r.processedSpeakers = make(map[int]bool)
		}
		r.presenter.ShowPhase(snap)
	}

	r.handleAnnouncement(ctx, snap)
	r.dispatch(ctx, snap)

	// mirror unconditionally, after dispatch
	r.shadow = snap
	r.lastPhase = snap.Phase
	return true
}

// handleAnnouncement shows a pending announcement exactly once, consumes
// it, and issues the first advance after the role-assignment one — the
// game does not start itself.
func (r *Reconciler) handleAnnouncement(ctx context.Context, snap types.Snapshot) {
	if snap.Announcement == "" {
		r.announcing = false
		return
	}
	if !r.announcing {
		r.announcing = true
		r.presenter.ShowAnnouncement(snap.Announcement)
	}
	if err := r.authority.CompleteAnnouncement(ctx, r.roomID); err != nil {
		r.log.Warn("consume announcement failed", zap.Error(err))
		return
	}
	r.announcing = false
	if snap.Phase == string(engine.PhaseRoleAssigned) {
		if _, err := r.authority.AdvancePhase(ctx, r.roomID, snap.PhaseVersion); err != nil {
			r.log.Warn("first advance failed", zap.Error(err))
		}
	}
}

func (r *Reconciler) dispatch(ctx context.Context, snap types.Snapshot) {
	switch snap.Phase {
	case string(engine.PhaseDayDiscussion):
		r.dispatchSpeech(ctx, snap)
	case string(engine.PhaseDayVoting):
		r.dispatchVotes(ctx, snap)
	case string(engine.PhaseNightAction):
		r.dispatchNight(ctx, snap)
	case string(engine.PhaseDayResult), string(engine.PhaseNightResult):
		if snap.LastDeadPlayer != nil && snap.Phase != r.lastPhase {
			r.presenter.ShowDeath(*snap.LastDeadPlayer)
		}
	case string(engine.PhaseGameOver):
		if snap.Phase != r.lastPhase {
			r.presenter.ShowGameOver(snap.Result)
		}
	}
}

// dispatchSpeech relays the current AI speaker's turn. The seat is marked
// processed before the request so an overlapping or retried tick cannot
// re-issue it; generation or submission failure unmarks it for the next
// tick. A failed turn advance keeps the mark and only the advance is
// retried.
func (r *Reconciler) dispatchSpeech(ctx context.Context, snap types.Snapshot) {
	speaker := snap.CurrentSpeaker
	if speaker == 0 || speaker == r.humanSeat {
		return
	}
	if r.processedSpeakers[speaker] {
		if _, err := r.authority.AdvanceSpeaker(ctx, r.roomID); err != nil {
			r.log.Warn("advance speaker retry failed", zap.Int("seat", speaker), zap.Error(err))
		}
		return
	}

	r.processedSpeakers[speaker] = true
	text, err := r.authority.AgentSpeech(ctx, r.roomID, speaker)
	if err != nil {
		delete(r.processedSpeakers, speaker)
		r.log.Warn("agent speech failed", zap.Int("seat", speaker), zap.Error(err))
		return
	}
	if err := r.authority.SubmitSpeech(ctx, r.roomID, speaker, text); err != nil {
		delete(r.processedSpeakers, speaker)
		r.log.Warn("submit speech failed", zap.Int("seat", speaker), zap.Error(err))
		return
	}
	r.presenter.ShowSpeech(speaker, text)
	if _, err := r.authority.AdvanceSpeaker(ctx, r.roomID); err != nil {
		r.log.Warn("advance speaker failed", zap.Int("seat", speaker), zap.Error(err))
	}
}

// dispatchVotes asks the authority to vote for every AI seat the latest
// snapshot says has not voted. The snapshot is the only source of that
// judgement; local memory would risk double votes from staleness.
func (r *Reconciler) dispatchVotes(ctx context.Context, snap types.Snapshot) {
	for _, seat := range snap.AlivePlayers {
		if seat == r.humanSeat {
			continue
		}
		if vs, ok := snap.PlayerVotes[seat]; ok && vs.HasVoted {
			continue
		}
		if err := r.authority.AgentVote(ctx, r.roomID, seat); err != nil {
			r.log.Warn("agent vote failed", zap.Int("seat", seat), zap.Error(err))
		}
	}
}

// dispatchNight triggers the acting role's AI seats and tells the
// presentation layer whether the human is the one being waited on.
func (r *Reconciler) dispatchNight(ctx context.Context, snap types.Snapshot) {
	acting := snap.NightActingRole
	if acting == "" {
		return
	}
	r.presenter.ShowHumanTurn(r.rolesBySeat[r.humanSeat] == acting, acting)

	for _, seat := range snap.AlivePlayers {
		if seat == r.humanSeat || r.rolesBySeat[seat] != acting {
			continue
		}
		targets := make([]int, 0, len(snap.AlivePlayers))
		for _, t := range snap.AlivePlayers {
			if t != seat {
				targets = append(targets, t)
			}
		}
		action, err := r.authority.AgentAction(ctx, r.roomID, seat, acting, targets)
		if err != nil {
			r.log.Warn("agent action failed", zap.Int("seat", seat), zap.Error(err))
			continue
		}
		if err := r.authority.SubmitNightAction(ctx, r.roomID, seat, acting, action.ActionType, action.TargetSeat); err != nil {
			// a packmate may already have acted for the role; the next
			// snapshot moves the acting role on
			r.log.Debug("night action rejected", zap.Int("seat", seat), zap.Error(err))
		}
	}
}
