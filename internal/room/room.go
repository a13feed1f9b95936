package room

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/werewolf-arena/internal/engine"
	"github.com/DoyleJ11/werewolf-arena/pkg/types"
)

// tickUnit scales phase durations into wall-clock time. Tests shorten it
// so deadline-driven advances fire fast.
var tickUnit = time.Second

type Msg interface{ isRoomMsg() }

type AssignRoles struct {
	Reply chan AssignRolesReply
}

type AssignRolesReply struct {
	RolesBySeat map[int]engine.Role
	Err         error
}

type AdvancePhase struct {
	// PhaseVersion from the snapshot the caller acted on; -1 advances
	// unconditionally.
	PhaseVersion int
	Reply        chan AdvancePhaseReply
}

type AdvancePhaseReply struct {
	Phase       engine.Phase
	DurationSec int
}

type SubmitSpeech struct {
	Seat  int
	Text  string
	Reply chan error
}

type AdvanceSpeaker struct {
	Reply chan AdvanceSpeakerReply
}

type AdvanceSpeakerReply struct {
	Advanced       bool
	CurrentSpeaker int
	Err            error
}

type SubmitVote struct {
	Voter  int
	Target int
	Reply  chan error
}

type SubmitNightAction struct {
	Seat   int
	Role   engine.Role
	Action engine.ActionType
	Target int
	Reply  chan error
}

type CompleteAnnouncement struct {
	Reply chan error
}

type GetState struct {
	Reply chan types.Snapshot
}

// AgentView is the server-side state the agent collaborator may read when
// deciding for a seat.
type AgentView struct {
	Seats       map[int]engine.Seat
	PendingKill int
	SaveUsed    bool
	PoisonUsed  bool
}

type GetAgentView struct {
	Reply chan AgentView
}

type GetMessages struct {
	After string
	Reply chan []types.GameMessage
}

type Shutdown struct{}

func (AssignRoles) isRoomMsg()          {}
func (AdvancePhase) isRoomMsg()         {}
func (SubmitSpeech) isRoomMsg()         {}
func (AdvanceSpeaker) isRoomMsg()       {}
func (SubmitVote) isRoomMsg()           {}
func (SubmitNightAction) isRoomMsg()    {}
func (CompleteAnnouncement) isRoomMsg() {}
func (GetState) isRoomMsg()             {}
func (GetAgentView) isRoomMsg()         {}
func (GetMessages) isRoomMsg()          {}
func (Shutdown) isRoomMsg()             {}

// deadline is the room's own timer firing; Version pins it to the phase it
// was armed for so a late fire after a faster transition is ignored.
type deadline struct{ Version int }

func (deadline) isRoomMsg() {}

// Room owns one session's state behind a single goroutine. Every mutation
// goes through the inbox, so operations are applied atomically and in
// total order per room.
type Room struct {
	ID string

	inbox    chan Msg
	state    engine.State
	messages []types.GameMessage

	phaseEnds   time.Time
	phaseDurSec int
	timer       *time.Timer

	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewRoom(parent context.Context, id string, seatCount, humanSeat int, log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		ID:     id,
		inbox:  make(chan Msg, 64),
		state:  engine.NewState(seatCount, humanSeat),
		log:    log.With(zap.String("room", id)),
		ctx:    ctx,
		cancel: cancel,
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) loop() {
	defer r.stopTimer()
	for {
		select {
		case <-r.ctx.Done():
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case AssignRoles:
				msg.Reply <- r.assignRoles()

			case AdvancePhase:
				r.apply(engine.Command{Type: engine.CmdAdvancePhase, PhaseVersion: msg.PhaseVersion})
				msg.Reply <- AdvancePhaseReply{Phase: r.state.Phase, DurationSec: r.phaseDuration()}

			case SubmitSpeech:
				_, err := r.apply(engine.Command{Type: engine.CmdSubmitSpeech, Seat: msg.Seat, Text: msg.Text})
				msg.Reply <- err

			case AdvanceSpeaker:
				msg.Reply <- r.advanceSpeaker()

			case SubmitVote:
				_, err := r.apply(engine.Command{Type: engine.CmdSubmitVote, Seat: msg.Voter, Target: msg.Target})
				msg.Reply <- err

			case SubmitNightAction:
				_, err := r.apply(engine.Command{
					Type: engine.CmdNightAction, Seat: msg.Seat,
					Role: msg.Role, Action: msg.Action, Target: msg.Target,
				})
				msg.Reply <- err

			case CompleteAnnouncement:
				_, err := r.apply(engine.Command{Type: engine.CmdCompleteAnnouncement})
				msg.Reply <- err

			case GetState:
				msg.Reply <- r.snapshot()

			case GetAgentView:
				seats := make(map[int]engine.Seat, len(r.state.Seats))
				for k, v := range r.state.Seats {
					seats[k] = v
				}
				msg.Reply <- AgentView{
					Seats:       seats,
					PendingKill: r.state.Night.Kill,
					SaveUsed:    r.state.WitchSaveUsed,
					PoisonUsed:  r.state.WitchPoisonUsed,
				}

			case GetMessages:
				msg.Reply <- r.messagesAfter(msg.After)

			case deadline:
				if msg.Version == r.state.Version {
					r.log.Debug("phase deadline reached", zap.String("phase", string(r.state.Phase)))
					r.apply(engine.Command{Type: engine.CmdAdvancePhase, PhaseVersion: msg.Version})
				}

			case Shutdown:
				r.cancel()
				return
			}
		}
	}
}

func (r *Room) assignRoles() AssignRolesReply {
	_, err := r.apply(engine.Command{Type: engine.CmdAssignRoles})
	if err != nil {
		return AssignRolesReply{Err: err}
	}
	roles := make(map[int]engine.Role, len(r.state.Seats))
	for num, seat := range r.state.Seats {
		roles[num] = seat.Role
	}
	return AssignRolesReply{RolesBySeat: roles}
}

func (r *Room) advanceSpeaker() AdvanceSpeakerReply {
	_, err := r.apply(engine.Command{Type: engine.CmdAdvanceSpeaker})
	if err != nil {
		return AdvanceSpeakerReply{Err: err}
	}
	if next, ok := engine.CurrentSpeaker(r.state); ok {
		return AdvanceSpeakerReply{Advanced: true, CurrentSpeaker: next}
	}
	return AdvanceSpeakerReply{Advanced: false}
}

// apply runs one engine command and absorbs its events: logging, the
// message log, and the phase deadline timer.
func (r *Room) apply(cmd engine.Command) ([]engine.Event, error) {
	events, newState, err := engine.Apply(r.state, cmd)
	if err != nil {
		return nil, err
	}
	r.state = newState

	for _, ev := range events {
		switch ev.Type {
		case engine.EvtPhaseChanged:
			r.log.Info("phase change",
				zap.String("phase", string(ev.Phase)),
				zap.Int("round", ev.Round),
				zap.Int("duration_sec", ev.DurationSec))
			r.addMessage("phase_change", map[string]any{
				"phase": string(ev.Phase),
				"round": ev.Round,
			})
			r.armTimer(ev.DurationSec)

		case engine.EvtPlayerDied:
			r.log.Info("player died",
				zap.Int("seat", ev.Seat),
				zap.String("role", string(ev.Role)),
				zap.String("killed_by", string(ev.KilledBy)))
			r.addMessage("player_death", map[string]any{
				"seat":     ev.Seat,
				"role":     string(ev.Role),
				"killedBy": string(ev.KilledBy),
				"round":    ev.Round,
			})

		case engine.EvtGameCompleted:
			r.log.Info("game over", zap.String("result", string(ev.Result)))
			r.addMessage("game_end", map[string]any{
				"result": string(ev.Result),
				"round":  ev.Round,
			})
		}
	}
	return events, nil
}

// armTimer schedules the deadline advance for the phase just entered. A
// zero duration means the phase waits for an explicit advance instead.
func (r *Room) armTimer(durationSec int) {
	r.stopTimer()
	r.phaseDurSec = durationSec
	if durationSec <= 0 || r.state.Phase == engine.PhaseGameOver {
		r.phaseEnds = time.Time{}
		return
	}
	d := time.Duration(durationSec) * tickUnit
	r.phaseEnds = time.Now().Add(d)
	version := r.state.Version
	r.timer = time.AfterFunc(d, func() {
		select {
		case r.inbox <- deadline{Version: version}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Room) stopTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Room) phaseDuration() int { return r.phaseDurSec }

func (r *Room) phaseTimeLeft() int {
	if r.phaseEnds.IsZero() {
		return 0
	}
	left := int(time.Until(r.phaseEnds) / tickUnit)
	return max(left, 0)
}

func (r *Room) addMessage(msgType string, content map[string]any) {
	r.messages = append(r.messages, types.GameMessage{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Type:      msgType,
		Content:   content,
	})
}

func (r *Room) messagesAfter(after string) []types.GameMessage {
	if after == "" {
		return append([]types.GameMessage(nil), r.messages...)
	}
	for i, msg := range r.messages {
		if msg.ID == after {
			return append([]types.GameMessage(nil), r.messages[i+1:]...)
		}
	}
	return append([]types.GameMessage(nil), r.messages...)
}
