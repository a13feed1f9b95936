package engine

import (
	"errors"
	"math/rand"
)

var ErrAlreadyAssigned = errors.New("roles already assigned")
var ErrInvalidSeat = errors.New("invalid seat")
var ErrInvalidTarget = errors.New("invalid target")
var ErrDeadVoter = errors.New("voter is dead")
var ErrNotYourTurn = errors.New("not your turn")
var ErrWrongPhase = errors.New("wrong phase for action")
var ErrTooLong = errors.New("speech too long")
var ErrEmptySpeech = errors.New("empty speech")
var ErrPotionSpent = errors.New("potion already used")
var ErrUnsupportedCommand = errors.New("unsupported command")

const maxSpeechLen = 300

type Role string

const (
	RoleWerewolf Role = "werewolf"
	RoleVillager Role = "villager"
	RoleSeer     Role = "seer"
	RoleWitch    Role = "witch"
	RoleHunter   Role = "hunter"
)

type Phase string

const (
	PhaseWaiting       Phase = "waiting"
	PhaseRoleAssigned  Phase = "role_assigned"
	PhaseDayDiscussion Phase = "day_discussion"
	PhaseDayVoting     Phase = "day_voting"
	PhaseDayResult     Phase = "day_result"
	PhaseNightAction   Phase = "night_action"
	PhaseNightResult   Phase = "night_result"
	PhaseGameOver      Phase = "game_over"
)

type Result string

const (
	ResultOngoing     Result = "ongoing"
	ResultWerewolfWin Result = "werewolf_win"
	ResultVillagerWin Result = "villager_win"
)

type KilledBy string

const (
	KilledByVote     KilledBy = "vote"
	KilledByWerewolf KilledBy = "werewolf"
	KilledByWitch    KilledBy = "witch"
)

type Controller string

const (
	ControllerHuman Controller = "human"
	ControllerAgent Controller = "agent"
)

type ActionType string

const (
	ActionKill   ActionType = "kill"
	ActionCheck  ActionType = "check"
	ActionSave   ActionType = "save"
	ActionPoison ActionType = "poison"
)

type Seat struct {
	Num        int
	Role       Role
	Controller Controller
	Alive      bool
	HasVoted   bool
	VotedFor   int
}

type DeadPlayer struct {
	Seat     int
	Role     Role
	KilledBy KilledBy
}

// Night is the per-night action slate, keyed by role: one submitted
// action per role per night. Zero target means "none".
type Night struct {
	ActingRole Role // empty when no role is acting
	Done       []Role
	Kill       int
	Save       int
	Poison     int
	Check      int
}

type Speech struct {
	Seat int
	Text string
}

type State struct {
	Phase   Phase
	Version int // bumps on every phase transition; dedupes racing advances
	Round   int
	Result  Result

	SeatCount int
	HumanSeat int
	Seats     map[int]Seat

	SpeakingOrder []int
	SpeakerIndex  int
	Speeches      []Speech

	Night           Night
	WitchSaveUsed   bool
	WitchPoisonUsed bool

	LastDead     *DeadPlayer
	Announcement string
}

type CommandType string

const (
	CmdAssignRoles          CommandType = "AssignRoles"
	CmdAdvancePhase         CommandType = "AdvancePhase"
	CmdSubmitSpeech         CommandType = "SubmitSpeech"
	CmdAdvanceSpeaker       CommandType = "AdvanceSpeaker"
	CmdSubmitVote           CommandType = "SubmitVote"
	CmdNightAction          CommandType = "NightAction"
	CmdCompleteAnnouncement CommandType = "CompleteAnnouncement"
)

type Command struct {
	Type   CommandType
	Seat   int
	Target int
	Role   Role
	Action ActionType
	Text   string

	// PhaseVersion guards CmdAdvancePhase: a non-negative value that does
	// not match State.Version makes the advance a no-op. Use -1 for an
	// unconditional advance (deadline timer).
	PhaseVersion int

	// Rand seeds the role shuffle for CmdAssignRoles; nil uses the global
	// source.
	Rand *rand.Rand
}

type EventType string

const (
	EvtRolesAssigned       EventType = "RolesAssigned"
	EvtPhaseChanged        EventType = "PhaseChanged"
	EvtSpeechRecorded      EventType = "SpeechRecorded"
	EvtSpeakerAdvanced     EventType = "SpeakerAdvanced"
	EvtVoteRecorded        EventType = "VoteRecorded"
	EvtNightActionRecorded EventType = "NightActionRecorded"
	EvtPlayerDied          EventType = "PlayerDied"
	EvtGameCompleted       EventType = "GameCompleted"
	EvtAnnouncementSet     EventType = "AnnouncementSet"
	EvtAnnouncementCleared EventType = "AnnouncementCleared"
)

type Event struct {
	Type        EventType
	Phase       Phase
	DurationSec int
	Round       int
	Seat        int
	Target      int
	Role        Role
	Action      ActionType
	KilledBy    KilledBy
	Result      Result
	Text        string
}

// Apply runs one command against the session state. It never mutates s:
// the returned State is a deep enough copy that callers can keep the old
// one around (tests do). Commands that fail return the input state
// untouched and no events.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdAssignRoles:
		return applyAssignRoles(s, cmd)
	case CmdAdvancePhase:
		return applyAdvancePhase(s, cmd)
	case CmdSubmitSpeech:
		return applySubmitSpeech(s, cmd)
	case CmdAdvanceSpeaker:
		return applyAdvanceSpeaker(s)
	case CmdSubmitVote:
		return applySubmitVote(s, cmd)
	case CmdNightAction:
		return applyNightAction(s, cmd)
	case CmdCompleteAnnouncement:
		return applyCompleteAnnouncement(s)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func applyAssignRoles(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseWaiting {
		return nil, s, ErrAlreadyAssigned
	}

	ns := s.clone()
	pool := RolePool(ns.SeatCount)
	shuffle(pool, cmd.Rand)

	for seat := 1; seat <= ns.SeatCount; seat++ {
		ctl := ControllerAgent
		if seat == ns.HumanSeat {
			ctl = ControllerHuman
		}
		ns.Seats[seat] = Seat{Num: seat, Role: pool[seat-1], Controller: ctl, Alive: true}
	}
	ns.Round = 1

	events := []Event{{Type: EvtRolesAssigned, Round: 1}}
	events = append(events, enterPhase(&ns, PhaseRoleAssigned, 0)...)
	return events, ns, nil
}

func applyAdvancePhase(s State, cmd Command) ([]Event, State, error) {
	// Terminal and not-yet-started sessions report the current phase
	// unchanged; a lagging poller must not crash a finished room.
	if s.Phase == PhaseWaiting || s.Phase == PhaseGameOver {
		return nil, s, nil
	}
	// Stale version token: a duplicate advance from a racing poller.
	if cmd.PhaseVersion >= 0 && cmd.PhaseVersion != s.Version {
		return nil, s, nil
	}

	ns := s.clone()
	events := advance(&ns)
	return events, ns, nil
}

func applySubmitSpeech(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseDayDiscussion {
		return nil, s, ErrWrongPhase
	}
	if cmd.Text == "" {
		return nil, s, ErrEmptySpeech
	}
	if len([]rune(cmd.Text)) > maxSpeechLen {
		return nil, s, ErrTooLong
	}
	speaker, ok := CurrentSpeaker(s)
	if !ok || speaker != cmd.Seat {
		return nil, s, ErrInvalidSeat
	}

	ns := s.clone()
	ns.Speeches = append(ns.Speeches, Speech{Seat: cmd.Seat, Text: cmd.Text})
	return []Event{{Type: EvtSpeechRecorded, Seat: cmd.Seat, Text: cmd.Text}}, ns, nil
}

func applyAdvanceSpeaker(s State) ([]Event, State, error) {
	if s.Phase != PhaseDayDiscussion {
		return nil, s, ErrWrongPhase
	}

	ns := s.clone()
	// Move past the current living speaker; dead seats in between are
	// skipped but stay in the historical order.
	idx := ns.SpeakerIndex
	for idx < len(ns.SpeakingOrder) && !ns.Seats[ns.SpeakingOrder[idx]].Alive {
		idx++
	}
	ns.SpeakerIndex = idx + 1

	if next, ok := CurrentSpeaker(ns); ok {
		return []Event{{Type: EvtSpeakerAdvanced, Seat: next}}, ns, nil
	}
	// Order exhausted: discussion is over, the voting phase starts now.
	events := advance(&ns)
	return events, ns, nil
}

func applySubmitVote(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseDayVoting {
		return nil, s, ErrWrongPhase
	}
	voter, ok := s.Seats[cmd.Seat]
	if !ok {
		return nil, s, ErrInvalidSeat
	}
	if !voter.Alive {
		return nil, s, ErrDeadVoter
	}
	target, ok := s.Seats[cmd.Target]
	if !ok || !target.Alive {
		return nil, s, ErrInvalidTarget
	}

	ns := s.clone()
	voter.HasVoted = true
	voter.VotedFor = cmd.Target // last write wins
	ns.Seats[cmd.Seat] = voter
	return []Event{{Type: EvtVoteRecorded, Seat: cmd.Seat, Target: cmd.Target}}, ns, nil
}

func applyNightAction(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseNightAction {
		return nil, s, ErrWrongPhase
	}
	seat, ok := s.Seats[cmd.Seat]
	if !ok || !seat.Alive || seat.Role != cmd.Role {
		return nil, s, ErrInvalidSeat
	}
	if cmd.Role != s.Night.ActingRole {
		return nil, s, ErrNotYourTurn
	}

	ns := s.clone()
	switch {
	case cmd.Action == ActionKill && cmd.Role == RoleWerewolf:
		if !aliveTarget(ns, cmd.Target) {
			return nil, s, ErrInvalidTarget
		}
		ns.Night.Kill = cmd.Target

	case cmd.Action == ActionCheck && cmd.Role == RoleSeer:
		if !aliveTarget(ns, cmd.Target) {
			return nil, s, ErrInvalidTarget
		}
		ns.Night.Check = cmd.Target

	case cmd.Action == ActionSave && cmd.Role == RoleWitch:
		if cmd.Target != 0 {
			if ns.WitchSaveUsed {
				return nil, s, ErrPotionSpent
			}
			if _, ok := ns.Seats[cmd.Target]; !ok {
				return nil, s, ErrInvalidTarget
			}
			ns.Night.Save = cmd.Target
			ns.WitchSaveUsed = true
		}
		// target 0 is a pass: the potion is kept

	case cmd.Action == ActionPoison && cmd.Role == RoleWitch:
		if cmd.Target != 0 {
			if ns.WitchPoisonUsed {
				return nil, s, ErrPotionSpent
			}
			if !aliveTarget(ns, cmd.Target) {
				return nil, s, ErrInvalidTarget
			}
			ns.Night.Poison = cmd.Target
			ns.WitchPoisonUsed = true
		}

	default:
		return nil, s, ErrUnsupportedCommand
	}

	events := []Event{{
		Type: EvtNightActionRecorded, Seat: cmd.Seat, Role: cmd.Role,
		Action: cmd.Action, Target: cmd.Target,
	}}

	ns.Night.Done = append(ns.Night.Done, cmd.Role)
	if next, ok := nextNightRole(&ns); ok {
		ns.Night.ActingRole = next
	} else {
		// Every living role has acted: the night settles immediately
		// instead of waiting out the phase budget.
		ns.Night.ActingRole = ""
		events = append(events, advance(&ns)...)
	}
	return events, ns, nil
}

func applyCompleteAnnouncement(s State) ([]Event, State, error) {
	// Clearing an already-clear announcement is a no-op, not an error.
	if s.Announcement == "" {
		return nil, s, nil
	}
	ns := s.clone()
	ns.Announcement = ""
	return []Event{{Type: EvtAnnouncementCleared}}, ns, nil
}

func aliveTarget(s State, target int) bool {
	t, ok := s.Seats[target]
	return ok && t.Alive
}
