package room

import (
	"github.com/DoyleJ11/werewolf-arena/internal/engine"
	"github.com/DoyleJ11/werewolf-arena/pkg/types"
)

// snapshot renders the authoritative state into the wire view a poller
// receives. Phase-specific fields are only populated for their phase so a
// stale section never leaks into the next one.
func (r *Room) snapshot() types.Snapshot {
	s := r.state
	snap := types.Snapshot{
		RoomID:        r.ID,
		Phase:         string(s.Phase),
		PhaseVersion:  s.Version,
		Result:        string(s.Result),
		Round:         s.Round,
		AlivePlayers:  engine.AliveSeats(s),
		DeadPlayers:   engine.DeadSeats(s),
		PhaseTimeLeft: r.phaseTimeLeft(),
		Announcement:  s.Announcement,
		HumanSeat:     s.HumanSeat,
	}

	if s.LastDead != nil {
		snap.LastDeadPlayer = &types.DeadPlayer{
			Seat:     s.LastDead.Seat,
			Role:     string(s.LastDead.Role),
			KilledBy: string(s.LastDead.KilledBy),
		}
	}

	switch s.Phase {
	case engine.PhaseDayDiscussion:
		snap.SpeakingOrder = append([]int(nil), s.SpeakingOrder...)
		snap.CurrentSpeakerIndex = s.SpeakerIndex
		if speaker, ok := engine.CurrentSpeaker(s); ok {
			snap.CurrentSpeaker = speaker
		}

	case engine.PhaseDayVoting:
		snap.PlayerVotes = make(map[int]types.VoteStatus)
		for num, seat := range s.Seats {
			if seat.Alive {
				snap.PlayerVotes[num] = types.VoteStatus{HasVoted: seat.HasVoted, VotedFor: seat.VotedFor}
			}
		}

	case engine.PhaseNightAction:
		snap.NightActingRole = string(s.Night.ActingRole)
		for _, role := range s.Night.Done {
			snap.NightDone = append(snap.NightDone, string(role))
		}
		// The pending kill is visible mid-night so the witch's save
		// decision (and her agent) can see it.
		snap.NightPendingKill = s.Night.Kill
	}

	return snap
}
