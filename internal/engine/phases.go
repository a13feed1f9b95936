package engine

import "fmt"

// PhaseStep maps a phase to its successor and the entered phase's
// duration budget in seconds. Settlement side effects live in advance,
// not in this table.
type PhaseStep struct {
	Next        Phase
	DurationSec int
}

var PhaseOrder = map[Phase]PhaseStep{
	PhaseRoleAssigned:  {PhaseDayDiscussion, 120},
	PhaseDayDiscussion: {PhaseDayVoting, 20},
	PhaseDayVoting:     {PhaseDayResult, 5},
	PhaseDayResult:     {PhaseNightAction, 120},
	PhaseNightAction:   {PhaseNightResult, 5},
	PhaseNightResult:   {PhaseDayDiscussion, 120},
}

// advance performs one phase transition in place, including the leaving
// phase's settlement, and returns the events it produced. Callers must
// have handled waiting/game_over and version guards already.
func advance(s *State) []Event {
	step := PhaseOrder[s.Phase]
	next := step.Next
	dur := step.DurationSec

	var events []Event
	switch s.Phase {
	case PhaseDayVoting:
		events = append(events, settleVotes(s)...)
	case PhaseNightAction:
		events = append(events, settleNight(s)...)
		// Exactly one round increment per day/night cycle, here and
		// nowhere else.
		s.Round++
	}

	if s.Result != ResultOngoing {
		next = PhaseGameOver
		dur = 0
	}

	events = append(events, enterPhase(s, next, dur)...)
	return events
}

// enterPhase switches to next, bumps the phase version, runs the entered
// phase's initialization, and sets the narrator announcement.
func enterPhase(s *State, next Phase, durationSec int) []Event {
	s.Phase = next
	s.Version++

	switch next {
	case PhaseDayDiscussion:
		initSpeaking(s)
		clearVotes(s)
	case PhaseDayVoting:
		clearVotes(s)
	case PhaseNightAction:
		initNight(s)
	}

	events := []Event{{Type: EvtPhaseChanged, Phase: next, Round: s.Round, DurationSec: durationSec}}
	if text := announcementFor(s, next); text != "" {
		s.Announcement = text
		events = append(events, Event{Type: EvtAnnouncementSet, Text: text})
	}
	return events
}

func announcementFor(s *State, phase Phase) string {
	switch phase {
	case PhaseRoleAssigned:
		return "Roles have been assigned. Check your role card."
	case PhaseNightAction:
		return "Night falls. Close your eyes - the werewolves are choosing a target."
	case PhaseDayResult:
		if s.LastDead != nil && s.LastDead.KilledBy == KilledByVote {
			return fmt.Sprintf("Seat %d (%s) was voted out.", s.LastDead.Seat, s.LastDead.Role)
		}
		return "The vote was inconclusive. No one was eliminated."
	case PhaseNightResult:
		if s.LastDead != nil && s.LastDead.KilledBy != KilledByVote {
			return fmt.Sprintf("Dawn breaks. Seat %d (%s) died in the night.", s.LastDead.Seat, s.LastDead.Role)
		}
		return "Dawn breaks. It was a peaceful night - no one died."
	case PhaseGameOver:
		switch s.Result {
		case ResultVillagerWin:
			return "Game over. The villagers win!"
		case ResultWerewolfWin:
			return "Game over. The werewolves win!"
		}
	}
	return ""
}

// settleVotes tallies last-write-wins votes from living seats and
// eliminates the strict plurality target. Ties break to the lowest seat
// number so that identical vote maps always eliminate the same seat.
func settleVotes(s *State) []Event {
	counts := map[int]int{}
	for _, seat := range s.Seats {
		if seat.Alive && seat.HasVoted && seat.VotedFor != 0 {
			counts[seat.VotedFor]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	votedOut, best := 0, 0
	for target, n := range counts {
		if n > best || (n == best && target < votedOut) {
			votedOut, best = target, n
		}
	}

	events := kill(s, votedOut, KilledByVote)
	events = append(events, checkWin(s)...)
	return events
}

// settleNight applies the night slate: the werewolf kill stands unless the
// witch's save targeted the same seat; poison is applied unless it targets
// the kill seat (one seat never resolves twice in a night). LastDead
// reports the werewolf kill when it lands, otherwise the poison death.
func settleNight(s *State) []Event {
	var events []Event

	killed := s.Night.Kill
	if killed != 0 && killed != s.Night.Save {
		events = append(events, kill(s, killed, KilledByWerewolf)...)
	} else {
		killed = 0
	}

	if p := s.Night.Poison; p != 0 && p != s.Night.Kill {
		poisonEvents := kill(s, p, KilledByWitch)
		events = append(events, poisonEvents...)
		if killed != 0 && len(poisonEvents) > 0 {
			// Two deaths: report the werewolf's.
			s.LastDead = &DeadPlayer{Seat: killed, Role: s.Seats[killed].Role, KilledBy: KilledByWerewolf}
		}
	}

	if len(events) == 0 {
		s.LastDead = nil
	}
	events = append(events, checkWin(s)...)
	return events
}

func kill(s *State, seatNum int, by KilledBy) []Event {
	seat, ok := s.Seats[seatNum]
	if !ok || !seat.Alive {
		return nil
	}
	seat.Alive = false
	s.Seats[seatNum] = seat
	s.LastDead = &DeadPlayer{Seat: seatNum, Role: seat.Role, KilledBy: by}
	return []Event{{Type: EvtPlayerDied, Seat: seatNum, Role: seat.Role, KilledBy: by, Round: s.Round}}
}

func checkWin(s *State) []Event {
	wolves, others := 0, 0
	for _, seat := range s.Seats {
		if !seat.Alive {
			continue
		}
		if seat.Role == RoleWerewolf {
			wolves++
		} else {
			others++
		}
	}

	switch {
	case wolves == 0:
		s.Result = ResultVillagerWin
	case wolves >= others:
		s.Result = ResultWerewolfWin
	default:
		return nil
	}
	return []Event{{Type: EvtGameCompleted, Result: s.Result, Round: s.Round}}
}

func initSpeaking(s *State) {
	s.SpeakingOrder = AliveSeats(*s)
	s.SpeakerIndex = 0
}

func clearVotes(s *State) {
	for num, seat := range s.Seats {
		seat.HasVoted = false
		seat.VotedFor = 0
		s.Seats[num] = seat
	}
}
