package engine

import "slices"

// NightOrder is the fixed role rotation for night_action. The witch acts
// last so she sees the werewolves' pending kill before deciding on the
// save or the poison.
var NightOrder = []Role{RoleWerewolf, RoleSeer, RoleWitch}

// CurrentSpeaker returns the first living seat at or after SpeakerIndex in
// the speaking order. It fails closed: once the order is exhausted there
// is no current speaker, never an out-of-range seat.
func CurrentSpeaker(s State) (int, bool) {
	for i := s.SpeakerIndex; i < len(s.SpeakingOrder); i++ {
		seat := s.SpeakingOrder[i]
		if s.Seats[seat].Alive {
			return seat, true
		}
	}
	return 0, false
}

// nextNightRole picks the next role in NightOrder that has not acted yet.
// Roles with no living member are skipped automatically and recorded as
// done so a poller sees them completed.
func nextNightRole(s *State) (Role, bool) {
	for _, role := range NightOrder {
		if slices.Contains(s.Night.Done, role) {
			continue
		}
		if roleAlive(*s, role) {
			return role, true
		}
		s.Night.Done = append(s.Night.Done, role)
	}
	return "", false
}

func roleAlive(s State, role Role) bool {
	for _, seat := range s.Seats {
		if seat.Alive && seat.Role == role {
			return true
		}
	}
	return false
}

func initNight(s *State) {
	s.Night = Night{}
	if first, ok := nextNightRole(s); ok {
		s.Night.ActingRole = first
	}
}
