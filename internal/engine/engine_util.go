package engine

import "sort"

// NewState builds a fresh waiting session. Seats are allocated at role
// assignment, not here.
func NewState(seatCount, humanSeat int) State {
	return State{
		Phase:     PhaseWaiting,
		Result:    ResultOngoing,
		SeatCount: seatCount,
		HumanSeat: humanSeat,
		Seats:     map[int]Seat{},
	}
}

// clone copies the state deeply enough that Apply never aliases the maps
// or slices of its input.
func (s State) clone() State {
	ns := s
	ns.Seats = make(map[int]Seat, len(s.Seats))
	for k, v := range s.Seats {
		ns.Seats[k] = v
	}
	ns.SpeakingOrder = append([]int(nil), s.SpeakingOrder...)
	ns.Speeches = append([]Speech(nil), s.Speeches...)
	ns.Night.Done = append([]Role(nil), s.Night.Done...)
	if s.LastDead != nil {
		dead := *s.LastDead
		ns.LastDead = &dead
	}
	return ns
}

// AliveSeats returns living seat numbers in ascending order.
func AliveSeats(s State) []int {
	var alive []int
	for num, seat := range s.Seats {
		if seat.Alive {
			alive = append(alive, num)
		}
	}
	sort.Ints(alive)
	return alive
}

// DeadSeats returns dead seat numbers in ascending order.
func DeadSeats(s State) []int {
	var dead []int
	for num, seat := range s.Seats {
		if !seat.Alive {
			dead = append(dead, num)
		}
	}
	sort.Ints(dead)
	return dead
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
