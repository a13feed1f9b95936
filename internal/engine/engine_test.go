package engine

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// startedState deals roles deterministically and returns the state in
// role_assigned.
func startedState(t *testing.T, seatCount int) State {
	t.Helper()
	_, s, err := Apply(NewState(seatCount, 1), Command{Type: CmdAssignRoles, Rand: seeded(42)})
	require.NoError(t, err)
	require.Equal(t, PhaseRoleAssigned, s.Phase)
	return s
}

// fixedState hand-builds a session with known roles in the given phase.
// enterPhase runs the phase's init (speaking order, night slate).
func fixedState(roles map[int]Role, phase Phase) State {
	s := NewState(len(roles), 1)
	for num, role := range roles {
		s.Seats[num] = Seat{Num: num, Role: role, Controller: ControllerAgent, Alive: true}
	}
	s.Round = 1
	s.Phase = PhaseRoleAssigned
	enterPhase(&s, phase, 0)
	return s
}

func mustAdvance(t *testing.T, s State) State {
	t.Helper()
	_, ns, err := Apply(s, Command{Type: CmdAdvancePhase, PhaseVersion: -1})
	require.NoError(t, err)
	return ns
}

func TestAssignRolesDealsFullPool(t *testing.T) {
	s := startedState(t, 12)

	require.Len(t, s.Seats, 12)
	counts := map[Role]int{}
	for num := 1; num <= 12; num++ {
		seat, ok := s.Seats[num]
		require.True(t, ok, "seat %d missing", num)
		require.True(t, seat.Alive)
		counts[seat.Role]++
	}
	assert.Equal(t, 2, counts[RoleWerewolf])
	assert.Equal(t, 1, counts[RoleSeer])
	assert.Equal(t, 1, counts[RoleWitch])
	assert.Equal(t, 1, counts[RoleHunter])
	assert.Equal(t, 7, counts[RoleVillager])

	assert.Equal(t, ControllerHuman, s.Seats[1].Controller)
	assert.Equal(t, ControllerAgent, s.Seats[2].Controller)
	assert.Equal(t, 1, s.Round)
	assert.NotEmpty(t, s.Announcement)

	_, _, err := Apply(s, Command{Type: CmdAssignRoles, Rand: seeded(43)})
	assert.ErrorIs(t, err, ErrAlreadyAssigned)
}

func TestAssignRolesShuffleIsRoughlyUniform(t *testing.T) {
	const trials = 1000
	wolvesAtSeatOne := 0
	for i := 0; i < trials; i++ {
		_, s, err := Apply(NewState(12, 1), Command{Type: CmdAssignRoles, Rand: seeded(int64(i))})
		require.NoError(t, err)
		if s.Seats[1].Role == RoleWerewolf {
			wolvesAtSeatOne++
		}
	}
	// expectation 2/12 of trials; a fair shuffle stays well inside this band
	assert.Greater(t, wolvesAtSeatOne, 100)
	assert.Less(t, wolvesAtSeatOne, 240)
}

func TestPhaseChainFollowsTheCycle(t *testing.T) {
	s := startedState(t, 12)

	want := []Phase{PhaseDayDiscussion, PhaseDayVoting, PhaseDayResult, PhaseNightAction, PhaseNightResult, PhaseDayDiscussion}
	for _, phase := range want {
		s = mustAdvance(t, s)
		require.Equal(t, phase, s.Phase)
	}
	assert.Equal(t, 2, s.Round, "round increments once per full cycle")
}

func TestAdvanceVersionGuard(t *testing.T) {
	s := startedState(t, 12)
	version := s.Version

	// stale token: no-op, no error
	_, ns, err := Apply(s, Command{Type: CmdAdvancePhase, PhaseVersion: version - 1})
	require.NoError(t, err)
	assert.Equal(t, s.Phase, ns.Phase)
	assert.Equal(t, version, ns.Version)

	// matching token advances exactly once
	_, ns, err = Apply(s, Command{Type: CmdAdvancePhase, PhaseVersion: version})
	require.NoError(t, err)
	assert.Equal(t, PhaseDayDiscussion, ns.Phase)
	assert.Equal(t, version+1, ns.Version)

	// the same token replayed against the new state is now stale
	_, again, err := Apply(ns, Command{Type: CmdAdvancePhase, PhaseVersion: version})
	require.NoError(t, err)
	assert.Equal(t, ns.Phase, again.Phase)
}

func TestAdvanceIsNoOpInTerminalPhases(t *testing.T) {
	waiting := NewState(12, 1)
	_, ns, err := Apply(waiting, Command{Type: CmdAdvancePhase, PhaseVersion: -1})
	require.NoError(t, err)
	assert.Equal(t, PhaseWaiting, ns.Phase)

	over := fixedState(map[int]Role{1: RoleWerewolf, 2: RoleVillager}, PhaseGameOver)
	over.Result = ResultWerewolfWin
	_, ns, err = Apply(over, Command{Type: CmdAdvancePhase, PhaseVersion: -1})
	require.NoError(t, err)
	assert.Equal(t, PhaseGameOver, ns.Phase)
	assert.Equal(t, ResultWerewolfWin, ns.Result)
}

func TestSubmitSpeechValidation(t *testing.T) {
	s := fixedState(map[int]Role{1: RoleVillager, 2: RoleVillager, 3: RoleWerewolf}, PhaseDayDiscussion)
	speaker, ok := CurrentSpeaker(s)
	require.True(t, ok)
	require.Equal(t, 1, speaker)

	tests := []struct {
		name string
		seat int
		text string
		err  error
	}{
		{"not the current speaker", 2, "hello", ErrInvalidSeat},
		{"empty speech", 1, "", ErrEmptySpeech},
		{"over the length cap", 1, strings.Repeat("a", 301), ErrTooLong},
		{"exactly at the cap", 1, strings.Repeat("a", 300), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, ns, err := Apply(s, Command{Type: CmdSubmitSpeech, Seat: tt.seat, Text: tt.text})
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Empty(t, ns.Speeches)
				return
			}
			require.NoError(t, err)
			assert.True(t, ContainsEvent(events, EvtSpeechRecorded))
			require.Len(t, ns.Speeches, 1)
			assert.Equal(t, tt.seat, ns.Speeches[0].Seat)
		})
	}
}

func TestSpeechLengthCountsRunes(t *testing.T) {
	s := fixedState(map[int]Role{1: RoleVillager, 2: RoleWerewolf}, PhaseDayDiscussion)
	// 300 multi-byte characters are within the cap
	_, _, err := Apply(s, Command{Type: CmdSubmitSpeech, Seat: 1, Text: strings.Repeat("狼", 300)})
	assert.NoError(t, err)
	_, _, err = Apply(s, Command{Type: CmdSubmitSpeech, Seat: 1, Text: strings.Repeat("狼", 301)})
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestAdvanceSpeakerSkipsDeadAndFailsClosed(t *testing.T) {
	s := fixedState(map[int]Role{1: RoleVillager, 2: RoleVillager, 3: RoleVillager, 4: RoleWerewolf}, PhaseDayDiscussion)
	require.Equal(t, []int{1, 2, 3, 4}, s.SpeakingOrder)

	// seat 2 dies mid-discussion; it stays in the order but is skipped
	dead := s.Seats[2]
	dead.Alive = false
	s.Seats[2] = dead

	_, s, err := Apply(s, Command{Type: CmdAdvanceSpeaker})
	require.NoError(t, err)
	speaker, ok := CurrentSpeaker(s)
	require.True(t, ok)
	assert.Equal(t, 3, speaker)

	// exhausting the order forces the voting phase
	_, s, err = Apply(s, Command{Type: CmdAdvanceSpeaker})
	require.NoError(t, err)
	_, s, err = Apply(s, Command{Type: CmdAdvanceSpeaker})
	require.NoError(t, err)
	assert.Equal(t, PhaseDayVoting, s.Phase)

	_, ok = CurrentSpeaker(s)
	assert.False(t, ok, "no current speaker outside the order")
}

func TestVotingValidation(t *testing.T) {
	s := fixedState(map[int]Role{1: RoleVillager, 2: RoleVillager, 3: RoleWerewolf}, PhaseDayVoting)
	dead := s.Seats[3]
	dead.Alive = false
	s.Seats[3] = dead

	_, _, err := Apply(s, Command{Type: CmdSubmitVote, Seat: 3, Target: 1})
	assert.ErrorIs(t, err, ErrDeadVoter)
	_, _, err = Apply(s, Command{Type: CmdSubmitVote, Seat: 1, Target: 3})
	assert.ErrorIs(t, err, ErrInvalidTarget)
	_, _, err = Apply(s, Command{Type: CmdSubmitVote, Seat: 1, Target: 9})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	// overwrite: the last vote is the live one
	_, s, err = Apply(s, Command{Type: CmdSubmitVote, Seat: 1, Target: 2})
	require.NoError(t, err)
	_, s, err = Apply(s, Command{Type: CmdSubmitVote, Seat: 1, Target: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Seats[1].VotedFor)
}

func TestVoteSettlementTieBreaksToLowestSeat(t *testing.T) {
	roles := map[int]Role{1: RoleVillager, 2: RoleVillager, 3: RoleVillager, 4: RoleVillager, 5: RoleWerewolf, 6: RoleWerewolf}
	s := fixedState(roles, PhaseDayVoting)

	// 2 votes for seat 5, 2 votes for seat 2: the tie eliminates seat 2
	votes := map[int]int{1: 5, 3: 5, 5: 2, 6: 2}
	for voter, target := range votes {
		var err error
		_, s, err = Apply(s, Command{Type: CmdSubmitVote, Seat: voter, Target: target})
		require.NoError(t, err)
	}

	s = mustAdvance(t, s)
	require.Equal(t, PhaseDayResult, s.Phase)
	require.NotNil(t, s.LastDead)
	assert.Equal(t, 2, s.LastDead.Seat)
	assert.Equal(t, KilledByVote, s.LastDead.KilledBy)
	assert.False(t, s.Seats[2].Alive)

	// deterministic: the same vote map always eliminates the same seat
	s2 := fixedState(roles, PhaseDayVoting)
	for voter, target := range votes {
		var err error
		_, s2, err = Apply(s2, Command{Type: CmdSubmitVote, Seat: voter, Target: target})
		require.NoError(t, err)
	}
	s2 = mustAdvance(t, s2)
	assert.Equal(t, s.LastDead.Seat, s2.LastDead.Seat)
}

func TestVoteSettlementWithNoVotes(t *testing.T) {
	s := fixedState(map[int]Role{1: RoleVillager, 2: RoleVillager, 3: RoleWerewolf}, PhaseDayVoting)
	s = mustAdvance(t, s)
	require.Equal(t, PhaseDayResult, s.Phase)
	assert.Len(t, AliveSeats(s), 3)
	assert.Contains(t, s.Announcement, "inconclusive")
}

func nightState() State {
	return fixedState(map[int]Role{
		1: RoleVillager, 2: RoleVillager, 3: RoleVillager, 4: RoleVillager,
		5: RoleWerewolf, 6: RoleSeer, 7: RoleWitch,
	}, PhaseNightAction)
}

func TestNightRoleRotation(t *testing.T) {
	s := nightState()
	require.Equal(t, RoleWerewolf, s.Night.ActingRole)

	// seer before the wolves is out of turn
	_, _, err := Apply(s, Command{Type: CmdNightAction, Seat: 6, Role: RoleSeer, Action: ActionCheck, Target: 5})
	assert.ErrorIs(t, err, ErrNotYourTurn)

	// a villager claiming the wolf role is an invalid seat
	_, _, err = Apply(s, Command{Type: CmdNightAction, Seat: 1, Role: RoleWerewolf, Action: ActionKill, Target: 2})
	assert.ErrorIs(t, err, ErrInvalidSeat)

	_, s, err = Apply(s, Command{Type: CmdNightAction, Seat: 5, Role: RoleWerewolf, Action: ActionKill, Target: 1})
	require.NoError(t, err)
	assert.Equal(t, RoleSeer, s.Night.ActingRole)

	_, s, err = Apply(s, Command{Type: CmdNightAction, Seat: 6, Role: RoleSeer, Action: ActionCheck, Target: 5})
	require.NoError(t, err)
	assert.Equal(t, RoleWitch, s.Night.ActingRole)
}

func TestWitchSaveCancelsTheKill(t *testing.T) {
	s := nightState()
	var err error
	_, s, err = Apply(s, Command{Type: CmdNightAction, Seat: 5, Role: RoleWerewolf, Action: ActionKill, Target: 1})
	require.NoError(t, err)
	_, s, err = Apply(s, Command{Type: CmdNightAction, Seat: 6, Role: RoleSeer, Action: ActionCheck, Target: 5})
	require.NoError(t, err)

	// the witch acts last and settles the night immediately
	events, s, err := Apply(s, Command{Type: CmdNightAction, Seat: 7, Role: RoleWitch, Action: ActionSave, Target: 1})
	require.NoError(t, err)

	assert.Equal(t, PhaseNightResult, s.Phase)
	assert.True(t, s.Seats[1].Alive)
	assert.Nil(t, s.LastDead, "a saved night reports no death")
	assert.False(t, ContainsEvent(events, EvtPlayerDied))
	assert.True(t, s.WitchSaveUsed)
	assert.Contains(t, s.Announcement, "peaceful")
	assert.Equal(t, 2, s.Round)
}

func TestWitchPassKeepsThePotion(t *testing.T) {
	s := nightState()
	var err error
	_, s, err = Apply(s, Command{Type: CmdNightAction, Seat: 5, Role: RoleWerewolf, Action: ActionKill, Target: 1})
	require.NoError(t, err)
	_, s, err = Apply(s, Command{Type: CmdNightAction, Seat: 6, Role: RoleSeer, Action: ActionCheck, Target: 5})
	require.NoError(t, err)

	_, s, err = Apply(s, Command{Type: CmdNightAction, Seat: 7, Role: RoleWitch, Action: ActionSave, Target: 0})
	require.NoError(t, err)

	assert.False(t, s.WitchSaveUsed)
	assert.Equal(t, PhaseNightResult, s.Phase)
	require.NotNil(t, s.LastDead)
	assert.Equal(t, 1, s.LastDead.Seat)
	assert.Equal(t, KilledByWerewolf, s.LastDead.KilledBy)
}

func TestWitchPotionsAreSingleUse(t *testing.T) {
	s := nightState()
	s.WitchSaveUsed = true
	s.Night.ActingRole = RoleWitch
	s.Night.Done = []Role{RoleWerewolf, RoleSeer}

	_, _, err := Apply(s, Command{Type: CmdNightAction, Seat: 7, Role: RoleWitch, Action: ActionSave, Target: 1})
	assert.ErrorIs(t, err, ErrPotionSpent)

	s.WitchPoisonUsed = true
	_, _, err = Apply(s, Command{Type: CmdNightAction, Seat: 7, Role: RoleWitch, Action: ActionPoison, Target: 5})
	assert.ErrorIs(t, err, ErrPotionSpent)
}

func TestPoisonOnKillSeatResolvesOnce(t *testing.T) {
	s := nightState()
	var err error
	_, s, err = Apply(s, Command{Type: CmdNightAction, Seat: 5, Role: RoleWerewolf, Action: ActionKill, Target: 1})
	require.NoError(t, err)
	_, s, err = Apply(s, Command{Type: CmdNightAction, Seat: 6, Role: RoleSeer, Action: ActionCheck, Target: 5})
	require.NoError(t, err)

	events, s, err := Apply(s, Command{Type: CmdNightAction, Seat: 7, Role: RoleWitch, Action: ActionPoison, Target: 1})
	require.NoError(t, err)

	died := 0
	for _, ev := range events {
		if ev.Type == EvtPlayerDied {
			died++
		}
	}
	assert.Equal(t, 1, died, "one seat never dies twice in a night")
	assert.Equal(t, KilledByWerewolf, s.LastDead.KilledBy)
}

func TestWinDetectionForcesGameOver(t *testing.T) {
	t.Run("villagers win when the last wolf dies", func(t *testing.T) {
		s := fixedState(map[int]Role{1: RoleVillager, 2: RoleVillager, 3: RoleVillager, 4: RoleWerewolf}, PhaseDayVoting)
		for _, voter := range []int{1, 2, 3} {
			var err error
			_, s, err = Apply(s, Command{Type: CmdSubmitVote, Seat: voter, Target: 4})
			require.NoError(t, err)
		}
		s = mustAdvance(t, s)
		assert.Equal(t, PhaseGameOver, s.Phase)
		assert.Equal(t, ResultVillagerWin, s.Result)
		assert.Contains(t, s.Announcement, "villagers win")
	})

	t.Run("wolves win on parity", func(t *testing.T) {
		s := fixedState(map[int]Role{1: RoleVillager, 2: RoleVillager, 3: RoleWerewolf}, PhaseNightAction)
		var err error
		_, s, err = Apply(s, Command{Type: CmdNightAction, Seat: 3, Role: RoleWerewolf, Action: ActionKill, Target: 1})
		require.NoError(t, err)
		assert.Equal(t, PhaseGameOver, s.Phase)
		assert.Equal(t, ResultWerewolfWin, s.Result)
	})
}

func TestNightSkipsDeadRoles(t *testing.T) {
	s := fixedState(map[int]Role{
		1: RoleVillager, 2: RoleVillager, 3: RoleVillager,
		4: RoleWerewolf, 5: RoleSeer, 6: RoleWitch,
	}, PhaseDayResult)
	dead := s.Seats[5]
	dead.Alive = false
	s.Seats[5] = dead

	s = mustAdvance(t, s)
	require.Equal(t, PhaseNightAction, s.Phase)
	require.Equal(t, RoleWerewolf, s.Night.ActingRole)

	// the dead seer is rotated past straight to the witch
	var err error
	_, s, err = Apply(s, Command{Type: CmdNightAction, Seat: 4, Role: RoleWerewolf, Action: ActionKill, Target: 1})
	require.NoError(t, err)
	assert.Equal(t, RoleWitch, s.Night.ActingRole)
	assert.Contains(t, s.Night.Done, RoleSeer)
}

func TestCompleteAnnouncementIsIdempotent(t *testing.T) {
	s := startedState(t, 12)
	require.NotEmpty(t, s.Announcement)

	events, s, err := Apply(s, Command{Type: CmdCompleteAnnouncement})
	require.NoError(t, err)
	assert.True(t, ContainsEvent(events, EvtAnnouncementCleared))
	assert.Empty(t, s.Announcement)

	events, s, err = Apply(s, Command{Type: CmdCompleteAnnouncement})
	require.NoError(t, err)
	assert.Empty(t, events, "clearing clear is a no-op")
	assert.Empty(t, s.Announcement)
}

func TestApplyNeverMutatesItsInput(t *testing.T) {
	s := fixedState(map[int]Role{1: RoleVillager, 2: RoleVillager, 3: RoleWerewolf}, PhaseDayVoting)
	before := s.Seats[1]

	_, _, err := Apply(s, Command{Type: CmdSubmitVote, Seat: 1, Target: 3})
	require.NoError(t, err)
	assert.Equal(t, before, s.Seats[1], "input state must stay untouched")
}

func TestRolePoolScalesWithSeatCount(t *testing.T) {
	tests := []struct {
		seats  int
		wolves int
	}{
		{6, 1},
		{8, 1},
		{12, 2},
		{18, 3},
	}
	for _, tt := range tests {
		pool := RolePool(tt.seats)
		require.Len(t, pool, tt.seats)
		wolves := 0
		for _, role := range pool {
			if role == RoleWerewolf {
				wolves++
			}
		}
		assert.Equal(t, tt.wolves, wolves, "seats=%d", tt.seats)
	}
}
