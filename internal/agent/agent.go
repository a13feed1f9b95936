// Package agent is the reference implementation of the generation
// collaborator: it decides what an AI-controlled seat says, who it votes
// for, and what its role does at night. Decisions are heuristic and only
// use the information the role could legitimately see.
package agent

import (
	"math/rand"

	"github.com/DoyleJ11/werewolf-arena/internal/engine"
)

// View is the slice of session state a single agent decision may read.
type View struct {
	Self        int
	Seats       map[int]engine.Seat
	PendingKill int // werewolves' chosen target, visible to the witch
	SaveUsed    bool
	PoisonUsed  bool
}

type Action struct {
	Type   engine.ActionType
	Target int
}

var speechLibrary = []string{
	"I think everyone played that round pretty well.",
	"Something about the way a few people phrased things felt off to me.",
	"Let's stay calm and work through what we actually know.",
	"Based on today's discussion, I think we need to vote someone out.",
	"We have to trust each other if we want to beat the wolves.",
	"My gut says one of the quiet ones is hiding something.",
	"Let's just get to the vote, we're wasting daylight.",
	"I agree with the last analysis, that reasoning holds up.",
	"I'd like more information before I commit to anything.",
	"Don't worry, I'll do my best to protect the village.",
	"That last speech sounded rehearsed. I need to think about it.",
	"We should trust the majority vote and move on.",
}

// Speech picks a line for a discussion turn. r may be nil for the global
// source.
func Speech(r *rand.Rand) string {
	return speechLibrary[intn(r, len(speechLibrary))]
}

// DecideAction is the night-action policy, dispatched on the closed role
// enum. It always returns a legal action for the role or a pass where the
// role allows one.
func DecideAction(r *rand.Rand, role engine.Role, targets []int, view View) Action {
	switch role {
	case engine.RoleWerewolf:
		// Never waste the kill on a packmate.
		prey := filter(targets, func(seat int) bool {
			return view.Seats[seat].Role != engine.RoleWerewolf
		})
		if len(prey) == 0 {
			prey = targets
		}
		return Action{Type: engine.ActionKill, Target: pick(r, prey)}

	case engine.RoleSeer:
		return Action{Type: engine.ActionCheck, Target: pick(r, targets)}

	case engine.RoleWitch:
		if view.PendingKill != 0 && !view.SaveUsed {
			return Action{Type: engine.ActionSave, Target: view.PendingKill}
		}
		// No one to save: hold both potions rather than poison blind.
		return Action{Type: engine.ActionSave}

	default:
		// villager/hunter have no night action; callers should not ask,
		// but a pass keeps the contract total.
		return Action{Type: engine.ActionSave}
	}
}

// DecideVote picks a day-vote target. Werewolves avoid voting for each
// other; everyone else votes a uniform pick of the available targets.
func DecideVote(r *rand.Rand, self int, targets []int, seats map[int]engine.Seat) int {
	if seats[self].Role == engine.RoleWerewolf {
		prey := filter(targets, func(seat int) bool {
			return seats[seat].Role != engine.RoleWerewolf
		})
		if len(prey) > 0 {
			return pick(r, prey)
		}
	}
	return pick(r, targets)
}

func filter(seats []int, keep func(int) bool) []int {
	var out []int
	for _, s := range seats {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func pick(r *rand.Rand, seats []int) int {
	if len(seats) == 0 {
		return 0
	}
	return seats[intn(r, len(seats))]
}

func intn(r *rand.Rand, n int) int {
	if r != nil {
		return r.Intn(n)
	}
	return rand.Intn(n)
}
