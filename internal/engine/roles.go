package engine

import "math/rand"

// rolePool12 is the standard 12-seat balance: 2 werewolves, seer, witch,
// hunter, 7 villagers.
var rolePool12 = []Role{
	RoleWerewolf, RoleWerewolf,
	RoleSeer, RoleWitch, RoleHunter,
	RoleVillager, RoleVillager, RoleVillager,
	RoleVillager, RoleVillager, RoleVillager, RoleVillager,
}

// RolePool returns the role multiset for a seat count. Non-standard counts
// get a representative sub-balance: about one werewolf per six seats and
// up to three special roles.
func RolePool(seatCount int) []Role {
	if seatCount == 12 {
		return append([]Role(nil), rolePool12...)
	}

	werewolves := max(1, seatCount/6)
	specials := min(3, seatCount/4)
	villagers := seatCount - werewolves - specials

	pool := make([]Role, 0, seatCount)
	for i := 0; i < werewolves; i++ {
		pool = append(pool, RoleWerewolf)
	}
	pool = append(pool, []Role{RoleSeer, RoleWitch, RoleHunter}[:specials]...)
	for i := 0; i < villagers; i++ {
		pool = append(pool, RoleVillager)
	}
	return pool
}

// shuffle is an unbiased Fisher-Yates over the pool. rand.Shuffle swaps
// each index with a uniform pick from the remaining prefix, so every
// permutation is equally likely.
func shuffle(pool []Role, r *rand.Rand) {
	swap := func(i, j int) { pool[i], pool[j] = pool[j], pool[i] }
	if r != nil {
		r.Shuffle(len(pool), swap)
		return
	}
	rand.Shuffle(len(pool), swap)
}
