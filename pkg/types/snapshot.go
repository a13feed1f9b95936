package types

// Snapshot is the full session view a poller gets from GET /state.
// Field names follow the wire contract the room page consumes, so the
// server and the reconciler marshal/unmarshal the same struct.
type Snapshot struct {
	RoomID       string `json:"roomId"`
	Phase        string `json:"phase"`
	PhaseVersion int    `json:"phaseVersion"`
	Result       string `json:"result"`
	Round        int    `json:"round"`

	AlivePlayers  []int `json:"alivePlayers"`
	DeadPlayers   []int `json:"deadPlayers"`
	PhaseTimeLeft int   `json:"phaseTimeLeft"`

	// day_discussion
	SpeakingOrder       []int `json:"speakingOrder,omitempty"`
	CurrentSpeaker      int   `json:"currentSpeaker,omitempty"`
	CurrentSpeakerIndex int   `json:"currentSpeakerIndex"`

	// day_voting
	PlayerVotes map[int]VoteStatus `json:"playerVotes,omitempty"`

	// night_action
	NightActingRole  string   `json:"nightActingRole,omitempty"`
	NightDone        []string `json:"nightDone,omitempty"`
	NightPendingKill int      `json:"nightPendingKill,omitempty"`

	LastDeadPlayer *DeadPlayer `json:"lastDeadPlayer,omitempty"`
	Announcement   string      `json:"announcement,omitempty"`
	HumanSeat      int         `json:"humanSeat"`
}

// VoteStatus mirrors one alive seat's voting state during day_voting.
type VoteStatus struct {
	HasVoted bool `json:"hasVoted"`
	VotedFor int  `json:"votedFor,omitempty"`
}

// DeadPlayer describes the most recent elimination.
type DeadPlayer struct {
	Seat     int    `json:"seat"`
	Role     string `json:"role"`
	KilledBy string `json:"killedBy"` // "vote" | "werewolf" | "witch"
}
