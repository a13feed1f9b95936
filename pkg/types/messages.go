package types

import "encoding/json"

// Envelope wraps every HTTP response. The boundary always unwraps it the
// same way: Code < 400 means Data holds the payload, otherwise Message
// explains the failure. No handler ever returns a bare payload.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client -> Server

type AssignRolesRequest struct {
	SeatCount int `json:"seatCount"`
	HumanSeat int `json:"humanSeat"`
}

type AdvancePhaseRequest struct {
	// PhaseVersion is the version from the snapshot the caller acted on.
	// A stale version makes the advance a no-op. Negative means
	// unconditional (used by the room's own deadline timer).
	PhaseVersion int `json:"phaseVersion"`
}

type SubmitSpeechRequest struct {
	Seat int    `json:"seat"`
	Text string `json:"text"`
}

type SubmitVoteRequest struct {
	VoterSeat  int `json:"voterSeat"`
	TargetSeat int `json:"targetSeat"`
}

type SubmitNightActionRequest struct {
	Seat       int    `json:"seat"`
	Role       string `json:"role"`
	ActionType string `json:"actionType"` // "kill" | "check" | "save" | "poison"
	TargetSeat int    `json:"targetSeat,omitempty"`
}

type AgentSpeechRequest struct {
	Seat int `json:"seat"`
}

type AgentActionRequest struct {
	Seat             int    `json:"seat"`
	Role             string `json:"role"`
	AvailableTargets []int  `json:"availableTargets"`
}

type AgentVoteRequest struct {
	Seat int `json:"seat"`
}

// Server -> Client

type AssignRolesResponse struct {
	RoomID      string         `json:"roomId"`
	RolesBySeat map[int]string `json:"rolesBySeat"`
}

type AdvancePhaseResponse struct {
	Phase           string `json:"phase"`
	DurationSeconds int    `json:"durationSeconds"`
}

type SubmitSpeechResponse struct {
	Seat int `json:"seat"`
}

type AdvanceSpeakerResponse struct {
	Advanced       bool `json:"advanced"`
	CurrentSpeaker int  `json:"currentSpeaker,omitempty"`
}

type SubmitVoteResponse struct {
	VoterSeat  int `json:"voterSeat"`
	TargetSeat int `json:"targetSeat"`
}

type SubmitNightActionResponse struct {
	ActionType string `json:"actionType"`
	TargetSeat int    `json:"targetSeat,omitempty"`
}

type AgentSpeechResponse struct {
	Seat int    `json:"seat"`
	Text string `json:"text"`
}

type AgentActionResponse struct {
	Seat       int    `json:"seat"`
	ActionType string `json:"actionType"`
	TargetSeat int    `json:"targetSeat,omitempty"`
}

// GameMessage is one entry of the room's append-only event log.
type GameMessage struct {
	ID        string         `json:"id"`
	Timestamp int64          `json:"timestamp"`
	Type      string         `json:"type"` // "phase_change" | "player_death" | "game_end"
	Content   map[string]any `json:"content"`
}

type MessagesResponse struct {
	Messages []GameMessage `json:"messages"`
}
