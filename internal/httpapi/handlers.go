package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/werewolf-arena/internal/agent"
	"github.com/DoyleJ11/werewolf-arena/internal/engine"
	"github.com/DoyleJ11/werewolf-arena/internal/hub"
	"github.com/DoyleJ11/werewolf-arena/internal/room"
	"github.com/DoyleJ11/werewolf-arena/pkg/types"
)

const defaultSeatCount = 12

func getRoom(h *hub.Hub, roomID string) *room.Room {
	reply := make(chan *room.Room, 1)
	h.Inbox() <- hub.GetRoom{ID: roomID, Reply: reply}
	return <-reply
}

func decode[T any](w http.ResponseWriter, r *http.Request, into *T) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		respondErr(w, http.StatusBadRequest, "bad json")
		return false
	}
	return true
}

// AssignRoles creates the room if needed and deals the roles. Repeat calls
// on a started room fail with AlreadyAssigned.
func AssignRoles(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := chi.URLParam(r, "roomID")
		var req types.AssignRolesRequest
		if !decode(w, r, &req) {
			return
		}
		if req.SeatCount <= 0 {
			req.SeatCount = defaultSeatCount
		}
		if req.HumanSeat < 1 || req.HumanSeat > req.SeatCount {
			respondErr(w, http.StatusBadRequest, "human seat out of range")
			return
		}

		ensured := make(chan *room.Room, 1)
		h.Inbox() <- hub.EnsureRoom{ID: roomID, SeatCount: req.SeatCount, HumanSeat: req.HumanSeat, Reply: ensured}
		rm := <-ensured

		reply := make(chan room.AssignRolesReply, 1)
		rm.Inbox() <- room.AssignRoles{Reply: reply}
		res := <-reply
		if res.Err != nil {
			respondErr(w, statusFor(res.Err), res.Err.Error())
			return
		}

		roles := make(map[int]string, len(res.RolesBySeat))
		for seat, role := range res.RolesBySeat {
			roles[seat] = string(role)
		}
		log.Info("roles assigned", zap.String("room", roomID), zap.Int("seats", req.SeatCount))
		respondOK(w, types.AssignRolesResponse{RoomID: roomID, RolesBySeat: roles})
	}
}

func GetState(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := getRoom(h, chi.URLParam(r, "roomID"))
		if rm == nil {
			respondErr(w, http.StatusNotFound, "room not found")
			return
		}
		reply := make(chan types.Snapshot, 1)
		rm.Inbox() <- room.GetState{Reply: reply}
		respondOK(w, <-reply)
	}
}

func AdvancePhase(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := getRoom(h, chi.URLParam(r, "roomID"))
		if rm == nil {
			respondErr(w, http.StatusNotFound, "room not found")
			return
		}
		req := types.AdvancePhaseRequest{PhaseVersion: -1}
		if r.ContentLength > 0 && !decode(w, r, &req) {
			return
		}
		reply := make(chan room.AdvancePhaseReply, 1)
		rm.Inbox() <- room.AdvancePhase{PhaseVersion: req.PhaseVersion, Reply: reply}
		res := <-reply
		respondOK(w, types.AdvancePhaseResponse{Phase: string(res.Phase), DurationSeconds: res.DurationSec})
	}
}

func SubmitSpeech(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := getRoom(h, chi.URLParam(r, "roomID"))
		if rm == nil {
			respondErr(w, http.StatusNotFound, "room not found")
			return
		}
		var req types.SubmitSpeechRequest
		if !decode(w, r, &req) {
			return
		}
		reply := make(chan error, 1)
		rm.Inbox() <- room.SubmitSpeech{Seat: req.Seat, Text: req.Text, Reply: reply}
		if err := <-reply; err != nil {
			respondErr(w, statusFor(err), err.Error())
			return
		}
		respondOK(w, types.SubmitSpeechResponse{Seat: req.Seat})
	}
}

func AdvanceSpeaker(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := getRoom(h, chi.URLParam(r, "roomID"))
		if rm == nil {
			respondErr(w, http.StatusNotFound, "room not found")
			return
		}
		reply := make(chan room.AdvanceSpeakerReply, 1)
		rm.Inbox() <- room.AdvanceSpeaker{Reply: reply}
		res := <-reply
		if res.Err != nil {
			respondErr(w, statusFor(res.Err), res.Err.Error())
			return
		}
		respondOK(w, types.AdvanceSpeakerResponse{Advanced: res.Advanced, CurrentSpeaker: res.CurrentSpeaker})
	}
}

func SubmitVote(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := getRoom(h, chi.URLParam(r, "roomID"))
		if rm == nil {
			respondErr(w, http.StatusNotFound, "room not found")
			return
		}
		var req types.SubmitVoteRequest
		if !decode(w, r, &req) {
			return
		}
		reply := make(chan error, 1)
		rm.Inbox() <- room.SubmitVote{Voter: req.VoterSeat, Target: req.TargetSeat, Reply: reply}
		if err := <-reply; err != nil {
			respondErr(w, statusFor(err), err.Error())
			return
		}
		respondOK(w, types.SubmitVoteResponse{VoterSeat: req.VoterSeat, TargetSeat: req.TargetSeat})
	}
}

func SubmitNightAction(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := getRoom(h, chi.URLParam(r, "roomID"))
		if rm == nil {
			respondErr(w, http.StatusNotFound, "room not found")
			return
		}
		var req types.SubmitNightActionRequest
		if !decode(w, r, &req) {
			return
		}
		reply := make(chan error, 1)
		rm.Inbox() <- room.SubmitNightAction{
			Seat:   req.Seat,
			Role:   engine.Role(req.Role),
			Action: engine.ActionType(req.ActionType),
			Target: req.TargetSeat,
			Reply:  reply,
		}
		if err := <-reply; err != nil {
			respondErr(w, statusFor(err), err.Error())
			return
		}
		respondOK(w, types.SubmitNightActionResponse{ActionType: req.ActionType, TargetSeat: req.TargetSeat})
	}
}

func CompleteAnnouncement(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := getRoom(h, chi.URLParam(r, "roomID"))
		if rm == nil {
			respondErr(w, http.StatusNotFound, "room not found")
			return
		}
		reply := make(chan error, 1)
		rm.Inbox() <- room.CompleteAnnouncement{Reply: reply}
		if err := <-reply; err != nil {
			respondErr(w, statusFor(err), err.Error())
			return
		}
		respondOK(w, struct{}{})
	}
}

func GetMessages(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := getRoom(h, chi.URLParam(r, "roomID"))
		if rm == nil {
			respondErr(w, http.StatusNotFound, "room not found")
			return
		}
		reply := make(chan []types.GameMessage, 1)
		rm.Inbox() <- room.GetMessages{After: r.URL.Query().Get("after"), Reply: reply}
		respondOK(w, types.MessagesResponse{Messages: <-reply})
	}
}

// AgentSpeech asks the generation collaborator for a discussion line.
func AgentSpeech(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := getRoom(h, chi.URLParam(r, "roomID"))
		if rm == nil {
			respondErr(w, http.StatusNotFound, "room not found")
			return
		}
		var req types.AgentSpeechRequest
		if !decode(w, r, &req) {
			return
		}
		respondOK(w, types.AgentSpeechResponse{Seat: req.Seat, Text: agent.Speech(nil)})
	}
}

// AgentAction asks the collaborator to pick a night action for a seat.
func AgentAction(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := getRoom(h, chi.URLParam(r, "roomID"))
		if rm == nil {
			respondErr(w, http.StatusNotFound, "room not found")
			return
		}
		var req types.AgentActionRequest
		if !decode(w, r, &req) {
			return
		}
		if len(req.AvailableTargets) == 0 {
			respondErr(w, http.StatusBadRequest, "no available targets")
			return
		}

		viewReply := make(chan room.AgentView, 1)
		rm.Inbox() <- room.GetAgentView{Reply: viewReply}
		view := <-viewReply

		action := agent.DecideAction(nil, engine.Role(req.Role), req.AvailableTargets, agent.View{
			Self:        req.Seat,
			Seats:       view.Seats,
			PendingKill: view.PendingKill,
			SaveUsed:    view.SaveUsed,
			PoisonUsed:  view.PoisonUsed,
		})
		respondOK(w, types.AgentActionResponse{
			Seat:       req.Seat,
			ActionType: string(action.Type),
			TargetSeat: action.Target,
		})
	}
}

// AgentVote decides and submits a vote for an AI seat in one operation, so
// the decision and the tally never disagree.
func AgentVote(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := getRoom(h, chi.URLParam(r, "roomID"))
		if rm == nil {
			respondErr(w, http.StatusNotFound, "room not found")
			return
		}
		var req types.AgentVoteRequest
		if !decode(w, r, &req) {
			return
		}

		stateReply := make(chan types.Snapshot, 1)
		rm.Inbox() <- room.GetState{Reply: stateReply}
		snap := <-stateReply

		var targets []int
		for _, seat := range snap.AlivePlayers {
			if seat != req.Seat {
				targets = append(targets, seat)
			}
		}
		if len(targets) == 0 {
			respondErr(w, http.StatusBadRequest, "no available targets")
			return
		}

		viewReply := make(chan room.AgentView, 1)
		rm.Inbox() <- room.GetAgentView{Reply: viewReply}
		view := <-viewReply

		target := agent.DecideVote(nil, req.Seat, targets, view.Seats)
		voteReply := make(chan error, 1)
		rm.Inbox() <- room.SubmitVote{Voter: req.Seat, Target: target, Reply: voteReply}
		if err := <-voteReply; err != nil {
			respondErr(w, statusFor(err), err.Error())
			return
		}
		respondOK(w, types.SubmitVoteResponse{VoterSeat: req.Seat, TargetSeat: target})
	}
}
