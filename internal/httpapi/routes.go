package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/werewolf-arena/internal/hub"
)

func SetupRoutes(h *hub.Hub, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)

	r.Route("/api/rooms/{roomID}", func(r chi.Router) {
		r.Post("/assign-roles", AssignRoles(h, log))
		r.Get("/state", GetState(h))
		r.Post("/advance-phase", AdvancePhase(h))
		r.Post("/speech", SubmitSpeech(h))
		r.Post("/advance-speaker", AdvanceSpeaker(h))
		r.Post("/vote", SubmitVote(h))
		r.Post("/night-action", SubmitNightAction(h))
		r.Post("/complete-announcement", CompleteAnnouncement(h))
		r.Get("/messages", GetMessages(h))

		// agent collaborator endpoints
		r.Post("/agent-speech", AgentSpeech(h))
		r.Post("/agent-action", AgentAction(h))
		r.Post("/agent-vote", AgentVote(h))
	})

	return r
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
