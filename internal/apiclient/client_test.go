package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/werewolf-arena/pkg/types"
)

func envelopeServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestUnwrapSuccessEnvelope(t *testing.T) {
	var gotPath string
	client := envelopeServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		data, _ := json.Marshal(types.Snapshot{RoomID: "r9", Phase: "day_voting", Round: 2})
		json.NewEncoder(w).Encode(types.Envelope{Code: 200, Message: "ok", Data: data})
	})

	snap, err := client.GetState(context.Background(), "r9")
	require.NoError(t, err)
	assert.Equal(t, "/api/rooms/r9/state", gotPath)
	assert.Equal(t, "r9", snap.RoomID)
	assert.Equal(t, "day_voting", snap.Phase)
	assert.Equal(t, 2, snap.Round)
}

func TestUnwrapErrorEnvelope(t *testing.T) {
	client := envelopeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(types.Envelope{Code: 409, Message: "roles already assigned"})
	})

	_, err := client.AssignRoles(context.Background(), "r9", 12, 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Code)
	assert.Contains(t, apiErr.Error(), "roles already assigned")
}

func TestEmptyDataDecodesToZero(t *testing.T) {
	client := envelopeServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(types.Envelope{Code: 200, Message: "ok"})
	})

	err := client.CompleteAnnouncement(context.Background(), "r9")
	assert.NoError(t, err)
}

func TestRequestBodiesCarryTheSubmission(t *testing.T) {
	var body types.SubmitVoteRequest
	client := envelopeServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(types.Envelope{Code: 200, Message: "ok"})
	})

	require.NoError(t, client.SubmitVote(context.Background(), "r9", 3, 7))
	assert.Equal(t, 3, body.VoterSeat)
	assert.Equal(t, 7, body.TargetSeat)
}

func TestContextCancellationAborts(t *testing.T) {
	client := envelopeServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.GetState(ctx, "r9")
	assert.Error(t, err)
}
