// Package apiclient is the transport boundary of the client side: a thin
// typed HTTP client for the session authority and the agent collaborator
// endpoints. Every response travels in the {code, message, data} envelope
// and is unwrapped in exactly one place.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/DoyleJ11/werewolf-arena/pkg/types"
)

const defaultTimeout = 10 * time.Second

// APIError is a protocol rejection from the authority (code >= 400). The
// reconciler treats these as non-retryable for the submission that caused
// them; everything else (transport, timeout) is transient.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

type Client struct {
	base string
	http *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) AssignRoles(ctx context.Context, roomID string, seatCount, humanSeat int) (map[int]string, error) {
	res, err := call[types.AssignRolesResponse](ctx, c, http.MethodPost, c.roomPath(roomID, "assign-roles"),
		types.AssignRolesRequest{SeatCount: seatCount, HumanSeat: humanSeat})
	if err != nil {
		return nil, err
	}
	return res.RolesBySeat, nil
}

func (c *Client) GetState(ctx context.Context, roomID string) (types.Snapshot, error) {
	return call[types.Snapshot](ctx, c, http.MethodGet, c.roomPath(roomID, "state"), nil)
}

func (c *Client) AdvancePhase(ctx context.Context, roomID string, phaseVersion int) (types.AdvancePhaseResponse, error) {
	return call[types.AdvancePhaseResponse](ctx, c, http.MethodPost, c.roomPath(roomID, "advance-phase"),
		types.AdvancePhaseRequest{PhaseVersion: phaseVersion})
}

func (c *Client) SubmitSpeech(ctx context.Context, roomID string, seat int, text string) error {
	_, err := call[types.SubmitSpeechResponse](ctx, c, http.MethodPost, c.roomPath(roomID, "speech"),
		types.SubmitSpeechRequest{Seat: seat, Text: text})
	return err
}

func (c *Client) AdvanceSpeaker(ctx context.Context, roomID string) (types.AdvanceSpeakerResponse, error) {
	return call[types.AdvanceSpeakerResponse](ctx, c, http.MethodPost, c.roomPath(roomID, "advance-speaker"), struct{}{})
}

func (c *Client) SubmitVote(ctx context.Context, roomID string, voterSeat, targetSeat int) error {
	_, err := call[types.SubmitVoteResponse](ctx, c, http.MethodPost, c.roomPath(roomID, "vote"),
		types.SubmitVoteRequest{VoterSeat: voterSeat, TargetSeat: targetSeat})
	return err
}

func (c *Client) SubmitNightAction(ctx context.Context, roomID string, seat int, role, actionType string, targetSeat int) error {
	_, err := call[types.SubmitNightActionResponse](ctx, c, http.MethodPost, c.roomPath(roomID, "night-action"),
		types.SubmitNightActionRequest{Seat: seat, Role: role, ActionType: actionType, TargetSeat: targetSeat})
	return err
}

func (c *Client) CompleteAnnouncement(ctx context.Context, roomID string) error {
	_, err := call[struct{}](ctx, c, http.MethodPost, c.roomPath(roomID, "complete-announcement"), struct{}{})
	return err
}

func (c *Client) GetMessages(ctx context.Context, roomID, after string) ([]types.GameMessage, error) {
	path := c.roomPath(roomID, "messages")
	if after != "" {
		path += "?after=" + url.QueryEscape(after)
	}
	res, err := call[types.MessagesResponse](ctx, c, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return res.Messages, nil
}

func (c *Client) AgentSpeech(ctx context.Context, roomID string, seat int) (string, error) {
	res, err := call[types.AgentSpeechResponse](ctx, c, http.MethodPost, c.roomPath(roomID, "agent-speech"),
		types.AgentSpeechRequest{Seat: seat})
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (c *Client) AgentAction(ctx context.Context, roomID string, seat int, role string, availableTargets []int) (types.AgentActionResponse, error) {
	return call[types.AgentActionResponse](ctx, c, http.MethodPost, c.roomPath(roomID, "agent-action"),
		types.AgentActionRequest{Seat: seat, Role: role, AvailableTargets: availableTargets})
}

func (c *Client) AgentVote(ctx context.Context, roomID string, seat int) error {
	_, err := call[types.SubmitVoteResponse](ctx, c, http.MethodPost, c.roomPath(roomID, "agent-vote"),
		types.AgentVoteRequest{Seat: seat})
	return err
}

func (c *Client) roomPath(roomID, op string) string {
	return "/api/rooms/" + url.PathEscape(roomID) + "/" + op
}

// call performs one round trip and unwraps the envelope. A code >= 400
// becomes an *APIError; otherwise Data decodes into T.
func call[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return zero, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return zero, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	var env types.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return zero, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Code >= 400 {
		return zero, &APIError{Code: env.Code, Message: env.Message}
	}
	if len(env.Data) == 0 {
		return zero, nil
	}
	if err := json.Unmarshal(env.Data, &zero); err != nil {
		return zero, fmt.Errorf("decode payload: %w", err)
	}
	return zero, nil
}
