package ordernode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
	statex "github.com/hyeonjae-dev/voiceorder/agent/state"
)

// GraphInput is the orchestrator pipeline input.
type GraphInput struct {
	Request contractx.TurnRequest
}

// GraphOutput is the finished boundary response.
type GraphOutput struct {
	Response contractx.TurnResponse
}

// GraphState is threaded through every pipeline node for one turn.
type GraphState struct {
	Request contractx.TurnRequest
	Now     time.Time

	Session    *statex.OrderSession
	Resolution contractx.Resolution

	// StoreJustBound marks that this turn bound a store for the first time.
	StoreJustBound bool

	// Set by the stage advance node, consumed downstream.
	Reply    string
	Proposed []contractx.Action
	UI       map[string]any

	// ForceStage, when valid, overrides the stage after actions are applied.
	// Used when a choice and a quantity arrive in the same utterance: the
	// selection action forces AWAIT_QUANTITY, then this pushes past it.
	ForceStage statex.Stage

	// Actions is the final whitelisted list after application.
	Actions []contractx.Action
}

// DefaultSessionID is used when the caller sends no session id.
const DefaultSessionID = "default"

func ValidateRequest(in GraphInput, now func() time.Time) (*GraphState, error) {
	req := in.Request
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		req.SessionID = DefaultSessionID
	}
	req.Message = strings.TrimSpace(req.Message)
	req.Store = strings.TrimSpace(req.Store)
	if req.Message == "" && req.Store == "" && len(req.SelectedNames) == 0 && len(req.Profile) == 0 {
		return nil, fmt.Errorf("%w: empty turn request", contractx.ErrValidation)
	}

	return &GraphState{
		Request: req,
		Now:     now(),
		UI:      make(map[string]any),
	}, nil
}
