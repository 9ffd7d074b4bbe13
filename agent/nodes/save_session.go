package ordernode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
	statex "github.com/hyeonjae-dev/voiceorder/agent/state"
)

// SaveSession validates the mutated session, records the agent reply in the
// transcript, and persists the session.
func SaveSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if strings.TrimSpace(in.Reply) == "" {
		in.Reply = "무엇을 도와드릴까요?"
	}
	in.Session.RememberAgent(in.Reply)
	in.Session.Touch(in.Now)

	if err := in.Session.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	if err := store.Save(ctx, in.Session); err != nil {
		return nil, err
	}
	return in, nil
}
