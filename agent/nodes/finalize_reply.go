package ordernode

import (
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
)

// FinalizeReply assembles the boundary response and records the completed
// order in the user's history when this turn placed one. Recording failures
// are logged, never surfaced.
func FinalizeReply(in *GraphState, recorder contractx.OrderRecorder) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	session := in.Session
	ui := in.UI
	if ui == nil {
		ui = make(map[string]any)
	}
	ui["store"] = session.Store

	if recorder != nil && session.SelectedMenu != "" && session.Store != "" {
		for _, action := range in.Actions {
			if action.Type != contractx.ActionOrder {
				continue
			}
			qty := session.Quantity
			if qty < 1 {
				qty = 1
			}
			if err := recorder.RecordOrder(session.Store, session.SelectedMenu, qty); err != nil {
				log.Warn().Err(err).Str("store", session.Store).Msg("failed to record order history")
			}
			break
		}
	}

	return GraphOutput{Response: contractx.TurnResponse{
		Reply:   in.Reply,
		UI:      ui,
		Actions: in.Actions,
		State:   session.AsSnapshot(),
	}}, nil
}
