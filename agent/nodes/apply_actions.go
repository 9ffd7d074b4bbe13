package ordernode

import (
	"context"
	"fmt"

	applierx "github.com/hyeonjae-dev/voiceorder/agent/applier"
	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
)

// ApplyActions runs the proposed actions through the applier, merges the
// resulting UI delta, and applies any stage override decided upstream.
func ApplyActions(ctx context.Context, in *GraphState, applier *applierx.Applier) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	actions, delta := applier.Apply(ctx, in.Session, in.Proposed)
	in.Actions = actions
	for k, v := range delta {
		in.UI[k] = v
	}

	if in.ForceStage.Valid() {
		in.Session.Stage = in.ForceStage
	}
	return in, nil
}
