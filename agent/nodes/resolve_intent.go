package ordernode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
)

// ResolveIntent runs the primary resolution strategy; when it fails and a
// fallback strategy exists, the turn degrades to the fallback instead of
// aborting.
func ResolveIntent(ctx context.Context, in *GraphState, primary, fallback contractx.IntentResolver) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	req := contractx.ResolveRequest{
		Session: in.Session,
		Message: in.Request.Message,
	}
	res, err := primary.Resolve(ctx, req)
	if err != nil {
		if fallback == nil {
			return nil, err
		}
		log.Warn().Err(err).Str("session", in.Session.SessionID).Msg("primary resolver failed, using fallback")
		res, err = fallback.Resolve(ctx, req)
		if err != nil {
			return nil, err
		}
	}
	in.Resolution = res
	return in, nil
}
