package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	applierx "github.com/hyeonjae-dev/voiceorder/agent/applier"
	catalogx "github.com/hyeonjae-dev/voiceorder/agent/catalog"
	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
	nodex "github.com/hyeonjae-dev/voiceorder/agent/nodes"
	recommendx "github.com/hyeonjae-dev/voiceorder/agent/recommend"
	reviewsx "github.com/hyeonjae-dev/voiceorder/agent/reviews"
	statex "github.com/hyeonjae-dev/voiceorder/agent/state"
)

// Deps are the collaborating services the orchestrator is built from. All of
// them are owned by the caller and injected here; the orchestrator holds no
// process-wide state of its own.
type Deps struct {
	Store    statex.Store
	Catalog  *catalogx.Catalog
	Reviews  *reviewsx.Source
	Engine   *recommendx.Engine
	Applier  *applierx.Applier
	Resolver contractx.IntentResolver

	// FallbackResolver handles turns when Resolver fails, typically the
	// heuristic strategy backing a model-delegated one. Optional.
	FallbackResolver contractx.IntentResolver

	// Recorder persists completed orders to the user's history. Optional.
	Recorder contractx.OrderRecorder
}

// Orchestrator runs one dialogue turn end to end through the compiled
// pipeline graph.
type Orchestrator struct {
	deps   Deps
	runner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
	now    func() time.Time
}

func New(deps Deps) (*Orchestrator, error) {
	if deps.Store == nil {
		return nil, errors.New("session store is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("menu catalog is required")
	}
	if deps.Resolver == nil {
		return nil, errors.New("intent resolver is required")
	}
	if deps.Reviews == nil {
		deps.Reviews = reviewsx.NewSource()
	}
	if deps.Engine == nil {
		deps.Engine = recommendx.NewEngine(deps.Catalog, deps.Reviews)
	}
	if deps.Applier == nil {
		deps.Applier = applierx.New(deps.Catalog, nil, nil)
	}

	o := &Orchestrator{deps: deps, now: time.Now}
	runner, err := o.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.runner = runner
	return o, nil
}

// HandleTurn processes one inbound turn. Failures past request validation are
// recovered into an apology reply with the session's last known snapshot, so
// the caller never sees a raw error for a well-formed request.
func (o *Orchestrator) HandleTurn(ctx context.Context, req contractx.TurnRequest) (contractx.TurnResponse, error) {
	out, err := o.runner.Invoke(ctx, nodex.GraphInput{Request: req})
	if err == nil {
		return out.Response, nil
	}
	if errors.Is(err, contractx.ErrValidation) {
		return contractx.TurnResponse{}, err
	}

	log.Error().Err(err).Str("session", req.SessionID).Msg("turn failed, replying with apology")
	return o.apologyResponse(ctx, req), nil
}

func (o *Orchestrator) apologyResponse(ctx context.Context, req contractx.TurnRequest) contractx.TurnResponse {
	snapshot := statex.Snapshot{Stage: statex.StageNeedStore}
	store := ""
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = nodex.DefaultSessionID
	}
	if session, err := o.deps.Store.Load(ctx, sessionID); err == nil {
		snapshot = session.AsSnapshot()
		store = session.Store
	}
	return contractx.TurnResponse{
		Reply:   "죄송합니다. 다시 한 번 말씀해 주세요.",
		UI:      map[string]any{"store": store},
		Actions: []contractx.Action{},
		State:   snapshot,
	}
}
