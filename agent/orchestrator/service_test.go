package orchestrator

import (
	"context"
	"errors"
	"testing"

	applierx "github.com/hyeonjae-dev/voiceorder/agent/applier"
	catalogx "github.com/hyeonjae-dev/voiceorder/agent/catalog"
	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
	intentx "github.com/hyeonjae-dev/voiceorder/agent/intent"
	statex "github.com/hyeonjae-dev/voiceorder/agent/state"
)

type failingResolver struct {
	calls int
}

func (f *failingResolver) Resolve(context.Context, contractx.ResolveRequest) (contractx.Resolution, error) {
	f.calls++
	return contractx.Resolution{}, errors.New("model unavailable")
}

type recorderSpy struct {
	store string
	item  string
	qty   int
	calls int
}

func (r *recorderSpy) RecordOrder(store, item string, quantity int) error {
	r.calls++
	r.store = store
	r.item = item
	r.qty = quantity
	return nil
}

func demoCatalog(t *testing.T) *catalogx.Catalog {
	t.Helper()
	cat := catalogx.New()
	if err := cat.Upsert("Demo Diner", []catalogx.MenuItem{
		{Name: "Bibimbap", Price: 9000},
		{Name: "Galbi", Price: 18000},
	}, nil); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	return cat
}

func newOrchestrator(t *testing.T, deps Deps) *Orchestrator {
	t.Helper()
	if deps.Store == nil {
		deps.Store = statex.NewMemoryStore()
	}
	if deps.Catalog == nil {
		deps.Catalog = demoCatalog(t)
	}
	if deps.Resolver == nil {
		deps.Resolver = intentx.NewHeuristic(deps.Catalog)
	}
	o, err := New(deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func TestHandleTurnOrderingScenario(t *testing.T) {
	t.Parallel()

	recorder := &recorderSpy{}
	cat := demoCatalog(t)
	o := newOrchestrator(t, Deps{
		Catalog:  cat,
		Applier:  applierx.New(cat, nil, nil),
		Recorder: recorder,
	})
	ctx := context.Background()

	first, err := o.HandleTurn(ctx, contractx.TurnRequest{
		SessionID: "demo",
		Store:     "Demo Diner",
		Message:   "bibimbap two please",
	})
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if first.State.SelectedMenu != "Bibimbap" {
		t.Fatalf("expected Bibimbap selected, got %q", first.State.SelectedMenu)
	}
	if first.State.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", first.State.Quantity)
	}
	if first.State.Stage != statex.StageAwaitConfirmation {
		t.Fatalf("expected await_confirmation, got %s", first.State.Stage)
	}
	if first.Reply == "" {
		t.Fatal("expected confirmation prompt")
	}

	second, err := o.HandleTurn(ctx, contractx.TurnRequest{
		SessionID: "demo",
		Message:   "yes",
	})
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if second.State.Stage != statex.StageOrderComplete {
		t.Fatalf("expected order_complete, got %s", second.State.Stage)
	}
	payment, ok := second.UI["payment"].(map[string]any)
	if !ok {
		t.Fatalf("expected payment payload, got %+v", second.UI["payment"])
	}
	if payment["amount"] != 18000 {
		t.Fatalf("expected payment amount 18000, got %v", payment["amount"])
	}
	if recorder.calls != 1 || recorder.item != "Bibimbap" || recorder.qty != 2 {
		t.Fatalf("order not recorded correctly: %+v", recorder)
	}
}

func TestHandleTurnAsksForStoreFirst(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t, Deps{})
	resp, err := o.HandleTurn(context.Background(), contractx.TurnRequest{
		SessionID: "s1",
		Message:   "추천해줘",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.State.Stage != statex.StageNeedStore {
		t.Fatalf("expected need_store, got %s", resp.State.Stage)
	}
	if len(resp.Actions) != 0 {
		t.Fatalf("expected no actions, got %+v", resp.Actions)
	}
}

func TestHandleTurnFallsBackToSecondaryResolver(t *testing.T) {
	t.Parallel()

	failing := &failingResolver{}
	cat := demoCatalog(t)
	o := newOrchestrator(t, Deps{
		Catalog:          cat,
		Resolver:         failing,
		FallbackResolver: intentx.NewHeuristic(cat),
	})

	resp, err := o.HandleTurn(context.Background(), contractx.TurnRequest{
		SessionID: "s1",
		Store:     "Demo Diner",
		Message:   "galbi 하나",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if failing.calls != 1 {
		t.Fatalf("primary resolver not consulted: %d", failing.calls)
	}
	if resp.State.SelectedMenu != "Galbi" {
		t.Fatalf("fallback resolution did not run, got %q", resp.State.SelectedMenu)
	}
}

func TestHandleTurnRecoversToApology(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t, Deps{Resolver: &failingResolver{}})
	resp, err := o.HandleTurn(context.Background(), contractx.TurnRequest{
		SessionID: "s1",
		Store:     "Demo Diner",
		Message:   "아무거나",
	})
	if err != nil {
		t.Fatalf("turn failure must be recovered, got %v", err)
	}
	if resp.Reply == "" {
		t.Fatal("expected apology reply")
	}
	if len(resp.Actions) != 0 {
		t.Fatalf("expected no actions, got %+v", resp.Actions)
	}
}

func TestHandleTurnRejectsEmptyRequest(t *testing.T) {
	t.Parallel()

	o := newOrchestrator(t, Deps{})
	_, err := o.HandleTurn(context.Background(), contractx.TurnRequest{SessionID: "s1"})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandleTurnDefaultsSessionID(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	o := newOrchestrator(t, Deps{Store: store})
	if _, err := o.HandleTurn(context.Background(), contractx.TurnRequest{
		Store:   "Demo Diner",
		Message: "안녕하세요",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Load(context.Background(), "default"); err != nil {
		t.Fatalf("expected session saved under default id: %v", err)
	}
}
