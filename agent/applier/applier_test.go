package applier

import (
	"context"
	"errors"
	"testing"
	"time"

	catalogx "github.com/hyeonjae-dev/voiceorder/agent/catalog"
	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
	statex "github.com/hyeonjae-dev/voiceorder/agent/state"
	toolx "github.com/hyeonjae-dev/voiceorder/agent/tool"
)

type fakePayments struct {
	err    error
	charge contractx.PaymentResult
	calls  int
}

func (f *fakePayments) Charge(_ context.Context, store string, items []contractx.PaymentItem) (contractx.PaymentResult, error) {
	f.calls++
	if f.err != nil {
		return contractx.PaymentResult{}, f.err
	}
	out := f.charge
	out.Items = items
	for _, item := range items {
		out.Amount += item.Price * item.Quantity
	}
	return out, nil
}

type fakeMiner struct {
	result toolx.MiningResult
}

func (f *fakeMiner) Mine(_ context.Context, _ string, _ toolx.MineOptions) toolx.MiningResult {
	return f.result
}

func testCatalog(t *testing.T) *catalogx.Catalog {
	t.Helper()
	cat := catalogx.New()
	if err := cat.Upsert("Demo Diner", []catalogx.MenuItem{
		{Name: "Bibimbap", Price: 9000},
		{Name: "Galbi", Price: 18000},
		{Name: "Bulgogi Set", Price: 15000},
	}, nil); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	return cat
}

func testSession() *statex.OrderSession {
	s := statex.NewOrderSession("s1", time.Now())
	s.Store = "Demo Diner"
	return s
}

func TestApplySelectMenuByNameBindsAndAdvances(t *testing.T) {
	t.Parallel()

	a := New(testCatalog(t), nil, nil)
	session := testSession()
	session.Stage = statex.StageAwaitConfirmation

	actions, _ := a.Apply(context.Background(), session, []contractx.Action{
		{Type: contractx.ActionSelectMenuByName, Name: "bulgogi set"},
	})
	if session.SelectedMenu != "Bulgogi Set" {
		t.Fatalf("expected canonical name bound, got %q", session.SelectedMenu)
	}
	if session.Stage != statex.StageAwaitQuantity {
		t.Fatalf("expected await_quantity, got %s", session.Stage)
	}
	if len(actions) != 1 || actions[0].Type != contractx.ActionSelectMenuByName {
		t.Fatalf("unexpected actions: %+v", actions)
	}
}

func TestApplySelectMenuByNameNoMatchLeavesState(t *testing.T) {
	t.Parallel()

	a := New(testCatalog(t), nil, nil)
	session := testSession()
	session.Stage = statex.StageAwaitMenuChoice

	actions, _ := a.Apply(context.Background(), session, []contractx.Action{
		{Type: contractx.ActionSelectMenuByName, Name: "Pizza"},
	})
	if session.SelectedMenu != "" {
		t.Fatalf("selection must stay empty, got %q", session.SelectedMenu)
	}
	if session.Stage != statex.StageAwaitMenuChoice {
		t.Fatalf("stage must not change, got %s", session.Stage)
	}
	if len(actions) != 1 {
		t.Fatalf("action must still be echoed, got %+v", actions)
	}
}

func TestApplyQuantityNeverBelowOne(t *testing.T) {
	t.Parallel()

	a := New(testCatalog(t), nil, nil)
	session := testSession()

	a.Apply(context.Background(), session, []contractx.Action{
		{Type: contractx.ActionSetQty, Value: -5},
	})
	if session.Quantity != 1 {
		t.Fatalf("SET_QTY must clamp to 1, got %d", session.Quantity)
	}

	a.Apply(context.Background(), session, []contractx.Action{
		{Type: contractx.ActionDecrementQty},
		{Type: contractx.ActionDecrementQty},
	})
	if session.Quantity != 1 {
		t.Fatalf("DECREMENT_QTY must clamp to 1, got %d", session.Quantity)
	}

	a.Apply(context.Background(), session, []contractx.Action{
		{Type: contractx.ActionIncrementQty},
	})
	if session.Quantity != 2 {
		t.Fatalf("INCREMENT_QTY from 1 must give 2, got %d", session.Quantity)
	}
}

func TestApplyDropsUnknownActionsAndCapsAtThree(t *testing.T) {
	t.Parallel()

	a := New(testCatalog(t), nil, nil)
	session := testSession()

	actions, _ := a.Apply(context.Background(), session, []contractx.Action{
		{Type: "CLARIFY"},
		{Type: "LAUNCH_MISSILES"},
		{Type: contractx.ActionSetQty, Value: 2},
		{Type: contractx.ActionOrder},
	})
	if len(actions) != 1 || actions[0].Type != contractx.ActionSetQty {
		t.Fatalf("expected the fourth action dropped by the cap, got %+v", actions)
	}
	if session.Stage == statex.StageOrderComplete {
		t.Fatal("capped ORDER action must not run")
	}
}

func TestApplyReadBackSummaryTotal(t *testing.T) {
	t.Parallel()

	a := New(testCatalog(t), nil, nil)
	session := testSession()
	session.SelectedMenu = "Galbi"
	session.Quantity = 3

	_, ui := a.Apply(context.Background(), session, []contractx.Action{
		{Type: contractx.ActionReadBackSummary},
	})
	summary, ok := ui["summary"].(map[string]any)
	if !ok {
		t.Fatalf("expected summary in ui, got %+v", ui)
	}
	if summary["total"] != 54000 {
		t.Fatalf("expected total 54000, got %v", summary["total"])
	}
}

func TestApplyReadBackSummaryDefaults(t *testing.T) {
	t.Parallel()

	a := New(testCatalog(t), nil, nil)
	session := testSession()
	session.SelectedMenu = "Off Menu Special"

	_, ui := a.Apply(context.Background(), session, []contractx.Action{
		{Type: contractx.ActionReadBackSummary},
	})
	summary := ui["summary"].(map[string]any)
	if summary["total"] != 0 {
		t.Fatalf("unresolved item must price at 0, got %v", summary["total"])
	}
	if summary["qty"] != 1 {
		t.Fatalf("missing quantity must default to 1, got %v", summary["qty"])
	}
}

func TestApplyOrderChargesAndCompletes(t *testing.T) {
	t.Parallel()

	payments := &fakePayments{charge: contractx.PaymentResult{Status: "success", Provider: "SamsungPay"}}
	a := New(testCatalog(t), payments, nil)
	session := testSession()
	session.SelectedMenu = "Galbi"
	session.Quantity = 1

	actions, ui := a.Apply(context.Background(), session, []contractx.Action{
		{Type: contractx.ActionOrder},
	})
	if session.Stage != statex.StageOrderComplete {
		t.Fatalf("expected order_complete, got %s", session.Stage)
	}
	if payments.calls != 1 {
		t.Fatalf("expected one charge, got %d", payments.calls)
	}
	result, ok := ui["payment"].(contractx.PaymentResult)
	if !ok {
		t.Fatalf("expected payment result in ui, got %T", ui["payment"])
	}
	if result.Amount != 18000 {
		t.Fatalf("expected amount 18000, got %d", result.Amount)
	}
	if len(actions) != 1 || actions[0].Type != contractx.ActionOrder {
		t.Fatalf("unexpected actions: %+v", actions)
	}
}

func TestApplyOrderFallsBackWhenProviderFails(t *testing.T) {
	t.Parallel()

	payments := &fakePayments{err: errors.New("provider down")}
	a := New(testCatalog(t), payments, nil)
	session := testSession()
	session.SelectedMenu = "Bibimbap"
	session.Quantity = 2

	_, ui := a.Apply(context.Background(), session, []contractx.Action{
		{Type: contractx.ActionOrder},
	})
	payload, ok := ui["payment"].(map[string]any)
	if !ok {
		t.Fatalf("expected inline payload, got %T", ui["payment"])
	}
	if payload["status"] != "success" || payload["amount"] != 18000 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if session.Stage != statex.StageOrderComplete {
		t.Fatalf("order must still complete, got %s", session.Stage)
	}
}

func TestApplyShowRecommendationsEnrichment(t *testing.T) {
	t.Parallel()

	miner := &fakeMiner{result: toolx.MiningResult{
		MenuMentions: []toolx.Mention{
			{Name: "Galbi", Count: 4},
			{Name: "Bibimbap", Count: 1},
		},
	}}
	a := New(testCatalog(t), nil, miner)
	session := testSession()

	actions, ui := a.Apply(context.Background(), session, []contractx.Action{
		{Type: contractx.ActionShowRecommendations, Items: []contractx.RecommendedItem{
			{Name: "Bibimbap", Reason: "담백한 맛"},
			{Name: "Galbi"},
		}},
	})
	recs, ok := ui["recommendations"].([]contractx.RecommendedItem)
	if !ok {
		t.Fatalf("expected recommendations in ui, got %T", ui["recommendations"])
	}
	if len(recs) != 2 || recs[0].Name != "Galbi" {
		t.Fatalf("expected mention count ordering, got %+v", recs)
	}
	if recs[0].Reason != "리뷰 언급 4회" {
		t.Fatalf("unexpected reason: %q", recs[0].Reason)
	}
	if recs[1].Reason != "담백한 맛 · 리뷰 언급 1회" {
		t.Fatalf("unexpected reason: %q", recs[1].Reason)
	}
	if recs[0].Price != 18000 {
		t.Fatalf("catalog price not attached: %+v", recs[0])
	}
	if len(session.Recommendations) != 2 {
		t.Fatalf("session recommendations not updated: %+v", session.Recommendations)
	}
	if len(actions) != 1 || actions[0].Type != contractx.ActionShowRecommendations {
		t.Fatalf("unexpected actions: %+v", actions)
	}
}

func TestApplyShowRecommendationsWithoutMiner(t *testing.T) {
	t.Parallel()

	a := New(testCatalog(t), nil, nil)
	session := testSession()

	_, ui := a.Apply(context.Background(), session, []contractx.Action{
		{Type: contractx.ActionShowRecommendations, Items: []contractx.RecommendedItem{
			{Name: "Bibimbap"},
		}},
	})
	recs := ui["recommendations"].([]contractx.RecommendedItem)
	if len(recs) != 1 || recs[0].Name != "Bibimbap" {
		t.Fatalf("unenriched list must pass through, got %+v", recs)
	}
}
