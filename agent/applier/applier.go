package applier

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	catalogx "github.com/hyeonjae-dev/voiceorder/agent/catalog"
	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
	statex "github.com/hyeonjae-dev/voiceorder/agent/state"
	toolx "github.com/hyeonjae-dev/voiceorder/agent/tool"
)

// maxActionsPerTurn bounds how many proposed actions one turn may apply.
const maxActionsPerTurn = 3

// maxRecommendations bounds a SHOW_RECOMMENDATIONS payload.
const maxRecommendations = 3

// MentionCounter supplies review mention counts for recommendation
// enrichment. *toolx.Miner satisfies it.
type MentionCounter interface {
	Mine(ctx context.Context, store string, opts toolx.MineOptions) toolx.MiningResult
}

// Applier executes proposed UI actions against the session. Unrecognized
// action types are dropped silently; recognized ones mutate the session and
// accumulate a UI delta.
type Applier struct {
	catalog  *catalogx.Catalog
	payments contractx.PaymentProvider
	miner    MentionCounter
}

func New(catalog *catalogx.Catalog, payments contractx.PaymentProvider, miner MentionCounter) *Applier {
	return &Applier{catalog: catalog, payments: payments, miner: miner}
}

// Apply runs the first maxActionsPerTurn proposed actions in order and returns
// the whitelisted echo actions plus the accumulated UI delta.
func (a *Applier) Apply(ctx context.Context, session *statex.OrderSession, proposed []contractx.Action) ([]contractx.Action, map[string]any) {
	ui := make(map[string]any)
	out := make([]contractx.Action, 0, maxActionsPerTurn)

	if len(proposed) > maxActionsPerTurn {
		proposed = proposed[:maxActionsPerTurn]
	}

	for _, action := range proposed {
		actionType := contractx.ActionType(strings.ToUpper(strings.TrimSpace(string(action.Type))))
		switch actionType {
		case contractx.ActionNavigate:
			out = append(out, contractx.Action{Type: actionType, Target: action.Target})

		case contractx.ActionShowRecommendations:
			recs := a.buildRecommendations(ctx, session, action.Items)
			ui["recommendations"] = recs
			names := make([]string, 0, len(recs))
			for _, r := range recs {
				names = append(names, r.Name)
			}
			session.Recommendations = names
			out = append(out, contractx.Action{Type: actionType, Items: recs})

		case contractx.ActionSelectMenuByName:
			if item, ok := a.catalog.Find(session.Store, action.Name); ok {
				session.SelectedMenu = item.Name
				session.Stage = statex.StageAwaitQuantity
			}
			out = append(out, contractx.Action{Type: actionType, Name: action.Name})

		case contractx.ActionSetQty:
			q := action.Value
			if q < 1 {
				q = 1
			}
			session.Quantity = q
			out = append(out, contractx.Action{Type: actionType, Value: q})

		case contractx.ActionIncrementQty:
			session.Quantity = clampQty(session.Quantity) + 1
			out = append(out, contractx.Action{Type: actionType})

		case contractx.ActionDecrementQty:
			session.Quantity = clampQty(session.Quantity - 1)
			out = append(out, contractx.Action{Type: actionType})

		case contractx.ActionAddToCart, contractx.ActionRemoveFromCart:
			out = append(out, contractx.Action{Type: actionType, Name: action.Name})

		case contractx.ActionReadBackSummary:
			qty := clampQty(session.Quantity)
			price := a.unitPrice(session)
			ui["summary"] = map[string]any{
				"item":  session.SelectedMenu,
				"qty":   qty,
				"total": price * qty,
			}
			out = append(out, contractx.Action{Type: actionType})

		case contractx.ActionOrder:
			ui["payment"] = a.charge(ctx, session)
			session.Stage = statex.StageOrderComplete
			out = append(out, contractx.Action{Type: actionType})
		}
	}

	filtered := out[:0]
	for _, action := range out {
		if contractx.UIActionWhitelist[action.Type] {
			filtered = append(filtered, action)
		}
	}
	return filtered, ui
}

// buildRecommendations resolves proposed items against the catalog and
// enriches reasons with review mention counts when mining is available.
// Enrichment failures leave the unenriched list untouched.
func (a *Applier) buildRecommendations(ctx context.Context, session *statex.OrderSession, items []contractx.RecommendedItem) []contractx.RecommendedItem {
	if len(items) > maxRecommendations {
		items = items[:maxRecommendations]
	}
	recs := make([]contractx.RecommendedItem, 0, len(items))
	for _, proposed := range items {
		name := strings.TrimSpace(proposed.Name)
		if name == "" {
			continue
		}
		rec := contractx.RecommendedItem{
			MenuID: proposed.MenuID,
			Name:   name,
			Reason: strings.TrimSpace(proposed.Reason),
		}
		if item, ok := a.catalog.Find(session.Store, name); ok {
			rec.Name = item.Name
			rec.Price = item.Price
			rec.Description = item.Description
			if rec.MenuID == "" {
				rec.MenuID = item.ID
			}
		}
		if rec.MenuID == "" {
			rec.MenuID = name
		}
		recs = append(recs, rec)
	}
	return a.enrichWithMentions(ctx, session.Store, recs)
}

func (a *Applier) enrichWithMentions(ctx context.Context, store string, recs []contractx.RecommendedItem) []contractx.RecommendedItem {
	if a.miner == nil || store == "" || len(recs) == 0 {
		return recs
	}
	names := make([]string, 0, len(recs))
	for _, r := range recs {
		names = append(names, r.Name)
	}
	result := a.miner.Mine(ctx, store, toolx.MineOptions{MenuNames: names})
	if len(result.MenuMentions) == 0 {
		return recs
	}

	counts := make(map[string]int, len(result.MenuMentions))
	for _, m := range result.MenuMentions {
		counts[catalogx.Normalize(m.Name)] = m.Count
	}
	for i := range recs {
		c := counts[catalogx.Normalize(recs[i].Name)]
		if c == 0 {
			continue
		}
		tag := fmt.Sprintf("리뷰 언급 %d회", c)
		if recs[i].Reason == "" {
			recs[i].Reason = tag
		} else {
			recs[i].Reason += " · " + tag
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return counts[catalogx.Normalize(recs[i].Name)] > counts[catalogx.Normalize(recs[j].Name)]
	})
	return recs
}

func (a *Applier) unitPrice(session *statex.OrderSession) int {
	if session.SelectedMenu == "" {
		return 0
	}
	if item, ok := a.catalog.Find(session.Store, session.SelectedMenu); ok {
		return item.Price
	}
	return 0
}

func (a *Applier) charge(ctx context.Context, session *statex.OrderSession) any {
	qty := clampQty(session.Quantity)
	price := a.unitPrice(session)
	items := []contractx.PaymentItem{{
		Name:     session.SelectedMenu,
		Price:    price,
		Quantity: qty,
	}}

	if a.payments != nil {
		result, err := a.payments.Charge(ctx, session.Store, items)
		if err == nil {
			return result
		}
		log.Warn().Err(err).Str("store", session.Store).Msg("payment provider failed, falling back to inline payload")
	}
	return map[string]any{
		"status": "success",
		"amount": price * qty,
		"items":  items,
	}
}

func clampQty(q int) int {
	if q < 1 {
		return 1
	}
	return q
}
