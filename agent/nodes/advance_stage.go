package ordernode

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	catalogx "github.com/hyeonjae-dev/voiceorder/agent/catalog"
	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
	recommendx "github.com/hyeonjae-dev/voiceorder/agent/recommend"
	reviewsx "github.com/hyeonjae-dev/voiceorder/agent/reviews"
	statex "github.com/hyeonjae-dev/voiceorder/agent/state"
)

// AdvanceStage interprets the resolution. A Direct result from the model
// bypasses the state machine: its patch is applied and its actions are handed
// straight to the applier. An intent bag runs through the transition rules in
// fixed priority order.
func AdvanceStage(
	in *GraphState,
	catalog *catalogx.Catalog,
	source *reviewsx.Source,
	engine *recommendx.Engine,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Session == nil {
		return nil, fmt.Errorf("%w: session not loaded", contractx.ErrValidation)
	}

	if direct := in.Resolution.Direct; direct != nil {
		applyStatePatch(in.Session, direct.StatePatch)
		in.Reply = direct.Speak
		in.Proposed = direct.Actions
		return in, nil
	}

	runStateMachine(in, catalog, source, engine)
	return in, nil
}

func runStateMachine(in *GraphState, catalog *catalogx.Catalog, source *reviewsx.Source, engine *recommendx.Engine) {
	session := in.Session
	bag := in.Resolution.Intents

	// 1. A bound store is the precondition for everything else.
	if session.Store == "" {
		session.Stage = statex.StageNeedStore
		in.Reply = "어느 가게에서 주문하시겠어요? 가게 이름을 말씀해 주세요."
		return
	}

	// 2. Gratitude short-circuits.
	if bag.Thanks {
		in.Reply = "감사합니다. 더 필요하신 게 있으면 말씀해 주세요."
		return
	}

	// 3. Cancel clears the selection and reopens the menu choice.
	if bag.Cancel && (session.Stage == statex.StageAwaitConfirmation || session.Stage == statex.StageAwaitMenuChoice) {
		session.ClearSelection()
		session.Stage = statex.StageAwaitMenuChoice
		in.Reply = "알겠습니다. 다른 메뉴를 골라볼까요? 원하시는 메뉴 이름을 말씀해 주세요."
		return
	}

	// 4. Introduction, or the first turn that bound this store. The
	// first-entry shortcut yields to anything more specific in the same
	// utterance so "가게명 + 메뉴명 두 개" still orders directly.
	if bag.Introduction || (in.StoreJustBound && bagIsEmpty(bag)) {
		bundle := source.Get(session.Store)
		in.UI["reviews"] = bundle.Reviews
		in.UI["summary"] = bundle.Summary
		session.Stage = statex.StageAwaitRecommendation
		in.Reply = bundle.Summary + " 메뉴 추천을 받아보실래요?"
		return
	}

	// 5. Reviews: summary plus two highlights.
	if bag.Reviews {
		bundle := source.Get(session.Store)
		in.UI["reviews"] = bundle.Reviews
		in.UI["summary"] = bundle.Summary
		session.Stage = statex.StageAwaitRecommendation
		reply := bundle.Summary
		if len(bundle.Highlights) > 0 {
			n := len(bundle.Highlights)
			if n > 2 {
				n = 2
			}
			reply += " 특히 " + strings.Join(bundle.Highlights[:n], ", ") + " 이야기가 많아요."
		}
		in.Reply = reply + " 메뉴 추천을 받아보실래요?"
		return
	}

	// 6. Recommendations, on request or while awaiting one. A concrete menu
	// choice or quantity in the utterance takes precedence below.
	wantsRecommendation := bag.Recommend ||
		(session.Stage == statex.StageAwaitRecommendation && bag.MenuChoice == "" && bag.Quantity == 0)
	if wantsRecommendation {
		if items := recommendItems(session, engine); len(items) > 0 {
			names := make([]string, 0, len(items))
			proposed := make([]contractx.RecommendedItem, 0, len(items))
			for _, item := range items {
				names = append(names, item.Name)
				proposed = append(proposed, contractx.RecommendedItem{Name: item.Name})
			}
			session.Stage = statex.StageAwaitMenuChoice
			in.Proposed = append(in.Proposed, contractx.Action{
				Type:  contractx.ActionShowRecommendations,
				Items: proposed,
			})
			in.Reply = strings.Join(names, ", ") + " 메뉴를 추천드려요. 어떤 메뉴로 하시겠어요?"
			return
		}
		log.Debug().Str("store", session.Store).Msg("no recommendation candidates, falling through")
	}

	// 7. Explain a menu item without changing stage.
	if bag.ExplainTarget != "" {
		if item, ok := catalog.Find(session.Store, bag.ExplainTarget); ok {
			desc := item.Description
			if desc == "" {
				desc = "자세한 설명이 등록되지 않은 메뉴예요."
			}
			in.Reply = fmt.Sprintf("%s은(는) %s 가격은 %d원입니다.", item.Name, desc, item.Price)
			return
		}
	}

	// 8. A resolved menu choice binds the selection. When the quantity came
	// in the same breath, skip straight to confirmation.
	if bag.MenuChoice != "" {
		if item, ok := catalog.Find(session.Store, bag.MenuChoice); ok {
			in.Proposed = append(in.Proposed, contractx.Action{
				Type: contractx.ActionSelectMenuByName,
				Name: item.Name,
			})
			if bag.Quantity >= 1 {
				in.Proposed = append(in.Proposed,
					contractx.Action{Type: contractx.ActionSetQty, Value: bag.Quantity},
					contractx.Action{Type: contractx.ActionReadBackSummary},
				)
				in.ForceStage = statex.StageAwaitConfirmation
				in.Reply = confirmationPrompt(item.Name, bag.Quantity, item.Price)
				return
			}
			in.Reply = fmt.Sprintf("%s 몇 개 드릴까요?", item.Name)
			return
		}
	}

	// 9. Waiting on a choice that did not resolve.
	if session.Stage == statex.StageAwaitMenuChoice {
		in.Reply = "어떤 메뉴로 하시겠어요? 메뉴 이름을 말씀해 주세요."
		return
	}

	// 10. A quantity for the already-selected menu moves to confirmation.
	if bag.Quantity >= 1 && session.SelectedMenu != "" {
		price := 0
		if item, ok := catalog.Find(session.Store, session.SelectedMenu); ok {
			price = item.Price
		}
		in.Proposed = append(in.Proposed,
			contractx.Action{Type: contractx.ActionSetQty, Value: bag.Quantity},
			contractx.Action{Type: contractx.ActionReadBackSummary},
		)
		in.ForceStage = statex.StageAwaitConfirmation
		in.Reply = confirmationPrompt(session.SelectedMenu, bag.Quantity, price)
		return
	}

	// 11. Waiting on a quantity that did not parse.
	if session.Stage == statex.StageAwaitQuantity && session.SelectedMenu != "" {
		in.Reply = fmt.Sprintf("%s 몇 개 드릴까요? 숫자로 말씀해 주세요.", session.SelectedMenu)
		return
	}

	// 12. Confirmation finalizes the order.
	if bag.Confirm && session.Stage == statex.StageAwaitConfirmation {
		qty := session.Quantity
		if qty < 1 {
			qty = 1
		}
		total := 0
		if item, ok := catalog.Find(session.Store, session.SelectedMenu); ok {
			total = item.Price * qty
		}
		in.Proposed = append(in.Proposed, contractx.Action{Type: contractx.ActionOrder})
		in.Reply = fmt.Sprintf("주문이 완료되었습니다. 총 %d원입니다. 감사합니다!", total)
		return
	}

	// 13. Still waiting on a yes/no.
	if session.Stage == statex.StageAwaitConfirmation {
		in.Reply = "주문을 확정할까요? 네 또는 아니요로 말씀해 주세요."
		return
	}

	// 14. Nothing matched.
	in.Reply = fmt.Sprintf("%s에 대해 리뷰 요약, 메뉴 추천, 주문 등 무엇을 도와드릴까요?", session.Store)
}

func confirmationPrompt(name string, qty, price int) string {
	if price > 0 {
		return fmt.Sprintf("%s %d개, 총 %d원 주문 맞으신가요?", name, qty, price*qty)
	}
	return fmt.Sprintf("%s %d개 주문 맞으신가요?", name, qty)
}

func bagIsEmpty(bag contractx.IntentBag) bool {
	return !bag.Thanks && !bag.Cancel && !bag.Confirm && !bag.Recommend && !bag.Reviews &&
		bag.ExplainTarget == "" && bag.MenuChoice == "" && bag.Quantity == 0
}

func recommendItems(session *statex.OrderSession, engine *recommendx.Engine) []catalogx.MenuItem {
	profile := recommendx.Profile{
		Prefers:   session.ProfileStrings("prefers"),
		Dislikes:  session.ProfileStrings("dislikes"),
		Allergies: session.ProfileStrings("allergies"),
	}
	return engine.Recommend(session.Store, profile, recommendx.DefaultLimit)
}

func applyStatePatch(session *statex.OrderSession, patch contractx.StatePatch) {
	if s := strings.TrimSpace(patch.Store); s != "" {
		session.Store = s
	}
	if patch.Stage != "" {
		if stage, ok := statex.ParseStage(patch.Stage); ok {
			session.Stage = stage
		}
	}
	if s := strings.TrimSpace(patch.SelectedMenu); s != "" {
		session.SelectedMenu = s
	}
	if patch.Quantity > 0 {
		session.Quantity = patch.Quantity
	}
	if patch.Recommendations != nil {
		session.Recommendations = append([]string(nil), patch.Recommendations...)
	}
	if len(patch.Profile) > 0 {
		session.MergeProfile(patch.Profile)
	}
}
