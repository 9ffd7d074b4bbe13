package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	catalogx "github.com/hyeonjae-dev/voiceorder/agent/catalog"
	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
	statex "github.com/hyeonjae-dev/voiceorder/agent/state"
	toolx "github.com/hyeonjae-dev/voiceorder/agent/tool"
)

const (
	maxToolRounds   = 6
	historyWindow   = 6
	menuBlockLimit  = 60
	descTruncateLen = 36
)

// LLMResolver delegates the whole turn to a tool-calling chat model. The model
// sees the session context and catalog excerpt, may run tools for up to
// maxToolRounds rounds, and must finish with one JSON object carrying the
// spoken reply, proposed actions, and an optional session patch.
type LLMResolver struct {
	model        einomodel.ToolCallingChatModel
	gateway      contractx.ToolGateway
	catalog      *catalogx.Catalog
	systemPrompt string
}

var _ contractx.IntentResolver = (*LLMResolver)(nil)

func NewLLMResolver(
	chatModel einomodel.ToolCallingChatModel,
	infos []*schema.ToolInfo,
	gateway contractx.ToolGateway,
	catalog *catalogx.Catalog,
	systemPrompt string,
) (*LLMResolver, error) {
	bound := chatModel
	if len(infos) > 0 {
		var err error
		bound, err = chatModel.WithTools(infos)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
		}
	}
	return &LLMResolver{
		model:        bound,
		gateway:      gateway,
		catalog:      catalog,
		systemPrompt: systemPrompt,
	}, nil
}

// Resolve produces a Direct result. Malformed model output never errors; it is
// coerced into a clarification payload so the turn still completes.
func (r *LLMResolver) Resolve(ctx context.Context, req contractx.ResolveRequest) (contractx.Resolution, error) {
	session := req.Session
	msgs := []*schema.Message{schema.SystemMessage(r.buildSystemPrompt(session))}
	if session != nil {
		for _, turn := range session.RecentHistory(historyWindow) {
			if turn.Message == "" {
				continue
			}
			if turn.Role == "assistant" {
				msgs = append(msgs, schema.AssistantMessage(turn.Message, nil))
			} else {
				msgs = append(msgs, schema.UserMessage(turn.Message))
			}
		}
	}
	msgs = append(msgs, schema.UserMessage(req.Message))

	resp, err := r.model.Generate(ctx, msgs)
	if err != nil {
		return contractx.Resolution{}, fmt.Errorf("%w: generate: %v", contractx.ErrModelInvoke, err)
	}

	for round := 0; len(resp.ToolCalls) > 0 && round < maxToolRounds; round++ {
		msgs = append(msgs, resp)
		for _, call := range resp.ToolCalls {
			msgs = append(msgs, r.runToolCall(ctx, session, call))
		}
		resp, err = r.model.Generate(ctx, msgs)
		if err != nil {
			return contractx.Resolution{}, fmt.Errorf("%w: generate (tool round): %v", contractx.ErrModelInvoke, err)
		}
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return contractx.Resolution{Direct: &contractx.DirectResult{
			Speak: "원하시는 메뉴를 말씀해 주세요.",
		}}, nil
	}

	var direct contractx.DirectResult
	if err := json.Unmarshal([]byte(StripJSONFence(content)), &direct); err != nil {
		log.Warn().Err(err).Msg("model output did not parse as a turn payload")
		direct = contractx.DirectResult{
			Speak:   content,
			Actions: []contractx.Action{{Type: contractx.ActionClarify}},
		}
	}
	if strings.TrimSpace(direct.Speak) == "" {
		direct.Speak = "무엇을 도와드릴까요?"
	}
	return contractx.Resolution{Direct: &direct}, nil
}

// runToolCall executes one requested tool and wraps the outcome as a tool
// message. Bad arguments degrade to an empty arg map rather than failing the
// round; the reviews tool gets the store's menu names injected when missing so
// mention counting always has candidates.
func (r *LLMResolver) runToolCall(ctx context.Context, session *statex.OrderSession, call schema.ToolCall) *schema.Message {
	name := strings.TrimSpace(call.Function.Name)
	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			log.Debug().Err(err).Str("tool", name).Msg("unparseable tool arguments")
			args = map[string]any{}
		}
	}

	store := ""
	if session != nil {
		store = session.Store
	}
	if store != "" {
		if _, ok := args["store"]; !ok {
			args["store"] = store
		}
	}
	if name == toolx.ToolGetReviews {
		if _, ok := args["menu_names"]; !ok && store != "" {
			items := r.catalog.List(store)
			names := make([]string, 0, len(items))
			for i, item := range items {
				if i >= 40 {
					break
				}
				names = append(names, item.Name)
			}
			args["menu_names"] = names
		}
	}

	result := r.gateway.Execute(ctx, contractx.ToolRequest{Tool: name, Args: args})
	payload, err := json.Marshal(result)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"tool":%q,"error":"unserializable result"}`, name))
	}
	return schema.ToolMessage(string(payload), call.ID)
}

func (r *LLMResolver) buildSystemPrompt(session *statex.OrderSession) string {
	var b strings.Builder
	b.WriteString(r.systemPrompt)

	b.WriteString("\n\n[상태]\n")
	snap := session.AsSnapshot()
	parts := []string{
		"단계: " + string(snap.Stage),
		"매장: " + orDefault(snap.Store, "미정"),
	}
	if snap.SelectedMenu != "" {
		parts = append(parts, "선택 메뉴: "+snap.SelectedMenu)
	}
	if snap.Quantity > 0 {
		parts = append(parts, fmt.Sprintf("수량: %d", snap.Quantity))
	}
	if session != nil {
		if brief := profileBrief(session); brief != "" {
			parts = append(parts, "프로필: "+brief)
		}
	}
	b.WriteString(strings.Join(parts, " | "))

	if snap.Store != "" {
		if block := r.menuBlock(snap.Store); block != "" {
			b.WriteString("\n\n[매장 메뉴]\n")
			b.WriteString(block)
		}
	}

	b.WriteString("\n\n[형식]\n반드시 JSON만 출력하세요. 코드블록 금지.")
	return b.String()
}

func (r *LLMResolver) menuBlock(store string) string {
	items := r.catalog.List(store)
	if len(items) > menuBlockLimit {
		items = items[:menuBlockLimit]
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		line := "- " + item.Name
		if item.Price > 0 {
			line += fmt.Sprintf(" | %d원", item.Price)
		}
		if desc := strings.TrimSpace(item.Description); desc != "" {
			runes := []rune(desc)
			if len(runes) > descTruncateLen {
				desc = string(runes[:descTruncateLen]) + "…"
			}
			line += " | " + desc
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func profileBrief(session *statex.OrderSession) string {
	var fields []string
	if prefers := head(session.ProfileStrings("prefers"), 3); len(prefers) > 0 {
		fields = append(fields, strings.Join(prefers, ", "))
	}
	if allergies := head(session.ProfileStrings("allergies"), 3); len(allergies) > 0 {
		fields = append(fields, "알레르기: "+strings.Join(allergies, ", "))
	}
	if dislikes := head(session.ProfileStrings("dislikes"), 3); len(dislikes) > 0 {
		fields = append(fields, "기피: "+strings.Join(dislikes, ", "))
	}
	return strings.Join(fields, " / ")
}

// StripJSONFence normalizes model output into a parseable JSON string. Fenced
// output has the fence removed and the outermost object extracted; output that
// still does not look like JSON is wrapped as a minimal clarification payload
// so the caller's json.Unmarshal always has something valid to chew on.
func StripJSONFence(text string) string {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "```") {
		t = strings.Trim(t, "`\n")
		if open := strings.Index(t, "{"); open >= 0 {
			if end := strings.LastIndex(t, "}"); end > open {
				t = t[open : end+1]
			}
		}
	}
	if strings.HasPrefix(t, "{") && strings.HasSuffix(t, "}") {
		return t
	}

	speak := t
	if speak == "" {
		speak = "원하시는 메뉴를 조금 더 구체적으로 말씀해 주시겠어요?"
	}
	fallback := map[string]any{
		"speak":   speak,
		"actions": []map[string]string{{"type": string(contractx.ActionClarify)}},
	}
	raw, err := json.Marshal(fallback)
	if err != nil {
		return `{"speak":"다시 한 번 말씀해 주세요.","actions":[{"type":"CLARIFY"}]}`
	}
	return string(raw)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func head(values []string, n int) []string {
	if len(values) <= n {
		return values
	}
	return values[:n]
}
