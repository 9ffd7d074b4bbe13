package contract

import (
	statex "github.com/hyeonjae-dev/voiceorder/agent/state"
)

// TurnRequest is one inbound user turn at the boundary.
type TurnRequest struct {
	SessionID     string         `json:"sessionId"`
	Message       string         `json:"message"`
	Store         string         `json:"store,omitempty"`
	SelectedNames []string       `json:"selectedNames,omitempty"`
	Profile       map[string]any `json:"profile,omitempty"`
}

// TurnResponse is the boundary reply: spoken text, an open UI delta, the
// whitelisted actions, and the serialized session snapshot.
type TurnResponse struct {
	Reply   string          `json:"reply"`
	UI      map[string]any  `json:"ui"`
	Actions []Action        `json:"actions"`
	State   statex.Snapshot `json:"state"`
}

// ActionType tags one UI action. Only whitelisted types cross the boundary.
type ActionType string

const (
	ActionNavigate            ActionType = "NAVIGATE"
	ActionShowRecommendations ActionType = "SHOW_RECOMMENDATIONS"
	ActionSelectMenuByName    ActionType = "SELECT_MENU_BY_NAME"
	ActionSetQty              ActionType = "SET_QTY"
	ActionIncrementQty        ActionType = "INCREMENT_QTY"
	ActionDecrementQty        ActionType = "DECREMENT_QTY"
	ActionAddToCart           ActionType = "ADD_TO_CART"
	ActionRemoveFromCart      ActionType = "REMOVE_FROM_CART"
	ActionReadBackSummary     ActionType = "READ_BACK_SUMMARY"
	ActionOrder               ActionType = "ORDER"

	// ActionClarify marks the malformed-model-output fallback. It never
	// crosses the boundary; the applier drops it with everything else
	// outside the whitelist.
	ActionClarify ActionType = "CLARIFY"
)

// UIActionWhitelist is the fixed set of action types the applier may emit.
var UIActionWhitelist = map[ActionType]bool{
	ActionNavigate:            true,
	ActionShowRecommendations: true,
	ActionSelectMenuByName:    true,
	ActionSetQty:              true,
	ActionIncrementQty:        true,
	ActionDecrementQty:        true,
	ActionAddToCart:           true,
	ActionRemoveFromCart:      true,
	ActionReadBackSummary:     true,
	ActionOrder:               true,
}

// Action is one tagged UI directive. Exactly the fields relevant to its type
// are set; the applier matches on Type and ignores the rest.
type Action struct {
	Type   ActionType        `json:"type"`
	Name   string            `json:"name,omitempty"`
	Target string            `json:"target,omitempty"`
	Value  int               `json:"value,omitempty"`
	Items  []RecommendedItem `json:"items,omitempty"`
}

// RecommendedItem is one entry of a SHOW_RECOMMENDATIONS payload.
type RecommendedItem struct {
	MenuID      string `json:"menu_id,omitempty"`
	Name        string `json:"name"`
	Reason      string `json:"reason,omitempty"`
	Price       int    `json:"price,omitempty"`
	Description string `json:"description,omitempty"`
}

// IntentBag is the set of intents recognized in one utterance. Fields are
// independent; the state machine interprets them in a fixed priority order.
type IntentBag struct {
	Thanks       bool
	Cancel       bool
	Confirm      bool
	Recommend    bool
	Reviews      bool
	Introduction bool

	// ExplainTarget is the raw menu reference the user asked to have
	// described, empty when absent.
	ExplainTarget string

	// MenuChoice is the raw menu reference the user picked, empty when absent.
	MenuChoice string

	// Quantity is the parsed count, 0 when absent. Parsed values are >= 1.
	Quantity int
}

// StatePatch is an optional session mutation requested by the model-delegated
// resolver. Zero values mean "leave unchanged".
type StatePatch struct {
	Store           string         `json:"store,omitempty"`
	Stage           string         `json:"stage,omitempty"`
	SelectedMenu    string         `json:"selected_menu,omitempty"`
	Quantity        int            `json:"quantity,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	Profile         map[string]any `json:"profile,omitempty"`
}

// DirectResult carries a full turn produced by the model-delegated resolver:
// spoken reply, proposed actions, and an optional session patch. When present
// the heuristic state machine is bypassed and the applier runs directly.
type DirectResult struct {
	Speak      string     `json:"speak"`
	Actions    []Action   `json:"actions,omitempty"`
	StatePatch StatePatch `json:"memory,omitempty"`
}

// Resolution is the outcome of intent resolution for one turn. Exactly one of
// the two shapes is meaningful: a Direct turn from the model, or an intent bag
// for the state machine.
type Resolution struct {
	Intents IntentBag
	Direct  *DirectResult
}

// ResolveRequest is the input handed to an IntentResolver strategy.
type ResolveRequest struct {
	Session *statex.OrderSession
	Message string
}

// ToolRequest is one named-capability call requested by the model.
type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult is the outcome of one tool execution. Err is a message, not a Go
// error: tool failures are data fed back to the model, never turn failures.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// PaymentItem is one priced line of a mock payment.
type PaymentItem struct {
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}
