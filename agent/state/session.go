package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Stage is the position in the ordering conversation state machine.
type Stage string

const (
	StageNeedStore           Stage = "need_store"
	StageAwaitRecommendation Stage = "await_recommendation"
	StageAwaitMenuChoice     Stage = "await_menu_choice"
	StageAwaitQuantity       Stage = "await_quantity"
	StageAwaitConfirmation   Stage = "await_confirmation"
	StageOrderComplete       Stage = "order_complete"
)

func (s Stage) Valid() bool {
	switch s {
	case StageNeedStore, StageAwaitRecommendation, StageAwaitMenuChoice,
		StageAwaitQuantity, StageAwaitConfirmation, StageOrderComplete:
		return true
	}
	return false
}

// ParseStage maps a wire value onto a Stage. Unknown values are rejected so a
// model-produced patch can never push the session into an undefined stage.
func ParseStage(raw string) (Stage, bool) {
	s := Stage(strings.TrimSpace(raw))
	return s, s.Valid()
}

// Turn is one transcript entry. Role is "user" or "assistant".
type Turn struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// Keys in the profile map whose values are string lists and must be
// union-merged on update instead of overwritten.
var listProfileKeys = map[string]bool{
	"prefers":   true,
	"dislikes":  true,
	"allergies": true,
	"diseases":  true,
}

// OrderSession is the per-session source of truth for one ordering
// conversation. It is mutated only by the orchestrator pipeline; callers that
// may process the same session id concurrently must serialize externally.
type OrderSession struct {
	SessionID string `json:"session_id"`
	Stage     Stage  `json:"stage"`
	Store     string `json:"store,omitempty"`

	SelectedMenu    string   `json:"selected_menu,omitempty"`
	Quantity        int      `json:"quantity,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`

	Profile map[string]any `json:"profile,omitempty"`
	History []Turn         `json:"history,omitempty"`

	LastAgentMessage string    `json:"last_agent_message,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func NewOrderSession(sessionID string, now time.Time) *OrderSession {
	return &OrderSession{
		SessionID: sessionID,
		Stage:     StageNeedStore,
		Profile:   make(map[string]any, 4),
		UpdatedAt: now.UTC(),
	}
}

func (s *OrderSession) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *OrderSession) RememberUser(message string) {
	if strings.TrimSpace(message) == "" {
		return
	}
	s.History = append(s.History, Turn{Role: "user", Message: message})
}

func (s *OrderSession) RememberAgent(message string) {
	s.LastAgentMessage = message
	s.History = append(s.History, Turn{Role: "assistant", Message: message})
}

// RecentHistory returns the last n transcript turns for model replay.
func (s *OrderSession) RecentHistory(n int) []Turn {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	if len(s.History) <= n {
		return append([]Turn(nil), s.History...)
	}
	return append([]Turn(nil), s.History[len(s.History)-n:]...)
}

// ClearSelection drops the menu under discussion and its quantity. Used by the
// cancel transition.
func (s *OrderSession) ClearSelection() {
	s.SelectedMenu = ""
	s.Quantity = 0
}

func (s *OrderSession) EnsureProfile() {
	if s.Profile == nil {
		s.Profile = make(map[string]any, 4)
	}
}

// MergeProfile applies a profile patch: list-valued keys are union-merged,
// everything else overwrites.
func (s *OrderSession) MergeProfile(patch map[string]any) {
	if len(patch) == 0 {
		return
	}
	s.EnsureProfile()
	for k, v := range patch {
		if listProfileKeys[k] {
			s.Profile[k] = unionStrings(s.Profile[k], v)
			continue
		}
		s.Profile[k] = v
	}
}

// ProfileStrings reads a list-valued profile key, tolerating both []string and
// the []any produced by JSON decoding.
func (s *OrderSession) ProfileStrings(key string) []string {
	if s == nil || s.Profile == nil {
		return nil
	}
	return toStrings(s.Profile[key])
}

// Snapshot is the serialized session view returned to the boundary.
type Snapshot struct {
	Stage           Stage    `json:"stage"`
	Store           string   `json:"store"`
	SelectedMenu    string   `json:"selectedMenu,omitempty"`
	Quantity        int      `json:"quantity,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

func (s *OrderSession) AsSnapshot() Snapshot {
	if s == nil {
		return Snapshot{Stage: StageNeedStore}
	}
	return Snapshot{
		Stage:           s.Stage,
		Store:           s.Store,
		SelectedMenu:    s.SelectedMenu,
		Quantity:        s.Quantity,
		Recommendations: append([]string(nil), s.Recommendations...),
	}
}

func (s *OrderSession) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	if !s.Stage.Valid() {
		return fmt.Errorf("%w: stage=%q", ErrInvalidStage, s.Stage)
	}
	if s.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative, got %d", s.Quantity)
	}
	return nil
}

var (
	ErrNilSession     = errors.New("session is nil")
	ErrInvalidSession = errors.New("session id is empty")
	ErrInvalidStage   = errors.New("unknown conversation stage")
)

func unionStrings(existing any, incoming any) []string {
	merged := toStrings(existing)
	seen := make(map[string]bool, len(merged))
	for _, v := range merged {
		seen[v] = true
	}
	for _, v := range toStrings(incoming) {
		if !seen[v] {
			seen[v] = true
			merged = append(merged, v)
		}
	}
	return merged
}

func toStrings(v any) []string {
	switch vv := v.(type) {
	case nil:
		return nil
	case []string:
		return append([]string(nil), vv...)
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(vv) == "" {
			return nil
		}
		return []string{vv}
	default:
		return nil
	}
}
