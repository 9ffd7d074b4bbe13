package ordernode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	catalogx "github.com/hyeonjae-dev/voiceorder/agent/catalog"
	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
	statex "github.com/hyeonjae-dev/voiceorder/agent/state"
)

// LoadSession loads or creates the session, then folds the request payload
// into it: profile patch, explicit store, client-side menu selections, and
// the user's message. A store mentioned by name in the utterance is bound
// when no explicit store came with the request.
func LoadSession(ctx context.Context, in *GraphState, store statex.Store, catalog *catalogx.Catalog) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	session, err := loadOrCreateSession(ctx, store, in.Request.SessionID, in)
	if err != nil {
		return nil, err
	}
	in.Session = session

	if len(in.Request.Profile) > 0 {
		session.MergeProfile(in.Request.Profile)
	}

	hadStore := session.Store != ""
	if in.Request.Store != "" {
		session.Store = in.Request.Store
	} else if session.Store == "" {
		session.Store = inferStore(catalog, in.Request.Message)
	}
	in.StoreJustBound = !hadStore && session.Store != ""

	for _, name := range in.Request.SelectedNames {
		if item, ok := catalog.Find(session.Store, name); ok {
			session.SelectedMenu = item.Name
			session.Stage = statex.StageAwaitQuantity
		}
	}

	session.RememberUser(in.Request.Message)
	return in, nil
}

func loadOrCreateSession(ctx context.Context, store statex.Store, sessionID string, in *GraphState) (*statex.OrderSession, error) {
	session, err := store.Load(ctx, sessionID)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, statex.ErrStateNotFound) {
		return nil, err
	}
	return statex.NewOrderSession(sessionID, in.Now), nil
}

// inferStore scans known store names for a normalized containment match in
// the utterance. Longest name wins.
func inferStore(catalog *catalogx.Catalog, message string) string {
	norm := catalogx.Normalize(message)
	if norm == "" {
		return ""
	}
	var best string
	var bestLen int
	for _, name := range catalog.Stores() {
		needle := catalogx.Normalize(name)
		if needle == "" || !strings.Contains(norm, needle) {
			continue
		}
		if len(needle) > bestLen {
			best = name
			bestLen = len(needle)
		}
	}
	return best
}
