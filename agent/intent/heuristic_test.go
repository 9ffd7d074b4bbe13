package intent

import (
	"context"
	"testing"
	"time"

	catalogx "github.com/hyeonjae-dev/voiceorder/agent/catalog"
	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
	statex "github.com/hyeonjae-dev/voiceorder/agent/state"
)

func demoCatalog(t *testing.T) *catalogx.Catalog {
	t.Helper()
	cat := catalogx.New()
	if err := cat.Upsert("Demo Diner", []catalogx.MenuItem{
		{Name: "Bibimbap", Price: 9000},
		{Name: "Galbi", Price: 18000},
		{Name: "불고기", Price: 12000},
		{Name: "불고기 정식", Price: 15000},
	}, nil); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	return cat
}

func resolveBag(t *testing.T, message string, session *statex.OrderSession) contractx.IntentBag {
	t.Helper()
	resolver := NewHeuristic(demoCatalog(t))
	res, err := resolver.Resolve(context.Background(), contractx.ResolveRequest{
		Session: session,
		Message: message,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Direct != nil {
		t.Fatal("heuristic resolver must not produce a direct result")
	}
	return res.Intents
}

func boundSession() *statex.OrderSession {
	s := statex.NewOrderSession("s1", time.Now())
	s.Store = "Demo Diner"
	return s
}

func TestResolveConfirmExactShortWord(t *testing.T) {
	t.Parallel()

	for _, msg := range []string{"네", "yes", "응", "그래", "ok"} {
		bag := resolveBag(t, msg, boundSession())
		if !bag.Confirm {
			t.Fatalf("message %q: expected confirm intent", msg)
		}
	}
}

func TestResolveShortAffirmativeNotMatchedInsideWords(t *testing.T) {
	t.Parallel()

	bag := resolveBag(t, "네이버 지도 열어줘", boundSession())
	if bag.Confirm {
		t.Fatal("네이버 must not register as a confirmation")
	}
}

func TestResolveCancelAndRecommendAndReviews(t *testing.T) {
	t.Parallel()

	bag := resolveBag(t, "취소하고 다른 메뉴 추천해줘, 리뷰도 알려줘", boundSession())
	if !bag.Cancel || !bag.Recommend || !bag.Reviews {
		t.Fatalf("unexpected bag: %+v", bag)
	}
}

func TestResolveMenuChoicePrefersLongestName(t *testing.T) {
	t.Parallel()

	bag := resolveBag(t, "불고기 정식으로 할게요", boundSession())
	if bag.MenuChoice != "불고기 정식" {
		t.Fatalf("expected longest catalog match, got %q", bag.MenuChoice)
	}
}

func TestResolveExplainTarget(t *testing.T) {
	t.Parallel()

	bag := resolveBag(t, "불고기 설명해줘", boundSession())
	if bag.ExplainTarget != "불고기" {
		t.Fatalf("expected explain target 불고기, got %q", bag.ExplainTarget)
	}
	if bag.MenuChoice != "" {
		t.Fatalf("explain request must not double as a menu choice, got %q", bag.MenuChoice)
	}
}

func TestResolveNoMenuMatchWithoutStore(t *testing.T) {
	t.Parallel()

	bag := resolveBag(t, "Bibimbap 주세요", statex.NewOrderSession("s2", time.Now()))
	if bag.MenuChoice != "" {
		t.Fatalf("expected no menu choice before a store is bound, got %q", bag.MenuChoice)
	}
}

func TestResolveScenarioBibimbapTwoPlease(t *testing.T) {
	t.Parallel()

	bag := resolveBag(t, "bibimbap two please", boundSession())
	if bag.MenuChoice != "Bibimbap" {
		t.Fatalf("expected Bibimbap, got %q", bag.MenuChoice)
	}
	if bag.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", bag.Quantity)
	}
	if bag.Confirm {
		t.Fatal("choice turn must not be a confirmation")
	}
}

func TestParseQuantity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		message string
		want    int
	}{
		{"3개 주세요", 3},
		{"12인분이요", 12},
		{"두 개 주세요", 2},
		{"두개", 2},
		{"하나만 주세요", 1},
		{"다섯 개", 5},
		{"열 그릇", 10},
		{"two please", 2},
		{"make it seven.", 7},
		{"그냥 주세요", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := ParseQuantity(tc.message); got != tc.want {
			t.Fatalf("ParseQuantity(%q) = %d, want %d", tc.message, got, tc.want)
		}
	}
}

func TestParseQuantityDigitsWinOverWords(t *testing.T) {
	t.Parallel()

	if got := ParseQuantity("두 개 말고 4개"); got != 4 {
		t.Fatalf("expected digits to win, got %d", got)
	}
}
