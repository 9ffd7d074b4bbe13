package intent

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	catalogx "github.com/hyeonjae-dev/voiceorder/agent/catalog"
	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
)

// Heuristic resolves intents from keyword and number-word matching alone.
// It runs entirely locally, makes no network calls, and is deterministic
// for a given utterance and session.
type Heuristic struct {
	catalog *catalogx.Catalog
}

func NewHeuristic(catalog *catalogx.Catalog) *Heuristic {
	return &Heuristic{catalog: catalog}
}

var _ contractx.IntentResolver = (*Heuristic)(nil)

// Short affirmatives are matched as whole utterances only; longer keywords
// are matched by containment over the whitespace-stripped lowercase text.
var (
	confirmExact    = []string{"네", "예", "응", "그래", "yes", "yeah", "ok", "okay", "sure"}
	confirmContains = []string{"좋아", "맞아", "확인", "할게", "주문할", "결제해", "그걸로", "confirm", "goahead"}

	cancelKeywords    = []string{"취소", "아니요", "아니오", "안할", "다른메뉴", "다시고를", "cancel", "nevermind"}
	thanksKeywords    = []string{"감사", "고마워", "고맙", "thank"}
	recommendKeywords = []string{"추천", "뭐먹", "뭘먹", "recommend", "suggest"}
	reviewKeywords    = []string{"리뷰", "후기", "review"}
	introKeywords     = []string{"소개", "어떤가게", "어떤곳", "introduce"}
	explainKeywords   = []string{"설명", "어떤메뉴", "뭐가들어", "explain", "describe", "whatis"}
)

// Resolve fills an intent bag from the utterance. It never produces a Direct
// result; the state machine downstream interprets the bag.
func (h *Heuristic) Resolve(_ context.Context, req contractx.ResolveRequest) (contractx.Resolution, error) {
	text := strings.TrimSpace(req.Message)
	norm := catalogx.Normalize(text)

	var bag contractx.IntentBag
	bag.Thanks = containsAny(norm, thanksKeywords)
	bag.Cancel = containsAny(norm, cancelKeywords)
	bag.Confirm = matchesExact(norm, confirmExact) || containsAny(norm, confirmContains)
	bag.Recommend = containsAny(norm, recommendKeywords)
	bag.Reviews = containsAny(norm, reviewKeywords)
	bag.Introduction = containsAny(norm, introKeywords)
	bag.Quantity = ParseQuantity(text)

	if req.Session != nil && req.Session.Store != "" {
		match := h.matchMenuName(req.Session.Store, norm)
		if containsAny(norm, explainKeywords) {
			bag.ExplainTarget = match
		} else {
			bag.MenuChoice = match
		}
	}

	return contractx.Resolution{Intents: bag}, nil
}

// matchMenuName scans the store's catalog for a name contained in the
// normalized utterance. Longest name wins so "불고기 정식" beats "불고기".
func (h *Heuristic) matchMenuName(store, norm string) string {
	var best string
	var bestLen int
	for _, item := range h.catalog.List(store) {
		needle := catalogx.Normalize(item.Name)
		if needle == "" || !strings.Contains(norm, needle) {
			continue
		}
		if len(needle) > bestLen {
			best = item.Name
			bestLen = len(needle)
		}
	}
	return best
}

var digitPattern = regexp.MustCompile(`\d+`)

// Korean counting forms pair with a unit counter (개, 그릇, 인분, 잔, 판);
// standalone cardinal words are accepted as-is. Matching runs over the
// whitespace-stripped text so "두 개" and "두개" are equivalent.
var koreanQuantities = []struct {
	forms []string
	value int
}{
	{[]string{"한개", "한그릇", "한인분", "한잔", "한판", "하나"}, 1},
	{[]string{"두개", "두그릇", "두인분", "두잔", "두판", "둘"}, 2},
	{[]string{"세개", "세그릇", "세인분", "세잔", "세판", "셋"}, 3},
	{[]string{"네개", "네그릇", "네인분", "네잔", "네판", "넷"}, 4},
	{[]string{"다섯개", "다섯"}, 5},
	{[]string{"여섯개", "여섯"}, 6},
	{[]string{"일곱개", "일곱"}, 7},
	{[]string{"여덟개", "여덟"}, 8},
	{[]string{"아홉개", "아홉"}, 9},
	{[]string{"열개", "열그릇", "열인분"}, 10},
}

var englishQuantities = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// ParseQuantity extracts a count from the utterance: raw digits first, then
// Korean number words, then English number words. Returns 0 when absent.
func ParseQuantity(text string) int {
	if digits := digitPattern.FindString(text); digits != "" {
		if n, err := strconv.Atoi(digits); err == nil && n >= 1 {
			return n
		}
	}

	norm := catalogx.Normalize(text)
	for _, entry := range koreanQuantities {
		for _, form := range entry.forms {
			if strings.Contains(norm, form) {
				return entry.value
			}
		}
	}

	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,!?")
		if n, ok := englishQuantities[token]; ok {
			return n
		}
	}
	return 0
}

func containsAny(norm string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(norm, kw) {
			return true
		}
	}
	return false
}

func matchesExact(norm string, words []string) bool {
	trimmed := strings.Trim(norm, ".,!?")
	for _, w := range words {
		if trimmed == w {
			return true
		}
	}
	return false
}
