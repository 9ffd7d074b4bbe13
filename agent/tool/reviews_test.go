package tool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

const searchResultsHTML = `
<div class="result">
  <a rel="nofollow" class="result__a" href="https://blog.naver.com/review1">옥소반 마곡본점 갈비탕 후기</a>
  <a class="result__snippet" href="#">직원이 친절하고 갈비탕 고기가 부드럽고 연하다 느꼈어요. 갈비탕 또 먹고 싶네요.</a>
</div>
<div class="result">
  <a rel="nofollow" class="result__a" href="https://cafe.naver.com/review2">점심 방문기</a>
  <a class="result__snippet" href="#">매장이 깔끔하고 비빔밥 가격도 괜찮았습니다.</a>
</div>
`

func newTestMiner(handler http.Handler) (*Miner, *httptest.Server) {
	srv := httptest.NewServer(handler)
	miner := NewMiner(MinerConfig{SearchBaseURL: srv.URL + "/", Timeout: 2 * time.Second})
	miner.delay = 0
	return miner, srv
}

func TestMineParsesSearchResults(t *testing.T) {
	t.Parallel()

	miner, srv := newTestMiner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); !strings.Contains(got, "옥소반 마곡본점 리뷰") {
			t.Errorf("search query = %q, missing store and 리뷰", got)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(searchResultsHTML))
	}))
	defer srv.Close()

	result := miner.Mine(context.Background(), "옥소반 마곡본점", MineOptions{
		MenuNames: []string{"갈비탕", "비빔밥", "냉면"},
	})

	if len(result.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(result.Sources))
	}
	if result.Sources[0].URL != "https://blog.naver.com/review1" {
		t.Fatalf("first source URL = %q", result.Sources[0].URL)
	}
	if result.Sources[0].Title != "옥소반 마곡본점 갈비탕 후기" {
		t.Fatalf("first source title = %q", result.Sources[0].Title)
	}

	if len(result.MenuMentions) != 2 {
		t.Fatalf("mentions = %+v, want 갈비탕 and 비빔밥 only", result.MenuMentions)
	}
	if result.MenuMentions[0].Name != "갈비탕" || result.MenuMentions[0].Count != 3 {
		t.Fatalf("top mention = %+v, want 갈비탕 x3", result.MenuMentions[0])
	}

	if len(result.Highlights) == 0 {
		t.Fatal("expected highlights from 친절/부드럽/깔끔 keywords")
	}
	if result.Summary == "" || !strings.Contains(result.Summary, "리뷰에 따르면") {
		t.Fatalf("summary = %q", result.Summary)
	}
}

func TestMineDegradesToEmptyOnServerFailure(t *testing.T) {
	t.Parallel()

	miner, srv := newTestMiner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	result := miner.Mine(context.Background(), "옥소반 마곡본점", MineOptions{MenuNames: []string{"갈비탕"}})

	if len(result.Sources) != 0 || len(result.MenuMentions) != 0 {
		t.Fatalf("failed mining should yield empty result, got %+v", result)
	}
	if !strings.Contains(result.Summary, "옥소반 마곡본점") {
		t.Fatalf("templated summary missing store name: %q", result.Summary)
	}
}

func TestMineSkipsNonHTMLResponses(t *testing.T) {
	t.Parallel()

	miner, srv := newTestMiner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"not":"html"}`))
	}))
	defer srv.Close()

	result := miner.Mine(context.Background(), "가게", MineOptions{})
	if len(result.Sources) != 0 {
		t.Fatalf("non-HTML body parsed anyway: %+v", result.Sources)
	}
}

func TestCountMentions(t *testing.T) {
	t.Parallel()

	text := "갈비탕 진짜 맛있어요. 갈 비 탕 최고. 비빔밥도 괜찮아요."
	got := CountMentions(text, []string{"갈비탕", "비빔밥", "냉면", " "})

	if len(got) != 2 {
		t.Fatalf("mentions = %+v, want zero-count names omitted", got)
	}
	if got[0].Name != "갈비탕" || got[0].Count != 2 {
		t.Fatalf("whitespace-insensitive count = %+v, want 갈비탕 x2", got[0])
	}
	if got[1].Name != "비빔밥" || got[1].Count != 1 {
		t.Fatalf("second mention = %+v", got[1])
	}

	if CountMentions("", []string{"갈비탕"}) != nil {
		t.Fatal("empty text should yield nil")
	}
	if CountMentions(text, nil) != nil {
		t.Fatal("no names should yield nil")
	}
}

func TestFetchPageTextTruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("옥소반 갈비탕 후기 ", 200)
	miner, srv := newTestMiner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(long))
	}))
	defer srv.Close()

	got := miner.fetchPageText(context.Background(), srv.URL)
	if len(got) == 0 || len(got) > pageTextLimit {
		t.Fatalf("truncated length = %d, want 1..%d", len(got), pageTextLimit)
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncation split a multibyte rune")
	}
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	in := "<b>갈비탕</b> 후기\n\n  진한   국물 &amp; 반찬"
	if got := cleanText(in); got != "갈비탕 후기 진한 국물 & 반찬" {
		t.Fatalf("cleanText = %q", got)
	}
}
