package tool

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	catalogx "github.com/hyeonjae-dev/voiceorder/agent/catalog"
)

const (
	defaultSearchBaseURL = "https://duckduckgo.com/html/"
	defaultMaxResults    = 8
	maxPageBodyBytes     = 64 << 10
	pageTextLimit        = 2000
	fetchDelay           = 150 * time.Millisecond

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0 Safari/537.36"
)

// MinerConfig tunes the external review mining client.
type MinerConfig struct {
	SearchBaseURL string        `envconfig:"SEARCH_BASE_URL" split_words:"true" default:"https://duckduckgo.com/html/"`
	Timeout       time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"8s"`
}

// Source is one parsed search hit.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Mention counts literal occurrences of one menu name across mined text.
type Mention struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MiningResult aggregates one review-mining pass for a store.
type MiningResult struct {
	Summary      string    `json:"summary"`
	Highlights   []string  `json:"highlights,omitempty"`
	MenuMentions []Mention `json:"menu_mentions,omitempty"`
	Sources      []Source  `json:"sources,omitempty"`
}

// Miner searches the public web for store reviews, biased toward Naver review
// hosts, and counts menu-name mentions in the collected text. Every failure
// degrades to an empty result; the caller never sees an error.
type Miner struct {
	httpClient *http.Client
	baseURL    string
	delay      time.Duration
}

func NewMiner(cfg MinerConfig) *Miner {
	baseURL := strings.TrimSpace(cfg.SearchBaseURL)
	if baseURL == "" {
		baseURL = defaultSearchBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Miner{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		delay:      fetchDelay,
	}
}

// MineOptions controls one mining pass.
type MineOptions struct {
	Query      string
	MaxResults int
	FetchPages bool
	MenuNames  []string
}

// Mine runs one best-effort mining pass. On network or parse failure the
// result is simply emptier; the templated summary is always present.
func (m *Miner) Mine(ctx context.Context, store string, opts MineOptions) MiningResult {
	maxResults := opts.MaxResults
	if maxResults <= 0 || maxResults > 20 {
		maxResults = defaultMaxResults
	}

	query := store + " 리뷰"
	if q := strings.TrimSpace(opts.Query); q != "" {
		query += " " + q
	}
	query += " (site:blog.naver.com OR site:m.place.naver.com OR site:pcmap.place.naver.com OR site:cafe.naver.com)"

	results := m.search(ctx, query, maxResults)

	sources := make([]Source, 0, len(results))
	texts := make([]string, 0, len(results)*2)
	for i, hit := range results {
		sources = append(sources, hit)
		texts = append(texts, hit.Title+"\n"+hit.Snippet)
		if opts.FetchPages {
			if body := m.fetchPageText(ctx, hit.URL); body != "" {
				texts = append(texts, body)
			}
			if i < len(results)-1 {
				sleepCtx(ctx, m.delay)
			}
		}
	}

	corpus := strings.Join(texts, "\n")
	highlights := extractHighlights(corpus)
	return MiningResult{
		Summary:      buildSummary(store, highlights),
		Highlights:   highlights,
		MenuMentions: CountMentions(corpus, opts.MenuNames),
		Sources:      sources,
	}
}

// CountMentions counts normalized literal occurrences of each name in the
// text, sorted by count descending, zero-count names omitted.
func CountMentions(text string, names []string) []Mention {
	if len(names) == 0 || text == "" {
		return nil
	}
	normalized := catalogx.Normalize(text)
	mentions := make([]Mention, 0, len(names))
	for _, name := range names {
		needle := catalogx.Normalize(name)
		if needle == "" {
			continue
		}
		count := strings.Count(normalized, needle)
		if count > 0 {
			mentions = append(mentions, Mention{Name: strings.TrimSpace(name), Count: count})
		}
	}
	sort.SliceStable(mentions, func(i, j int) bool {
		return mentions[i].Count > mentions[j].Count
	})
	if len(mentions) > 10 {
		mentions = mentions[:10]
	}
	return mentions
}

// resultPattern is a deliberately permissive match over DuckDuckGo's HTML
// result markup: anchor title, href, then snippet anchor.
var resultPattern = regexp.MustCompile(
	`(?s)<a rel="nofollow" class="result__a" href="([^"]+)".*?>(.*?)</a>.*?<a[^>]+class="result__snippet".*?>(.*?)</a>`,
)

func (m *Miner) search(ctx context.Context, query string, maxResults int) []Source {
	searchURL := m.baseURL + "?q=" + url.QueryEscape(query)
	body := m.get(ctx, searchURL)
	if body == "" {
		return nil
	}

	matches := resultPattern.FindAllStringSubmatch(body, -1)
	out := make([]Source, 0, maxResults)
	for _, match := range matches {
		out = append(out, Source{
			Title:   cleanText(match[2]),
			URL:     match[1],
			Snippet: cleanText(match[3]),
		})
		if len(out) >= maxResults {
			break
		}
	}
	return out
}

func (m *Miner) fetchPageText(ctx context.Context, pageURL string) string {
	body := m.get(ctx, pageURL)
	if body == "" {
		return ""
	}
	text := cleanText(body)
	if len(text) > pageTextLimit {
		cut := pageTextLimit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}

func (m *Miner) get(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", rawURL).Msg("review mining fetch failed")
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "text/html") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBodyBytes))
	if err != nil {
		return ""
	}
	return string(raw)
}

var (
	tagPattern = regexp.MustCompile(`<[^>]+>`)
	wsPattern  = regexp.MustCompile(`\s+`)
)

func cleanText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(wsPattern.ReplaceAllString(s, " "))
}

// Keyword families mapped to canned highlight phrases.
var highlightPatterns = []struct {
	pattern *regexp.Regexp
	label   string
}{
	{regexp.MustCompile(`친절|서비스`), "친절한 서비스"},
	{regexp.MustCompile(`부드럽|연하다`), "부드러운 식감"},
	{regexp.MustCompile(`가성비|가격`), "가격 만족"},
	{regexp.MustCompile(`신선|야채`), "야채 신선"},
	{regexp.MustCompile(`대기|줄|혼잡`), "대기 있을 수 있음"},
	{regexp.MustCompile(`맵다|매콤|자극`), "자극 있는 맛"},
	{regexp.MustCompile(`깔끔|청결`), "매장 깔끔"},
}

func extractHighlights(corpus string) []string {
	if corpus == "" {
		return nil
	}
	found := make([]string, 0, len(highlightPatterns))
	for _, entry := range highlightPatterns {
		if entry.pattern.MatchString(corpus) {
			found = append(found, entry.label)
		}
		if len(found) >= 6 {
			break
		}
	}
	return found
}

func buildSummary(store string, highlights []string) string {
	switch len(highlights) {
	case 0:
		return fmt.Sprintf("%s에 대한 후기가 여럿 있습니다. 메뉴 추천을 받아보실래요?", store)
	case 1:
		return fmt.Sprintf("리뷰에 따르면 %s이라는 의견이 많아요.", highlights[0])
	default:
		return fmt.Sprintf("리뷰에 따르면 %s이라는 의견이 많아요.", strings.Join(highlights[:2], ", "))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
