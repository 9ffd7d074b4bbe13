package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	applierx "github.com/hyeonjae-dev/voiceorder/agent/applier"
	catalogx "github.com/hyeonjae-dev/voiceorder/agent/catalog"
	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
	intentx "github.com/hyeonjae-dev/voiceorder/agent/intent"
	llmx "github.com/hyeonjae-dev/voiceorder/agent/llm"
	"github.com/hyeonjae-dev/voiceorder/agent/orchestrator"
	promptx "github.com/hyeonjae-dev/voiceorder/agent/prompt"
	recommendx "github.com/hyeonjae-dev/voiceorder/agent/recommend"
	reviewsx "github.com/hyeonjae-dev/voiceorder/agent/reviews"
	statex "github.com/hyeonjae-dev/voiceorder/agent/state"
	toolx "github.com/hyeonjae-dev/voiceorder/agent/tool"
	configx "github.com/hyeonjae-dev/voiceorder/pkg/config"
	_ "github.com/hyeonjae-dev/voiceorder/pkg/logger/autoload"
	openrouterx "github.com/hyeonjae-dev/voiceorder/pkg/openrouter"
	profilex "github.com/hyeonjae-dev/voiceorder/pkg/profile"
	samsungpayx "github.com/hyeonjae-dev/voiceorder/pkg/samsungpay"
	speechx "github.com/hyeonjae-dev/voiceorder/pkg/speech"
)

func main() {
	ctx := context.Background()

	catalog := catalogx.New()

	var mirror *catalogx.BunStore
	bunCfg := configx.MustNew[catalogx.BunStoreConfig]("CATALOG")
	if strings.TrimSpace(bunCfg.DSN) != "" {
		bunStore, err := catalogx.NewBunStore(*bunCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("open catalog database")
		}
		defer bunStore.Close()
		if err := bunStore.Init(ctx); err != nil {
			log.Fatal().Err(err).Msg("init catalog database")
		}
		if err := bunStore.LoadAll(ctx, catalog); err != nil {
			log.Warn().Err(err).Msg("load catalog from database")
		}
		mirror = bunStore
	}
	if err := seedDemoCatalog(ctx, catalog, mirror); err != nil {
		log.Warn().Err(err).Msg("seed demo catalog")
	}

	reviews := reviewsx.NewSource()
	reviews.SeedDemo()

	minerCfg := configx.MustNew[toolx.MinerConfig]("REVIEWS")
	miner := toolx.NewMiner(*minerCfg)

	payCfg := configx.MustNew[samsungpayx.Config]("SAMSUNGPAY")
	payments := samsungpayx.NewClient(*payCfg)

	profileCfg := configx.MustNew[profilex.Config]("")
	recorder, err := profilex.Open(profileCfg.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("open profile store")
	}

	engine := recommendx.NewEngine(catalog, reviews)
	applier := applierx.New(catalog, payments, miner)
	heuristic := intentx.NewHeuristic(catalog)

	deps := orchestrator.Deps{
		Store:    statex.NewMemoryStore(),
		Catalog:  catalog,
		Reviews:  reviews,
		Engine:   engine,
		Applier:  applier,
		Resolver: heuristic,
		Recorder: recorder,
	}

	var transcriber *speechx.Transcriber
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	if llmCfg.Available() {
		resolver, err := buildLLMResolver(ctx, *llmCfg, catalog, reviews, miner, payments)
		if err != nil {
			log.Warn().Err(err).Msg("model resolver unavailable, using heuristic only")
		} else {
			deps.Resolver = resolver
			deps.FallbackResolver = heuristic
		}

		speechCfg := configx.MustNew[speechx.Config]("SPEECH")
		transcriber = speechx.New(openrouterx.NewClient(llmCfg.OpenRouter()), *speechCfg)
	}

	orch, err := orchestrator.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	runREPL(ctx, orch, transcriber)
}

func buildLLMResolver(
	ctx context.Context,
	cfg llmx.Config,
	catalog *catalogx.Catalog,
	reviews *reviewsx.Source,
	miner *toolx.Miner,
	payments contractx.PaymentProvider,
) (contractx.IntentResolver, error) {
	routerCfg := cfg.OpenRouter()
	chatModel, err := routerCfg.New(ctx)
	if err != nil {
		return nil, err
	}
	registry := toolx.NewRegistry(catalog, reviews, miner, payments)
	return intentx.NewLLMResolver(chatModel, registry.Infos(), registry, catalog, promptx.OrderAgent())
}

// seedDemoCatalog installs the demo store so the assistant works out of the
// box. A menu already loaded from the database wins over the seed.
func seedDemoCatalog(ctx context.Context, catalog *catalogx.Catalog, mirror *catalogx.BunStore) error {
	const demoStore = "옥소반 마곡본점"
	if catalog.HasMenu(demoStore) {
		return nil
	}
	items := []catalogx.MenuItem{
		{ID: "1", Name: "불고기정식", Price: 15000, Description: "부드러운 불고기와 반찬"},
		{ID: "2", Name: "김치찌개", Price: 12000, Description: "얼큰한 김치찌개"},
		{ID: "3", Name: "된장찌개", Price: 11000, Description: "구수한 된장찌개"},
		{ID: "4", Name: "비빔밥", Price: 13000, Description: "영양만점 비빔밥"},
		{ID: "5", Name: "냉면", Price: 14000, Description: "시원한 냉면"},
		{ID: "6", Name: "갈비탕", Price: 18000, Description: "진한 갈비탕"},
	}
	return importCatalog(ctx, catalog, mirror, demoStore, items, &items[0])
}

// importCatalog applies one full-replace menu import: always to the in-memory
// catalog, and to the Postgres mirror when one is configured.
func importCatalog(
	ctx context.Context,
	catalog *catalogx.Catalog,
	mirror *catalogx.BunStore,
	store string,
	items []catalogx.MenuItem,
	featured *catalogx.MenuItem,
) error {
	if err := catalog.Upsert(store, items, featured); err != nil {
		return err
	}
	if mirror == nil {
		return nil
	}
	if err := mirror.Replace(ctx, store, items, featured); err != nil {
		return fmt.Errorf("mirror menu import: %w", err)
	}
	return nil
}

func runREPL(ctx context.Context, orch *orchestrator.Orchestrator, transcriber *speechx.Transcriber) {
	fmt.Println("음성 주문 도우미입니다. 말씀하실 내용을 입력하세요. (음성 파일: voice <경로>, 종료: exit)")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if path, ok := strings.CutPrefix(line, "voice "); ok {
			text, err := transcribeFile(ctx, transcriber, strings.TrimSpace(path))
			if err != nil {
				fmt.Println("음성을 인식하지 못했어요:", err)
				continue
			}
			fmt.Println("(인식된 내용)", text)
			line = text
		}

		resp, err := orch.HandleTurn(ctx, contractx.TurnRequest{Message: line})
		if err != nil {
			fmt.Println("입력을 이해하지 못했어요. 다시 말씀해 주세요.")
			continue
		}
		fmt.Println(resp.Reply)
		if resp.State.Stage == statex.StageOrderComplete {
			fmt.Println("(주문이 접수되었습니다)")
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("read input")
	}
}

func transcribeFile(ctx context.Context, transcriber *speechx.Transcriber, path string) (string, error) {
	if transcriber == nil {
		return "", fmt.Errorf("음성 인식이 설정되지 않았습니다 (LLM_API_KEY 필요)")
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return transcriber.Transcribe(ctx, f, filepath.Base(path))
}
