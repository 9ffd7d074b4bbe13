package tool

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	catalogx "github.com/hyeonjae-dev/voiceorder/agent/catalog"
	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
	reviewsx "github.com/hyeonjae-dev/voiceorder/agent/reviews"
)

const (
	ToolGetReviews     = "get_reviews"
	ToolGetNutrition   = "get_nutrition"
	ToolListCatalog    = "list_catalog"
	ToolRequestPayment = "request_payment"
	ToolGetPlaceLink   = "get_place_link"
)

// Spec binds one tool's model-facing schema to its implementation.
type Spec struct {
	Info *schema.ToolInfo
	Run  func(ctx context.Context, args map[string]any) (any, error)
}

// Registry is a static tool table built once at startup. It satisfies
// contractx.ToolGateway; unknown tool names come back as ToolResult errors
// rather than Go errors so a model-side typo never aborts the turn.
type Registry struct {
	specs map[string]Spec
	order []string
}

// NewRegistry wires the full tool set. Nil miner disables live mining and
// falls back to the seeded review source; nil payments disables the payment
// tool entirely.
func NewRegistry(catalog *catalogx.Catalog, source *reviewsx.Source, miner *Miner, payments contractx.PaymentProvider) *Registry {
	r := &Registry{specs: make(map[string]Spec)}

	r.register(Spec{
		Info: &schema.ToolInfo{
			Name: ToolGetReviews,
			Desc: "Look up customer reviews for a store: summary, highlights, and per-menu mention counts.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"store": {Type: schema.String, Desc: "Store name", Required: true},
				"menu_names": {
					Type:     schema.Array,
					Desc:     "Menu names to count mentions for",
					ElemInfo: &schema.ParameterInfo{Type: schema.String},
				},
			}),
		},
		Run: func(ctx context.Context, args map[string]any) (any, error) {
			store := stringArg(args, "store")
			if store == "" {
				return nil, fmt.Errorf("%w: store is required", contractx.ErrValidation)
			}
			names := stringsArg(args, "menu_names")
			if miner != nil {
				result := miner.Mine(ctx, store, MineOptions{MenuNames: names})
				if len(result.Sources) > 0 {
					return result, nil
				}
			}
			bundle := source.Get(store)
			return MiningResult{
				Summary:      bundle.Summary,
				Highlights:   bundle.Highlights,
				MenuMentions: CountMentions(bundle.Corpus(), names),
			}, nil
		},
	})

	r.register(Spec{
		Info: &schema.ToolInfo{
			Name: ToolGetNutrition,
			Desc: "Estimate per-serving nutrition figures and dietary tags for one menu item.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"store": {Type: schema.String, Desc: "Store name", Required: true},
				"name":  {Type: schema.String, Desc: "Menu item name", Required: true},
			}),
		},
		Run: func(_ context.Context, args map[string]any) (any, error) {
			store := stringArg(args, "store")
			name := stringArg(args, "name")
			if store == "" || name == "" {
				return nil, fmt.Errorf("%w: store and name are required", contractx.ErrValidation)
			}
			item, ok := catalog.Find(store, name)
			if !ok {
				return nil, fmt.Errorf("%w: menu %q not found at %q", contractx.ErrValidation, name, store)
			}
			return EstimateNutrition(item.Name, item.Description), nil
		},
	})

	r.register(Spec{
		Info: &schema.ToolInfo{
			Name: ToolListCatalog,
			Desc: "List the full menu of a store with names, descriptions, and prices.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"store": {Type: schema.String, Desc: "Store name", Required: true},
			}),
		},
		Run: func(_ context.Context, args map[string]any) (any, error) {
			store := stringArg(args, "store")
			if store == "" {
				return nil, fmt.Errorf("%w: store is required", contractx.ErrValidation)
			}
			return catalog.List(store), nil
		},
	})

	if payments != nil {
		r.register(Spec{
			Info: &schema.ToolInfo{
				Name: ToolRequestPayment,
				Desc: "Charge the confirmed order through the store's payment provider.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"store": {Type: schema.String, Desc: "Store name", Required: true},
					"items": {
						Type: schema.Array,
						Desc: "Order lines to charge",
						ElemInfo: &schema.ParameterInfo{
							Type: schema.Object,
							SubParams: map[string]*schema.ParameterInfo{
								"name":     {Type: schema.String, Desc: "Menu name", Required: true},
								"price":    {Type: schema.Integer, Desc: "Unit price in KRW", Required: true},
								"quantity": {Type: schema.Integer, Desc: "Quantity", Required: true},
							},
						},
					},
				}),
			},
			Run: func(ctx context.Context, args map[string]any) (any, error) {
				store := stringArg(args, "store")
				items := paymentItemsArg(args, "items")
				if store == "" || len(items) == 0 {
					return nil, fmt.Errorf("%w: store and items are required", contractx.ErrValidation)
				}
				return payments.Charge(ctx, store, items)
			},
		})
	}

	r.register(Spec{
		Info: &schema.ToolInfo{
			Name: ToolGetPlaceLink,
			Desc: "Build a map search link for the store location.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"store": {Type: schema.String, Desc: "Store name", Required: true},
			}),
		},
		Run: func(_ context.Context, args map[string]any) (any, error) {
			store := stringArg(args, "store")
			if store == "" {
				return nil, fmt.Errorf("%w: store is required", contractx.ErrValidation)
			}
			return map[string]string{
				"store": store,
				"url":   "https://map.naver.com/p/search/" + url.PathEscape(store),
			}, nil
		},
	})

	return r
}

func (r *Registry) register(spec Spec) {
	r.specs[spec.Info.Name] = spec
	r.order = append(r.order, spec.Info.Name)
}

// Infos returns the model-facing tool schemas in registration order.
func (r *Registry) Infos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		infos = append(infos, r.specs[name].Info)
	}
	return infos
}

// Execute runs one tool request. Failures land in ToolResult.Error so the
// calling loop can feed them back to the model as context.
func (r *Registry) Execute(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	spec, ok := r.specs[req.Tool]
	if !ok {
		return contractx.ToolResult{
			Tool:  req.Tool,
			Error: fmt.Sprintf("unknown tool %q", req.Tool),
		}
	}
	result, err := spec.Run(ctx, req.Args)
	if err != nil {
		log.Warn().Err(err).Str("tool", req.Tool).Msg("tool execution failed")
		return contractx.ToolResult{Tool: req.Tool, Error: err.Error()}
	}
	return contractx.ToolResult{Tool: req.Tool, Result: result}
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func stringsArg(args map[string]any, key string) []string {
	raw, ok := args[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			if s, ok := elem.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	default:
		return nil
	}
}

func paymentItemsArg(args map[string]any, key string) []contractx.PaymentItem {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	items := make([]contractx.PaymentItem, 0, len(raw))
	for _, elem := range raw {
		entry, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		item := contractx.PaymentItem{
			Name:     stringArg(entry, "name"),
			Price:    intArg(entry, "price"),
			Quantity: intArg(entry, "quantity"),
		}
		if item.Name == "" {
			continue
		}
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		items = append(items, item)
	}
	return items
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
