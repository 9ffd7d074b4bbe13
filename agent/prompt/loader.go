package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/order_agent.txt
var orderAgentRaw string

// OrderAgent returns the trimmed system prompt for the order agent.
// The embed is compile-time, so this is safe to call concurrently.
func OrderAgent() string {
	return strings.TrimSpace(orderAgentRaw)
}
