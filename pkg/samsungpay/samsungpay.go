package samsungpay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
)

const (
	providerLabel = "SamsungPay"
	currencyKRW   = "KRW"
)

type Config struct {
	// Delay simulates provider latency per charge.
	Delay time.Duration `envconfig:"DELAY" split_words:"true" default:"0s"`
}

// Client is a mock payment provider. Every charge succeeds, totals are summed
// from the normalized items, and the generated identifiers follow the shapes a
// real gateway would return.
type Client struct {
	delay time.Duration
	now   func() time.Time
}

var _ contractx.PaymentProvider = (*Client)(nil)

func NewClient(cfg Config) *Client {
	return &Client{delay: cfg.Delay, now: time.Now}
}

func (c *Client) Charge(ctx context.Context, store string, items []contractx.PaymentItem) (contractx.PaymentResult, error) {
	if len(items) == 0 {
		return contractx.PaymentResult{}, fmt.Errorf("%w: no items to charge", contractx.ErrValidation)
	}

	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return contractx.PaymentResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	normalized := make([]contractx.PaymentItem, 0, len(items))
	amount := 0
	for _, item := range items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		normalized = append(normalized, contractx.PaymentItem{
			Name:     strings.TrimSpace(item.Name),
			Price:    item.Price,
			Quantity: qty,
		})
		amount += item.Price * qty
	}

	now := c.now()
	result := contractx.PaymentResult{
		Status:        "success",
		Provider:      providerLabel,
		Amount:        amount,
		Currency:      currencyKRW,
		Items:         normalized,
		Message:       "모의 결제 완료",
		PaymentID:     "pay_" + uuid.NewString(),
		TransactionID: "txn_" + uuid.NewString(),
		OrderNumber:   fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.NewString()[:8])),
		ReceiptNumber: fmt.Sprintf("RCPT-%s", strings.ToUpper(uuid.NewString()[:12])),
	}

	log.Info().
		Str("store", store).
		Int("amount", amount).
		Str("payment_id", result.PaymentID).
		Msg("mock payment charged")
	return result, nil
}
