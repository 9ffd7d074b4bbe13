package samsungpay

import (
	"context"
	"errors"
	"strings"
	"testing"

	contractx "github.com/hyeonjae-dev/voiceorder/agent/contract"
)

func TestChargeSumsItems(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{})
	result, err := client.Charge(context.Background(), "Demo Diner", []contractx.PaymentItem{
		{Name: "Bibimbap", Price: 9000, Quantity: 2},
		{Name: "Galbi", Price: 18000, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "success" {
		t.Fatalf("expected success, got %q", result.Status)
	}
	if result.Amount != 36000 {
		t.Fatalf("expected amount 36000, got %d", result.Amount)
	}
	if result.Provider != "SamsungPay" || result.Currency != "KRW" {
		t.Fatalf("unexpected provider fields: %+v", result)
	}
	if !strings.HasPrefix(result.PaymentID, "pay_") || !strings.HasPrefix(result.TransactionID, "txn_") {
		t.Fatalf("unexpected identifiers: %+v", result)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected normalized items, got %+v", result.Items)
	}
}

func TestChargeClampsQuantity(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{})
	result, err := client.Charge(context.Background(), "Demo Diner", []contractx.PaymentItem{
		{Name: "Bibimbap", Price: 9000, Quantity: 0},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Items[0].Quantity != 1 {
		t.Fatalf("expected quantity clamped to 1, got %d", result.Items[0].Quantity)
	}
	if result.Amount != 9000 {
		t.Fatalf("expected amount 9000, got %d", result.Amount)
	}
}

func TestChargeRejectsEmptyOrder(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{})
	_, err := client.Charge(context.Background(), "Demo Diner", nil)
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestChargeIdentifiersAreUnique(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{})
	items := []contractx.PaymentItem{{Name: "Galbi", Price: 18000, Quantity: 1}}
	first, err := client.Charge(context.Background(), "Demo Diner", items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := client.Charge(context.Background(), "Demo Diner", items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.PaymentID == second.PaymentID || first.TransactionID == second.TransactionID {
		t.Fatal("expected unique identifiers per charge")
	}
}
