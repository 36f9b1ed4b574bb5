package discount

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestComputePercent(t *testing.T) {
	percent := int32(2000)
	rule := Rule{Kind: "percent", PercentBps: &percent}
	amount := Compute(decimal.NewFromInt(100), rule)
	if !amount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected 20, got %s", amount)
	}
}

func TestComputeFixedClampedToPrice(t *testing.T) {
	rule := Rule{Kind: "fixed", Value: decimal.NewFromInt(50)}
	amount := Compute(decimal.NewFromInt(30), rule)
	if !amount.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected clamp to 30, got %s", amount)
	}
}

func TestComputeZeroOnNonPositivePrice(t *testing.T) {
	rule := Rule{Kind: "fixed", Value: decimal.NewFromInt(5)}
	if amount := Compute(decimal.Zero, rule); !amount.IsZero() {
		t.Fatalf("expected zero, got %s", amount)
	}
}

func TestValidateWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	if err := (Rule{ValidFrom: &future}).Validate(now, "", nil); err != ErrNotActive {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
	if err := (Rule{ValidTo: &past}).Validate(now, "", nil); err != ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if err := (Rule{ValidFrom: &past, ValidTo: &future}).Validate(now, "", nil); err != nil {
		t.Fatalf("expected valid rule, got %v", err)
	}
}

func TestValidateUsageLimit(t *testing.T) {
	limit := int32(10)
	rule := Rule{UsageLimit: &limit, UsedCount: 10}
	if err := rule.Validate(time.Now(), "", nil); err != ErrUsageLimitReached {
		t.Fatalf("expected ErrUsageLimitReached, got %v", err)
	}
}

func TestValidateScope(t *testing.T) {
	rule := Rule{StoreID: "store-1"}
	if err := rule.Validate(time.Now(), "store-2", nil); err != ErrScopeMismatch {
		t.Fatalf("expected store mismatch, got %v", err)
	}
	if err := rule.Validate(time.Now(), "store-1", nil); err != nil {
		t.Fatalf("expected store match, got %v", err)
	}

	rule = Rule{CustomerGroupID: "vip"}
	if err := rule.Validate(time.Now(), "", []string{"retail"}); err != ErrScopeMismatch {
		t.Fatalf("expected group mismatch, got %v", err)
	}
	if err := rule.Validate(time.Now(), "", []string{"retail", "vip"}); err != nil {
		t.Fatalf("expected group match, got %v", err)
	}
}
