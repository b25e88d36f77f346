package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSplitProceeds(t *testing.T) {
	got, err := SplitProceeds(d("650.00"), d("0.10"), d("0.05"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.SystemFee.Equal(d("65.00")) {
		t.Fatalf("expected system fee 65.00, got %s", got.SystemFee)
	}
	if !got.HubFee.Equal(d("32.50")) {
		t.Fatalf("expected hub fee 32.50, got %s", got.HubFee)
	}
	if !got.FarmerAmount.Equal(d("552.50")) {
		t.Fatalf("expected farmer amount 552.50, got %s", got.FarmerAmount)
	}
}

func TestSplitProceedsConservesTotal(t *testing.T) {
	totals := []string{"0.01", "0.03", "99.99", "650.00", "1234.56", "100000.01"}
	for _, raw := range totals {
		total := d(raw)
		got, err := SplitProceeds(total, d("0.10"), d("0.05"))
		if err != nil {
			t.Fatalf("split %s: %v", raw, err)
		}
		sum := got.SystemFee.Add(got.HubFee).Add(got.FarmerAmount)
		if !sum.Equal(total) {
			t.Fatalf("split of %s does not conserve total: %s + %s + %s = %s",
				total, got.SystemFee, got.HubFee, got.FarmerAmount, sum)
		}
	}
}

func TestSplitProceedsRejectsNonPositive(t *testing.T) {
	for _, raw := range []string{"0", "-1"} {
		_, err := SplitProceeds(d(raw), d("0.10"), d("0.05"))
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for total %s, got %v", raw, err)
		}
	}
}

func TestSplitDirect(t *testing.T) {
	got, err := SplitDirect(d("10000.00"), d("0.10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.HubFee.Equal(d("1000.00")) {
		t.Fatalf("expected hub fee 1000.00, got %s", got.HubFee)
	}
	if !got.FarmerAmount.Equal(d("9000.00")) {
		t.Fatalf("expected farmer amount 9000.00, got %s", got.FarmerAmount)
	}
	if !got.SystemFee.IsZero() {
		t.Fatalf("direct sales carry no system fee, got %s", got.SystemFee)
	}
}

func TestAllocateAcrossSumsExactly(t *testing.T) {
	amount := d("100.00")
	weights := []decimal.Decimal{d("1"), d("1"), d("1")}
	shares, err := AllocateAcross(amount, weights)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shares) != 3 {
		t.Fatalf("expected 3 shares, got %d", len(shares))
	}
	sum := decimal.Zero
	for _, share := range shares {
		sum = sum.Add(share)
	}
	if !sum.Equal(amount) {
		t.Fatalf("shares sum to %s, want %s", sum, amount)
	}
	if !shares[0].Equal(d("33.33")) || !shares[1].Equal(d("33.33")) {
		t.Fatalf("unexpected leading shares %s, %s", shares[0], shares[1])
	}
	if !shares[2].Equal(d("33.34")) {
		t.Fatalf("last share should absorb the remainder, got %s", shares[2])
	}
}

func TestAllocateAcrossProportional(t *testing.T) {
	shares, err := AllocateAcross(d("552.50"), []decimal.Decimal{d("400.00"), d("250.00")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !shares[0].Equal(d("340.00")) {
		t.Fatalf("expected first share 340.00, got %s", shares[0])
	}
	if !shares[1].Equal(d("212.50")) {
		t.Fatalf("expected second share 212.50, got %s", shares[1])
	}
}

func TestAllocateAcrossValidation(t *testing.T) {
	if _, err := AllocateAcross(d("10.00"), nil); err == nil {
		t.Fatal("expected error for empty weights")
	}
	if _, err := AllocateAcross(d("10.00"), []decimal.Decimal{d("0")}); err == nil {
		t.Fatal("expected error for zero weight")
	}
	if _, err := AllocateAcross(d("-1.00"), []decimal.Decimal{d("1")}); err == nil {
		t.Fatal("expected error for negative amount")
	}
}
