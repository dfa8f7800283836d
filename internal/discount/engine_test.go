package discount

import (
	"errors"
	"math"
	"testing"
)

func twoLineCart() Cart {
	return Cart{Lines: []CartLine{
		{ID: "gid://shop/CartLine/A", Quantity: 1, Cost: LineCost{SubtotalAmount: MoneyAmount{Amount: 5}}},
		{ID: "gid://shop/CartLine/B", Quantity: 2, Cost: LineCost{SubtotalAmount: MoneyAmount{Amount: 20}}},
	}}
}

func TestGenerateCartRunNoClasses(t *testing.T) {
	result, err := Engine{}.GenerateCartRun(Input{Cart: twoLineCart()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Operations) != 0 {
		t.Fatalf("expected no operations, got %d", len(result.Operations))
	}
}

func TestGenerateCartRunEmptyCart(t *testing.T) {
	in := Input{Discount: Context{DiscountClasses: []DiscountClass{ClassOrder}}}
	_, err := Engine{}.GenerateCartRun(in)
	if !errors.Is(err, ErrNoCartLines) {
		t.Fatalf("expected ErrNoCartLines, got %v", err)
	}
}

func TestGenerateCartRunOrderOnlyDefault(t *testing.T) {
	in := Input{
		Cart:     twoLineCart(),
		Discount: Context{DiscountClasses: []DiscountClass{ClassOrder}},
	}
	result, err := Engine{}.GenerateCartRun(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Operations) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(result.Operations))
	}
	op := result.Operations[0].OrderDiscountsAdd
	if op == nil {
		t.Fatal("expected an order discount operation")
	}
	if op.SelectionStrategy != SelectionFirst {
		t.Fatalf("unexpected selection strategy %q", op.SelectionStrategy)
	}
	if len(op.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(op.Candidates))
	}
	cand := op.Candidates[0]
	if cand.Message != "10% OFF ORDER" {
		t.Fatalf("unexpected message %q", cand.Message)
	}
	if got := float64(cand.Value.Percentage.Value); got != 10 {
		t.Fatalf("expected percentage 10, got %v", got)
	}
	if len(cand.Targets) != 1 || cand.Targets[0].OrderSubtotal == nil {
		t.Fatalf("expected a single order subtotal target, got %#v", cand.Targets)
	}
	if got := cand.Targets[0].OrderSubtotal.ExcludedCartLineIDs; len(got) != 0 {
		t.Fatalf("expected no excluded lines, got %v", got)
	}
}

func TestGenerateCartRunProductOnlyTargetsMaxLine(t *testing.T) {
	in := Input{
		Cart:     twoLineCart(),
		Discount: Context{DiscountClasses: []DiscountClass{ClassProduct}},
	}
	result, err := Engine{}.GenerateCartRun(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Operations) != 1 {
		t.Fatalf("expected 1 operation, got %d", len(result.Operations))
	}
	op := result.Operations[0].ProductDiscountsAdd
	if op == nil {
		t.Fatal("expected a product discount operation")
	}
	cand := op.Candidates[0]
	if cand.Message != "20% OFF PRODUCT" {
		t.Fatalf("unexpected message %q", cand.Message)
	}
	if got := float64(cand.Value.Percentage.Value); got != 20 {
		t.Fatalf("expected percentage 20, got %v", got)
	}
	target := cand.Targets[0].CartLine
	if target == nil || target.ID != "gid://shop/CartLine/B" {
		t.Fatalf("expected target on line B, got %#v", target)
	}
	if target.Quantity != nil {
		t.Fatalf("expected no quantity cap, got %v", *target.Quantity)
	}
}

func TestGenerateCartRunBothClassesWithOverride(t *testing.T) {
	in := Input{
		Cart: twoLineCart(),
		Discount: Context{
			DiscountClasses: []DiscountClass{ClassOrder, ClassProduct},
			Metafield:       &Metafield{Value: "15"},
		},
	}
	result, err := Engine{}.GenerateCartRun(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Operations) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(result.Operations))
	}
	order := result.Operations[0].OrderDiscountsAdd
	product := result.Operations[1].ProductDiscountsAdd
	if order == nil || product == nil {
		t.Fatalf("expected order then product operations, got %#v", result.Operations)
	}
	if order.Candidates[0].Message != "15% OFF ORDER" {
		t.Fatalf("unexpected order message %q", order.Candidates[0].Message)
	}
	if product.Candidates[0].Message != "30% OFF PRODUCT" {
		t.Fatalf("unexpected product message %q", product.Candidates[0].Message)
	}
	if got := float64(product.Candidates[0].Value.Percentage.Value); got != 30 {
		t.Fatalf("expected doubled percentage 30, got %v", got)
	}
}

func TestGenerateCartRunUnparsableOverrideFallsBack(t *testing.T) {
	in := Input{
		Cart: twoLineCart(),
		Discount: Context{
			DiscountClasses: []DiscountClass{ClassOrder},
			Metafield:       &Metafield{Value: "abc"},
		},
	}
	result, err := Engine{}.GenerateCartRun(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg := result.Operations[0].OrderDiscountsAdd.Candidates[0].Message; msg != "10% OFF ORDER" {
		t.Fatalf("expected fallback message, got %q", msg)
	}
}

func TestGenerateCartRunFractionalOverride(t *testing.T) {
	in := Input{
		Cart: twoLineCart(),
		Discount: Context{
			DiscountClasses: []DiscountClass{ClassOrder, ClassProduct},
			Metafield:       &Metafield{Value: "12.5"},
		},
	}
	result, err := Engine{}.GenerateCartRun(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg := result.Operations[0].OrderDiscountsAdd.Candidates[0].Message; msg != "12.5% OFF ORDER" {
		t.Fatalf("unexpected order message %q", msg)
	}
	if msg := result.Operations[1].ProductDiscountsAdd.Candidates[0].Message; msg != "25% OFF PRODUCT" {
		t.Fatalf("unexpected product message %q", msg)
	}
}

func TestGenerateCartRunConfiguredFallback(t *testing.T) {
	in := Input{
		Cart:     twoLineCart(),
		Discount: Context{DiscountClasses: []DiscountClass{ClassOrder}},
	}
	result, err := Engine{DefaultPercentage: 5}.GenerateCartRun(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg := result.Operations[0].OrderDiscountsAdd.Candidates[0].Message; msg != "5% OFF ORDER" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestMaxSubtotalLineTieKeepsFirst(t *testing.T) {
	lines := []CartLine{
		{ID: "first", Cost: LineCost{SubtotalAmount: MoneyAmount{Amount: 20}}},
		{ID: "second", Cost: LineCost{SubtotalAmount: MoneyAmount{Amount: 20}}},
	}
	line, err := maxSubtotalLine(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.ID != "first" {
		t.Fatalf("expected first line on tie, got %q", line.ID)
	}
}

func TestMaxSubtotalLineNaNNeverWins(t *testing.T) {
	lines := []CartLine{
		{ID: "a", Cost: LineCost{SubtotalAmount: MoneyAmount{Amount: 5}}},
		{ID: "nan", Cost: LineCost{SubtotalAmount: MoneyAmount{Amount: Decimal(math.NaN())}}},
		{ID: "b", Cost: LineCost{SubtotalAmount: MoneyAmount{Amount: 7}}},
	}
	line, err := maxSubtotalLine(lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.ID != "b" {
		t.Fatalf("expected line b, got %q", line.ID)
	}
}
