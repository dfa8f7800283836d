package discount

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrNoCartLines is returned when the cart contains no lines.
var ErrNoCartLines = errors.New("no cart lines found")

// DefaultPercentage applies when the configuration carries no usable override.
const DefaultPercentage = 10.0

// Engine evaluates a discount configuration against a cart. The zero value is
// ready to use.
type Engine struct {
	// DefaultPercentage overrides the built-in fallback when positive.
	DefaultPercentage float64
}

func (e Engine) fallbackPercentage() float64 {
	if e.DefaultPercentage > 0 {
		return e.DefaultPercentage
	}
	return DefaultPercentage
}

// GenerateCartRun produces the discount operations for the given input. It is
// a pure transform: the only failure mode is an empty cart.
func (e Engine) GenerateCartRun(in Input) (Result, error) {
	maxLine, err := maxSubtotalLine(in.Cart.Lines)
	if err != nil {
		return Result{}, err
	}

	hasOrder := in.Discount.HasClass(ClassOrder)
	hasProduct := in.Discount.HasClass(ClassProduct)
	if !hasOrder && !hasProduct {
		return Result{Operations: []Operation{}}, nil
	}

	percentage := e.fallbackPercentage()
	if mf := in.Discount.Metafield; mf != nil {
		if parsed, err := strconv.ParseFloat(mf.Value, 64); err == nil {
			percentage = parsed
		}
	}

	var ops []Operation
	if hasOrder {
		ops = append(ops, Operation{OrderDiscountsAdd: &OrderDiscountsAdd{
			SelectionStrategy: SelectionFirst,
			Candidates: []OrderCandidate{{
				Targets: []OrderTarget{{OrderSubtotal: &OrderSubtotalTarget{
					ExcludedCartLineIDs: []string{},
				}}},
				Value:   Value{Percentage: &Percentage{Value: Decimal(percentage)}},
				Message: fmt.Sprintf("%s%% OFF ORDER", formatPercentage(percentage)),
			}},
		}})
	}
	if hasProduct {
		doubled := percentage * 2
		ops = append(ops, Operation{ProductDiscountsAdd: &ProductDiscountsAdd{
			SelectionStrategy: SelectionFirst,
			Candidates: []ProductCandidate{{
				Targets: []ProductTarget{{CartLine: &CartLineTarget{ID: maxLine.ID}}},
				Value:   Value{Percentage: &Percentage{Value: Decimal(doubled)}},
				Message: fmt.Sprintf("%s%% OFF PRODUCT", formatPercentage(doubled)),
			}},
		}})
	}
	return Result{Operations: ops}, nil
}

// maxSubtotalLine picks the line with the highest subtotal. Comparisons
// against NaN are never greater, so the first encountered maximum wins ties
// and incomparable values alike.
func maxSubtotalLine(lines []CartLine) (CartLine, error) {
	if len(lines) == 0 {
		return CartLine{}, ErrNoCartLines
	}
	best := lines[0]
	for _, line := range lines[1:] {
		if line.Cost.SubtotalAmount.Amount > best.Cost.SubtotalAmount.Amount {
			best = line
		}
	}
	return best, nil
}

func formatPercentage(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
