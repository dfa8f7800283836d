package discount

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DiscountClass categorises which kind of discount a configuration may apply.
type DiscountClass string

const (
	ClassOrder    DiscountClass = "ORDER"
	ClassProduct  DiscountClass = "PRODUCT"
	ClassShipping DiscountClass = "SHIPPING"
)

// SelectionStrategy tells the host how to pick among candidates.
type SelectionStrategy string

// SelectionFirst instructs the host to apply the first eligible candidate.
const SelectionFirst SelectionStrategy = "FIRST"

// Decimal is a decimal number carried as a JSON string on the host wire
// format. Bare JSON numbers are accepted on input for convenience.
type Decimal float64

// MarshalJSON renders the value as a quoted decimal string with minimal digits.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatFloat(float64(d), 'f', -1, 64))
}

// UnmarshalJSON accepts either a quoted decimal string or a bare number.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse decimal %q: %w", s, err)
		}
		*d = Decimal(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*d = Decimal(v)
	return nil
}

// MoneyAmount holds a monetary value.
type MoneyAmount struct {
	Amount Decimal `json:"amount"`
}

// LineCost carries the cost breakdown of a cart line.
type LineCost struct {
	SubtotalAmount MoneyAmount `json:"subtotalAmount"`
}

// CartLine is one item entry in a shopping cart.
type CartLine struct {
	ID       string   `json:"id"`
	Quantity int      `json:"quantity"`
	Cost     LineCost `json:"cost"`
}

// Cart is an ordered sequence of lines.
type Cart struct {
	Lines []CartLine `json:"lines"`
}

// Metafield holds the free-form configuration value attached to a discount.
type Metafield struct {
	Value string `json:"value"`
}

// Context describes the discount configuration under evaluation.
type Context struct {
	DiscountClasses []DiscountClass `json:"discountClasses"`
	Metafield       *Metafield      `json:"metafield"`
}

// HasClass reports whether the given class is active on the configuration.
func (c Context) HasClass(class DiscountClass) bool {
	for _, dc := range c.DiscountClasses {
		if dc == class {
			return true
		}
	}
	return false
}

// Input is the full payload the host hands to a cart run.
type Input struct {
	Cart     Cart    `json:"cart"`
	Discount Context `json:"discount"`
}

// Percentage wraps a percentage discount value.
type Percentage struct {
	Value Decimal `json:"value"`
}

// Value is the discount value offered by a candidate.
type Value struct {
	Percentage *Percentage `json:"percentage,omitempty"`
}

// OrderSubtotalTarget targets the order subtotal minus any excluded lines.
type OrderSubtotalTarget struct {
	ExcludedCartLineIDs []string `json:"excludedCartLineIds"`
}

// OrderTarget is the tagged target union for order discount candidates.
type OrderTarget struct {
	OrderSubtotal *OrderSubtotalTarget `json:"orderSubtotal,omitempty"`
}

// OrderCandidate proposes an order-level discount to the host.
type OrderCandidate struct {
	Targets []OrderTarget `json:"targets"`
	Value   Value         `json:"value"`
	Message string        `json:"message,omitempty"`
}

// OrderDiscountsAdd adds order-level discount candidates.
type OrderDiscountsAdd struct {
	SelectionStrategy SelectionStrategy `json:"selectionStrategy"`
	Candidates        []OrderCandidate  `json:"candidates"`
}

// CartLineTarget targets a single cart line, optionally capped at a quantity.
type CartLineTarget struct {
	ID       string `json:"id"`
	Quantity *int   `json:"quantity,omitempty"`
}

// ProductTarget is the tagged target union for product discount candidates.
type ProductTarget struct {
	CartLine *CartLineTarget `json:"cartLine,omitempty"`
}

// ProductCandidate proposes a product-level discount to the host.
type ProductCandidate struct {
	Targets []ProductTarget `json:"targets"`
	Value   Value           `json:"value"`
	Message string          `json:"message,omitempty"`
}

// ProductDiscountsAdd adds product-level discount candidates.
type ProductDiscountsAdd struct {
	SelectionStrategy SelectionStrategy  `json:"selectionStrategy"`
	Candidates        []ProductCandidate `json:"candidates"`
}

// Operation is a tagged variant; exactly one branch is set.
type Operation struct {
	OrderDiscountsAdd   *OrderDiscountsAdd   `json:"orderDiscountsAdd,omitempty"`
	ProductDiscountsAdd *ProductDiscountsAdd `json:"productDiscountsAdd,omitempty"`
}

// Result is the ordered list of operations produced by a run.
type Result struct {
	Operations []Operation `json:"operations"`
}
