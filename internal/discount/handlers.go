package discount

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/discount-engine/internal/common"
	"github.com/noah-isme/discount-engine/internal/obs"
)

// Resolver looks up a stored discount configuration by id. The boolean
// reports whether the configuration exists.
type Resolver interface {
	Resolve(ctx context.Context, id string) (Context, bool, error)
}

// Handler exposes the cart run evaluation endpoints.
type Handler struct {
	Engine   Engine
	Resolver Resolver
}

// Run evaluates the discount configuration supplied inline with the cart.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		countRun("bad_request")
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	h.evaluate(w, in)
}

// RunByID evaluates a registered discount configuration against the posted cart.
func (h *Handler) RunByID(w http.ResponseWriter, r *http.Request) {
	if h.Resolver == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount resolver not configured", nil)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id is required", nil)
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		countRun("bad_request")
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	dctx, ok, err := h.Resolver.Resolve(r.Context(), id)
	if err != nil {
		countRun("resolver_error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to resolve discount", nil)
		return
	}
	if !ok {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "discount not found", nil)
		return
	}
	in.Discount = dctx
	h.evaluate(w, in)
}

func (h *Handler) evaluate(w http.ResponseWriter, in Input) {
	result, err := h.Engine.GenerateCartRun(in)
	if err != nil {
		if errors.Is(err, ErrNoCartLines) {
			countRun("no_cart_lines")
			common.JSONError(w, http.StatusUnprocessableEntity, "NO_CART_LINES", err.Error(), nil)
			return
		}
		countRun("error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to evaluate discount", nil)
		return
	}
	if len(result.Operations) == 0 {
		countRun("empty")
	} else {
		countRun("ok")
	}
	for _, op := range result.Operations {
		if op.OrderDiscountsAdd != nil {
			countOperation("order")
		}
		if op.ProductDiscountsAdd != nil {
			countOperation("product")
		}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

func countRun(result string) {
	if obs.DiscountRunTotal != nil {
		obs.DiscountRunTotal.WithLabelValues(result).Inc()
	}
}

func countOperation(class string) {
	if obs.DiscountOperationsTotal != nil {
		obs.DiscountOperationsTotal.WithLabelValues(class).Inc()
	}
}
