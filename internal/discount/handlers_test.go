package discount_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/discount-engine/internal/discount"
)

type stubResolver struct {
	ctx   discount.Context
	found bool
	err   error
}

func (s stubResolver) Resolve(_ context.Context, _ string) (discount.Context, bool, error) {
	return s.ctx, s.found, s.err
}

type runResponse struct {
	Data discount.Result `json:"data"`
}

func newRouter(h *discount.Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/discounts/run", h.Run)
	r.Post("/discounts/{id}/run", h.RunByID)
	return r
}

const cartBody = `{
  "cart": {"lines": [
    {"id": "gid://shop/CartLine/A", "quantity": 1, "cost": {"subtotalAmount": {"amount": "5.00"}}},
    {"id": "gid://shop/CartLine/B", "quantity": 2, "cost": {"subtotalAmount": {"amount": "20.00"}}}
  ]},
  "discount": {"discountClasses": ["ORDER", "PRODUCT"], "metafield": {"value": "15"}}
}`

func TestRunBothClasses(t *testing.T) {
	router := newRouter(&discount.Handler{})

	req := httptest.NewRequest(http.MethodPost, "/discounts/run", strings.NewReader(cartBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp runResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Operations, 2)

	order := resp.Data.Operations[0].OrderDiscountsAdd
	require.NotNil(t, order)
	require.Equal(t, "15% OFF ORDER", order.Candidates[0].Message)

	product := resp.Data.Operations[1].ProductDiscountsAdd
	require.NotNil(t, product)
	require.Equal(t, "30% OFF PRODUCT", product.Candidates[0].Message)
	require.Equal(t, "gid://shop/CartLine/B", product.Candidates[0].Targets[0].CartLine.ID)
}

func TestRunEmptyCart(t *testing.T) {
	router := newRouter(&discount.Handler{})

	body := `{"cart": {"lines": []}, "discount": {"discountClasses": ["ORDER"]}}`
	req := httptest.NewRequest(http.MethodPost, "/discounts/run", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "NO_CART_LINES")
}

func TestRunMalformedBody(t *testing.T) {
	router := newRouter(&discount.Handler{})

	req := httptest.NewRequest(http.MethodPost, "/discounts/run", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunByIDUsesStoredContext(t *testing.T) {
	resolver := stubResolver{
		ctx: discount.Context{
			DiscountClasses: []discount.DiscountClass{discount.ClassProduct},
			Metafield:       &discount.Metafield{Value: "25"},
		},
		found: true,
	}
	router := newRouter(&discount.Handler{Resolver: resolver})

	req := httptest.NewRequest(http.MethodPost, "/discounts/6c1a/run", strings.NewReader(cartBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp runResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Operations, 1)
	product := resp.Data.Operations[0].ProductDiscountsAdd
	require.NotNil(t, product)
	require.Equal(t, "50% OFF PRODUCT", product.Candidates[0].Message)
}

func TestRunByIDNotFound(t *testing.T) {
	router := newRouter(&discount.Handler{Resolver: stubResolver{}})

	req := httptest.NewRequest(http.MethodPost, "/discounts/missing/run", strings.NewReader(cartBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunByIDResolverError(t *testing.T) {
	router := newRouter(&discount.Handler{Resolver: stubResolver{err: errors.New("boom")}})

	req := httptest.NewRequest(http.MethodPost, "/discounts/6c1a/run", strings.NewReader(cartBody))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
