package registry

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/discount-engine/internal/common"
	"github.com/noah-isme/discount-engine/internal/discount"
)

// Handler exposes administrative discount definition endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type definitionPayload struct {
	Title           string   `json:"title" validate:"required"`
	Classes         []string `json:"classes" validate:"required,min=1,dive,oneof=ORDER PRODUCT SHIPPING"`
	PercentageValue *string  `json:"percentageValue" validate:"omitempty,numeric"`
}

// Create registers a new discount definition.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "registry service not configured", nil)
		return
	}
	params, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	def, err := h.Svc.Create(r.Context(), params)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "discount title already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create discount", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": def})
}

// Get returns a single definition by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "registry service not configured", nil)
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	def, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "discount not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load discount", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": def})
}

// List returns stored definitions with limit/offset pagination.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "registry service not configured", nil)
		return
	}
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 20)
	offset := common.AtoiDefault(r.URL.Query().Get("offset"), 0)
	defs, err := h.Svc.List(r.Context(), limit, offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list discounts", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": defs})
}

// Update replaces a definition identified by id.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "registry service not configured", nil)
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	params, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	def, err := h.Svc.Update(r.Context(), id, params)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "discount not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update discount", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": def})
}

func (h *Handler) decodePayload(w http.ResponseWriter, r *http.Request) (DefinitionParams, bool) {
	var payload definitionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return DefinitionParams{}, false
	}
	payload.Title = strings.TrimSpace(payload.Title)
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return DefinitionParams{}, false
		}
	}
	classes := make([]discount.DiscountClass, 0, len(payload.Classes))
	for _, c := range payload.Classes {
		classes = append(classes, discount.DiscountClass(c))
	}
	return DefinitionParams{
		Title:           payload.Title,
		Classes:         classes,
		PercentageValue: payload.PercentageValue,
	}, true
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid discount id", nil)
		return uuid.UUID{}, false
	}
	return id, true
}
