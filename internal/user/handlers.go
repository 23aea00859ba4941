package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-rateio/internal/common"
)

// Handler wires the user service to HTTP.
type Handler struct {
	Service *Service
}

// Get handles GET /api/v1/users/{userId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := common.PrincipalFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	u, err := h.Service.GetByID(r.Context(), actor, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": u})
}

// List handles GET /api/v1/users. Admin only; the router enforces the role.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	total := len(users)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       users[start:end],
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: total},
	})
}

// Update handles PUT /api/v1/users/{userId}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := common.PrincipalFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	var input UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	u, err := h.Service.Update(r.Context(), actor, id, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": u})
}

// Delete handles DELETE /api/v1/users/{userId}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := common.PrincipalFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	if err := h.Service.Delete(r.Context(), actor, id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
	case errors.Is(err, ErrDuplicate):
		common.JSONError(w, http.StatusConflict, "CONFLICT", "username or email already registered", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
	}
}
