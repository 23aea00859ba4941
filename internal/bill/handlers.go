package bill

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-rateio/internal/common"
	"github.com/noah-isme/backend-rateio/internal/money"
)

// Handler exposes the bill endpoints.
type Handler struct {
	Service *Service
}

type createBillRequest struct {
	Establishment string `json:"establishment"`
	Date          string `json:"date"`
}

type setImageRequest struct {
	ImageURL string `json:"image_url"`
}

type addItemRequest struct {
	Friend      string `json:"friend"`
	Description string `json:"description"`
	Value       string `json:"value"`
}

type splitAllocationRequest struct {
	Friend      string `json:"friend"`
	Description string `json:"description"`
	Value       string `json:"value"`
}

type addSplitRequest struct {
	Description string                   `json:"description"`
	Allocations []splitAllocationRequest `json:"allocations"`
}

type billResponse struct {
	ID            uuid.UUID  `json:"id"`
	OwnerID       *uuid.UUID `json:"owner_id"`
	Establishment string     `json:"establishment"`
	Date          time.Time  `json:"date"`
	Total         string     `json:"total"`
	Status        Status     `json:"status"`
	ImageURL      string     `json:"image_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type itemResponse struct {
	ID           uuid.UUID  `json:"id"`
	BillID       uuid.UUID  `json:"bill_id"`
	SplitGroupID *uuid.UUID `json:"split_group_id,omitempty"`
	Friend       string     `json:"friend"`
	Description  string     `json:"description"`
	Value        string     `json:"value"`
	CreatedAt    time.Time  `json:"created_at"`
}

type friendShareResponse struct {
	Friend string `json:"friend"`
	Base   string `json:"base"`
	Tax    string `json:"tax"`
	Total  string `json:"total"`
	Items  int    `json:"items"`
}

type summaryResponse struct {
	BillID        uuid.UUID             `json:"bill_id"`
	OwnerID       uuid.UUID             `json:"owner_id"`
	Establishment string                `json:"establishment"`
	Date          time.Time             `json:"date"`
	Status        Status                `json:"status"`
	Base          string                `json:"base"`
	Tax           string                `json:"tax"`
	Total         string                `json:"total"`
	Friends       []friendShareResponse `json:"friends"`
}

type consumptionResponse struct {
	BillID uuid.UUID      `json:"bill_id"`
	Friend string         `json:"friend"`
	Base   string         `json:"base"`
	Tax    string         `json:"tax"`
	Total  string         `json:"total"`
	Items  []itemResponse `json:"items"`
}

func renderBill(b Bill) billResponse {
	return billResponse{
		ID:            b.ID,
		OwnerID:       b.OwnerID,
		Establishment: b.Establishment,
		Date:          b.Date,
		Total:         money.Format(b.Total),
		Status:        b.Status,
		ImageURL:      b.ImageURL,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func renderBills(bills []Bill) []billResponse {
	out := make([]billResponse, 0, len(bills))
	for _, b := range bills {
		out = append(out, renderBill(b))
	}
	return out
}

func renderItem(it Item) itemResponse {
	return itemResponse{
		ID:           it.ID,
		BillID:       it.BillID,
		SplitGroupID: it.SplitGroupID,
		Friend:       it.Friend,
		Description:  it.Description,
		Value:        money.Format(it.Value),
		CreatedAt:    it.CreatedAt,
	}
}

func renderItems(items []Item) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, renderItem(it))
	}
	return out
}

func renderSummary(s Summary) summaryResponse {
	friends := make([]friendShareResponse, 0, len(s.Friends))
	for _, f := range s.Friends {
		friends = append(friends, friendShareResponse{
			Friend: f.Friend,
			Base:   money.Format(f.Base),
			Tax:    money.Format(f.Tax),
			Total:  money.Format(f.Total),
			Items:  f.Items,
		})
	}
	return summaryResponse{
		BillID:        s.BillID,
		OwnerID:       s.OwnerID,
		Establishment: s.Establishment,
		Date:          s.Date,
		Status:        s.Status,
		Base:          money.Format(s.Base),
		Tax:           money.Format(s.Tax),
		Total:         money.Format(s.Total),
		Friends:       friends,
	}
}

func renderConsumption(c Consumption) consumptionResponse {
	return consumptionResponse{
		BillID: c.BillID,
		Friend: c.Friend,
		Base:   money.Format(c.Base),
		Tax:    money.Format(c.Tax),
		Total:  money.Format(c.Total),
		Items:  renderItems(c.Items),
	}
}

// Create handles POST /api/v1/bills.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := common.PrincipalFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	var req createBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	input := CreateInput{Establishment: req.Establishment}
	if req.Date != "" {
		date, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			if date, err = time.Parse("2006-01-02", req.Date); err != nil {
				common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid date", nil)
				return
			}
		}
		input.Date = date
	}
	created, err := h.Service.Create(r.Context(), principal, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": renderBill(created)})
}

// List handles GET /api/v1/bills. Admin only; the router enforces the role.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	bills, err := h.Service.ListAll(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	total := len(bills)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       renderBills(bills[start:end]),
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: total},
	})
}

// ListByOwner handles GET /api/v1/users/{userId}/bills.
func (h *Handler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	principal, ok := common.PrincipalFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	owner, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	bills, err := h.Service.ListByOwner(r.Context(), principal, owner)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": renderBills(bills)})
}

// Get handles GET /api/v1/bills/{billId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.withBill(w, r, func(principal common.Principal, billID uuid.UUID) {
		b, err := h.Service.GetByID(r.Context(), principal, billID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": renderBill(b)})
	})
}

// Delete handles DELETE /api/v1/bills/{billId}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.withBill(w, r, func(principal common.Principal, billID uuid.UUID) {
		removed, err := h.Service.Delete(r.Context(), principal, billID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": renderBill(removed)})
	})
}

// Finish handles PUT /api/v1/bills/{billId}/finish.
func (h *Handler) Finish(w http.ResponseWriter, r *http.Request) {
	h.withBill(w, r, func(principal common.Principal, billID uuid.UUID) {
		b, err := h.Service.Finish(r.Context(), principal, billID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": renderBill(b)})
	})
}

// SetImage handles PUT /api/v1/bills/{billId}/image.
func (h *Handler) SetImage(w http.ResponseWriter, r *http.Request) {
	h.withBill(w, r, func(principal common.Principal, billID uuid.UUID) {
		var req setImageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
			return
		}
		b, err := h.Service.SetReceiptImage(r.Context(), principal, billID, req.ImageURL)
		if err != nil {
			h.writeError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": renderBill(b)})
	})
}

// AddItem handles POST /api/v1/bills/{billId}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	h.withBill(w, r, func(principal common.Principal, billID uuid.UUID) {
		var req addItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
			return
		}
		value, err := money.Parse(req.Value)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item value", nil)
			return
		}
		item, err := h.Service.AddItem(r.Context(), principal, billID, ItemInput{
			Friend:      req.Friend,
			Description: req.Description,
			Value:       value,
		})
		if err != nil {
			h.writeError(w, err)
			return
		}
		common.JSON(w, http.StatusCreated, map[string]any{"data": renderItem(item)})
	})
}

// AddSplit handles POST /api/v1/bills/{billId}/items/split.
func (h *Handler) AddSplit(w http.ResponseWriter, r *http.Request) {
	h.withBill(w, r, func(principal common.Principal, billID uuid.UUID) {
		var req addSplitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
			return
		}
		allocations := make([]Allocation, 0, len(req.Allocations))
		for _, alloc := range req.Allocations {
			value, err := money.Parse(alloc.Value)
			if err != nil {
				common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid allocation value", nil)
				return
			}
			allocations = append(allocations, Allocation{
				Friend:      alloc.Friend,
				Description: alloc.Description,
				Value:       value,
			})
		}
		items, err := h.Service.AddSplitItems(r.Context(), principal, billID, req.Description, allocations)
		if err != nil {
			h.writeError(w, err)
			return
		}
		common.JSON(w, http.StatusCreated, map[string]any{"data": renderItems(items)})
	})
}

// ListItems handles GET /api/v1/bills/{billId}/items.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	h.withBill(w, r, func(principal common.Principal, billID uuid.UUID) {
		items, err := h.Service.Items(r.Context(), principal, billID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": renderItems(items)})
	})
}

// GetItem handles GET /api/v1/bills/{billId}/items/{itemId}.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	h.withItem(w, r, func(principal common.Principal, billID, itemID uuid.UUID) {
		item, err := h.Service.ItemByID(r.Context(), principal, billID, itemID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": renderItem(item)})
	})
}

// RemoveItem handles DELETE /api/v1/bills/{billId}/items/{itemId}.
//
// With ?split=true the whole batch the item was created with is removed.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.withItem(w, r, func(principal common.Principal, billID, itemID uuid.UUID) {
		if r.URL.Query().Get("split") == "true" {
			removed, err := h.Service.RemoveSplitItems(r.Context(), principal, billID, itemID)
			if err != nil {
				h.writeError(w, err)
				return
			}
			common.JSON(w, http.StatusOK, map[string]any{"data": renderItems(removed)})
			return
		}
		removed, err := h.Service.RemoveItem(r.Context(), principal, billID, itemID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": renderItem(removed)})
	})
}

// Calculate handles GET /api/v1/bills/{billId}/calculate.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	h.withBill(w, r, func(principal common.Principal, billID uuid.UUID) {
		summary, err := h.Service.Calculate(r.Context(), principal, billID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": renderSummary(summary)})
	})
}

// Consumption handles GET /api/v1/bills/{billId}/consumption?friend=.
func (h *Handler) Consumption(w http.ResponseWriter, r *http.Request) {
	h.withBill(w, r, func(principal common.Principal, billID uuid.UUID) {
		friend := r.URL.Query().Get("friend")
		if friend == "" {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "friend query parameter is required", nil)
			return
		}
		consumption, err := h.Service.FriendConsumption(r.Context(), principal, billID, friend)
		if err != nil {
			h.writeError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": renderConsumption(consumption)})
	})
}

func (h *Handler) withBill(w http.ResponseWriter, r *http.Request, fn func(principal common.Principal, billID uuid.UUID)) {
	principal, ok := common.PrincipalFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	billID, err := uuid.Parse(chi.URLParam(r, "billId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid bill id", nil)
		return
	}
	fn(principal, billID)
}

func (h *Handler) withItem(w http.ResponseWriter, r *http.Request, fn func(principal common.Principal, billID, itemID uuid.UUID)) {
	h.withBill(w, r, func(principal common.Principal, billID uuid.UUID) {
		itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid item id", nil)
			return
		}
		fn(principal, billID, itemID)
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "bill not found", nil)
	case errors.Is(err, ErrItemNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "item not found", nil)
	case errors.Is(err, ErrForbidden):
		common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "not authorized for this bill", nil)
	case errors.Is(err, ErrInvalidAllocation):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid split allocation", nil)
	case errors.Is(err, ErrNoOwner):
		common.JSONError(w, http.StatusUnprocessableEntity, "UNPROCESSABLE", "bill has no owner", nil)
	case errors.Is(err, money.ErrInvalidAmount):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid amount", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
	}
}
