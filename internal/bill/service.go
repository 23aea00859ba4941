package bill

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-rateio/internal/common"
	"github.com/noah-isme/backend-rateio/internal/money"
	"github.com/noah-isme/backend-rateio/internal/obs"
	"github.com/noah-isme/backend-rateio/internal/user"
)

// Service encapsulates bill domain operations.
type Service struct {
	Store Store
	Cache *Cache
	Now   func() time.Time
}

// CreateInput captures the payload for opening a new bill.
type CreateInput struct {
	Establishment string
	Date          time.Time
}

// ItemInput captures the payload for a single charge line.
type ItemInput struct {
	Friend      string
	Description string
	Value       money.Money
}

// Allocation is one entry of a split batch: a friend and their share.
type Allocation struct {
	Friend      string
	Description string
	Value       money.Money
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create opens a new bill owned by the acting user, with status OPEN and a
// zero total.
func (s *Service) Create(ctx context.Context, actor common.Principal, input CreateInput) (Bill, error) {
	owner, err := uuid.Parse(actor.ID)
	if err != nil {
		return Bill{}, errors.New("bill: invalid acting user id")
	}
	establishment := strings.TrimSpace(input.Establishment)
	if establishment == "" {
		return Bill{}, common.NewAppError("VALIDATION_ERROR", "establishment is required", 400, nil)
	}
	date := input.Date
	if date.IsZero() {
		date = s.now()
	}
	now := s.now()
	b := Bill{
		ID:            uuid.New(),
		OwnerID:       &owner,
		Establishment: establishment,
		Date:          date,
		Total:         0,
		Status:        StatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created, err := s.Store.CreateBill(ctx, b)
	if err != nil {
		return Bill{}, err
	}
	if obs.BillsCreatedTotal != nil {
		obs.BillsCreatedTotal.Inc()
	}
	return created, nil
}

// GetByID resolves a bill after passing the ownership gate.
func (s *Service) GetByID(ctx context.Context, actor common.Principal, id uuid.UUID) (Bill, error) {
	b, resolved, err := s.authorize(ctx, actor, id)
	if err != nil {
		return Bill{}, err
	}
	if resolved {
		return b, nil
	}
	return s.Store.GetBill(ctx, id)
}

// ListAll returns every bill. Admin use only; the router enforces the role.
func (s *Service) ListAll(ctx context.Context) ([]Bill, error) {
	return s.Store.ListBills(ctx)
}

// ListByOwner returns the bills owned by the given user. Non-admin actors may
// only list their own bills.
func (s *Service) ListByOwner(ctx context.Context, actor common.Principal, owner uuid.UUID) ([]Bill, error) {
	if actor.Role != string(user.RoleAdmin) && actor.ID != owner.String() {
		return nil, ErrForbidden
	}
	return s.Store.ListBillsByOwner(ctx, owner)
}

// Finish transitions the bill to FINISHED. The transition is re-applied
// unconditionally; an already finished bill stays finished.
func (s *Service) Finish(ctx context.Context, actor common.Principal, id uuid.UUID) (Bill, error) {
	if _, _, err := s.authorize(ctx, actor, id); err != nil {
		return Bill{}, err
	}
	b, err := s.Store.SetBillStatus(ctx, id, StatusFinished)
	if err != nil {
		return Bill{}, err
	}
	s.invalidateSummary(ctx, id)
	if obs.BillsFinishedTotal != nil {
		obs.BillsFinishedTotal.Inc()
	}
	return b, nil
}

// SetReceiptImage associates an opaque receipt image URL with the bill.
func (s *Service) SetReceiptImage(ctx context.Context, actor common.Principal, id uuid.UUID, url string) (Bill, error) {
	if _, _, err := s.authorize(ctx, actor, id); err != nil {
		return Bill{}, err
	}
	b, err := s.Store.SetBillImageURL(ctx, id, strings.TrimSpace(url))
	if err != nil {
		return Bill{}, err
	}
	s.invalidateSummary(ctx, id)
	return b, nil
}

// Delete removes the bill and returns its pre-deletion snapshot.
func (s *Service) Delete(ctx context.Context, actor common.Principal, id uuid.UUID) (Bill, error) {
	b, resolved, err := s.authorize(ctx, actor, id)
	if err != nil {
		return Bill{}, err
	}
	if !resolved {
		if b, err = s.Store.GetBill(ctx, id); err != nil {
			return Bill{}, err
		}
	}
	if err := s.Store.DeleteBill(ctx, id); err != nil {
		return Bill{}, err
	}
	s.invalidateSummary(ctx, id)
	return b, nil
}

// AddItem appends one charge line to the bill and accumulates its total.
func (s *Service) AddItem(ctx context.Context, actor common.Principal, billID uuid.UUID, input ItemInput) (Item, error) {
	if _, _, err := s.authorize(ctx, actor, billID); err != nil {
		return Item{}, err
	}
	item, err := s.newItem(billID, nil, input.Friend, input.Description, input.Value)
	if err != nil {
		return Item{}, err
	}
	inserted, err := s.Store.AddItems(ctx, billID, []Item{item})
	if err != nil {
		return Item{}, err
	}
	s.invalidateSummary(ctx, billID)
	if obs.ItemsAddedTotal != nil {
		obs.ItemsAddedTotal.Inc()
	}
	return inserted[0], nil
}

// Items returns every charge line of the bill.
func (s *Service) Items(ctx context.Context, actor common.Principal, billID uuid.UUID) ([]Item, error) {
	_, resolved, err := s.authorize(ctx, actor, billID)
	if err != nil {
		return nil, err
	}
	if !resolved {
		if _, err := s.Store.GetBill(ctx, billID); err != nil {
			return nil, err
		}
	}
	return s.Store.ListItems(ctx, billID)
}

// ItemByID returns a single charge line of the bill.
func (s *Service) ItemByID(ctx context.Context, actor common.Principal, billID, itemID uuid.UUID) (Item, error) {
	if _, _, err := s.authorize(ctx, actor, billID); err != nil {
		return Item{}, err
	}
	return s.Store.GetItem(ctx, billID, itemID)
}

// RemoveItem deletes one charge line and decrements the bill's total by its
// value.
func (s *Service) RemoveItem(ctx context.Context, actor common.Principal, billID, itemID uuid.UUID) (Item, error) {
	if _, _, err := s.authorize(ctx, actor, billID); err != nil {
		return Item{}, err
	}
	removed, err := s.Store.RemoveItem(ctx, billID, itemID)
	if err != nil {
		return Item{}, err
	}
	s.invalidateSummary(ctx, billID)
	return removed, nil
}

// AddSplitItems records one logical charge divided across several friends.
// All allocations are validated up front; the batch is inserted atomically
// under a shared split-group id, and the bill's total grows by the batch sum.
func (s *Service) AddSplitItems(ctx context.Context, actor common.Principal, billID uuid.UUID, description string, allocations []Allocation) ([]Item, error) {
	if _, _, err := s.authorize(ctx, actor, billID); err != nil {
		return nil, err
	}
	if len(allocations) == 0 {
		return nil, ErrInvalidAllocation
	}
	groupID := uuid.New()
	items := make([]Item, 0, len(allocations))
	for _, alloc := range allocations {
		desc := strings.TrimSpace(alloc.Description)
		if desc == "" {
			desc = strings.TrimSpace(description)
		}
		item, err := s.newItem(billID, &groupID, alloc.Friend, desc, alloc.Value)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	inserted, err := s.Store.AddItems(ctx, billID, items)
	if err != nil {
		return nil, err
	}
	s.invalidateSummary(ctx, billID)
	if obs.SplitBatchesTotal != nil {
		obs.SplitBatchesTotal.Inc()
	}
	if obs.ItemsAddedTotal != nil {
		obs.ItemsAddedTotal.Add(float64(len(inserted)))
	}
	return inserted, nil
}

// RemoveSplitItems deletes the whole split batch the given item was created
// with, returning the removed set. The bill's total shrinks by the batch sum.
func (s *Service) RemoveSplitItems(ctx context.Context, actor common.Principal, billID, itemID uuid.UUID) ([]Item, error) {
	if _, _, err := s.authorize(ctx, actor, billID); err != nil {
		return nil, err
	}
	removed, err := s.Store.RemoveSplitGroup(ctx, billID, itemID)
	if err != nil {
		return nil, err
	}
	s.invalidateSummary(ctx, billID)
	return removed, nil
}

func (s *Service) newItem(billID uuid.UUID, groupID *uuid.UUID, friend, description string, value money.Money) (Item, error) {
	friend = strings.TrimSpace(friend)
	if friend == "" || value < 0 {
		return Item{}, ErrInvalidAllocation
	}
	return Item{
		ID:           uuid.New(),
		BillID:       billID,
		SplitGroupID: groupID,
		Friend:       friend,
		Description:  strings.TrimSpace(description),
		Value:        value,
		CreatedAt:    s.now(),
	}, nil
}

func (s *Service) invalidateSummary(ctx context.Context, billID uuid.UUID) {
	if s.Cache != nil {
		s.Cache.InvalidateSummary(ctx, billID)
	}
}
