package bill

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-rateio/internal/common"
	"github.com/noah-isme/backend-rateio/internal/money"
)

// FriendShare is one friend's slice of a bill: their consumed base, the
// service tax on it, and the payable total.
type FriendShare struct {
	Friend string      `json:"friend"`
	Base   money.Money `json:"base_cents"`
	Tax    money.Money `json:"tax_cents"`
	Total  money.Money `json:"total_cents"`
	Items  int         `json:"items"`
}

// Summary is the full settlement view of a bill: the bill-level totals plus
// the per-friend breakdown, in first-appearance order.
type Summary struct {
	BillID        uuid.UUID     `json:"bill_id"`
	OwnerID       uuid.UUID     `json:"owner_id"`
	Establishment string        `json:"establishment"`
	Date          time.Time     `json:"date"`
	Status        Status        `json:"status"`
	Base          money.Money   `json:"base_cents"`
	Tax           money.Money   `json:"tax_cents"`
	Total         money.Money   `json:"total_cents"`
	Friends       []FriendShare `json:"friends"`
}

// Consumption is one friend's view of a bill, with the matching items.
type Consumption struct {
	BillID uuid.UUID   `json:"bill_id"`
	Friend string      `json:"friend"`
	Base   money.Money `json:"base_cents"`
	Tax    money.Money `json:"tax_cents"`
	Total  money.Money `json:"total_cents"`
	Items  []Item      `json:"items"`
}

// Calculate produces the settlement summary for a bill. The bill must have an
// owner before it can be settled; an ownerless bill yields ErrNoOwner.
//
// Tax is computed on accumulated bases, never summed per item, so each share
// carries at most one rounding step.
func (s *Service) Calculate(ctx context.Context, actor common.Principal, billID uuid.UUID) (Summary, error) {
	b, resolved, err := s.authorize(ctx, actor, billID)
	if err != nil {
		return Summary{}, err
	}
	if !resolved {
		if b, err = s.Store.GetBill(ctx, billID); err != nil {
			return Summary{}, err
		}
	}
	if b.OwnerID == nil {
		return Summary{}, ErrNoOwner
	}
	if cached, ok := s.Cache.GetSummary(ctx, billID); ok {
		return cached, nil
	}
	items, err := s.Store.ListItems(ctx, billID)
	if err != nil {
		return Summary{}, err
	}

	order := make([]string, 0, len(items))
	bases := make(map[string]money.Money, len(items))
	counts := make(map[string]int, len(items))
	var base money.Money
	for _, item := range items {
		if _, seen := bases[item.Friend]; !seen {
			order = append(order, item.Friend)
		}
		bases[item.Friend] = money.Accumulate(bases[item.Friend], item.Value)
		counts[item.Friend]++
		base = money.Accumulate(base, item.Value)
	}

	friends := make([]FriendShare, 0, len(order))
	for _, friend := range order {
		fb := bases[friend]
		ft := money.ServiceTax(fb)
		friends = append(friends, FriendShare{
			Friend: friend,
			Base:   fb,
			Tax:    ft,
			Total:  money.SumRounded(fb, ft),
			Items:  counts[friend],
		})
	}

	tax := money.ServiceTax(base)
	summary := Summary{
		BillID:        b.ID,
		OwnerID:       *b.OwnerID,
		Establishment: b.Establishment,
		Date:          b.Date,
		Status:        b.Status,
		Base:          base,
		Tax:           tax,
		Total:         money.SumRounded(base, tax),
		Friends:       friends,
	}
	_ = s.Cache.SetSummary(ctx, summary)
	return summary, nil
}

// FriendConsumption totals what one friend consumed on a bill. The friend
// name matches item attribution exactly, case included. A friend with no
// items gets a zeroed consumption, not an error.
func (s *Service) FriendConsumption(ctx context.Context, actor common.Principal, billID uuid.UUID, friend string) (Consumption, error) {
	_, resolved, err := s.authorize(ctx, actor, billID)
	if err != nil {
		return Consumption{}, err
	}
	if !resolved {
		if _, err := s.Store.GetBill(ctx, billID); err != nil {
			return Consumption{}, err
		}
	}
	items, err := s.Store.ListItemsByFriend(ctx, billID, friend)
	if err != nil {
		return Consumption{}, err
	}
	var base money.Money
	for _, item := range items {
		base = money.Accumulate(base, item.Value)
	}
	tax := money.ServiceTax(base)
	return Consumption{
		BillID: billID,
		Friend: friend,
		Base:   base,
		Tax:    tax,
		Total:  money.SumRounded(base, tax),
		Items:  items,
	}, nil
}
