package bill

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-rateio/internal/common"
	"github.com/noah-isme/backend-rateio/internal/user"
)

// authorize gates bill-scoped operations on ownership.
//
// Admins pass unconditionally, without resolving the bill. Everyone else must
// own the bill: an ownerless bill or a foreign owner yields ErrForbidden.
// The resolved bill is returned so callers avoid a second lookup.
func (s *Service) authorize(ctx context.Context, actor common.Principal, billID uuid.UUID) (Bill, bool, error) {
	if actor.Role == string(user.RoleAdmin) {
		return Bill{}, false, nil
	}
	b, err := s.Store.GetBill(ctx, billID)
	if err != nil {
		return Bill{}, false, err
	}
	if b.OwnerID == nil || b.OwnerID.String() != actor.ID {
		return Bill{}, false, ErrForbidden
	}
	return b, true, nil
}
