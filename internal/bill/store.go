package bill

import (
	"context"

	"github.com/google/uuid"
)

// Store abstracts bill and item persistence.
//
// Mutating operations that touch a bill's total and its item collection must
// be atomic per bill: implementations wrap the resolve+mutate+save sequence
// in a transaction that serialises concurrent writers on the same bill row.
type Store interface {
	CreateBill(ctx context.Context, b Bill) (Bill, error)
	GetBill(ctx context.Context, id uuid.UUID) (Bill, error)
	ListBills(ctx context.Context) ([]Bill, error)
	ListBillsByOwner(ctx context.Context, owner uuid.UUID) ([]Bill, error)
	SetBillStatus(ctx context.Context, id uuid.UUID, status Status) (Bill, error)
	SetBillImageURL(ctx context.Context, id uuid.UUID, url string) (Bill, error)
	DeleteBill(ctx context.Context, id uuid.UUID) error

	// AddItems inserts the items under the bill and accumulates the bill's
	// total by the sum of their values.
	AddItems(ctx context.Context, billID uuid.UUID, items []Item) ([]Item, error)
	GetItem(ctx context.Context, billID, itemID uuid.UUID) (Item, error)
	ListItems(ctx context.Context, billID uuid.UUID) ([]Item, error)
	ListItemsByFriend(ctx context.Context, billID uuid.UUID, friend string) ([]Item, error)
	// RemoveItem deletes one item and decrements the bill's total by its value.
	RemoveItem(ctx context.Context, billID, itemID uuid.UUID) (Item, error)
	// RemoveSplitGroup deletes the whole co-created batch the item belongs to
	// and decrements the bill's total by the batch sum.
	RemoveSplitGroup(ctx context.Context, billID, itemID uuid.UUID) ([]Item, error)
}
