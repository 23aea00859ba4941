// Package repo holds the Postgres implementations of the domain stores.
package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-rateio/internal/bill"
	"github.com/noah-isme/backend-rateio/internal/money"
)

// BillRepo persists bills and their items in Postgres.
//
// Mutations that touch a bill's total run inside a transaction that locks the
// bill row, so concurrent writers on the same bill are serialised.
type BillRepo struct {
	Pool *pgxpool.Pool
}

var _ bill.Store = (*BillRepo)(nil)

const billColumns = `id, owner_id, establishment, bill_date, total_cents, status, image_url, created_at, updated_at`

func scanBill(row pgx.Row) (bill.Bill, error) {
	var b bill.Bill
	var imageURL *string
	err := row.Scan(&b.ID, &b.OwnerID, &b.Establishment, &b.Date, &b.Total, &b.Status, &imageURL, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return bill.Bill{}, bill.ErrNotFound
		}
		return bill.Bill{}, err
	}
	if imageURL != nil {
		b.ImageURL = *imageURL
	}
	return b, nil
}

// CreateBill inserts a new bill.
func (r *BillRepo) CreateBill(ctx context.Context, b bill.Bill) (bill.Bill, error) {
	var imageURL *string
	if b.ImageURL != "" {
		imageURL = &b.ImageURL
	}
	row := r.Pool.QueryRow(ctx, `
		INSERT INTO bills (id, owner_id, establishment, bill_date, total_cents, status, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+billColumns,
		b.ID, b.OwnerID, b.Establishment, b.Date, b.Total, b.Status, imageURL, b.CreatedAt, b.UpdatedAt,
	)
	return scanBill(row)
}

// GetBill fetches one bill by id.
func (r *BillRepo) GetBill(ctx context.Context, id uuid.UUID) (bill.Bill, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1`, id)
	return scanBill(row)
}

// ListBills returns every bill, newest first.
func (r *BillRepo) ListBills(ctx context.Context) ([]bill.Bill, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+billColumns+` FROM bills ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBills(rows)
}

// ListBillsByOwner returns the bills owned by one user, newest first.
func (r *BillRepo) ListBillsByOwner(ctx context.Context, owner uuid.UUID) ([]bill.Bill, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+billColumns+` FROM bills WHERE owner_id = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBills(rows)
}

func collectBills(rows pgx.Rows) ([]bill.Bill, error) {
	bills := make([]bill.Bill, 0)
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

// SetBillStatus updates the bill's lifecycle status.
func (r *BillRepo) SetBillStatus(ctx context.Context, id uuid.UUID, status bill.Status) (bill.Bill, error) {
	row := r.Pool.QueryRow(ctx, `
		UPDATE bills SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+billColumns,
		id, status,
	)
	return scanBill(row)
}

// SetBillImageURL attaches a receipt image URL to the bill.
func (r *BillRepo) SetBillImageURL(ctx context.Context, id uuid.UUID, url string) (bill.Bill, error) {
	var imageURL *string
	if url != "" {
		imageURL = &url
	}
	row := r.Pool.QueryRow(ctx, `
		UPDATE bills SET image_url = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+billColumns,
		id, imageURL,
	)
	return scanBill(row)
}

// DeleteBill removes the bill; items cascade.
func (r *BillRepo) DeleteBill(ctx context.Context, id uuid.UUID) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bill.ErrNotFound
	}
	return nil
}

const itemColumns = `id, bill_id, split_group_id, friend, description, value_cents, created_at`

func scanItem(row pgx.Row) (bill.Item, error) {
	var it bill.Item
	err := row.Scan(&it.ID, &it.BillID, &it.SplitGroupID, &it.Friend, &it.Description, &it.Value, &it.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return bill.Item{}, bill.ErrItemNotFound
		}
		return bill.Item{}, err
	}
	return it, nil
}

func collectItems(rows pgx.Rows) ([]bill.Item, error) {
	items := make([]bill.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func lockBill(ctx context.Context, tx pgx.Tx, billID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx, `SELECT id FROM bills WHERE id = $1 FOR UPDATE`, billID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return bill.ErrNotFound
	}
	return err
}

// AddItems inserts the items and accumulates the bill's total by their sum.
func (r *BillRepo) AddItems(ctx context.Context, billID uuid.UUID, items []bill.Item) ([]bill.Item, error) {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := lockBill(ctx, tx, billID); err != nil {
		return nil, err
	}

	inserted := make([]bill.Item, 0, len(items))
	var sum money.Money
	for _, it := range items {
		row := tx.QueryRow(ctx, `
			INSERT INTO bill_items (id, bill_id, split_group_id, friend, description, value_cents, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+itemColumns,
			it.ID, billID, it.SplitGroupID, it.Friend, it.Description, it.Value, it.CreatedAt,
		)
		stored, err := scanItem(row)
		if err != nil {
			return nil, err
		}
		inserted = append(inserted, stored)
		sum = money.Accumulate(sum, stored.Value)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE bills SET total_cents = total_cents + $2, updated_at = now()
		WHERE id = $1`, billID, sum,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return inserted, nil
}

// GetItem fetches one item scoped to its bill.
func (r *BillRepo) GetItem(ctx context.Context, billID, itemID uuid.UUID) (bill.Item, error) {
	row := r.Pool.QueryRow(ctx, `
		SELECT `+itemColumns+` FROM bill_items WHERE id = $1 AND bill_id = $2`,
		itemID, billID,
	)
	return scanItem(row)
}

// ListItems returns the bill's items in insertion order.
func (r *BillRepo) ListItems(ctx context.Context, billID uuid.UUID) ([]bill.Item, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT `+itemColumns+` FROM bill_items WHERE bill_id = $1 ORDER BY created_at, id`,
		billID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

// ListItemsByFriend returns the bill's items attributed to one friend. The
// match is exact, case included.
func (r *BillRepo) ListItemsByFriend(ctx context.Context, billID uuid.UUID, friend string) ([]bill.Item, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT `+itemColumns+` FROM bill_items WHERE bill_id = $1 AND friend = $2 ORDER BY created_at, id`,
		billID, friend,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

// RemoveItem deletes one item and decrements the bill's total by its value.
func (r *BillRepo) RemoveItem(ctx context.Context, billID, itemID uuid.UUID) (bill.Item, error) {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return bill.Item{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := lockBill(ctx, tx, billID); err != nil {
		return bill.Item{}, err
	}

	row := tx.QueryRow(ctx, `
		DELETE FROM bill_items WHERE id = $1 AND bill_id = $2
		RETURNING `+itemColumns,
		itemID, billID,
	)
	removed, err := scanItem(row)
	if err != nil {
		return bill.Item{}, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE bills SET total_cents = total_cents - $2, updated_at = now()
		WHERE id = $1`, billID, removed.Value,
	); err != nil {
		return bill.Item{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return bill.Item{}, err
	}
	return removed, nil
}

// RemoveSplitGroup deletes the whole co-created batch the item belongs to and
// decrements the bill's total by the batch sum. An item created outside a
// split batch removes only itself.
func (r *BillRepo) RemoveSplitGroup(ctx context.Context, billID, itemID uuid.UUID) ([]bill.Item, error) {
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := lockBill(ctx, tx, billID); err != nil {
		return nil, err
	}

	row := tx.QueryRow(ctx, `
		SELECT `+itemColumns+` FROM bill_items WHERE id = $1 AND bill_id = $2`,
		itemID, billID,
	)
	anchor, err := scanItem(row)
	if err != nil {
		return nil, err
	}

	var rows pgx.Rows
	if anchor.SplitGroupID == nil {
		rows, err = tx.Query(ctx, `
			DELETE FROM bill_items WHERE id = $1 AND bill_id = $2
			RETURNING `+itemColumns,
			itemID, billID,
		)
	} else {
		rows, err = tx.Query(ctx, `
			DELETE FROM bill_items WHERE bill_id = $1 AND split_group_id = $2
			RETURNING `+itemColumns,
			billID, anchor.SplitGroupID,
		)
	}
	if err != nil {
		return nil, err
	}
	removed, err := collectItems(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	var sum money.Money
	for _, it := range removed {
		sum = money.Accumulate(sum, it.Value)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE bills SET total_cents = total_cents - $2, updated_at = now()
		WHERE id = $1`, billID, sum,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return removed, nil
}
