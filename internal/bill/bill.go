// Package bill implements the shared-check domain: bill lifecycle, item and
// split-item accounting, per-friend consumption, and the ownership gate that
// decides who may operate on a bill.
package bill

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-rateio/internal/money"
)

// Status tracks the lifecycle of a bill.
type Status string

const (
	// StatusOpen marks a bill that still accepts items.
	StatusOpen Status = "OPEN"
	// StatusFinished marks a bill that has been closed out.
	StatusFinished Status = "FINISHED"
)

var (
	// ErrNotFound indicates the requested bill does not exist.
	ErrNotFound = errors.New("bill not found")
	// ErrItemNotFound indicates the item does not exist or belongs to another bill.
	ErrItemNotFound = errors.New("item not found")
	// ErrForbidden indicates the acting user may not operate on the bill.
	ErrForbidden = errors.New("not authorized for this bill")
	// ErrInvalidAllocation indicates a split batch contained an invalid entry.
	ErrInvalidAllocation = errors.New("invalid split allocation")
	// ErrNoOwner indicates a bill summary was requested for an ownerless bill.
	ErrNoOwner = errors.New("bill has no owner")
)

// Bill represents one shared check.
type Bill struct {
	ID            uuid.UUID   `json:"id"`
	OwnerID       *uuid.UUID  `json:"owner_id"`
	Establishment string      `json:"establishment"`
	Date          time.Time   `json:"date"`
	Total         money.Money `json:"-"`
	Status        Status      `json:"status"`
	ImageURL      string      `json:"image_url,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Item is one charge line attributed to a friend within a bill.
type Item struct {
	ID           uuid.UUID   `json:"id"`
	BillID       uuid.UUID   `json:"bill_id"`
	SplitGroupID *uuid.UUID  `json:"split_group_id,omitempty"`
	Friend       string      `json:"friend"`
	Description  string      `json:"description"`
	Value        money.Money `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
}
