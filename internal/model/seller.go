package model

import (
	"time"
)

type SellerStatus string

const (
	SellerStatusPending   SellerStatus = "pending"
	SellerStatusApproved  SellerStatus = "approved"
	SellerStatusRejected  SellerStatus = "rejected"
	SellerStatusActive    SellerStatus = "active"
	SellerStatusSuspended SellerStatus = "suspended"
)

// SellerStatuses lists every status in display order.
var SellerStatuses = []SellerStatus{
	SellerStatusPending,
	SellerStatusApproved,
	SellerStatusRejected,
	SellerStatusActive,
	SellerStatusSuspended,
}

func (s SellerStatus) Valid() bool {
	for _, status := range SellerStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Seller struct {
	ID                         string       `db:"id" json:"id"`
	StoreName                  string       `db:"store_name" json:"storeName"`
	OwnerName                  string       `db:"owner_name" json:"ownerName"`
	Email                      string       `db:"email" json:"email"`
	Status                     SellerStatus `db:"status" json:"status"`
	SuspensionTitle            *string      `db:"suspension_title" json:"suspensionTitle,omitempty"`
	SuspensionReason           *string      `db:"suspension_reason" json:"suspensionReason,omitempty"`
	SuspensionEndsAt           *time.Time   `db:"suspension_ends_at" json:"suspensionEndsAt,omitempty"`
	SuspensionPermanent        bool         `db:"suspension_permanent" json:"suspensionPermanent"`
	SuspendedAt                *time.Time   `db:"suspended_at" json:"suspendedAt,omitempty"`
	SuspensionExpiryNotifiedAt *time.Time   `db:"suspension_expiry_notified_at" json:"-"`
	RejectionReason            *string      `db:"rejection_reason" json:"rejectionReason,omitempty"`
	ReviewedAt                 *time.Time   `db:"reviewed_at" json:"reviewedAt,omitempty"`
	CreatedAt                  time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt                  time.Time    `db:"updated_at" json:"updatedAt"`
}

// SuspensionExpired reports whether a timed suspension has run past its end.
func (s *Seller) SuspensionExpired(now time.Time) bool {
	return s.Status == SellerStatusSuspended &&
		!s.SuspensionPermanent &&
		s.SuspensionEndsAt != nil &&
		!now.Before(*s.SuspensionEndsAt)
}

type CreateSellerParams struct {
	StoreName string
	OwnerName string
	Email     string
}

// SellerTransitionParams is the full post-transition state written by a
// compare-and-set status update. Nil pointers clear the column.
type SellerTransitionParams struct {
	Status              SellerStatus
	SuspensionTitle     *string
	SuspensionReason    *string
	SuspensionEndsAt    *time.Time
	SuspensionPermanent bool
	SuspendedAt         *time.Time
	RejectionReason     *string
	ReviewedAt          *time.Time
	UpdatedAt           time.Time
}

// StatusCounts maps each status to the number of sellers holding it.
type StatusCounts map[SellerStatus]int
