package model

import (
	"time"
)

const (
	NotificationActionSellerApplied         = "seller.applied"
	NotificationActionSellerApproved        = "seller.approved"
	NotificationActionSellerRejected        = "seller.rejected"
	NotificationActionSellerSuspended       = "seller.suspended"
	NotificationActionSellerUnsuspended     = "seller.unsuspended"
	NotificationActionSellerSuspensionEnded = "seller.suspension_ended"
)

const NotificationResourceSeller = "seller"

// SystemActor names notifications raised by background jobs.
const SystemActor = "system"

type Notification struct {
	ID         string     `db:"id" json:"id"`
	ActorName  string     `db:"actor_name" json:"actorName"`
	Action     string     `db:"action" json:"action"`
	Resource   string     `db:"resource" json:"resource"`
	ResourceID string     `db:"resource_id" json:"resourceId"`
	Message    string     `db:"message" json:"message"`
	IsRead     bool       `db:"is_read" json:"isRead"`
	ReadAt     *time.Time `db:"read_at" json:"readAt,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}

type CreateNotificationParams struct {
	ActorName  string
	Action     string
	Resource   string
	ResourceID string
	Message    string
	CreatedAt  time.Time
}
