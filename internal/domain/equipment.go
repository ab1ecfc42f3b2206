package domain

import (
	"time"

	"github.com/google/uuid"
)

type EquipmentStatus string

const (
	EquipmentStatusAvailable EquipmentStatus = "available"
	EquipmentStatusRented    EquipmentStatus = "rented"
)

type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

// Equipment is a listed item. Prices are whole FCFA units.
type Equipment struct {
	ID               uuid.UUID        `json:"id"`
	OwnerID          uuid.UUID        `json:"owner_id"`
	Title            string           `json:"title"`
	DailyPrice       int64            `json:"daily_price"`
	WeeklyPrice      *int64           `json:"weekly_price,omitempty"`
	DepositAmount    int64            `json:"deposit_amount"`
	Status           EquipmentStatus  `json:"status"`
	ModerationStatus ModerationStatus `json:"moderation_status"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
