package models

import (
	"time"

	"github.com/uptrace/bun"
)

// RaffleTicket is issued once per successful CheckIn.
type RaffleTicket struct {
	bun.BaseModel `bun:"table:raffle_tickets"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	EventID   string    `bun:"event_id,notnull"`
	CheckInID string    `bun:"check_in_id,notnull,unique"`
	CreatedAt time.Time `bun:"created_at,notnull"`

	Event   *Event   `bun:"rel:belongs-to,join:event_id=id"`
	CheckIn *CheckIn `bun:"rel:belongs-to,join:check_in_id=id"`
}

type RaffleTicketView struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	EventID          string    `json:"eventId"`
	CheckInID        string    `json:"checkInId"`
	CreatedAt        time.Time `json:"createdAt"`
	Event            EventView `json:"event"`
	CheckInTimestamp time.Time `json:"checkInTimestamp"`
}
