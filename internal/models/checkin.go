package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CheckIn records attendance. At most one row exists per (user_id, event_id).
type CheckIn struct {
	bun.BaseModel `bun:"table:check_ins"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull,unique:check_ins_user_event"`
	EventID   string    `bun:"event_id,notnull,unique:check_ins_user_event"`
	Timestamp time.Time `bun:"timestamp,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`

	Event *Event `bun:"rel:belongs-to,join:event_id=id"`
}

type CheckInView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	EventID   string    `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
	Event     EventView `json:"event"`
}
