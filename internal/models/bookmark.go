package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Bookmark struct {
	bun.BaseModel `bun:"table:bookmarks"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull,unique:bookmarks_user_event"`
	EventID   string    `bun:"event_id,notnull,unique:bookmarks_user_event"`
	CreatedAt time.Time `bun:"created_at,notnull"`

	Event *Event `bun:"rel:belongs-to,join:event_id=id"`
}
