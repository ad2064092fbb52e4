package models

import (
	"time"

	"github.com/uptrace/bun"
)

type EventType string

const (
	EventTypeWorkshop EventType = "workshop"
	EventTypeActivity EventType = "activity"
	EventTypeFood     EventType = "food"
	EventTypeCeremony EventType = "ceremony"
)

func (t EventType) Valid() bool {
	switch t {
	case EventTypeWorkshop, EventTypeActivity, EventTypeFood, EventTypeCeremony:
		return true
	}
	return false
}

// Event rows are seeded externally and never written by the service.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string    `bun:"id,pk"`
	Title       string    `bun:"title,notnull"`
	Description string    `bun:"description"`
	Location    string    `bun:"location"`
	StartTime   time.Time `bun:"start_time,notnull"`
	EndTime     time.Time `bun:"end_time,notnull"`
	Type        EventType `bun:"type,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

// EventView is the display shape of an event.
type EventView struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	Type         EventType `json:"type"`
	IsBookmarked bool      `json:"isBookmarked"`
}

func (e Event) View(bookmarked bool) EventView {
	return EventView{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		Location:     e.Location,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		Type:         e.Type,
		IsBookmarked: bookmarked,
	}
}
