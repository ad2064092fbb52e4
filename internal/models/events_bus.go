package models

import "time"

// CheckInRecordedEvent is published after a successful check-in.
type CheckInRecordedEvent struct {
	CheckInID    string    `json:"check_in_id"`
	UserID       string    `json:"user_id"`
	EventID      string    `json:"event_id"`
	TicketIssued bool      `json:"ticket_issued"`
	Timestamp    time.Time `json:"timestamp"`
}

type TicketIssuedEvent struct {
	TicketID  string    `json:"ticket_id"`
	CheckInID string    `json:"check_in_id"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	IssuedAt  time.Time `json:"issued_at"`
}

// SMSMessage is queued by the identity provider and delivered by sms-relay.
type SMSMessage struct {
	To        string    `json:"to"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
