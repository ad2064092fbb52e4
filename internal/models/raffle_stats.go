package models

type EventTicketCount struct {
	EventTitle string `bun:"event_title" json:"event_title"`
	Count      int    `bun:"count" json:"count"`
}

type TypeTicketCount struct {
	EventType string `bun:"event_type" json:"event_type"`
	Count     int    `bun:"count" json:"count"`
}

type UserTicketCount struct {
	UserName string `bun:"user_name" json:"user_name"`
	Count    int    `bun:"count" json:"count"`
}

type RaffleStats struct {
	ByEvent  []EventTicketCount `json:"by_event"`
	ByType   []TypeTicketCount  `json:"by_type"`
	TopUsers []UserTicketCount  `json:"top_users"`
}
