package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID          string    `bun:"id,pk" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	PhoneNumber string    `bun:"phone_number,unique,notnull" json:"phone_number"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
}

// SessionUser is the part of a User exposed through a session.
type SessionUser struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

// Session is the authenticated participant for the current request.
type Session struct {
	User SessionUser `json:"user"`
}

func NewSession(u User) *Session {
	return &Session{User: SessionUser{ID: u.ID, Name: u.Name, PhoneNumber: u.PhoneNumber}}
}
