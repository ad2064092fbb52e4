package models

import (
	"time"

	"github.com/uptrace/bun"
)

// OTPCode belongs to the identity provider; application services never read it.
type OTPCode struct {
	bun.BaseModel `bun:"table:otp_codes"`

	ID          string    `bun:"id,pk"`
	PhoneNumber string    `bun:"phone_number,notnull"`
	Code        string    `bun:"code,notnull"`
	ExpiresAt   time.Time `bun:"expires_at,notnull"`
	Used        bool      `bun:"used,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}
