package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ms-companion/internal/logger"
	"ms-companion/internal/models"
	"ms-companion/internal/utils"
)

var (
	ErrSendThrottled = errors.New("a code was sent recently")
	ErrInvalidCode   = errors.New("verification code is invalid or expired")
	ErrRevoked       = errors.New("session has been signed out")
)

// DefaultMaxAttempts is the number of wrong codes a phone may submit within one
// code lifetime before its outstanding codes are burned.
const DefaultMaxAttempts = 5

// principalNamespace scopes provider ids derived from phone numbers.
var principalNamespace = uuid.MustParse("6f1c7a52-3f0e-4d3b-9a5e-2b8d7c4e1a90")

// Principal is the identity the provider vouches for.
type Principal struct {
	ID    string
	Phone string
}

// PrincipalID is the stable provider id for a phone number.
func PrincipalID(phone string) string {
	return uuid.NewSHA1(principalNamespace, []byte(utils.NormalizePhoneNumber(phone))).String()
}

type sessionStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	AcquireSendSlot(ctx context.Context, phone string, interval time.Duration) (bool, error)
	ReleaseSendSlot(ctx context.Context, phone string) error
	RecordFailedAttempt(ctx context.Context, phone string, window time.Duration) (int64, error)
	FailedAttempts(ctx context.Context, phone string) (int64, error)
	ClearFailedAttempts(ctx context.Context, phone string) error
}

type OTPProviderConfig struct {
	CodeTTL        time.Duration
	ResendInterval time.Duration
	MaxAttempts    int
}

// OTPProvider issues one-time codes by SMS and session tokens on verification.
// It owns otp_codes and is the only reader of that table.
type OTPProvider struct {
	DB       *bun.DB
	Sessions sessionStore
	Sender   SMSSender
	Tokens   *TokenIssuer
	Config   OTPProviderConfig
	Logger   *logger.Logger
	now      func() time.Time
}

func NewOTPProvider(db *bun.DB, sessions sessionStore, sender SMSSender, tokens *TokenIssuer, cfg OTPProviderConfig, log *logger.Logger) *OTPProvider {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &OTPProvider{
		DB:       db,
		Sessions: sessions,
		Sender:   sender,
		Tokens:   tokens,
		Config:   cfg,
		Logger:   log,
		now:      time.Now,
	}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// SendCode stores a fresh code for phone and hands it to the SMS sender.
func (p *OTPProvider) SendCode(ctx context.Context, phone string) error {
	phone = utils.NormalizePhoneNumber(phone)

	ok, err := p.Sessions.AcquireSendSlot(ctx, phone, p.Config.ResendInterval)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSendThrottled
	}

	if err := p.sendCode(ctx, phone); err != nil {
		if relErr := p.Sessions.ReleaseSendSlot(ctx, phone); relErr != nil {
			p.Logger.Warn("AUTH", fmt.Sprintf("Failed to release otp send slot for %s: %v", phone, relErr))
		}
		return err
	}
	return nil
}

func (p *OTPProvider) sendCode(ctx context.Context, phone string) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	now := p.now().UTC()
	row := models.OTPCode{
		ID:          uuid.NewString(),
		PhoneNumber: phone,
		Code:        code,
		ExpiresAt:   now.Add(p.Config.CodeTTL),
		CreatedAt:   now,
	}
	if _, err := p.DB.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("store otp code: %w", err)
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(p.Config.CodeTTL.Minutes()))
	if err := p.Sender.Send(ctx, phone, body); err != nil {
		return err
	}

	p.Logger.LogAuth("OTP_SENT", phone, "verification code issued")
	return nil
}

// VerifyCode consumes a matching unexpired code and returns a signed session token.
// Once a phone reaches MaxAttempts wrong codes its outstanding codes are burned
// and every code is refused until the attempt window expires.
func (p *OTPProvider) VerifyCode(ctx context.Context, phone, code string) (Principal, string, error) {
	phone = utils.NormalizePhoneNumber(phone)
	now := p.now().UTC()

	failures, err := p.Sessions.FailedAttempts(ctx, phone)
	if err != nil {
		return Principal{}, "", err
	}
	if failures >= int64(p.Config.MaxAttempts) {
		p.Logger.LogSecurity("OTP_LOCKED", fmt.Sprintf("verification refused for %s after %d wrong codes", phone, failures))
		return Principal{}, "", ErrInvalidCode
	}

	var row models.OTPCode
	err = p.DB.NewSelect().
		Model(&row).
		Where("phone_number = ?", phone).
		Where("code = ?", code).
		Where("used = ?", false).
		Where("expires_at > ?", now).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Principal{}, "", p.recordFailure(ctx, phone)
	}
	if err != nil {
		return Principal{}, "", fmt.Errorf("look up otp code: %w", err)
	}

	// Guarded on used = false so one code cannot be redeemed twice.
	res, err := p.DB.NewUpdate().
		Model((*models.OTPCode)(nil)).
		Set("used = ?", true).
		Where("id = ?", row.ID).
		Where("used = ?", false).
		Exec(ctx)
	if err != nil {
		return Principal{}, "", fmt.Errorf("consume otp code: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return Principal{}, "", ErrInvalidCode
	}

	if err := p.Sessions.ClearFailedAttempts(ctx, phone); err != nil {
		p.Logger.Warn("AUTH", fmt.Sprintf("Failed to clear otp attempts for %s: %v", phone, err))
	}

	principal := Principal{ID: PrincipalID(phone), Phone: phone}
	token, _, err := p.Tokens.Issue(principal)
	if err != nil {
		return Principal{}, "", err
	}

	p.Logger.LogAuth("OTP_VERIFIED", phone, "session issued")
	return principal, token, nil
}

// recordFailure counts a wrong code and burns the phone's unused codes once the
// limit is reached. It always returns ErrInvalidCode unless the store fails.
func (p *OTPProvider) recordFailure(ctx context.Context, phone string) error {
	n, err := p.Sessions.RecordFailedAttempt(ctx, phone, p.Config.CodeTTL)
	if err != nil {
		return err
	}
	if n < int64(p.Config.MaxAttempts) {
		return ErrInvalidCode
	}

	_, err = p.DB.NewUpdate().
		Model((*models.OTPCode)(nil)).
		Set("used = ?", true).
		Where("phone_number = ?", phone).
		Where("used = ?", false).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("burn otp codes: %w", err)
	}
	p.Logger.LogSecurity("OTP_LOCKED", fmt.Sprintf("%d wrong codes for %s, outstanding codes burned", n, phone))
	return ErrInvalidCode
}

// CurrentPrincipal resolves a session token. Expired, forged and signed-out tokens fail.
func (p *OTPProvider) CurrentPrincipal(ctx context.Context, token string) (*Principal, error) {
	claims, err := p.Tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	revoked, err := p.Sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevoked
	}

	return &Principal{ID: claims.Subject, Phone: claims.Phone}, nil
}

// SignOut revokes token. Tokens that no longer parse are already unusable.
func (p *OTPProvider) SignOut(ctx context.Context, token string) error {
	claims, err := p.Tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := p.Sessions.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	p.Logger.LogAuth("SIGN_OUT", claims.Subject, "session revoked")
	return nil
}
