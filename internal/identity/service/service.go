package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ms-companion/internal/auth"
	"ms-companion/internal/logger"
	"ms-companion/internal/models"
	"ms-companion/internal/utils"
)

var (
	ErrNotRegistered  = errors.New("not registered")
	ErrProvider       = errors.New("identity provider failure")
	ErrReconciliation = errors.New("identity reconciliation failed")
	ErrProfileUpdate  = errors.New("profile update failed")
)

const (
	notRegisteredMessage = "You may not be registered for VTHacks. Contact the organizers for assistance."
	sendFailedMessage    = "Failed to send verification code. Please try again."
	verifyFailedMessage  = "Failed to verify verification code. Please try again."
	throttledMessage     = "A code was sent recently. Please wait before requesting another."
)

type IdentityDBLayer interface {
	FindUsersByPhone(ctx context.Context, phone string) ([]models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ReconcileUserID(ctx context.Context, phone, id string) error
	UpdateUserName(ctx context.Context, id, name string) error
}

// Provider is the identity provider the service delegates codes and sessions to.
type Provider interface {
	SendCode(ctx context.Context, phone string) error
	VerifyCode(ctx context.Context, phone, code string) (auth.Principal, string, error)
	CurrentPrincipal(ctx context.Context, token string) (*auth.Principal, error)
	SignOut(ctx context.Context, token string) error
}

type IdentityService struct {
	DB       IdentityDBLayer
	Provider Provider
	Logger   *logger.Logger
}

func NewIdentityService(db IdentityDBLayer, provider Provider, log *logger.Logger) *IdentityService {
	return &IdentityService{DB: db, Provider: provider, Logger: log}
}

func invalidPhone() error {
	return utils.NewUserError(utils.ErrInvalidInput, "Invalid phone number", nil)
}

// ResolveByPhone returns the id of the single user registered with phone.
func (s *IdentityService) ResolveByPhone(ctx context.Context, phone string) (string, error) {
	if !utils.IsValidPhoneNumber(phone) {
		return "", invalidPhone()
	}
	phone = utils.NormalizePhoneNumber(phone)

	users, err := s.DB.FindUsersByPhone(ctx, phone)
	if err != nil {
		s.Logger.Error("IDENTITY", fmt.Sprintf("User lookup for %s failed: %v", phone, err))
		return "", utils.NewUserError(ErrNotRegistered, notRegisteredMessage, err)
	}
	if len(users) != 1 {
		s.Logger.LogAuth("RESOLVE", phone, fmt.Sprintf("%d matching users", len(users)))
		return "", utils.NewUserError(ErrNotRegistered, notRegisteredMessage, nil)
	}
	return users[0].ID, nil
}

func (s *IdentityService) RequestCode(ctx context.Context, phone string) error {
	if !utils.IsValidPhoneNumber(phone) {
		return invalidPhone()
	}
	err := s.Provider.SendCode(ctx, utils.NormalizePhoneNumber(phone))
	if errors.Is(err, auth.ErrSendThrottled) {
		return utils.NewUserError(auth.ErrSendThrottled, throttledMessage, nil)
	}
	if err != nil {
		s.Logger.Error("IDENTITY", fmt.Sprintf("Sending code failed: %v", err))
		return utils.NewUserError(ErrProvider, sendFailedMessage, err)
	}
	return nil
}

// VerifyCode checks code with the provider and links the pre-provisioned user
// row to the provider's id. The token is only returned once both succeed.
func (s *IdentityService) VerifyCode(ctx context.Context, phone, code, userID string) (string, error) {
	if !utils.IsValidPhoneNumber(phone) {
		return "", invalidPhone()
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return "", utils.NewUserError(utils.ErrInvalidInput, "Verification code is required", nil)
	}
	phone = utils.NormalizePhoneNumber(phone)

	principal, token, err := s.Provider.VerifyCode(ctx, phone, code)
	if err != nil {
		s.Logger.LogSecurity("OTP_VERIFY", fmt.Sprintf("verification failed for %s: %v", phone, err))
		return "", utils.NewUserError(ErrProvider, verifyFailedMessage, err)
	}

	if principal.ID != userID {
		if err := s.DB.ReconcileUserID(ctx, phone, principal.ID); err != nil {
			s.Logger.Error("IDENTITY", fmt.Sprintf("Reconciling %s to %s failed: %v", phone, principal.ID, err))
			if signOutErr := s.Provider.SignOut(ctx, token); signOutErr != nil {
				s.Logger.Warn("IDENTITY", fmt.Sprintf("Revoking unused session failed: %v", signOutErr))
			}
			return "", utils.NewUserError(ErrReconciliation, utils.ServerErrorMessage, err)
		}
		s.Logger.LogAuth("RECONCILE", phone, fmt.Sprintf("user id %s -> %s", userID, principal.ID))
	}

	return token, nil
}

func (s *IdentityService) Logout(ctx context.Context, token string) error {
	return s.Provider.SignOut(ctx, token)
}

// CurrentSession resolves token to a session. Any failure means no session.
func (s *IdentityService) CurrentSession(ctx context.Context, token string) *models.Session {
	if token == "" {
		return nil
	}

	principal, err := s.Provider.CurrentPrincipal(ctx, token)
	if err != nil || principal == nil {
		return nil
	}

	user, err := s.DB.GetUserByID(ctx, principal.ID)
	if err != nil {
		s.Logger.Error("IDENTITY", fmt.Sprintf("Session user lookup failed: %v", err))
		return nil
	}
	if user == nil {
		s.Logger.LogSecurity("ORPHAN_SESSION", fmt.Sprintf("no user row for principal %s", principal.ID))
		return nil
	}
	return models.NewSession(*user)
}

func (s *IdentityService) UpdateProfile(ctx context.Context, session *models.Session, name string) error {
	if session == nil {
		return utils.NewUserError(utils.ErrUnauthenticated, "Not authenticated", nil)
	}
	if err := s.DB.UpdateUserName(ctx, session.User.ID, name); err != nil {
		s.Logger.Error("IDENTITY", fmt.Sprintf("Profile update for %s failed: %v", session.User.ID, err))
		return utils.NewUserError(ErrProfileUpdate, "Failed to update profile", err)
	}
	return nil
}
