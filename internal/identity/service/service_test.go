package identity_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-companion/internal/auth"
	identity "ms-companion/internal/identity/service"
	"ms-companion/internal/logger"
	"ms-companion/internal/models"
	"ms-companion/internal/utils"
)

type MockIdentityDB struct {
	mock.Mock
}

func (m *MockIdentityDB) FindUsersByPhone(ctx context.Context, phone string) ([]models.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockIdentityDB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockIdentityDB) ReconcileUserID(ctx context.Context, phone, id string) error {
	return m.Called(ctx, phone, id).Error(0)
}

func (m *MockIdentityDB) UpdateUserName(ctx context.Context, id, name string) error {
	return m.Called(ctx, id, name).Error(0)
}

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SendCode(ctx context.Context, phone string) error {
	return m.Called(ctx, phone).Error(0)
}

func (m *MockProvider) VerifyCode(ctx context.Context, phone, code string) (auth.Principal, string, error) {
	args := m.Called(ctx, phone, code)
	return args.Get(0).(auth.Principal), args.String(1), args.Error(2)
}

func (m *MockProvider) CurrentPrincipal(ctx context.Context, token string) (*auth.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Principal), args.Error(1)
}

func (m *MockProvider) SignOut(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func newService() (*identity.IdentityService, *MockIdentityDB, *MockProvider) {
	db := new(MockIdentityDB)
	provider := new(MockProvider)
	return identity.NewIdentityService(db, provider, logger.Discard()), db, provider
}

var ctx = context.Background()

func TestResolveByPhone(t *testing.T) {
	svc, db, _ := newService()
	db.On("FindUsersByPhone", ctx, "+15551234567").Return([]models.User{{ID: "u1"}}, nil)

	id, err := svc.ResolveByPhone(ctx, "+1 555 123 4567")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	again, err := svc.ResolveByPhone(ctx, "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, id, again)
	db.AssertExpectations(t)
}

func TestResolveByPhoneInvalid(t *testing.T) {
	svc, db, _ := newService()

	_, err := svc.ResolveByPhone(ctx, "555-CALL-NOW")
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
	assert.Equal(t, "Invalid phone number", utils.UserMessage(err))
	db.AssertNotCalled(t, "FindUsersByPhone", mock.Anything, mock.Anything)
}

func TestResolveByPhoneNotRegistered(t *testing.T) {
	cases := map[string]struct {
		users []models.User
		err   error
	}{
		"no rows":      {users: []models.User{}},
		"many rows":    {users: []models.User{{ID: "u1"}, {ID: "u2"}}},
		"lookup error": {err: errors.New("connection reset")},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, db, _ := newService()
			if tc.err != nil {
				db.On("FindUsersByPhone", ctx, "+15551234567").Return(nil, tc.err)
			} else {
				db.On("FindUsersByPhone", ctx, "+15551234567").Return(tc.users, nil)
			}

			_, err := svc.ResolveByPhone(ctx, "+15551234567")
			assert.ErrorIs(t, err, identity.ErrNotRegistered)
			assert.Equal(t, "You may not be registered for VTHacks. Contact the organizers for assistance.", utils.UserMessage(err))
		})
	}
}

func TestRequestCode(t *testing.T) {
	svc, _, provider := newService()
	provider.On("SendCode", ctx, "+15551234567").Return(nil).Once()
	provider.On("SendCode", ctx, "+15557654321").Return(auth.ErrSendThrottled).Once()
	provider.On("SendCode", ctx, "+15550000000").Return(errors.New("smtp down")).Once()

	assert.NoError(t, svc.RequestCode(ctx, "+1 555 123 4567"))

	err := svc.RequestCode(ctx, "+15557654321")
	assert.ErrorIs(t, err, auth.ErrSendThrottled)
	assert.NotErrorIs(t, err, identity.ErrProvider)

	err = svc.RequestCode(ctx, "+15550000000")
	assert.ErrorIs(t, err, identity.ErrProvider)
	assert.Equal(t, "Failed to send verification code. Please try again.", utils.UserMessage(err))

	assert.ErrorIs(t, svc.RequestCode(ctx, "1"), utils.ErrInvalidInput)
	provider.AssertExpectations(t)
}

func TestVerifyCodeReconcilesUserID(t *testing.T) {
	svc, db, provider := newService()
	principal := auth.Principal{ID: "provider-id", Phone: "+15551234567"}
	provider.On("VerifyCode", ctx, "+15551234567", "123456").Return(principal, "token", nil)
	db.On("ReconcileUserID", ctx, "+15551234567", "provider-id").Return(nil)

	token, err := svc.VerifyCode(ctx, "+15551234567", "123456", "preprovisioned")
	require.NoError(t, err)
	assert.Equal(t, "token", token)
	db.AssertExpectations(t)
}

func TestVerifyCodeSkipsReconcileWhenIDsMatch(t *testing.T) {
	svc, db, provider := newService()
	principal := auth.Principal{ID: "u1", Phone: "+15551234567"}
	provider.On("VerifyCode", ctx, "+15551234567", "123456").Return(principal, "token", nil)

	_, err := svc.VerifyCode(ctx, "+15551234567", "123456", "u1")
	require.NoError(t, err)
	db.AssertNotCalled(t, "ReconcileUserID", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyCodeProviderFailure(t *testing.T) {
	svc, db, provider := newService()
	provider.On("VerifyCode", ctx, "+15551234567", "000000").Return(auth.Principal{}, "", auth.ErrInvalidCode)

	_, err := svc.VerifyCode(ctx, "+15551234567", "000000", "u1")
	assert.ErrorIs(t, err, identity.ErrProvider)
	assert.Equal(t, "Failed to verify verification code. Please try again.", utils.UserMessage(err))
	db.AssertNotCalled(t, "ReconcileUserID", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyCodeReconciliationFailureFailsLogin(t *testing.T) {
	svc, db, provider := newService()
	principal := auth.Principal{ID: "provider-id", Phone: "+15551234567"}
	provider.On("VerifyCode", ctx, "+15551234567", "123456").Return(principal, "token", nil)
	provider.On("SignOut", ctx, "token").Return(nil)
	db.On("ReconcileUserID", ctx, "+15551234567", "provider-id").Return(errors.New("deadlock detected"))

	token, err := svc.VerifyCode(ctx, "+15551234567", "123456", "preprovisioned")
	assert.ErrorIs(t, err, identity.ErrReconciliation)
	assert.NotErrorIs(t, err, identity.ErrProvider)
	assert.Equal(t, utils.ServerErrorMessage, utils.UserMessage(err))
	assert.Empty(t, token)
	provider.AssertCalled(t, "SignOut", ctx, "token")
}

func TestCurrentSession(t *testing.T) {
	svc, db, provider := newService()
	provider.On("CurrentPrincipal", ctx, "good").Return(&auth.Principal{ID: "u1"}, nil)
	provider.On("CurrentPrincipal", ctx, "orphan").Return(&auth.Principal{ID: "ghost"}, nil)
	provider.On("CurrentPrincipal", ctx, "revoked").Return(nil, auth.ErrRevoked)
	db.On("GetUserByID", ctx, "u1").Return(&models.User{ID: "u1", Name: "Ada", PhoneNumber: "+15551234567"}, nil)
	db.On("GetUserByID", ctx, "ghost").Return(nil, nil)

	session := svc.CurrentSession(ctx, "good")
	require.NotNil(t, session)
	assert.Equal(t, models.SessionUser{ID: "u1", Name: "Ada", PhoneNumber: "+15551234567"}, session.User)

	assert.Nil(t, svc.CurrentSession(ctx, "orphan"))
	assert.Nil(t, svc.CurrentSession(ctx, "revoked"))
	assert.Nil(t, svc.CurrentSession(ctx, ""))
}

func TestUpdateProfile(t *testing.T) {
	svc, db, _ := newService()
	session := &models.Session{User: models.SessionUser{ID: "u1"}}
	db.On("UpdateUserName", ctx, "u1", "Grace").Return(nil).Once()
	db.On("UpdateUserName", ctx, "u1", "Broken").Return(errors.New("permission denied")).Once()

	assert.NoError(t, svc.UpdateProfile(ctx, session, "Grace"))

	err := svc.UpdateProfile(ctx, session, "Broken")
	assert.ErrorIs(t, err, identity.ErrProfileUpdate)
	assert.Equal(t, "Failed to update profile", utils.UserMessage(err))

	assert.ErrorIs(t, svc.UpdateProfile(ctx, nil, "Grace"), utils.ErrUnauthenticated)
}
