package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-companion/internal/database/dbtest"
	"ms-companion/internal/identity/db"
	"ms-companion/internal/models"
)

func setupTestDB(t *testing.T) *db.DB {
	bunDB := dbtest.NewSQLite(t)
	return &db.DB{Admin: bunDB, User: bunDB}
}

func TestFindUsersByPhone(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	dbtest.InsertUser(t, d.Admin, "u1", "Ada", "+15551234567")

	users, err := d.FindUsersByPhone(ctx, "+15551234567")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].ID)

	users, err = d.FindUsersByPhone(ctx, "+15550000000")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestGetUserByID(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	dbtest.InsertUser(t, d.Admin, "u1", "Ada", "+15551234567")

	user, err := d.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Ada", user.Name)

	user, err = d.GetUserByID(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestReconcileUserID(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	dbtest.InsertUser(t, d.Admin, "preprovisioned", "Ada", "+15551234567")

	require.NoError(t, d.ReconcileUserID(ctx, "+15551234567", "provider-id"))
	assert.Equal(t, 1, dbtest.Count(t, d.Admin, (*models.User)(nil), "id = ?", "provider-id"))
	assert.Equal(t, 0, dbtest.Count(t, d.Admin, (*models.User)(nil), "id = ?", "preprovisioned"))

	// second run is a no-op
	require.NoError(t, d.ReconcileUserID(ctx, "+15551234567", "provider-id"))
	assert.Equal(t, 1, dbtest.Count(t, d.Admin, (*models.User)(nil), ""))
}

func TestUpdateUserName(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	dbtest.InsertUser(t, d.Admin, "u1", "Ada", "+15551234567")

	require.NoError(t, d.UpdateUserName(ctx, "u1", "Ada Lovelace"))

	user, err := d.GetUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.Name)
}
