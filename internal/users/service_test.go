package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/salesdesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/salesdesk-backend/pkg/errors"
)

func TestRepository_CreateAndFind(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	inactive := false
	created, err := repo.Create(ctx, CreateUserDTO{
		Email:        "dora@salesdesk.test",
		PasswordHash: "hash",
		Name:         "Dora",
		Role:         enums.UserRoleSales,
		IsActive:     &inactive,
	})
	require.NoError(t, err)

	found, err := repo.FindByEmail(ctx, "dora@salesdesk.test")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.False(t, found.IsActive)
	assert.Equal(t, enums.UserRoleSales, found.Role)

	require.NoError(t, repo.UpdatePasswordHash(ctx, found.ID, "rehashed"))
	reloaded, err := repo.FindByID(ctx, found.ID)
	require.NoError(t, err)
	assert.Equal(t, "rehashed", reloaded.PasswordHash)
}

func TestService_SetActive(t *testing.T) {
	conn := dbtest.Open(t)
	admin := dbtest.SeedUser(t, conn, enums.UserRoleAdmin)
	sales := dbtest.SeedUser(t, conn, enums.UserRoleSales)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	updated, err := svc.SetActive(ctx, admin.ID, sales.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = svc.SetActive(ctx, admin.ID, admin.ID, false)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))

	_, err = svc.SetActive(ctx, admin.ID, uuid.New(), true)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	all, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
