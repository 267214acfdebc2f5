package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/salesdesk-backend/internal/users"
	"github.com/angelmondragon/salesdesk-backend/pkg/config"
	"github.com/angelmondragon/salesdesk-backend/pkg/db"
	"github.com/angelmondragon/salesdesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/salesdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/salesdesk-backend/pkg/errors"
	"github.com/angelmondragon/salesdesk-backend/pkg/security"
)

func TestRegisterService_BootstrapThenRegister(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewRegisterService(RegisterServiceParams{Tx: db.Wrap(conn), PasswordConfig: config.PasswordConfig{}})
	require.NoError(t, err)
	ctx := context.Background()

	admin, err := svc.Bootstrap(ctx, RegisterRequest{
		Name:     "Ada Admin",
		Email:    "Ada@SalesDesk.test",
		Password: "first-admin-1",
		Role:     enums.UserRoleSales,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleAdmin, admin.Role)
	assert.Equal(t, "ada@salesdesk.test", admin.Email)

	_, err = svc.Bootstrap(ctx, RegisterRequest{Name: "Eve", Email: "eve@salesdesk.test", Password: "second-admin-1"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeForbidden))

	seller, err := svc.Register(ctx, RegisterRequest{Name: "Sam", Email: "sam@salesdesk.test", Password: "sales-secret-1"})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleSales, seller.Role)
	assert.True(t, seller.IsActive)

	stored, err := users.NewRepository(conn).FindByEmail(ctx, "sam@salesdesk.test")
	require.NoError(t, err)
	ok, err := security.VerifyPassword("sales-secret-1", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Sam", Email: "SAM@salesdesk.test", Password: "sales-secret-1"})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestRegisterService_Validation(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewRegisterService(RegisterServiceParams{Tx: db.Wrap(conn)})
	require.NoError(t, err)

	cases := []RegisterRequest{
		{Name: "Sam", Email: " ", Password: "sales-secret-1"},
		{Name: " ", Email: "sam@salesdesk.test", Password: "sales-secret-1"},
		{Name: "Sam", Email: "sam@salesdesk.test", Password: "short"},
		{Name: "Sam", Email: "sam@salesdesk.test", Password: "sales-secret-1", Role: "owner"},
	}
	for _, req := range cases {
		_, err := svc.Register(context.Background(), req)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "request %+v", req)
	}
}
