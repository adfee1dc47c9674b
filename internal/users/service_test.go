package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibill/pos-backend/pkg/access"
	"github.com/medibill/pos-backend/pkg/config"
	"github.com/medibill/pos-backend/pkg/db"
	"github.com/medibill/pos-backend/pkg/enums"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
	"github.com/medibill/pos-backend/pkg/logger"
	"github.com/medibill/pos-backend/pkg/security"
)

var fastArgon = config.PasswordConfig{
	ArgonMemoryKB:    8,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		Driver: config.DBDriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.AutoMigrate(context.Background()))

	repo := NewRepository(client.DB())
	svc, err := NewService(repo, fastArgon)
	require.NoError(t, err)
	return svc, repo
}

func TestCreateHashesPasswordAndDerivesUsername(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateUserInput{
		DisplayName: "Fatima Ali",
		Email:       "Fatima.Ali@medibill.com",
		Branch:      "North Branch",
		Role:        enums.RoleCashier,
		Password:    "cashier-pass",
	})
	require.NoError(t, err)
	assert.Empty(t, created.TempPassword)
	assert.Equal(t, "fatima.ali", created.User.Username)
	assert.Equal(t, "fatima.ali@medibill.com", created.User.Email)
	assert.True(t, created.User.IsActive)
	assert.Equal(t, access.Permissions(enums.RoleCashier), created.User.Permissions)

	stored, err := repo.FindByUsername(ctx, "fatima.ali")
	require.NoError(t, err)
	assert.NotEqual(t, "cashier-pass", stored.PasswordHash)
	ok, err := security.VerifyPassword("cashier-pass", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateGeneratesTempPassword(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateUserInput{
		Username:    "hassan",
		DisplayName: "Hassan Sheikh",
		Email:       "hassan.sheikh@medibill.com",
		Branch:      "South Branch",
		Role:        enums.RoleManager,
	})
	require.NoError(t, err)
	require.Len(t, created.TempPassword, tempPasswordLength)

	stored, err := repo.FindByUsername(ctx, "hassan")
	require.NoError(t, err)
	ok, err := security.VerifyPassword(created.TempPassword, stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []CreateUserInput{
		{Email: "x@medibill.com", Branch: "Main Branch", Role: enums.RoleCashier},
		{DisplayName: "X", Email: "not-an-email", Branch: "Main Branch", Role: enums.RoleCashier},
		{DisplayName: "X", Email: "x@medibill.com", Role: enums.RoleCashier},
		{DisplayName: "X", Email: "x@medibill.com", Branch: "Main Branch", Role: "pharmacist"},
	}
	for _, input := range cases {
		_, err := svc.Create(ctx, input)
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "input %+v", input)
	}
}

func TestCreateRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	input := CreateUserInput{DisplayName: "Ayesha Ahmed", Email: "ayesha.ahmed@medibill.com", Branch: "East Branch", Role: enums.RoleCashier, Password: "pw"}

	_, err := svc.Create(ctx, input)
	require.NoError(t, err)
	_, err = svc.Create(ctx, input)
	require.ErrorIs(t, err, ErrUserExists)
}

func TestListFiltersBySearchAndBranch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for _, u := range []CreateUserInput{
		{DisplayName: "Fatima Ali", Email: "fatima.ali@medibill.com", Branch: "North Branch", Role: enums.RoleCashier, Password: "pw"},
		{DisplayName: "Hassan Sheikh", Email: "hassan.sheikh@medibill.com", Branch: "South Branch", Role: enums.RoleManager, Password: "pw"},
		{DisplayName: "Muhammad Usman", Email: "muhammad.usman@medibill.com", Branch: "North Branch", Role: enums.RoleManager, Password: "pw"},
	} {
		_, err := svc.Create(ctx, u)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, ListFilter{Branch: "all"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	north, err := svc.List(ctx, ListFilter{Branch: "North Branch"})
	require.NoError(t, err)
	require.Len(t, north, 2)
	assert.Equal(t, "Fatima Ali", north[0].DisplayName)

	found, err := svc.List(ctx, ListFilter{Search: "SHEIKH"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, enums.RoleManager, found[0].Role)
}
