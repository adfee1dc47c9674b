package receipts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medibill/pos-backend/internal/pos"
	"github.com/medibill/pos-backend/pkg/config"
	"github.com/medibill/pos-backend/pkg/db"
	"github.com/medibill/pos-backend/pkg/enums"
	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
	"github.com/medibill/pos-backend/pkg/logger"
	"github.com/medibill/pos-backend/pkg/pagination"
)

var day = time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) Service {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		Driver: config.DBDriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.AutoMigrate(context.Background()))

	svc, err := NewService(NewRepository(client.DB()), logger.Nop())
	require.NoError(t, err)
	return svc
}

var paracetamol = pos.Product{
	ID:           uuid.New(),
	Name:         "Paracetamol 500mg",
	Price:        decimal.NewFromInt(85),
	UnitsPerPack: 20,
	UnitType:     "tablets",
}

var syrup = pos.Product{
	ID:           uuid.New(),
	Name:         "Cough Syrup 100ml",
	Price:        decimal.NewFromInt(120),
	UnitsPerPack: 1,
	UnitType:     "bottles",
}

func issue(t *testing.T, seq int, at time.Time, customer *pos.CustomerRef) pos.Receipt {
	t.Helper()
	ledger, err := pos.NewLedger(decimal.RequireFromString("0.17"))
	require.NoError(t, err)
	_, err = ledger.AddItem(paracetamol, 10, "tablets")
	require.NoError(t, err)
	_, err = ledger.AddItem(syrup, 2, "bottles")
	require.NoError(t, err)

	cart := ledger.Snapshot()
	return pos.IssueReceipt(cart, pos.ReceiptDetails{
		Number:        fmt.Sprintf("RCP-%s-%03d", at.Format("20060102"), seq),
		IssuedAt:      at,
		PaymentMethod: enums.PaymentMethodCash,
		PaymentStatus: enums.PaymentStatusCompleted,
		Tendered:      decimal.NewFromInt(400),
		Change:        decimal.NewFromInt(400).Sub(cart.Totals.Total),
		Customer:      customer,
		Cashier:       "Cashier User",
		Currency:      "PKR",
	})
}

func TestArchiveAndReprint(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	customer := &pos.CustomerRef{ID: uuid.New(), Name: "Ahmad Khan", Phone: "+92 300 1234567", Email: "ahmad.khan@email.com"}
	original := issue(t, 1, day, customer)

	require.NoError(t, svc.Archive(ctx, original))

	got, err := svc.GetByNumber(ctx, "RCP-20250115-001")
	require.NoError(t, err)

	assert.Equal(t, original.ID, got.ID)
	assert.True(t, got.IssuedAt.Equal(day))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Paracetamol 500mg", got.Items[0].Name)
	assert.Equal(t, "Cough Syrup 100ml", got.Items[1].Name)
	assert.Equal(t, original.Items[0].ID, got.Items[0].ID)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.RequireFromString("4.25")))
	assert.True(t, got.Subtotal.Equal(decimal.RequireFromString("282.5")), "subtotal %s", got.Subtotal)
	assert.True(t, got.Total.Equal(original.Total), "total %s", got.Total)
	assert.True(t, got.Change.Equal(original.Change))
	assert.True(t, got.TaxRate.Equal(decimal.RequireFromString("0.17")))
	require.NotNil(t, got.Customer)
	assert.Equal(t, customer.ID, got.Customer.ID)
	assert.Equal(t, "Ahmad Khan", got.Customer.Name)
	assert.Empty(t, got.Customer.Email)
	assert.Equal(t, "PKR", got.Currency)
}

func TestArchiveRejectsDuplicateNumber(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Archive(ctx, issue(t, 1, day, nil)))

	err := svc.Archive(ctx, issue(t, 1, day, nil))
	require.ErrorIs(t, err, ErrDuplicateReceipt)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))
}

func TestArchiveRequiresNumber(t *testing.T) {
	svc := newTestService(t)
	r := issue(t, 1, day, nil)
	r.Number = ""
	err := svc.Archive(context.Background(), r)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestGetUnknownReceipt(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.GetByNumber(context.Background(), "RCP-20250115-999")
	require.ErrorIs(t, err, ErrReceiptNotFound)
}

func TestListPagesNewestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		require.NoError(t, svc.Archive(ctx, issue(t, i, day.Add(time.Duration(i)*time.Minute), nil)))
	}

	var numbers []string
	cursor := ""
	for pages := 0; pages < 5; pages++ {
		page, err := svc.List(ctx, ListParams{Params: pagination.Params{Limit: 2, Cursor: cursor}})
		require.NoError(t, err)
		for _, item := range page.Items {
			numbers = append(numbers, item.Number)
			assert.Equal(t, 2, item.Lines)
			assert.Equal(t, 12, item.Units)
		}
		cursor = page.Cursor
		if cursor == "" {
			break
		}
	}
	assert.Equal(t, []string{
		"RCP-20250115-005", "RCP-20250115-004", "RCP-20250115-003", "RCP-20250115-002", "RCP-20250115-001",
	}, numbers)
}

func TestListByWindowAndCustomer(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	ahmad := &pos.CustomerRef{ID: uuid.New(), Name: "Ahmad Khan"}

	require.NoError(t, svc.Archive(ctx, issue(t, 1, day.AddDate(0, 0, -1), ahmad)))
	require.NoError(t, svc.Archive(ctx, issue(t, 1, day, ahmad)))
	require.NoError(t, svc.Archive(ctx, issue(t, 2, day.Add(time.Hour), nil)))

	from, to := day.Truncate(24*time.Hour), day.Truncate(24*time.Hour).AddDate(0, 0, 1)
	page, err := svc.List(ctx, ListParams{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "RCP-20250115-002", page.Items[0].Number)
	assert.Empty(t, page.Cursor)

	history, err := svc.List(ctx, ListParams{CustomerID: &ahmad.ID})
	require.NoError(t, err)
	require.Len(t, history.Items, 2)
	assert.Equal(t, "RCP-20250115-001", history.Items[0].Number)
	assert.Equal(t, "RCP-20250114-001", history.Items[1].Number)
	assert.Equal(t, "Ahmad Khan", history.Items[0].CustomerName)
}

func TestListValidatesInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, ListParams{Params: pagination.Params{Cursor: "badcursor"}})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	from, to := day, day.Add(-time.Hour)
	_, err = svc.List(ctx, ListParams{From: &from, To: &to})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
