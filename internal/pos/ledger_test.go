package pos

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/medibill/pos-backend/pkg/errors"
)

var gst = decimal.RequireFromString("0.17")

func paracetamol() Product {
	return Product{
		ID:           uuid.New(),
		Name:         "Paracetamol 500mg",
		Price:        decimal.NewFromInt(85),
		UnitsPerPack: 20,
		UnitType:     "tablets",
		Category:     "Analgesics",
		Stock:        150,
	}
}

func syrup() Product {
	return Product{
		ID:           uuid.New(),
		Name:         "Cough Syrup 100ml",
		Price:        decimal.NewFromInt(120),
		UnitsPerPack: 1,
		UnitType:     "bottles",
		Category:     "Cough & Cold",
		Stock:        30,
	}
}

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger(gst, WithAnnotator(func(Product) Annotation {
		return Annotation{Batch: "BT001", Expiry: "Dec 2025"}
	}))
	require.NoError(t, err)
	return l
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestWorkedExampleMergesAndTotals(t *testing.T) {
	l := newLedger(t)
	p := paracetamol()

	cart, err := l.AddItem(p, 10, "tablets")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Items[0].UnitPrice.Equal(dec("4.25")), "unit price %s", cart.Items[0].UnitPrice)
	assert.True(t, cart.Items[0].TotalPrice.Equal(dec("42.50")), "total price %s", cart.Items[0].TotalPrice)

	cart, err = l.AddItem(p, 5, "tablets")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 15, cart.Items[0].Quantity)
	assert.True(t, cart.Items[0].TotalPrice.Equal(dec("63.75")))

	assert.True(t, cart.Totals.Subtotal.Equal(dec("63.75")), "subtotal %s", cart.Totals.Subtotal)
	assert.True(t, cart.Totals.Tax.Equal(dec("10.8375")), "tax %s", cart.Totals.Tax)
	assert.True(t, cart.Totals.Total.Equal(dec("74.5875")), "total %s", cart.Totals.Total)
}

func TestDifferentUnitCreatesSeparateLine(t *testing.T) {
	l := newLedger(t)
	p := paracetamol()

	_, err := l.AddItem(p, 10, "tablets")
	require.NoError(t, err)
	cart, err := l.AddItem(p, 2, UnitPack)
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, "tablets", cart.Items[0].Unit)
	assert.Equal(t, UnitPack, cart.Items[1].Unit)
	assert.True(t, cart.Items[1].UnitPrice.Equal(dec("85")))
	assert.True(t, cart.Items[1].TotalPrice.Equal(dec("170")))
	assert.True(t, cart.Totals.Subtotal.Equal(dec("212.50")))
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	l := newLedger(t)
	for _, qty := range []int{0, -3} {
		_, err := l.AddItem(paracetamol(), qty, "tablets")
		require.ErrorIs(t, err, ErrInvalidQuantity)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	}
	assert.True(t, l.IsEmpty())
}

func TestQuantityIsCappedPerLine(t *testing.T) {
	l := newLedger(t)
	_, err := l.AddItem(paracetamol(), math.MaxInt, "tablets")
	require.ErrorIs(t, err, ErrInvalidQuantity)
	assert.True(t, l.IsEmpty())

	cart, err := l.AddItem(paracetamol(), MaxQuantity-1, "tablets")
	require.NoError(t, err)
	_, err = l.AddItem(paracetamol(), 2, "tablets")
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = l.UpdateQuantity(cart.Items[0].ID, MaxQuantity+1)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	cart = l.Snapshot()
	require.Len(t, cart.Items, 1)
	line := cart.Items[0]
	assert.Equal(t, MaxQuantity-1, line.Quantity)
	assert.True(t, line.TotalPrice.Equal(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))))
	assert.True(t, cart.Totals.Total.IsPositive())
}

func TestAddItemRejectsUnsupportedUnit(t *testing.T) {
	l := newLedger(t)
	_, err := l.AddItem(paracetamol(), 1, "bottles")
	require.ErrorIs(t, err, ErrUnsupportedUnit)
	_, err = l.AddItem(paracetamol(), 1, "")
	require.ErrorIs(t, err, ErrUnsupportedUnit)
	assert.Equal(t, 0, l.Len())
}

func TestAddItemRejectsBrokenProduct(t *testing.T) {
	l := newLedger(t)
	p := paracetamol()
	p.UnitsPerPack = 0
	_, err := l.AddItem(p, 1, "tablets")
	require.ErrorIs(t, err, ErrInvalidProduct)
}

func TestAddItemDoesNotTouchStock(t *testing.T) {
	l := newLedger(t)
	p := paracetamol()
	_, err := l.AddItem(p, 200, "tablets")
	require.NoError(t, err)
	assert.Equal(t, 150, p.Stock)
}

func TestUpdateQuantityRecomputesLine(t *testing.T) {
	l := newLedger(t)
	cart, err := l.AddItem(syrup(), 1, "bottles")
	require.NoError(t, err)
	id := cart.Items[0].ID

	cart, err = l.UpdateQuantity(id, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.True(t, cart.Items[0].TotalPrice.Equal(dec("360")))
}

func TestUpdateQuantityZeroRemovesExactlyOneLine(t *testing.T) {
	l := newLedger(t)
	_, err := l.AddItem(paracetamol(), 2, "tablets")
	require.NoError(t, err)
	cart, err := l.AddItem(syrup(), 1, "bottles")
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)

	cart, err = l.UpdateQuantity(cart.Items[0].ID, 0)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Cough Syrup 100ml", cart.Items[0].Name)

	cart, err = l.RemoveItem(cart.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Totals.Total.IsZero())
}

func TestUpdateQuantityNegativeRemoves(t *testing.T) {
	l := newLedger(t)
	cart, err := l.AddItem(syrup(), 2, "bottles")
	require.NoError(t, err)
	cart, err = l.UpdateQuantity(cart.Items[0].ID, -1)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestUpdateUnknownLineIsNotFound(t *testing.T) {
	l := newLedger(t)
	_, err := l.AddItem(syrup(), 1, "bottles")
	require.NoError(t, err)

	_, err = l.UpdateQuantity(uuid.New(), 4)
	require.ErrorIs(t, err, ErrLineItemNotFound)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = l.RemoveItem(uuid.New())
	require.ErrorIs(t, err, ErrLineItemNotFound)
	assert.Equal(t, 1, l.Len())
}

func TestSnapshotIsACopy(t *testing.T) {
	l := newLedger(t)
	cart, err := l.AddItem(syrup(), 1, "bottles")
	require.NoError(t, err)

	cart.Items[0].Quantity = 99
	again := l.Snapshot()
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestInsertionOrderIsPreserved(t *testing.T) {
	l := newLedger(t)
	names := []string{"A", "B", "C"}
	for _, name := range names {
		p := syrup()
		p.Name = name
		_, err := l.AddItem(p, 1, "bottles")
		require.NoError(t, err)
	}
	cart := l.Snapshot()
	for i, name := range names {
		assert.Equal(t, name, cart.Items[i].Name)
	}
}

func TestInstructionsAndAnnotation(t *testing.T) {
	l := newLedger(t)
	cart, err := l.AddItem(paracetamol(), 4, "tablets")
	require.NoError(t, err)
	cart, err = l.AddItem(paracetamol(), 1, UnitPack)
	require.NoError(t, err)

	assert.Equal(t, "Take 4 tablets as directed", cart.Items[0].Instructions)
	assert.Equal(t, "Take as directed", cart.Items[1].Instructions)
	assert.Equal(t, "BT001", cart.Items[0].Batch)
	assert.Equal(t, "Dec 2025", cart.Items[0].Expiry)
}

func TestDefaultAnnotatorPrefersCatalogBatch(t *testing.T) {
	expiry := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	p := paracetamol()
	p.Batch = "PCM2024001"
	p.Expiry = &expiry

	a := DefaultAnnotator(p)
	assert.Equal(t, "PCM2024001", a.Batch)
	assert.Equal(t, "Mar 2025", a.Expiry)

	p.Batch = ""
	p.Expiry = nil
	a = DefaultAnnotator(p)
	assert.Regexp(t, `^BT\d{3}$`, a.Batch)
	assert.Empty(t, a.Expiry)
}

func TestNewLedgerRejectsNegativeTax(t *testing.T) {
	_, err := NewLedger(dec("-0.01"))
	require.Error(t, err)
}

// Random add/update sequences must keep every line and the subtotal consistent.
func TestTotalsInvariantUnderRandomMutations(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	catalog := []Product{paracetamol(), syrup(), {
		ID:           uuid.New(),
		Name:         "Omeprazole 20mg",
		Price:        decimal.NewFromInt(180),
		UnitsPerPack: 14,
		UnitType:     "capsules",
	}}
	l := newLedger(t)

	for step := 0; step < 500; step++ {
		var (
			cart Cart
			err  error
		)
		if l.Len() == 0 || rng.IntN(3) > 0 {
			p := catalog[rng.IntN(len(catalog))]
			unit := p.UnitType
			if rng.IntN(2) == 0 {
				unit = UnitPack
			}
			cart, err = l.AddItem(p, rng.IntN(5)+1, unit)
		} else {
			items := l.Snapshot().Items
			target := items[rng.IntN(len(items))]
			cart, err = l.UpdateQuantity(target.ID, rng.IntN(8)-2)
		}
		require.NoError(t, err)

		sum := decimal.Zero
		for _, item := range cart.Items {
			require.GreaterOrEqual(t, item.Quantity, 1)
			require.True(t, item.TotalPrice.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))))
			sum = sum.Add(item.TotalPrice)
		}
		require.True(t, cart.Totals.Subtotal.Equal(sum))
		require.True(t, cart.Totals.Tax.Equal(sum.Mul(gst)))
		require.True(t, cart.Totals.Total.Equal(sum.Add(cart.Totals.Tax)))
	}
}

func TestReceiptOwnsItsLines(t *testing.T) {
	l := newLedger(t)
	_, err := l.AddItem(paracetamol(), 10, "tablets")
	require.NoError(t, err)
	cart := l.Snapshot()

	customer := &CustomerRef{ID: uuid.New(), Name: "Ahmad Khan", Phone: "+92 300 1234567"}
	receipt := IssueReceipt(cart, ReceiptDetails{Number: "RCP-20250101-001", Customer: customer, Cashier: "Dr. Ahmed Khan"})

	l.Reset()
	customer.Name = "changed"
	cart.Items[0].Quantity = 1

	assert.NotEqual(t, uuid.Nil, receipt.ID)
	require.Len(t, receipt.Items, 1)
	assert.Equal(t, 10, receipt.Items[0].Quantity)
	assert.Equal(t, 10, receipt.UnitsSold())
	assert.Equal(t, "Ahmad Khan", receipt.Customer.Name)
	assert.True(t, receipt.Total.Equal(dec("49.725")))
	assert.True(t, l.IsEmpty())
}

func TestSentinelsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrInvalidQuantity, ErrUnsupportedUnit))
	assert.False(t, errors.Is(ErrLineItemNotFound, ErrInvalidQuantity))
}
