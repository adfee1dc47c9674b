// Package seed loads the demo catalog, customers and staff accounts into an
// empty database.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medibill/pos-backend/pkg/config"
	"github.com/medibill/pos-backend/pkg/db/models"
	"github.com/medibill/pos-backend/pkg/enums"
	"github.com/medibill/pos-backend/pkg/logger"
	"github.com/medibill/pos-backend/pkg/security"
)

// Result counts the rows each section inserted.
type Result struct {
	Products  int64
	Customers int64
	Users     int64
}

// Run inserts the demo data. It is safe to run repeatedly: products and users
// are skipped on barcode/username conflicts and customers are only seeded
// into an empty table. Every section runs even when an earlier one fails.
func Run(ctx context.Context, conn *gorm.DB, password config.PasswordConfig, logg *logger.Logger) (Result, error) {
	if conn == nil {
		return Result{}, fmt.Errorf("database connection required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	tx := conn.WithContext(ctx)

	var (
		result Result
		errs   error
		n      int64
		err    error
	)
	n, err = seedProducts(tx)
	result.Products = n
	errs = multierr.Append(errs, err)

	n, err = seedCustomers(tx)
	result.Customers = n
	errs = multierr.Append(errs, err)

	n, err = seedUsers(tx, password)
	result.Users = n
	errs = multierr.Append(errs, err)

	logg.Info(logg.WithFields(ctx, map[string]any{
		"products":  result.Products,
		"customers": result.Customers,
		"users":     result.Users,
	}), "seed.demo.completed")
	return result, errs
}

func seedProducts(tx *gorm.DB) (int64, error) {
	rows := Products()
	res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "barcode"}}, DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return 0, fmt.Errorf("seed products: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func seedCustomers(tx *gorm.DB) (int64, error) {
	var existing int64
	if err := tx.Model(&models.Customer{}).Count(&existing).Error; err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	if existing > 0 {
		return 0, nil
	}
	rows := Customers()
	res := tx.Create(&rows)
	if res.Error != nil {
		return 0, fmt.Errorf("seed customers: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func seedUsers(tx *gorm.DB, password config.PasswordConfig) (int64, error) {
	accounts := DemoAccounts()
	rows := make([]models.User, 0, len(accounts))
	var errs error
	for _, account := range accounts {
		hash, err := security.HashPassword(account.Password, password)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("hash password for %s: %w", account.Username, err))
			continue
		}
		rows = append(rows, models.User{
			Username:     account.Username,
			DisplayName:  account.DisplayName,
			Email:        account.Username + "@medibill.local",
			Branch:       account.Branch,
			Role:         account.Role,
			PasswordHash: hash,
			IsActive:     true,
		})
	}
	if len(rows) == 0 {
		return 0, errs
	}
	res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "username"}}, DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return 0, multierr.Append(errs, fmt.Errorf("seed users: %w", res.Error))
	}
	return res.RowsAffected, errs
}

// Account is a demo sign-in.
type Account struct {
	Username    string
	Password    string
	DisplayName string
	Branch      string
	Role        enums.Role
}

func DemoAccounts() []Account {
	return []Account{
		{Username: "admin", Password: "admin123", DisplayName: "Dr. Ahmed Khan", Branch: "Main Branch", Role: enums.RoleAdmin},
		{Username: "manager", Password: "manager123", DisplayName: "Fatima Ali", Branch: "North Branch", Role: enums.RoleManager},
		{Username: "cashier", Password: "cashier123", DisplayName: "Hassan Sheikh", Branch: "South Branch", Role: enums.RoleCashier},
	}
}

func Products() []models.Product {
	type row struct {
		name, category, batch, expiry, supplier, barcode, unitType string
		price, stock, minStock, unitsPerPack                       int
		rx                                                         bool
	}
	data := []row{
		{"Paracetamol 500mg", "Analgesics", "BT001", "2025-03-15", "ABC Pharma", "1234567890123", "tablets", 85, 150, 50, 20, false},
		{"Amoxicillin 250mg", "Antibiotics", "BT002", "2025-04-20", "XYZ Medical", "2345678901234", "capsules", 120, 25, 30, 10, true},
		{"Vitamin D3 1000IU", "Vitamins", "BT003", "2025-06-10", "Health Plus", "3456789012345", "tablets", 150, 45, 25, 30, false},
		{"Ibuprofen 400mg", "Analgesics", "BT004", "2025-02-28", "ABC Pharma", "4567890123456", "tablets", 95, 5, 40, 15, false},
		{"Omeprazole 20mg", "Gastric", "BT005", "2025-08-15", "Med Solutions", "5678901234567", "capsules", 180, 60, 30, 14, true},
		{"Cough Syrup 100ml", "Cough & Cold", "BT006", "2025-05-10", "ABC Pharma", "6789012345678", "bottles", 120, 30, 20, 1, false},
		{"Eye Drops 10ml", "Ophthalmic", "BT007", "2025-07-20", "Eye Care Plus", "7890123456789", "bottles", 85, 40, 25, 1, false},
		{"Insulin Injection", "Diabetes", "BT008", "2025-01-15", "Diabetes Care", "8901234567890", "vials", 450, 15, 20, 1, true},
	}
	out := make([]models.Product, 0, len(data))
	for _, d := range data {
		out = append(out, models.Product{
			Name:                 d.name,
			Barcode:              d.barcode,
			Category:             d.category,
			Price:                decimal.NewFromInt(int64(d.price)),
			UnitsPerPack:         d.unitsPerPack,
			UnitType:             d.unitType,
			RequiresPrescription: d.rx,
			Stock:                d.stock,
			MinStock:             d.minStock,
			Batch:                d.batch,
			Supplier:             d.supplier,
			ExpiryDate:           day(d.expiry),
		})
	}
	return out
}

func Customers() []models.Customer {
	type row struct {
		name, phone, email, address, lastVisit string
		purchases, points                      int
		vip                                    bool
	}
	data := []row{
		{"Ahmad Khan", "+92 300 1234567", "ahmad.khan@email.com", "Block A, Gulberg, Lahore", "2024-01-15", 45230, 1250, true},
		{"Fatima Ali", "+92 301 2345678", "fatima.ali@email.com", "DHA Phase 5, Karachi", "2024-01-14", 32100, 890, true},
		{"Hassan Sheikh", "+92 302 3456789", "hassan.sheikh@email.com", "F-8, Islamabad", "2024-01-13", 18900, 420, false},
		{"Ayesha Ahmed", "+92 303 4567890", "ayesha.ahmed@email.com", "Saddar, Rawalpindi", "2024-01-12", 12500, 310, false},
		{"Muhammad Usman", "+92 304 5678901", "m.usman@email.com", "Cantt, Lahore", "2024-01-10", 8750, 185, false},
	}
	out := make([]models.Customer, 0, len(data))
	for _, d := range data {
		out = append(out, models.Customer{
			Name:           d.name,
			Phone:          d.phone,
			Email:          d.email,
			Address:        d.address,
			TotalPurchases: decimal.NewFromInt(int64(d.purchases)),
			LoyaltyPoints:  d.points,
			IsVIP:          d.vip,
			LastVisit:      day(d.lastVisit),
		})
	}
	return out
}

func day(value string) *time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &t
}
