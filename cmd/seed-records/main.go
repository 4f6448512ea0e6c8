// seed-records loads a demo vendor, purchase order, goods receipt, and a
// reviewer account so uploaded invoices referencing PO-2024-0042 can run the
// full matching pipeline.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-records
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"invoiceflow/internal/config"
	"invoiceflow/internal/database"
	"invoiceflow/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	adminEmail       = "admin@example.com"
	adminPassword    = "admin123"
	reviewerEmail    = "reviewer@example.com"
	reviewerPassword = "reviewer123"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}

	if err := seedVendor(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed vendor: %v\n", err)
		os.Exit(1)
	}
	if err := seedPurchaseOrder(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed purchase order: %v\n", err)
		os.Exit(1)
	}
	if err := seedGoodsReceipt(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed goods receipt: %v\n", err)
		os.Exit(1)
	}
	if err := seedUser(ctx, db, "demo-admin", adminEmail, adminPassword, model.RoleAdmin); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed admin: %v\n", err)
		os.Exit(1)
	}
	if err := seedUser(ctx, db, "demo-reviewer", reviewerEmail, reviewerPassword, model.RoleReviewer); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed reviewer: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Seeded demo records: vendor VEND-001, PO-2024-0042, GRN-2024-0107, admin and reviewer accounts")
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

func seedVendor(ctx context.Context, db *gorm.DB) error {
	vendor := model.Vendor{
		VendorID:      "VEND-001",
		VendorName:    "Acme Industrial Supplies Ltd",
		TaxID:         "98-7654321",
		BankAccount:   "4417823509",
		RoutingNumber: "021000021",
		BankName:      "First National Bank",
		Address:       "450 Commerce Park Drive, Columbus, OH 43215",
		ContactEmail:  "billing@acme-industrial.example.com",
		ContactPhone:  "+1-614-555-0172",
		InvoiceHistory: mustJSON([]map[string]any{
			{"invoice_number": "INV-8818", "total": 12450.00, "paid_on": "2024-03-18"},
			{"invoice_number": "INV-9034", "total": 9873.25, "paid_on": "2024-05-02"},
		}),
		RiskProfile: mustJSON(map[string]any{
			"average_invoice_amount": 11160.0,
			"typical_frequency_days": 45,
			"bank_account_changes":   0,
		}),
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&vendor).Error
}

func seedPurchaseOrder(ctx context.Context, db *gorm.DB) error {
	po := model.PurchaseOrder{
		PONumber:   "PO-2024-0042",
		VendorID:   "VEND-001",
		VendorName: "Acme Industrial Supplies Ltd",
		PODate:     time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Total:      decimal.NewFromFloat(11893.50),
		Currency:   "USD",
		LineItems: mustJSON([]map[string]any{
			{"description": "Hydraulic pump assembly HP-220", "quantity": 3, "unit_price": 2450.00},
			{"description": "Pressure gauge 0-600 PSI", "quantity": 12, "unit_price": 87.50},
			{"description": "Industrial hose 25ft reinforced", "quantity": 20, "unit_price": 164.40},
		}),
		PaymentTerms:  "Net 30",
		DeliveryTerms: "FOB Destination",
		Status:        "OPEN",
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&po).Error
}

func seedGoodsReceipt(ctx context.Context, db *gorm.DB) error {
	grn := model.GoodsReceipt{
		GRNNumber:    "GRN-2024-0107",
		PONumber:     "PO-2024-0042",
		VendorID:     "VEND-001",
		DeliveryDate: time.Date(2024, 6, 19, 0, 0, 0, 0, time.UTC),
		ReceivedItems: mustJSON([]map[string]any{
			{"description": "Hydraulic pump assembly HP-220", "quantity_received": 3, "condition": "good"},
			{"description": "Pressure gauge 0-600 PSI", "quantity_received": 12, "condition": "good"},
			{"description": "Industrial hose 25ft reinforced", "quantity_received": 20, "condition": "good"},
		}),
		Inspector: "M. Torres",
		Notes:     "All items received complete, no damage.",
		Status:    "RECEIVED",
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&grn).Error
}

func seedUser(ctx context.Context, db *gorm.DB, username, email, password, role string) error {
	var existing model.User
	err := db.WithContext(ctx).First(&existing, "email = ?", email).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := model.User{
		ID:       uuid.New(),
		Username: username,
		Email:    email,
		Password: string(hashed),
		Role:     role,
	}
	return db.WithContext(ctx).Create(&user).Error
}
