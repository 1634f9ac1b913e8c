// Command seed-db loads a development dataset: users for each role, an
// approved store, a small catalog with discount rules, and a pair of coupons.
// Every insert is idempotent, so the command can run repeatedly.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bazarlabs/bazar/internal/repository"
)

// Fixed IDs keep reruns idempotent and make the dataset addressable from
// integration tests and local API calls.
const (
	customerID = "4f9b3f52-0000-4000-8000-000000000001"
	sellerID   = "4f9b3f52-0000-4000-8000-000000000002"
	staffID    = "4f9b3f52-0000-4000-8000-000000000003"

	storeID    = "7a1c2e90-0000-4000-8000-000000000001"
	categoryID = "9d4e5f10-0000-4000-8000-000000000001"

	productWidgetID = "1b2c3d40-0000-4000-8000-000000000001"
	productGizmoID  = "1b2c3d40-0000-4000-8000-000000000002"

	discountSpringID = "5e6f7a80-0000-4000-8000-000000000001"

	couponWelcomeID = "8c9d0e10-0000-4000-8000-000000000001"
	couponSave10ID  = "8c9d0e10-0000-4000-8000-000000000002"

	addressID = "2d3e4f50-0000-4000-8000-000000000001"
)

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.Migrate(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Foreign keys dictate the order: users before stores and addresses,
	// stores and categories before products, products before discount links.
	steps := []struct {
		name string
		fn   func(context.Context, *pgxpool.Pool) error
	}{
		{"users", seedUsers},
		{"store", seedStore},
		{"catalog", seedCatalog},
		{"discounts", seedDiscounts},
		{"coupons", seedCoupons},
	}
	for _, step := range steps {
		slog.Info("seeding", slog.String("step", step.name))
		if err := step.fn(ctx, pool); err != nil {
			return errors.Wrap(err, "seed "+step.name)
		}
	}

	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) error {
	const insertUserSQL = `INSERT INTO users (id, email, role)
		VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`

	users := []struct {
		id, email, role string
	}{
		{customerID, "customer@example.com", "customer"},
		{sellerID, "seller@example.com", "seller"},
		{staffID, "staff@example.com", "staff"},
	}
	for _, u := range users {
		if _, err := pool.Exec(ctx, insertUserSQL, u.id, u.email, u.role); err != nil {
			return errors.Wrapf(err, "insert user %s", u.email)
		}
	}

	const insertAddressSQL = `INSERT INTO addresses (id, user_id, line1, city, postal_code, country, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE) ON CONFLICT (id) DO NOTHING`
	_, err := pool.Exec(ctx, insertAddressSQL,
		addressID, customerID, "1 Market St", "Springfield", "12345", "US")
	return errors.Wrap(err, "insert address")
}

func seedStore(ctx context.Context, pool *pgxpool.Pool) error {
	const insertStoreSQL = `INSERT INTO stores (id, seller_id, name, slug, approved, approved_at)
		VALUES ($1, $2, $3, $4, TRUE, $5) ON CONFLICT (id) DO NOTHING`
	_, err := pool.Exec(ctx, insertStoreSQL,
		storeID, sellerID, "Acme Goods", "acme-goods", time.Now())
	return err
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	const insertCategorySQL = `INSERT INTO categories (id, name, slug)
		VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`
	if _, err := pool.Exec(ctx, insertCategorySQL, categoryID, "Gadgets", "gadgets"); err != nil {
		return errors.Wrap(err, "insert category")
	}

	const insertProductSQL = `INSERT INTO products
		(id, store_id, category_id, name, slug, description, price, stock_quantity, active, approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, TRUE)
		ON CONFLICT (id) DO NOTHING`

	products := []struct {
		id, name, slug, description, price string
		stock                              int
	}{
		{productWidgetID, "Widget", "widget", "A dependable widget.", "100.00", 10},
		{productGizmoID, "Gizmo", "gizmo", "A curious gizmo.", "49.90", 25},
	}
	for _, p := range products {
		_, err := pool.Exec(ctx, insertProductSQL,
			p.id, storeID, categoryID, p.name, p.slug, p.description, p.price, p.stock)
		if err != nil {
			return errors.Wrapf(err, "insert product %s", p.slug)
		}
	}
	return nil
}

func seedDiscounts(ctx context.Context, pool *pgxpool.Pool) error {
	const insertDiscountSQL = `INSERT INTO discounts (id, name, kind, value, start_date, end_date, active, priority)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7) ON CONFLICT (id) DO NOTHING`

	now := time.Now()
	_, err := pool.Exec(ctx, insertDiscountSQL,
		discountSpringID, "Spring Sale", "percentage", "25",
		now.Add(-24*time.Hour), now.Add(30*24*time.Hour), 1)
	if err != nil {
		return errors.Wrap(err, "insert discount")
	}

	const linkSQL = `INSERT INTO discount_products (discount_id, product_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`
	_, err = pool.Exec(ctx, linkSQL, discountSpringID, productWidgetID)
	return errors.Wrap(err, "link discount")
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	const insertCouponSQL = `INSERT INTO coupons
		(id, code, kind, value, min_purchase, start_date, end_date, usage_limit, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		ON CONFLICT (id) DO NOTHING`

	now := time.Now()
	from := now.Add(-24 * time.Hour)
	until := now.Add(365 * 24 * time.Hour)

	coupons := []struct {
		id, code, kind, value, minPurchase string
		usageLimit                         *int
	}{
		{couponWelcomeID, "WELCOME20", "fixed", "20.00", "0", nil},
		{couponSave10ID, "SAVE10", "percentage", "10", "50.00", intPtr(1000)},
	}
	for _, c := range coupons {
		_, err := pool.Exec(ctx, insertCouponSQL,
			c.id, c.code, c.kind, c.value, c.minPurchase, from, until, c.usageLimit)
		if err != nil {
			return errors.Wrapf(err, "insert coupon %s", c.code)
		}
	}
	return nil
}

func intPtr(v int) *int { return &v }
