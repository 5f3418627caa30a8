// Package dbtest opens in-memory sqlite databases carrying the application
// schema so repository and service tests run without Postgres.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db"
)

var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		address TEXT,
		phone_number TEXT,
		is_verified BOOLEAN NOT NULL DEFAULT 0,
		first_login BOOLEAN NOT NULL DEFAULT 0,
		last_login_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_users_email ON users (email)`,
	`CREATE TABLE media (
		id TEXT PRIMARY KEY,
		object_key TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		uploaded_by TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		price NUMERIC NOT NULL,
		old_price NUMERIC,
		image_id TEXT NOT NULL,
		category TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		code TEXT NOT NULL,
		support_percentage INTEGER NOT NULL DEFAULT 5,
		sold INTEGER NOT NULL DEFAULT 0,
		keywords TEXT,
		deleted BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE pets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		age INTEGER NOT NULL,
		species TEXT NOT NULL,
		coat_color TEXT NOT NULL,
		sex TEXT NOT NULL,
		breed TEXT NOT NULL,
		vaccinated BOOLEAN NOT NULL,
		health_status TEXT NOT NULL,
		image_id TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1,
		location TEXT NOT NULL,
		keywords TEXT,
		status TEXT NOT NULL DEFAULT 'available',
		deleted BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE cart_items (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		category TEXT,
		added_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_cart_items_user_product ON cart_items (user_id, product_id)`,
	`CREATE TABLE cart_pets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		pet_id TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 1,
		status TEXT NOT NULL DEFAULT 'pending',
		added_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_cart_pets_user_pet ON cart_pets (user_id, pet_id)`,
	`CREATE TABLE adoption_requests (
		id TEXT PRIMARY KEY,
		pet_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		cccd TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		count_day INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_adoption_requests_approved_pet_user ON adoption_requests (pet_id, user_id) WHERE status = 'approved'`,
	`CREATE TABLE invoices (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		street TEXT NOT NULL,
		ward TEXT NOT NULL,
		district TEXT NOT NULL,
		city TEXT NOT NULL,
		amount INTEGER NOT NULL,
		shipping_fee INTEGER NOT NULL,
		total_amount INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'Pending',
		order_code INTEGER NOT NULL,
		provider TEXT NOT NULL,
		checkout_url TEXT,
		paid_at DATETIME,
		cancelled_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_invoices_order_code ON invoices (order_code)`,
	`CREATE TABLE invoice_items (
		id TEXT PRIMARY KEY,
		invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		cart_item_id TEXT REFERENCES cart_items(id) ON DELETE SET NULL,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price NUMERIC NOT NULL,
		category TEXT
	)`,
	`CREATE TABLE funds (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		amount INTEGER NOT NULL,
		date_received DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		order_code INTEGER NOT NULL,
		provider TEXT NOT NULL,
		checkout_url TEXT,
		approved_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_funds_order_code ON funds (order_code)`,
	`CREATE TABLE payment_events (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		order_code INTEGER,
		code TEXT NOT NULL,
		reference TEXT,
		outcome TEXT NOT NULL,
		target TEXT,
		payload BLOB NOT NULL,
		received_at DATETIME
	)`,
}

// Open returns a fresh database private to t with every table created.
// Foreign keys are enforced, so only tables declaring REFERENCES are checked.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared&_foreign_keys=1", name, uuid.NewString()[:8])
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// OpenClient wraps Open in a db.Client.
func OpenClient(t *testing.T) *db.Client {
	t.Helper()
	return db.NewFromConn(Open(t))
}
