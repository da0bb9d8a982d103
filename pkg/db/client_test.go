package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEntry struct {
	ID    int
	Label string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testEntry{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testEntry{Label: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testEntry{Label: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestAdvisoryLockKeyIsStable(t *testing.T) {
	tenant := uuid.MustParse("3f9d8b52-6f46-4f83-9f14-2b8e8b6c9d01")
	a := AdvisoryLockKey(tenant, "ledger:payments")
	b := AdvisoryLockKey(tenant, "ledger:payments")
	if a != b {
		t.Fatalf("expected stable key, got %d and %d", a, b)
	}
	if a == AdvisoryLockKey(tenant, "ledger:insurance_fund") {
		t.Fatal("expected different namespaces to produce different keys")
	}
	if a == AdvisoryLockKey(uuid.New(), "ledger:payments") {
		t.Fatal("expected different tenants to produce different keys")
	}
}

func TestAcquireTxAdvisoryLockNoopOnSqlite(t *testing.T) {
	db := newTestDB(t)
	if err := AcquireTxAdvisoryLock(db, uuid.New(), "ledger:payments"); err != nil {
		t.Fatalf("expected no-op on sqlite, got %v", err)
	}
}
