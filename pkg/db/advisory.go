package db

import (
	"hash/fnv"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdvisoryLockKey folds a tenant and a lock namespace into the signed
// 64-bit key space pg_advisory_xact_lock expects.
func AdvisoryLockKey(tenantID uuid.UUID, namespace string) int64 {
	h := fnv.New64a()
	_, _ = h.Write(tenantID[:])
	_, _ = h.Write([]byte(namespace))
	return int64(h.Sum64())
}

// AcquireTxAdvisoryLock takes a transaction-scoped advisory lock. The lock
// is released when the surrounding transaction commits or rolls back.
// Non-postgres dialects (sqlite in tests) have no advisory locks; callers
// there are single-writer so the guard degrades to a no-op.
func AcquireTxAdvisoryLock(tx *gorm.DB, tenantID uuid.UUID, namespace string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", AdvisoryLockKey(tenantID, namespace)).Error
}
