package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error)
	ReleaseRideLock(ctx context.Context, rideID string) error
}

// PoolStoreInterface defines the interface for dispatch pool membership.
type PoolStoreInterface interface {
	Add(ctx context.Context, rideID string) error
	Remove(ctx context.Context, rideID, reason string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface = (*LockStore)(nil)
	_ PoolStoreInterface = (*PoolStore)(nil)
)
