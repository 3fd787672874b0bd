package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dispatchPoolKey     = "dispatch:pool"
	dispatchPoolChannel = "dispatch:pool:events"
)

// Pool removal reasons published to the broadcast channel.
const (
	PoolRemoveAccepted  = "ACCEPTED"
	PoolRemoveCancelled = "CANCELLED"
)

// PoolEvent is the payload published when a ride leaves the dispatch pool.
// Downstream broadcasters subscribe to stop offering the ride to drivers.
type PoolEvent struct {
	RideID string    `json:"ride_id"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// PoolStore tracks the set of rides currently offered to drivers and
// broadcasts membership changes.
type PoolStore struct {
	client *redis.Client
}

// NewPoolStore creates a new PoolStore.
func NewPoolStore(client *redis.Client) *PoolStore {
	return &PoolStore{client: client}
}

// Add places a ride in the dispatch pool.
func (s *PoolStore) Add(ctx context.Context, rideID string) error {
	return s.client.SAdd(ctx, dispatchPoolKey, rideID).Err()
}

// Remove takes a ride out of the pool and publishes the removal so that
// connected dispatch broadcasters stop offering it.
func (s *PoolStore) Remove(ctx context.Context, rideID, reason string) error {
	if err := s.client.SRem(ctx, dispatchPoolKey, rideID).Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(PoolEvent{
		RideID: rideID,
		Reason: reason,
		At:     time.Now(),
	})
	if err != nil {
		return err
	}

	return s.client.Publish(ctx, dispatchPoolChannel, payload).Err()
}
