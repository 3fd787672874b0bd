package domain

import "time"

// PositionOwner identifies the kind of entity a position record belongs to.
type PositionOwner string

const (
	PositionOwnerRide PositionOwner = "RIDE"
)

// Position is one append-only geo point tied to a ride and an actor.
// Records are never updated or deleted.
type Position struct {
	ID        string
	OwnerKind PositionOwner
	OwnerID   string
	ActorID   string
	Address   string
	Lat       float64
	Lng       float64
	IsRider   bool
	CreatedAt time.Time
}
