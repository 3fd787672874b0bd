package postgres

import (
	"context"
	"database/sql"

	"dispatch/internal/domain"
)

// PositionRepository is a PostgreSQL implementation of repository.PositionRepository.
type PositionRepository struct {
	q Querier
}

// NewPositionRepository creates a new PostgreSQL position repository.
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{q: db}
}

// NewPositionRepositoryWithTx creates a position repository using a transaction.
func NewPositionRepositoryWithTx(tx *sql.Tx) *PositionRepository {
	return &PositionRepository{q: tx}
}

// Append persists a new position record.
func (r *PositionRepository) Append(ctx context.Context, pos *domain.Position) error {
	query := `
		INSERT INTO positions (id, owner_kind, owner_id, actor_id, address, lat, lng, is_rider, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		pos.ID,
		pos.OwnerKind,
		pos.OwnerID,
		pos.ActorID,
		pos.Address,
		pos.Lat,
		pos.Lng,
		pos.IsRider,
		pos.CreatedAt,
	)

	return err
}

// ListByRide retrieves all positions logged for a ride, oldest first.
func (r *PositionRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.Position, error) {
	query := `
		SELECT id, owner_kind, owner_id, actor_id, address, lat, lng, is_rider, created_at
		FROM positions
		WHERE owner_kind = $1 AND owner_id = $2
		ORDER BY created_at ASC
	`

	rows, err := r.q.QueryContext(ctx, query, domain.PositionOwnerRide, rideID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		var pos domain.Position
		if err := rows.Scan(
			&pos.ID,
			&pos.OwnerKind,
			&pos.OwnerID,
			&pos.ActorID,
			&pos.Address,
			&pos.Lat,
			&pos.Lng,
			&pos.IsRider,
			&pos.CreatedAt,
		); err != nil {
			return nil, err
		}
		positions = append(positions, &pos)
	}
	return positions, rows.Err()
}
