package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// DeletionRequestRepository stores deletion intents awaiting an admin.
type DeletionRequestRepository interface {
	Create(ctx context.Context, d *domain.DeletionRequest) error
	List(ctx context.Context, limit, offset int) ([]domain.DeletionRequest, error)
}

type deletionRequestRepository struct {
	pool *pgxpool.Pool
}

// NewDeletionRequestRepository builds repository.
func NewDeletionRequestRepository(pool *pgxpool.Pool) DeletionRequestRepository {
	return &deletionRequestRepository{pool: pool}
}

func (r *deletionRequestRepository) Create(ctx context.Context, d *domain.DeletionRequest) error {
	const query = `
        INSERT INTO deletion_requests (id, request_id, requested_by, reason, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := r.pool.Exec(ctx, query, d.ID, d.RequestID, d.RequestedBy, d.Reason, d.CreatedAt)
	return err
}

func (r *deletionRequestRepository) List(ctx context.Context, limit, offset int) ([]domain.DeletionRequest, error) {
	limit, offset = pageBounds(limit, offset, 50)
	query := fmt.Sprintf(`
        SELECT id, request_id, requested_by, reason, created_at
        FROM deletion_requests ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.DeletionRequest{}
	for rows.Next() {
		var d domain.DeletionRequest
		if err := rows.Scan(&d.ID, &d.RequestID, &d.RequestedBy, &d.Reason, &d.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}
