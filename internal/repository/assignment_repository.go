package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	RequestID    *string
	TechnicianID *string
	Limit        int
	Offset       int
}

// AssignmentRepository reads and prunes the assignment audit log. Entries
// are written through RequestRepository so they commit with the request.
type AssignmentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Assignment, error)
	List(ctx context.Context, filter AssignmentFilter) ([]domain.Assignment, error)
	// Latest returns the most recent entry recorded for a request.
	Latest(ctx context.Context, requestID string) (*domain.Assignment, error)
	Delete(ctx context.Context, id string) error
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository builds repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

func insertAssignment(ctx context.Context, q querier, a *domain.Assignment) error {
	const query = `
        INSERT INTO assignments (id, request_id, technician_id, assigned_by, assigned_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := q.Exec(ctx, query, a.ID, a.RequestID, a.TechnicianID, a.AssignedBy, a.AssignedAt)
	return err
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string) (*domain.Assignment, error) {
	const query = `
        SELECT id, request_id, technician_id, assigned_by, assigned_at
        FROM assignments WHERE id=$1`
	var a domain.Assignment
	if err := r.pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.RequestID, &a.TechnicianID, &a.AssignedBy, &a.AssignedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]domain.Assignment, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.RequestID != nil {
		args = append(args, *filter.RequestID)
		clauses = append(clauses, fmt.Sprintf("request_id=$%d", len(args)))
	}
	if filter.TechnicianID != nil {
		args = append(args, *filter.TechnicianID)
		clauses = append(clauses, fmt.Sprintf("technician_id=$%d", len(args)))
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset, 100)
	query := fmt.Sprintf(`
        SELECT id, request_id, technician_id, assigned_by, assigned_at
        FROM assignments WHERE %s ORDER BY assigned_at ASC, id ASC LIMIT %d OFFSET %d`,
		strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Assignment{}
	for rows.Next() {
		var a domain.Assignment
		if err := rows.Scan(&a.ID, &a.RequestID, &a.TechnicianID, &a.AssignedBy, &a.AssignedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *assignmentRepository) Latest(ctx context.Context, requestID string) (*domain.Assignment, error) {
	const query = `
        SELECT id, request_id, technician_id, assigned_by, assigned_at
        FROM assignments WHERE request_id=$1 ORDER BY assigned_at DESC, id DESC LIMIT 1`
	var a domain.Assignment
	if err := r.pool.QueryRow(ctx, query, requestID).Scan(&a.ID, &a.RequestID, &a.TechnicianID, &a.AssignedBy, &a.AssignedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM assignments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
