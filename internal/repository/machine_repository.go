package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// MachineRepository manages equipment records.
type MachineRepository interface {
	Create(ctx context.Context, machine *domain.Machine) error
	Update(ctx context.Context, machine *domain.Machine) error
	GetByID(ctx context.Context, id string) (*domain.Machine, error)
	List(ctx context.Context, limit, offset int) ([]domain.Machine, error)
	Delete(ctx context.Context, id string) error
}

type machineRepository struct {
	pool *pgxpool.Pool
}

// NewMachineRepository builds repository.
func NewMachineRepository(pool *pgxpool.Pool) MachineRepository {
	return &machineRepository{pool: pool}
}

func (r *machineRepository) Create(ctx context.Context, m *domain.Machine) error {
	const query = `
        INSERT INTO machines (id, name, location, description, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.pool.Exec(ctx, query, m.ID, m.Name, m.Location, m.Description, m.CreatedAt, m.UpdatedAt)
	return err
}

func (r *machineRepository) Update(ctx context.Context, m *domain.Machine) error {
	const query = `
        UPDATE machines SET name=$1, location=$2, description=$3, updated_at=$4
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query, m.Name, m.Location, m.Description, m.UpdatedAt, m.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *machineRepository) GetByID(ctx context.Context, id string) (*domain.Machine, error) {
	const query = `
        SELECT id, name, location, description, created_at, updated_at
        FROM machines WHERE id=$1`
	var m domain.Machine
	if err := r.pool.QueryRow(ctx, query, id).Scan(&m.ID, &m.Name, &m.Location, &m.Description, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *machineRepository) List(ctx context.Context, limit, offset int) ([]domain.Machine, error) {
	limit, offset = pageBounds(limit, offset, 50)
	query := fmt.Sprintf(`
        SELECT id, name, location, description, created_at, updated_at
        FROM machines ORDER BY name ASC LIMIT %d OFFSET %d`, limit, offset)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Machine{}
	for rows.Next() {
		var m domain.Machine
		if err := rows.Scan(&m.ID, &m.Name, &m.Location, &m.Description, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *machineRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM machines WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
