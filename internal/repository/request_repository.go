package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// RequestFilter captures listing parameters.
type RequestFilter struct {
	Status        *domain.RequestStatus
	Priority      *domain.Priority
	AssignedTo    *string
	MachineID     *string
	ParticipantID *string
	Limit         int
	Offset        int
}

// MutationScope reads related records inside a Mutate transaction.
type MutationScope interface {
	// User returns the user with id. The row stays locked against updates
	// until the mutation commits or aborts.
	User(id string) (*domain.User, error)
}

// MutateFunc validates preconditions against the freshest copy of a request
// and mutates it in place. A returned Assignment is appended in the same
// transaction. Returning an error aborts the write.
type MutateFunc func(scope MutationScope, req *domain.Request) (*domain.Assignment, error)

// RequestRepository encapsulates request persistence.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.Request, placeholder *domain.Assignment) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]domain.Request, error)
	Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Request, error)
	// Delete removes the request with its assignments, deletion requests and
	// history, returning how many assignment entries were removed.
	Delete(ctx context.Context, id string) (int, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestColumns = `id, title, description, machine_id, priority, status, created_by, assigned_to, assigned_by,
               participants, resolution_phase, resolution_outcome, resolution_by, resolution_at,
               resolution_decided_by, resolution_decided_at, created_at, updated_at`

func (r *requestRepository) Create(ctx context.Context, req *domain.Request, placeholder *domain.Assignment) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
        INSERT INTO requests (` + requestColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`
		if _, err := tx.Exec(ctx, query, requestArgs(req)...); err != nil {
			return err
		}
		if placeholder != nil {
			return insertAssignment(ctx, tx, placeholder)
		}
		return nil
	})
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	return fetchRequest(ctx, r.pool, `SELECT `+requestColumns+` FROM requests WHERE id=$1`, id)
}

func (r *requestRepository) Mutate(ctx context.Context, id string, fn MutateFunc) (*domain.Request, error) {
	var result *domain.Request
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		req, err := fetchRequest(ctx, tx, `SELECT `+requestColumns+` FROM requests WHERE id=$1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		assignment, err := fn(txScope{ctx: ctx, tx: tx}, req)
		if err != nil {
			return err
		}
		const update = `
        UPDATE requests SET title=$2, description=$3, machine_id=$4, priority=$5, status=$6, created_by=$7,
            assigned_to=$8, assigned_by=$9, participants=$10, resolution_phase=$11, resolution_outcome=$12,
            resolution_by=$13, resolution_at=$14, resolution_decided_by=$15, resolution_decided_at=$16,
            updated_at=$17
        WHERE id=$1`
		args := requestArgs(req)
		args = append(args[:16:16], args[17])
		cmd, err := tx.Exec(ctx, update, args...)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		if assignment != nil {
			if err := insertAssignment(ctx, tx, assignment); err != nil {
				return err
			}
		}
		result = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type txScope struct {
	ctx context.Context
	tx  pgx.Tx
}

func (s txScope) User(id string) (*domain.User, error) {
	return scanUser(s.tx.QueryRow(s.ctx, `SELECT `+userColumns+` FROM users WHERE id=$1 FOR SHARE`, id))
}

func (r *requestRepository) Delete(ctx context.Context, id string) (int, error) {
	removed := 0
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM assignments WHERE request_id=$1`, id)
		if err != nil {
			return err
		}
		removed = int(cmd.RowsAffected())
		if _, err := tx.Exec(ctx, `DELETE FROM deletion_requests WHERE request_id=$1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM request_history WHERE request_id=$1`, id); err != nil {
			return err
		}
		cmd, err = tx.Exec(ctx, `DELETE FROM requests WHERE id=$1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, string(*filter.Priority))
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.MachineID != nil {
		args = append(args, *filter.MachineID)
		clauses = append(clauses, fmt.Sprintf("machine_id=$%d", len(args)))
	}
	if filter.ParticipantID != nil {
		args = append(args, *filter.ParticipantID)
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(participants)", len(args)))
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset, 20)
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		requestColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

func fetchRequest(ctx context.Context, q querier, query string, arg any) (*domain.Request, error) {
	return scanRequest(q.QueryRow(ctx, query, arg))
}

func scanRequest(row pgx.Row) (*domain.Request, error) {
	var (
		req                domain.Request
		priority, status   string
		phase, outcome, by *string
		at, decidedAt      *time.Time
		decidedBy          *string
	)
	if err := row.Scan(
		&req.ID,
		&req.Title,
		&req.Description,
		&req.MachineID,
		&priority,
		&status,
		&req.CreatedBy,
		&req.AssignedTo,
		&req.AssignedBy,
		&req.Participants,
		&phase,
		&outcome,
		&by,
		&at,
		&decidedBy,
		&decidedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	req.Priority = domain.Priority(priority)
	req.Status = domain.NormalizeStatus(status)
	if phase != nil && *phase != "" {
		res := &domain.Resolution{
			Phase:     domain.ResolutionPhase(*phase),
			DecidedBy: decidedBy,
			DecidedAt: decidedAt,
		}
		if outcome != nil {
			res.Outcome = domain.ResolutionOutcome(*outcome)
		}
		if by != nil {
			res.ProposedBy = *by
		}
		if at != nil {
			res.ProposedAt = *at
		}
		req.Resolution = res
	}
	return &req, nil
}

func requestArgs(req *domain.Request) []any {
	var (
		phase, outcome, by, decidedBy *string
		at, decidedAt                 *time.Time
	)
	if res := req.Resolution; res != nil {
		p, o, b, t := string(res.Phase), string(res.Outcome), res.ProposedBy, res.ProposedAt
		phase, outcome, by, at = &p, &o, &b, &t
		decidedBy, decidedAt = res.DecidedBy, res.DecidedAt
	}
	participants := req.Participants
	if participants == nil {
		participants = []string{}
	}
	return []any{
		req.ID,
		req.Title,
		req.Description,
		req.MachineID,
		string(req.Priority),
		string(domain.NormalizeStatus(string(req.Status))),
		req.CreatedBy,
		req.AssignedTo,
		req.AssignedBy,
		participants,
		phase,
		outcome,
		by,
		at,
		decidedBy,
		decidedAt,
		req.CreatedAt,
		req.UpdatedAt,
	}
}
