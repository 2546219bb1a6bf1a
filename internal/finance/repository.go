package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

type Repository interface {
	CreateBatch(ctx context.Context, installments []Installment) error
	ExistsForNote(ctx context.Context, noteID int64) (bool, error)
	Get(ctx context.Context, id int64) (Installment, error)
	List(ctx context.Context, filters ListFilters) ([]Installment, int, error)
	ListOutstanding(ctx context.Context, kind InstallmentKind) ([]Installment, error)
	Settle(ctx context.Context, id int64, paidAt time.Time) error
	Reopen(ctx context.Context, id int64) error
	CancelForNote(ctx context.Context, noteID int64) (int64, error)
	OverdueSummaries(ctx context.Context, asOf time.Time) ([]OverdueSummary, error)
	PostedNotesWithoutSchedule(ctx context.Context) ([]int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const installmentColumns = `id, note_id, kind, counterparty_id, sequence, amount,
	due_date, payment_method_id, status, paid_at, created_at, updated_at`

func scanInstallment(row pgx.Row) (Installment, error) {
	var inst Installment
	err := row.Scan(
		&inst.ID, &inst.NoteID, &inst.Kind, &inst.CounterpartyID, &inst.Sequence, &inst.Amount,
		&inst.DueDate, &inst.PaymentMethodID, &inst.Status, &inst.PaidAt, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Installment{}, httpx.ErrNotFound
	}
	return inst, err
}

func (r *repository) CreateBatch(ctx context.Context, installments []Installment) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	for _, inst := range installments {
		_, err := tx.Exec(ctx,
			`INSERT INTO installments (note_id, kind, counterparty_id, sequence, amount,
				due_date, payment_method_id, status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())`,
			inst.NoteID, inst.Kind, inst.CounterpartyID, inst.Sequence, inst.Amount,
			inst.DueDate, inst.PaymentMethodID, inst.Status,
		)
		if err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *repository) ExistsForNote(ctx context.Context, noteID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM installments WHERE note_id = $1)`, noteID).Scan(&exists)
	return exists, err
}

func (r *repository) Get(ctx context.Context, id int64) (Installment, error) {
	return scanInstallment(r.pool.QueryRow(ctx,
		`SELECT `+installmentColumns+` FROM installments WHERE id = $1`, id))
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Installment, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	idx := 1

	if filters.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", idx))
		args = append(args, filters.Kind)
		idx++
	}
	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", idx))
		args = append(args, filters.Status)
		idx++
	}
	if filters.CounterpartyID > 0 {
		conditions = append(conditions, fmt.Sprintf("counterparty_id = $%d", idx))
		args = append(args, filters.CounterpartyID)
		idx++
	}
	if filters.NoteID > 0 {
		conditions = append(conditions, fmt.Sprintf("note_id = $%d", idx))
		args = append(args, filters.NoteID)
		idx++
	}
	if filters.DueBefore != nil {
		conditions = append(conditions, fmt.Sprintf("due_date IS NOT NULL AND due_date < $%d", idx))
		args = append(args, *filters.DueBefore)
		idx++
	}
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM installments WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+installmentColumns+` FROM installments WHERE %s
		ORDER BY due_date NULLS LAST, note_id, sequence LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, filters.PageLimit(), filters.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inst)
	}
	return out, total, rows.Err()
}

func (r *repository) ListOutstanding(ctx context.Context, kind InstallmentKind) ([]Installment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+installmentColumns+` FROM installments
		 WHERE status = 'OPEN' AND kind = $1
		 ORDER BY due_date NULLS LAST, note_id, sequence`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func (r *repository) Settle(ctx context.Context, id int64, paidAt time.Time) error {
	return r.transition(ctx, id,
		`UPDATE installments SET status = 'PAID', paid_at = $1, updated_at = now()
		 WHERE id = $2 AND status = 'OPEN'`, paidAt, id)
}

func (r *repository) Reopen(ctx context.Context, id int64) error {
	return r.transition(ctx, id,
		`UPDATE installments SET status = 'OPEN', paid_at = NULL, updated_at = now()
		 WHERE id = $1 AND status = 'PAID'`, id)
}

func (r *repository) transition(ctx context.Context, id int64, query string, args ...interface{}) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var status InstallmentStatus
	err = r.pool.QueryRow(ctx, `SELECT status FROM installments WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return httpx.ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: installment is %s", httpx.ErrInvalidStatus, status)
}

func (r *repository) CancelForNote(ctx context.Context, noteID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE installments SET status = 'CANCELLED', updated_at = now()
		 WHERE note_id = $1 AND status = 'OPEN'`, noteID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) OverdueSummaries(ctx context.Context, asOf time.Time) ([]OverdueSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT counterparty_id, kind, count(*), sum(amount)
		 FROM installments
		 WHERE status = 'OPEN' AND due_date IS NOT NULL AND due_date < $1
		 GROUP BY counterparty_id, kind
		 ORDER BY sum(amount) DESC`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OverdueSummary
	for rows.Next() {
		var s OverdueSummary
		if err := rows.Scan(&s.CounterpartyID, &s.Kind, &s.Count, &s.Total); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) PostedNotesWithoutSchedule(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT n.id FROM notes n
		 WHERE n.status = 'POSTED'
		   AND NOT EXISTS (SELECT 1 FROM installments i WHERE i.note_id = n.id)
		 ORDER BY n.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
