package notes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

type Repository interface {
	Create(ctx context.Context, note Note) (int64, error)
	Replace(ctx context.Context, id int64, note Note) error
	Get(ctx context.Context, id int64) (Note, error)
	List(ctx context.Context, filters ListNoteFilters) ([]Note, int, error)
	UpdateStatus(ctx context.Context, id int64, from, to Status) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const noteColumns = `id, kind, status, number, model, series, counterparty_id,
	issue_date, arrival_date, freight_mode, freight_amount, insurance_amount,
	other_expenses_amount, payment_terms_id, lines_total, grand_total, notes,
	posted_at, created_at, updated_at`

func scanNote(row pgx.Row) (Note, error) {
	var n Note
	err := row.Scan(
		&n.ID, &n.Kind, &n.Status, &n.Number, &n.Model, &n.Series, &n.CounterpartyID,
		&n.IssueDate, &n.ArrivalDate, &n.FreightMode, &n.FreightAmount, &n.InsuranceAmount,
		&n.OtherExpensesAmount, &n.PaymentTermsID, &n.LinesTotal, &n.GrandTotal, &n.Notes,
		&n.PostedAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Note{}, httpx.ErrNotFound
	}
	return n, err
}

func (r *repository) Create(ctx context.Context, note Note) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO notes (kind, status, number, model, series, counterparty_id,
				issue_date, arrival_date, freight_mode, freight_amount, insurance_amount,
				other_expenses_amount, payment_terms_id, lines_total, grand_total, notes,
				created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now(), now())
			 RETURNING id`,
			note.Kind, note.Status, note.Number, note.Model, note.Series, note.CounterpartyID,
			note.IssueDate, note.ArrivalDate, note.FreightMode, note.FreightAmount, note.InsuranceAmount,
			note.OtherExpensesAmount, note.PaymentTermsID, note.LinesTotal, note.GrandTotal, note.Notes,
		).Scan(&id)
		if err != nil {
			return err
		}
		return insertLines(ctx, tx, id, note.Lines)
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return 0, fmt.Errorf("%w: note number already registered for this series", httpx.ErrDuplicate)
	}
	return id, err
}

func (r *repository) Replace(ctx context.Context, id int64, note Note) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE notes SET number = $1, model = $2, series = $3, counterparty_id = $4,
				issue_date = $5, arrival_date = $6, freight_mode = $7, freight_amount = $8,
				insurance_amount = $9, other_expenses_amount = $10, payment_terms_id = $11,
				lines_total = $12, grand_total = $13, notes = $14, updated_at = now()
			 WHERE id = $15 AND status = 'DRAFT'`,
			note.Number, note.Model, note.Series, note.CounterpartyID,
			note.IssueDate, note.ArrivalDate, note.FreightMode, note.FreightAmount,
			note.InsuranceAmount, note.OtherExpensesAmount, note.PaymentTermsID,
			note.LinesTotal, note.GrandTotal, note.Notes, id,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM note_lines WHERE note_id = $1`, id); err != nil {
			return err
		}
		return insertLines(ctx, tx, id, note.Lines)
	})
}

func (r *repository) Get(ctx context.Context, id int64) (Note, error) {
	note, err := scanNote(r.pool.QueryRow(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1`, id))
	if err != nil {
		return Note{}, err
	}
	note.Lines, err = r.lines(ctx, id)
	return note, err
}

func (r *repository) lines(ctx context.Context, noteID int64) ([]NoteLine, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, note_id, line_uid, product_id, code, name, unit_code,
			quantity, unit_price, discount, total
		 FROM note_lines WHERE note_id = $1 ORDER BY id`, noteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []NoteLine
	for rows.Next() {
		var l NoteLine
		if err := rows.Scan(&l.ID, &l.NoteID, &l.LineUID, &l.ProductID, &l.Code, &l.Name,
			&l.UnitCode, &l.Quantity, &l.UnitPrice, &l.Discount, &l.Total); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, filters ListNoteFilters) ([]Note, int, error) {
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
	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM notes WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+noteColumns+` FROM notes WHERE %s
		ORDER BY issue_date DESC, id DESC LIMIT $%d OFFSET $%d`, where, idx, idx+1)
	args = append(args, filters.PageLimit(), filters.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, err
		}
		notes = append(notes, n)
	}
	return notes, total, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to Status) error {
	query := `UPDATE notes SET status = $1, updated_at = now() WHERE id = $2 AND status = $3`
	if to == StatusPosted {
		query = `UPDATE notes SET status = $1, posted_at = now(), updated_at = now()
			WHERE id = $2 AND status = $3`
	}
	tag, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current Status
	err = r.pool.QueryRow(ctx, `SELECT status FROM notes WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return httpx.ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: note is %s", httpx.ErrInvalidStatus, current)
}

func (r *repository) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func insertLines(ctx context.Context, tx pgx.Tx, noteID int64, lines []NoteLine) error {
	for _, line := range lines {
		_, err := tx.Exec(ctx,
			`INSERT INTO note_lines (note_id, line_uid, product_id, code, name, unit_code,
				quantity, unit_price, discount, total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			noteID, line.LineUID, line.ProductID, line.Code, line.Name, line.UnitCode,
			line.Quantity, line.UnitPrice, line.Discount, line.Total,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
