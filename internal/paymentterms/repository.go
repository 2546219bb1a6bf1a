package paymentterms

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

type Repository interface {
	ListMethods(ctx context.Context) ([]PaymentMethod, error)
	ListTemplates(ctx context.Context, activeOnly bool) ([]Template, error)
	GetTemplate(ctx context.Context, id int64) (Template, error)
	CreateTemplate(ctx context.Context, t Template) (int64, error)
	ReplaceTemplate(ctx context.Context, id int64, t Template) error
	DeactivateTemplate(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListMethods(ctx context.Context) ([]PaymentMethod, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name FROM payment_methods ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []PaymentMethod
	for rows.Next() {
		var m PaymentMethod
		if err := rows.Scan(&m.ID, &m.Code, &m.Name); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (r *repository) ListTemplates(ctx context.Context, activeOnly bool) ([]Template, error) {
	query := `SELECT id, name, is_active, created_at, updated_at FROM payment_terms`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.Name, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range templates {
		defs, err := r.installments(ctx, templates[i].ID)
		if err != nil {
			return nil, err
		}
		templates[i].Installments = defs
	}
	return templates, nil
}

func (r *repository) GetTemplate(ctx context.Context, id int64) (Template, error) {
	var t Template
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, is_active, created_at, updated_at FROM payment_terms WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Template{}, httpx.ErrNotFound
	}
	if err != nil {
		return Template{}, err
	}

	t.Installments, err = r.installments(ctx, id)
	return t, err
}

func (r *repository) installments(ctx context.Context, templateID int64) ([]InstallmentDef, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT sequence, percentage, day_offset, payment_method_id
		 FROM payment_terms_installments WHERE payment_terms_id = $1 ORDER BY sequence`, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []InstallmentDef
	for rows.Next() {
		var def InstallmentDef
		if err := rows.Scan(&def.Sequence, &def.Percentage, &def.DayOffset, &def.PaymentMethodID); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func (r *repository) CreateTemplate(ctx context.Context, t Template) (int64, error) {
	var id int64
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO payment_terms (name, is_active, created_at, updated_at)
			 VALUES ($1, $2, now(), now()) RETURNING id`,
			t.Name, t.IsActive,
		).Scan(&id)
		if err != nil {
			return err
		}
		return insertInstallments(ctx, tx, id, t.Installments)
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return 0, httpx.ErrDuplicate
	}
	return id, err
}

func (r *repository) ReplaceTemplate(ctx context.Context, id int64, t Template) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE payment_terms SET name = $1, is_active = $2, updated_at = now() WHERE id = $3`,
			t.Name, t.IsActive, id,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return httpx.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM payment_terms_installments WHERE payment_terms_id = $1`, id); err != nil {
			return err
		}
		return insertInstallments(ctx, tx, id, t.Installments)
	})
}

func (r *repository) DeactivateTemplate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payment_terms SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
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

func insertInstallments(ctx context.Context, tx pgx.Tx, templateID int64, defs []InstallmentDef) error {
	for _, def := range defs {
		_, err := tx.Exec(ctx,
			`INSERT INTO payment_terms_installments (payment_terms_id, sequence, percentage, day_offset, payment_method_id)
			 VALUES ($1, $2, $3, $4, $5)`,
			templateID, def.Sequence, def.Percentage, def.DayOffset, def.PaymentMethodID,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
