package parties

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercantil-erp/mercantil-erp/internal/masterdata/shared"
	"github.com/mercantil-erp/mercantil-erp/internal/platform/httpx"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Party, int, error)
	Get(ctx context.Context, id int64) (Party, error)
	Lookup(ctx context.Context, id int64) (LookupResult, error)
	Create(ctx context.Context, p Party) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const partyColumns = `id, kind, name, trade_name, document, email, phone, address_line,
	city, state, postal_code, payment_terms_id, is_active, notes, created_at, updated_at`

func scanParty(row pgx.Row) (Party, error) {
	var p Party
	err := row.Scan(&p.ID, &p.Kind, &p.Name, &p.TradeName, &p.Document, &p.Email, &p.Phone,
		&p.AddressLine, &p.City, &p.State, &p.PostalCode, &p.PaymentTermsID,
		&p.IsActive, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Party, int, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM parties WHERE 1=1`
	args := []interface{}{}
	countArgs := []interface{}{}

	addFilter := func(clause string, value interface{}) {
		args = append(args, value)
		query += ` AND ` + clause + `$` + strconv.Itoa(len(args))
		countArgs = append(countArgs, value)
		countQuery += ` AND ` + clause + `$` + strconv.Itoa(len(countArgs))
	}

	if filters.Kind != "" {
		addFilter(`kind = `, filters.Kind)
	}
	if filters.Search != "" {
		addFilter(`search_name LIKE `, "%"+shared.FoldSearch(filters.Search)+"%")
	}
	if filters.IsActive != nil {
		addFilter(`is_active = `, *filters.IsActive)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if filters.SortDir == shared.SortDesc {
		dir = "DESC"
	}
	query += " ORDER BY name " + dir

	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		args = append(args, filters.Offset())
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Party, error) {
	p, err := scanParty(r.pool.QueryRow(ctx, `SELECT `+partyColumns+` FROM parties WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Party{}, httpx.ErrNotFound
	}
	return p, err
}

func (r *repository) Lookup(ctx context.Context, id int64) (LookupResult, error) {
	var res LookupResult
	err := r.pool.QueryRow(ctx,
		`SELECT id, COALESCE(trade_name, name), payment_terms_id FROM parties WHERE id = $1 AND is_active`, id).
		Scan(&res.ID, &res.DisplayName, &res.PaymentTermsID)
	if errors.Is(err, pgx.ErrNoRows) {
		return LookupResult{}, httpx.ErrNotFound
	}
	return res, err
}

func (r *repository) Create(ctx context.Context, p Party) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO parties (kind, name, search_name, trade_name, document, email, phone, address_line,
			city, state, postal_code, payment_terms_id, is_active, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now(), now()) RETURNING id`,
		p.Kind, p.Name, shared.FoldSearch(p.Name), p.TradeName, p.Document, p.Email, p.Phone,
		p.AddressLine, p.City, p.State, p.PostalCode, p.PaymentTermsID, p.IsActive, p.Notes,
	).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return 0, httpx.ErrDuplicate
	}
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	if name, ok := updates["name"].(string); ok {
		updates["search_name"] = shared.FoldSearch(name)
	}

	query := `UPDATE parties SET updated_at = now()`
	args := []interface{}{}
	for col, val := range updates {
		args = append(args, val)
		query += `, ` + col + ` = $` + strconv.Itoa(len(args))
	}
	args = append(args, id)
	query += ` WHERE id = $` + strconv.Itoa(len(args))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE parties SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
