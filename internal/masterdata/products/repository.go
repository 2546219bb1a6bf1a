package products

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
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Lookup(ctx context.Context, id int64) (LookupResult, error)
	Create(ctx context.Context, p Product) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `p.id, p.code, p.name, p.unit_id, u.code, p.brand_id, p.category_id,
	p.cost_price, p.sale_price, p.is_active, p.created_at, p.updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	query := `SELECT ` + productColumns + ` FROM products p JOIN units u ON u.id = p.unit_id WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM products p WHERE 1=1`
	args := []interface{}{}
	countArgs := []interface{}{}

	addFilter := func(clause string, value interface{}) {
		args = append(args, value)
		query += ` AND ` + clause + `$` + strconv.Itoa(len(args))
		countArgs = append(countArgs, value)
		countQuery += ` AND ` + clause + `$` + strconv.Itoa(len(countArgs))
	}

	if filters.Search != "" {
		term := "%" + shared.FoldSearch(filters.Search) + "%"
		addFilter(`(p.search_name LIKE `, term)
		query += ` OR p.code ILIKE $` + strconv.Itoa(len(args)) + `)`
		countQuery += ` OR p.code ILIKE $` + strconv.Itoa(len(countArgs)) + `)`
	}
	if filters.IsActive != nil {
		addFilter(`p.is_active = `, *filters.IsActive)
	}
	if filters.BrandID != nil {
		addFilter(`p.brand_id = `, *filters.BrandID)
	}
	if filters.CategoryID != nil {
		addFilter(`p.category_id = `, *filters.CategoryID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if filters.SortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch filters.SortBy {
	case "code":
		query += " ORDER BY p.code " + dir
	default:
		query += " ORDER BY p.name " + dir
	}

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

	var result []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.UnitID, &p.UnitCode, &p.BrandID,
			&p.CategoryID, &p.CostPrice, &p.SalePrice, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products p JOIN units u ON u.id = p.unit_id WHERE p.id = $1`, id).
		Scan(&p.ID, &p.Code, &p.Name, &p.UnitID, &p.UnitCode, &p.BrandID,
			&p.CategoryID, &p.CostPrice, &p.SalePrice, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, httpx.ErrNotFound
	}
	return p, err
}

// Lookup returns the denormalized shape staged into note lines.
func (r *repository) Lookup(ctx context.Context, id int64) (LookupResult, error) {
	var res LookupResult
	err := r.pool.QueryRow(ctx,
		`SELECT p.id, p.code, p.name, u.code, p.sale_price, p.cost_price
		 FROM products p JOIN units u ON u.id = p.unit_id
		 WHERE p.id = $1 AND p.is_active`, id).
		Scan(&res.ID, &res.Code, &res.Name, &res.UnitCode, &res.SalePrice, &res.CostPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return LookupResult{}, httpx.ErrNotFound
	}
	return res, err
}

func (r *repository) Create(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (code, name, search_name, unit_id, brand_id, category_id, cost_price, sale_price, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now()) RETURNING id`,
		p.Code, p.Name, shared.FoldSearch(p.Name), p.UnitID, p.BrandID, p.CategoryID,
		p.CostPrice, p.SalePrice, p.IsActive,
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

	query := `UPDATE products SET updated_at = now()`
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
	tag, err := r.pool.Exec(ctx, `UPDATE products SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
