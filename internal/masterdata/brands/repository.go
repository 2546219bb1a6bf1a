package brands

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
	List(ctx context.Context, filters shared.ListFilters) ([]Brand, int, error)
	Get(ctx context.Context, id int64) (Brand, error)
	Create(ctx context.Context, brand Brand) (Brand, error)
	Update(ctx context.Context, id int64, brand Brand) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Brand, int, error) {
	query := `SELECT id, name, is_active FROM brands WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM brands WHERE 1=1`
	args := []interface{}{}
	countArgs := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		clause := ` AND name ILIKE $` + strconv.Itoa(argCount)
		query += clause
		countQuery += ` AND name ILIKE $` + strconv.Itoa(len(countArgs)+1)
		args = append(args, "%"+filters.Search+"%")
		countArgs = append(countArgs, "%"+filters.Search+"%")
	}
	if filters.IsActive != nil {
		argCount++
		query += ` AND is_active = $` + strconv.Itoa(argCount)
		countQuery += ` AND is_active = $` + strconv.Itoa(len(countArgs)+1)
		args = append(args, *filters.IsActive)
		countArgs = append(countArgs, *filters.IsActive)
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
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset())
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.IsActive); err != nil {
			return nil, 0, err
		}
		result = append(result, b)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Brand, error) {
	var b Brand
	err := r.pool.QueryRow(ctx, `SELECT id, name, is_active FROM brands WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return Brand{}, httpx.ErrNotFound
	}
	return b, err
}

func (r *repository) Create(ctx context.Context, brand Brand) (Brand, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO brands (name, is_active, created_at, updated_at) VALUES ($1, $2, now(), now()) RETURNING id`,
		brand.Name, brand.IsActive,
	).Scan(&brand.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Brand{}, httpx.ErrDuplicate
	}
	return brand, err
}

func (r *repository) Update(ctx context.Context, id int64, brand Brand) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE brands SET name = $1, is_active = $2, updated_at = now() WHERE id = $3`,
		brand.Name, brand.IsActive, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
