package photos

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldbill/fieldbill/internal/shared"
)

type Repository interface {
	Create(ctx context.Context, p Photo) (*Photo, error)
	Get(ctx context.Context, id int64) (*Photo, error)
	ListByParent(ctx context.Context, req ListPhotosRequest) ([]Photo, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const photoColumns = `id, url, storage_key, filename, mime_type, file_size, caption,
	customer_id, estimate_id, invoice_id, sort_order, created_at`

func (r *repository) Create(ctx context.Context, p Photo) (*Photo, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO photos (
			url, storage_key, filename, mime_type, file_size, caption,
			customer_id, estimate_id, invoice_id, sort_order
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+photoColumns,
		p.URL, p.StorageKey, p.Filename, p.MimeType, p.FileSize, textOrNull(p.Caption),
		int8OrNull(p.CustomerID), int8OrNull(p.EstimateID), int8OrNull(p.InvoiceID), p.SortOrder)
	return scanPhoto(row)
}

func (r *repository) Get(ctx context.Context, id int64) (*Photo, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+photoColumns+`
		FROM photos
		WHERE id = $1
	`, id)
	return scanPhoto(row)
}

func (r *repository) ListByParent(ctx context.Context, req ListPhotosRequest) ([]Photo, error) {
	var column string
	var parent int64
	switch {
	case req.CustomerID != nil:
		column, parent = "customer_id", *req.CustomerID
	case req.EstimateID != nil:
		column, parent = "estimate_id", *req.EstimateID
	case req.InvoiceID != nil:
		column, parent = "invoice_id", *req.InvoiceID
	default:
		return nil, fmt.Errorf("%w: a parent filter is required", shared.ErrValidation)
	}

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM photos
		WHERE %s = $1
		ORDER BY sort_order ASC, created_at DESC
	`, photoColumns, column), parent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photos := []Photo{}
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, *p)
	}
	return photos, rows.Err()
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM photos WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanPhoto(row pgx.Row) (*Photo, error) {
	var p Photo
	var caption pgtype.Text
	var customerID, estimateID, invoiceID pgtype.Int8
	var createdAt pgtype.Timestamptz

	err := row.Scan(&p.ID, &p.URL, &p.StorageKey, &p.Filename, &p.MimeType, &p.FileSize,
		&caption, &customerID, &estimateID, &invoiceID, &p.SortOrder, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if caption.Valid {
		val := caption.String
		p.Caption = &val
	}
	if customerID.Valid {
		val := customerID.Int64
		p.CustomerID = &val
	}
	if estimateID.Valid {
		val := estimateID.Int64
		p.EstimateID = &val
	}
	if invoiceID.Valid {
		val := invoiceID.Int64
		p.InvoiceID = &val
	}
	if createdAt.Valid {
		p.CreatedAt = createdAt.Time
	}
	return &p, nil
}

func textOrNull(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func int8OrNull(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}
