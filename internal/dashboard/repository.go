package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	CustomerCount(ctx context.Context) (int64, error)
	EstimateCounts(ctx context.Context) ([]StatusCount, error)
	InvoiceCounts(ctx context.Context) ([]StatusCount, error)
	OutstandingTotals(ctx context.Context) (outstanding, overdue float64, err error)
	Aging(ctx context.Context) ([]AgingBucket, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) CustomerCount(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers").Scan(&n)
	return n, err
}

func (r *repository) EstimateCounts(ctx context.Context) ([]StatusCount, error) {
	return r.statusCounts(ctx, "estimates")
}

func (r *repository) InvoiceCounts(ctx context.Context) ([]StatusCount, error) {
	return r.statusCounts(ctx, "invoices")
}

func (r *repository) statusCounts(ctx context.Context, table string) ([]StatusCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM `+table+`
		GROUP BY status
		ORDER BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []StatusCount{}
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, sc)
	}
	return counts, rows.Err()
}

func (r *repository) OutstandingTotals(ctx context.Context) (float64, float64, error) {
	var outstanding, overdue float64
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount_due) FILTER (WHERE status IN ('sent', 'overdue')), 0),
			COALESCE(SUM(amount_due) FILTER (WHERE status = 'overdue'), 0)
		FROM invoices
	`).Scan(&outstanding, &overdue)
	return outstanding, overdue, err
}

func (r *repository) Aging(ctx context.Context) ([]AgingBucket, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT bucket, COALESCE(SUM(amount_due), 0) AS amount
		FROM (
			SELECT amount_due,
				CASE
					WHEN due_date >= CURRENT_DATE THEN 'current'
					WHEN CURRENT_DATE - due_date <= 30 THEN '1-30'
					WHEN CURRENT_DATE - due_date <= 60 THEN '31-60'
					WHEN CURRENT_DATE - due_date <= 90 THEN '61-90'
					ELSE '90+'
				END AS bucket
			FROM invoices
			WHERE status IN ('sent', 'overdue')
		) banded
		GROUP BY bucket
		ORDER BY
			CASE bucket
				WHEN 'current' THEN 0
				WHEN '1-30' THEN 1
				WHEN '31-60' THEN 2
				WHEN '61-90' THEN 3
				ELSE 4
			END
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := []AgingBucket{}
	for rows.Next() {
		var b AgingBucket
		if err := rows.Scan(&b.Bucket, &b.Amount); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
