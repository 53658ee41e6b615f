package estimates

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldbill/fieldbill/internal/billing"
	"github.com/fieldbill/fieldbill/internal/numbering"
	"github.com/fieldbill/fieldbill/internal/platform/db"
	"github.com/fieldbill/fieldbill/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Estimate, error)
	List(ctx context.Context, req ListEstimatesRequest) ([]Estimate, error)
	Create(ctx context.Context, e Estimate) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	MarkApproved(ctx context.Context, id int64) error
	InsertLine(ctx context.Context, estimateID int64, item billing.LineItem) error
	DeleteLines(ctx context.Context, estimateID int64) error
	NextNumber(ctx context.Context, kind numbering.Kind) (string, error)
	InsertConvertedInvoice(ctx context.Context, inv ConvertedInvoice) (int64, error)
	CopyLinesToInvoice(ctx context.Context, estimateID, invoiceID int64) error
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const estimateColumns = `id, customer_id, estimate_number, status, title, description,
	subtotal, tax_rate, tax_amount, total, valid_until, notes,
	created_at, updated_at, sent_at, approved_at`

func (r *repository) Get(ctx context.Context, id int64) (*Estimate, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+estimateColumns+`
		FROM estimates
		WHERE id = $1
	`, id)
	e, err := scanEstimate(row)
	if err != nil {
		return nil, err
	}

	items, err := r.lines(ctx, id)
	if err != nil {
		return nil, err
	}
	e.LineItems = items
	return e, nil
}

func (r *repository) List(ctx context.Context, req ListEstimatesRequest) ([]Estimate, error) {
	query := "SELECT " + estimateColumns + " FROM estimates"
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if len(conditions) > 0 {
		query += " WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			query += " AND " + conditions[i]
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	estimates := []Estimate{}
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, err
		}
		// Line items are omitted from list views.
		e.LineItems = []billing.LineItem{}
		estimates = append(estimates, *e)
	}
	return estimates, rows.Err()
}

func (r *repository) Create(ctx context.Context, e Estimate) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO estimates (
			customer_id, estimate_number, status, title, description,
			subtotal, tax_rate, tax_amount, total, valid_until, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`,
		e.CustomerID, e.EstimateNumber, string(e.Status), e.Title, textOrNull(e.Description),
		numeric(e.Subtotal), numeric(e.TaxRate), numeric(e.TaxAmount), numeric(e.Total),
		dateOrNull(e.ValidUntil), textOrNull(e.Notes),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE estimates SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"title", "description", "valid_until", "notes", "subtotal", "tax_rate", "tax_amount", "total"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	_, err := r.db.Exec(ctx, query, args...)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM estimates WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) MarkApproved(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE estimates
		SET status = 'approved', approved_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, id)
	return err
}

func (r *repository) InsertLine(ctx context.Context, estimateID int64, item billing.LineItem) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO line_items (estimate_id, item_type, description, quantity, unit_price, total, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, estimateID, string(item.ItemType), item.Description,
		numeric(item.Quantity), numeric(item.UnitPrice), numeric(item.Total), item.SortOrder)
	return err
}

func (r *repository) DeleteLines(ctx context.Context, estimateID int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM line_items WHERE estimate_id = $1", estimateID)
	return err
}

func (r *repository) NextNumber(ctx context.Context, kind numbering.Kind) (string, error) {
	return numbering.Next(ctx, r.db, kind)
}

func (r *repository) InsertConvertedInvoice(ctx context.Context, inv ConvertedInvoice) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoices (
			customer_id, estimate_id, invoice_number, title, description,
			subtotal, tax_rate, tax_amount, total, amount_due,
			issue_date, due_date, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`,
		inv.CustomerID, inv.EstimateID, inv.InvoiceNumber, inv.Title, textOrNull(inv.Description),
		numeric(inv.Subtotal), numeric(inv.TaxRate), numeric(inv.TaxAmount), numeric(inv.Total), numeric(inv.Total),
		inv.IssueDate, inv.DueDate, textOrNull(inv.Notes),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) CopyLinesToInvoice(ctx context.Context, estimateID, invoiceID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO line_items (invoice_id, item_type, description, quantity, unit_price, total, sort_order)
		SELECT $1, item_type, description, quantity, unit_price, total, sort_order
		FROM line_items
		WHERE estimate_id = $2
	`, invoiceID, estimateID)
	return err
}

func (r *repository) lines(ctx context.Context, estimateID int64) ([]billing.LineItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, item_type, description, quantity, unit_price, total, sort_order
		FROM line_items
		WHERE estimate_id = $1
		ORDER BY sort_order ASC
	`, estimateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLineItems(rows)
}

func scanEstimate(row pgx.Row) (*Estimate, error) {
	var e Estimate
	var status string
	var description, notes pgtype.Text
	var subtotal, taxRate, taxAmount, total pgtype.Numeric
	var validUntil pgtype.Date
	var createdAt, updatedAt, sentAt, approvedAt pgtype.Timestamptz

	err := row.Scan(
		&e.ID, &e.CustomerID, &e.EstimateNumber, &status, &e.Title, &description,
		&subtotal, &taxRate, &taxAmount, &total, &validUntil, &notes,
		&createdAt, &updatedAt, &sentAt, &approvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	e.Status = EstimateStatus(status)
	e.Subtotal = numericFloat(subtotal)
	e.TaxRate = numericFloat(taxRate)
	e.TaxAmount = numericFloat(taxAmount)
	e.Total = numericFloat(total)
	if description.Valid {
		val := description.String
		e.Description = &val
	}
	if notes.Valid {
		val := notes.String
		e.Notes = &val
	}
	if validUntil.Valid {
		val := shared.FormatDate(validUntil.Time)
		e.ValidUntil = &val
	}
	if createdAt.Valid {
		e.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		e.UpdatedAt = updatedAt.Time
	}
	if sentAt.Valid {
		val := sentAt.Time
		e.SentAt = &val
	}
	if approvedAt.Valid {
		val := approvedAt.Time
		e.ApprovedAt = &val
	}
	return &e, nil
}

func scanLineItems(rows pgx.Rows) ([]billing.LineItem, error) {
	items := []billing.LineItem{}
	for rows.Next() {
		var item billing.LineItem
		var itemType string
		var quantity, unitPrice, total pgtype.Numeric

		if err := rows.Scan(&item.ID, &itemType, &item.Description, &quantity, &unitPrice, &total, &item.SortOrder); err != nil {
			return nil, err
		}
		item.ItemType = billing.ItemType(itemType)
		item.Quantity = numericFloat(quantity)
		item.UnitPrice = numericFloat(unitPrice)
		item.Total = numericFloat(total)
		items = append(items, item)
	}
	return items, rows.Err()
}

func numeric(v float64) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(fmt.Sprintf("%f", v))
	return n
}

func numericFloat(n pgtype.Numeric) float64 {
	if !n.Valid {
		return 0
	}
	f, _ := n.Float64Value()
	return f.Float64
}

func textOrNull(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func dateOrNull(s *string) pgtype.Date {
	if s == nil {
		return pgtype.Date{}
	}
	t, err := shared.ParseDate(*s)
	if err != nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}
