package invoices

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
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error)
	Create(ctx context.Context, inv Invoice) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	ApplyPayment(ctx context.Context, id int64, p PaymentApplication) error
	MarkOverdue(ctx context.Context) (int64, error)
	InsertLine(ctx context.Context, invoiceID int64, item billing.LineItem) error
	DeleteLines(ctx context.Context, invoiceID int64) error
	NextNumber(ctx context.Context, kind numbering.Kind) (string, error)
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

const invoiceColumns = `id, customer_id, estimate_id, invoice_number, status, title, description,
	subtotal, tax_rate, tax_amount, total, amount_paid, amount_due,
	issue_date, due_date, paid_date, external_payment_ref, payment_method,
	notes, created_at, updated_at, sent_at`

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1
	`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		return nil, err
	}

	items, err := r.lines(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.LineItems = items
	return inv, nil
}

func (r *repository) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	query := "SELECT " + invoiceColumns + " FROM invoices"
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

	invoices := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		// Line items are omitted from list views.
		inv.LineItems = []billing.LineItem{}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (r *repository) Create(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoices (
			customer_id, estimate_id, invoice_number, status, title, description,
			subtotal, tax_rate, tax_amount, total, amount_paid, amount_due,
			issue_date, due_date, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`,
		inv.CustomerID, int8OrNull(inv.EstimateID), inv.InvoiceNumber, string(inv.Status),
		inv.Title, textOrNull(inv.Description),
		numeric(inv.Subtotal), numeric(inv.TaxRate), numeric(inv.TaxAmount), numeric(inv.Total),
		numeric(inv.AmountPaid), numeric(inv.AmountDue),
		inv.IssueDate, inv.DueDate, textOrNull(inv.Notes),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE invoices SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"title", "description", "due_date", "notes", "subtotal", "tax_rate", "tax_amount", "total", "amount_due"} {
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
	tag, err := r.db.Exec(ctx, "DELETE FROM invoices WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ApplyPayment(ctx context.Context, id int64, p PaymentApplication) error {
	var paidDate pgtype.Timestamptz
	if p.PaidDate != nil {
		paidDate = pgtype.Timestamptz{Time: *p.PaidDate, Valid: true}
	}
	_, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET status = $1,
		    amount_paid = $2,
		    amount_due = $3,
		    paid_date = $4,
		    external_payment_ref = $5,
		    payment_method = $6,
		    updated_at = NOW()
		WHERE id = $7
	`, string(p.Status), numeric(p.AmountPaid), numeric(p.AmountDue),
		paidDate, textOrNull(p.ExternalPaymentRef), p.PaymentMethod, id)
	return err
}

func (r *repository) MarkOverdue(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET status = 'overdue', updated_at = NOW()
		WHERE status = 'sent' AND due_date < CURRENT_DATE
	`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *repository) InsertLine(ctx context.Context, invoiceID int64, item billing.LineItem) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO line_items (invoice_id, item_type, description, quantity, unit_price, total, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, invoiceID, string(item.ItemType), item.Description,
		numeric(item.Quantity), numeric(item.UnitPrice), numeric(item.Total), item.SortOrder)
	return err
}

func (r *repository) DeleteLines(ctx context.Context, invoiceID int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM line_items WHERE invoice_id = $1", invoiceID)
	return err
}

func (r *repository) NextNumber(ctx context.Context, kind numbering.Kind) (string, error) {
	return numbering.Next(ctx, r.db, kind)
}

func (r *repository) lines(ctx context.Context, invoiceID int64) ([]billing.LineItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, item_type, description, quantity, unit_price, total, sort_order
		FROM line_items
		WHERE invoice_id = $1
		ORDER BY sort_order ASC
	`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var status string
	var estimateID pgtype.Int8
	var description, paymentRef, paymentMethod, notes pgtype.Text
	var subtotal, taxRate, taxAmount, total, amountPaid, amountDue pgtype.Numeric
	var issueDate, dueDate pgtype.Date
	var paidDate, createdAt, updatedAt, sentAt pgtype.Timestamptz

	err := row.Scan(
		&inv.ID, &inv.CustomerID, &estimateID, &inv.InvoiceNumber, &status, &inv.Title, &description,
		&subtotal, &taxRate, &taxAmount, &total, &amountPaid, &amountDue,
		&issueDate, &dueDate, &paidDate, &paymentRef, &paymentMethod,
		&notes, &createdAt, &updatedAt, &sentAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	inv.Status = InvoiceStatus(status)
	inv.Subtotal = numericFloat(subtotal)
	inv.TaxRate = numericFloat(taxRate)
	inv.TaxAmount = numericFloat(taxAmount)
	inv.Total = numericFloat(total)
	inv.AmountPaid = numericFloat(amountPaid)
	inv.AmountDue = numericFloat(amountDue)
	if estimateID.Valid {
		val := estimateID.Int64
		inv.EstimateID = &val
	}
	if description.Valid {
		val := description.String
		inv.Description = &val
	}
	if paymentRef.Valid {
		val := paymentRef.String
		inv.ExternalPaymentRef = &val
	}
	if paymentMethod.Valid {
		val := paymentMethod.String
		inv.PaymentMethod = &val
	}
	if notes.Valid {
		val := notes.String
		inv.Notes = &val
	}
	if issueDate.Valid {
		inv.IssueDate = shared.FormatDate(issueDate.Time)
	}
	if dueDate.Valid {
		inv.DueDate = shared.FormatDate(dueDate.Time)
	}
	if paidDate.Valid {
		val := paidDate.Time
		inv.PaidDate = &val
	}
	if createdAt.Valid {
		inv.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		inv.UpdatedAt = updatedAt.Time
	}
	if sentAt.Valid {
		val := sentAt.Time
		inv.SentAt = &val
	}
	return &inv, nil
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

func int8OrNull(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}
