package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fieldbill/fieldbill/internal/billing"
	"github.com/fieldbill/fieldbill/internal/customers"
	"github.com/fieldbill/fieldbill/internal/numbering"
	"github.com/fieldbill/fieldbill/internal/shared"
)

// CacheBumper invalidates derived read models (the dashboard summary)
// after invoice mutations. Staleness is tolerable, so bump failures are
// swallowed.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

type Service struct {
	repo         Repository
	customerRepo customers.Repository
	bumper       CacheBumper
	validate     *validator.Validate
}

func NewService(repo Repository, customerRepo customers.Repository, bumper CacheBumper) *Service {
	return &Service{
		repo:         repo,
		customerRepo: customerRepo,
		bumper:       bumper,
		validate:     validator.New(),
	}
}

func (s *Service) Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	if _, err := s.customerRepo.Get(ctx, req.CustomerID); err != nil {
		return nil, fmt.Errorf("verify customer: %w", err)
	}

	taxRate := 0.0
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}
	totals, err := billing.ComputeTotals(req.LineItems, taxRate)
	if err != nil {
		return nil, err
	}

	today := shared.Today()
	issueDate := shared.FormatDate(today)
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}
	dueDate := shared.FormatDate(today.AddDate(0, 0, 30))
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}

	var invoiceID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.NextNumber(ctx, numbering.KindInvoice)
		if err != nil {
			return err
		}

		invoice := Invoice{
			CustomerID:    req.CustomerID,
			EstimateID:    req.EstimateID,
			InvoiceNumber: number,
			Status:        StatusDraft,
			Title:         req.Title,
			Description:   req.Description,
			Subtotal:      totals.Subtotal,
			TaxRate:       taxRate,
			TaxAmount:     totals.TaxAmount,
			Total:         totals.Total,
			AmountPaid:    0,
			AmountDue:     totals.Total,
			IssueDate:     issueDate,
			DueDate:       dueDate,
			Notes:         req.Notes,
		}
		invoiceID, err = repo.Create(ctx, invoice)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		for _, item := range billing.ItemsFromInputs(req.LineItems) {
			if err := repo.InsertLine(ctx, invoiceID, item); err != nil {
				return fmt.Errorf("insert line item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bump(ctx)
	return s.repo.Get(ctx, invoiceID)
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	return s.repo.List(ctx, req)
}

// Update applies only the supplied fields. Supplying line items replaces
// the whole set, recomputes totals and resets amount_due to the new
// total; amount_paid is deliberately left as-is.
func (s *Service) Update(ctx context.Context, id int64, req UpdateInvoiceRequest) (*Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if existing.Status == StatusPaid {
		return nil, fmt.Errorf("%w: cannot update paid invoice", shared.ErrConflict)
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	// An empty array is treated the same as "not supplied": the existing
	// line items and totals stay untouched.
	replaceLines := len(req.LineItems) > 0
	if replaceLines {
		taxRate := 0.0
		if req.TaxRate != nil {
			taxRate = *req.TaxRate
		}
		totals, err := billing.ComputeTotals(req.LineItems, taxRate)
		if err != nil {
			return nil, err
		}
		updates["subtotal"] = totals.Subtotal
		updates["tax_rate"] = taxRate
		updates["tax_amount"] = totals.TaxAmount
		updates["total"] = totals.Total
		updates["amount_due"] = totals.Total
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if len(updates) > 0 {
			if err := repo.Update(ctx, id, updates); err != nil {
				return err
			}
		}
		if replaceLines {
			if err := repo.DeleteLines(ctx, id); err != nil {
				return err
			}
			for _, item := range billing.ItemsFromInputs(req.LineItems) {
				if err := repo.InsertLine(ctx, id, item); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}

	s.bump(ctx)
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get invoice: %w", err)
	}
	if existing.Status == StatusPaid {
		return fmt.Errorf("%w: cannot delete paid invoice", shared.ErrConflict)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.bump(ctx)
	return nil
}

// RecordPayment accumulates a payment against the invoice. The status
// flips to paid exactly when the cumulative amount covers the total;
// otherwise the invoice is marked sent. Overpayment is accepted and
// yields a negative amount due.
func (s *Service) RecordPayment(ctx context.Context, id int64, req RecordPaymentRequest) (*Invoice, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	if existing.Status == StatusPaid {
		return nil, fmt.Errorf("%w: invoice already paid", shared.ErrConflict)
	}

	newAmountPaid := existing.AmountPaid + req.Amount
	newAmountDue := existing.Total - newAmountPaid

	application := PaymentApplication{
		AmountPaid:         newAmountPaid,
		AmountDue:          newAmountDue,
		Status:             StatusSent,
		PaymentMethod:      req.PaymentMethod,
		ExternalPaymentRef: req.ExternalPaymentRef,
	}
	if newAmountDue <= 0 {
		now := time.Now()
		application.Status = StatusPaid
		application.PaidDate = &now
	}

	if err := s.repo.ApplyPayment(ctx, id, application); err != nil {
		return nil, fmt.Errorf("apply payment: %w", err)
	}

	s.bump(ctx)
	return s.repo.Get(ctx, id)
}

// MarkOverdue flips sent invoices past their due date to overdue.
// Invoked by the scheduled sweep, not by any HTTP endpoint.
func (s *Service) MarkOverdue(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkOverdue(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.bump(ctx)
	}
	return n, nil
}

func (s *Service) bump(ctx context.Context) {
	if s.bumper != nil {
		_ = s.bumper.Bump(ctx)
	}
}
