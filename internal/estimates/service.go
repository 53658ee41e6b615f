package estimates

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/fieldbill/fieldbill/internal/billing"
	"github.com/fieldbill/fieldbill/internal/customers"
	"github.com/fieldbill/fieldbill/internal/numbering"
	"github.com/fieldbill/fieldbill/internal/shared"
)

type Service struct {
	repo         Repository
	customerRepo customers.Repository
	validate     *validator.Validate
}

func NewService(repo Repository, customerRepo customers.Repository) *Service {
	return &Service{
		repo:         repo,
		customerRepo: customerRepo,
		validate:     validator.New(),
	}
}

func (s *Service) Create(ctx context.Context, req CreateEstimateRequest) (*Estimate, error) {
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

	var estimateID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number, err := repo.NextNumber(ctx, numbering.KindEstimate)
		if err != nil {
			return err
		}

		estimate := Estimate{
			CustomerID:     req.CustomerID,
			EstimateNumber: number,
			Status:         StatusDraft,
			Title:          req.Title,
			Description:    req.Description,
			Subtotal:       totals.Subtotal,
			TaxRate:        taxRate,
			TaxAmount:      totals.TaxAmount,
			Total:          totals.Total,
			ValidUntil:     req.ValidUntil,
			Notes:          req.Notes,
		}
		estimateID, err = repo.Create(ctx, estimate)
		if err != nil {
			return fmt.Errorf("create estimate: %w", err)
		}

		for _, item := range billing.ItemsFromInputs(req.LineItems) {
			if err := repo.InsertLine(ctx, estimateID, item); err != nil {
				return fmt.Errorf("insert line item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, estimateID)
}

func (s *Service) Get(ctx context.Context, id int64) (*Estimate, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListEstimatesRequest) ([]Estimate, error) {
	return s.repo.List(ctx, req)
}

// Update applies only the supplied fields. Supplying line items replaces
// the whole set and recomputes totals inside one transaction, so a
// reader never observes the document without its items.
func (s *Service) Update(ctx context.Context, id int64, req UpdateEstimateRequest) (*Estimate, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get estimate: %w", err)
	}
	if existing.Status == StatusApproved {
		return nil, fmt.Errorf("%w: cannot update approved estimate", shared.ErrConflict)
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ValidUntil != nil {
		updates["valid_until"] = *req.ValidUntil
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
		return nil, fmt.Errorf("update estimate: %w", err)
	}

	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get estimate: %w", err)
	}
	if existing.Status == StatusApproved {
		return fmt.Errorf("%w: cannot delete approved estimate", shared.ErrConflict)
	}
	// Line items go with the parent via the database cascade.
	return s.repo.Delete(ctx, id)
}

// Approve freezes the estimate and materializes an invoice from it. All
// steps run in one transaction: a failure on any of them leaves neither
// an approved estimate without an invoice nor a half-copied invoice.
func (s *Service) Approve(ctx context.Context, id int64) (*ApproveEstimateResponse, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get estimate: %w", err)
	}
	if existing.Status == StatusApproved {
		return nil, fmt.Errorf("%w: estimate already approved", shared.ErrConflict)
	}

	today := shared.Today()
	issueDate := shared.FormatDate(today)
	dueDate := shared.FormatDate(today.AddDate(0, 0, 30))

	var invoiceID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.MarkApproved(ctx, id); err != nil {
			return fmt.Errorf("mark approved: %w", err)
		}

		number, err := repo.NextNumber(ctx, numbering.KindInvoice)
		if err != nil {
			return err
		}

		invoiceID, err = repo.InsertConvertedInvoice(ctx, ConvertedInvoice{
			CustomerID:    existing.CustomerID,
			EstimateID:    id,
			InvoiceNumber: number,
			Title:         existing.Title,
			Description:   existing.Description,
			Subtotal:      existing.Subtotal,
			TaxRate:       existing.TaxRate,
			TaxAmount:     existing.TaxAmount,
			Total:         existing.Total,
			IssueDate:     issueDate,
			DueDate:       dueDate,
			Notes:         existing.Notes,
		})
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		if err := repo.CopyLinesToInvoice(ctx, id, invoiceID); err != nil {
			return fmt.Errorf("copy line items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	approved, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ApproveEstimateResponse{Estimate: approved, InvoiceID: invoiceID}, nil
}
