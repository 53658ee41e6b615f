package estimates

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldbill/fieldbill/internal/billing"
	"github.com/fieldbill/fieldbill/internal/customers"
	"github.com/fieldbill/fieldbill/internal/numbering"
	"github.com/fieldbill/fieldbill/internal/shared"
)

type memoryCustomerRepo struct {
	customers map[int64]*customers.Customer
}

func newMemoryCustomerRepo(ids ...int64) *memoryCustomerRepo {
	r := &memoryCustomerRepo{customers: make(map[int64]*customers.Customer)}
	for _, id := range ids {
		r.customers[id] = &customers.Customer{ID: id, Name: "Customer", Email: "c@example.test"}
	}
	return r
}

func (r *memoryCustomerRepo) Create(ctx context.Context, c customers.Customer) (*customers.Customer, error) {
	return &c, nil
}

func (r *memoryCustomerRepo) Get(ctx context.Context, id int64) (*customers.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (r *memoryCustomerRepo) List(ctx context.Context) ([]customers.Customer, error) {
	return nil, nil
}

func (r *memoryCustomerRepo) Update(ctx context.Context, id int64, c customers.Customer) (*customers.Customer, error) {
	return &c, nil
}

func (r *memoryCustomerRepo) Delete(ctx context.Context, id int64) error {
	return nil
}

type memoryEstimateRepo struct {
	estimates     map[int64]*Estimate
	lines         map[int64][]billing.LineItem
	invoices      map[int64]*ConvertedInvoice
	invoiceLines  map[int64][]billing.LineItem
	sequences     map[numbering.Kind]int64
	nextID        int64
	nextInvoiceID int64
}

func newMemoryEstimateRepo() *memoryEstimateRepo {
	return &memoryEstimateRepo{
		estimates:    make(map[int64]*Estimate),
		lines:        make(map[int64][]billing.LineItem),
		invoices:     make(map[int64]*ConvertedInvoice),
		invoiceLines: make(map[int64][]billing.LineItem),
		sequences:    make(map[numbering.Kind]int64),
	}
}

func (r *memoryEstimateRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryEstimateRepo) Get(ctx context.Context, id int64) (*Estimate, error) {
	e, ok := r.estimates[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	out := *e
	out.LineItems = r.lines[id]
	return &out, nil
}

func (r *memoryEstimateRepo) List(ctx context.Context, req ListEstimatesRequest) ([]Estimate, error) {
	var out []Estimate
	for _, e := range r.estimates {
		if req.CustomerID != nil && e.CustomerID != *req.CustomerID {
			continue
		}
		if req.Status != nil && e.Status != *req.Status {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (r *memoryEstimateRepo) Create(ctx context.Context, e Estimate) (int64, error) {
	r.nextID++
	e.ID = r.nextID
	e.CreatedAt = time.Now()
	e.UpdatedAt = time.Now()
	r.estimates[e.ID] = &e
	return e.ID, nil
}

func (r *memoryEstimateRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	e, ok := r.estimates[id]
	if !ok {
		return shared.ErrNotFound
	}
	if v, ok := updates["title"]; ok {
		e.Title = v.(string)
	}
	if v, ok := updates["subtotal"]; ok {
		e.Subtotal = v.(float64)
	}
	if v, ok := updates["tax_rate"]; ok {
		e.TaxRate = v.(float64)
	}
	if v, ok := updates["tax_amount"]; ok {
		e.TaxAmount = v.(float64)
	}
	if v, ok := updates["total"]; ok {
		e.Total = v.(float64)
	}
	e.UpdatedAt = time.Now()
	return nil
}

func (r *memoryEstimateRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.estimates[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.estimates, id)
	delete(r.lines, id)
	return nil
}

func (r *memoryEstimateRepo) MarkApproved(ctx context.Context, id int64) error {
	e, ok := r.estimates[id]
	if !ok {
		return shared.ErrNotFound
	}
	now := time.Now()
	e.Status = StatusApproved
	e.ApprovedAt = &now
	return nil
}

func (r *memoryEstimateRepo) InsertLine(ctx context.Context, estimateID int64, item billing.LineItem) error {
	item.ID = int64(len(r.lines[estimateID]) + 1)
	r.lines[estimateID] = append(r.lines[estimateID], item)
	return nil
}

func (r *memoryEstimateRepo) DeleteLines(ctx context.Context, estimateID int64) error {
	delete(r.lines, estimateID)
	return nil
}

func (r *memoryEstimateRepo) NextNumber(ctx context.Context, kind numbering.Kind) (string, error) {
	r.sequences[kind]++
	return numbering.Format(kind, r.sequences[kind]), nil
}

func (r *memoryEstimateRepo) InsertConvertedInvoice(ctx context.Context, inv ConvertedInvoice) (int64, error) {
	r.nextInvoiceID++
	r.invoices[r.nextInvoiceID] = &inv
	return r.nextInvoiceID, nil
}

func (r *memoryEstimateRepo) CopyLinesToInvoice(ctx context.Context, estimateID, invoiceID int64) error {
	r.invoiceLines[invoiceID] = append([]billing.LineItem{}, r.lines[estimateID]...)
	return nil
}

func newTestService() (*Service, *memoryEstimateRepo) {
	repo := newMemoryEstimateRepo()
	return NewService(repo, newMemoryCustomerRepo(1)), repo
}

func TestCreateEstimate(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	taxRate := 6.25
	created, err := svc.Create(ctx, CreateEstimateRequest{
		CustomerID: 1,
		Title:      "Deck repair",
		TaxRate:    &taxRate,
		LineItems: []billing.LineItemInput{
			{ItemType: billing.ItemTypeLabor, Description: "Carpentry", Quantity: 8, UnitPrice: 75, Total: 600},
			{ItemType: billing.ItemTypeMaterial, Description: "Pressure-treated lumber", Quantity: 1, UnitPrice: 240, Total: 240},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "EST-00001", created.EstimateNumber)
	require.Equal(t, StatusDraft, created.Status)
	require.InDelta(t, 840.00, created.Subtotal, 0.001)
	require.InDelta(t, 52.50, created.TaxAmount, 0.001)
	require.InDelta(t, 892.50, created.Total, 0.001)
	require.Len(t, created.LineItems, 2)
	require.Len(t, repo.lines[created.ID], 2)
}

func TestCreateEstimateNumbersAreSequential(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	for i := 1; i <= 3; i++ {
		created, err := svc.Create(ctx, CreateEstimateRequest{
			CustomerID: 1,
			Title:      "Job",
			LineItems: []billing.LineItemInput{
				{ItemType: billing.ItemTypeLabor, Description: "Work", Quantity: 1, UnitPrice: 100, Total: 100},
			},
		})
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("EST-%05d", i), created.EstimateNumber)
	}
}

func TestCreateEstimateRequiresLineItems(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Create(ctx, CreateEstimateRequest{CustomerID: 1, Title: "Empty"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateEstimateUnknownCustomer(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Create(ctx, CreateEstimateRequest{
		CustomerID: 99,
		Title:      "Job",
		LineItems: []billing.LineItemInput{
			{ItemType: billing.ItemTypeLabor, Description: "Work", Total: 100},
		},
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateEstimateReplacesLines(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.Create(ctx, CreateEstimateRequest{
		CustomerID: 1,
		Title:      "Job",
		LineItems: []billing.LineItemInput{
			{ItemType: billing.ItemTypeLabor, Description: "Work", Total: 100},
		},
	})
	require.NoError(t, err)

	taxRate := 10.0
	updated, err := svc.Update(ctx, created.ID, UpdateEstimateRequest{
		TaxRate: &taxRate,
		LineItems: []billing.LineItemInput{
			{ItemType: billing.ItemTypeLabor, Description: "More work", Total: 200},
			{ItemType: billing.ItemTypeOther, Description: "Disposal fee", Total: 50},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.LineItems, 2)
	require.InDelta(t, 250.00, updated.Subtotal, 0.001)
	require.InDelta(t, 25.00, updated.TaxAmount, 0.001)
	require.InDelta(t, 275.00, updated.Total, 0.001)
}

func TestUpdateEstimateEmptyLinesLeavesTotals(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.Create(ctx, CreateEstimateRequest{
		CustomerID: 1,
		Title:      "Job",
		LineItems: []billing.LineItemInput{
			{ItemType: billing.ItemTypeLabor, Description: "Work", Total: 100},
		},
	})
	require.NoError(t, err)

	title := "Renamed job"
	updated, err := svc.Update(ctx, created.ID, UpdateEstimateRequest{
		Title:     &title,
		LineItems: []billing.LineItemInput{},
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed job", updated.Title)
	require.InDelta(t, 100.00, updated.Subtotal, 0.001)
	require.Len(t, updated.LineItems, 1)
}

func TestUpdateApprovedEstimateConflicts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.Create(ctx, CreateEstimateRequest{
		CustomerID: 1,
		Title:      "Job",
		LineItems: []billing.LineItemInput{
			{ItemType: billing.ItemTypeLabor, Description: "Work", Total: 100},
		},
	})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, created.ID)
	require.NoError(t, err)

	title := "Too late"
	_, err = svc.Update(ctx, created.ID, UpdateEstimateRequest{Title: &title})
	require.ErrorIs(t, err, shared.ErrConflict)

	err = svc.Delete(ctx, created.ID)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestApproveEstimateConvertsToInvoice(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	taxRate := 8.5
	created, err := svc.Create(ctx, CreateEstimateRequest{
		CustomerID: 1,
		Title:      "Fence install",
		TaxRate:    &taxRate,
		LineItems: []billing.LineItemInput{
			{ItemType: billing.ItemTypeLabor, Description: "Install", Quantity: 12, UnitPrice: 60, Total: 720},
			{ItemType: billing.ItemTypeMaterial, Description: "Cedar panels", Quantity: 8, UnitPrice: 110, Total: 880},
		},
	})
	require.NoError(t, err)

	resp, err := svc.Approve(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, resp.Estimate.Status)
	require.NotNil(t, resp.Estimate.ApprovedAt)
	require.NotZero(t, resp.InvoiceID)

	inv := repo.invoices[resp.InvoiceID]
	require.NotNil(t, inv)
	require.Equal(t, created.CustomerID, inv.CustomerID)
	require.Equal(t, created.ID, inv.EstimateID)
	require.Equal(t, "INV-00001", inv.InvoiceNumber)
	require.Equal(t, created.Title, inv.Title)
	require.InDelta(t, created.Subtotal, inv.Subtotal, 0.001)
	require.InDelta(t, created.Total, inv.Total, 0.001)
	require.Len(t, repo.invoiceLines[resp.InvoiceID], 2)

	due, err := shared.ParseDate(inv.DueDate)
	require.NoError(t, err)
	issue, err := shared.ParseDate(inv.IssueDate)
	require.NoError(t, err)
	require.Equal(t, issue.AddDate(0, 0, 30), due)
}

func TestApproveEstimateTwiceConflicts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.Create(ctx, CreateEstimateRequest{
		CustomerID: 1,
		Title:      "Job",
		LineItems: []billing.LineItemInput{
			{ItemType: billing.ItemTypeLabor, Description: "Work", Total: 100},
		},
	})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, created.ID)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, created.ID)
	require.ErrorIs(t, err, shared.ErrConflict)
}
