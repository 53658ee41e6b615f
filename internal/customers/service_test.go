package customers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldbill/fieldbill/internal/shared"
)

type memoryRepo struct {
	customers map[int64]*Customer
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{customers: make(map[int64]*Customer)}
}

func (r *memoryRepo) Create(ctx context.Context, c Customer) (*Customer, error) {
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	r.customers[c.ID] = &c
	return &c, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (r *memoryRepo) List(ctx context.Context) ([]Customer, error) {
	var out []Customer
	for _, c := range r.customers {
		out = append(out, *c)
	}
	return out, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, c Customer) (*Customer, error) {
	existing, ok := r.customers[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	c.ID = id
	c.CreatedAt = existing.CreatedAt
	r.customers[id] = &c
	return &c, nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.customers[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.customers, id)
	return nil
}

func TestCreateCustomer(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(ctx, CreateCustomerRequest{
		Name:    "Harbor Landscaping",
		Email:   "office@harborlandscaping.test",
		Phone:   "555-0101",
		Address: "12 Pier Rd",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, "Harbor Landscaping", created.Name)
	require.Nil(t, created.Notes)
}

func TestCreateCustomerRejectsBadEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(ctx, CreateCustomerRequest{
		Name:    "Bad Email Inc",
		Email:   "not-an-email",
		Phone:   "555-0101",
		Address: "Nowhere",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateCustomerReplacesAllFields(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo)

	notes := "prefers morning visits"
	created, err := svc.Create(ctx, CreateCustomerRequest{
		Name:    "Old Name",
		Email:   "old@example.test",
		Phone:   "555-0101",
		Address: "Old Address",
		Notes:   &notes,
	})
	require.NoError(t, err)

	// Update is a full replace: an omitted notes field clears it.
	updated, err := svc.Update(ctx, created.ID, UpdateCustomerRequest{
		Name:    "New Name",
		Email:   "new@example.test",
		Phone:   "555-0202",
		Address: "New Address",
	})
	require.NoError(t, err)
	require.Equal(t, "New Name", updated.Name)
	require.Nil(t, updated.Notes)
}

func TestDeleteMissingCustomer(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo())

	err := svc.Delete(ctx, 42)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
