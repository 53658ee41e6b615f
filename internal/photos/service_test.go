package photos

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldbill/fieldbill/internal/shared"
)

type memoryBlobStore struct {
	objects    map[string][]byte
	failUpload bool
	failDelete bool
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{objects: make(map[string][]byte)}
}

func (s *memoryBlobStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if s.failUpload {
		return "", errors.New("bucket unavailable")
	}
	s.objects[key] = data
	return s.PublicURL(key), nil
}

func (s *memoryBlobStore) Delete(ctx context.Context, key string) error {
	if s.failDelete {
		return errors.New("bucket unavailable")
	}
	delete(s.objects, key)
	return nil
}

func (s *memoryBlobStore) PublicURL(key string) string {
	return "https://storage.example.test/photos/" + key
}

type memoryPhotoRepo struct {
	photos map[int64]*Photo
	nextID int64
}

func newMemoryPhotoRepo() *memoryPhotoRepo {
	return &memoryPhotoRepo{photos: make(map[int64]*Photo)}
}

func (r *memoryPhotoRepo) Create(ctx context.Context, p Photo) (*Photo, error) {
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	r.photos[p.ID] = &p
	return &p, nil
}

func (r *memoryPhotoRepo) Get(ctx context.Context, id int64) (*Photo, error) {
	p, ok := r.photos[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryPhotoRepo) ListByParent(ctx context.Context, req ListPhotosRequest) ([]Photo, error) {
	var out []Photo
	for _, p := range r.photos {
		switch {
		case req.CustomerID != nil && p.CustomerID != nil && *p.CustomerID == *req.CustomerID:
			out = append(out, *p)
		case req.EstimateID != nil && p.EstimateID != nil && *p.EstimateID == *req.EstimateID:
			out = append(out, *p)
		case req.InvoiceID != nil && p.InvoiceID != nil && *p.InvoiceID == *req.InvoiceID:
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memoryPhotoRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.photos[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.photos, id)
	return nil
}

func uploadRequest(parent *int64) UploadPhotoRequest {
	return UploadPhotoRequest{
		Filename:   "before.jpg",
		MimeType:   "image/jpeg",
		Data:       base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")),
		CustomerID: parent,
	}
}

func TestUploadPhoto(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryPhotoRepo()
	store := newMemoryBlobStore()
	svc := NewService(repo, store)

	customerID := int64(7)
	photo, err := svc.Upload(ctx, uploadRequest(&customerID))
	require.NoError(t, err)
	require.NotZero(t, photo.ID)
	require.True(t, strings.HasSuffix(photo.StorageKey, ".jpeg"))
	require.Equal(t, store.PublicURL(photo.StorageKey), photo.URL)
	require.Equal(t, int64(len("jpeg-bytes")), photo.FileSize)
	require.Contains(t, store.objects, photo.StorageKey)
}

func TestUploadPhotoRequiresParent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryPhotoRepo(), newMemoryBlobStore())

	_, err := svc.Upload(ctx, uploadRequest(nil))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUploadPhotoRejectsUnsupportedMime(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryPhotoRepo(), newMemoryBlobStore())

	customerID := int64(1)
	req := uploadRequest(&customerID)
	req.MimeType = "application/pdf"
	_, err := svc.Upload(ctx, req)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUploadPhotoRejectsBadBase64(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryPhotoRepo(), newMemoryBlobStore())

	customerID := int64(1)
	req := uploadRequest(&customerID)
	req.Data = "not base64 at all!!!"
	_, err := svc.Upload(ctx, req)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUploadPhotoRejectsOversized(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryPhotoRepo(), newMemoryBlobStore())

	customerID := int64(1)
	req := uploadRequest(&customerID)
	req.Data = base64.StdEncoding.EncodeToString(make([]byte, maxPhotoSize+1))
	_, err := svc.Upload(ctx, req)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUploadPhotoStoreFailure(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryPhotoRepo()
	store := newMemoryBlobStore()
	store.failUpload = true
	svc := NewService(repo, store)

	customerID := int64(1)
	_, err := svc.Upload(ctx, uploadRequest(&customerID))
	require.ErrorIs(t, err, shared.ErrDependency)
	require.Empty(t, repo.photos)
}

func TestListPhotosRequiresExactlyOneParent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryPhotoRepo(), newMemoryBlobStore())

	_, err := svc.List(ctx, ListPhotosRequest{})
	require.ErrorIs(t, err, shared.ErrValidation)

	customerID, invoiceID := int64(1), int64(2)
	_, err = svc.List(ctx, ListPhotosRequest{CustomerID: &customerID, InvoiceID: &invoiceID})
	require.ErrorIs(t, err, shared.ErrValidation)

	photos, err := svc.List(ctx, ListPhotosRequest{CustomerID: &customerID})
	require.NoError(t, err)
	require.Empty(t, photos)
}

func TestDeletePhotoRemovesBlobFirst(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryPhotoRepo()
	store := newMemoryBlobStore()
	svc := NewService(repo, store)

	customerID := int64(1)
	photo, err := svc.Upload(ctx, uploadRequest(&customerID))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, photo.ID))
	require.NotContains(t, store.objects, photo.StorageKey)
	require.Empty(t, repo.photos)
}

func TestDeletePhotoKeepsRowWhenBlobDeleteFails(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryPhotoRepo()
	store := newMemoryBlobStore()
	svc := NewService(repo, store)

	customerID := int64(1)
	photo, err := svc.Upload(ctx, uploadRequest(&customerID))
	require.NoError(t, err)

	store.failDelete = true
	err = svc.Delete(ctx, photo.ID)
	require.ErrorIs(t, err, shared.ErrDependency)
	// The row survives so the delete can be retried.
	require.Contains(t, repo.photos, photo.ID)
}
