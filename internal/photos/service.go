package photos

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fieldbill/fieldbill/internal/platform/blob"
	"github.com/fieldbill/fieldbill/internal/shared"
)

// maxPhotoSize caps decoded uploads at 10 MiB.
const maxPhotoSize = 10 << 20

var allowedMimeTypes = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/heic": "heic",
}

type Service struct {
	repo     Repository
	store    blob.Store
	validate *validator.Validate
}

func NewService(repo Repository, store blob.Store) *Service {
	return &Service{repo: repo, store: store, validate: validator.New()}
}

func (s *Service) Upload(ctx context.Context, req UploadPhotoRequest) (*Photo, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if req.CustomerID == nil && req.EstimateID == nil && req.InvoiceID == nil {
		return nil, fmt.Errorf("%w: photo must be attached to a customer, estimate, or invoice", shared.ErrValidation)
	}

	ext, ok := allowedMimeTypes[strings.ToLower(req.MimeType)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported mime type %q", shared.ErrValidation, req.MimeType)
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: data is not valid base64", shared.ErrValidation)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: data is empty", shared.ErrValidation)
	}
	if len(data) > maxPhotoSize {
		return nil, fmt.Errorf("%w: photo exceeds 10MB limit", shared.ErrValidation)
	}

	key := fmt.Sprintf("%s.%s", uuid.NewString(), ext)
	url, err := s.store.Upload(ctx, key, req.MimeType, data)
	if err != nil {
		return nil, fmt.Errorf("%w: upload to object store: %v", shared.ErrDependency, err)
	}

	// Blob first, row second. If the insert fails the blob is orphaned,
	// which is harmless; a missing blob behind a live row is not.
	return s.repo.Create(ctx, Photo{
		URL:        url,
		StorageKey: key,
		Filename:   req.Filename,
		MimeType:   strings.ToLower(req.MimeType),
		FileSize:   int64(len(data)),
		Caption:    req.Caption,
		CustomerID: req.CustomerID,
		EstimateID: req.EstimateID,
		InvoiceID:  req.InvoiceID,
	})
}

func (s *Service) List(ctx context.Context, req ListPhotosRequest) ([]Photo, error) {
	set := 0
	for _, p := range []*int64{req.CustomerID, req.EstimateID, req.InvoiceID} {
		if p != nil {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%w: exactly one of customerId, estimateId, invoiceId is required", shared.ErrValidation)
	}
	return s.repo.ListByParent(ctx, req)
}

func (s *Service) Get(ctx context.Context, id int64) (*Photo, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes the blob before the row so a failed object-store delete
// keeps the row around for a retry.
func (s *Service) Delete(ctx context.Context, id int64) error {
	photo, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, photo.StorageKey); err != nil {
		return fmt.Errorf("%w: delete from object store: %v", shared.ErrDependency, err)
	}
	return s.repo.Delete(ctx, id)
}
