package photos

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fieldbill/fieldbill/internal/platform/httpx"
	"github.com/fieldbill/fieldbill/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	var req UploadPhotoRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}

	photo, err := h.service.Upload(r.Context(), req)
	if err != nil {
		h.logger.Error("upload photo", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, photo)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListPhotosRequest{}
	for param, dst := range map[string]**int64{
		"customerId": &req.CustomerID,
		"estimateId": &req.EstimateID,
		"invoiceId":  &req.InvoiceID,
	} {
		if v := r.URL.Query().Get(param); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				httpx.RespondError(w, shared.ErrValidation)
				return
			}
			*dst = &id
		}
	}

	photos, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list photos", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListPhotosResponse{Photos: photos})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	photo, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, photo)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete photo", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return 0, false
	}
	return id, true
}
