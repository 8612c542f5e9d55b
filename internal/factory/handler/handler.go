package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"provenance/internal/factory/models"
	"provenance/internal/factory/service"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/pagination"
	"provenance/pkg/platform/httputil"
	"provenance/pkg/platform/middleware/auth"
	request "provenance/pkg/platform/middleware/request"
)

// Service defines the factory operations exposed over HTTP.
type Service interface {
	Provision(ctx context.Context, req service.ProvisionRequest) (*models.Entry, error)
	Directory(ctx context.Context, offset, pageSize int) (pagination.Page[models.Listing], error)
}

// Handler serves /catalogs.
type Handler struct {
	factory   Service
	logger    *slog.Logger
	validator auth.TokenValidator
}

func New(factory Service, logger *slog.Logger, validator auth.TokenValidator) *Handler {
	return &Handler{factory: factory, logger: logger, validator: validator}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/catalogs", h.handleList)
	r.With(auth.RequireCaller(h.validator, h.logger)).Post("/catalogs", h.handleProvision)
}

func (h *Handler) handleProvision(w http.ResponseWriter, r *http.Request) {
	var req provisionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	entry, err := h.factory.Provision(r.Context(), service.ProvisionRequest{
		Creator:     req.Creator,
		DisplayName: req.DisplayName,
		Story:       req.Story,
		URLTemplate: req.URLTemplate,
	})
	if err != nil {
		h.fail(w, r, "failed to provision catalog", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toEntryResponse(models.Listing{Entry: *entry}))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	offset, pageSize, err := httputil.PageParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := h.factory.Directory(r.Context(), offset, pageSize)
	if err != nil {
		h.fail(w, r, "failed to list catalogs", err)
		return
	}
	resp := listResponse{
		Catalogs:   make([]entryResponse, 0, page.Count),
		Count:      page.Count,
		TotalCount: page.TotalCount,
		Offset:     offset,
		PageSize:   pageSize,
	}
	for _, l := range page.Filled() {
		resp.Catalogs = append(resp.Catalogs, toEntryResponse(l))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, "request_id", request.GetRequestID(ctx), "error", err)
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", request.GetRequestID(ctx), "error", err)
	}
	httputil.WriteError(w, err)
}
