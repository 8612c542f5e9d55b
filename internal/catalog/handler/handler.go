package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"provenance/internal/catalog/models"
	"provenance/internal/catalog/service"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/pagination"
	"provenance/pkg/platform/httputil"
	"provenance/pkg/platform/middleware/auth"
	request "provenance/pkg/platform/middleware/request"
)

// Service defines the catalog operations exposed over HTTP.
type Service interface {
	GetCreatorMetadata(ctx context.Context, catalog domain.Address) (models.CreatorMetadata, error)
	CreateSeries(ctx context.Context, catalog domain.Address, id domain.SeriesID, description string) error
	UpdateSeriesDescription(ctx context.Context, catalog domain.Address, id domain.SeriesID, description string) error
	GetSeriesMetadata(ctx context.Context, catalog domain.Address, id domain.SeriesID) (*models.Series, error)
	ListSeries(ctx context.Context, catalog domain.Address, offset, pageSize int) (pagination.Page[domain.SeriesID], error)
	RegisterAsset(ctx context.Context, catalog domain.Address, p service.RegisterAssetParams) (*models.Asset, error)
	UpdateAssetDescription(ctx context.Context, catalog domain.Address, id domain.AssetID, description string) error
	GetAssetMetadata(ctx context.Context, catalog domain.Address, id domain.AssetID) (*models.Asset, error)
	GetAssetsBySeries(ctx context.Context, catalog domain.Address, seriesID domain.SeriesID, offset, pageSize int) (pagination.Page[domain.AssetID], error)
	AddTagToAsset(ctx context.Context, catalog domain.Address, id domain.AssetID, tag domain.Tag) error
	RemoveTagFromAsset(ctx context.Context, catalog domain.Address, id domain.AssetID, tag domain.Tag) error
}

// Handler serves /catalogs/{catalog}.
type Handler struct {
	catalogs  Service
	logger    *slog.Logger
	validator auth.TokenValidator
}

func New(catalogs Service, logger *slog.Logger, validator auth.TokenValidator) *Handler {
	return &Handler{catalogs: catalogs, logger: logger, validator: validator}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/catalogs/{catalog}", func(r chi.Router) {
		r.Get("/", h.handleGetMetadata)
		r.Get("/series", h.handleListSeries)
		r.Get("/series/{seriesId}", h.handleGetSeries)
		r.Get("/series/{seriesId}/assets", h.handleListAssets)
		r.Get("/assets/{assetId}", h.handleGetAsset)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireCaller(h.validator, h.logger))
			r.Post("/series", h.handleCreateSeries)
			r.Put("/series/{seriesId}", h.handleUpdateSeries)
			r.Post("/assets", h.handleRegisterAsset)
			r.Put("/assets/{assetId}", h.handleUpdateAsset)
			r.Post("/assets/{assetId}/tags", h.handleAddTag)
			r.Delete("/assets/{assetId}/tags/{tag}", h.handleRemoveTag)
		})
	})
}

func (h *Handler) handleGetMetadata(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.catalogParam(w, r)
	if !ok {
		return
	}
	meta, err := h.catalogs.GetCreatorMetadata(r.Context(), catalog)
	if err != nil {
		h.fail(w, r, "failed to get creator metadata", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toMetadataResponse(catalog, meta))
}

func (h *Handler) handleCreateSeries(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.catalogParam(w, r)
	if !ok {
		return
	}
	var req createSeriesRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.catalogs.CreateSeries(r.Context(), catalog, req.SeriesID, req.Description); err != nil {
		h.fail(w, r, "failed to create series", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, seriesResponse{
		SeriesID:    req.SeriesID,
		Label:       req.SeriesID.Label(),
		Description: req.Description,
	})
}

func (h *Handler) handleListSeries(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.catalogParam(w, r)
	if !ok {
		return
	}
	offset, pageSize, err := httputil.PageParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := h.catalogs.ListSeries(r.Context(), catalog, offset, pageSize)
	if err != nil {
		h.fail(w, r, "failed to list series", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPage(page, offset, pageSize))
}

func (h *Handler) handleGetSeries(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.catalogParam(w, r)
	if !ok {
		return
	}
	id, ok := h.seriesParam(w, r)
	if !ok {
		return
	}
	series, err := h.catalogs.GetSeriesMetadata(r.Context(), catalog, id)
	if err != nil {
		h.fail(w, r, "failed to get series", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSeriesResponse(id, series))
}

func (h *Handler) handleUpdateSeries(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.catalogParam(w, r)
	if !ok {
		return
	}
	id, ok := h.seriesParam(w, r)
	if !ok {
		return
	}
	var req descriptionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.catalogs.UpdateSeriesDescription(r.Context(), catalog, id, req.Description); err != nil {
		h.fail(w, r, "failed to update series", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, seriesResponse{SeriesID: id, Label: id.Label(), Description: req.Description})
}

func (h *Handler) handleListAssets(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.catalogParam(w, r)
	if !ok {
		return
	}
	id, ok := h.seriesParam(w, r)
	if !ok {
		return
	}
	offset, pageSize, err := httputil.PageParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := h.catalogs.GetAssetsBySeries(r.Context(), catalog, id, offset, pageSize)
	if err != nil {
		h.fail(w, r, "failed to list assets", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPage(page, offset, pageSize))
}

func (h *Handler) handleRegisterAsset(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.catalogParam(w, r)
	if !ok {
		return
	}
	var req registerAssetRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	docHash, err := parseDocumentHash(req.DocumentHash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	asset, err := h.catalogs.RegisterAsset(r.Context(), catalog, service.RegisterAssetParams{
		ID:           req.AssetID,
		SeriesID:     req.SeriesID,
		Description:  req.Description,
		Tags:         req.Tags,
		DocumentHash: docHash,
	})
	if err != nil {
		h.fail(w, r, "failed to register asset", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAssetResponse(asset))
}

func (h *Handler) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.catalogParam(w, r)
	if !ok {
		return
	}
	id, ok := h.assetParam(w, r)
	if !ok {
		return
	}
	asset, err := h.catalogs.GetAssetMetadata(r.Context(), catalog, id)
	if err != nil {
		h.fail(w, r, "failed to get asset", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAssetResponse(asset))
}

func (h *Handler) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.catalogParam(w, r)
	if !ok {
		return
	}
	id, ok := h.assetParam(w, r)
	if !ok {
		return
	}
	var req descriptionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.catalogs.UpdateAssetDescription(r.Context(), catalog, id, req.Description); err != nil {
		h.fail(w, r, "failed to update asset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddTag(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.catalogParam(w, r)
	if !ok {
		return
	}
	id, ok := h.assetParam(w, r)
	if !ok {
		return
	}
	var req addTagRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.catalogs.AddTagToAsset(r.Context(), catalog, id, req.Tag); err != nil {
		h.fail(w, r, "failed to add tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	catalog, ok := h.catalogParam(w, r)
	if !ok {
		return
	}
	id, ok := h.assetParam(w, r)
	if !ok {
		return
	}
	tag, err := domain.ParseTag(chi.URLParam(r, "tag"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid tag"))
		return
	}
	if err := h.catalogs.RemoveTagFromAsset(r.Context(), catalog, id, tag); err != nil {
		h.fail(w, r, "failed to remove tag", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toPage[T any](page pagination.Page[T], offset, pageSize int) pageResponse[T] {
	return pageResponse[T]{
		Items:      append([]T{}, page.Filled()...),
		Count:      page.Count,
		TotalCount: page.TotalCount,
		Offset:     offset,
		PageSize:   pageSize,
	}
}

func (h *Handler) catalogParam(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	address, err := domain.ParseAddress(chi.URLParam(r, "catalog"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid catalog address"))
		return domain.Address{}, false
	}
	return address, true
}

func (h *Handler) seriesParam(w http.ResponseWriter, r *http.Request) (domain.SeriesID, bool) {
	id, err := domain.ParseSeriesID(chi.URLParam(r, "seriesId"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid series id"))
		return domain.SeriesID{}, false
	}
	return id, true
}

func (h *Handler) assetParam(w http.ResponseWriter, r *http.Request) (domain.AssetID, bool) {
	id, err := domain.ParseAssetID(chi.URLParam(r, "assetId"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid asset id"))
		return domain.AssetID{}, false
	}
	return id, true
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
