package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/platform/httputil"
	"provenance/pkg/platform/middleware/auth"
	request "provenance/pkg/platform/middleware/request"
)

// Service defines the name registry operations exposed over HTTP.
type Service interface {
	IsNameAvailable(ctx context.Context, name string) (bool, error)
	SetName(ctx context.Context, address domain.Address, name string) error
	GetName(ctx context.Context, address domain.Address) (string, error)
	GetID(ctx context.Context, name string) (domain.Address, error)
	GrantWriter(ctx context.Context, account domain.Address) error
	RevokeWriter(ctx context.Context, account domain.Address) error
	GetCatalogAddress(ctx context.Context, creator domain.Address) (domain.Address, error)
}

// Handler serves /names.
type Handler struct {
	names     Service
	logger    *slog.Logger
	validator auth.TokenValidator
}

func New(names Service, logger *slog.Logger, validator auth.TokenValidator) *Handler {
	return &Handler{names: names, logger: logger, validator: validator}
}

// Register mounts public lookups and token-protected writes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/names/availability", h.handleAvailability)
	r.Get("/names/by-name/{name}", h.handleGetID)
	r.Get("/names/{address}", h.handleGetName)
	r.Get("/names/{address}/catalog", h.handleGetCatalog)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireCaller(h.validator, h.logger))
		r.Put("/names/{address}", h.handleSetName)
		r.Post("/names/writers", h.handleGrantWriter)
		r.Delete("/names/writers/{address}", h.handleRevokeWriter)
	})
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	available, err := h.names.IsNameAvailable(r.Context(), name)
	if err != nil {
		h.fail(w, r, "failed to check availability", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, availabilityResponse{Name: name, Available: available})
}

func (h *Handler) handleGetName(w http.ResponseWriter, r *http.Request) {
	address, ok := h.addressParam(w, r, "address")
	if !ok {
		return
	}
	name, err := h.names.GetName(r.Context(), address)
	if err != nil {
		h.fail(w, r, "failed to get name", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nameResponse{Address: address, Name: name})
}

func (h *Handler) handleGetID(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	address, err := h.names.GetID(r.Context(), name)
	if err != nil {
		h.fail(w, r, "failed to resolve name", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nameResponse{Address: address, Name: name})
}

func (h *Handler) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	creator, ok := h.addressParam(w, r, "address")
	if !ok {
		return
	}
	catalog, err := h.names.GetCatalogAddress(r.Context(), creator)
	if err != nil {
		h.fail(w, r, "failed to get catalog address", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, catalogLinkResponse{Creator: creator, Catalog: catalog})
}

func (h *Handler) handleSetName(w http.ResponseWriter, r *http.Request) {
	address, ok := h.addressParam(w, r, "address")
	if !ok {
		return
	}
	var req setNameRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.names.SetName(r.Context(), address, req.Name); err != nil {
		h.fail(w, r, "failed to set name", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nameResponse{Address: address, Name: req.Name})
}

func (h *Handler) handleGrantWriter(w http.ResponseWriter, r *http.Request) {
	var req writerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.names.GrantWriter(r.Context(), req.Account); err != nil {
		h.fail(w, r, "failed to grant writer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRevokeWriter(w http.ResponseWriter, r *http.Request) {
	account, ok := h.addressParam(w, r, "address")
	if !ok {
		return
	}
	if err := h.names.RevokeWriter(r.Context(), account); err != nil {
		h.fail(w, r, "failed to revoke writer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addressParam(w http.ResponseWriter, r *http.Request, key string) (domain.Address, bool) {
	address, err := domain.ParseAddress(chi.URLParam(r, key))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid address"))
		return domain.Address{}, false
	}
	return address, true
}

// fail logs domain rejections at warn and everything else at error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, "request_id", request.GetRequestID(ctx), "error", err)
	} else {
		h.logger.WarnContext(ctx, msg, "request_id", request.GetRequestID(ctx), "error", err)
	}
	httputil.WriteError(w, err)
}
