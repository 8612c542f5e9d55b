package handler

import (
	"time"

	"provenance/internal/factory/models"
	"provenance/pkg/domain"
)

type provisionRequest struct {
	Creator     domain.Address `json:"creator"`
	DisplayName string         `json:"display_name"`
	Story       string         `json:"story"`
	URLTemplate string         `json:"url_template"`
}

type entryResponse struct {
	Ordinal     int            `json:"ordinal"`
	Creator     domain.Address `json:"creator"`
	Catalog     domain.Address `json:"catalog"`
	DisplayName string         `json:"display_name,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

type listResponse struct {
	Catalogs   []entryResponse `json:"catalogs"`
	Count      int             `json:"count"`
	TotalCount int             `json:"total_count"`
	Offset     int             `json:"offset"`
	PageSize   int             `json:"page_size"`
}

func toEntryResponse(l models.Listing) entryResponse {
	return entryResponse{
		Ordinal:     l.Ordinal,
		Creator:     l.Creator,
		Catalog:     l.Catalog,
		DisplayName: l.DisplayName,
		CreatedAt:   l.CreatedAt,
	}
}
