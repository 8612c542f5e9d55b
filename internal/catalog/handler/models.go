package handler

import (
	"encoding/hex"
	"strings"

	"provenance/internal/catalog/models"
	"provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

type createSeriesRequest struct {
	SeriesID    domain.SeriesID `json:"series_id"`
	Description string          `json:"description"`
}

type descriptionRequest struct {
	Description string `json:"description"`
}

type registerAssetRequest struct {
	AssetID      domain.AssetID  `json:"asset_id"`
	SeriesID     domain.SeriesID `json:"series_id"`
	Description  string          `json:"description"`
	Tags         []domain.Tag    `json:"tags"`
	DocumentHash string          `json:"document_hash,omitempty"`
}

type addTagRequest struct {
	Tag domain.Tag `json:"tag"`
}

type metadataResponse struct {
	Catalog     domain.Address `json:"catalog"`
	Creator     domain.Address `json:"creator"`
	DisplayName string         `json:"display_name"`
	Story       string         `json:"story"`
	AssetCount  int            `json:"asset_count"`
	URLTemplate string         `json:"url_template"`
}

type seriesResponse struct {
	SeriesID    domain.SeriesID `json:"series_id"`
	Label       string          `json:"label,omitempty"`
	Description string          `json:"description"`
}

type assetResponse struct {
	AssetID      domain.AssetID  `json:"asset_id"`
	SeriesID     domain.SeriesID `json:"series_id"`
	Description  string          `json:"description"`
	Creator      domain.Address  `json:"creator"`
	Tags         []domain.Tag    `json:"tags"`
	URL          string          `json:"url"`
	DocumentHash string          `json:"document_hash"`
}

// pageResponse lists only the filled prefix of a page.
type pageResponse[T any] struct {
	Items      []T `json:"items"`
	Count      int `json:"count"`
	TotalCount int `json:"total_count"`
	Offset     int `json:"offset"`
	PageSize   int `json:"page_size"`
}

func toMetadataResponse(catalog domain.Address, m models.CreatorMetadata) metadataResponse {
	return metadataResponse{
		Catalog:     catalog,
		Creator:     m.Creator,
		DisplayName: m.DisplayName,
		Story:       m.Story,
		AssetCount:  m.AssetCount,
		URLTemplate: m.URLTemplate,
	}
}

func toSeriesResponse(id domain.SeriesID, s *models.Series) seriesResponse {
	return seriesResponse{SeriesID: id, Label: id.Label(), Description: s.Description}
}

func toAssetResponse(a *models.Asset) assetResponse {
	tags := a.Tags
	if tags == nil {
		tags = []domain.Tag{}
	}
	return assetResponse{
		AssetID:      a.ID,
		SeriesID:     a.SeriesID,
		Description:  a.Description,
		Creator:      a.Creator,
		Tags:         tags,
		URL:          a.URL,
		DocumentHash: "0x" + hex.EncodeToString(a.DocumentHash[:]),
	}
}

// parseDocumentHash accepts an empty string or 0x-prefixed 64 hex digits.
func parseDocumentHash(raw string) ([32]byte, error) {
	var out [32]byte
	if raw == "" {
		return out, nil
	}
	digits, ok := strings.CutPrefix(strings.ToLower(raw), "0x")
	if !ok || len(digits) != len(out)*2 {
		return out, dErrors.New(dErrors.CodeBadRequest, "invalid document hash")
	}
	if _, err := hex.Decode(out[:], []byte(digits)); err != nil {
		return out, dErrors.New(dErrors.CodeBadRequest, "invalid document hash")
	}
	return out, nil
}
