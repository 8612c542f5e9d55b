package handler

import "provenance/pkg/domain"

type setNameRequest struct {
	Name string `json:"name"`
}

type writerRequest struct {
	Account domain.Address `json:"account"`
}

type availabilityResponse struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

type nameResponse struct {
	Address domain.Address `json:"address"`
	Name    string         `json:"name"`
}

type catalogLinkResponse struct {
	Creator domain.Address `json:"creator"`
	Catalog domain.Address `json:"catalog"`
}
