package testutil

import (
	"net/http"

	"provenance/pkg/domain"
	"provenance/pkg/requestcontext"
)

// WithCaller injects the invoking identity the way the auth middleware would.
func WithCaller(req *http.Request, caller domain.Address) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// WithBearer sets an Authorization header for routes behind RequireCaller.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
