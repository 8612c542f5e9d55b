package httputil

import (
	"net/http"
	"strconv"

	dErrors "provenance/pkg/domain-errors"
)

// DefaultPageSize applies when a listing request omits page_size.
const DefaultPageSize = 20

// PageParams reads offset and page_size from the query string. Range checks are
// left to the service so every transport reports them the same way.
func PageParams(r *http.Request) (offset, pageSize int, err error) {
	q := r.URL.Query()
	offset, err = intParam(q.Get("offset"), 0)
	if err != nil {
		return 0, 0, dErrors.Wrap(err, dErrors.CodeBadRequest, "offset must be an integer")
	}
	pageSize, err = intParam(q.Get("page_size"), DefaultPageSize)
	if err != nil {
		return 0, 0, dErrors.Wrap(err, dErrors.CodeBadRequest, "page_size must be an integer")
	}
	return offset, pageSize, nil
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
