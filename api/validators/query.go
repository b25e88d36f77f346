package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/agrisoko/farmhub-backend/pkg/errors"
	"github.com/agrisoko/farmhub-backend/pkg/pagination"
)

// PaginationFromQuery reads limit and cursor query parameters. Limit bounds
// are applied later by pagination.NormalizeLimit.
func PaginationFromQuery(r *http.Request) (pagination.Params, error) {
	params := pagination.Params{Cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))}
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return params, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return pagination.Params{}, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a non-negative integer")
	}
	params.Limit = limit
	return params, nil
}

// BoolFromQuery reads an optional boolean query parameter, defaulting to false.
func BoolFromQuery(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, name+" must be a boolean")
	}
	return value, nil
}
