package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
	"github.com/civictrack/civictrack-backend/pkg/pagination"
)

// MaxPage bounds the page query parameter.
const MaxPage = 10000

// QueryInt reads an integer query parameter, returning fallback when absent.
// Non-numeric or out of range values are validation errors.
func QueryInt(r *http.Request, key string, fallback, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be numeric").
			WithDetails(map[string]any{"field": key})
	}
	if n < lo || n > hi {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is out of range").
			WithDetails(map[string]any{"field": key, "min": lo, "max": hi})
	}
	return n, nil
}

// Page reads page and limit, rejecting out-of-range values instead of
// clamping them.
func Page(r *http.Request) (pagination.Params, error) {
	page, err := QueryInt(r, "page", pagination.DefaultPage, 1, MaxPage)
	if err != nil {
		return pagination.Params{}, err
	}
	limit, err := QueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, Limit: limit}, nil
}

// QueryString returns a query parameter with surrounding space removed,
// cut to at most maxRunes runes. maxRunes <= 0 means no cap.
func QueryString(r *http.Request, key string, maxRunes int) string {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if maxRunes <= 0 {
		return v
	}
	if runes := []rune(v); len(runes) > maxRunes {
		return string(runes[:maxRunes])
	}
	return v
}
