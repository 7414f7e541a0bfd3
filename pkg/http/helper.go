package http

import (
	"net/http"
	apperrors "roomstay/pkg/errors"
	"strconv"
	"time"
)

// DateLayout is the wire format for ledger dates and stay boundaries.
const DateLayout = "2006-01-02"

// ExtractDate parses a required date query parameter.
func ExtractDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, apperrors.InvalidInput("missing required parameter: " + name)
	}

	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid " + name + " format, must be YYYY-MM-DD")
	}
	return t, nil
}

// ExtractQuantity parses a positive integer query parameter with a default of 1.
func ExtractQuantity(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 1, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter: " + raw)
	}
	if n <= 0 {
		return 0, apperrors.InvalidInput(name + " must be positive")
	}
	return n, nil
}
