package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParseIntInRange reads an optional integer query parameter. An absent
// parameter yields def; a malformed or out-of-range value writes a 400
// response and returns ok=false.
func ParseIntInRange(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, def, min, max int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min || value > max {
		RespondError(w, logger, http.StatusBadRequest,
			fmt.Sprintf("%s must be an integer between %d and %d", key, min, max))
		return 0, false
	}
	return value, true
}

// ParseIntMin reads an optional integer query parameter with a lower bound
// only. An absent parameter yields def; a malformed or too-small value
// writes a 400 response and returns ok=false.
func ParseIntMin(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, def, min int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < min {
		RespondError(w, logger, http.StatusBadRequest,
			fmt.Sprintf("%s must be an integer greater than or equal to %d", key, min))
		return 0, false
	}
	return value, true
}

// ParseOptionalPrice reads an optional non-negative number query parameter.
// Returns nil when absent; writes a 400 response and returns ok=false when
// the value is malformed or negative.
func ParseOptionalPrice(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string) (*float64, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		RespondError(w, logger, http.StatusBadRequest,
			fmt.Sprintf("%s must be a non-negative number", key))
		return nil, false
	}
	return &value, true
}
