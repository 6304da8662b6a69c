package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
)

// RequireQuery returns the trimmed query parameter or a validation error.
func RequireQuery(r *http.Request, key string) (string, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return "", pkgerrors.Validation(key, key+" is required")
	}
	return value, nil
}

// ParsePathID parses a positive route parameter that fits a BIGINT column.
func ParsePathID(r *http.Request, key string) (uint64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := strconv.ParseUint(raw, 10, 63)
	if err != nil || id == 0 {
		return 0, pkgerrors.Validation(key, "invalid "+key)
	}
	return id, nil
}
