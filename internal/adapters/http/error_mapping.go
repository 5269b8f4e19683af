package httpadapter

import (
	"net/http"

	"github.com/ekomarov/fundchat/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrMalformedInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotReady):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicErrorMessage keeps upstream provider details out of client-facing
// responses; full errors go to the log.
func publicErrorMessage(err error, status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusServiceUnavailable:
		if domain.IsKind(err, domain.ErrNotReady) {
			return "system is not ready"
		}
		return "temporarily unavailable, retry later"
	default:
		return "internal error"
	}
}
