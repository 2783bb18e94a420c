package controller

import (
	"errors"
	"net/http"

	messaging "github.com/L2402/TeleasistenciaAdultoMayores/internal/pkg/messaging/application/domain"
)

// httpStatus maps the domain error taxonomy onto HTTP status codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, messaging.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, messaging.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, messaging.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, messaging.ErrTransport):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
