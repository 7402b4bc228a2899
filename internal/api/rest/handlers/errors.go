package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/res"
	"github.com/gin-gonic/gin"
)

// respondError переводит ошибку таксономии в HTTP-статус и тело ответа.
// Детали транспортных ошибок наружу не выходят.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	var details []string

	var validationErrs domain.ValidationErrors
	var gatewayErr *domain.GatewayError

	switch {
	case errors.As(err, &validationErrs):
		status = http.StatusBadRequest
		message = "validation failed: " + strings.Join(validationErrs.Fields(), ", ")
		details = validationErrs.Fields()
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.As(err, &gatewayErr):
		switch {
		case errors.Is(err, domain.ErrGatewayDeclined):
			status = http.StatusBadRequest
		case errors.Is(err, domain.ErrGatewayTransient):
			status = http.StatusBadGateway
		default:
			status = http.StatusInternalServerError
		}
		message = gatewayErr.Error()
	case errors.Is(err, domain.ErrRecordNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
		message = "unauthenticated"
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = http.StatusInternalServerError
		message = "storage temporarily unavailable"
	}

	if status >= http.StatusInternalServerError {
		log.Errorw("Request failed", "path", c.Request.URL.Path, "error", err)
	} else {
		log.Warnw("Request rejected", "path", c.Request.URL.Path, "status", status, "error", err)
	}

	res.JsonResponse(c.Writer, res.ErrorResponse{
		Error:     message,
		ErrorCode: status,
		Details:   details,
	}, status)
}
