package pagarme

import (
	"strings"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
)

// refuseReasonMessage таблица причин отказа эквайера.
func refuseReasonMessage(reason string) string {
	switch reason {
	case "insufficient_funds":
		return "insufficient funds"
	case "expired_card":
		return "expired card"
	case "acquirer":
		return "acquirer error"
	case "antifraud":
		return "transaction declined by antifraud"
	case "card_not_active":
		return "card inactive or blocked"
	case "card_error":
		return "card data error"
	default:
		return "transaction declined: " + reason
	}
}

// declineReason извлекает человекочитаемую причину отказа из тела ошибки шлюза.
func declineReason(apiErr *apiError) string {
	if apiErr == nil {
		return "unknown reason"
	}
	if apiErr.RefuseReason != "" {
		return refuseReasonMessage(apiErr.RefuseReason)
	}
	if apiErr.LastTransaction != nil {
		if apiErr.LastTransaction.AcquirerMessage != "" {
			return apiErr.LastTransaction.AcquirerMessage
		}
		if apiErr.LastTransaction.Message != "" {
			return apiErr.LastTransaction.Message
		}
	}
	if len(apiErr.Errors) > 0 {
		return apiErr.Errors[0].Message
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return "unknown reason"
}

// logGatewayError вспомогательная функция для логирования деталей ошибки шлюза.
func logGatewayError(log *logger.Logger, operation string, statusCode int, apiErr *apiError, err error) {
	if apiErr != nil {
		log.Errorw("Pagar.me API error",
			"operation", operation,
			"status_code", statusCode,
			"message", apiErr.Message,
			"refuse_reason", apiErr.RefuseReason,
		)
		return
	}
	log.Errorw("Transport error during Pagar.me operation",
		"operation", operation,
		"error", err,
	)
}

// classifyHTTPError переводит ошибку HTTP-ответа шлюза в доменную таксономию.
func classifyHTTPError(statusCode int, apiErr *apiError, err error) error {
	if reason := declineReason(apiErr); strings.Contains(strings.ToLower(reason), "already has a subscription") {
		return domain.NewGatewayConflict(reason, statusCode, err)
	}
	if apiErr != nil && (apiErr.RefuseReason != "" || apiErr.LastTransaction != nil) {
		return domain.NewGatewayDeclined(declineReason(apiErr), statusCode, err)
	}
	if statusCode >= 500 || statusCode == 429 {
		return domain.NewGatewayTransient(declineReason(apiErr), statusCode, err)
	}
	return domain.NewGatewayDeclined(declineReason(apiErr), statusCode, err)
}
