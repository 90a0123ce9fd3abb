package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/tably/internal/audit/domain"
	catalogdomain "github.com/smallbiznis/tably/internal/catalog/domain"
	discountdomain "github.com/smallbiznis/tably/internal/discount/domain"
	idemdomain "github.com/smallbiznis/tably/internal/idempotency/domain"
	orderdomain "github.com/smallbiznis/tably/internal/order/domain"
	paymentdomain "github.com/smallbiznis/tably/internal/payment/domain"
	reportdomain "github.com/smallbiznis/tably/internal/report/domain"
	tabledomain "github.com/smallbiznis/tably/internal/table/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type          string            `json:"type"`
	Message       string            `json:"message"`
	CurrentStatus string            `json:"current_status,omitempty"`
	ExpectedCents int64             `json:"expected_cents,omitempty"`
	Errors        []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInternal = errors.New("internal_error")

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// mapError translates domain sentinels into the wire contract: conflicts are
// 409, state-machine rejections are 422, and conflict payloads carry the
// status the resource actually held.
func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	var vErrs *ValidationErrors
	if errors.As(err, &vErrs) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErrs.Errors,
		}
	}

	currentStatus := ""
	var conflictErr *tabledomain.ConflictError
	if errors.As(err, &conflictErr) {
		currentStatus = string(conflictErr.CurrentStatus)
	}
	var stateErr *orderdomain.StateError
	if errors.As(err, &stateErr) {
		currentStatus = stateErr.CurrentStatus
	}

	switch {
	case errors.Is(err, tabledomain.ErrAlreadySeated),
		errors.Is(err, paymentdomain.ErrAlreadyPaid),
		errors.Is(err, orderdomain.ErrDiscountExists),
		errors.Is(err, idemdomain.ErrKeyReuse):
		return http.StatusConflict, errorPayload{
			Type:          "conflict",
			Message:       err.Error(),
			CurrentStatus: currentStatus,
		}

	// An amount mismatch is a conflict with the stored bill, not a
	// malformed request; the payload carries the total the register must
	// re-display.
	case errors.Is(err, paymentdomain.ErrAmountMismatch):
		payload := errorPayload{Type: "conflict", Message: err.Error()}
		var amountErr *paymentdomain.AmountError
		if errors.As(err, &amountErr) {
			payload.ExpectedCents = amountErr.ExpectedCents
		}
		return http.StatusConflict, payload

	case errors.Is(err, orderdomain.ErrInvalidState),
		errors.Is(err, orderdomain.ErrInvalidTransition),
		errors.Is(err, tabledomain.ErrInvalidTransition),
		errors.Is(err, paymentdomain.ErrNotBilled),
		errors.Is(err, paymentdomain.ErrNotPaid),
		errors.Is(err, orderdomain.ErrOrderNotEmpty),
		errors.Is(err, orderdomain.ErrProductInactive):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:          "invalid_state",
			Message:       err.Error(),
			CurrentStatus: currentStatus,
		}

	case errors.Is(err, orderdomain.ErrPermissionDenied):
		return http.StatusForbidden, errorPayload{
			Type:    "permission_denied",
			Message: err.Error(),
		}

	case errors.Is(err, tabledomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, discountdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "resource not found",
		}

	case errors.Is(err, idemdomain.ErrTimeout):
		return http.StatusGatewayTimeout, errorPayload{
			Type:    "timeout",
			Message: err.Error(),
		}

	case errors.Is(err, orderdomain.ErrInvalidQuantity),
		errors.Is(err, orderdomain.ErrEmptyLines),
		errors.Is(err, orderdomain.ErrReasonRequired),
		errors.Is(err, tabledomain.ErrInvalidGuestCount),
		errors.Is(err, tabledomain.ErrInvalidLabel),
		errors.Is(err, tabledomain.ErrInvalidCapacity),
		errors.Is(err, paymentdomain.ErrInvalidMethod),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, catalogdomain.ErrInvalidSKU),
		errors.Is(err, catalogdomain.ErrInvalidName),
		errors.Is(err, catalogdomain.ErrInvalidPrice),
		errors.Is(err, discountdomain.ErrInvalidCode),
		errors.Is(err, discountdomain.ErrInvalidKind),
		errors.Is(err, discountdomain.ErrInvalidValue),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, reportdomain.ErrInvalidDate):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

// isTerminal reports whether a failure is a deterministic business outcome.
// Terminal failures are recorded against the idempotency key so a retry
// replays the same answer instead of re-executing.
func isTerminal(err error) bool {
	status, _ := mapError(err)
	return status >= 400 && status < 500 && status != http.StatusNotFound
}

func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return "internal", payload.Type
	}
	return payload.Type, payload.Message
}
