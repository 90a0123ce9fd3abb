package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	idemdomain "github.com/smallbiznis/tably/internal/idempotency/domain"
	orderdomain "github.com/smallbiznis/tably/internal/order/domain"
	paymentdomain "github.com/smallbiznis/tably/internal/payment/domain"
	tabledomain "github.com/smallbiznis/tably/internal/table/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performWithError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	r.GET("/boom", func(c *gin.Context) {
		AbortWithError(c, err)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestErrorMapping_SeatConflictCarriesCurrentStatus(t *testing.T) {
	err := &tabledomain.ConflictError{
		Err:           tabledomain.ErrAlreadySeated,
		CurrentStatus: tabledomain.StatusSeated,
	}

	w := performWithError(t, err)
	require.Equal(t, http.StatusConflict, w.Code)

	payload := decodeError(t, w)
	assert.Equal(t, "conflict", payload.Type)
	assert.Contains(t, payload.Message, "conflict_already_seated")
	assert.Equal(t, "seated", payload.CurrentStatus)
}

func TestErrorMapping_AmountMismatchCarriesExpectedCents(t *testing.T) {
	err := &paymentdomain.AmountError{
		ExpectedCents: 10700,
		GivenCents:    10000,
	}

	w := performWithError(t, err)
	require.Equal(t, http.StatusConflict, w.Code)

	payload := decodeError(t, w)
	assert.Equal(t, "conflict", payload.Type)
	assert.Equal(t, int64(10700), payload.ExpectedCents)
}

func TestErrorMapping_StatusTable(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		errType  string
		terminal bool
	}{
		{"already paid", paymentdomain.ErrAlreadyPaid, http.StatusConflict, "conflict", true},
		{"key reuse", idemdomain.ErrKeyReuse, http.StatusConflict, "conflict", true},
		{"invalid transition", tabledomain.ErrInvalidTransition, http.StatusUnprocessableEntity, "invalid_state", true},
		{"order frozen", orderdomain.ErrInvalidState, http.StatusUnprocessableEntity, "invalid_state", true},
		{"permission denied", orderdomain.ErrPermissionDenied, http.StatusForbidden, "permission_denied", true},
		{"not found", orderdomain.ErrNotFound, http.StatusNotFound, "not_found", false},
		{"bad quantity", orderdomain.ErrInvalidQuantity, http.StatusBadRequest, "validation_error", true},
		{"lock timeout", idemdomain.ErrTimeout, http.StatusGatewayTimeout, "timeout", false},
		{"unknown", assert.AnError, http.StatusInternalServerError, "internal_error", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := performWithError(t, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.errType, decodeError(t, w).Type)
			assert.Equal(t, tc.terminal, isTerminal(tc.err))
		})
	}
}

func TestErrorMapping_ValidationErrorsListFields(t *testing.T) {
	w := performWithError(t, newValidationError("guest_count", "out_of_range", "guest count exceeds capacity"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	payload := decodeError(t, w)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "guest_count", payload.Errors[0].Field)
	assert.Equal(t, "out_of_range", payload.Errors[0].Code)
}
