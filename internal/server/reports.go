package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) DailyReport(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		AbortWithError(c, newValidationError("date", "missing_date", "date is required"))
		return
	}

	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		AbortWithError(c, newValidationError("date", "invalid_date", "expected YYYY-MM-DD"))
		return
	}

	report, err := s.reportSvc.Daily(c.Request.Context(), date)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
