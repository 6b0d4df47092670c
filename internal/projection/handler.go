package projection

import (
	"errors"
	"net/http"

	httperr "github.com/aevon-lab/rule-engine/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the query routes. The alerts route exists only
// when an alert reader is configured.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/windows/:device_id", s.HandleQueryWindow)
	if s.HasAlertReader() {
		r.GET("/v1/alerts/:device_id", s.HandleListAlerts)
	}
}

// HandleQueryWindow handles GET /v1/windows/:device_id
func (s *Service) HandleQueryWindow(c *gin.Context) {
	resp, err := s.QueryWindow(c.Param("device_id"))
	if err != nil {
		writeQueryError(c, err, "Failed to query window")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleListAlerts handles GET /v1/alerts/:device_id
// Query parameters: limit
func (s *Service) HandleListAlerts(c *gin.Context) {
	var query struct {
		Limit int `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	resp, err := s.ListAlerts(c.Request.Context(), c.Param("device_id"), query.Limit)
	if err != nil {
		writeQueryError(c, err, "Failed to list alerts")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func writeQueryError(c *gin.Context, err error, internalMsg string) {
	switch {
	case errors.Is(err, ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidQueryError,
			Message:   "Invalid query",
			Details:   err.Error(),
		})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   internalMsg,
			Details:   err.Error(),
		})
	}
}
