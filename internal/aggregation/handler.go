package aggregation

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	httperr "github.com/stratahq/strata/internal/core/errors"
	"github.com/stratahq/strata/internal/core/storage"
)

// UsageValue is one day of a usage query response.
type UsageValue struct {
	Date   string `json:"date"`
	Weight string `json:"weight"`
	Count  int64  `json:"count"`
}

// UsageQueryResponse is the body of GET /v1/usage/:key.
type UsageQueryResponse struct {
	Key    string       `json:"key"`
	From   string       `json:"from"`
	To     string       `json:"to"`
	Values []UsageValue `json:"values"`
}

// MonthlyTotalResponse is the body of GET /v1/usage/:key/monthly.
type MonthlyTotalResponse struct {
	Key   string `json:"key"`
	Month string `json:"month"`
	Total string `json:"total"`
}

// RegisterRoutes registers the usage read routes on the given router.
func (a *Aggregator) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/usage/:key", a.HandleQuery)
	r.GET("/v1/usage/:key/monthly", a.HandleMonthlyTotal)
}

// HandleQuery handles GET /v1/usage/:key
// Query parameters: from, to (YYYY-MM-DD, inclusive)
func (a *Aggregator) HandleQuery(c *gin.Context) {
	var query struct {
		From time.Time `form:"from" binding:"required" time_format:"2006-01-02" time_utc:"1"`
		To   time.Time `form:"to" binding:"required" time_format:"2006-01-02" time_utc:"1"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidArgumentError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	key := c.Param("key")
	usage, err := a.Query(c.Request.Context(), key, query.From, query.To)
	if err != nil {
		writeQueryError(c, err)
		return
	}

	values := make([]UsageValue, 0, len(usage))
	for _, u := range usage {
		values = append(values, UsageValue{
			Date:   u.Date.Format(time.DateOnly),
			Weight: u.Weight.String(),
			Count:  u.Count,
		})
	}

	c.JSON(http.StatusOK, UsageQueryResponse{
		Key:    key,
		From:   query.From.Format(time.DateOnly),
		To:     query.To.Format(time.DateOnly),
		Values: values,
	})
}

// HandleMonthlyTotal handles GET /v1/usage/:key/monthly
// Query parameters: date (YYYY-MM-DD, any day of the month)
func (a *Aggregator) HandleMonthlyTotal(c *gin.Context) {
	var query struct {
		Date time.Time `form:"date" binding:"required" time_format:"2006-01-02" time_utc:"1"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidArgumentError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	key := c.Param("key")
	total, err := a.MonthlyTotal(c.Request.Context(), key, query.Date)
	if err != nil {
		writeQueryError(c, err)
		return
	}

	c.JSON(http.StatusOK, MonthlyTotalResponse{
		Key:   key,
		Month: query.Date.Format("2006-01"),
		Total: total.String(),
	})
}

func writeQueryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidArgumentError,
			Message:   "Invalid usage query",
			Details:   err.Error(),
		})
	case errors.Is(err, ErrDisposed):
		c.JSON(http.StatusServiceUnavailable, httperr.ErrorResponse{
			ErrorType: httperr.HttpUnavailableError,
			Message:   "Usage metering is shutting down",
		})
	default:
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to query usage",
			Details:   err.Error(),
		})
	}
}
