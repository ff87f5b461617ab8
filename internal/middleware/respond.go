package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"carbon-scribe/impact-ledger/pkg/ledger"
)

// StatusFor maps a ledger error code to an HTTP status
func StatusFor(code ledger.ErrorCode) int {
	switch code {
	case ledger.ErrNotFound:
		return http.StatusNotFound
	case ledger.ErrOwnerOnly, ledger.ErrUnauthorized:
		return http.StatusForbidden
	case ledger.ErrInsufficientFunds:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondResult writes body with the status implied by res. Successful
// results use okStatus.
func RespondResult(c *gin.Context, res ledger.Result, okStatus int, body any) {
	if res.Success {
		c.JSON(okStatus, body)
		return
	}
	c.JSON(StatusFor(res.Error), body)
}

// ParseID reads a positive integer path parameter
func ParseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
