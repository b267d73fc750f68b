package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/slate/internal/analysis"
	"github.com/mesh-intelligence/slate/internal/intake"
	"github.com/mesh-intelligence/slate/internal/kanban"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// Response is the envelope around every JSON reply.
type Response struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     *Error    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Error describes a failed request.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	CodeBadRequest  = "BAD_REQUEST"
	CodeNotFound    = "NOT_FOUND"
	CodeConflict    = "CONFLICT"
	CodeUnavailable = "ANALYZER_UNAVAILABLE"
	CodeParseFailed = "PARSE_FAILED"
	CodeInternal    = "INTERNAL_ERROR"
)

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Success: true, Data: data, Timestamp: time.Now().UTC()})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Response{
		Success:   false,
		Error:     &Error{Code: code, Message: message},
		Timestamp: time.Now().UTC(),
	})
}

// fail maps err to a status code and writes the error envelope.
func fail(c *gin.Context, err error) {
	status, code := classify(err)
	respondError(c, status, code, err.Error())
}

func classify(err error) (int, string) {
	var parseErr *analysis.ParseError
	switch {
	case errors.Is(err, types.ErrNotFound), errors.Is(err, types.ErrFieldNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, types.ErrProjectExists):
		return http.StatusConflict, CodeConflict
	case types.IsUserError(err), errors.Is(err, intake.ErrEmptyScript):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, kanban.ErrNoAnalyzer):
		return http.StatusServiceUnavailable, CodeUnavailable
	case errors.As(err, &parseErr):
		return http.StatusBadGateway, CodeParseFailed
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
