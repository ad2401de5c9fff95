package responses

import (
	"errors"
	"erdv/internal/errs"
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

func Success(c *gin.Context, statusCode int, data any, message string) {
	c.JSON(statusCode, APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func Fail(c *gin.Context, statusCode int, err error, message string) {
	resp := APIResponse{
		Status:  "error",
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
		var e *errs.Error
		if errors.As(err, &e) {
			resp.Kind = e.Kind.String()
		}
	}
	c.JSON(statusCode, resp)
}

// StatusFor picks the HTTP status code from the error's kind.
func StatusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindParse, errs.KindTooComplex, errs.KindEmpty, errs.KindUnsupportedType, errs.KindInvalidInput:
		return http.StatusBadRequest
	case errs.KindLimitExceeded:
		return http.StatusUnprocessableEntity
	case errs.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case errs.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
