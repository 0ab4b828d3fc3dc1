package handler

import (
	"errors"
	"net/http"

	"huddle/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Uniform response envelope: success is code 0 with resp_data, failure
// carries a taxonomy code and a human-readable msg. HTTP status conveys
// the error class.
type apiResponse struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"resp_data,omitempty"`
}

const (
	codeValidation   = 1001
	codeUnauthorized = 1002
	codeNotFound     = 1003
	codeConflict     = 1004
	codeRateLimited  = 1005
	codeInternal     = 1500
)

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, apiResponse{Code: 0, Msg: "success", Data: data})
}

func respondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, apiResponse{Code: 0, Msg: "success", Data: data})
}

// respondErr maps the error taxonomy to status + envelope. Invariant
// violations and unknown errors are logged and surfaced as a generic
// internal error; their details never reach the client.
func respondErr(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, apiResponse{Code: codeValidation, Msg: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, apiResponse{Code: codeUnauthorized, Msg: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, apiResponse{Code: codeNotFound, Msg: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, apiResponse{Code: codeConflict, Msg: err.Error()})
	case errors.Is(err, domain.ErrInvariant):
		log.Error("invariant violation", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, apiResponse{Code: codeInternal, Msg: "internal error"})
	default:
		log.Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, apiResponse{Code: codeInternal, Msg: "internal error"})
	}
}

func respondBindErr(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, apiResponse{Code: codeValidation, Msg: err.Error()})
}
