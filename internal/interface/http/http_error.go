package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yanqian/dupcheck/pkg/errors"
)

// HTTPError is the transport view of a failure: status, stable code and client-facing message.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewHTTPError builds an HTTPError.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

func badRequest(err error) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err)
}

// domainStatus maps AppError codes to response status and public code.
var domainStatus = map[string]struct {
	status int
	code   string
}{
	apperrors.CodeInvalidInput:       {http.StatusBadRequest, "invalid_request"},
	apperrors.CodeModelUnavailable:   {http.StatusServiceUnavailable, apperrors.CodeModelUnavailable},
	apperrors.CodeInvalidCredentials: {http.StatusUnauthorized, apperrors.CodeInvalidCredentials},
	apperrors.CodeInvalidToken:       {http.StatusForbidden, apperrors.CodeInvalidToken},
}

// fromDomainError translates a service error; unknown codes become a 500 with fallback as code.
func fromDomainError(err error, fallback string) *HTTPError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if mapped, ok := domainStatus[appErr.Code]; ok {
			return NewHTTPError(mapped.status, mapped.code, errMessage(err), err)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, fallback, errMessage(err), err)
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	mapped := fromDomainError(err, "internal_error")
	if mapped.Status == http.StatusInternalServerError {
		mapped.Message = "something went wrong"
	}
	return mapped
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
