package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"loan-portal/internal/domain"
	"loan-portal/internal/service"
)

const (
	msgMissingAuthorization = "missing or malformed authorization"
	msgInvalidToken         = "invalid or expired token"
	msgUserNotFound         = "user not found"
	msgInsufficientRole     = "access denied: insufficient role"
	msgInternal             = "internal server error"
)

// errorStatus maps service and repository errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, domain.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrStorageNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// writeError responds with the mapped status. Unexpected errors are logged and
// hidden behind a generic message.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		}).Error("request failed")
	}
	switch status {
	case http.StatusInternalServerError:
		msg = msgInternal
	case http.StatusUnauthorized:
		msg = service.ErrInvalidCredentials.Error()
	case http.StatusForbidden:
		msg = "access denied"
	case http.StatusConflict:
		msg = service.ErrEmailTaken.Error()
	}
	abortWithError(c, status, msg)
}

// bindingMessage describes the first field that failed gin binding validation.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " is not a valid address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return field + " is invalid"
	}
}
